package deliveries

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
	"github.com/rcmanalo/buildmart-backend/pkg/outbox"
	"github.com/rcmanalo/buildmart-backend/pkg/types"
)

type stubDeliveriesRepo struct {
	order            *models.Order
	delivery         *models.Delivery
	users            []models.User
	updates          map[string]any
	createdDelivery  *models.Delivery
	replacedDrivers  []models.User
	replacedVehicles []models.FleetVehicle
	driversReplaced  bool
	vehiclesReplaced bool
}

func (s *stubDeliveriesRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubDeliveriesRepo) FindByID(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	if s.delivery == nil || s.delivery.ID != deliveryID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.delivery, nil
}

func (s *stubDeliveriesRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	if s.delivery == nil || s.delivery.OrderID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.delivery, nil
}

func (s *stubDeliveriesRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubDeliveriesRepo) CreateDelivery(ctx context.Context, delivery *models.Delivery) error {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	s.createdDelivery = delivery
	s.delivery = delivery
	return nil
}

func (s *stubDeliveriesRepo) UpdateDelivery(ctx context.Context, deliveryID uuid.UUID, updates map[string]any) error {
	s.updates = updates
	if v, ok := updates["status"].(enums.DeliveryStatus); ok {
		s.delivery.Status = v
	}
	return nil
}

func (s *stubDeliveriesRepo) ReplaceDrivers(ctx context.Context, delivery *models.Delivery, drivers []models.User) error {
	s.replacedDrivers = drivers
	s.driversReplaced = true
	delivery.Drivers = drivers
	return nil
}

func (s *stubDeliveriesRepo) ReplaceVehicles(ctx context.Context, delivery *models.Delivery, vehicles []models.FleetVehicle) error {
	s.replacedVehicles = vehicles
	s.vehiclesReplaced = true
	delivery.Vehicles = vehicles
	return nil
}

func (s *stubDeliveriesRepo) FindUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.User, error) {
	var found []models.User
	for _, user := range s.users {
		for _, id := range userIDs {
			if user.ID == id {
				found = append(found, user)
			}
		}
	}
	return found, nil
}

type stubFleet struct {
	vehicles    []models.FleetVehicle
	markedInUse []uuid.UUID
	released    []uuid.UUID
}

func (s *stubFleet) FindVehicles(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) ([]models.FleetVehicle, error) {
	var found []models.FleetVehicle
	for _, vehicle := range s.vehicles {
		for _, id := range vehicleIDs {
			if vehicle.ID == id {
				found = append(found, vehicle)
			}
		}
	}
	return found, nil
}

func (s *stubFleet) MarkInUse(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) error {
	s.markedInUse = append(s.markedInUse, vehicleIDs...)
	return nil
}

func (s *stubFleet) ReleaseIdle(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) error {
	s.released = append(s.released, vehicleIDs...)
	return nil
}

type stubMirror struct {
	mirrored  []enums.OrderStatus
	canceled  int
	mirrorErr error
	cancelErr error
}

func (s *stubMirror) MirrorDeliveryProgress(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, target enums.OrderStatus, actor *outbox.ActorRef) error {
	if s.mirrorErr != nil {
		return s.mirrorErr
	}
	s.mirrored = append(s.mirrored, target)
	return nil
}

func (s *stubMirror) CancelFromDelivery(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.canceled++
	return nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func strPtr(s string) *string { return &s }

type fixture struct {
	svc    Service
	repo   *stubDeliveriesRepo
	fleet  *stubFleet
	mirror *stubMirror
	events *stubOutboxPublisher
}

func newFixture(t *testing.T, repo *stubDeliveriesRepo) *fixture {
	t.Helper()
	fleet := &stubFleet{}
	mirror := &stubMirror{}
	events := &stubOutboxPublisher{}
	svc, err := NewService(repo, stubTxRunner{}, events, mirror, fleet, nil, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return &fixture{svc: svc, repo: repo, fleet: fleet, mirror: mirror, events: events}
}

func newStandardOrder() *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		OrderNumber:    7001,
		CustomerID:     uuid.New(),
		Status:         enums.OrderStatusProcessing,
		DeliveryMethod: enums.DeliveryMethodStandard,
	}
}

func newDelivery(order *models.Order, status enums.DeliveryStatus) *models.Delivery {
	return &models.Delivery{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  status,
	}
}

func staffAdvance(orderID uuid.UUID, target enums.DeliveryStatus) AdvanceInput {
	return AdvanceInput{
		OrderID:     orderID,
		Target:      target,
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleStoreEmployee,
	}
}

func TestAdvanceForwardEdge(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPending)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	err := f.svc.AdvanceStatus(context.Background(), staffAdvance(order.ID, enums.DeliveryStatusPreparing))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if delivery.Status != enums.DeliveryStatusPreparing {
		t.Fatalf("expected preparing got %s", delivery.Status)
	}
	if len(f.mirror.mirrored) != 1 || f.mirror.mirrored[0] != enums.OrderStatusProcessing {
		t.Fatalf("unexpected mirror calls %+v", f.mirror.mirrored)
	}
	if len(f.events.events) != 1 || f.events.events[0].EventType != enums.EventDeliveryStatusChanged {
		t.Fatalf("unexpected events %+v", f.events.events)
	}
}

func TestAdvanceSameStatusNoOp(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPreparing)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	err := f.svc.AdvanceStatus(context.Background(), staffAdvance(order.ID, enums.DeliveryStatusPreparing))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(f.events.events) != 0 || len(f.mirror.mirrored) != 0 {
		t.Fatal("no-op must have no side effects")
	}
}

func TestAdvanceSkipInvalid(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPending)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	err := f.svc.AdvanceStatus(context.Background(), staffAdvance(order.ID, enums.DeliveryStatusOutForDelivery))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidTransition {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAdvanceTerminalAlreadyFinal(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusDelivered)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	err := f.svc.AdvanceStatus(context.Background(), staffAdvance(order.ID, enums.DeliveryStatusPreparing))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeAlreadyFinal {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAdvanceDriverNotAssigned(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPreparing)
	delivery.Drivers = []models.User{{ID: uuid.New(), Role: enums.ActorRoleDriver}}
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	err := f.svc.AdvanceStatus(context.Background(), AdvanceInput{
		OrderID:     order.ID,
		Target:      enums.DeliveryStatusOutForDelivery,
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleDriver,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAdvanceAssignedDriverAllowed(t *testing.T) {
	order := newStandardOrder()
	driverID := uuid.New()
	delivery := newDelivery(order, enums.DeliveryStatusPreparing)
	delivery.Drivers = []models.User{{ID: driverID, Role: enums.ActorRoleDriver}}
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	err := f.svc.AdvanceStatus(context.Background(), AdvanceInput{
		OrderID:     order.ID,
		Target:      enums.DeliveryStatusOutForDelivery,
		ActorUserID: driverID,
		ActorRole:   enums.ActorRoleDriver,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if delivery.Status != enums.DeliveryStatusOutForDelivery {
		t.Fatalf("expected out_for_delivery got %s", delivery.Status)
	}
}

func TestAdvanceDriverCannotCancel(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusOutForDelivery)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	err := f.svc.AdvanceStatus(context.Background(), AdvanceInput{
		OrderID:     order.ID,
		Target:      enums.DeliveryStatusCanceled,
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleDriver,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAdvanceDriverNeverCreatesDelivery(t *testing.T) {
	order := newStandardOrder()
	f := newFixture(t, &stubDeliveriesRepo{order: order})

	err := f.svc.AdvanceStatus(context.Background(), AdvanceInput{
		OrderID:     order.ID,
		Target:      enums.DeliveryStatusPreparing,
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleDriver,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error %v", err)
	}
	if f.repo.createdDelivery != nil {
		t.Fatal("driver must not create a delivery")
	}
}

func TestAdvanceStaffLazilyCreates(t *testing.T) {
	order := newStandardOrder()
	repo := &stubDeliveriesRepo{order: order}
	f := newFixture(t, repo)

	err := f.svc.AdvanceStatus(context.Background(), staffAdvance(order.ID, enums.DeliveryStatusPreparing))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.createdDelivery == nil {
		t.Fatal("expected lazily created delivery")
	}
	if repo.delivery.Status != enums.DeliveryStatusPreparing {
		t.Fatalf("expected preparing got %s", repo.delivery.Status)
	}
}

func TestAdvancePickUpOrderRefused(t *testing.T) {
	order := newStandardOrder()
	order.DeliveryMethod = enums.DeliveryMethodPickUp
	f := newFixture(t, &stubDeliveriesRepo{order: order})

	err := f.svc.AdvanceStatus(context.Background(), staffAdvance(order.ID, enums.DeliveryStatusPreparing))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAdvanceOutForDeliveryNotYetDue(t *testing.T) {
	order := newStandardOrder()
	scheduled := time.Now().AddDate(0, 0, 3)
	order.ScheduledDate = &scheduled
	delivery := newDelivery(order, enums.DeliveryStatusPreparing)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	err := f.svc.AdvanceStatus(context.Background(), staffAdvance(order.ID, enums.DeliveryStatusOutForDelivery))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotYetDue {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAdvanceDeliveredMergesProofAndReleasesVehicles(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusOutForDelivery)
	vehicleID := uuid.New()
	delivery.Vehicles = []models.FleetVehicle{{ID: vehicleID, Status: enums.VehicleStatusInUse}}
	repo := &stubDeliveriesRepo{order: order, delivery: delivery}
	f := newFixture(t, repo)

	input := staffAdvance(order.ID, enums.DeliveryStatusDelivered)
	input.ProofRef = strPtr("uploads/pod-991.jpg")
	err := f.svc.AdvanceStatus(context.Background(), input)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	details, ok := repo.updates["details"].(types.JSONMap)
	if !ok || details["proof_of_delivery"] != "uploads/pod-991.jpg" {
		t.Fatalf("expected proof merged into details, got %+v", repo.updates["details"])
	}
	if len(f.fleet.released) != 1 || f.fleet.released[0] != vehicleID {
		t.Fatalf("expected vehicle release got %+v", f.fleet.released)
	}
	if len(f.mirror.mirrored) != 1 || f.mirror.mirrored[0] != enums.OrderStatusReady {
		t.Fatalf("unexpected mirror calls %+v", f.mirror.mirrored)
	}
}

func TestAdvanceMirrorFailureDoesNotFailTransition(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPending)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})
	f.mirror.mirrorErr = fmt.Errorf("order row gone sideways")

	err := f.svc.AdvanceStatus(context.Background(), staffAdvance(order.ID, enums.DeliveryStatusPreparing))
	if err != nil {
		t.Fatalf("mirror failure must not fail the transition: %v", err)
	}
	if delivery.Status != enums.DeliveryStatusPreparing {
		t.Fatalf("expected preparing got %s", delivery.Status)
	}
	if len(f.events.events) != 1 {
		t.Fatal("expected status event despite mirror failure")
	}
}

func TestAssignDriversUnknownDriver(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPending)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	missing := uuid.New()
	err := f.svc.AssignDrivers(context.Background(), AssignDriversInput{
		OrderID:     delivery.OrderID,
		DriverIDs:   []uuid.UUID{missing},
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(typed.Message(), missing.String()) {
		t.Fatalf("expected offender named, got %q", typed.Message())
	}
}

func TestAssignDriversRejectsNonDriverRole(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPending)
	customer := models.User{ID: uuid.New(), Role: enums.ActorRoleCustomer}
	repo := &stubDeliveriesRepo{order: order, delivery: delivery, users: []models.User{customer}}
	f := newFixture(t, repo)

	err := f.svc.AssignDrivers(context.Background(), AssignDriversInput{
		OrderID:     delivery.OrderID,
		DriverIDs:   []uuid.UUID{customer.ID},
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(typed.Message(), customer.ID.String()) {
		t.Fatalf("expected offender named, got %q", typed.Message())
	}
	if repo.driversReplaced {
		t.Fatal("assignment must not proceed with a non-driver")
	}
}

func TestAssignDriversEmptySetUnassigns(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPending)
	delivery.Drivers = []models.User{{ID: uuid.New(), Role: enums.ActorRoleDriver}}
	repo := &stubDeliveriesRepo{order: order, delivery: delivery}
	f := newFixture(t, repo)

	err := f.svc.AssignDrivers(context.Background(), AssignDriversInput{
		OrderID:     delivery.OrderID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !repo.driversReplaced || len(repo.replacedDrivers) != 0 {
		t.Fatalf("expected empty replacement got %+v", repo.replacedDrivers)
	}
}

func TestAssignVehiclesRequiresDriver(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPending)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	err := f.svc.AssignVehicles(context.Background(), AssignVehiclesInput{
		OrderID:     delivery.OrderID,
		VehicleIDs:  []uuid.UUID{uuid.New()},
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAssignVehiclesNamesUnavailable(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPending)
	delivery.Drivers = []models.User{{ID: uuid.New(), Role: enums.ActorRoleDriver}}
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})
	parked := models.FleetVehicle{ID: uuid.New(), PlateNumber: "NDF-1299", Status: enums.VehicleStatusUnavailable}
	f.fleet.vehicles = []models.FleetVehicle{parked}

	err := f.svc.AssignVehicles(context.Background(), AssignVehiclesInput{
		OrderID:     delivery.OrderID,
		VehicleIDs:  []uuid.UUID{parked.ID},
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(typed.Message(), "NDF-1299") {
		t.Fatalf("expected offender named, got %q", typed.Message())
	}
}

func TestAssignVehiclesReplacesAndFlipsStatuses(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPreparing)
	delivery.Drivers = []models.User{{ID: uuid.New(), Role: enums.ActorRoleDriver}}
	removed := models.FleetVehicle{ID: uuid.New(), PlateNumber: "NDF-1301", Status: enums.VehicleStatusInUse}
	delivery.Vehicles = []models.FleetVehicle{removed}
	repo := &stubDeliveriesRepo{order: order, delivery: delivery}
	f := newFixture(t, repo)
	added := models.FleetVehicle{ID: uuid.New(), PlateNumber: "NDF-1302", Status: enums.VehicleStatusAvailable}
	f.fleet.vehicles = []models.FleetVehicle{added}

	err := f.svc.AssignVehicles(context.Background(), AssignVehiclesInput{
		OrderID:     delivery.OrderID,
		VehicleIDs:  []uuid.UUID{added.ID},
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !repo.vehiclesReplaced || len(repo.replacedVehicles) != 1 {
		t.Fatalf("expected replacement got %+v", repo.replacedVehicles)
	}
	if len(f.fleet.markedInUse) != 1 || f.fleet.markedInUse[0] != added.ID {
		t.Fatalf("expected new vehicle in_use got %+v", f.fleet.markedInUse)
	}
	if len(f.fleet.released) != 1 || f.fleet.released[0] != removed.ID {
		t.Fatalf("expected removed vehicle released got %+v", f.fleet.released)
	}
	if len(f.events.events) != 1 || f.events.events[0].EventType != enums.EventDeliveryAssigned {
		t.Fatalf("unexpected events %+v", f.events.events)
	}
}

func TestCancelFlagsInProgress(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusOutForDelivery)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	result, err := f.svc.Cancel(context.Background(), CancelInput{
		OrderID:     order.ID,
		Reason:      "customer unreachable",
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !result.WasInProgress {
		t.Fatal("expected was_in_progress flag")
	}
	if f.mirror.canceled != 1 {
		t.Fatalf("expected order cancel, got %d calls", f.mirror.canceled)
	}
	if len(f.events.events) != 1 || f.events.events[0].EventType != enums.EventDeliveryCanceled {
		t.Fatalf("unexpected events %+v", f.events.events)
	}
}

func TestCancelTerminalAlreadyFinal(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusCanceled)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	_, err := f.svc.Cancel(context.Background(), CancelInput{
		OrderID:     order.ID,
		Reason:      "duplicate request",
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeAlreadyFinal {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCancelMissingReason(t *testing.T) {
	order := newStandardOrder()
	delivery := newDelivery(order, enums.DeliveryStatusPending)
	f := newFixture(t, &stubDeliveriesRepo{order: order, delivery: delivery})

	_, err := f.svc.Cancel(context.Background(), CancelInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}
