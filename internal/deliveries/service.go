package deliveries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
	"github.com/rcmanalo/buildmart-backend/pkg/logger"
	"github.com/rcmanalo/buildmart-backend/pkg/metrics"
	"github.com/rcmanalo/buildmart-backend/pkg/outbox"
	"github.com/rcmanalo/buildmart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// orderMirror is the slice of the order machine the delivery machine
// drives: mirroring forward progress and cascading cancellation.
type orderMirror interface {
	MirrorDeliveryProgress(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, target enums.OrderStatus, actor *outbox.ActorRef) error
	CancelFromDelivery(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef) error
}

// fleetKeeper is the slice of the fleet service assignments need.
type fleetKeeper interface {
	FindVehicles(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) ([]models.FleetVehicle, error)
	MarkInUse(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) error
	ReleaseIdle(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) error
}

// orderMirrorTarget maps a delivery transition onto the order machine.
// Delivered parks the order at ready; completion is a pick-up concept.
var orderMirrorTarget = map[enums.DeliveryStatus]enums.OrderStatus{
	enums.DeliveryStatusPreparing:      enums.OrderStatusProcessing,
	enums.DeliveryStatusOutForDelivery: enums.OrderStatusReady,
	enums.DeliveryStatusDelivered:      enums.OrderStatusReady,
}

// Service drives the delivery status machine and its assignments.
type Service interface {
	AdvanceStatus(ctx context.Context, input AdvanceInput) error
	AssignDrivers(ctx context.Context, input AssignDriversInput) error
	AssignVehicles(ctx context.Context, input AssignVehiclesInput) error
	Cancel(ctx context.Context, input CancelInput) (*CancelResult, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	orders      orderMirror
	fleet       fleetKeeper
	logg        *logger.Logger
	transitions *metrics.TransitionMetrics
	now         func() time.Time
}

// NewService builds a delivery service with the required dependencies.
// Logger and transition metrics may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, orders orderMirror, fleet fleetKeeper, logg *logger.Logger, transitions *metrics.TransitionMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order mirror required")
	}
	if fleet == nil {
		return nil, fmt.Errorf("fleet service required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		outbox:      outbox,
		orders:      orders,
		fleet:       fleet,
		logg:        logg,
		transitions: transitions,
		now:         time.Now,
	}, nil
}

func (s *service) AdvanceStatus(ctx context.Context, input AdvanceInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}
	if input.Target == enums.DeliveryStatusCanceled {
		// cancellation carries a reason and flows through Cancel
		if input.ActorRole == enums.ActorRoleDriver {
			return pkgerrors.New(pkgerrors.CodeForbidden, "drivers cannot cancel deliveries")
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "cancellation requires the cancel operation")
	}
	if !input.ActorRole.IsStaff() && input.ActorRole != enums.ActorRoleDriver {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff or driver role required")
	}

	var committedFrom enums.DeliveryStatus
	moved := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.DeliveryMethod != enums.DeliveryMethodStandard {
			return pkgerrors.New(pkgerrors.CodePrecondition, "pick-up orders have no delivery")
		}

		delivery, err := repo.FindByOrderID(ctx, input.OrderID)
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
			}
			// Drivers never create a delivery implicitly.
			if !input.ActorRole.IsStaff() {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			delivery = &models.Delivery{OrderID: order.ID, Status: enums.DeliveryStatusPending}
			if err := repo.CreateDelivery(ctx, delivery); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
			}
		}

		if input.ActorRole == enums.ActorRoleDriver && !delivery.HasDriver(input.ActorUserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "delivery is not assigned to you")
		}
		if delivery.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeAlreadyFinal, "delivery is in a final status")
		}
		if delivery.Status == input.Target {
			return nil
		}
		next, ok := delivery.Status.Successor()
		if !ok || next != input.Target {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move delivery from %s to %s", delivery.Status, input.Target))
		}

		from := delivery.Status
		committedFrom = from
		moved = true
		updates := map[string]any{"status": input.Target}

		switch input.Target {
		case enums.DeliveryStatusOutForDelivery:
			if notYetDue(order.ScheduledDate, s.now()) {
				return pkgerrors.New(pkgerrors.CodeNotYetDue, "order is not scheduled for today yet")
			}
		case enums.DeliveryStatusDelivered:
			if input.ProofRef != nil && *input.ProofRef != "" {
				details := delivery.Details
				if details == nil {
					details = types.JSONMap{}
				}
				details["proof_of_delivery"] = *input.ProofRef
				updates["details"] = details
			}
		}

		if err := repo.UpdateDelivery(ctx, delivery.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery status")
		}

		// Release only after the status write, so the terminal row no
		// longer counts as an active assignment.
		if input.Target == enums.DeliveryStatusDelivered {
			if err := s.fleet.ReleaseIdle(ctx, tx, vehicleIDs(delivery)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release vehicles")
			}
		}

		actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}
		if target, ok := orderMirrorTarget[input.Target]; ok {
			// The mirror never fails the delivery transition.
			if err := s.orders.MirrorDeliveryProgress(ctx, tx, order.ID, target, actor); err != nil && s.logg != nil {
				s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "order mirror failed", err)
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDeliveryStatusChanged,
			AggregateType: enums.AggregateDelivery,
			AggregateID:   delivery.ID,
			Version:       1,
			Actor:         actor,
			Data: StatusChangedEvent{
				DeliveryID: delivery.ID,
				OrderID:    order.ID,
				From:       from,
				To:         input.Target,
				ProofRef:   input.ProofRef,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		s.countRefusal(err)
		return err
	}
	if moved {
		s.transitions.IncDeliveryTransition(string(committedFrom), string(input.Target))
	}
	return nil
}

// countRefusal records guard-blocked transitions; infrastructure failures
// are not refusals.
func (s *service) countRefusal(err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return
	}
	switch typed.Code() {
	case pkgerrors.CodeInvalidTransition,
		pkgerrors.CodeAlreadyFinal,
		pkgerrors.CodeNotYetDue,
		pkgerrors.CodePrecondition:
		s.transitions.IncRefused("delivery", string(typed.Code()))
	}
}

func (s *service) AssignDrivers(ctx context.Context, input AssignDriversInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ActorRole.IsStaff() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		delivery, err := repo.FindByOrderID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
		}
		if delivery.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeAlreadyFinal, "delivery is in a final status")
		}

		var drivers []models.User
		if len(input.DriverIDs) > 0 {
			drivers, err = repo.FindUsers(ctx, input.DriverIDs)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load drivers")
			}
			if missing := missingIDs(input.DriverIDs, userIDSet(drivers)); len(missing) > 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("unknown drivers: %s", joinIDs(missing)))
			}
			var notDrivers []uuid.UUID
			for _, user := range drivers {
				if user.Role != enums.ActorRoleDriver {
					notDrivers = append(notDrivers, user.ID)
				}
			}
			if len(notDrivers) > 0 {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("not drivers: %s", joinIDs(notDrivers)))
			}
		}

		if err := repo.ReplaceDrivers(ctx, delivery, drivers); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace drivers")
		}

		return s.emitAssignmentChanged(ctx, tx, delivery, input.DriverIDs, vehicleIDs(delivery),
			&outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole})
	})
}

func (s *service) AssignVehicles(ctx context.Context, input AssignVehiclesInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ActorRole.IsStaff() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		delivery, err := repo.FindByOrderID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
		}
		if delivery.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeAlreadyFinal, "delivery is in a final status")
		}
		if len(delivery.Drivers) == 0 {
			return pkgerrors.New(pkgerrors.CodePrecondition, "driver required before assigning vehicles")
		}

		var vehicles []models.FleetVehicle
		if len(input.VehicleIDs) > 0 {
			vehicles, err = s.fleet.FindVehicles(ctx, tx, input.VehicleIDs)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicles")
			}
			if missing := missingIDs(input.VehicleIDs, vehicleIDSet(vehicles)); len(missing) > 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("unknown vehicles: %s", joinIDs(missing)))
			}
			var parked []string
			for _, vehicle := range vehicles {
				if vehicle.Status == enums.VehicleStatusUnavailable {
					parked = append(parked, vehicle.PlateNumber)
				}
			}
			if len(parked) > 0 {
				return pkgerrors.New(pkgerrors.CodePrecondition,
					fmt.Sprintf("vehicles unavailable: %s", strings.Join(parked, ", ")))
			}
		}

		removed := removedVehicleIDs(delivery.Vehicles, input.VehicleIDs)

		if err := repo.ReplaceVehicles(ctx, delivery, vehicles); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace vehicles")
		}
		if err := s.fleet.MarkInUse(ctx, tx, input.VehicleIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark vehicles in use")
		}
		if err := s.fleet.ReleaseIdle(ctx, tx, removed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release removed vehicles")
		}

		return s.emitAssignmentChanged(ctx, tx, delivery, driverIDs(delivery), input.VehicleIDs,
			&outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole})
	})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*CancelResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ActorRole.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}

	result := &CancelResult{}
	var from enums.DeliveryStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		delivery, err := repo.FindByOrderID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
		}
		if delivery.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeAlreadyFinal, "delivery is in a final status")
		}
		from = delivery.Status
		result.WasInProgress = delivery.Status == enums.DeliveryStatusOutForDelivery

		updates := map[string]any{
			"status":        enums.DeliveryStatusCanceled,
			"cancel_reason": input.Reason,
			"cancel_notes":  input.Notes,
			"canceled_at":   s.now(),
		}
		if err := repo.UpdateDelivery(ctx, delivery.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel delivery")
		}
		if err := s.fleet.ReleaseIdle(ctx, tx, vehicleIDs(delivery)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release vehicles")
		}

		actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}
		if err := s.orders.CancelFromDelivery(ctx, tx, delivery.OrderID, actor); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDeliveryCanceled,
			AggregateType: enums.AggregateDelivery,
			AggregateID:   delivery.ID,
			Version:       1,
			Actor:         actor,
			Data: CanceledEvent{
				DeliveryID:    delivery.ID,
				OrderID:       delivery.OrderID,
				Reason:        input.Reason,
				Notes:         input.Notes,
				WasInProgress: result.WasInProgress,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		s.countRefusal(err)
		return nil, err
	}
	s.transitions.IncDeliveryTransition(string(from), string(enums.DeliveryStatusCanceled))
	return result, nil
}

func (s *service) emitAssignmentChanged(ctx context.Context, tx *gorm.DB, delivery *models.Delivery, driverIDs, vehicleIDs []uuid.UUID, actor *outbox.ActorRef) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventDeliveryAssigned,
		AggregateType: enums.AggregateDelivery,
		AggregateID:   delivery.ID,
		Version:       1,
		Actor:         actor,
		Data: AssignmentChangedEvent{
			DeliveryID: delivery.ID,
			OrderID:    delivery.OrderID,
			DriverIDs:  driverIDs,
			VehicleIDs: vehicleIDs,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

func driverIDs(delivery *models.Delivery) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(delivery.Drivers))
	for _, driver := range delivery.Drivers {
		ids = append(ids, driver.ID)
	}
	return ids
}

func vehicleIDs(delivery *models.Delivery) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(delivery.Vehicles))
	for _, vehicle := range delivery.Vehicles {
		ids = append(ids, vehicle.ID)
	}
	return ids
}

func userIDSet(users []models.User) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(users))
	for _, user := range users {
		set[user.ID] = struct{}{}
	}
	return set
}

func vehicleIDSet(vehicles []models.FleetVehicle) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(vehicles))
	for _, vehicle := range vehicles {
		set[vehicle.ID] = struct{}{}
	}
	return set
}

func missingIDs(requested []uuid.UUID, found map[uuid.UUID]struct{}) []uuid.UUID {
	var missing []uuid.UUID
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func removedVehicleIDs(current []models.FleetVehicle, next []uuid.UUID) []uuid.UUID {
	keep := make(map[uuid.UUID]struct{}, len(next))
	for _, id := range next {
		keep[id] = struct{}{}
	}
	var removed []uuid.UUID
	for _, vehicle := range current {
		if _, ok := keep[vehicle.ID]; !ok {
			removed = append(removed, vehicle.ID)
		}
	}
	return removed
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ", ")
}

// notYetDue compares calendar dates only, matching the order machine's
// ready gate.
func notYetDue(scheduled *time.Time, now time.Time) bool {
	if scheduled == nil {
		return false
	}
	return scheduled.Format("2006-01-02") > now.Format("2006-01-02")
}
