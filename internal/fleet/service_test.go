package fleet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
)

type stubFleetRepo struct {
	vehicle       *models.FleetVehicle
	updatedStatus enums.VehicleStatus
	updated       bool
}

func (s *stubFleetRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubFleetRepo) ListVehicles(ctx context.Context) ([]models.FleetVehicle, error) {
	if s.vehicle == nil {
		return nil, nil
	}
	return []models.FleetVehicle{*s.vehicle}, nil
}

func (s *stubFleetRepo) FindVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.FleetVehicle, error) {
	if s.vehicle == nil || s.vehicle.ID != vehicleID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.vehicle, nil
}

func (s *stubFleetRepo) FindVehicles(ctx context.Context, vehicleIDs []uuid.UUID) ([]models.FleetVehicle, error) {
	return nil, nil
}

func (s *stubFleetRepo) UpdateStatus(ctx context.Context, vehicleID uuid.UUID, status enums.VehicleStatus) error {
	s.updatedStatus = status
	s.updated = true
	return nil
}

func (s *stubFleetRepo) MarkInUse(ctx context.Context, vehicleIDs []uuid.UUID) error {
	return nil
}

func (s *stubFleetRepo) ReleaseIdle(ctx context.Context, vehicleIDs []uuid.UUID) error {
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newFleetService(t *testing.T, repo *stubFleetRepo) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func staffSetStatus(vehicleID uuid.UUID, status enums.VehicleStatus) SetStatusInput {
	return SetStatusInput{
		VehicleID:   vehicleID,
		Status:      status,
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleAdmin,
	}
}

func TestSetStatusRejectsInUseTarget(t *testing.T) {
	vehicle := &models.FleetVehicle{ID: uuid.New(), Status: enums.VehicleStatusAvailable}
	svc := newFleetService(t, &stubFleetRepo{vehicle: vehicle})

	err := svc.SetStatus(context.Background(), staffSetStatus(vehicle.ID, enums.VehicleStatusInUse))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSetStatusRejectsBusyVehicle(t *testing.T) {
	vehicle := &models.FleetVehicle{ID: uuid.New(), Status: enums.VehicleStatusInUse}
	svc := newFleetService(t, &stubFleetRepo{vehicle: vehicle})

	err := svc.SetStatus(context.Background(), staffSetStatus(vehicle.ID, enums.VehicleStatusUnavailable))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSetStatusNonStaffForbidden(t *testing.T) {
	vehicle := &models.FleetVehicle{ID: uuid.New(), Status: enums.VehicleStatusAvailable}
	svc := newFleetService(t, &stubFleetRepo{vehicle: vehicle})

	err := svc.SetStatus(context.Background(), SetStatusInput{
		VehicleID:   vehicle.ID,
		Status:      enums.VehicleStatusUnavailable,
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleDriver,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSetStatusParksVehicle(t *testing.T) {
	vehicle := &models.FleetVehicle{ID: uuid.New(), Status: enums.VehicleStatusAvailable}
	repo := &stubFleetRepo{vehicle: vehicle}
	svc := newFleetService(t, repo)

	err := svc.SetStatus(context.Background(), staffSetStatus(vehicle.ID, enums.VehicleStatusUnavailable))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.updatedStatus != enums.VehicleStatusUnavailable {
		t.Fatalf("expected unavailable got %s", repo.updatedStatus)
	}
}

func TestSetStatusSameStatusNoOp(t *testing.T) {
	vehicle := &models.FleetVehicle{ID: uuid.New(), Status: enums.VehicleStatusAvailable}
	repo := &stubFleetRepo{vehicle: vehicle}
	svc := newFleetService(t, repo)

	err := svc.SetStatus(context.Background(), staffSetStatus(vehicle.ID, enums.VehicleStatusAvailable))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.updated {
		t.Fatal("no-op must not write")
	}
}

func TestSetStatusUnknownVehicle(t *testing.T) {
	svc := newFleetService(t, &stubFleetRepo{})

	err := svc.SetStatus(context.Background(), staffSetStatus(uuid.New(), enums.VehicleStatusAvailable))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error %v", err)
	}
}
