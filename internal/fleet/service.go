package fleet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SetStatusInput is a staff request to manually park or free a vehicle.
type SetStatusInput struct {
	VehicleID   uuid.UUID
	Status      enums.VehicleStatus
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// Service manages the delivery fleet. Assignment-driven status flips are
// exposed as tx-scoped helpers for the delivery machine.
type Service interface {
	List(ctx context.Context) ([]models.FleetVehicle, error)
	SetStatus(ctx context.Context, input SetStatusInput) error

	FindVehicles(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) ([]models.FleetVehicle, error)
	MarkInUse(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) error
	ReleaseIdle(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a fleet service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fleet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context) ([]models.FleetVehicle, error) {
	vehicles, err := s.repo.ListVehicles(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicles")
	}
	return vehicles, nil
}

func (s *service) SetStatus(ctx context.Context, input SetStatusInput) error {
	if input.VehicleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vehicle id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ActorRole.IsStaff() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff role required")
	}
	// in_use is owned by the delivery machine, never set by hand.
	if input.Status != enums.VehicleStatusAvailable && input.Status != enums.VehicleStatusUnavailable {
		return pkgerrors.New(pkgerrors.CodeValidation, "status must be available or unavailable")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vehicle, err := repo.FindVehicle(ctx, input.VehicleID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
		}
		if vehicle.Status == enums.VehicleStatusInUse {
			return pkgerrors.New(pkgerrors.CodePrecondition, "vehicle is on an active delivery")
		}
		if vehicle.Status == input.Status {
			return nil
		}
		if err := repo.UpdateStatus(ctx, vehicle.ID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vehicle status")
		}
		return nil
	})
}

func (s *service) FindVehicles(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) ([]models.FleetVehicle, error) {
	return s.repo.WithTx(tx).FindVehicles(ctx, vehicleIDs)
}

func (s *service) MarkInUse(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) error {
	return s.repo.WithTx(tx).MarkInUse(ctx, vehicleIDs)
}

func (s *service) ReleaseIdle(ctx context.Context, tx *gorm.DB, vehicleIDs []uuid.UUID) error {
	return s.repo.WithTx(tx).ReleaseIdle(ctx, vehicleIDs)
}
