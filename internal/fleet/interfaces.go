package fleet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

// Repository defines persistence for fleet vehicles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListVehicles(ctx context.Context) ([]models.FleetVehicle, error)
	FindVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.FleetVehicle, error)
	FindVehicles(ctx context.Context, vehicleIDs []uuid.UUID) ([]models.FleetVehicle, error)
	UpdateStatus(ctx context.Context, vehicleID uuid.UUID, status enums.VehicleStatus) error
	MarkInUse(ctx context.Context, vehicleIDs []uuid.UUID) error
	ReleaseIdle(ctx context.Context, vehicleIDs []uuid.UUID) error
}
