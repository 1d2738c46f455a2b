package fleet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fleet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListVehicles(ctx context.Context) ([]models.FleetVehicle, error) {
	var vehicles []models.FleetVehicle
	err := r.db.WithContext(ctx).
		Order("plate_number ASC").
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *repository) FindVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.FleetVehicle, error) {
	var vehicle models.FleetVehicle
	err := r.db.WithContext(ctx).
		Where("id = ?", vehicleID).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) FindVehicles(ctx context.Context, vehicleIDs []uuid.UUID) ([]models.FleetVehicle, error) {
	if len(vehicleIDs) == 0 {
		return nil, nil
	}
	var vehicles []models.FleetVehicle
	err := r.db.WithContext(ctx).
		Where("id IN ?", vehicleIDs).
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *repository) UpdateStatus(ctx context.Context, vehicleID uuid.UUID, status enums.VehicleStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.FleetVehicle{}).
		Where("id = ?", vehicleID).
		Update("status", status).Error
}

func (r *repository) MarkInUse(ctx context.Context, vehicleIDs []uuid.UUID) error {
	if len(vehicleIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.FleetVehicle{}).
		Where("id IN ?", vehicleIDs).
		Update("status", enums.VehicleStatusInUse).Error
}

// ReleaseIdle flips in_use vehicles back to available when no active
// delivery still holds them. Manually parked (unavailable) vehicles are
// left alone.
func (r *repository) ReleaseIdle(ctx context.Context, vehicleIDs []uuid.UUID) error {
	if len(vehicleIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.FleetVehicle{}).
		Where("id IN ?", vehicleIDs).
		Where("status = ?", enums.VehicleStatusInUse).
		Where(`NOT EXISTS (
			SELECT 1 FROM delivery_vehicles dv
			JOIN deliveries d ON d.id = dv.delivery_id
			WHERE dv.fleet_vehicle_id = fleet_vehicles.id
			  AND d.status NOT IN ?
		)`, []enums.DeliveryStatus{enums.DeliveryStatusDelivered, enums.DeliveryStatusCanceled}).
		Update("status", enums.VehicleStatusAvailable).Error
}
