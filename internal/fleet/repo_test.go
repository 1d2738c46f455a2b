package fleet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

func setupFleetTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS fleet_vehicles (
  id TEXT PRIMARY KEY,
  model TEXT NOT NULL,
  plate_number TEXT NOT NULL,
  capacity NUMERIC NOT NULL DEFAULT 0,
  capacity_unit TEXT NOT NULL DEFAULT 'kg',
  status TEXT NOT NULL DEFAULT 'available',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS deliveries (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  details TEXT,
  cancel_reason TEXT,
  cancel_notes TEXT,
  canceled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS delivery_vehicles (
  delivery_id TEXT NOT NULL,
  fleet_vehicle_id TEXT NOT NULL,
  PRIMARY KEY (delivery_id, fleet_vehicle_id)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedVehicle(t *testing.T, db *gorm.DB, plate string, status enums.VehicleStatus) *models.FleetVehicle {
	t.Helper()

	vehicle := &models.FleetVehicle{
		ID:           uuid.New(),
		Model:        "Isuzu Elf",
		PlateNumber:  plate,
		Capacity:     decimal.NewFromInt(3000),
		CapacityUnit: "kg",
		Status:       status,
	}
	require.NoError(t, db.Create(vehicle).Error)
	return vehicle
}

func seedAssignment(t *testing.T, db *gorm.DB, vehicleID uuid.UUID, deliveryStatus enums.DeliveryStatus) {
	t.Helper()

	delivery := &models.Delivery{
		ID:      uuid.New(),
		OrderID: uuid.New(),
		Status:  deliveryStatus,
	}
	require.NoError(t, db.Create(delivery).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO delivery_vehicles (delivery_id, fleet_vehicle_id) VALUES (?, ?)",
		delivery.ID, vehicleID,
	).Error)
}

func TestMarkInUseAndRelease(t *testing.T) {
	db := setupFleetTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vehicle := seedVehicle(t, db, "NDF-1201", enums.VehicleStatusAvailable)
	require.NoError(t, repo.MarkInUse(ctx, []uuid.UUID{vehicle.ID}))

	var got models.FleetVehicle
	require.NoError(t, db.Where("id = ?", vehicle.ID).First(&got).Error)
	require.Equal(t, enums.VehicleStatusInUse, got.Status)

	// only terminal assignments left: release succeeds
	seedAssignment(t, db, vehicle.ID, enums.DeliveryStatusDelivered)
	require.NoError(t, repo.ReleaseIdle(ctx, []uuid.UUID{vehicle.ID}))

	require.NoError(t, db.Where("id = ?", vehicle.ID).First(&got).Error)
	require.Equal(t, enums.VehicleStatusAvailable, got.Status)
}

func TestReleaseIdleKeepsBusyVehicles(t *testing.T) {
	db := setupFleetTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vehicle := seedVehicle(t, db, "NDF-1202", enums.VehicleStatusInUse)
	seedAssignment(t, db, vehicle.ID, enums.DeliveryStatusOutForDelivery)

	require.NoError(t, repo.ReleaseIdle(ctx, []uuid.UUID{vehicle.ID}))

	var got models.FleetVehicle
	require.NoError(t, db.Where("id = ?", vehicle.ID).First(&got).Error)
	require.Equal(t, enums.VehicleStatusInUse, got.Status)
}

func TestReleaseIdleLeavesManualUnavailable(t *testing.T) {
	db := setupFleetTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vehicle := seedVehicle(t, db, "NDF-1203", enums.VehicleStatusUnavailable)

	require.NoError(t, repo.ReleaseIdle(ctx, []uuid.UUID{vehicle.ID}))

	var got models.FleetVehicle
	require.NoError(t, db.Where("id = ?", vehicle.ID).First(&got).Error)
	require.Equal(t, enums.VehicleStatusUnavailable, got.Status)
}

func TestFindVehicles(t *testing.T) {
	db := setupFleetTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := seedVehicle(t, db, "NDF-1204", enums.VehicleStatusAvailable)
	second := seedVehicle(t, db, "NDF-1205", enums.VehicleStatusAvailable)

	vehicles, err := repo.FindVehicles(ctx, []uuid.UUID{first.ID, second.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
}
