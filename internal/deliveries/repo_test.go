package deliveries

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
	"github.com/rcmanalo/buildmart-backend/pkg/types"
)

func setupDeliveriesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
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
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
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
		`CREATE TABLE IF NOT EXISTS delivery_drivers (
  delivery_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  PRIMARY KEY (delivery_id, user_id)
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

func seedDriver(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Dario",
		LastName:     "Reyes",
		Role:         enums.ActorRoleDriver,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTestVehicle(t *testing.T, db *gorm.DB, plate string) *models.FleetVehicle {
	t.Helper()

	vehicle := &models.FleetVehicle{
		ID:           uuid.New(),
		Model:        "Hyundai Mighty",
		PlateNumber:  plate,
		Capacity:     decimal.NewFromInt(4500),
		CapacityUnit: "kg",
		Status:       enums.VehicleStatusAvailable,
	}
	require.NoError(t, db.Create(vehicle).Error)
	return vehicle
}

func TestReplaceDriversRoundTrip(t *testing.T) {
	db := setupDeliveriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	delivery := &models.Delivery{ID: uuid.New(), OrderID: uuid.New(), Status: enums.DeliveryStatusPending}
	require.NoError(t, repo.CreateDelivery(ctx, delivery))

	first := seedDriver(t, db, "driver1@buildmart.ph")
	second := seedDriver(t, db, "driver2@buildmart.ph")

	require.NoError(t, repo.ReplaceDrivers(ctx, delivery, []models.User{*first}))

	got, err := repo.FindByOrderID(ctx, delivery.OrderID)
	require.NoError(t, err)
	require.Len(t, got.Drivers, 1)
	require.Equal(t, first.ID, got.Drivers[0].ID)

	// replacement swaps the whole set
	require.NoError(t, repo.ReplaceDrivers(ctx, got, []models.User{*second}))

	got, err = repo.FindByOrderID(ctx, delivery.OrderID)
	require.NoError(t, err)
	require.Len(t, got.Drivers, 1)
	require.Equal(t, second.ID, got.Drivers[0].ID)

	// empty set unassigns
	require.NoError(t, repo.ReplaceDrivers(ctx, got, nil))

	got, err = repo.FindByOrderID(ctx, delivery.OrderID)
	require.NoError(t, err)
	require.Empty(t, got.Drivers)
}

func TestReplaceVehiclesRoundTrip(t *testing.T) {
	db := setupDeliveriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	delivery := &models.Delivery{ID: uuid.New(), OrderID: uuid.New(), Status: enums.DeliveryStatusPreparing}
	require.NoError(t, repo.CreateDelivery(ctx, delivery))

	truck := seedTestVehicle(t, db, "NEA-3301")
	require.NoError(t, repo.ReplaceVehicles(ctx, delivery, []models.FleetVehicle{*truck}))

	got, err := repo.FindByID(ctx, delivery.ID)
	require.NoError(t, err)
	require.Len(t, got.Vehicles, 1)
	require.Equal(t, truck.ID, got.Vehicles[0].ID)
}

func TestUpdateDeliveryMergedDetails(t *testing.T) {
	db := setupDeliveriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	delivery := &models.Delivery{ID: uuid.New(), OrderID: uuid.New(), Status: enums.DeliveryStatusOutForDelivery}
	require.NoError(t, repo.CreateDelivery(ctx, delivery))

	require.NoError(t, repo.UpdateDelivery(ctx, delivery.ID, map[string]any{
		"status":  enums.DeliveryStatusDelivered,
		"details": types.JSONMap{"proof_of_delivery": "uploads/pod-15.jpg"},
	}))

	got, err := repo.FindByID(ctx, delivery.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DeliveryStatusDelivered, got.Status)
	require.Equal(t, "uploads/pod-15.jpg", got.Details["proof_of_delivery"])
}

func TestFindUsersFiltersUnknown(t *testing.T) {
	db := setupDeliveriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	driver := seedDriver(t, db, "driver3@buildmart.ph")

	users, err := repo.FindUsers(ctx, []uuid.UUID{driver.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, driver.ID, users[0].ID)
}
