package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

// FleetVehicle is a company truck or van. Status flips to in_use while at
// least one non-terminal delivery holds an assignment for the vehicle.
type FleetVehicle struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Model        string              `gorm:"column:model;type:text;not null"`
	PlateNumber  string              `gorm:"column:plate_number;type:text;not null;uniqueIndex"`
	Capacity     decimal.Decimal     `gorm:"column:capacity;type:numeric(10,2);not null;default:0"`
	CapacityUnit string              `gorm:"column:capacity_unit;type:text;not null;default:'kg'"`
	Status       enums.VehicleStatus `gorm:"column:status;type:vehicle_status;not null;default:'available'"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
