package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	"github.com/rcmanalo/buildmart-backend/pkg/types"
)

// Delivery tracks the shipping leg of a standard-delivery order. At most one
// delivery exists per order, enforced by the unique index on OrderID.
type Delivery struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status       enums.DeliveryStatus `gorm:"column:status;type:delivery_status;not null;default:'pending'"`
	Details      types.JSONMap        `gorm:"column:details;type:jsonb;serializer:json"`
	CancelReason *string              `gorm:"column:cancel_reason"`
	CancelNotes  *string              `gorm:"column:cancel_notes"`
	CanceledAt   *time.Time           `gorm:"column:canceled_at"`
	Drivers      []User               `gorm:"many2many:delivery_drivers;constraint:OnDelete:CASCADE"`
	Vehicles     []FleetVehicle       `gorm:"many2many:delivery_vehicles;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// HasDriver reports whether the given user is on the assigned driver set.
func (d *Delivery) HasDriver(userID uuid.UUID) bool {
	for _, driver := range d.Drivers {
		if driver.ID == userID {
			return true
		}
	}
	return false
}
