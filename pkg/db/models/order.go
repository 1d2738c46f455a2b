package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	"github.com/rcmanalo/buildmart-backend/pkg/types"
)

// Order is the customer-facing aggregate driving fulfillment. StockDeducted
// records whether the inventory ledger currently holds a deduction for this
// order, which keeps deduct/restore idempotent across retries.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64                `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending_approval'"`
	DeliveryMethod  enums.DeliveryMethod `gorm:"column:delivery_method;type:delivery_method;not null"`
	StockDeducted   bool                 `gorm:"column:stock_deducted;not null;default:false"`
	Amount          decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	ScheduledDate   *time.Time           `gorm:"column:scheduled_date;type:date"`
	ScheduledSlots  types.JSONMap        `gorm:"column:scheduled_slots;type:jsonb;serializer:json"`
	RejectionReason *string              `gorm:"column:rejection_reason"`
	RejectedBy      *uuid.UUID           `gorm:"column:rejected_by;type:uuid"`
	ApprovedAt      *time.Time           `gorm:"column:approved_at"`
	RejectedAt      *time.Time           `gorm:"column:rejected_at"`
	CollectedAt     *time.Time           `gorm:"column:collected_at"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *PaymentRecord       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Delivery        *Delivery            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
