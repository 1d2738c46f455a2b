package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

// PaymentRecord is the 1:1 payment sub-state of an order. ProofRejected
// distinguishes a re-upload after staff rejection from the first GCash
// proof submission.
type PaymentRecord struct {
	OrderID        uuid.UUID            `gorm:"column:order_id;type:uuid;primaryKey"`
	Status         enums.PaymentStatus  `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	Method         *enums.PaymentMethod `gorm:"column:method;type:payment_method"`
	ProofRef       *string              `gorm:"column:proof_ref;type:text"`
	ProofRejected  bool                 `gorm:"column:proof_rejected;not null;default:false"`
	ProofUpdatedAt *time.Time           `gorm:"column:proof_updated_at"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
