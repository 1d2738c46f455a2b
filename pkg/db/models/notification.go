package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

// Notification is a persisted in-app message produced by the fan-out worker.
// RecipientID is nil for audience-wide rows such as admin broadcasts.
type Notification struct {
	ID          uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Audience    enums.NotificationAudience `gorm:"column:audience;type:notification_audience;not null"`
	RecipientID *uuid.UUID                 `gorm:"column:recipient_id;type:uuid;index"`
	Activity    enums.NotificationActivity `gorm:"column:activity;type:notification_activity;not null"`
	OrderID     *uuid.UUID                 `gorm:"column:order_id;type:uuid;index"`
	DeliveryID  *uuid.UUID                 `gorm:"column:delivery_id;type:uuid;index"`
	Message     string                     `gorm:"column:message;type:text;not null"`
	ReadAt      *time.Time                 `gorm:"column:read_at"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
