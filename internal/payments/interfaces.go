package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
)

// Repository defines persistence for the payment sub-state. Orders are
// loaded and touched here only as far as payment effects reach them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	CreatePayment(ctx context.Context, payment *models.PaymentRecord) error
	UpdatePayment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
