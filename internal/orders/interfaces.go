package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	"github.com/rcmanalo/buildmart-backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables. Delivery
// rows are touched here only for the ready-dispatch coupling; everything
// else about deliveries lives in its own machine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdatePayment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	CreateDelivery(ctx context.Context, delivery *models.Delivery) error
	UpdateDeliveryStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) error
	ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
}
