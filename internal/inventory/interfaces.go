package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

// Repository defines persistence operations for stock movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariation(ctx context.Context, id uuid.UUID) (*models.ProductVariation, error)
	DeductProductStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	RestoreProductStock(ctx context.Context, id uuid.UUID, qty int) error
	DeductVariationStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	RestoreVariationStock(ctx context.Context, id uuid.UUID, qty int) error
	UpdateProductStockStatus(ctx context.Context, id uuid.UUID, status enums.StockStatus) error
}
