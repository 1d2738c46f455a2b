package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariation is a size or grade of a product. A nil StockQty means
// the variation is not tracked separately and stock moves on the product.
type ProductVariation struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Label     string    `gorm:"column:label;type:text;not null"`
	StockQty  *int      `gorm:"column:stock_qty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Tracked reports whether this variation maintains its own stock counter.
func (v *ProductVariation) Tracked() bool {
	return v.StockQty != nil
}
