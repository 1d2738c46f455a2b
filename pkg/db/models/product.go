package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

// Product is a catalog entry carrying the product-level stock counter.
// Variations may track their own counters; untracked variations draw from
// this one.
type Product struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string             `gorm:"column:name;type:text;not null"`
	SKU          string             `gorm:"column:sku;type:text;not null;uniqueIndex"`
	Description  *string            `gorm:"column:description"`
	Category     *string            `gorm:"column:category;type:text"`
	Price        decimal.Decimal    `gorm:"column:price;type:numeric(12,2);not null"`
	StockQty     int                `gorm:"column:stock_qty;not null;default:0"`
	MinimumStock int                `gorm:"column:minimum_stock;not null;default:10"`
	StockStatus  enums.StockStatus  `gorm:"column:stock_status;type:stock_status;not null;default:'in_stock'"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	Variations   []ProductVariation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
