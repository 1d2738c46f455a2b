package enums

// StockStatus is the derived availability label on products.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// StockStatusFor recomputes the label from a quantity and the product's
// minimum-stock threshold.
func StockStatusFor(qty, minimumStock int) StockStatus {
	switch {
	case qty <= 0:
		return StockStatusOutOfStock
	case qty <= minimumStock:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}
