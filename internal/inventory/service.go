package inventory

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
)

// Service moves stock for order lines inside the caller's transaction.
// The hybrid rule: a variation with its own tracked counter mutates only
// that counter; untracked variations and bare products move the product
// counter and refresh the product stock label. Double-deduction protection
// lives in the state machines via order.stock_deducted, not here.
type Service interface {
	Deduct(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error
	Restore(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error
}

type service struct {
	repo Repository
}

// NewService builds an inventory service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

// Deduct removes the ordered quantities from stock. Each decrement is
// guarded against going negative; the first line with insufficient stock
// fails the whole transaction so partial deductions never commit.
func (s *service) Deduct(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	repo := s.repo.WithTx(tx)

	for _, item := range sortedItems(items) {
		variation, err := s.loadVariation(ctx, repo, item)
		if err != nil {
			return err
		}

		if variation != nil && variation.Tracked() {
			deducted, err := repo.DeductVariationStock(ctx, variation.ID, item.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct variation stock")
			}
			if !deducted {
				return pkgerrors.New(pkgerrors.CodePrecondition,
					fmt.Sprintf("insufficient stock for variation %s", variation.Label))
			}
			continue
		}

		deducted, err := repo.DeductProductStock(ctx, item.ProductID, item.Qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct product stock")
		}
		if !deducted {
			product, loadErr := repo.FindProduct(ctx, item.ProductID)
			if loadErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, loadErr, "load product")
			}
			return pkgerrors.New(pkgerrors.CodePrecondition,
				fmt.Sprintf("insufficient stock for %s", product.SKU))
		}
		if err := s.refreshStockStatus(ctx, repo, item); err != nil {
			return err
		}
	}
	return nil
}

// Restore returns previously deducted quantities to stock.
func (s *service) Restore(ctx context.Context, tx *gorm.DB, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	repo := s.repo.WithTx(tx)

	for _, item := range sortedItems(items) {
		variation, err := s.loadVariation(ctx, repo, item)
		if err != nil {
			return err
		}

		if variation != nil && variation.Tracked() {
			if err := repo.RestoreVariationStock(ctx, variation.ID, item.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore variation stock")
			}
			continue
		}

		if err := repo.RestoreProductStock(ctx, item.ProductID, item.Qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product stock")
		}
		if err := s.refreshStockStatus(ctx, repo, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) loadVariation(ctx context.Context, repo Repository, item models.OrderItem) (*models.ProductVariation, error) {
	if item.VariationID == nil {
		return nil, nil
	}
	variation, err := repo.FindVariation(ctx, *item.VariationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variation")
	}
	return variation, nil
}

func (s *service) refreshStockStatus(ctx context.Context, repo Repository, item models.OrderItem) error {
	product, err := repo.FindProduct(ctx, item.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	status := enums.StockStatusFor(product.StockQty, product.MinimumStock)
	if status == product.StockStatus {
		return nil
	}
	if err := repo.UpdateProductStockStatus(ctx, product.ID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock status")
	}
	return nil
}

// sortedItems fixes the touch order across concurrent transactions so two
// orders hitting the same rows cannot deadlock.
func sortedItems(items []models.OrderItem) []models.OrderItem {
	sorted := make([]models.OrderItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID.String() < sorted[j].ProductID.String()
		}
		left, right := "", ""
		if sorted[i].VariationID != nil {
			left = sorted[i].VariationID.String()
		}
		if sorted[j].VariationID != nil {
			right = sorted[j].VariationID.String()
		}
		return left < right
	})
	return sorted
}
