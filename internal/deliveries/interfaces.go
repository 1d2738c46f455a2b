package deliveries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rcmanalo/buildmart-backend/pkg/db/models"
)

// Repository defines persistence for deliveries and their assignment
// junctions. Users are read-only here, for driver existence checks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	CreateDelivery(ctx context.Context, delivery *models.Delivery) error
	UpdateDelivery(ctx context.Context, deliveryID uuid.UUID, updates map[string]any) error
	ReplaceDrivers(ctx context.Context, delivery *models.Delivery, drivers []models.User) error
	ReplaceVehicles(ctx context.Context, delivery *models.Delivery, vehicles []models.FleetVehicle) error
	FindUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.User, error)
}
