package orders

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines the persistence surface for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindByPreferenceID(ctx context.Context, preferenceID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
}
