package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO is the catalog shape returned to clients.
type ProductDTO struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Price       decimal.Decimal
	Description string
}

func FromModel(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}
