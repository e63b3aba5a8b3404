package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

const maxNameLength = 100

// Service exposes catalog listing and creation.
type Service interface {
	ListProducts(ctx context.Context) ([]ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uint) (*ProductDTO, error)
}

type productRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

type service struct {
	repo productRepository
}

// NewService constructs a product service instance.
func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}

	created, err := s.repo.Create(ctx, &models.Product{
		Name:        name,
		Price:       input.Price.Round(2),
		Description: strings.TrimSpace(input.Description),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	dto := FromModel(created)
	return &dto, nil
}

func (s *service) GetProduct(ctx context.Context, id uint) (*ProductDTO, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	dto := FromModel(row)
	return &dto, nil
}
