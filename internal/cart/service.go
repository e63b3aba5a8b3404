package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type productLoader interface {
	GetProduct(ctx context.Context, id uint) (*product.ProductDTO, error)
}

// View is the read model returned to clients.
type View struct {
	Items        []Item          `json:"items"`
	Total        decimal.Decimal `json:"total"`
	State        enums.CartState `json:"state"`
	PreferenceID string          `json:"preference_id,omitempty"`
}

// Service exposes the session cart operations.
type Service interface {
	Add(ctx context.Context, sessionID string, productID uint, quantity int) (*View, error)
	View(ctx context.Context, sessionID string) (*View, error)
	Clear(ctx context.Context, sessionID string) error
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, cart *Cart) error
}

type service struct {
	store    Store
	products productLoader
	now      func() time.Time
}

// NewService builds a cart service backed by the provided store.
func NewService(store Store, products productLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{store: store, products: products, now: time.Now}, nil
}

// Add snapshots the product and appends it as a new line. A pending gateway
// preference is kept.
func (s *service) Add(ctx context.Context, sessionID string, productID uint, quantity int) (*View, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}

	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.add(Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  quantity,
	})
	if err := s.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return toView(c), nil
}

func (s *service) View(ctx context.Context, sessionID string) (*View, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toView(c), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Load returns the stored cart, or an empty one.
func (s *service) Load(ctx context.Context, sessionID string) (*Cart, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if c == nil {
		c = &Cart{}
	}
	return c, nil
}

func (s *service) Save(ctx context.Context, sessionID string, c *Cart) error {
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return nil
}

func toView(c *Cart) *View {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return &View{
		Items:        items,
		Total:        c.Total(),
		State:        c.State(),
		PreferenceID: c.PreferenceID,
	}
}
