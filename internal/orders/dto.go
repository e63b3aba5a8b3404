package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderDTO is the client-facing order shape.
type OrderDTO struct {
	ID              uint                   `json:"id"`
	UserID          uint                   `json:"user_id"`
	Date            time.Time              `json:"date"`
	Total           decimal.Decimal        `json:"total"`
	Status          enums.OrderStatus      `json:"status"`
	PaymentProvider *enums.PaymentProvider `json:"payment_provider,omitempty"`
	PreferenceID    *string                `json:"preference_id,omitempty"`
	PaymentID       *string                `json:"payment_id,omitempty"`
	LineItems       []LineItemDTO          `json:"line_items"`
}

type LineItemDTO struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// ListOrdersResponse wraps a user's order history.
type ListOrdersResponse struct {
	Orders []OrderDTO `json:"orders"`
}

func FromModel(o *models.Order) OrderDTO {
	items := make([]LineItemDTO, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, LineItemDTO{
			ProductID: li.ProductID,
			Name:      li.Name,
			UnitPrice: li.UnitPrice,
			Quantity:  li.Quantity,
			LineTotal: li.LineTotal,
		})
	}
	return OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		Date:            o.Date,
		Total:           o.Total,
		Status:          o.Status,
		PaymentProvider: o.PaymentProvider,
		PreferenceID:    o.PreferenceID,
		PaymentID:       o.PaymentID,
		LineItems:       items,
	}
}
