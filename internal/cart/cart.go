package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Item is a snapshot of a product taken when it was added to the cart.
// Later catalog price changes do not affect it.
type Item struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the session-held cart document. Items keep insertion order and
// duplicate products are separate lines.
type Cart struct {
	Items        []Item    `json:"items"`
	PreferenceID string    `json:"preference_id,omitempty"`
	CheckoutRef  string    `json:"checkout_ref,omitempty"`
	Declined     bool      `json:"declined,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// State derives the cart lifecycle state from its contents.
func (c *Cart) State() enums.CartState {
	if c == nil || len(c.Items) == 0 {
		return enums.CartStateEmpty
	}
	if c.PreferenceID != "" && !c.Declined {
		return enums.CartStateAwaitingPayment
	}
	return enums.CartStateAccumulating
}

// Total is recomputed from the items on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) add(item Item) {
	c.Items = append(c.Items, item)
}

// SetPreference records the pending gateway checkout on the cart.
func (c *Cart) SetPreference(preferenceID, checkoutRef string) {
	c.PreferenceID = preferenceID
	c.CheckoutRef = checkoutRef
	c.Declined = false
}

// MarkDeclined records a failed attempt. The preference stays so a retry
// inside the same hosted checkout can still settle the cart.
func (c *Cart) MarkDeclined() {
	c.Declined = true
}

// Awaits reports whether preferenceID is the checkout this cart was sent to.
func (c *Cart) Awaits(preferenceID string) bool {
	return c != nil && c.PreferenceID != "" && c.PreferenceID == preferenceID
}

// Snapshot returns a copy whose items slice is independent of c.
func (c *Cart) Snapshot() Cart {
	if c == nil {
		return Cart{}
	}
	out := *c
	out.Items = append([]Item(nil), c.Items...)
	return out
}
