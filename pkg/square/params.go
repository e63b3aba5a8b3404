package square

import (
	"strconv"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"
)

// PaymentLinkLine is one order line on a payment link.
type PaymentLinkLine struct {
	Name        string
	Quantity    int
	AmountCents int64
}

// PaymentLinkParams contains the fields required to create an order-based
// payment link.
type PaymentLinkParams struct {
	LocationID     string
	Currency       string
	ReferenceID    string
	RedirectURL    string
	IdempotencyKey string
	Lines          []PaymentLinkLine
}

func (p PaymentLinkParams) toSquareRequest(idempotencyKey string) *sqcheckout.CreatePaymentLinkRequest {
	lines := make([]*sq.OrderLineItem, 0, len(p.Lines))
	for _, line := range p.Lines {
		lines = append(lines, &sq.OrderLineItem{
			Name:           ptrString(line.Name),
			Quantity:       strconv.Itoa(line.Quantity),
			BasePriceMoney: moneyPtr(line.AmountCents, p.Currency),
		})
	}
	order := &sq.Order{
		LocationID: p.LocationID,
		LineItems:  lines,
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		order.ReferenceID = ptrString(trimmed)
	}
	req := &sqcheckout.CreatePaymentLinkRequest{
		IdempotencyKey: ptrString(idempotencyKey),
		Order:          order,
	}
	if trimmed := strings.TrimSpace(p.RedirectURL); trimmed != "" {
		req.CheckoutOptions = &sq.CheckoutOptions{RedirectURL: ptrString(trimmed)}
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "USD"
	}
	c := sq.Currency(trimmed)
	return &c
}

// moneyPtr always returns money so free items still carry a base price.
func moneyPtr(amount int64, currency string) *sq.Money {
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
