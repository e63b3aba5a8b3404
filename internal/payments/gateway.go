// Package payments defines the hosted-checkout port implemented by the
// MercadoPago and Square adapters.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// StatusApproved is the normalized status of a captured payment.
const StatusApproved = "approved"

const (
	SuccessPath = "/mp_success"
	FailurePath = "/mp_failure"
	PendingPath = "/mp_pending"
)

// LineItem is one cart line as sent to the gateway.
type LineItem struct {
	ProductID uint
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// CallbackURLs are the absolute return redirects for each payment outcome.
type CallbackURLs struct {
	Success string
	Failure string
	Pending string
}

// PreferenceRequest describes a hosted checkout to create.
type PreferenceRequest struct {
	Items             []LineItem
	Callbacks         CallbackURLs
	ExternalReference string
}

// Preference is the gateway's answer to a PreferenceRequest.
type Preference struct {
	ID          string
	RedirectURL string
}

// Return is the adapter-parsed query string of a return redirect. Every
// field is untrusted.
type Return struct {
	PreferenceID      string
	PaymentID         string
	Status            string
	ExternalReference string
}

// PaymentStatus is a server-to-server view of a payment. Amount is zero when
// the gateway did not report one.
type PaymentStatus struct {
	ID                string
	Status            string
	ExternalReference string
	Amount            decimal.Decimal
}

// Gateway creates hosted checkouts and parses their return redirects.
type Gateway interface {
	Provider() enums.PaymentProvider
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	ParseReturn(params url.Values) (Return, error)
}

// Verifier is implemented by gateways that can confirm a returned payment
// server-to-server.
type Verifier interface {
	VerifyPayment(ctx context.Context, ret Return) (*PaymentStatus, error)
}

var ErrInvalidBaseURL = errors.New("public base url must be absolute")

// BuildCallbackURLs derives the three return URLs from the public base URL.
func BuildCallbackURLs(baseURL string) (CallbackURLs, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return CallbackURLs{}, ErrInvalidBaseURL
	}
	base := strings.TrimRight(parsed.String(), "/")
	return CallbackURLs{
		Success: base + SuccessPath,
		Failure: base + FailurePath,
		Pending: base + PendingPath,
	}, nil
}

// Validate checks the request before it leaves the process.
func (r PreferenceRequest) Validate() error {
	if len(r.Items) == 0 {
		return errors.New("preference requires at least one item")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("item %d: title required", i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be positive", i)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: unit price must be non-negative", i)
		}
	}
	if r.Callbacks.Success == "" || r.Callbacks.Failure == "" || r.Callbacks.Pending == "" {
		return errors.New("preference requires callback urls")
	}
	if strings.TrimSpace(r.ExternalReference) == "" {
		return errors.New("preference requires an external reference")
	}
	return nil
}

// Total sums the request lines.
func (r PreferenceRequest) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// FirstParam returns the first non-empty value among keys.
func FirstParam(params url.Values, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(params.Get(key)); v != "" && v != "null" {
			return v
		}
	}
	return ""
}
