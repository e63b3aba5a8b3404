package enums

import (
	"fmt"
	"strings"
)

// PaymentProvider names the hosted checkout a payment went through.
type PaymentProvider string

const (
	PaymentProviderMercadoPago PaymentProvider = "mercadopago"
	PaymentProviderSquare      PaymentProvider = "square"
)

var validPaymentProviders = []PaymentProvider{
	PaymentProviderMercadoPago,
	PaymentProviderSquare,
}

func (p PaymentProvider) String() string {
	return string(p)
}

func (p PaymentProvider) IsValid() bool {
	for _, candidate := range validPaymentProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentProvider is case-insensitive.
func ParsePaymentProvider(value string) (PaymentProvider, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentProviders {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment provider %q", value)
}

// PaymentOutcome is the result reported by a gateway return redirect.
type PaymentOutcome string

const (
	PaymentOutcomeSuccess PaymentOutcome = "success"
	PaymentOutcomeFailure PaymentOutcome = "failure"
	PaymentOutcomePending PaymentOutcome = "pending"
)

var validPaymentOutcomes = []PaymentOutcome{
	PaymentOutcomeSuccess,
	PaymentOutcomeFailure,
	PaymentOutcomePending,
}

func (o PaymentOutcome) String() string {
	return string(o)
}

func (o PaymentOutcome) IsValid() bool {
	for _, candidate := range validPaymentOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParsePaymentOutcome converts raw input into a PaymentOutcome.
func ParsePaymentOutcome(value string) (PaymentOutcome, error) {
	for _, candidate := range validPaymentOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment outcome %q", value)
}
