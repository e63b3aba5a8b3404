package enums

import "fmt"

// CartState is derived from a session cart's contents; it is never stored.
type CartState string

const (
	CartStateEmpty           CartState = "empty"
	CartStateAccumulating    CartState = "accumulating"
	CartStateAwaitingPayment CartState = "awaiting_payment"
)

var validCartStates = []CartState{
	CartStateEmpty,
	CartStateAccumulating,
	CartStateAwaitingPayment,
}

// String implements fmt.Stringer.
func (c CartState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartState.
func (c CartState) IsValid() bool {
	for _, candidate := range validCartStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartState converts raw input into a CartState.
func ParseCartState(value string) (CartState, error) {
	for _, candidate := range validCartStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart state %q", value)
}
