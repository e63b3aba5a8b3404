package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusLiterals(t *testing.T) {
	assert.Equal(t, "Pendiente", OrderStatusPending.String())
	assert.Equal(t, "Pagado con MP", OrderStatusPaid.String())

	status, err := ParseOrderStatus("Pagado con MP")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, status)

	_, err = ParseOrderStatus("paid")
	require.Error(t, err)
	assert.False(t, OrderStatus("paid").IsValid())
}

func TestParsePaymentProviderIsCaseInsensitive(t *testing.T) {
	provider, err := ParsePaymentProvider(" MercadoPago ")
	require.NoError(t, err)
	assert.Equal(t, PaymentProviderMercadoPago, provider)

	_, err = ParsePaymentProvider("paypal")
	require.Error(t, err)
}

func TestCartAndOutcomeValidity(t *testing.T) {
	assert.True(t, CartStateAwaitingPayment.IsValid())
	assert.False(t, CartState("checked_out").IsValid())

	outcome, err := ParsePaymentOutcome("pending")
	require.NoError(t, err)
	assert.Equal(t, PaymentOutcomePending, outcome)
	_, err = ParseCartState("nope")
	require.Error(t, err)
}
