package payments

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCallbackURLs(t *testing.T) {
	urls, err := BuildCallbackURLs("https://shop.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/mp_success", urls.Success)
	assert.Equal(t, "https://shop.example.com/mp_failure", urls.Failure)
	assert.Equal(t, "https://shop.example.com/mp_pending", urls.Pending)

	_, err = BuildCallbackURLs("shop.example.com")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestPreferenceRequestValidate(t *testing.T) {
	urls, err := BuildCallbackURLs("http://localhost:8080")
	require.NoError(t, err)
	req := PreferenceRequest{
		Items: []LineItem{
			{Title: "Mate", UnitPrice: decimal.NewFromInt(10), Quantity: 2},
			{Title: "Bombilla", UnitPrice: decimal.NewFromInt(5), Quantity: 1},
		},
		Callbacks:         urls,
		ExternalReference: "ref-1",
	}
	require.NoError(t, req.Validate())
	assert.True(t, req.Total().Equal(decimal.NewFromInt(25)))

	noItems := req
	noItems.Items = nil
	assert.Error(t, noItems.Validate())

	noRef := req
	noRef.ExternalReference = ""
	assert.Error(t, noRef.Validate())

	badQty := req
	badQty.Items = []LineItem{{Title: "x", UnitPrice: decimal.NewFromInt(1)}}
	assert.Error(t, badQty.Validate())
}

func TestFirstParam(t *testing.T) {
	params := url.Values{"collection_id": {"null"}, "payment_id": {"42"}}
	assert.Equal(t, "42", FirstParam(params, "collection_id", "payment_id"))
	assert.Empty(t, FirstParam(params, "missing"))
}
