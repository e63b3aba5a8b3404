package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCheckout struct {
	identity checkout.Identity
	params   url.Values
	order    *orders.OrderDTO
	redirect *checkout.PaymentRedirect
	result   *checkout.PaymentResult
	err      error
}

func (s *stubCheckout) CreateOrder(ctx context.Context, id checkout.Identity) (*orders.OrderDTO, error) {
	s.identity = id
	return s.order, s.err
}

func (s *stubCheckout) CreatePayment(ctx context.Context, id checkout.Identity) (*checkout.PaymentRedirect, error) {
	s.identity = id
	return s.redirect, s.err
}

func (s *stubCheckout) OnSuccess(ctx context.Context, id checkout.Identity, params url.Values) (*checkout.PaymentResult, error) {
	s.identity, s.params = id, params
	return s.result, s.err
}

func (s *stubCheckout) OnFailure(ctx context.Context, id checkout.Identity, params url.Values) (*checkout.PaymentResult, error) {
	s.identity, s.params = id, params
	return &checkout.PaymentResult{Outcome: enums.PaymentOutcomeFailure}, s.err
}

func (s *stubCheckout) OnPending(ctx context.Context, id checkout.Identity, params url.Values) (*checkout.PaymentResult, error) {
	s.identity, s.params = id, params
	return &checkout.PaymentResult{Outcome: enums.PaymentOutcomePending}, s.err
}

func TestCheckoutCreateOrder(t *testing.T) {
	svc := &stubCheckout{order: &orders.OrderDTO{ID: 1, Total: decimal.NewFromInt(25), Status: enums.OrderStatusPending}}
	resp := httptest.NewRecorder()

	CheckoutCreateOrder(svc, nil).ServeHTTP(resp, withSession(httptest.NewRequest(http.MethodPost, "/create_order", nil)))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, checkout.Identity{UserID: 7, SessionID: "sess-7"}, svc.identity)
	assert.Contains(t, resp.Body.String(), `"status":"Pendiente"`)
}

func TestCheckoutCreateOrderEmptyCart(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")}
	resp := httptest.NewRecorder()

	CheckoutCreateOrder(svc, nil).ServeHTTP(resp, withSession(httptest.NewRequest(http.MethodPost, "/create_order", nil)))

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), string(pkgerrors.CodeEmptyCart))
}

func TestCheckoutCreatePaymentRedirects(t *testing.T) {
	svc := &stubCheckout{redirect: &checkout.PaymentRedirect{PreferenceID: "pref-1", RedirectURL: "https://gateway.example/init/pref-1"}}
	resp := httptest.NewRecorder()

	CheckoutCreatePayment(svc, nil).ServeHTTP(resp, withSession(httptest.NewRequest(http.MethodPost, "/create_mp_payment", nil)))

	require.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "https://gateway.example/init/pref-1", resp.Header().Get("Location"))
}

func TestCheckoutCreatePaymentJSON(t *testing.T) {
	svc := &stubCheckout{redirect: &checkout.PaymentRedirect{PreferenceID: "pref-1", RedirectURL: "https://gateway.example/init/pref-1"}}
	req := withSession(httptest.NewRequest(http.MethodPost, "/create_mp_payment", nil))
	req.Header.Set("Accept", "application/json")
	resp := httptest.NewRecorder()

	CheckoutCreatePayment(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data checkout.PaymentRedirect `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "pref-1", envelope.Data.PreferenceID)
	assert.Equal(t, "https://gateway.example/init/pref-1", envelope.Data.RedirectURL)
}

func TestCheckoutCreatePaymentGatewayError(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeGateway, "payment gateway unavailable")}
	resp := httptest.NewRecorder()

	CheckoutCreatePayment(svc, nil).ServeHTTP(resp, withSession(httptest.NewRequest(http.MethodPost, "/create_mp_payment", nil)))

	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Empty(t, resp.Header().Get("Location"))
}

func TestPaymentSuccessPassesQuery(t *testing.T) {
	svc := &stubCheckout{result: &checkout.PaymentResult{
		Outcome:      enums.PaymentOutcomeSuccess,
		PreferenceID: "pref-1",
		Order:        &orders.OrderDTO{ID: 3, Status: enums.OrderStatusPaid},
	}}
	resp := httptest.NewRecorder()

	PaymentSuccess(svc, nil).ServeHTTP(resp, withSession(httptest.NewRequest(http.MethodGet, "/mp_success?preference_id=pref-1&payment_id=123&status=approved", nil)))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "pref-1", svc.params.Get("preference_id"))
	assert.Equal(t, "123", svc.params.Get("payment_id"))
	assert.Contains(t, resp.Body.String(), `"outcome":"success"`)
}

func TestPaymentSuccessMismatch(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeValidation, "preference does not match the pending checkout")}
	resp := httptest.NewRecorder()

	PaymentSuccess(svc, nil).ServeHTTP(resp, withSession(httptest.NewRequest(http.MethodGet, "/mp_success?preference_id=other", nil)))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPaymentFailureAndPending(t *testing.T) {
	svc := &stubCheckout{}

	resp := httptest.NewRecorder()
	PaymentFailure(svc, nil).ServeHTTP(resp, withSession(httptest.NewRequest(http.MethodGet, "/mp_failure?preference_id=pref-1", nil)))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"outcome":"failure"`)

	resp = httptest.NewRecorder()
	PaymentPending(svc, nil).ServeHTTP(resp, withSession(httptest.NewRequest(http.MethodGet, "/mp_pending", nil)))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"outcome":"pending"`)
}
