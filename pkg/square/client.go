package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired = errors.New("square access token is required")
	errLocationRequired    = errors.New("square location id is required")
	errInvalidSquareEnv    = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired      = errors.New("square logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

type paymentLinkCreator interface {
	Create(ctx context.Context, request *sqcheckout.CreatePaymentLinkRequest, opts ...sqoption.RequestOption) (*sq.CreatePaymentLinkResponse, error)
}

type orderGetter interface {
	Get(ctx context.Context, request *sq.GetOrdersRequest, opts ...sqoption.RequestOption) (*sq.GetOrderResponse, error)
}

// Client is the Square hosted checkout gateway, built on payment links.
// Square has a single redirect, so every return lands on the success URL.
type Client struct {
	links       paymentLinkCreator
	orders      orderGetter
	environment string
	locationID  string
	currency    string
	logger      *logger.Logger
}

// NewClient initializes the Square wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}
	locationID := strings.TrimSpace(cfg.LocationID)
	if locationID == "" {
		return nil, errLocationRequired
	}

	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURLs[env]),
		sqoption.WithToken(accessToken),
	)

	c := &Client{
		links:       sdk.Checkout.PaymentLinks,
		orders:      sdk.Orders,
		environment: env,
		locationID:  locationID,
		currency:    cfg.Currency,
		logger:      logg,
	}

	logg.Info(ctx, "square client initialized")
	return c, nil
}

func (c *Client) Provider() enums.PaymentProvider {
	return enums.PaymentProviderSquare
}

// Environment reports the normalized Square environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// NewIdempotencyKey returns a unique key for Square operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "sf"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreatePreference creates a payment link for an order with one line per
// cart line. The Square order id is the correlation key the redirect
// returns.
func (c *Client) CreatePreference(ctx context.Context, req payments.PreferenceRequest) (*payments.Preference, error) {
	params := PaymentLinkParams{
		LocationID:     c.locationID,
		Currency:       c.currency,
		ReferenceID:    req.ExternalReference,
		RedirectURL:    req.Callbacks.Success,
		IdempotencyKey: req.ExternalReference,
	}
	for _, item := range req.Items {
		params.Lines = append(params.Lines, PaymentLinkLine{
			Name:        item.Title,
			Quantity:    item.Quantity,
			AmountCents: item.UnitPrice.Shift(2).Round(0).IntPart(),
		})
	}
	sdkReq := params.toSquareRequest(c.ensureIdempotencyKey("payment_link.create", params.IdempotencyKey))
	c.log(ctx, "request", "create_payment_link", map[string]any{
		"location_id":  params.LocationID,
		"reference_id": params.ReferenceID,
		"lines":        len(params.Lines),
	})

	resp, err := c.links.Create(ctx, sdkReq)
	if err != nil {
		c.log(ctx, "error", "create_payment_link", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "create payment link")
	}

	link := resp.GetPaymentLink()
	c.log(ctx, "response", "create_payment_link", map[string]any{
		"payment_link_id": stringValue(link.GetID()),
		"order_id":        stringValue(link.GetOrderID()),
	})
	return &payments.Preference{
		ID:          stringValue(link.GetOrderID()),
		RedirectURL: stringValue(link.GetURL()),
	}, nil
}

// ParseReturn maps the payment link redirect parameters.
func (c *Client) ParseReturn(params url.Values) (payments.Return, error) {
	ret := payments.Return{
		PreferenceID:      payments.FirstParam(params, "orderId", "order_id"),
		PaymentID:         payments.FirstParam(params, "transactionId", "transaction_id"),
		ExternalReference: payments.FirstParam(params, "referenceId", "reference_id"),
	}
	if ret.PreferenceID == "" {
		ret.PreferenceID = payments.FirstParam(params, "checkoutId", "preference_id")
	}
	if ret.PaymentID != "" {
		ret.Status = payments.StatusApproved
	}
	return ret, nil
}

// VerifyPayment loads the order behind the payment link; it is approved once
// tendered with nothing left due.
func (c *Client) VerifyPayment(ctx context.Context, ret payments.Return) (*payments.PaymentStatus, error) {
	orderID := ret.PreferenceID
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "order id missing from return")
	}
	c.log(ctx, "request", "get_order", map[string]any{"order_id": orderID})

	resp, err := c.orders.Get(ctx, &sq.GetOrdersRequest{OrderID: orderID})
	if err != nil {
		c.log(ctx, "error", "get_order", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "get order")
	}

	order := resp.GetOrder()
	status := orderPaymentStatus(order)
	c.log(ctx, "response", "get_order", map[string]any{"order_id": orderID, "status": status})
	return &payments.PaymentStatus{
		ID:                orderID,
		Status:            status,
		ExternalReference: stringValue(order.GetReferenceID()),
		Amount:            orderTotal(order),
	}, nil
}

func orderTotal(order *sq.Order) decimal.Decimal {
	if order == nil {
		return decimal.Zero
	}
	total := order.GetTotalMoney()
	if total == nil || total.GetAmount() == nil {
		return decimal.Zero
	}
	return decimal.New(*total.GetAmount(), -2)
}

func orderPaymentStatus(order *sq.Order) string {
	if order == nil {
		return ""
	}
	if state := order.GetState(); state != nil && *state == sq.OrderStateCompleted {
		return payments.StatusApproved
	}
	due := order.GetNetAmountDueMoney()
	if len(order.GetTenders()) > 0 && (due == nil || due.GetAmount() == nil || *due.GetAmount() == 0) {
		return payments.StatusApproved
	}
	return "pending"
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
		"provider":  enums.PaymentProviderSquare.String(),
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("square %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("square %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "nonce", "token", "cvv", "cvc", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapSquareError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		code := domainCodeForStatus(apiErr.StatusCode)
		for _, sqErr := range c.extractSquareErrors(apiErr) {
			if sqErr == nil {
				continue
			}
			if sqErr.Code == sq.ErrorCodeIdempotencyKeyReused {
				code = pkgerrors.CodeIdempotency
				break
			}
			if sqErr.Category == sq.ErrorCategoryAuthenticationError {
				code = pkgerrors.CodeUnauthorized
				break
			}
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("square %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, fmt.Sprintf("square %s failed", op))
}

func (c *Client) extractSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	if apiErr == nil {
		return nil
	}
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	raw := strings.TrimSpace(inner.Error())
	if raw == "" {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Errors
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeGateway
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidSquareEnv
	}
}
