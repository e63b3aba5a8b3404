package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const autoReturnApproved = "approved"

var (
	errAccessTokenRequired = errors.New("mercadopago access token is required")
	errLoggerRequired      = errors.New("mercadopago logger is required")
)

type preferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Client is the MercadoPago Checkout Pro gateway.
type Client struct {
	preferences preferenceCreator
	payments    paymentGetter
	sandbox     bool
	currencyID  string
	logger      *logger.Logger
}

// NewClient initializes the SDK with the configured access token.
func NewClient(ctx context.Context, cfg config.MercadoPagoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}
	sdkCfg, err := mpconfig.New(token)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}

	c := &Client{
		preferences: preference.NewClient(sdkCfg),
		payments:    payment.NewClient(sdkCfg),
		sandbox:     cfg.Sandbox,
		currencyID:  strings.ToUpper(strings.TrimSpace(cfg.CurrencyID)),
		logger:      logg,
	}
	logg.Info(ctx, "mercadopago client initialized")
	return c, nil
}

func (c *Client) Provider() enums.PaymentProvider {
	return enums.PaymentProviderMercadoPago
}

// CreatePreference creates a Checkout Pro preference. Sandbox mode redirects
// to the sandbox init point.
func (c *Client) CreatePreference(ctx context.Context, req payments.PreferenceRequest) (*payments.Preference, error) {
	sdkReq := c.toPreferenceRequest(req)
	c.log(ctx, "request", "create_preference", map[string]any{
		"external_reference": req.ExternalReference,
		"items":              len(sdkReq.Items),
	})

	resp, err := c.preferences.Create(ctx, sdkReq)
	if err != nil {
		c.log(ctx, "error", "create_preference", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "mercadopago create preference failed")
	}
	if resp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "mercadopago returned an empty preference")
	}

	redirect := resp.InitPoint
	if c.sandbox && resp.SandboxInitPoint != "" {
		redirect = resp.SandboxInitPoint
	}
	c.log(ctx, "response", "create_preference", map[string]any{"preference_id": resp.ID})
	return &payments.Preference{ID: resp.ID, RedirectURL: redirect}, nil
}

// ParseReturn reads the Checkout Pro back_url query string.
func (c *Client) ParseReturn(params url.Values) (payments.Return, error) {
	ret := payments.Return{
		PreferenceID:      payments.FirstParam(params, "preference_id"),
		PaymentID:         payments.FirstParam(params, "payment_id", "collection_id"),
		Status:            strings.ToLower(payments.FirstParam(params, "status", "collection_status")),
		ExternalReference: payments.FirstParam(params, "external_reference"),
	}
	if ret.PaymentID != "" {
		if _, err := strconv.Atoi(ret.PaymentID); err != nil {
			return payments.Return{}, fmt.Errorf("payment id %q is not numeric", ret.PaymentID)
		}
	}
	return ret, nil
}

// VerifyPayment fetches the returned payment through the payments API.
func (c *Client) VerifyPayment(ctx context.Context, ret payments.Return) (*payments.PaymentStatus, error) {
	if ret.PaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "payment id missing from return")
	}
	id, err := strconv.Atoi(ret.PaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment id must be numeric")
	}
	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": id})

	resp, err := c.payments.Get(ctx, id)
	if err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "mercadopago get payment failed")
	}
	if resp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "mercadopago returned an empty payment")
	}
	c.log(ctx, "response", "get_payment", map[string]any{"payment_id": resp.ID, "status": resp.Status})
	return &payments.PaymentStatus{
		ID:                strconv.Itoa(resp.ID),
		Status:            strings.ToLower(resp.Status),
		ExternalReference: resp.ExternalReference,
		Amount:            decimal.NewFromFloat(resp.TransactionAmount).Round(2),
	}, nil
}

func (c *Client) toPreferenceRequest(req payments.PreferenceRequest) preference.Request {
	items := make([]preference.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		price, _ := item.UnitPrice.Round(2).Float64()
		items = append(items, preference.ItemRequest{
			ID:         strconv.FormatUint(uint64(item.ProductID), 10),
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  price,
			CurrencyID: c.currencyID,
		})
	}
	return preference.Request{
		Items: items,
		BackURLs: &preference.BackURLsRequest{
			Success: req.Callbacks.Success,
			Failure: req.Callbacks.Failure,
			Pending: req.Callbacks.Pending,
		},
		AutoReturn:        autoReturnApproved,
		ExternalReference: req.ExternalReference,
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
		"provider":  enums.PaymentProviderMercadoPago.String(),
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mercadopago %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mercadopago %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "card"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
