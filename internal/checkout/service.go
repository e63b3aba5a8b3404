package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	pathDirect  = "direct"
	pathGateway = "gateway"

	preferenceColumn = "preference_id"

	defaultGatewayTimeout = 10 * time.Second
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Save(ctx context.Context, sessionID string, c *cart.Cart) error
	Clear(ctx context.Context, sessionID string) error
}

type recorder interface {
	IncOrderCreated(path string)
	ObserveGatewayCall(provider string, duration time.Duration, err error)
	IncPaymentReturn(outcome string)
}

// Identity is the authenticated caller a checkout runs for.
type Identity struct {
	UserID    uint
	SessionID string
}

func (i Identity) validate() error {
	if i.UserID == 0 || strings.TrimSpace(i.SessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

// PaymentRedirect is where the shopper is sent to pay.
type PaymentRedirect struct {
	PreferenceID string `json:"preference_id"`
	RedirectURL  string `json:"redirect_url"`
}

// PaymentResult reports how a return redirect was handled. Order is set only
// for successful payments; Replayed marks a success that had already been
// recorded.
type PaymentResult struct {
	Outcome      enums.PaymentOutcome `json:"outcome"`
	PreferenceID string               `json:"preference_id,omitempty"`
	Order        *orders.OrderDTO     `json:"order,omitempty"`
	Replayed     bool                 `json:"replayed,omitempty"`
}

// Service executes both checkout paths.
type Service interface {
	CreateOrder(ctx context.Context, id Identity) (*orders.OrderDTO, error)
	CreatePayment(ctx context.Context, id Identity) (*PaymentRedirect, error)
	OnSuccess(ctx context.Context, id Identity, params url.Values) (*PaymentResult, error)
	OnFailure(ctx context.Context, id Identity, params url.Values) (*PaymentResult, error)
	OnPending(ctx context.Context, id Identity, params url.Values) (*PaymentResult, error)
}

// Config tunes the gateway path.
type Config struct {
	Callbacks payments.CallbackURLs
	Timeout   time.Duration
	Verify    bool
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	Tx      txRunner
	Orders  orders.Repository
	Carts   cartStore
	Gateway payments.Gateway
	Metrics recorder
	Logger  *logger.Logger
	Config  Config
}

type service struct {
	tx      txRunner
	orders  orders.Repository
	carts   cartStore
	gateway payments.Gateway
	metrics recorder
	logg    *logger.Logger
	cfg     Config
	now     func() time.Time
	newRef  func() string
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	cfg := params.Config
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGatewayTimeout
	}
	return &service{
		tx:      params.Tx,
		orders:  params.Orders,
		carts:   params.Carts,
		gateway: params.Gateway,
		metrics: params.Metrics,
		logg:    params.Logger,
		cfg:     cfg,
		now:     time.Now,
		newRef:  uuid.NewString,
	}, nil
}

// CreateOrder turns the cart into a pending order and empties the cart.
func (s *service) CreateOrder(ctx context.Context, id Identity) (*orders.OrderDTO, error) {
	if err := id.validate(); err != nil {
		return nil, err
	}
	c, err := s.loadNonEmpty(ctx, id.SessionID)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(id.UserID, c)
	if err := s.persist(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	s.clearCart(ctx, id.SessionID)
	s.incOrderCreated(pathDirect)

	dto := orders.FromModel(order)
	return &dto, nil
}

// CreatePayment opens a hosted checkout for the cart. The cart keeps its
// items and moves to awaiting payment.
func (s *service) CreatePayment(ctx context.Context, id Identity) (*PaymentRedirect, error) {
	if err := id.validate(); err != nil {
		return nil, err
	}
	c, err := s.loadNonEmpty(ctx, id.SessionID)
	if err != nil {
		return nil, err
	}

	ref := s.newRef()
	req := payments.PreferenceRequest{
		Items:             lineItems(c),
		Callbacks:         s.cfg.Callbacks,
		ExternalReference: ref,
	}
	if err := req.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build payment preference")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := s.now()
	pref, err := s.gateway.CreatePreference(callCtx, req)
	if err == nil && (pref == nil || pref.ID == "" || pref.RedirectURL == "") {
		err = errors.New("gateway returned no preference id or redirect url")
	}
	s.observeGateway(time.Since(start), err)
	if err != nil {
		s.logError(ctx, "create payment preference failed", err, map[string]any{
			"provider":           s.gateway.Provider().String(),
			"external_reference": ref,
			"items":              len(req.Items),
		})
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment gateway unavailable")
	}

	c.SetPreference(pref.ID, ref)
	if err := s.carts.Save(ctx, id.SessionID, c); err != nil {
		return nil, err
	}
	s.logInfo(ctx, "payment preference created", map[string]any{
		"preference_id":      pref.ID,
		"external_reference": ref,
	})
	return &PaymentRedirect{PreferenceID: pref.ID, RedirectURL: pref.RedirectURL}, nil
}

// OnSuccess records a paid order for the returned preference. A preference
// that already produced an order returns that order.
func (s *service) OnSuccess(ctx context.Context, id Identity, params url.Values) (*PaymentResult, error) {
	if err := id.validate(); err != nil {
		return nil, err
	}
	ret, err := s.gateway.ParseReturn(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment return")
	}
	if ret.PreferenceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference id is required")
	}

	if existing, err := s.findByPreference(ctx, ret.PreferenceID); err != nil {
		return nil, err
	} else if existing != nil {
		return s.replayed(ctx, existing, id)
	}

	c, err := s.carts.Load(ctx, id.SessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	// Only the preference CreatePayment stored on this cart can settle it.
	if !c.Awaits(ret.PreferenceID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment does not match checkout")
	}
	if c.CheckoutRef != "" && ret.ExternalReference != "" && c.CheckoutRef != ret.ExternalReference {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment does not match checkout")
	}
	if err := s.verify(ctx, ret, c); err != nil {
		return nil, err
	}

	order := s.buildOrder(id.UserID, c)
	order.Status = enums.OrderStatusPaid
	provider := s.gateway.Provider()
	order.PaymentProvider = &provider
	order.PreferenceID = stringPtr(ret.PreferenceID)
	order.PaymentID = stringPtr(ret.PaymentID)

	if err := s.persist(ctx, order); err != nil {
		if db.IsUniqueViolation(err, preferenceColumn) {
			existing, findErr := s.findByPreference(ctx, ret.PreferenceID)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return s.replayed(ctx, existing, id)
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record paid order")
	}
	s.clearCart(ctx, id.SessionID)
	s.incOrderCreated(pathGateway)
	s.incReturn(enums.PaymentOutcomeSuccess)
	s.logInfo(ctx, "paid order recorded", map[string]any{
		"order_id":      order.ID,
		"preference_id": ret.PreferenceID,
		"payment_id":    ret.PaymentID,
	})

	dto := orders.FromModel(order)
	return &PaymentResult{
		Outcome:      enums.PaymentOutcomeSuccess,
		PreferenceID: ret.PreferenceID,
		Order:        &dto,
	}, nil
}

// OnFailure keeps the cart items and marks the pending preference declined.
// A later success for that same preference still settles the cart.
func (s *service) OnFailure(ctx context.Context, id Identity, params url.Values) (*PaymentResult, error) {
	if err := id.validate(); err != nil {
		return nil, err
	}
	ret, err := s.gateway.ParseReturn(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment return")
	}
	c, err := s.carts.Load(ctx, id.SessionID)
	if err != nil {
		return nil, err
	}
	if c.PreferenceID != "" && (ret.PreferenceID == "" || ret.PreferenceID == c.PreferenceID) {
		c.MarkDeclined()
		if err := s.carts.Save(ctx, id.SessionID, c); err != nil {
			return nil, err
		}
	}
	s.incReturn(enums.PaymentOutcomeFailure)
	s.logInfo(ctx, "payment failed", map[string]any{"preference_id": ret.PreferenceID, "status": ret.Status})
	return &PaymentResult{Outcome: enums.PaymentOutcomeFailure, PreferenceID: ret.PreferenceID}, nil
}

// OnPending leaves the cart untouched; a later success return settles it.
func (s *service) OnPending(ctx context.Context, id Identity, params url.Values) (*PaymentResult, error) {
	if err := id.validate(); err != nil {
		return nil, err
	}
	ret, err := s.gateway.ParseReturn(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment return")
	}
	s.incReturn(enums.PaymentOutcomePending)
	s.logInfo(ctx, "payment pending", map[string]any{"preference_id": ret.PreferenceID, "status": ret.Status})
	return &PaymentResult{Outcome: enums.PaymentOutcomePending, PreferenceID: ret.PreferenceID}, nil
}

func (s *service) verify(ctx context.Context, ret payments.Return, c *cart.Cart) error {
	if !s.cfg.Verify {
		return nil
	}
	verifier, ok := s.gateway.(payments.Verifier)
	if !ok {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := s.now()
	status, err := verifier.VerifyPayment(callCtx, ret)
	s.observeGateway(time.Since(start), err)
	if err != nil {
		s.logError(ctx, "verify payment failed", err, map[string]any{
			"preference_id": ret.PreferenceID,
			"payment_id":    ret.PaymentID,
		})
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment could not be confirmed")
	}
	if status == nil || status.Status != payments.StatusApproved {
		return pkgerrors.New(pkgerrors.CodeGateway, "payment not approved")
	}
	if status.ExternalReference != "" && c.CheckoutRef != "" && status.ExternalReference != c.CheckoutRef {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment does not match checkout")
	}
	// Zero means the gateway did not report an amount.
	if !status.Amount.IsZero() && !status.Amount.Equal(c.Total()) {
		s.logInfo(ctx, "payment amount mismatch", map[string]any{
			"preference_id": ret.PreferenceID,
			"paid":          status.Amount.String(),
			"cart_total":    c.Total().String(),
		})
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount does not match cart")
	}
	return nil
}

func (s *service) replayed(ctx context.Context, existing *models.Order, id Identity) (*PaymentResult, error) {
	if existing.UserID != id.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment does not match checkout")
	}
	s.incReturn(enums.PaymentOutcomeSuccess)
	s.logInfo(ctx, "payment return replayed", map[string]any{"order_id": existing.ID})
	dto := orders.FromModel(existing)
	return &PaymentResult{
		Outcome:      enums.PaymentOutcomeSuccess,
		PreferenceID: stringValue(existing.PreferenceID),
		Order:        &dto,
		Replayed:     true,
	}, nil
}

func (s *service) findByPreference(ctx context.Context, preferenceID string) (*models.Order, error) {
	existing, err := s.orders.FindByPreferenceID(ctx, preferenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by preference")
	}
	return existing, nil
}

func (s *service) loadNonEmpty(ctx context.Context, sessionID string) (*cart.Cart, error) {
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	return c, nil
}

func (s *service) persist(ctx context.Context, order *models.Order) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.orders.WithTx(tx).Create(ctx, order)
		return err
	})
}

// clearCart runs after commit; a failure here leaves a committed order.
func (s *service) clearCart(ctx context.Context, sessionID string) {
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logError(ctx, "clear cart after order failed", err, nil)
	}
}

func (s *service) buildOrder(userID uint, c *cart.Cart) *models.Order {
	items := make([]models.OrderLineItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, models.OrderLineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return &models.Order{
		UserID:    userID,
		Date:      s.now().UTC(),
		Total:     c.Total(),
		Status:    enums.OrderStatusPending,
		LineItems: items,
	}
}

func lineItems(c *cart.Cart) []payments.LineItem {
	out := make([]payments.LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		out = append(out, payments.LineItem{
			ProductID: item.ProductID,
			Title:     item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}
	return out
}

func (s *service) incOrderCreated(path string) {
	if s.metrics != nil {
		s.metrics.IncOrderCreated(path)
	}
}

func (s *service) incReturn(outcome enums.PaymentOutcome) {
	if s.metrics != nil {
		s.metrics.IncPaymentReturn(outcome.String())
	}
}

func (s *service) observeGateway(d time.Duration, err error) {
	if s.metrics != nil {
		s.metrics.ObserveGatewayCall(s.gateway.Provider().String(), d, err)
	}
}

func (s *service) logInfo(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

func (s *service) logError(ctx context.Context, msg string, err error, fields map[string]any) {
	if s.logg == nil {
		return
	}
	if len(fields) > 0 {
		ctx = s.logg.WithFields(ctx, fields)
	}
	s.logg.Error(ctx, msg, err)
}

func stringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
