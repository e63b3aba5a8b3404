package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order creation and payment gateway activity.
type CheckoutMetrics struct {
	ordersCreated   *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	paymentReturns  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders committed, by checkout path.",
	}, []string{"path"})
	gatewayRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_gateway_requests_total",
		Help: "Payment preference requests, by provider and outcome.",
	}, []string{"provider", "outcome"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_gateway_request_duration_seconds",
		Help:    "Latency of outbound payment gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	paymentReturns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_returns_total",
		Help: "Gateway return redirects handled, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(ordersCreated, gatewayRequests, gatewayDuration, paymentReturns)
	return &CheckoutMetrics{
		ordersCreated:   ordersCreated,
		gatewayRequests: gatewayRequests,
		gatewayDuration: gatewayDuration,
		paymentReturns:  paymentReturns,
	}
}

// IncOrderCreated counts a committed order ("direct" or "gateway").
func (c *CheckoutMetrics) IncOrderCreated(path string) {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.WithLabelValues(normalizeLabel(path)).Inc()
}

// ObserveGatewayCall records one outbound gateway call.
func (c *CheckoutMetrics) ObserveGatewayCall(provider string, duration time.Duration, err error) {
	if c == nil || c.gatewayRequests == nil || c.gatewayDuration == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	provider = normalizeLabel(provider)
	c.gatewayRequests.WithLabelValues(provider, outcome).Inc()
	c.gatewayDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// IncPaymentReturn counts a handled return redirect.
func (c *CheckoutMetrics) IncPaymentReturn(outcome string) {
	if c == nil || c.paymentReturns == nil {
		return
	}
	c.paymentReturns.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
