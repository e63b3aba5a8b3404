package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// RedisStore is the slice of the redis client used by the HTTP middleware.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
	Ping(ctx context.Context) error
}

// Services groups the domain services served over HTTP.
type Services struct {
	Auth     auth.Service
	Register auth.RegisterService
	Products product.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
}

// Deps carries the infrastructure the router needs.
type Deps struct {
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	readiness := []controllers.Dependency{{Name: "db", Pinger: deps.DB}}
	if deps.Redis != nil {
		readiness = append(readiness, controllers.Dependency{Name: "redis", Pinger: deps.Redis})
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUsernameLimit,
	)

	cookie := controllers.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.JWT.Expiration(),
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(svc.Auth, cookie, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(svc.Register, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, cfg.Session.CookieName, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/products", controllers.ProductList(svc.Products, logg))
		r.Post("/products", controllers.ProductCreate(svc.Products, logg))

		r.Post("/add_to_cart", controllers.CartAdd(svc.Cart, logg))
		r.Get("/cart", controllers.CartView(svc.Cart, logg))

		r.Post("/create_order", controllers.CheckoutCreateOrder(svc.Checkout, logg))
		r.Post("/create_mp_payment", controllers.CheckoutCreatePayment(svc.Checkout, logg))
		r.Get("/mp_success", controllers.PaymentSuccess(svc.Checkout, logg))
		r.Get("/mp_failure", controllers.PaymentFailure(svc.Checkout, logg))
		r.Get("/mp_pending", controllers.PaymentPending(svc.Checkout, logg))

		r.Get("/orders", controllers.OrderList(svc.Orders, logg))

		r.Post("/logout", controllers.AuthLogout(svc.Auth, cookie, logg))
	})

	return r
}
