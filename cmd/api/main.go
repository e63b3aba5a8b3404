package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mercadopago"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.Session, cfg.JWT)
	if err != nil {
		return err
	}

	productService, err := product.NewService(product.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}
	cartStore, err := cart.NewRedisStore(redisClient, sessionManager.TTL())
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartStore, productService)
	if err != nil {
		return err
	}
	orderRepo := orders.NewRepository(dbClient.DB())
	orderService, err := orders.NewService(orderRepo)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Carts:          cartService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}

	gateway, err := newGateway(ctx, cfg, logg)
	if err != nil {
		return err
	}
	callbacks, err := payments.BuildCallbackURLs(cfg.App.PublicBaseURL)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:      dbClient,
		Orders:  orderRepo,
		Carts:   cartService,
		Gateway: gateway,
		Metrics: metrics.NewCheckoutMetrics(registry),
		Logger:  logg,
		Config: checkout.Config{
			Callbacks: callbacks,
			Timeout:   cfg.Payments.Timeout,
			Verify:    cfg.Payments.Verify,
		},
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Deps{
		DB:       dbClient,
		Redis:    redisClient,
		Sessions: sessionManager,
		Gatherer: registry,
	}, routes.Services{
		Auth:     authService,
		Register: registerService,
		Products: productService,
		Cart:     cartService,
		Checkout: checkoutService,
		Orders:   orderService,
	})

	addr := ":" + cfg.App.Port
	logCtx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"provider": gateway.Provider(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newGateway(ctx context.Context, cfg *config.Config, logg *logger.Logger) (payments.Gateway, error) {
	if cfg.Payments.NormalizedProvider() == config.PaymentProviderSquare {
		client, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	client, err := mercadopago.NewClient(ctx, cfg.MercadoPago, logg)
	if err != nil {
		return nil, err
	}
	return client, nil
}
