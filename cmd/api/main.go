package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/refunds"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/transactions"
	"github.com/angelmondragon/storefront-backend/internal/users"
	gatewaywebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/gateway"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

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
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	handler, err := buildHandler(ctx, cfg, logg, dbClient, redisClient, registry, paymentMetrics)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(handler, "storefront-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildHandler(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	paymentMetrics *metrics.PaymentMetrics,
) (http.Handler, error) {
	conn := dbClient.DB()

	productRepo := products.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	addressRepo := address.NewRepository(conn)
	userRepo := users.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	ledger := transactions.NewRepository(conn)
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	gatewayProvider, err := newGateway(ctx, cfg, paymentMetrics, logg)
	if err != nil {
		return nil, err
	}
	analyzer, err := newAntifraud(ctx, cfg, paymentMetrics, logg)
	if err != nil {
		return nil, err
	}
	quoter, err := newShippingQuoter(ctx, cfg, paymentMetrics, logg)
	if err != nil {
		return nil, err
	}

	dispatcher, err := notifications.NewDispatcher(mailer.New(cfg.Mail, logg), userRepo, logg, cfg.App.PublicURL)
	if err != nil {
		return nil, err
	}

	userService, err := users.NewService(users.ServiceParams{
		Repo:      userRepo,
		Hasher:    security.NewHasher(cfg.Password),
		JWTConfig: cfg.JWT,
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}
	productService, err := products.NewService(productRepo)
	if err != nil {
		return nil, err
	}
	cartService, err := cart.NewService(cartRepo, productRepo)
	if err != nil {
		return nil, err
	}
	wishlistService, err := wishlist.NewService(wishlist.NewRepository(conn), productRepo)
	if err != nil {
		return nil, err
	}
	addressService, err := address.NewService(addressRepo)
	if err != nil {
		return nil, err
	}
	shippingService, err := shipping.NewService(quoter, cartRepo, productRepo)
	if err != nil {
		return nil, err
	}

	statusWriter, err := orders.NewStatusWriter(orderRepo, events)
	if err != nil {
		return nil, err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orderRepo,
		Carts:     cartRepo,
		Products:  productRepo,
		Addresses: addressRepo,
		Shipping:  shippingService,
		Inventory: orders.NewInventory(),
		Tx:        dbClient,
		Outbox:    events,
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}
	paymentService, err := payments.NewService(payments.ServiceParams{
		Orders:       orderRepo,
		Transactions: ledger,
		Users:        userRepo,
		Gateway:      gatewayProvider,
		Antifraud:    analyzer,
		Status:       statusWriter,
		Tx:           dbClient,
		Outbox:       events,
		Notifier:     dispatcher,
		Metrics:      paymentMetrics,
		Logger:       logg,
	})
	if err != nil {
		return nil, err
	}
	transactionService, err := transactions.NewService(ledger, logg)
	if err != nil {
		return nil, err
	}
	refundService, err := refunds.NewService(refunds.ServiceParams{
		Transactions: ledger,
		Orders:       orderRepo,
		Status:       statusWriter,
		Gateway:      gatewayProvider,
		Tx:           dbClient,
		Outbox:       events,
		Metrics:      paymentMetrics,
		Logger:       logg,
	})
	if err != nil {
		return nil, err
	}

	guard, err := gatewaywebhook.NewDeliveryGuard(redisClient, cfg.Webhook.DedupeTTL, "gateway")
	if err != nil {
		return nil, err
	}
	webhookService, err := gatewaywebhook.NewService(gatewaywebhook.ServiceParams{
		Secret:            cfg.Gateway.WebhookSecret,
		Gateway:           gatewayProvider,
		Transactions:      ledger,
		Orders:            orderRepo,
		Status:            statusWriter,
		TransactionRunner: dbClient,
		Guard:             guard,
		Notifier:          dispatcher,
		Metrics:           paymentMetrics,
		Logger:            logg,
	})
	if err != nil {
		return nil, err
	}

	return routes.NewRouter(routes.Params{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		Cache:        redisClient,
		Gatherer:     registry,
		Users:        userService,
		Products:     productService,
		Cart:         cartService,
		Wishlist:     wishlistService,
		Addresses:    addressService,
		Shipping:     shippingService,
		Orders:       orderService,
		Payments:     paymentService,
		Transactions: transactionService,
		Refunds:      refundService,
		Webhooks:     webhookService,
	}), nil
}
