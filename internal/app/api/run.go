package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	paystackclient "github.com/Apurer/go-escrow-marketplace/internal/clients/http/paystack"

	catalogmemory "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/ports"

	orderscatalog "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/catalog"
	paystackgw "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/external/paystack"
	ordersmemory "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"

	notifkafka "github.com/Apurer/go-escrow-marketplace/internal/notifications/adapters/kafka"
	notifmemory "github.com/Apurer/go-escrow-marketplace/internal/notifications/adapters/memory"
	notifredis "github.com/Apurer/go-escrow-marketplace/internal/notifications/adapters/redis"
	notifapp "github.com/Apurer/go-escrow-marketplace/internal/notifications/application"
	notifports "github.com/Apurer/go-escrow-marketplace/internal/notifications/ports"

	"github.com/Apurer/go-escrow-marketplace/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-escrow-marketplace/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-escrow-marketplace/internal/platform/postgres"
	"github.com/Apurer/go-escrow-marketplace/internal/reconcile"
	httpapi "github.com/Apurer/go-escrow-marketplace/internal/transport/http"
)

// Run boots the marketplace HTTP API with observability, repositories,
// payment gateway, notifications, sweeps, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "escrow-marketplace-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db != nil {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var orderRepo ordersports.Repository
	var catalogRepo catalogports.Repository
	if db != nil {
		orderRepo = orderspostgres.NewRepository(db)
		catalogRepo = catalogpostgres.NewRepository(db)
	} else {
		orderRepo = ordersmemory.NewRepository()
		catalogRepo = catalogmemory.NewRepository()
	}

	catalogService := catalogapp.NewService(catalogRepo)

	hub := notifmemory.NewHub()
	brokers := []notifports.Broker{hub}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		broker, err := notifredis.NewBroker(redisClient)
		if err != nil {
			return fmt.Errorf("failed to configure redis notifications: %w", err)
		}
		brokers = append(brokers, broker)
		logger.Info("redis notifications enabled", slog.String("addr", cfg.RedisAddr))
	}
	if len(cfg.KafkaBrokers) > 0 {
		broker, err := notifkafka.NewBroker(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("failed to configure kafka notifications: %w", err)
		}
		defer broker.Close()
		brokers = append(brokers, broker)
		logger.Info("kafka notifications enabled")
	}
	notifier := notifapp.NewNotifier(brokers, notifapp.WithLogger(logger))

	clientOpts := []paystackclient.Option{}
	if cfg.PaystackBaseURL != "" {
		clientOpts = append(clientOpts, paystackclient.WithBaseURL(cfg.PaystackBaseURL))
	}
	payClient, err := paystackclient.NewClient(cfg.PaystackSecretKey, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to configure paystack client: %w", err)
	}
	gateway, err := paystackgw.NewGateway(payClient)
	if err != nil {
		return fmt.Errorf("failed to configure payment gateway: %w", err)
	}

	serviceOpts := []ordersapp.Option{ordersapp.WithLogger(logger)}
	if cfg.AutoReleaseAfterMinutes > 0 {
		serviceOpts = append(serviceOpts,
			ordersapp.WithAutoReleaseWindow(time.Duration(cfg.AutoReleaseAfterMinutes)*time.Minute))
	}
	coreOrderService := ordersapp.NewService(orderRepo, orderscatalog.NewCollaborator(catalogService), gateway, notifier, serviceOpts...)
	orderService := ordersobs.New(
		coreOrderService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	var checkout ordersports.CheckoutOrchestrator = ordersworkflows.NewInlineCheckout(orderService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running checkout inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		checkout = ordersworkflows.NewTemporalCheckout(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	scheduler, err := reconcile.NewScheduler(orderService, reconcile.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to configure sweep scheduler: %w", err)
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := scheduler.Stop(stopCtx); err != nil {
			logger.Warn("sweep scheduler did not stop cleanly", slog.String("error", err.Error()))
		}
	}()

	handlers := httpapi.ApiHandleFunctions{
		OrderAPI:   httpapi.NewOrderAPI(orderService, checkout),
		PaymentAPI: httpapi.NewPaymentAPI(orderService),
		CatalogAPI: httpapi.NewCatalogAPI(catalogService),
		FeedAPI:    httpapi.NewFeedAPI(hub),
	}
	router := httpapi.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("marketplace API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("marketplace API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
