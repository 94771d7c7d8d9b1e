package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	paystackclient "github.com/Apurer/go-escrow-marketplace/internal/clients/http/paystack"
	"github.com/Apurer/go-escrow-marketplace/internal/app/api"

	catalogmemory "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/ports"

	orderscatalog "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/catalog"
	paystackgw "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/external/paystack"
	ordersmemory "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"

	orderactivities "github.com/Apurer/go-escrow-marketplace/internal/durable/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-escrow-marketplace/internal/durable/temporal/workflows/orders"

	platformobservability "github.com/Apurer/go-escrow-marketplace/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-escrow-marketplace/internal/platform/postgres"
)

func main() {
	ctx := context.Background()
	const serviceName = "escrow-marketplace-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	orderService, cleanup, err := buildOrderService(ctx, cfg, logger, instruments)
	if err != nil {
		logger.Error("failed to build order service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()
	orderActivities := orderactivities.NewActivities(orderService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.CheckoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.CheckoutWorkflow, workflow.RegisterOptions{Name: orderworkflows.CheckoutWorkflowName})
	w.RegisterActivityWithOptions(orderActivities.InitializeCheckout, activity.RegisterOptions{Name: orderactivities.InitializeCheckoutActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.CheckoutTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildOrderService(ctx context.Context, cfg api.Config, logger *slog.Logger, instruments *platformobservability.Instruments) (ordersports.Service, func(), error) {
	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)

	var orderRepo ordersports.Repository
	var catalogRepo catalogports.Repository
	if db != nil {
		orderRepo = orderspostgres.NewRepository(db)
		catalogRepo = catalogpostgres.NewRepository(db)
	} else {
		orderRepo = ordersmemory.NewRepository()
		catalogRepo = catalogmemory.NewRepository()
	}

	clientOpts := []paystackclient.Option{}
	if cfg.PaystackBaseURL != "" {
		clientOpts = append(clientOpts, paystackclient.WithBaseURL(cfg.PaystackBaseURL))
	}
	payClient, err := paystackclient.NewClient(cfg.PaystackSecretKey, clientOpts...)
	if err != nil {
		cleanupDB()
		return nil, nil, fmt.Errorf("failed to configure paystack client: %w", err)
	}
	gateway, err := paystackgw.NewGateway(payClient)
	if err != nil {
		cleanupDB()
		return nil, nil, fmt.Errorf("failed to configure payment gateway: %w", err)
	}

	catalogService := catalogapp.NewService(catalogRepo)
	serviceOpts := []ordersapp.Option{ordersapp.WithLogger(logger)}
	if cfg.AutoReleaseAfterMinutes > 0 {
		serviceOpts = append(serviceOpts,
			ordersapp.WithAutoReleaseWindow(time.Duration(cfg.AutoReleaseAfterMinutes)*time.Minute))
	}
	core := ordersapp.NewService(orderRepo, orderscatalog.NewCollaborator(catalogService), gateway, nil, serviceOpts...)
	service := ordersobs.New(
		core,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	return service, cleanupDB, nil
}
