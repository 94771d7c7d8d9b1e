package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	paystackclient "github.com/Apurer/go-escrow-marketplace/internal/clients/http/paystack"
	"github.com/Apurer/go-escrow-marketplace/internal/app/api"

	catalogpostgres "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/ports"

	orderscatalog "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/catalog"
	paystackgw "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/external/paystack"
	orderspostgres "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"

	platformpostgres "github.com/Apurer/go-escrow-marketplace/internal/platform/postgres"
)

// One-shot sweep runner for operators and external cron. The API process
// schedules the same sweeps internally; running this alongside it is safe
// because every transition is a conditional write.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot run sweeps")
	}

	var orderRepo ordersports.Repository = orderspostgres.NewRepository(db)
	var catalogRepo catalogports.Repository = catalogpostgres.NewRepository(db)

	clientOpts := []paystackclient.Option{}
	if cfg.PaystackBaseURL != "" {
		clientOpts = append(clientOpts, paystackclient.WithBaseURL(cfg.PaystackBaseURL))
	}
	payClient, err := paystackclient.NewClient(cfg.PaystackSecretKey, clientOpts...)
	if err != nil {
		log.Fatalf("failed to configure paystack client: %v", err)
	}
	gateway, err := paystackgw.NewGateway(payClient)
	if err != nil {
		log.Fatalf("failed to configure payment gateway: %v", err)
	}

	catalogService := catalogapp.NewService(catalogRepo)
	serviceOpts := []ordersapp.Option{ordersapp.WithLogger(logger)}
	if cfg.AutoReleaseAfterMinutes > 0 {
		serviceOpts = append(serviceOpts,
			ordersapp.WithAutoReleaseWindow(time.Duration(cfg.AutoReleaseAfterMinutes)*time.Minute))
	}
	service := ordersapp.NewService(orderRepo, orderscatalog.NewCollaborator(catalogService), gateway, nil, serviceOpts...)

	released, err := service.ReleaseExpired(ctx)
	if err != nil {
		log.Fatalf("auto-release sweep failed: %v", err)
	}
	cancelled, err := service.CancelStale(ctx)
	if err != nil {
		log.Fatalf("auto-cancel sweep failed: %v", err)
	}
	log.Printf("sweeps completed: released=%d cancelled=%d", released, cancelled)
}
