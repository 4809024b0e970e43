// Command sweeper periodically matures active investments past their maturity date.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/mini-invest/investment-service/internal/app"
	"github.com/mini-invest/investment-service/internal/config"
	"github.com/mini-invest/investment-service/internal/sweeper"
	"github.com/mini-invest/investment-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	// A memory store lives inside one process; the server sweeps it in-process instead.
	if cfg.Storage.Driver == config.StorageMemory {
		log.Fatal("the sweeper needs shared storage, STORAGE_DRIVER=memory is not supported")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.NewProviders(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	providers.SetGlobal()
	defer providers.Shutdown(context.Background())

	storage, err := app.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer storage.Close()

	publisher, err := app.OpenPublisher(cfg)
	if err != nil {
		log.Fatalf("failed to create event publisher: %v", err)
	}
	defer publisher.Close()

	s := sweeper.New(storage.Investments, publisher.EventPublisher, cfg.Sweeper.BatchSize)
	s.Run(ctx, cfg.Sweeper.Interval)
	log.Println("sweeper stopped")
}
