// Command activity consumes investment lifecycle events from RabbitMQ and records them
// in ClickHouse.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/mini-invest/investment-service/internal/activity"
	"github.com/mini-invest/investment-service/internal/config"
)

func main() {
	log.Println("Starting activity consumer...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if !cfg.RabbitMQ.Enabled() || !cfg.ClickHouse.Enabled() {
		log.Fatal("RABBITMQ_URL and CLICKHOUSE_HOST must be set")
	}
	log.Printf("Configuration loaded: ClickHouse=%s/%s, RabbitMQ exchange=%s",
		cfg.ClickHouse.Host, cfg.ClickHouse.Database, cfg.RabbitMQ.Exchange)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := activity.NewClickHouseClient(ctx, cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to initialize ClickHouse client: %v", err)
	}
	defer client.Close()
	log.Println("Successfully connected to ClickHouse")

	repo := activity.NewRepository(client)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare activity schema: %v", err)
	}

	consumer, err := activity.NewConsumer(cfg.RabbitMQ, repo)
	if err != nil {
		log.Fatalf("Failed to create RabbitMQ consumer: %v", err)
	}
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil {
		log.Printf("RabbitMQ consumer error: %v", err)
	}
	log.Println("Activity consumer stopped")
}
