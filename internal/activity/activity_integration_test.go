package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/mini-invest/investment-service/internal/activity"
	"github.com/mini-invest/investment-service/internal/config"
	"github.com/mini-invest/investment-service/internal/domain"
	"github.com/mini-invest/investment-service/internal/events"
)

const (
	testExchange   = "test.invest.investments"
	testQueue      = "test.activity.investment.events"
	testRoutingKey = "investment.#"
)

func TestActivityIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	clickhouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:23.3.8.21-alpine",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword("clickhouse"),
		clickhouse.WithDatabase("default"),
	)
	if err != nil {
		t.Fatalf("Failed to start ClickHouse container: %v", err)
	}
	defer clickhouseContainer.Terminate(ctx)

	clickhouseHost, err := clickhouseContainer.ConnectionHost(ctx)
	if err != nil {
		t.Fatalf("Failed to get ClickHouse host: %v", err)
	}

	rabbitmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-management",
		rabbitmq.WithAdminUsername("guest"),
		rabbitmq.WithAdminPassword("guest"),
	)
	if err != nil {
		t.Fatalf("Failed to start RabbitMQ container: %v", err)
	}
	defer rabbitmqContainer.Terminate(ctx)

	rabbitmqURL, err := rabbitmqContainer.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("Failed to get RabbitMQ URL: %v", err)
	}

	client, err := activity.NewClickHouseClient(ctx, config.ClickHouseConfig{
		Host:     clickhouseHost,
		Database: "default",
		User:     "default",
		Password: "clickhouse",
	})
	if err != nil {
		t.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer client.Close()

	repo := activity.NewRepository(client)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	// Idempotent.
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema failed: %v", err)
	}

	consumer, err := activity.NewConsumer(config.RabbitMQConfig{
		URL:        rabbitmqURL,
		Exchange:   testExchange,
		Queue:      testQueue,
		RoutingKey: testRoutingKey,
	}, repo)
	if err != nil {
		t.Fatalf("Failed to create consumer: %v", err)
	}
	defer consumer.Close()

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()
	go func() {
		if err := consumer.Start(consumerCtx); err != nil {
			t.Logf("Consumer error: %v", err)
		}
	}()

	publisher, err := events.NewRabbitMQPublisher(rabbitmqURL, testExchange)
	if err != nil {
		t.Fatalf("Failed to create publisher: %v", err)
	}
	defer publisher.Close()

	userID := uuid.New()
	inv := domain.NewInvestment(userID, uuid.New(), decimal.RequireFromString("150.5"), decimal.Zero, time.Now().AddDate(1, 0, 0))
	created := domain.NewInvestmentEvent(domain.EventInvestmentCreated, inv)
	inv.Status = domain.StatusCancelled
	cancelled := domain.NewInvestmentEvent(domain.EventInvestmentCancelled, inv)
	cancelled.OccurredAt = created.OccurredAt.Add(time.Second)

	for _, e := range []*domain.InvestmentEvent{created, cancelled} {
		if err := publisher.Publish(ctx, e); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	var history []*domain.InvestmentEvent
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		history, err = repo.ListUserActivity(ctx, userID, 10)
		if err != nil {
			t.Fatalf("ListUserActivity failed: %v", err)
		}
		if len(history) == 2 {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 activity entries, got %d", len(history))
	}

	// Newest first.
	if history[0].ID != cancelled.ID || history[1].ID != created.ID {
		t.Errorf("unexpected order: %s, %s", history[0].Type, history[1].Type)
	}
	if history[1].Amount != "150.50" {
		t.Errorf("expected amount 150.50, got %s", history[1].Amount)
	}
	if history[0].Status != domain.StatusCancelled || history[0].InvestmentID != inv.ID {
		t.Errorf("unexpected cancelled entry: %+v", history[0])
	}

	other, err := repo.ListUserActivity(ctx, uuid.New(), 10)
	if err != nil {
		t.Fatalf("ListUserActivity failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no activity for another user, got %d", len(other))
	}

	limited, err := repo.ListUserActivity(ctx, userID, 1)
	if err != nil {
		t.Fatalf("ListUserActivity failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != cancelled.ID {
		t.Errorf("expected only the newest entry, got %d entries", len(limited))
	}
}
