package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/mini-invest/investment-service/internal/domain"
	"github.com/mini-invest/investment-service/internal/events"
)

const testExchange = "test.invest.investments"

func TestRabbitMQPublisherIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-management",
		rabbitmq.WithAdminUsername("guest"),
		rabbitmq.WithAdminPassword("guest"),
	)
	if err != nil {
		t.Fatalf("failed to start rabbitmq container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	}()

	url, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("failed to get amqp url: %v", err)
	}

	publisher, err := events.NewRabbitMQPublisher(url, testExchange)
	if err != nil {
		t.Fatalf("failed to create publisher: %v", err)
	}
	defer publisher.Close()

	msgs, stop := consume(t, url, "investment.cancelled")
	defer stop()

	inv := domain.NewInvestment(uuid.New(), uuid.New(), decimal.NewFromInt(10000), decimal.NewFromInt(2544), time.Now())
	inv.Status = domain.StatusCancelled

	// Only the cancelled event matches the binding.
	for _, typ := range []domain.EventType{domain.EventInvestmentCreated, domain.EventInvestmentCancelled} {
		if err := publisher.Publish(ctx, domain.NewInvestmentEvent(typ, inv)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	select {
	case msg := <-msgs:
		var body events.InvestmentMessage
		if err := json.Unmarshal(msg.Body, &body); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if msg.RoutingKey != "investment.cancelled" || body.EventType != "investment.cancelled" {
			t.Errorf("unexpected message %s / %s", msg.RoutingKey, body.EventType)
		}
		if body.InvestmentID != inv.ID.String() || body.Amount != "10000.00" || body.Status != "cancelled" {
			t.Errorf("unexpected body: %+v", body)
		}
		if msg.ContentType != "application/json" {
			t.Errorf("expected application/json, got %s", msg.ContentType)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event to be published")
	}

	select {
	case msg := <-msgs:
		t.Errorf("unexpected extra message with routing key %s", msg.RoutingKey)
	case <-time.After(500 * time.Millisecond):
	}
}

// consume binds an exclusive queue to the test exchange and returns its deliveries.
func consume(t *testing.T, url, routingKey string) (<-chan amqp.Delivery, func()) {
	t.Helper()

	conn, err := amqp.Dial(url)
	if err != nil {
		t.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		t.Fatalf("failed to open channel: %v", err)
	}
	stop := func() {
		ch.Close()
		conn.Close()
	}

	if err := ch.ExchangeDeclare(testExchange, "topic", true, false, false, false, nil); err != nil {
		stop()
		t.Fatalf("failed to declare exchange: %v", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		stop()
		t.Fatalf("failed to declare queue: %v", err)
	}
	if err := ch.QueueBind(q.Name, routingKey, testExchange, false, nil); err != nil {
		stop()
		t.Fatalf("failed to bind queue: %v", err)
	}
	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		stop()
		t.Fatalf("failed to start consuming: %v", err)
	}
	return msgs, stop
}
