package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mini-invest/investment-service/internal/config"
	"github.com/mini-invest/investment-service/internal/domain"
	"github.com/mini-invest/investment-service/internal/events"
)

// Recorder persists one lifecycle event.
type Recorder interface {
	Insert(ctx context.Context, e *domain.InvestmentEvent) error
}

// errMalformed marks messages that can never be processed; they are dropped, not requeued.
var errMalformed = errors.New("malformed message")

// Consumer consumes investment lifecycle events from RabbitMQ and records them.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQConfig
	store   Recorder
}

// NewConsumer connects to RabbitMQ and declares the exchange, the queue and their binding.
func NewConsumer(cfg config.RabbitMQConfig, store Recorder) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		queue.Name,     // queue name
		cfg.RoutingKey, // routing key
		cfg.Exchange,   // exchange
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Printf("Activity consumer initialized: exchange=%s, queue=%s, routing_key=%s",
		cfg.Exchange, cfg.Queue, cfg.RoutingKey)

	return &Consumer{
		conn:    conn,
		channel: channel,
		config:  cfg,
		store:   store,
	}, nil
}

// Start consumes messages until ctx is cancelled or the channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.config.Queue, // queue
		"",             // consumer tag (auto-generated)
		false,          // auto-ack (we'll ack manually)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("Activity consumer started, waiting for messages on queue: %s", c.config.Queue)

	for {
		select {
		case <-ctx.Done():
			log.Println("Context cancelled, stopping activity consumer")
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			err := c.handleMessage(ctx, msg.Body)
			switch {
			case err == nil:
				msg.Ack(false)
			case errors.Is(err, errMalformed):
				log.Printf("Dropping message %s: %v", msg.MessageId, err)
				msg.Nack(false, false)
			default:
				log.Printf("Error handling message %s: %v", msg.MessageId, err)
				msg.Nack(false, true)
			}
		}
	}
}

// handleMessage decodes one lifecycle event and records it.
func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var msg events.InvestmentMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: failed to unmarshal event: %w", errMalformed, err)
	}

	event, err := msg.Event()
	if err != nil {
		return fmt.Errorf("%w: invalid event: %w", errMalformed, err)
	}

	if err := c.store.Insert(ctx, event); err != nil {
		return fmt.Errorf("failed to record event %s: %w", event.ID, err)
	}

	log.Printf("Recorded %s event: eventId=%s, investmentId=%s", event.Type, event.ID, event.InvestmentID)
	return nil
}

// Close closes the RabbitMQ connection and channel
func (c *Consumer) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing channel: %v", err)
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
