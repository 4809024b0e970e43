// Package app wires configuration to the storage and messaging adapters shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/mini-invest/investment-service/internal/config"
	"github.com/mini-invest/investment-service/internal/db"
	"github.com/mini-invest/investment-service/internal/domain"
	"github.com/mini-invest/investment-service/internal/events"
	"github.com/mini-invest/investment-service/internal/memory"
)

// Storage bundles the adapters of one storage backend.
// TxManager is nil for the memory backend.
type Storage struct {
	Ledger      domain.Ledger
	Investments domain.InvestmentStore
	Catalog     domain.ProductCatalog
	Users       domain.UserDirectory
	TxManager   domain.TransactionManager

	close func()
}

// Close releases the backend's connections.
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage connects to the backend selected by cfg.Storage.Driver.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Println("using in-memory storage; balances and investments are lost on exit")
		store := memory.NewStore()
		if cfg.Storage.Fixtures != "" {
			users, products, err := store.LoadFixtures(cfg.Storage.Fixtures)
			if err != nil {
				return nil, err
			}
			log.Printf("loaded %d users and %d products from %s", users, products, cfg.Storage.Fixtures)
		} else {
			log.Println("STORAGE_FIXTURES not set, the memory store starts empty")
		}
		return &Storage{
			Ledger:      store,
			Investments: store,
			Catalog:     store,
			Users:       store,
		}, nil

	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg.Postgres.URL, db.PoolOptions{
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		log.Println("database connection pool initialized")

		return &Storage{
			Ledger:      db.NewLedger(pool.Pool),
			Investments: db.NewInvestmentRepository(pool.Pool),
			Catalog:     db.NewCatalogRepository(pool.Pool),
			Users:       db.NewUserRepository(pool.Pool),
			TxManager:   db.NewTransactionManager(pool.Pool, cfg.Postgres.TxMaxAttempts),
			close:       pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Publisher is an event publisher plus its shutdown hook.
type Publisher struct {
	domain.EventPublisher
	close func()
}

// Close releases the broker connection, if any.
func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}

// OpenPublisher connects to RabbitMQ when it is configured. Otherwise the returned
// Publisher has a nil EventPublisher and events are not emitted.
func OpenPublisher(cfg *config.Config) (*Publisher, error) {
	if !cfg.RabbitMQ.Enabled() {
		log.Println("RABBITMQ_URL not set, lifecycle events are disabled")
		return &Publisher{}, nil
	}
	p, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		EventPublisher: p,
		close: func() {
			if err := p.Close(); err != nil {
				log.Printf("Error closing RabbitMQ publisher: %v", err)
			}
		},
	}, nil
}
