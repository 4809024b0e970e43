package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger moves money in and out of a user's spendable balance.
// Implementations must apply each operation as a single conditional update against the
// stored balance so that concurrent debits for the same user cannot both pass a stale
// sufficiency check.
type Ledger interface {
	// Debit subtracts amount and returns the new balance.
	// Returns ErrInsufficientBalance if the balance is lower than amount, ErrUserNotFound
	// if the user doesn't exist.
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// Credit adds amount and returns the new balance.
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

// InvestmentStore persists investments and owns the status transition table.
type InvestmentStore interface {
	// Create inserts an active investment. The product must be active and the amount
	// within its bounds, otherwise ErrProductInactive / ErrAmountOutOfBounds.
	Create(ctx context.Context, inv *Investment) error

	// FindByID returns ErrInvestmentNotFound if no investment has the id.
	FindByID(ctx context.Context, id uuid.UUID) (*Investment, error)

	// FindByUser returns one page of the user's investments, newest first.
	FindByUser(ctx context.Context, userID uuid.UUID, filter InvestmentFilter, page Page) (*InvestmentList, error)

	// UpdateStatus moves an investment from expectedFrom to to.
	// Returns ErrInvalidTransition for edges outside the table and ErrStatusChanged when
	// the stored status is not expectedFrom.
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedFrom, to Status) (*Investment, error)

	// UpdateMutableFields applies patch to an active investment.
	// Returns ErrInvestmentNotActive if the investment is in a terminal state.
	UpdateMutableFields(ctx context.Context, id uuid.UUID, patch InvestmentPatch) (*Investment, error)

	// FindDue returns up to limit active investments whose maturity date is not after asOf.
	FindDue(ctx context.Context, asOf time.Time, limit int) ([]*Investment, error)
}

// ProductCatalog is the read side of the external product catalog.
type ProductCatalog interface {
	// GetProduct returns ErrProductNotFound if the product doesn't exist.
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)

	// GetProducts returns the products that exist among ids, keyed by id.
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
}

// UserDirectory is the read side of the external user directory.
type UserDirectory interface {
	// GetUser returns ErrUserNotFound if the user doesn't exist.
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// TransactionManager defines the interface for managing database transactions.
// This abstraction allows the service layer to work with transactions
// without being coupled to a specific database implementation.
type TransactionManager interface {
	// WithTransaction executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes lifecycle events to external systems (e.g. RabbitMQ).
type EventPublisher interface {
	Publish(ctx context.Context, event *InvestmentEvent) error
}
