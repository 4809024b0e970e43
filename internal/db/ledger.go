package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mini-invest/investment-service/internal/domain"
)

// Ledger implements domain.Ledger on users.account_balance.
// Each operation is one conditional UPDATE, so Postgres row locking serializes
// concurrent mutations of the same balance.
type Ledger struct {
	pool *pgxpool.Pool
}

// NewLedger creates a new Ledger.
func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Debit subtracts amount from the user's balance if it is large enough.
func (l *Ledger) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	query := `
		UPDATE users
		SET account_balance = account_balance - $2,
		    updated_at = NOW()
		WHERE id = $1 AND account_balance >= $2
		RETURNING account_balance
	`

	q := conn(ctx, l.pool)

	var balance decimal.Decimal
	err := q.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, classify("debit balance", err)
	}

	// No row updated: either the user is missing or the balance is too low.
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return decimal.Zero, classify("check user", err)
	}
	if !exists {
		return decimal.Zero, domain.ErrUserNotFound
	}
	return decimal.Zero, domain.ErrInsufficientBalance
}

// Credit adds amount to the user's balance.
func (l *Ledger) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	query := `
		UPDATE users
		SET account_balance = account_balance + $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING account_balance
	`

	var balance decimal.Decimal
	err := conn(ctx, l.pool).QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrUserNotFound
		}
		return decimal.Zero, classify("credit balance", err)
	}
	return balance, nil
}
