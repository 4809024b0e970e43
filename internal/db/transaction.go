package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mini-invest/investment-service/internal/domain"
)

// txKey is the key type for storing transaction in context.
type txKey struct{}

// DefaultMaxAttempts bounds how often a transaction is replayed after a
// serialization failure or deadlock.
const DefaultMaxAttempts = 3

// TransactionManager implements domain.TransactionManager using PostgreSQL.
type TransactionManager struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

// NewTransactionManager creates a new TransactionManager.
func NewTransactionManager(pool *pgxpool.Pool, maxAttempts int) *TransactionManager {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &TransactionManager{
		pool:        pool,
		maxAttempts: maxAttempts,
	}
}

// WithTransaction executes the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
// The transaction is stored in the context and can be retrieved using getTx.
//
// A transaction aborted with SQLSTATE 40001 or 40P01 is replayed from the start up to
// maxAttempts times; after that the error is returned as domain.ErrConcurrencyConflict.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the outer transaction.
	if getTx(ctx) != nil {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= tm.maxAttempts; attempt++ {
		err = tm.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		log.Printf("transaction attempt %d/%d aborted: %v", attempt, tm.maxAttempts, err)
	}
	return fmt.Errorf("%w: transaction retries exhausted: %w", domain.ErrConcurrencyConflict, err)
}

func (tm *TransactionManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return domain.PersistenceError("begin transaction", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Printf("failed to rollback transaction: %v", err)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isRetryable(err) {
			return err
		}
		return domain.PersistenceError("commit transaction", err)
	}

	return nil
}

// getTx retrieves the transaction from context.
// If no transaction is found, returns nil.
func getTx(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// querier is the subset of pgx.Tx and pgxpool.Pool the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn returns the transaction stored in ctx, or the pool when there is none.
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := getTx(ctx); tx != nil {
		return tx
	}
	return pool
}

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isRetryable(err error) bool {
	code := pgCode(err)
	return code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected
}

// classify turns a driver error into a domain error. The *pgconn.PgError stays in the
// chain so WithTransaction can still recognise serialization failures.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isRetryable(err), pgCode(err) == sqlStateUniqueViolation:
		return fmt.Errorf("%w: %s: %w", domain.ErrConcurrencyConflict, op, err)
	default:
		return domain.PersistenceError(op, err)
	}
}
