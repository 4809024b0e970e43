package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mini-invest/investment-service/internal/domain"
)

// UserRepository implements domain.UserDirectory. Balances are changed only through Ledger.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetUser retrieves a user account by its unique identifier.
func (r *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, account_balance, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u domain.User
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.AccountBalance,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, classify("get user", err)
	}
	return &u, nil
}
