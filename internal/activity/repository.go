package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mini-invest/investment-service/internal/domain"
	"github.com/mini-invest/investment-service/internal/events"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ReplacingMergeTree collapses redelivered events that share the sort key.
const schema = `
	CREATE TABLE IF NOT EXISTS investment_activity (
		event_id String,
		investment_id String,
		user_id String,
		product_id String,
		event_type LowCardinality(String),
		amount Decimal(18, 2),
		status LowCardinality(String),
		occurred_at DateTime64(3, 'UTC'),
		recorded_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree()
	ORDER BY (user_id, occurred_at, event_id)
`

// Repository stores lifecycle events in the investment_activity table.
type Repository struct {
	db *ClickHouseClient
}

// NewRepository creates a new activity repository
func NewRepository(db *ClickHouseClient) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the investment_activity table if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.db.Conn().Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create investment_activity table: %w", err)
	}
	return nil
}

// Insert records one lifecycle event.
func (r *Repository) Insert(ctx context.Context, e *domain.InvestmentEvent) error {
	amount, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", e.Amount, err)
	}

	query := `
		INSERT INTO investment_activity (
			event_id, investment_id, user_id, product_id,
			event_type, amount, status, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = r.db.Conn().Exec(ctx, query,
		e.ID.String(),
		e.InvestmentID.String(),
		e.UserID.String(),
		e.ProductID.String(),
		string(e.Type),
		amount,
		string(e.Status),
		e.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity event %s: %w", e.ID, err)
	}
	return nil
}

// ListUserActivity returns up to limit events of the user, most recent first.
// A non-positive limit means DefaultListLimit.
func (r *Repository) ListUserActivity(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.InvestmentEvent, error) {
	query := `
		SELECT
			event_id, investment_id, user_id, product_id,
			event_type, toString(amount) AS amount, status, occurred_at
		FROM investment_activity FINAL
		WHERE user_id = ?
		ORDER BY occurred_at DESC, event_id DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, userID.String(), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query activity for user %s: %w", userID, err)
	}
	defer rows.Close()

	history := make([]*domain.InvestmentEvent, 0)
	for rows.Next() {
		var (
			eventID, investmentID, rowUserID, productID string
			eventType, amount, status                   string
			occurredAt                                  time.Time
		)
		if err := rows.Scan(&eventID, &investmentID, &rowUserID, &productID, &eventType, &amount, &status, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}

		// toString() drops trailing zeros, e.g. 150.5 instead of 150.50
		if d, err := decimal.NewFromString(amount); err == nil {
			amount = d.StringFixed(2)
		}

		msg := events.InvestmentMessage{
			EventID:      eventID,
			EventType:    eventType,
			InvestmentID: investmentID,
			UserID:       rowUserID,
			ProductID:    productID,
			Amount:       amount,
			Status:       status,
			Timestamp:    occurredAt.UTC().Format(time.RFC3339Nano),
		}
		e, err := msg.Event()
		if err != nil {
			return nil, fmt.Errorf("corrupt activity row %s: %w", eventID, err)
		}
		history = append(history, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return history, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
