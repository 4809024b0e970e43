package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mini-invest/investment-service/internal/domain"
)

const investmentColumns = `
	id, user_id, product_id, amount, status,
	expected_return, current_value, maturity_date,
	notes, auto_reinvest, created_at, updated_at`

// InvestmentRepository implements domain.InvestmentStore using PostgreSQL.
type InvestmentRepository struct {
	pool *pgxpool.Pool
}

// NewInvestmentRepository creates a new InvestmentRepository.
func NewInvestmentRepository(pool *pgxpool.Pool) *InvestmentRepository {
	return &InvestmentRepository{
		pool: pool,
	}
}

// Create inserts an active investment. The product checks live in the INSERT itself,
// so a product deactivated after the caller loaded it still rejects the write.
func (r *InvestmentRepository) Create(ctx context.Context, inv *domain.Investment) error {
	query := `
		INSERT INTO investments (` + investmentColumns + `)
		SELECT $1::uuid, $2::uuid, p.id, $4::numeric, $5::varchar,
		       $6::numeric, $7::numeric, $8::timestamptz,
		       $9::text, $10::boolean, $11::timestamptz, $12::timestamptz
		FROM products p
		WHERE p.id = $3
		  AND p.is_active
		  AND $4::numeric >= p.min_investment
		  AND (p.max_investment IS NULL OR $4::numeric <= p.max_investment)
	`

	inv.Status = domain.StatusActive
	q := conn(ctx, r.pool)

	tag, err := q.Exec(ctx, query,
		inv.ID,
		inv.UserID,
		inv.ProductID,
		inv.Amount,
		string(inv.Status),
		inv.ExpectedReturn,
		inv.CurrentValue,
		inv.MaturityDate,
		inv.Notes,
		inv.AutoReinvest,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		if pgCode(err) == sqlStateForeignKeyViolation {
			return domain.ErrUserNotFound
		}
		return classify("create investment", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing inserted: work out which product rule failed.
	var (
		active bool
		fits   bool
	)
	err = q.QueryRow(ctx, `
		SELECT is_active,
		       $2::numeric >= min_investment AND (max_investment IS NULL OR $2::numeric <= max_investment)
		FROM products
		WHERE id = $1
	`, inv.ProductID, inv.Amount).Scan(&active, &fits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		return classify("check product", err)
	}
	if !active {
		return domain.ErrProductInactive
	}
	if !fits {
		return domain.ErrAmountOutOfBounds
	}
	return fmt.Errorf("%w: investment %s was not inserted", domain.ErrConcurrencyConflict, inv.ID)
}

// FindByID retrieves an investment by its unique identifier.
func (r *InvestmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1`

	inv, err := scanInvestment(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvestmentNotFound
		}
		return nil, classify("get investment", err)
	}
	return inv, nil
}

// FindByUser returns one page of the user's investments, newest first, with the
// total number of matching rows.
func (r *InvestmentRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter domain.InvestmentFilter, page domain.Page) (*domain.InvestmentList, error) {
	page, err := page.Normalize()
	if err != nil {
		return nil, err
	}

	where, args := investmentFilterClause(userID, filter)
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM investments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, classify("count investments", err)
	}

	args = append(args, page.Limit, page.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM investments
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, investmentColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list investments", err)
	}
	items, err := collectInvestments(rows)
	if err != nil {
		return nil, classify("list investments", err)
	}

	return &domain.InvestmentList{Items: items, Total: total}, nil
}

func investmentFilterClause(userID uuid.UUID, f domain.InvestmentFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.ProductID != nil {
		add("product_id = $%d", *f.ProductID)
	}
	if f.CreatedAfter != nil {
		add("created_at >= $%d", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		add("created_at < $%d", *f.CreatedBefore)
	}
	return strings.Join(conds, " AND "), args
}

// UpdateStatus moves the investment from expectedFrom to to in one conditional UPDATE.
func (r *InvestmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedFrom, to domain.Status) (*domain.Investment, error) {
	if err := expectedFrom.ValidateTransition(to); err != nil {
		return nil, err
	}

	query := `
		UPDATE investments
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING ` + investmentColumns

	q := conn(ctx, r.pool)

	inv, err := scanInvestment(q.QueryRow(ctx, query, id, string(expectedFrom), string(to)))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, classify("update investment status", err)
	}

	var current string
	if err := q.QueryRow(ctx, `SELECT status FROM investments WHERE id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvestmentNotFound
		}
		return nil, classify("check investment status", err)
	}
	return nil, fmt.Errorf("%w: expected %s, found %s", domain.ErrStatusChanged, expectedFrom, current)
}

// UpdateMutableFields applies patch while the investment is still active.
func (r *InvestmentRepository) UpdateMutableFields(ctx context.Context, id uuid.UUID, patch domain.InvestmentPatch) (*domain.Investment, error) {
	query := `
		UPDATE investments
		SET notes = COALESCE($2, notes),
		    auto_reinvest = COALESCE($3, auto_reinvest)
		WHERE id = $1 AND status = 'active'
		RETURNING ` + investmentColumns

	q := conn(ctx, r.pool)

	inv, err := scanInvestment(q.QueryRow(ctx, query, id, patch.Notes, patch.AutoReinvest))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, classify("update investment", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM investments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, classify("check investment", err)
	}
	if !exists {
		return nil, domain.ErrInvestmentNotFound
	}
	return nil, domain.ErrInvestmentNotActive
}

// FindDue returns active investments whose maturity date has passed, oldest first.
func (r *InvestmentRepository) FindDue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Investment, error) {
	if limit <= 0 {
		limit = domain.MaxPageLimit
	}

	query := `
		SELECT ` + investmentColumns + `
		FROM investments
		WHERE status = 'active' AND maturity_date <= $1
		ORDER BY maturity_date
		LIMIT $2
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, classify("find due investments", err)
	}
	items, err := collectInvestments(rows)
	if err != nil {
		return nil, classify("find due investments", err)
	}
	return items, nil
}

func scanInvestment(row pgx.Row) (*domain.Investment, error) {
	var (
		inv    domain.Investment
		status string
	)
	err := row.Scan(
		&inv.ID,
		&inv.UserID,
		&inv.ProductID,
		&inv.Amount,
		&status,
		&inv.ExpectedReturn,
		&inv.CurrentValue,
		&inv.MaturityDate,
		&inv.Notes,
		&inv.AutoReinvest,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = domain.Status(status)
	return &inv, nil
}

func collectInvestments(rows pgx.Rows) ([]*domain.Investment, error) {
	defer rows.Close()

	items := make([]*domain.Investment, 0)
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}
