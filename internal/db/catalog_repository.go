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

const productColumns = `
	id, name, type, min_investment, max_investment, annual_yield,
	tenure_months, compound_frequency, risk_level, is_active`

// CatalogRepository reads investment products. The catalog is owned elsewhere; this
// service never writes to it.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// GetProduct retrieves a product by its unique identifier.
func (r *CatalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, classify("get product", err)
	}
	return p, nil
}

// GetProducts loads every product among ids in one round trip.
func (r *CatalogRepository) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	rows, err := conn(ctx, r.pool).Query(ctx, query, ids)
	if err != nil {
		return nil, classify("get products", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, classify("get products", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, classify("get products", err)
	}
	return out, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p         domain.Product
		maxInv    decimal.NullDecimal
		frequency string
		risk      string
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Type,
		&p.MinInvestment,
		&maxInv,
		&p.AnnualYield,
		&p.TenureMonths,
		&frequency,
		&risk,
		&p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	if maxInv.Valid {
		p.MaxInvestment = &maxInv.Decimal
	}
	p.CompoundFrequency = domain.CompoundFrequency(frequency)
	p.RiskLevel = domain.RiskLevel(risk)
	return &p, nil
}
