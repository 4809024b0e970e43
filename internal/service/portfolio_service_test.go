package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mini-invest/investment-service/internal/domain"
)

func TestPortfolioSummary_ExcludesCancelled(t *testing.T) {
	f := newFixture(t, "50000.00")
	svc := f.service()
	f.create(t, svc, 10000)
	cancelled := f.create(t, svc, 5000)
	if _, err := svc.CancelInvestment(context.Background(), f.userID, cancelled.ID); err != nil {
		t.Fatalf("CancelInvestment failed: %v", err)
	}

	portfolio := NewPortfolioService(f.store, f.store)
	sum, err := portfolio.Summary(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TotalInvestments != 1 {
		t.Errorf("expected 1 investment, got %d", sum.TotalInvestments)
	}
	if sum.TotalInvested.StringFixed(2) != "10000.00" {
		t.Errorf("expected total invested 10000.00, got %s", sum.TotalInvested.StringFixed(2))
	}
	if sum.CurrentValue.StringFixed(2) != "10000.00" {
		t.Errorf("expected current value 10000.00, got %s", sum.CurrentValue.StringFixed(2))
	}
	if !sum.TotalReturns.IsZero() {
		t.Errorf("expected zero returns, got %s", sum.TotalReturns)
	}
}

func TestPortfolio_EmptyIsZeroed(t *testing.T) {
	f := newFixture(t, "0.00")
	portfolio := NewPortfolioService(f.store, f.store)

	p, err := portfolio.Portfolio(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Portfolio failed: %v", err)
	}
	if p.Summary.TotalInvestments != 0 || !p.Summary.TotalInvested.IsZero() || !p.Summary.CurrentValue.IsZero() {
		t.Errorf("expected zeroed summary, got %+v", p.Summary)
	}
	if p.Distribution.ByType == nil || p.Distribution.ByRisk == nil || len(p.Distribution.ByType) != 0 {
		t.Errorf("expected empty distribution maps, got %+v", p.Distribution)
	}
	if p.Investments == nil || len(p.Investments) != 0 {
		t.Errorf("expected empty investment list, got %v", p.Investments)
	}
}

func TestPortfolioDistribution(t *testing.T) {
	f := newFixture(t, "100000.00")
	bondID := uuid.New()
	f.store.PutProduct(domain.Product{
		ID:                bondID,
		Name:              "Corporate Bond",
		Type:              "bond",
		MinInvestment:     decimal.NewFromInt(500),
		AnnualYield:       decimal.RequireFromString("8.5"),
		TenureMonths:      36,
		CompoundFrequency: domain.CompoundQuarterly,
		RiskLevel:         domain.RiskMedium,
		IsActive:          true,
	})

	svc := f.service()
	f.create(t, svc, 10000)
	f.create(t, svc, 2000)
	if _, err := svc.CreateInvestment(context.Background(), CreateInvestmentRequest{
		UserID:    f.userID,
		ProductID: bondID,
		Amount:    decimal.NewFromInt(3000),
	}); err != nil {
		t.Fatalf("CreateInvestment failed: %v", err)
	}

	portfolio := NewPortfolioService(f.store, f.store)
	d, err := portfolio.Distribution(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}

	tests := []struct {
		name   string
		bucket Bucket
		count  int
		amount string
	}{
		{"deposit", d.ByType["deposit"], 2, "12000.00"},
		{"bond", d.ByType["bond"], 1, "3000.00"},
		{"low risk", d.ByRisk["low"], 2, "12000.00"},
		{"medium risk", d.ByRisk["medium"], 1, "3000.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.bucket.Count != tt.count || tt.bucket.Amount.StringFixed(2) != tt.amount {
				t.Errorf("expected %d/%s, got %d/%s", tt.count, tt.amount, tt.bucket.Count, tt.bucket.Amount.StringFixed(2))
			}
		})
	}
	if _, ok := d.ByRisk["high"]; ok {
		t.Error("expected no high risk bucket")
	}
}

// pagingStore caps page sizes so the aggregator has to follow offsets.
type pagingStore struct {
	domain.InvestmentStore
	limit int
	calls int
}

func (p *pagingStore) FindByUser(ctx context.Context, userID uuid.UUID, filter domain.InvestmentFilter, page domain.Page) (*domain.InvestmentList, error) {
	p.calls++
	page.Limit = p.limit
	return p.InvestmentStore.FindByUser(ctx, userID, filter, page)
}

func TestPortfolio_PagesThroughAllInvestments(t *testing.T) {
	f := newFixture(t, "100000.00")
	svc := f.service()
	for i := 0; i < 5; i++ {
		f.create(t, svc, 1000)
	}

	store := &pagingStore{InvestmentStore: f.store, limit: 2}
	portfolio := NewPortfolioService(store, f.store)

	p, err := portfolio.Portfolio(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Portfolio failed: %v", err)
	}
	if len(p.Investments) != 5 || p.Summary.TotalInvestments != 5 {
		t.Errorf("expected 5 investments, got %d", len(p.Investments))
	}
	if store.calls != 3 {
		t.Errorf("expected 3 page reads, got %d", store.calls)
	}
}

type brokenCatalog struct{}

func (brokenCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return nil, errors.New("catalog offline")
}

func (brokenCatalog) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	return nil, errors.New("catalog offline")
}

func TestPortfolio_CatalogFailure(t *testing.T) {
	f := newFixture(t, "50000.00")
	f.create(t, f.service(), 1000)

	portfolio := NewPortfolioService(f.store, brokenCatalog{})
	if _, err := portfolio.Distribution(context.Background(), f.userID); !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
	// Summary doesn't need the catalog.
	if _, err := portfolio.Summary(context.Background(), f.userID); err != nil {
		t.Errorf("Summary failed: %v", err)
	}
}
