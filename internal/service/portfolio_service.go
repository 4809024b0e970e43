package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mini-invest/investment-service/internal/domain"
)

// UnknownGroup labels investments whose product is no longer in the catalog.
const UnknownGroup = "unknown"

// Summary totals a user's active investments.
type Summary struct {
	TotalInvestments int
	TotalInvested    decimal.Decimal
	CurrentValue     decimal.Decimal
	TotalReturns     decimal.Decimal // CurrentValue - TotalInvested
}

// Bucket is one group of a distribution.
type Bucket struct {
	Count  int
	Amount decimal.Decimal
}

// Distribution groups active investments by product type and by risk level.
type Distribution struct {
	ByType map[string]Bucket
	ByRisk map[string]Bucket
}

// Portfolio is the full read model of a user's current holdings.
type Portfolio struct {
	Summary      Summary
	Distribution Distribution
	Investments  []*domain.Investment
}

// PortfolioService computes portfolio views on demand from the investment store.
// Matured and cancelled investments are history and never count towards these views.
type PortfolioService struct {
	investments domain.InvestmentStore
	catalog     domain.ProductCatalog
	tracer      trace.Tracer
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(investments domain.InvestmentStore, catalog domain.ProductCatalog, opts ...Option) *PortfolioService {
	s := applyOptions(opts)
	return &PortfolioService{
		investments: investments,
		catalog:     catalog,
		tracer:      s.tracer,
	}
}

// Summary returns totals over the user's active investments.
func (s *PortfolioService) Summary(ctx context.Context, userID uuid.UUID) (summary *Summary, err error) {
	ctx, span := s.tracer.Start(ctx, "PortfolioService.Summary", trace.WithAttributes(idAttr("user.id", userID)))
	defer func() { finishSpan(span, err) }()

	active, err := s.activeInvestments(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum := summarize(active)
	return &sum, nil
}

// Distribution groups the user's active investments by product type and risk level.
func (s *PortfolioService) Distribution(ctx context.Context, userID uuid.UUID) (dist *Distribution, err error) {
	ctx, span := s.tracer.Start(ctx, "PortfolioService.Distribution", trace.WithAttributes(idAttr("user.id", userID)))
	defer func() { finishSpan(span, err) }()

	active, err := s.activeInvestments(ctx, userID)
	if err != nil {
		return nil, err
	}
	d, err := s.distribute(ctx, active)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Portfolio returns the summary, the distribution and the active investments in one read.
func (s *PortfolioService) Portfolio(ctx context.Context, userID uuid.UUID) (portfolio *Portfolio, err error) {
	ctx, span := s.tracer.Start(ctx, "PortfolioService.Portfolio", trace.WithAttributes(idAttr("user.id", userID)))
	defer func() { finishSpan(span, err) }()

	active, err := s.activeInvestments(ctx, userID)
	if err != nil {
		return nil, err
	}
	d, err := s.distribute(ctx, active)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("portfolio.active_investments", len(active)))

	return &Portfolio{
		Summary:      summarize(active),
		Distribution: d,
		Investments:  active,
	}, nil
}

// activeInvestments pages through every active investment of the user.
func (s *PortfolioService) activeInvestments(ctx context.Context, userID uuid.UUID) ([]*domain.Investment, error) {
	if err := domain.ValidateID("user_id", userID); err != nil {
		return nil, err
	}

	active := domain.StatusActive
	filter := domain.InvestmentFilter{Status: &active}
	page := domain.Page{Limit: domain.MaxPageLimit}

	all := make([]*domain.Investment, 0)
	for {
		list, err := s.investments.FindByUser(ctx, userID, filter, page)
		if err != nil {
			return nil, domain.PersistenceError("list active investments", err)
		}
		all = append(all, list.Items...)
		if len(list.Items) == 0 || len(all) >= list.Total {
			return all, nil
		}
		page.Offset += len(list.Items)
	}
}

func summarize(active []*domain.Investment) Summary {
	sum := Summary{
		TotalInvested: decimal.Zero,
		CurrentValue:  decimal.Zero,
		TotalReturns:  decimal.Zero,
	}
	for _, inv := range active {
		sum.TotalInvestments++
		sum.TotalInvested = sum.TotalInvested.Add(inv.Amount)
		sum.CurrentValue = sum.CurrentValue.Add(inv.CurrentValue)
	}
	sum.TotalReturns = sum.CurrentValue.Sub(sum.TotalInvested)
	return sum
}

func (s *PortfolioService) distribute(ctx context.Context, active []*domain.Investment) (Distribution, error) {
	d := Distribution{
		ByType: make(map[string]Bucket),
		ByRisk: make(map[string]Bucket),
	}
	if len(active) == 0 {
		return d, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(active))
	ids := make([]uuid.UUID, 0, len(active))
	for _, inv := range active {
		if _, ok := seen[inv.ProductID]; !ok {
			seen[inv.ProductID] = struct{}{}
			ids = append(ids, inv.ProductID)
		}
	}

	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return Distribution{}, domain.PersistenceError(fmt.Sprintf("load %d products", len(ids)), err)
	}

	for _, inv := range active {
		productType, risk := UnknownGroup, UnknownGroup
		if p, ok := products[inv.ProductID]; ok {
			if p.Type != "" {
				productType = p.Type
			}
			if p.RiskLevel != "" {
				risk = string(p.RiskLevel)
			}
		}
		d.ByType[productType] = addTo(d.ByType[productType], inv.Amount)
		d.ByRisk[risk] = addTo(d.ByRisk[risk], inv.Amount)
	}
	return d, nil
}

func addTo(b Bucket, amount decimal.Decimal) Bucket {
	b.Count++
	b.Amount = b.Amount.Add(amount)
	return b
}
