package handlers

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mini-invest/investment-service/internal/domain"
	"github.com/mini-invest/investment-service/internal/models"
	"github.com/mini-invest/investment-service/internal/service"
)

// amountScale is the number of decimal places of every monetary output.
const amountScale = 2

// toAmount renders d at amountScale. Display uses the currency's symbol and separators at
// the same scale, so it always shows the number in Value.
func (h *Handler) toAmount(d decimal.Decimal) models.Amount {
	rounded := d.Round(amountScale)
	return models.Amount{
		Value:        rounded.StringFixed(amountScale),
		CurrencyCode: h.currency.Code,
		Display:      h.display.Format(rounded.Shift(amountScale).IntPart()),
	}
}

func (h *Handler) toInvestment(inv *domain.Investment) models.Investment {
	return models.Investment{
		Id:             inv.ID,
		UserId:         inv.UserID,
		ProductId:      inv.ProductID,
		Amount:         h.toAmount(inv.Amount),
		Status:         string(inv.Status),
		ExpectedReturn: h.toAmount(inv.ExpectedReturn),
		CurrentValue:   h.toAmount(inv.CurrentValue),
		MaturityDate:   inv.MaturityDate,
		Notes:          inv.Notes,
		AutoReinvest:   inv.AutoReinvest,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func (h *Handler) toProjection(product *domain.Product, principal decimal.Decimal, p *domain.Projection) models.Projection {
	monthly := make([]models.ProjectionPoint, 0, len(p.Monthly))
	for _, point := range p.Monthly {
		monthly = append(monthly, models.ProjectionPoint{
			Month:            point.Month,
			Value:            point.Value.StringFixed(2),
			Returns:          point.Returns.StringFixed(2),
			ReturnPercentage: point.ReturnPercentage.StringFixed(2),
		})
	}
	return models.Projection{
		ProductId:        product.ID,
		Principal:        h.toAmount(principal),
		AnnualYield:      product.AnnualYield.String(),
		TenureMonths:     len(p.Monthly),
		FinalAmount:      h.toAmount(p.FinalAmount),
		TotalReturns:     h.toAmount(p.TotalReturns),
		ReturnPercentage: p.ReturnPercentage.StringFixed(2),
		Monthly:          monthly,
	}
}

func (h *Handler) toSummary(s service.Summary) models.PortfolioSummary {
	return models.PortfolioSummary{
		TotalInvestments: s.TotalInvestments,
		TotalInvested:    h.toAmount(s.TotalInvested),
		CurrentValue:     h.toAmount(s.CurrentValue),
		TotalReturns:     h.toAmount(s.TotalReturns),
	}
}

func (h *Handler) toDistribution(d service.Distribution) models.PortfolioDistribution {
	return models.PortfolioDistribution{
		ByType: h.toBuckets(d.ByType),
		ByRisk: h.toBuckets(d.ByRisk),
	}
}

func (h *Handler) toBuckets(in map[string]service.Bucket) map[string]models.DistributionBucket {
	out := make(map[string]models.DistributionBucket, len(in))
	for group, b := range in {
		out[group] = models.DistributionBucket{Count: b.Count, Amount: h.toAmount(b.Amount)}
	}
	return out
}

func (h *Handler) toActivityEntry(e *domain.InvestmentEvent) (models.ActivityEntry, error) {
	amount, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return models.ActivityEntry{}, fmt.Errorf("event %s has invalid amount %q: %w", e.ID, e.Amount, err)
	}
	return models.ActivityEntry{
		EventId:      e.ID,
		EventType:    string(e.Type),
		InvestmentId: e.InvestmentID,
		ProductId:    e.ProductID,
		Amount:       h.toAmount(amount),
		Status:       string(e.Status),
		Timestamp:    e.OccurredAt,
	}, nil
}
