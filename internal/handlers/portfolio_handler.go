package handlers

import (
	"net/http"

	"github.com/mini-invest/investment-service/internal/models"
)

// GetPortfolio returns the summary, the distribution and the active holdings of the user.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request, userId models.UserIdParam) {
	p, err := h.portfolio.Portfolio(r.Context(), userId)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	investments := make([]models.Investment, 0, len(p.Investments))
	for _, inv := range p.Investments {
		investments = append(investments, h.toInvestment(inv))
	}
	writeJSON(w, http.StatusOK, models.Portfolio{
		Summary:      h.toSummary(p.Summary),
		Distribution: h.toDistribution(p.Distribution),
		Investments:  investments,
	})
}

// GetPortfolioSummary returns totals over the user's active investments.
func (h *Handler) GetPortfolioSummary(w http.ResponseWriter, r *http.Request, userId models.UserIdParam) {
	sum, err := h.portfolio.Summary(r.Context(), userId)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toSummary(*sum))
}

// GetPortfolioDistribution groups the user's active investments by product type and risk.
func (h *Handler) GetPortfolioDistribution(w http.ResponseWriter, r *http.Request, userId models.UserIdParam) {
	d, err := h.portfolio.Distribution(r.Context(), userId)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toDistribution(*d))
}
