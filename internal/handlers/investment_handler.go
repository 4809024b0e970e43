package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"

	"github.com/mini-invest/investment-service/internal/activity"
	"github.com/mini-invest/investment-service/internal/domain"
	"github.com/mini-invest/investment-service/internal/models"
	"github.com/mini-invest/investment-service/internal/service"
)

// ActivityReader serves a user's lifecycle event history.
type ActivityReader interface {
	ListUserActivity(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.InvestmentEvent, error)
}

// Handler implements the server.ServerInterface
type Handler struct {
	investments *service.InvestmentService
	portfolio   *service.PortfolioService
	activity    ActivityReader
	currency    *money.Currency
	display     *money.Formatter
}

// NewHandler creates a new Handler. activity may be nil, in which case the activity
// endpoint answers 501. Amounts are displayed in currencyCode; unknown codes fall back to USD.
func NewHandler(investments *service.InvestmentService, portfolio *service.PortfolioService, activity ActivityReader, currencyCode string) *Handler {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(money.USD)
	}
	return &Handler{
		investments: investments,
		portfolio:   portfolio,
		activity:    activity,
		currency:    currency,
		display:     money.NewFormatter(amountScale, currency.Decimal, currency.Thousand, currency.Grapheme, currency.Template),
	}
}

// CreateInvestment opens a position and debits its principal from the user's balance.
func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request, userId models.UserIdParam) {
	var req models.CreateInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	createReq := service.CreateInvestmentRequest{
		UserID:       userId,
		ProductID:    req.ProductId,
		Amount:       amount,
		CustomTenure: req.CustomTenure,
	}
	if req.Notes != nil {
		createReq.Notes = *req.Notes
	}
	if req.AutoReinvest != nil {
		createReq.AutoReinvest = *req.AutoReinvest
	}

	result, err := h.investments.CreateInvestment(r.Context(), createReq)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateInvestmentResponse{
		Investment: h.toInvestment(result.Investment),
		Projection: h.toProjection(result.Product, result.Investment.Amount, result.Projection),
		Balance:    h.toAmount(result.Balance),
	})
}

// ListInvestments returns one page of the user's investments in every status.
func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, params models.ListInvestmentsParams) {
	filter := domain.InvestmentFilter{
		ProductID:     params.ProductId,
		CreatedAfter:  params.CreatedAfter,
		CreatedBefore: params.CreatedBefore,
	}
	if params.Status != nil {
		status, err := domain.ParseStatus(*params.Status)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		filter.Status = &status
	}

	var page domain.Page
	if params.Limit != nil {
		page.Limit = *params.Limit
	}
	if params.Offset != nil {
		page.Offset = *params.Offset
	}

	list, err := h.investments.ListInvestments(r.Context(), userId, filter, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	content := make([]models.Investment, 0, len(list.Items))
	for _, inv := range list.Items {
		content = append(content, h.toInvestment(inv))
	}
	writeJSON(w, http.StatusOK, models.ListInvestmentsResponse{
		Content: content,
		Total:   list.Total,
	})
}

// GetInvestment returns one of the user's investments.
func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, investmentId models.InvestmentIdParam) {
	inv, err := h.investments.GetInvestment(r.Context(), userId, investmentId)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toInvestment(inv))
}

// UpdateInvestment changes the notes or the auto-reinvest flag of an active investment.
func (h *Handler) UpdateInvestment(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, investmentId models.InvestmentIdParam) {
	var req models.UpdateInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	inv, err := h.investments.UpdateInvestment(r.Context(), userId, investmentId, domain.InvestmentPatch{
		Notes:        req.Notes,
		AutoReinvest: req.AutoReinvest,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toInvestment(inv))
}

// CancelInvestment cancels an active investment and refunds its principal.
func (h *Handler) CancelInvestment(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, investmentId models.InvestmentIdParam) {
	result, err := h.investments.CancelInvestment(r.Context(), userId, investmentId)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CancelInvestmentResponse{
		Investment: h.toInvestment(result.Investment),
		Refunded:   h.toAmount(result.Refunded),
		Balance:    h.toAmount(result.Balance),
	})
}

// GetProjection previews the growth of an amount in a product.
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request, productId models.ProductIdParam, params models.GetProjectionParams) {
	amount, err := domain.ParseAmount(params.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	projection, product, err := h.investments.Projection(r.Context(), productId, amount, params.CustomTenure)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProjection(product, amount, projection))
}

// GetUserActivity lists the user's lifecycle events, most recent first.
func (h *Handler) GetUserActivity(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, params models.GetUserActivityParams) {
	if h.activity == nil {
		sendErrorResponse(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "activity history is not configured")
		return
	}
	if err := domain.ValidateID("user_id", userId); err != nil {
		handleServiceError(w, err)
		return
	}

	limit := activity.DefaultListLimit
	if params.Limit != nil {
		if *params.Limit < 0 {
			handleServiceError(w, domain.ErrInvalidPagination)
			return
		}
		limit = *params.Limit
	}

	history, err := h.activity.ListUserActivity(r.Context(), userId, limit)
	if err != nil {
		handleServiceError(w, domain.PersistenceError("list activity", err))
		return
	}

	content := make([]models.ActivityEntry, 0, len(history))
	for _, e := range history {
		entry, err := h.toActivityEntry(e)
		if err != nil {
			handleServiceError(w, domain.PersistenceError("read activity", err))
			return
		}
		content = append(content, entry)
	}
	writeJSON(w, http.StatusOK, models.GetUserActivityResponse{Content: content})
}
