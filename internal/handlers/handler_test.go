package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mini-invest/investment-service/internal/domain"
	"github.com/mini-invest/investment-service/internal/handlers"
	"github.com/mini-invest/investment-service/internal/memory"
	"github.com/mini-invest/investment-service/internal/models"
	"github.com/mini-invest/investment-service/internal/server"
	"github.com/mini-invest/investment-service/internal/service"
)

type mockActivity struct {
	events []*domain.InvestmentEvent
	err    error
	limit  int
}

func (m *mockActivity) ListUserActivity(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.InvestmentEvent, error) {
	m.limit = limit
	return m.events, m.err
}

type testAPI struct {
	store     *memory.Store
	userID    uuid.UUID
	productID uuid.UUID
	handler   http.Handler
}

func newTestAPI(t *testing.T, balance string, activity handlers.ActivityReader) *testAPI {
	t.Helper()
	store := memory.NewStore()
	api := &testAPI{store: store, userID: uuid.New(), productID: uuid.New()}

	store.PutUser(domain.User{ID: api.userID, AccountBalance: decimal.RequireFromString(balance), IsActive: true})
	store.PutProduct(domain.Product{
		ID:                api.productID,
		Name:              "Fixed Deposit",
		Type:              "deposit",
		MinInvestment:     decimal.NewFromInt(1000),
		AnnualYield:       decimal.NewFromInt(12),
		TenureMonths:      24,
		CompoundFrequency: domain.CompoundAnnually,
		RiskLevel:         domain.RiskLow,
		IsActive:          true,
	})

	investments := service.NewInvestmentService(store, store, store, store, nil, nil)
	portfolio := service.NewPortfolioService(store, store)
	h := handlers.NewHandler(investments, portfolio, activity, "USD")
	api.handler = server.HandlerWithOptions(h, server.ChiServerOptions{ErrorHandlerFunc: handlers.ParamErrorHandler})
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testAPI) create(t *testing.T, amount string) models.CreateInvestmentResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/users/"+a.userID.String()+"/investments", models.CreateInvestmentRequest{
		ProductId: a.productID,
		Amount:    amount,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var resp models.CreateInvestmentResponse
	decode(t, w, &resp)
	return resp
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestCreateInvestment_Success(t *testing.T) {
	api := newTestAPI(t, "50000.00", nil)
	resp := api.create(t, "10000.00")

	if resp.Investment.Status != "active" {
		t.Errorf("expected status active, got %s", resp.Investment.Status)
	}
	if resp.Investment.Amount.Value != "10000.00" || resp.Investment.Amount.Display != "$10,000.00" {
		t.Errorf("unexpected amount: %+v", resp.Investment.Amount)
	}
	if resp.Investment.ExpectedReturn.Value != "2544.00" {
		t.Errorf("expected return 2544.00, got %s", resp.Investment.ExpectedReturn.Value)
	}
	if resp.Projection.FinalAmount.Value != "12544.00" || resp.Projection.TenureMonths != 24 || len(resp.Projection.Monthly) != 24 {
		t.Errorf("unexpected projection: %+v", resp.Projection)
	}
	if resp.Balance.Value != "40000.00" || resp.Balance.CurrencyCode != "USD" {
		t.Errorf("unexpected balance: %+v", resp.Balance)
	}
}

func TestCreateInvestment_Errors(t *testing.T) {
	tests := []struct {
		name         string
		body         any
		userID       string
		expectedCode int
		errorCode    string
	}{
		{"malformed body", "not an object", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad amount", map[string]string{"amount": "ten"}, "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"three decimals", map[string]string{"amount": "1000.001"}, "", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"unknown product", models.CreateInvestmentRequest{ProductId: uuid.New(), Amount: "1000.00"}, "", http.StatusNotFound, "NOT_FOUND"},
		{"below minimum", nil, "", http.StatusConflict, "INVALID_STATE"},
		{"insufficient balance", nil, "", http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
		{"unknown user", nil, uuid.NewString(), http.StatusNotFound, "NOT_FOUND"},
		{"bad user id", nil, "user-1", http.StatusBadRequest, "INVALID_ARGUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, "5000.00", nil)
			body := tt.body
			if body == nil {
				amount := "2000.00"
				switch tt.name {
				case "below minimum":
					amount = "999.99"
				case "insufficient balance":
					amount = "5000.01"
				}
				body = models.CreateInvestmentRequest{ProductId: api.productID, Amount: amount}
			}
			userID := tt.userID
			if userID == "" {
				userID = api.userID.String()
			}

			w := api.do(t, http.MethodPost, "/users/"+userID+"/investments", body)
			if w.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
			var errorResp models.BaseError
			decode(t, w, &errorResp)
			if errorResp.Code != tt.errorCode {
				t.Errorf("expected error code %s, got %s", tt.errorCode, errorResp.Code)
			}

			u, err := api.store.GetUser(context.Background(), api.userID)
			if err != nil {
				t.Fatalf("GetUser failed: %v", err)
			}
			if u.AccountBalance.StringFixed(2) != "5000.00" {
				t.Errorf("balance changed to %s", u.AccountBalance.StringFixed(2))
			}
		})
	}
}

func TestCancelInvestment(t *testing.T) {
	api := newTestAPI(t, "50000.00", nil)
	created := api.create(t, "10000.00")
	path := "/users/" + api.userID.String() + "/investments/" + created.Investment.Id.String() + "/cancel"

	w := api.do(t, http.MethodPost, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var resp models.CancelInvestmentResponse
	decode(t, w, &resp)
	if resp.Investment.Status != "cancelled" || resp.Refunded.Value != "10000.00" || resp.Balance.Value != "50000.00" {
		t.Errorf("unexpected cancel response: %+v", resp)
	}

	w = api.do(t, http.MethodPost, path, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d on second cancel, got %d", http.StatusConflict, w.Code)
	}

	other := "/users/" + uuid.NewString() + "/investments/" + created.Investment.Id.String() + "/cancel"
	if w := api.do(t, http.MethodPost, other, nil); w.Code != http.StatusNotFound {
		t.Errorf("expected status %d for a foreign investment, got %d", http.StatusNotFound, w.Code)
	}
}

func TestGetAndUpdateInvestment(t *testing.T) {
	api := newTestAPI(t, "50000.00", nil)
	created := api.create(t, "10000.00")
	path := "/users/" + api.userID.String() + "/investments/" + created.Investment.Id.String()

	notes := "college fund"
	w := api.do(t, http.MethodPatch, path, models.UpdateInvestmentRequest{Notes: &notes})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var inv models.Investment
	decode(t, w, &inv)
	if inv.Notes != notes || inv.AutoReinvest {
		t.Errorf("unexpected investment: %+v", inv)
	}

	if w := api.do(t, http.MethodPatch, path, map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for an empty patch, got %d", http.StatusBadRequest, w.Code)
	}
	if w := api.do(t, http.MethodGet, "/users/"+api.userID.String()+"/investments/"+uuid.NewString(), nil); w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestListInvestments(t *testing.T) {
	api := newTestAPI(t, "50000.00", nil)
	api.create(t, "1000.00")
	api.create(t, "2000.00")
	cancelled := api.create(t, "3000.00")
	base := "/users/" + api.userID.String() + "/investments"
	api.do(t, http.MethodPost, base+"/"+cancelled.Investment.Id.String()+"/cancel", nil)

	tests := []struct {
		name         string
		query        string
		expectedCode int
		count        int
		total        int
	}{
		{"all", "", http.StatusOK, 3, 3},
		{"active only", "?status=active", http.StatusOK, 2, 2},
		{"cancelled only", "?status=cancelled", http.StatusOK, 1, 1},
		{"paged", "?limit=2&offset=2", http.StatusOK, 1, 3},
		{"by product", "?productId=" + api.productID.String(), http.StatusOK, 3, 3},
		{"unknown status", "?status=pending", http.StatusBadRequest, 0, 0},
		{"bad limit", "?limit=many", http.StatusBadRequest, 0, 0},
		{"negative offset", "?offset=-1", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodGet, base+tt.query, nil)
			if w.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
			if tt.expectedCode != http.StatusOK {
				return
			}
			var resp models.ListInvestmentsResponse
			decode(t, w, &resp)
			if len(resp.Content) != tt.count || resp.Total != tt.total {
				t.Errorf("expected %d/%d, got %d/%d", tt.count, tt.total, len(resp.Content), resp.Total)
			}
		})
	}
}

func TestGetPortfolio(t *testing.T) {
	api := newTestAPI(t, "50000.00", nil)
	api.create(t, "10000.00")
	cancelled := api.create(t, "5000.00")
	api.do(t, http.MethodPost, "/users/"+api.userID.String()+"/investments/"+cancelled.Investment.Id.String()+"/cancel", nil)

	w := api.do(t, http.MethodGet, "/users/"+api.userID.String()+"/portfolio", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var p models.Portfolio
	decode(t, w, &p)
	if p.Summary.TotalInvestments != 1 || p.Summary.TotalInvested.Value != "10000.00" || p.Summary.TotalReturns.Value != "0.00" {
		t.Errorf("unexpected summary: %+v", p.Summary)
	}
	if b := p.Distribution.ByType["deposit"]; b.Count != 1 || b.Amount.Value != "10000.00" {
		t.Errorf("unexpected deposit bucket: %+v", b)
	}
	if len(p.Investments) != 1 {
		t.Errorf("expected 1 holding, got %d", len(p.Investments))
	}

	w = api.do(t, http.MethodGet, "/users/"+api.userID.String()+"/portfolio/distribution", nil)
	var d models.PortfolioDistribution
	decode(t, w, &d)
	if d.ByRisk["low"].Count != 1 {
		t.Errorf("unexpected risk distribution: %+v", d.ByRisk)
	}

	w = api.do(t, http.MethodGet, "/users/"+uuid.NewString()+"/portfolio/summary", nil)
	var empty models.PortfolioSummary
	decode(t, w, &empty)
	if empty.TotalInvestments != 0 || empty.CurrentValue.Value != "0.00" {
		t.Errorf("expected zeroed summary, got %+v", empty)
	}
}

func TestGetProjection(t *testing.T) {
	api := newTestAPI(t, "0.00", nil)
	base := "/products/" + api.productID.String() + "/projection"

	tests := []struct {
		name         string
		query        string
		expectedCode int
		finalAmount  string
	}{
		{"product tenure", "?amount=10000", http.StatusOK, "12544.00"},
		{"custom tenure", "?amount=1000&customTenure=12", http.StatusOK, "1120.00"},
		{"missing amount", "", http.StatusBadRequest, ""},
		{"below minimum", "?amount=10", http.StatusConflict, ""},
		{"zero tenure", "?amount=1000&customTenure=0", http.StatusBadRequest, ""},
		{"tenure above ceiling", "?amount=1000&customTenure=80000", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodGet, base+tt.query, nil)
			if w.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
			if tt.finalAmount == "" {
				return
			}
			var p models.Projection
			decode(t, w, &p)
			if p.FinalAmount.Value != tt.finalAmount {
				t.Errorf("expected final amount %s, got %s", tt.finalAmount, p.FinalAmount.Value)
			}
		})
	}
}

func TestGetUserActivity(t *testing.T) {
	inv := domain.NewInvestment(uuid.New(), uuid.New(), decimal.NewFromInt(2500), decimal.Zero, time.Now())
	reader := &mockActivity{events: []*domain.InvestmentEvent{
		domain.NewInvestmentEvent(domain.EventInvestmentCreated, inv),
	}}
	api := newTestAPI(t, "0.00", reader)
	path := "/users/" + inv.UserID.String() + "/activity"

	w := api.do(t, http.MethodGet, path+"?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var resp models.GetUserActivityResponse
	decode(t, w, &resp)
	if len(resp.Content) != 1 || resp.Content[0].EventType != "investment.created" || resp.Content[0].Amount.Display != "$2,500.00" {
		t.Errorf("unexpected activity: %+v", resp.Content)
	}
	if reader.limit != 5 {
		t.Errorf("expected limit 5, got %d", reader.limit)
	}

	corrupt := domain.NewInvestmentEvent(domain.EventInvestmentCreated, inv)
	corrupt.Amount = "not-a-number"
	reader.events = append(reader.events, corrupt)
	if w := api.do(t, http.MethodGet, path, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d for a corrupt amount, got %d", http.StatusServiceUnavailable, w.Code)
	}

	reader.err = errors.New("clickhouse down")
	if w := api.do(t, http.MethodGet, path, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	disabled := newTestAPI(t, "0.00", nil)
	if w := disabled.do(t, http.MethodGet, path, nil); w.Code != http.StatusNotImplemented {
		t.Errorf("expected status %d, got %d", http.StatusNotImplemented, w.Code)
	}
}
