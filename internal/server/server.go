// Package server routes REST requests to a ServerInterface implementation.
// Path and query parameters are bound and type-checked here, so handlers receive typed values.
package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/mini-invest/investment-service/internal/models"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Open an investment
	// (POST /users/{userId}/investments)
	CreateInvestment(w http.ResponseWriter, r *http.Request, userId models.UserIdParam)
	// List investments
	// (GET /users/{userId}/investments)
	ListInvestments(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, params models.ListInvestmentsParams)
	// Get an investment
	// (GET /users/{userId}/investments/{investmentId})
	GetInvestment(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, investmentId models.InvestmentIdParam)
	// Update notes or auto-reinvest
	// (PATCH /users/{userId}/investments/{investmentId})
	UpdateInvestment(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, investmentId models.InvestmentIdParam)
	// Cancel an investment and refund its principal
	// (POST /users/{userId}/investments/{investmentId}/cancel)
	CancelInvestment(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, investmentId models.InvestmentIdParam)
	// Portfolio summary, distribution and holdings
	// (GET /users/{userId}/portfolio)
	GetPortfolio(w http.ResponseWriter, r *http.Request, userId models.UserIdParam)
	// (GET /users/{userId}/portfolio/summary)
	GetPortfolioSummary(w http.ResponseWriter, r *http.Request, userId models.UserIdParam)
	// (GET /users/{userId}/portfolio/distribution)
	GetPortfolioDistribution(w http.ResponseWriter, r *http.Request, userId models.UserIdParam)
	// Lifecycle event history
	// (GET /users/{userId}/activity)
	GetUserActivity(w http.ResponseWriter, r *http.Request, userId models.UserIdParam, params models.GetUserActivityParams)
	// Preview the growth of an amount in a product
	// (GET /products/{productId}/projection)
	GetProjection(w http.ResponseWriter, r *http.Request, productId models.ProductIdParam, params models.GetProjectionParams)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError is returned when a parameter doesn't bind to its type.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// RequiredParamError is returned when a required query parameter is missing.
type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("Query argument %s is required, but not found", e.ParamName)
}

func (siw *ServerInterfaceWrapper) pathUUID(w http.ResponseWriter, r *http.Request, name string, dest *openapi_types.UUID) bool {
	err := runtime.BindStyledParameterWithLocation("simple", false, name, runtime.ParamLocationPath, chi.URLParam(r, name), dest)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

func (siw *ServerInterfaceWrapper) query(w http.ResponseWriter, r *http.Request, name string, required bool, dest interface{}) bool {
	err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest)
	if err != nil {
		if required && !r.URL.Query().Has(name) {
			siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: name})
			return false
		}
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

// CreateInvestment operation middleware
func (siw *ServerInterfaceWrapper) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	var userId models.UserIdParam
	if !siw.pathUUID(w, r, "userId", &userId) {
		return
	}
	siw.Handler.CreateInvestment(w, r, userId)
}

// ListInvestments operation middleware
func (siw *ServerInterfaceWrapper) ListInvestments(w http.ResponseWriter, r *http.Request) {
	var userId models.UserIdParam
	if !siw.pathUUID(w, r, "userId", &userId) {
		return
	}

	var params models.ListInvestmentsParams
	if !siw.query(w, r, "status", false, &params.Status) ||
		!siw.query(w, r, "productId", false, &params.ProductId) ||
		!siw.query(w, r, "createdAfter", false, &params.CreatedAfter) ||
		!siw.query(w, r, "createdBefore", false, &params.CreatedBefore) ||
		!siw.query(w, r, "limit", false, &params.Limit) ||
		!siw.query(w, r, "offset", false, &params.Offset) {
		return
	}

	siw.Handler.ListInvestments(w, r, userId, params)
}

// GetInvestment operation middleware
func (siw *ServerInterfaceWrapper) GetInvestment(w http.ResponseWriter, r *http.Request) {
	var userId models.UserIdParam
	var investmentId models.InvestmentIdParam
	if !siw.pathUUID(w, r, "userId", &userId) || !siw.pathUUID(w, r, "investmentId", &investmentId) {
		return
	}
	siw.Handler.GetInvestment(w, r, userId, investmentId)
}

// UpdateInvestment operation middleware
func (siw *ServerInterfaceWrapper) UpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var userId models.UserIdParam
	var investmentId models.InvestmentIdParam
	if !siw.pathUUID(w, r, "userId", &userId) || !siw.pathUUID(w, r, "investmentId", &investmentId) {
		return
	}
	siw.Handler.UpdateInvestment(w, r, userId, investmentId)
}

// CancelInvestment operation middleware
func (siw *ServerInterfaceWrapper) CancelInvestment(w http.ResponseWriter, r *http.Request) {
	var userId models.UserIdParam
	var investmentId models.InvestmentIdParam
	if !siw.pathUUID(w, r, "userId", &userId) || !siw.pathUUID(w, r, "investmentId", &investmentId) {
		return
	}
	siw.Handler.CancelInvestment(w, r, userId, investmentId)
}

// GetPortfolio operation middleware
func (siw *ServerInterfaceWrapper) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	var userId models.UserIdParam
	if !siw.pathUUID(w, r, "userId", &userId) {
		return
	}
	siw.Handler.GetPortfolio(w, r, userId)
}

// GetPortfolioSummary operation middleware
func (siw *ServerInterfaceWrapper) GetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	var userId models.UserIdParam
	if !siw.pathUUID(w, r, "userId", &userId) {
		return
	}
	siw.Handler.GetPortfolioSummary(w, r, userId)
}

// GetPortfolioDistribution operation middleware
func (siw *ServerInterfaceWrapper) GetPortfolioDistribution(w http.ResponseWriter, r *http.Request) {
	var userId models.UserIdParam
	if !siw.pathUUID(w, r, "userId", &userId) {
		return
	}
	siw.Handler.GetPortfolioDistribution(w, r, userId)
}

// GetUserActivity operation middleware
func (siw *ServerInterfaceWrapper) GetUserActivity(w http.ResponseWriter, r *http.Request) {
	var userId models.UserIdParam
	if !siw.pathUUID(w, r, "userId", &userId) {
		return
	}

	var params models.GetUserActivityParams
	if !siw.query(w, r, "limit", false, &params.Limit) {
		return
	}

	siw.Handler.GetUserActivity(w, r, userId, params)
}

// GetProjection operation middleware
func (siw *ServerInterfaceWrapper) GetProjection(w http.ResponseWriter, r *http.Request) {
	var productId models.ProductIdParam
	if !siw.pathUUID(w, r, "productId", &productId) {
		return
	}

	var params models.GetProjectionParams
	if !siw.query(w, r, "amount", true, &params.Amount) ||
		!siw.query(w, r, "customTenure", false, &params.CustomTenure) {
		return
	}

	siw.Handler.GetProjection(w, r, productId, params)
}

// ChiServerOptions configures the router built by HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the REST API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:          si,
		ErrorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Use(options.Middlewares...)

		r.Post(options.BaseURL+"/users/{userId}/investments", wrapper.CreateInvestment)
		r.Get(options.BaseURL+"/users/{userId}/investments", wrapper.ListInvestments)
		r.Get(options.BaseURL+"/users/{userId}/investments/{investmentId}", wrapper.GetInvestment)
		r.Patch(options.BaseURL+"/users/{userId}/investments/{investmentId}", wrapper.UpdateInvestment)
		r.Post(options.BaseURL+"/users/{userId}/investments/{investmentId}/cancel", wrapper.CancelInvestment)
		r.Get(options.BaseURL+"/users/{userId}/portfolio", wrapper.GetPortfolio)
		r.Get(options.BaseURL+"/users/{userId}/portfolio/summary", wrapper.GetPortfolioSummary)
		r.Get(options.BaseURL+"/users/{userId}/portfolio/distribution", wrapper.GetPortfolioDistribution)
		r.Get(options.BaseURL+"/users/{userId}/activity", wrapper.GetUserActivity)
		r.Get(options.BaseURL+"/products/{productId}/projection", wrapper.GetProjection)
	})

	return r
}
