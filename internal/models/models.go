// Package models holds the JSON shapes of the REST API.
package models

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// UserIdParam defines model for UserIdParam.
type UserIdParam = openapi_types.UUID

// InvestmentIdParam defines model for InvestmentIdParam.
type InvestmentIdParam = openapi_types.UUID

// ProductIdParam defines model for ProductIdParam.
type ProductIdParam = openapi_types.UUID

// Amount is a money value. Value is a decimal string with 2 decimal places; Display is the
// same value formatted for the service currency, e.g. "$10,000.00".
type Amount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currencyCode"`
	Display      string `json:"display"`
}

// BaseError defines model for BaseError.
type BaseError struct {
	Code        string             `json:"code"`
	Description *string            `json:"description,omitempty"`
	Id          openapi_types.UUID `json:"id"`
}

// CreateInvestmentRequest defines model for CreateInvestmentRequest.
type CreateInvestmentRequest struct {
	ProductId    openapi_types.UUID `json:"productId"`
	Amount       string             `json:"amount"`
	CustomTenure *int               `json:"customTenure,omitempty"`
	Notes        *string            `json:"notes,omitempty"`
	AutoReinvest *bool              `json:"autoReinvest,omitempty"`
}

// UpdateInvestmentRequest defines model for UpdateInvestmentRequest. Absent fields are left unchanged.
type UpdateInvestmentRequest struct {
	Notes        *string `json:"notes,omitempty"`
	AutoReinvest *bool   `json:"autoReinvest,omitempty"`
}

// Investment defines model for Investment.
type Investment struct {
	Id             openapi_types.UUID `json:"id"`
	UserId         openapi_types.UUID `json:"userId"`
	ProductId      openapi_types.UUID `json:"productId"`
	Amount         Amount             `json:"amount"`
	Status         string             `json:"status"`
	ExpectedReturn Amount             `json:"expectedReturn"`
	CurrentValue   Amount             `json:"currentValue"`
	MaturityDate   time.Time          `json:"maturityDate"`
	Notes          string             `json:"notes"`
	AutoReinvest   bool               `json:"autoReinvest"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ProjectionPoint defines model for ProjectionPoint.
type ProjectionPoint struct {
	Month            int    `json:"month"`
	Value            string `json:"value"`
	Returns          string `json:"returns"`
	ReturnPercentage string `json:"returnPercentage"`
}

// Projection defines model for Projection.
type Projection struct {
	ProductId        openapi_types.UUID `json:"productId"`
	Principal        Amount             `json:"principal"`
	AnnualYield      string             `json:"annualYield"`
	TenureMonths     int                `json:"tenureMonths"`
	FinalAmount      Amount             `json:"finalAmount"`
	TotalReturns     Amount             `json:"totalReturns"`
	ReturnPercentage string             `json:"returnPercentage"`
	Monthly          []ProjectionPoint  `json:"monthly"`
}

// CreateInvestmentResponse defines model for CreateInvestmentResponse.
type CreateInvestmentResponse struct {
	Investment Investment `json:"investment"`
	Projection Projection `json:"projection"`
	Balance    Amount     `json:"balance"`
}

// CancelInvestmentResponse defines model for CancelInvestmentResponse.
type CancelInvestmentResponse struct {
	Investment Investment `json:"investment"`
	Refunded   Amount     `json:"refunded"`
	Balance    Amount     `json:"balance"`
}

// ListInvestmentsResponse defines model for ListInvestmentsResponse.
type ListInvestmentsResponse struct {
	Content []Investment `json:"content"`
	Total   int          `json:"total"`
}

// PortfolioSummary defines model for PortfolioSummary.
type PortfolioSummary struct {
	TotalInvestments int    `json:"totalInvestments"`
	TotalInvested    Amount `json:"totalInvested"`
	CurrentValue     Amount `json:"currentValue"`
	TotalReturns     Amount `json:"totalReturns"`
}

// DistributionBucket defines model for DistributionBucket.
type DistributionBucket struct {
	Count  int    `json:"count"`
	Amount Amount `json:"amount"`
}

// PortfolioDistribution defines model for PortfolioDistribution.
type PortfolioDistribution struct {
	ByType map[string]DistributionBucket `json:"byType"`
	ByRisk map[string]DistributionBucket `json:"byRisk"`
}

// Portfolio defines model for Portfolio.
type Portfolio struct {
	Summary      PortfolioSummary      `json:"summary"`
	Distribution PortfolioDistribution `json:"distribution"`
	Investments  []Investment          `json:"investments"`
}

// ActivityEntry defines model for ActivityEntry.
type ActivityEntry struct {
	EventId      openapi_types.UUID `json:"eventId"`
	EventType    string             `json:"eventType"`
	InvestmentId openapi_types.UUID `json:"investmentId"`
	ProductId    openapi_types.UUID `json:"productId"`
	Amount       Amount             `json:"amount"`
	Status       string             `json:"status"`
	Timestamp    time.Time          `json:"timestamp"`
}

// GetUserActivityResponse defines model for GetUserActivityResponse.
type GetUserActivityResponse struct {
	Content []ActivityEntry `json:"content"`
}

// ListInvestmentsParams defines parameters for ListInvestments.
type ListInvestmentsParams struct {
	Status        *string             `form:"status,omitempty" json:"status,omitempty"`
	ProductId     *openapi_types.UUID `form:"productId,omitempty" json:"productId,omitempty"`
	CreatedAfter  *time.Time          `form:"createdAfter,omitempty" json:"createdAfter,omitempty"`
	CreatedBefore *time.Time          `form:"createdBefore,omitempty" json:"createdBefore,omitempty"`
	Limit         *int                `form:"limit,omitempty" json:"limit,omitempty"`
	Offset        *int                `form:"offset,omitempty" json:"offset,omitempty"`
}

// GetProjectionParams defines parameters for GetProjection.
type GetProjectionParams struct {
	Amount       string `form:"amount" json:"amount"`
	CustomTenure *int   `form:"customTenure,omitempty" json:"customTenure,omitempty"`
}

// GetUserActivityParams defines parameters for GetUserActivity.
type GetUserActivityParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}
