package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is the slice of a user account this service consumes from the user directory.
type User struct {
	ID             uuid.UUID       // Unique identifier of the user
	AccountBalance decimal.Decimal // Spendable balance held by the ledger
	IsActive       bool            // Inactive users cannot open investments
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Product is an investment product from the catalog.
// MaxInvestment is nil when the product has no upper bound.
type Product struct {
	ID                uuid.UUID
	Name              string
	Type              string
	MinInvestment     decimal.Decimal
	MaxInvestment     *decimal.Decimal
	AnnualYield       decimal.Decimal // Percent, e.g. 12 for 12%
	TenureMonths      int
	CompoundFrequency CompoundFrequency
	RiskLevel         RiskLevel
	IsActive          bool
}

// AllowsAmount reports whether amount lies within the product bounds.
func (p *Product) AllowsAmount(amount decimal.Decimal) bool {
	if amount.LessThan(p.MinInvestment) {
		return false
	}
	if p.MaxInvestment != nil && amount.GreaterThan(*p.MaxInvestment) {
		return false
	}
	return true
}

// Investment is a held position in a product. Amount is the principal and never changes.
type Investment struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ProductID      uuid.UUID
	Amount         decimal.Decimal
	Status         Status
	ExpectedReturn decimal.Decimal // Interest expected over the tenure, excluding the principal
	CurrentValue   decimal.Decimal
	MaturityDate   time.Time
	Notes          string
	AutoReinvest   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewInvestment creates an active Investment whose current value equals its principal.
func NewInvestment(userID, productID uuid.UUID, amount, expectedReturn decimal.Decimal, maturity time.Time) *Investment {
	now := time.Now().UTC()
	return &Investment{
		ID:             uuid.New(),
		UserID:         userID,
		ProductID:      productID,
		Amount:         amount,
		Status:         StatusActive,
		ExpectedReturn: expectedReturn,
		CurrentValue:   amount,
		MaturityDate:   maturity,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// MaturityFrom returns the date tenureMonths after start.
func MaturityFrom(start time.Time, tenureMonths int) time.Time {
	return start.AddDate(0, tenureMonths, 0)
}

// InvestmentPatch carries the fields a caller may change on an active investment.
// Nil fields are left untouched.
type InvestmentPatch struct {
	Notes        *string
	AutoReinvest *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p InvestmentPatch) IsEmpty() bool {
	return p.Notes == nil && p.AutoReinvest == nil
}

// InvestmentFilter narrows FindByUser. Zero values mean "no constraint".
type InvestmentFilter struct {
	Status        *Status
	ProductID     *uuid.UUID
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// Page is a limit/offset window. A zero Limit means DefaultPageLimit.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Normalize validates the page and applies the default and maximum limit.
func (p Page) Normalize() (Page, error) {
	if p.Limit < 0 || p.Offset < 0 {
		return p, ErrInvalidPagination
	}
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p, nil
}

// InvestmentList is one page of investments plus the total number of matches.
type InvestmentList struct {
	Items []*Investment
	Total int
}

// RiskLevel is the product risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)
