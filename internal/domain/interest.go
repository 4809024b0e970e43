package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// CompoundFrequency is how often interest is compounded.
type CompoundFrequency string

const (
	CompoundDaily     CompoundFrequency = "daily"
	CompoundMonthly   CompoundFrequency = "monthly"
	CompoundQuarterly CompoundFrequency = "quarterly"
	CompoundAnnually  CompoundFrequency = "annually"
)

// PeriodsPerYear returns the compounding count per year. Unknown values compound annually.
func (f CompoundFrequency) PeriodsPerYear() int {
	switch f {
	case CompoundDaily:
		return 365
	case CompoundMonthly:
		return 12
	case CompoundQuarterly:
		return 4
	default:
		return 1
	}
}

// ProjectionInput holds the parameters of a compound-interest projection.
type ProjectionInput struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TenureMonths      int
	Frequency         CompoundFrequency
}

// ProjectionPoint is the value of the position at the end of a given month.
type ProjectionPoint struct {
	Month            int
	Value            decimal.Decimal
	Returns          decimal.Decimal
	ReturnPercentage decimal.Decimal
}

// Projection is the outcome of a compound-interest calculation.
// All amounts are rounded to 2 decimal places.
type Projection struct {
	FinalAmount      decimal.Decimal
	TotalReturns     decimal.Decimal
	ReturnPercentage decimal.Decimal
	Monthly          []ProjectionPoint
}

// MaxTenureMonths caps tenures (50 years). It also bounds the size of the monthly series.
const MaxTenureMonths = 600

var hundred = decimal.NewFromInt(100)

// ValidateTenure checks that months lies in [1, MaxTenureMonths].
func ValidateTenure(months int) error {
	if months <= 0 || months > MaxTenureMonths {
		return ErrInvalidTenure
	}
	return nil
}

// Project computes principal × (1 + r/n)^(n·t) for the whole tenure and for every month of it.
//
// The growth factor is evaluated in float64 (the exponent n·t is fractional for most
// frequency/month combinations) and applied to the exact decimal principal. Rounding to
// cents happens only when a value is emitted, never between steps.
func Project(in ProjectionInput) (*Projection, error) {
	if !in.Principal.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.AnnualRatePercent.IsNegative() {
		return nil, ErrInvalidRate
	}
	if err := ValidateTenure(in.TenureMonths); err != nil {
		return nil, err
	}

	rate := in.AnnualRatePercent.Div(hundred).InexactFloat64()
	n := float64(in.Frequency.PeriodsPerYear())

	valueAt := func(month int) (decimal.Decimal, error) {
		t := float64(month) / 12
		factor := math.Pow(1+rate/n, n*t)
		if math.IsInf(factor, 0) || math.IsNaN(factor) {
			return decimal.Zero, ErrProjectionOverflow
		}
		return in.Principal.Mul(decimal.NewFromFloat(factor)), nil
	}

	monthly := make([]ProjectionPoint, 0, in.TenureMonths)
	for month := 1; month <= in.TenureMonths; month++ {
		v, err := valueAt(month)
		if err != nil {
			return nil, err
		}
		monthly = append(monthly, newProjectionPoint(month, in.Principal, v))
	}

	final := monthly[len(monthly)-1]
	return &Projection{
		FinalAmount:      final.Value,
		TotalReturns:     final.Returns,
		ReturnPercentage: final.ReturnPercentage,
		Monthly:          monthly,
	}, nil
}

func newProjectionPoint(month int, principal, value decimal.Decimal) ProjectionPoint {
	returns := value.Sub(principal)
	return ProjectionPoint{
		Month:            month,
		Value:            value.Round(2),
		Returns:          returns.Round(2),
		ReturnPercentage: returns.Div(principal).Mul(hundred).Round(2),
	}
}
