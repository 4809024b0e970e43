package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the services wraps exactly one of these,
// so callers can branch with errors.Is(err, domain.ErrState) and friends.
var (
	// ErrValidation is returned for malformed ids, amounts or request shapes.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when a product, user or investment doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrState is returned when an operation is illegal in the current state.
	ErrState = errors.New("invalid state")

	// ErrInsufficientBalance is returned when a debit would drive a balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConcurrencyConflict is returned when an optimistic check was lost; callers may retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrPersistence is returned when storage is unavailable.
	ErrPersistence = errors.New("persistence error")
)

var (
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be positive with at most 2 decimal places", ErrValidation)
	ErrInvalidID          = fmt.Errorf("%w: id is required", ErrValidation)
	ErrInvalidTenure      = fmt.Errorf("%w: tenure must be between 1 and %d months", ErrValidation, MaxTenureMonths)
	ErrInvalidRate        = fmt.Errorf("%w: annual rate cannot be negative", ErrValidation)
	ErrInvalidPagination  = fmt.Errorf("%w: limit and offset cannot be negative", ErrValidation)
	ErrProjectionOverflow = fmt.Errorf("%w: projected value is out of range", ErrValidation)

	ErrProductNotFound    = fmt.Errorf("product %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrInvestmentNotFound = fmt.Errorf("investment %w", ErrNotFound)
	ErrUserInactive       = fmt.Errorf("%w: user is inactive", ErrNotFound)

	ErrProductInactive     = fmt.Errorf("%w: product is inactive", ErrState)
	ErrAmountOutOfBounds   = fmt.Errorf("%w: amount is outside the product bounds", ErrState)
	ErrInvalidTransition   = fmt.Errorf("%w: status transition is not allowed", ErrState)
	ErrInvestmentNotActive = fmt.Errorf("%w: investment is not active", ErrState)

	ErrStatusChanged = fmt.Errorf("%w: investment status changed concurrently", ErrConcurrencyConflict)
)

// PersistenceError wraps a storage failure as ErrPersistence while keeping the cause
// reachable through errors.Is/As. Errors that already carry a category pass through.
func PersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClassified(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// IsClassified reports whether err already wraps one of the error categories.
func IsClassified(err error) bool {
	for _, kind := range []error{
		ErrValidation,
		ErrNotFound,
		ErrState,
		ErrInsufficientBalance,
		ErrConcurrencyConflict,
		ErrPersistence,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
