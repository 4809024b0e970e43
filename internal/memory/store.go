// Package memory provides in-memory adapters for the ledger, the investment store, the
// product catalog and the user directory. It has no multi-statement transactions, so the
// services fall back to compensating actions when running against it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mini-invest/investment-service/internal/domain"
)

// Store keeps users, products and investments in maps guarded by one mutex.
// Every balance mutation is a check-and-set under the write lock.
type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]domain.User
	products    map[uuid.UUID]domain.Product
	investments map[uuid.UUID]domain.Investment
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:       make(map[uuid.UUID]domain.User),
		products:    make(map[uuid.UUID]domain.Product),
		investments: make(map[uuid.UUID]domain.Investment),
	}
}

// PutUser inserts or replaces a user account.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutProduct inserts or replaces a catalog product.
func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

/* ---- Ledger ---- */

func (s *Store) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return decimal.Zero, domain.ErrUserNotFound
	}
	if u.AccountBalance.LessThan(amount) {
		return u.AccountBalance, domain.ErrInsufficientBalance
	}
	u.AccountBalance = u.AccountBalance.Sub(amount)
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return u.AccountBalance, nil
}

func (s *Store) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return decimal.Zero, domain.ErrUserNotFound
	}
	u.AccountBalance = u.AccountBalance.Add(amount)
	u.UpdatedAt = time.Now().UTC()
	s.users[userID] = u
	return u.AccountBalance, nil
}

/* ---- User directory & product catalog ---- */

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (s *Store) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

/* ---- Investment store ---- */

func (s *Store) Create(ctx context.Context, inv *domain.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[inv.ProductID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if !p.IsActive {
		return domain.ErrProductInactive
	}
	if !p.AllowsAmount(inv.Amount) {
		return domain.ErrAmountOutOfBounds
	}
	if _, exists := s.investments[inv.ID]; exists {
		return fmt.Errorf("%w: investment %s already exists", domain.ErrConcurrencyConflict, inv.ID)
	}
	inv.Status = domain.StatusActive
	s.investments[inv.ID] = *inv
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.investments[id]
	if !ok {
		return nil, domain.ErrInvestmentNotFound
	}
	return &inv, nil
}

func (s *Store) FindByUser(ctx context.Context, userID uuid.UUID, filter domain.InvestmentFilter, page domain.Page) (*domain.InvestmentList, error) {
	page, err := page.Normalize()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	matches := make([]*domain.Investment, 0)
	for _, inv := range s.investments {
		if inv.UserID != userID || !matchesFilter(&inv, filter) {
			continue
		}
		inv := inv
		matches = append(matches, &inv)
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID.String() > matches[j].ID.String()
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)
	return &domain.InvestmentList{Items: matches[start:end], Total: total}, nil
}

func matchesFilter(inv *domain.Investment, f domain.InvestmentFilter) bool {
	if f.Status != nil && inv.Status != *f.Status {
		return false
	}
	if f.ProductID != nil && inv.ProductID != *f.ProductID {
		return false
	}
	if f.CreatedAfter != nil && inv.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && !inv.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, expectedFrom, to domain.Status) (*domain.Investment, error) {
	if err := expectedFrom.ValidateTransition(to); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return nil, domain.ErrInvestmentNotFound
	}
	if inv.Status != expectedFrom {
		return nil, fmt.Errorf("%w: expected %s, found %s", domain.ErrStatusChanged, expectedFrom, inv.Status)
	}
	inv.Status = to
	inv.UpdatedAt = time.Now().UTC()
	s.investments[id] = inv
	return &inv, nil
}

func (s *Store) UpdateMutableFields(ctx context.Context, id uuid.UUID, patch domain.InvestmentPatch) (*domain.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return nil, domain.ErrInvestmentNotFound
	}
	if inv.Status != domain.StatusActive {
		return nil, domain.ErrInvestmentNotActive
	}
	if patch.Notes != nil {
		inv.Notes = *patch.Notes
	}
	if patch.AutoReinvest != nil {
		inv.AutoReinvest = *patch.AutoReinvest
	}
	inv.UpdatedAt = time.Now().UTC()
	s.investments[id] = inv
	return &inv, nil
}

func (s *Store) FindDue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	due := make([]*domain.Investment, 0)
	for _, inv := range s.investments {
		if inv.Status == domain.StatusActive && !inv.MaturityDate.After(asOf) {
			inv := inv
			due = append(due, &inv)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].MaturityDate.Before(due[j].MaturityDate) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}
