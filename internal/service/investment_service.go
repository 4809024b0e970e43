package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"github.com/mini-invest/investment-service/internal/domain"
)

// CreateInvestmentRequest describes a new position. CustomTenure overrides the product
// tenure when set.
type CreateInvestmentRequest struct {
	UserID       uuid.UUID
	ProductID    uuid.UUID
	Amount       decimal.Decimal
	CustomTenure *int
	Notes        string
	AutoReinvest bool
}

// CreateInvestmentResult is the created investment with the projection it was priced from.
type CreateInvestmentResult struct {
	Investment *domain.Investment
	Product    *domain.Product
	Projection *domain.Projection
	Balance    decimal.Decimal // Spendable balance after the debit
}

// CancelInvestmentResult is the cancelled investment and the refunded balance.
type CancelInvestmentResult struct {
	Investment *domain.Investment
	Refunded   decimal.Decimal
	Balance    decimal.Decimal
}

// InvestmentService handles the investment lifecycle.
// It coordinates the ledger and the investment store so that a balance change and the
// matching record change either both happen or neither does.
type InvestmentService struct {
	ledger      domain.Ledger
	investments domain.InvestmentStore
	catalog     domain.ProductCatalog
	users       domain.UserDirectory
	txManager   domain.TransactionManager
	// Optional event publisher to emit lifecycle events
	eventPublisher domain.EventPublisher

	tracer trace.Tracer
	now    func() time.Time
}

// NewInvestmentService creates a new instance of InvestmentService.
// Pass nil for txManager when the storage has no multi-statement transactions; create and
// cancel then fall back to compensating ledger operations.
// Pass nil for eventPublisher if no events should be emitted.
func NewInvestmentService(
	ledger domain.Ledger,
	investments domain.InvestmentStore,
	catalog domain.ProductCatalog,
	users domain.UserDirectory,
	txManager domain.TransactionManager,
	eventPublisher domain.EventPublisher,
	opts ...Option,
) *InvestmentService {
	s := applyOptions(opts)
	return &InvestmentService{
		ledger:         ledger,
		investments:    investments,
		catalog:        catalog,
		users:          users,
		txManager:      txManager,
		eventPublisher: eventPublisher,
		tracer:         s.tracer,
		now:            s.now,
	}
}

// CreateInvestment opens a position in a product and debits its principal.
//
// Checks run in order: request shape, product exists and is active, amount within the
// product bounds, user exists and is active, balance covers the amount. The debit and
// the insert then run as one unit: inside a transaction when a TransactionManager is
// configured, otherwise debit first and credit back if the insert fails.
func (s *InvestmentService) CreateInvestment(ctx context.Context, req CreateInvestmentRequest) (result *CreateInvestmentResult, err error) {
	ctx, span := s.tracer.Start(ctx, "InvestmentService.CreateInvestment",
		trace.WithAttributes(idAttr("user.id", req.UserID), idAttr("product.id", req.ProductID)))
	defer func() { finishSpan(span, err) }()

	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	product, err := s.activeProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.AllowsAmount(req.Amount) {
		return nil, domain.ErrAmountOutOfBounds
	}

	user, err := s.users.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, domain.PersistenceError("load user", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	if user.AccountBalance.LessThan(req.Amount) {
		return nil, domain.ErrInsufficientBalance
	}

	tenure := product.TenureMonths
	if req.CustomTenure != nil {
		tenure = *req.CustomTenure
	}
	projection, err := domain.Project(domain.ProjectionInput{
		Principal:         req.Amount,
		AnnualRatePercent: product.AnnualYield,
		TenureMonths:      tenure,
		Frequency:         product.CompoundFrequency,
	})
	if err != nil {
		return nil, err
	}

	start := s.now()
	inv := domain.NewInvestment(req.UserID, req.ProductID, req.Amount, projection.TotalReturns,
		domain.MaturityFrom(start, tenure))
	inv.Notes = req.Notes
	inv.AutoReinvest = req.AutoReinvest
	inv.CreatedAt = start
	inv.UpdatedAt = start

	var balance decimal.Decimal
	if s.txManager != nil {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			b, err := s.ledger.Debit(txCtx, inv.UserID, inv.Amount)
			if err != nil {
				return fmt.Errorf("failed to debit balance: %w", err)
			}
			if err := s.investments.Create(txCtx, inv); err != nil {
				return fmt.Errorf("failed to create investment: %w", err)
			}
			balance = b
			return nil
		})
	} else {
		balance, err = s.debitThenCreate(ctx, inv)
	}
	if err != nil {
		return nil, domain.PersistenceError("create investment", err)
	}

	span.SetAttributes(idAttr("investment.id", inv.ID))
	s.publish(domain.EventInvestmentCreated, inv)

	return &CreateInvestmentResult{
		Investment: inv,
		Product:    product,
		Projection: projection,
		Balance:    balance,
	}, nil
}

// debitThenCreate is the compensating variant of the create unit.
func (s *InvestmentService) debitThenCreate(ctx context.Context, inv *domain.Investment) (decimal.Decimal, error) {
	balance, err := s.ledger.Debit(ctx, inv.UserID, inv.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to debit balance: %w", err)
	}

	if err := s.investments.Create(ctx, inv); err != nil {
		if _, creditErr := s.ledger.Credit(ctx, inv.UserID, inv.Amount); creditErr != nil {
			log.Printf("CRITICAL: failed to restore %s to user %s after failed create: %v",
				inv.Amount.StringFixed(2), inv.UserID, creditErr)
			return decimal.Zero, fmt.Errorf("failed to create investment: %w (compensating credit failed: %w)", err, creditErr)
		}
		log.Printf("restored %s to user %s after failed create: %v", inv.Amount.StringFixed(2), inv.UserID, err)
		return decimal.Zero, fmt.Errorf("failed to create investment: %w", err)
	}
	return balance, nil
}

// CancelInvestment moves an active investment to cancelled and refunds its full principal.
func (s *InvestmentService) CancelInvestment(ctx context.Context, userID, investmentID uuid.UUID) (result *CancelInvestmentResult, err error) {
	ctx, span := s.tracer.Start(ctx, "InvestmentService.CancelInvestment",
		trace.WithAttributes(idAttr("user.id", userID), idAttr("investment.id", investmentID)))
	defer func() { finishSpan(span, err) }()

	inv, err := s.ownedInvestment(ctx, userID, investmentID)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.StatusActive {
		return nil, fmt.Errorf("%w: investment is %s", domain.ErrInvestmentNotActive, inv.Status)
	}

	var (
		cancelled *domain.Investment
		balance   decimal.Decimal
	)
	if s.txManager != nil {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			c, err := s.investments.UpdateStatus(txCtx, inv.ID, domain.StatusActive, domain.StatusCancelled)
			if err != nil {
				return fmt.Errorf("failed to cancel investment: %w", err)
			}
			b, err := s.ledger.Credit(txCtx, c.UserID, c.Amount)
			if err != nil {
				return fmt.Errorf("failed to refund principal: %w", err)
			}
			cancelled, balance = c, b
			return nil
		})
	} else {
		cancelled, balance, err = s.cancelThenCredit(ctx, inv)
	}
	if err != nil {
		return nil, domain.PersistenceError("cancel investment", err)
	}

	s.publish(domain.EventInvestmentCancelled, cancelled)

	return &CancelInvestmentResult{
		Investment: cancelled,
		Refunded:   cancelled.Amount,
		Balance:    balance,
	}, nil
}

// cancelThenCredit is the cancel unit without a transaction. The status transition goes
// first: the store's expectedFrom check picks one winner among concurrent cancels and only
// the winner refunds, so the principal is never spendable twice. A terminal status can't be
// rolled back, so a failed refund is reported and left for reconciliation.
func (s *InvestmentService) cancelThenCredit(ctx context.Context, inv *domain.Investment) (*domain.Investment, decimal.Decimal, error) {
	cancelled, err := s.investments.UpdateStatus(ctx, inv.ID, domain.StatusActive, domain.StatusCancelled)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to cancel investment: %w", err)
	}

	balance, err := s.ledger.Credit(ctx, cancelled.UserID, cancelled.Amount)
	if err != nil {
		log.Printf("CRITICAL: investment %s cancelled but refund of %s to user %s failed: %v",
			cancelled.ID, cancelled.Amount.StringFixed(2), cancelled.UserID, err)
		return nil, decimal.Zero, fmt.Errorf("failed to refund principal: %w", err)
	}
	return cancelled, balance, nil
}

// UpdateInvestment changes the notes and/or auto-reinvest flag of an active investment.
func (s *InvestmentService) UpdateInvestment(ctx context.Context, userID, investmentID uuid.UUID, patch domain.InvestmentPatch) (updated *domain.Investment, err error) {
	ctx, span := s.tracer.Start(ctx, "InvestmentService.UpdateInvestment",
		trace.WithAttributes(idAttr("user.id", userID), idAttr("investment.id", investmentID)))
	defer func() { finishSpan(span, err) }()

	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	inv, err := s.ownedInvestment(ctx, userID, investmentID)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.StatusActive {
		return nil, fmt.Errorf("%w: investment is %s", domain.ErrInvestmentNotActive, inv.Status)
	}

	updated, err = s.investments.UpdateMutableFields(ctx, investmentID, patch)
	if err != nil {
		return nil, domain.PersistenceError("update investment", err)
	}
	return updated, nil
}

// GetInvestment returns one of the user's investments. Investments owned by someone else
// are reported as not found.
func (s *InvestmentService) GetInvestment(ctx context.Context, userID, investmentID uuid.UUID) (inv *domain.Investment, err error) {
	ctx, span := s.tracer.Start(ctx, "InvestmentService.GetInvestment",
		trace.WithAttributes(idAttr("user.id", userID), idAttr("investment.id", investmentID)))
	defer func() { finishSpan(span, err) }()

	return s.ownedInvestment(ctx, userID, investmentID)
}

// ListInvestments returns one page of the user's investment history in every status.
func (s *InvestmentService) ListInvestments(ctx context.Context, userID uuid.UUID, filter domain.InvestmentFilter, page domain.Page) (list *domain.InvestmentList, err error) {
	ctx, span := s.tracer.Start(ctx, "InvestmentService.ListInvestments",
		trace.WithAttributes(idAttr("user.id", userID)))
	defer func() { finishSpan(span, err) }()

	if err := domain.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	list, err = s.investments.FindByUser(ctx, userID, filter, page)
	if err != nil {
		return nil, domain.PersistenceError("list investments", err)
	}
	return list, nil
}

// Projection previews the growth of amount in an active product without touching any
// balance or record.
func (s *InvestmentService) Projection(ctx context.Context, productID uuid.UUID, amount decimal.Decimal, customTenure *int) (projection *domain.Projection, product *domain.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "InvestmentService.Projection",
		trace.WithAttributes(idAttr("product.id", productID)))
	defer func() { finishSpan(span, err) }()

	if err := domain.ValidateID("product_id", productID); err != nil {
		return nil, nil, err
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, nil, err
	}
	if customTenure != nil {
		if err := domain.ValidateTenure(*customTenure); err != nil {
			return nil, nil, err
		}
	}

	product, err = s.activeProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if !product.AllowsAmount(amount) {
		return nil, nil, domain.ErrAmountOutOfBounds
	}

	tenure := product.TenureMonths
	if customTenure != nil {
		tenure = *customTenure
	}
	projection, err = domain.Project(domain.ProjectionInput{
		Principal:         amount,
		AnnualRatePercent: product.AnnualYield,
		TenureMonths:      tenure,
		Frequency:         product.CompoundFrequency,
	})
	if err != nil {
		return nil, nil, err
	}
	return projection, product, nil
}

func (s *InvestmentService) activeProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, domain.PersistenceError("load product", err)
	}
	if !product.IsActive {
		return nil, domain.ErrProductInactive
	}
	return product, nil
}

func (s *InvestmentService) ownedInvestment(ctx context.Context, userID, investmentID uuid.UUID) (*domain.Investment, error) {
	if err := domain.ValidateID("user_id", userID); err != nil {
		return nil, err
	}
	if err := domain.ValidateID("investment_id", investmentID); err != nil {
		return nil, err
	}

	inv, err := s.investments.FindByID(ctx, investmentID)
	if err != nil {
		return nil, domain.PersistenceError("load investment", err)
	}
	if inv.UserID != userID {
		return nil, domain.ErrInvestmentNotFound
	}
	return inv, nil
}

// publish emits a lifecycle event after commit. It runs asynchronously so that a broker
// outage never fails or delays a committed ledger operation.
func (s *InvestmentService) publish(t domain.EventType, inv *domain.Investment) {
	if s.eventPublisher == nil {
		return
	}
	event := domain.NewInvestmentEvent(t, inv)
	go func() {
		if err := s.eventPublisher.Publish(context.Background(), event); err != nil {
			log.Printf("warning: failed to publish %s event for investment %s: %v", t, inv.ID, err)
		}
	}()
}

func validateCreateRequest(req CreateInvestmentRequest) error {
	if err := domain.ValidateID("user_id", req.UserID); err != nil {
		return err
	}
	if err := domain.ValidateID("product_id", req.ProductID); err != nil {
		return err
	}
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return err
	}
	if req.CustomTenure != nil {
		if err := domain.ValidateTenure(*req.CustomTenure); err != nil {
			return err
		}
	}
	return nil
}
