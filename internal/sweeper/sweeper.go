// Package sweeper moves investments past their maturity date from active to matured.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/mini-invest/investment-service/internal/domain"
)

const instrumentationName = "github.com/mini-invest/investment-service/internal/sweeper"

// Result counts the outcome of one sweep.
type Result struct {
	Matured int
	// Skipped investments changed status between FindDue and the transition,
	// usually because they were cancelled.
	Skipped int
}

// Sweeper matures due investments in batches.
type Sweeper struct {
	investments domain.InvestmentStore
	publisher   domain.EventPublisher
	batchSize   int
	now         func() time.Time

	maturedCount metric.Int64Counter
	skippedCount metric.Int64Counter
}

// New creates a Sweeper. publisher may be nil.
func New(investments domain.InvestmentStore, publisher domain.EventPublisher, batchSize int) *Sweeper {
	return newWithMeter(otel.Meter(instrumentationName), investments, publisher, batchSize)
}

func newWithMeter(meter metric.Meter, investments domain.InvestmentStore, publisher domain.EventPublisher, batchSize int) *Sweeper {
	if batchSize <= 0 {
		batchSize = domain.DefaultPageLimit
	}
	matured := counter(meter, "investment.sweeper.matured",
		"Investments moved from active to matured")
	skipped := counter(meter, "investment.sweeper.skipped",
		"Due investments that changed status before they could be matured")

	return &Sweeper{
		investments:  investments,
		publisher:    publisher,
		batchSize:    batchSize,
		now:          func() time.Time { return time.Now().UTC() },
		maturedCount: matured,
		skippedCount: skipped,
	}
}

// counter falls back to a no-op instrument when the meter refuses to create one.
func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil || c == nil {
		log.Printf("warning: failed to create %s counter, metrics disabled: %v", name, err)
		return noop.Int64Counter{}
	}
	return c
}

// SweepOnce matures every active investment whose maturity date is not after now.
// No balance moves; maturity only changes the status.
func (s *Sweeper) SweepOnce(ctx context.Context) (Result, error) {
	var res Result
	asOf := s.now()

	for {
		due, err := s.investments.FindDue(ctx, asOf, s.batchSize)
		if err != nil {
			return res, domain.PersistenceError("find due investments", err)
		}

		progressed := false
		for _, inv := range due {
			matured, err := s.investments.UpdateStatus(ctx, inv.ID, domain.StatusActive, domain.StatusMatured)
			switch {
			case err == nil:
				res.Matured++
				progressed = true
				s.maturedCount.Add(ctx, 1)
				s.publish(ctx, matured)
			case errors.Is(err, domain.ErrConcurrencyConflict):
				res.Skipped++
				s.skippedCount.Add(ctx, 1)
			default:
				return res, fmt.Errorf("failed to mature investment %s: %w", inv.ID, domain.PersistenceError("update status", err))
			}
		}

		if len(due) < s.batchSize || !progressed {
			return res, nil
		}
	}
}

// Run sweeps every interval until ctx is cancelled. Failed sweeps are logged and retried
// on the next tick.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Maturity sweeper started: interval=%s, batch_size=%d", interval, s.batchSize)
	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			log.Println("Context cancelled, stopping maturity sweeper")
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	res, err := s.SweepOnce(ctx)
	if err != nil {
		log.Printf("Maturity sweep failed after %d matured: %v", res.Matured, err)
		return
	}
	if res.Matured > 0 || res.Skipped > 0 {
		log.Printf("Maturity sweep finished: matured=%d, skipped=%d", res.Matured, res.Skipped)
	}
}

func (s *Sweeper) publish(ctx context.Context, inv *domain.Investment) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, domain.NewInvestmentEvent(domain.EventInvestmentMatured, inv)); err != nil {
		log.Printf("warning: failed to publish %s event for investment %s: %v", domain.EventInvestmentMatured, inv.ID, err)
	}
}
