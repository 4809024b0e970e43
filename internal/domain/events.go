package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an investment lifecycle event. It doubles as the routing key suffix.
type EventType string

const (
	EventInvestmentCreated   EventType = "investment.created"
	EventInvestmentCancelled EventType = "investment.cancelled"
	EventInvestmentMatured   EventType = "investment.matured"
)

// InvestmentEvent is emitted after a lifecycle change has been committed.
type InvestmentEvent struct {
	ID           uuid.UUID
	Type         EventType
	InvestmentID uuid.UUID
	UserID       uuid.UUID
	ProductID    uuid.UUID
	Amount       string // Decimal string with 2 decimal places
	Status       Status
	OccurredAt   time.Time
}

// NewInvestmentEvent builds an event describing inv's current state.
func NewInvestmentEvent(t EventType, inv *Investment) *InvestmentEvent {
	return &InvestmentEvent{
		ID:           uuid.New(),
		Type:         t,
		InvestmentID: inv.ID,
		UserID:       inv.UserID,
		ProductID:    inv.ProductID,
		Amount:       inv.Amount.StringFixed(2),
		Status:       inv.Status,
		OccurredAt:   time.Now().UTC(),
	}
}
