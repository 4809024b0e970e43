package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mini-invest/investment-service/internal/domain"
)

// InvestmentMessage is the JSON body of every investment lifecycle message.
type InvestmentMessage struct {
	EventID      string `json:"eventId"`
	EventType    string `json:"eventType"`
	InvestmentID string `json:"investmentId"`
	UserID       string `json:"userId"`
	ProductID    string `json:"productId"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"` // RFC 3339
}

// NewInvestmentMessage converts a domain event to its wire form.
func NewInvestmentMessage(e *domain.InvestmentEvent) InvestmentMessage {
	return InvestmentMessage{
		EventID:      e.ID.String(),
		EventType:    string(e.Type),
		InvestmentID: e.InvestmentID.String(),
		UserID:       e.UserID.String(),
		ProductID:    e.ProductID.String(),
		Amount:       e.Amount,
		Status:       string(e.Status),
		Timestamp:    e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

// Event parses the message back into a domain event.
func (m InvestmentMessage) Event() (*domain.InvestmentEvent, error) {
	var (
		e   domain.InvestmentEvent
		err error
	)
	if e.ID, err = uuid.Parse(m.EventID); err != nil {
		return nil, fmt.Errorf("invalid eventId: %w", err)
	}
	if e.InvestmentID, err = uuid.Parse(m.InvestmentID); err != nil {
		return nil, fmt.Errorf("invalid investmentId: %w", err)
	}
	if e.UserID, err = uuid.Parse(m.UserID); err != nil {
		return nil, fmt.Errorf("invalid userId: %w", err)
	}
	if e.ProductID, err = uuid.Parse(m.ProductID); err != nil {
		return nil, fmt.Errorf("invalid productId: %w", err)
	}
	if e.OccurredAt, err = time.Parse(time.RFC3339Nano, m.Timestamp); err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	switch t := domain.EventType(m.EventType); t {
	case domain.EventInvestmentCreated, domain.EventInvestmentCancelled, domain.EventInvestmentMatured:
		e.Type = t
	default:
		return nil, fmt.Errorf("unknown eventType %q", m.EventType)
	}
	if e.Status, err = domain.ParseStatus(m.Status); err != nil {
		return nil, err
	}
	if _, err := domain.ParseAmount(m.Amount); err != nil {
		return nil, err
	}
	e.Amount = m.Amount
	return &e, nil
}
