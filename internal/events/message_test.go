package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mini-invest/investment-service/internal/domain"
)

func testEvent() *domain.InvestmentEvent {
	inv := domain.NewInvestment(uuid.New(), uuid.New(), decimal.RequireFromString("150.5"), decimal.Zero, time.Now())
	return domain.NewInvestmentEvent(domain.EventInvestmentCreated, inv)
}

func TestInvestmentMessage_Event(t *testing.T) {
	event := testEvent()
	msg := NewInvestmentMessage(event)

	if msg.Amount != "150.50" {
		t.Errorf("expected amount 150.50, got %s", msg.Amount)
	}
	if msg.EventType != "investment.created" {
		t.Errorf("expected eventType investment.created, got %s", msg.EventType)
	}

	parsed, err := msg.Event()
	if err != nil {
		t.Fatalf("Event failed: %v", err)
	}
	if parsed.ID != event.ID || parsed.InvestmentID != event.InvestmentID || parsed.UserID != event.UserID {
		t.Errorf("ids were not preserved: %+v", parsed)
	}
	if !parsed.OccurredAt.Equal(event.OccurredAt) {
		t.Errorf("expected timestamp %s, got %s", event.OccurredAt, parsed.OccurredAt)
	}
}

func TestInvestmentMessage_EventRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *InvestmentMessage)
	}{
		{"bad event id", func(m *InvestmentMessage) { m.EventID = "evt-1" }},
		{"bad user id", func(m *InvestmentMessage) { m.UserID = "" }},
		{"unknown type", func(m *InvestmentMessage) { m.EventType = "investment.pending" }},
		{"unknown status", func(m *InvestmentMessage) { m.Status = "pending" }},
		{"bad amount", func(m *InvestmentMessage) { m.Amount = "-1" }},
		{"bad timestamp", func(m *InvestmentMessage) { m.Timestamp = "yesterday" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewInvestmentMessage(testEvent())
			tt.mutate(&msg)
			if _, err := msg.Event(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
