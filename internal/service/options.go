package service

import (
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/mini-invest/investment-service/internal/service"

type settings struct {
	tracer trace.Tracer
	now    func() time.Time
}

func defaultSettings() settings {
	return settings{
		tracer: otel.GetTracerProvider().Tracer(instrumentationName),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Option customises a service.
type Option func(*settings)

// WithTracerProvider makes the service create its spans with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) {
		s.tracer = tp.Tracer(instrumentationName)
	}
}

// WithClock overrides the time source used for maturity dates.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// finishSpan records err on span (if any) and ends it. It returns err unchanged.
func finishSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return err
}

func idAttr(key string, id uuid.UUID) attribute.KeyValue {
	return attribute.String(key, id.String())
}
