package analytics

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("analytics")

var (
	ErrInvalidScenario = errors.New("invalid pricing scenario")
	ErrInvalidCampaign = errors.New("invalid campaign parameters")
)

type OperationRecorder interface {
	Record(ctx context.Context, operation string, elapsed time.Duration, err error)
}

// Service computes seller reports. It holds no state between calls; every
// operation re-reads the store.
type Service struct {
	store    Store
	ratios   Ratios
	recorder OperationRecorder
	now      func() time.Time
}

type Option func(*Service)

func WithRecorder(r OperationRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService uses ratios exactly as given, zero values included. Start from
// DefaultRatios and override what differs.
func NewService(store Store, ratios Ratios, opts ...Option) *Service {
	s := &Service{
		store:  store,
		ratios: ratios,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Ratios() Ratios {
	return s.ratios
}

func (s *Service) observe(ctx context.Context, operation, sellerID string) (context.Context, func(*error)) {
	ctx, span := tracer.Start(ctx, "analytics."+operation,
		trace.WithAttributes(attribute.String("seller.id", sellerID)),
	)
	began := time.Now()

	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if s.recorder != nil {
			s.recorder.Record(ctx, operation, time.Since(began), err)
		}
	}
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
