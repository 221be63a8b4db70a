package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OperationMetrics records how long analytics operations take and how often
// they fail, labelled by operation name.
type OperationMetrics struct {
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

func NewOperationMetrics(meter metric.Meter) (*OperationMetrics, error) {
	duration, err := meter.Float64Histogram("analytics.operation.duration",
		metric.WithDescription("Duration of seller analytics operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("analytics.operation.errors",
		metric.WithDescription("Seller analytics operations that returned an error"),
	)
	if err != nil {
		return nil, err
	}

	return &OperationMetrics{duration: duration, errors: errs}, nil
}

func (m *OperationMetrics) Record(ctx context.Context, operation string, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}
