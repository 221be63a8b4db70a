package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestOperationMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := NewOperationMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.Record(ctx, "InventoryRisk", 20*time.Millisecond, nil)
	m.Record(ctx, "InventoryRisk", 40*time.Millisecond, errors.New("timeout"))
	m.Record(ctx, "BuyerCohorts", 5*time.Millisecond, nil)

	found := collect(t, reader)

	duration, ok := found["analytics.operation.duration"]
	require.True(t, ok, "duration histogram not exported")
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	counts := map[string]uint64{}
	for _, dp := range hist.DataPoints {
		op, _ := dp.Attributes.Value(attribute.Key("operation"))
		counts[op.AsString()] = dp.Count
	}
	assert.Equal(t, map[string]uint64{"InventoryRisk": 2, "BuyerCohorts": 1}, counts)

	failures, ok := found["analytics.operation.errors"]
	require.True(t, ok, "error counter not exported")
	sum, ok := failures.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
	op, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("operation"))
	assert.Equal(t, "InventoryRisk", op.AsString())
}

func TestWithHTTPRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /analytics/seller/{sellerId}/profitability", WithHTTPRoute(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	req := httptest.NewRequest(http.MethodGet, "/analytics/seller/s1/profitability", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	span.End()

	require.Equal(t, http.StatusNoContent, rec.Code)
	ended := recorder.Ended()
	require.Len(t, ended, 1)

	var route string
	for _, attr := range ended[0].Attributes() {
		if attr.Key == "http.route" {
			route = attr.Value.AsString()
		}
	}
	assert.Equal(t, "GET /analytics/seller/{sellerId}/profitability", route)
	assert.True(t, oteltrace.SpanContextFromContext(ctx).IsValid())
}

func TestSpanName(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	assert.Equal(t, "GET /healthz", SpanName("server", req))

	req.Pattern = "GET /analytics/seller/{sellerId}/orders"
	assert.Equal(t, "GET /analytics/seller/{sellerId}/orders", SpanName("server", req))
}
