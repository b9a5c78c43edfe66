package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestStartSpanWithoutProvider(t *testing.T) {
	// No tracer configured: helpers must be safe no-ops.
	ctx, span := StartSpan(context.Background(), "test.op")
	if span == nil {
		t.Fatal("expected a (no-op) span")
	}
	SetSpanAttribute(ctx, AttrOperationName, "test")
	SetSpanAttribute(ctx, "count", 3)
	SetSpanError(ctx, fmt.Errorf("boom"))
	span.End()
}

func TestMetricsRecordWithoutProvider(t *testing.T) {
	m, err := NewMetrics(Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	ctx := context.Background()
	m.RecordEmitted(ctx, "counter", 3)
	m.RecordConsumed(ctx, "console", 1)
	m.RecordDropped(ctx, "console")
	m.RecordLifecycleOp(ctx, "plan", "Success", 5*time.Millisecond)
}

func TestMetricsAgainstManualReader(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ctx := context.Background()
	m.RecordEmitted(ctx, "counter", 2)
	m.RecordLifecycleOp(ctx, "init", "Failed", time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Error("expected recorded metrics in manual reader")
	}
}
