package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/provkit/provkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName identifies the host (usually the provider name).
	ServiceName string
	// ServiceVersion is the host build version.
	ServiceVersion string
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string
	// Insecure allows plain HTTP connections.
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter initializes the OpenTelemetry meter provider. Returns a
// MeterProvider the host shuts down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the metric instruments a host records while driving a
// provider.
type Metrics struct {
	envelopesEmitted  metric.Int64Counter
	envelopesConsumed metric.Int64Counter
	linesDropped      metric.Int64Counter
	lifecycleTotal    metric.Int64Counter
	lifecycleDuration metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	envelopesEmitted, err := meter.Int64Counter("envelopes.emitted",
		metric.WithDescription("Envelopes produced by the provider and written to the wire"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating envelopes.emitted counter: %w", err)
	}

	envelopesConsumed, err := meter.Int64Counter("envelopes.consumed",
		metric.WithDescription("Envelopes read from the wire and forwarded to the provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating envelopes.consumed counter: %w", err)
	}

	linesDropped, err := meter.Int64Counter("lines.dropped",
		metric.WithDescription("Malformed wire lines skipped during a run loop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lines.dropped counter: %w", err)
	}

	lifecycleTotal, err := meter.Int64Counter("lifecycle.total",
		metric.WithDescription("Lifecycle operations by operation and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifecycle.total counter: %w", err)
	}

	lifecycleDuration, err := meter.Float64Histogram("lifecycle.duration",
		metric.WithDescription("Duration of lifecycle operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifecycle.duration histogram: %w", err)
	}

	return &Metrics{
		envelopesEmitted:  envelopesEmitted,
		envelopesConsumed: envelopesConsumed,
		linesDropped:      linesDropped,
		lifecycleTotal:    lifecycleTotal,
		lifecycleDuration: lifecycleDuration,
	}, nil
}

// RecordEmitted counts envelopes written to the wire.
func (m *Metrics) RecordEmitted(ctx context.Context, provider string, n int64) {
	m.envelopesEmitted.Add(ctx, n, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordConsumed counts envelopes forwarded to the provider.
func (m *Metrics) RecordConsumed(ctx context.Context, provider string, n int64) {
	m.envelopesConsumed.Add(ctx, n, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordDropped counts malformed wire lines skipped.
func (m *Metrics) RecordDropped(ctx context.Context, provider string) {
	m.linesDropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordLifecycleOp records one lifecycle operation.
func (m *Metrics) RecordLifecycleOp(ctx context.Context, operation, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.lifecycleTotal.Add(ctx, 1, attrs)
	m.lifecycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}
