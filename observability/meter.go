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

	"github.com/kbukum/talkback/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// Enabled turns metric export on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
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

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
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
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric names.
const (
	MetricChannelStarted  = "talkback.channel.started"
	MetricChannelEnded    = "talkback.channel.ended"
	MetricChannelActive   = "talkback.channel.active"
	MetricChannelData     = "talkback.channel.data"
	MetricChannelDuration = "talkback.channel.duration"
)

// Metrics holds the instruments that describe channel lifecycles.
type Metrics struct {
	started  metric.Int64Counter
	ended    metric.Int64Counter
	active   metric.Int64UpDownCounter
	data     metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	started, err := meter.Int64Counter(MetricChannelStarted,
		metric.WithDescription("Channels that completed the handshake"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricChannelStarted, err)
	}

	ended, err := meter.Int64Counter(MetricChannelEnded,
		metric.WithDescription("Channels that terminated, by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricChannelEnded, err)
	}

	active, err := meter.Int64UpDownCounter(MetricChannelActive,
		metric.WithDescription("Channels currently open"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricChannelActive, err)
	}

	data, err := meter.Int64Counter(MetricChannelData,
		metric.WithDescription("Data messages delivered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricChannelData, err)
	}

	duration, err := meter.Float64Histogram(MetricChannelDuration,
		metric.WithDescription("Channel lifetime from Start to termination"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricChannelDuration, err)
	}

	return &Metrics{
		started:  started,
		ended:    ended,
		active:   active,
		data:     data,
		duration: duration,
	}, nil
}

// RecordStart counts a started channel and marks it active.
func (m *Metrics) RecordStart(ctx context.Context, operator string) {
	attrs := metric.WithAttributes(attribute.String(AttrOperator, operator))
	m.started.Add(ctx, 1, attrs)
	m.active.Add(ctx, 1, attrs)
}

// RecordData counts one delivered value.
func (m *Metrics) RecordData(ctx context.Context, operator string) {
	m.data.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOperator, operator)))
}

// RecordEnd marks a channel inactive and records how and after how long it terminated.
func (m *Metrics) RecordEnd(ctx context.Context, operator, status string, duration time.Duration) {
	m.active.Add(ctx, -1, metric.WithAttributes(attribute.String(AttrOperator, operator)))
	m.ended.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperator, operator),
		attribute.String(AttrStatus, status),
	))
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrOperator, operator),
	))
}
