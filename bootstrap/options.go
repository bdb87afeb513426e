package bootstrap

import (
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/talkback/logger"
)

// Option configures the Runtime during creation.
type Option func(*runtimeOptions)

// runtimeOptions collects all option values before applying to Runtime.
type runtimeOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	meterProvider   metric.MeterProvider
	tracerProvider  trace.TracerProvider
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *runtimeOptions {
	o := &runtimeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the runtime.
// If not set, the logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *runtimeOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *runtimeOptions) {
		o.gracefulTimeout = &d
	}
}

// WithMeterProvider supplies the meter provider instead of building an
// OTLP exporter from the metrics config. The caller owns its shutdown.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *runtimeOptions) {
		o.meterProvider = mp
	}
}

// WithTracerProvider supplies the tracer provider instead of building an
// OTLP exporter from the tracing config. The caller owns its shutdown.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *runtimeOptions) {
		o.tracerProvider = tp
	}
}
