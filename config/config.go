package config

import (
	"github.com/kbukum/talkback/observability"
	"github.com/kbukum/talkback/pipeline"
	"github.com/kbukum/talkback/validation"
)

// Config is the configuration of a process that runs pipelines.
//
//	name: ingest
//	environment: production
//	logging:
//	  level: info
//	  format: json
//	scheduler:
//	  name: events
//	  queue_size: 256
//	guard:
//	  enabled: true
//	  strict: false
//	metrics:
//	  enabled: true
//	  endpoint: otel-collector:4318
//	tracing:
//	  enabled: true
//	  sample_rate: 0.1
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Scheduler pipeline.LoopConfig        `yaml:"scheduler" mapstructure:"scheduler"`
	Guard     pipeline.GuardConfig       `yaml:"guard" mapstructure:"guard"`
	Metrics   observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
	Tracing   observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults fills unset fields. Telemetry sections inherit the service
// name, version and environment.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Scheduler.ApplyDefaults()

	meter := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.ServiceVersion == "" {
		c.Metrics.ServiceVersion = c.Version
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = meter.Endpoint
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = meter.Interval
	}

	tracer := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = c.Version
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = tracer.Endpoint
	}
}

// Validate checks the service fields by hand and every section against its
// struct tags.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}
