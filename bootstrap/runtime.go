package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/kbukum/talkback/config"
	"github.com/kbukum/talkback/logger"
	"github.com/kbukum/talkback/observability"
	"github.com/kbukum/talkback/pipeline"
	"github.com/kbukum/talkback/version"
)

const instrumentationName = "github.com/kbukum/talkback"

// Runtime owns the shared infrastructure of a process that runs pipelines:
// its logger, the scheduler Loop and the telemetry providers.
type Runtime struct {
	Name    string
	Version string
	Cfg     *config.Config
	Logger  *logger.Logger
	Summary *Summary

	loop   *pipeline.Loop
	inst   *observability.Instrumentation
	tracer trace.Tracer

	// Providers built from config; nil when disabled or supplied by options.
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider

	gracefulTimeout time.Duration
	onStart         []Hook
	onStop          []Hook

	mu       sync.Mutex
	loopDone chan error
	stopped  bool
}

// New builds a Runtime from cfg. It applies defaults (an empty version is
// taken from the build), validates the config, initializes the logger and
// creates the Loop and telemetry. The Loop does not run until RunTask, Run
// or Start is called.
func New(cfg *config.Config, opts ...Option) (*Runtime, error) {
	build := version.Get()
	if cfg.Version == "" {
		cfg.Version = build.Short()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)
	r := &Runtime{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		Summary:         NewSummary(cfg.Name, cfg.Version, cfg.Environment),
		gracefulTimeout: 15 * time.Second,
	}
	if o.gracefulTimeout != nil {
		r.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		r.Logger = o.logger
	} else {
		logger.SetGlobalLogger(logger.New(&cfg.Logging, cfg.Name))
		r.Logger = logger.GetGlobalLogger()
	}

	r.loop = pipeline.NewLoop(cfg.Scheduler)
	r.Summary.Track("build", buildStatus(build), build.GoVersion)
	r.Summary.Track("scheduler", "enabled", fmt.Sprintf("%s, queue %d", cfg.Scheduler.Name, cfg.Scheduler.QueueSize))
	r.Summary.Track("guard", guardStatus(cfg.Guard), "")

	if err := r.initTelemetry(o); err != nil {
		_ = r.shutdownProviders(context.Background())
		return nil, err
	}
	return r, nil
}

func (r *Runtime) initTelemetry(o *runtimeOptions) error {
	ctx := context.Background()

	mp := o.meterProvider
	switch {
	case mp != nil:
		r.Summary.Track("metrics", "enabled", "external provider")
	case r.Cfg.Metrics.Enabled:
		p, err := observability.InitMeter(ctx, r.Cfg.Metrics)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		r.meterProvider, mp = p, p
		r.Summary.Track("metrics", "enabled", r.Cfg.Metrics.Endpoint)
	default:
		mp = metricnoop.NewMeterProvider()
		r.Summary.Track("metrics", "disabled", "")
	}

	tp := o.tracerProvider
	switch {
	case tp != nil:
		r.Summary.Track("tracing", "enabled", "external provider")
	case r.Cfg.Tracing.Enabled:
		p, err := observability.InitTracer(ctx, r.Cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		r.tracerProvider, tp = p, p
		r.Summary.Track("tracing", "enabled",
			r.Cfg.Tracing.Endpoint+", sample rate "+strconv.FormatFloat(r.Cfg.Tracing.SampleRate, 'g', -1, 64))
	default:
		tp = tracenoop.NewTracerProvider()
		r.Summary.Track("tracing", "disabled", "")
	}

	r.tracer = tp.Tracer(instrumentationName)
	inst, err := observability.NewInstrumentation(mp.Meter(instrumentationName, metric.WithInstrumentationVersion(r.Version)), r.tracer)
	if err != nil {
		return fmt.Errorf("instrumentation: %w", err)
	}
	r.inst = inst
	return nil
}

// Loop returns the scheduler push producers of this runtime deliver on.
func (r *Runtime) Loop() *pipeline.Loop { return r.loop }

// Instrumentation returns the metrics and tracer Instrument operators bind to.
func (r *Runtime) Instrumentation() *observability.Instrumentation { return r.inst }

// Health reports the state of the runtime's components.
func (r *Runtime) Health(ctx context.Context) *observability.ServiceHealth {
	return observability.Check(ctx, r.Name, r.Version,
		loopChecker{loop: r.loop, queueSize: r.Cfg.Scheduler.QueueSize},
	)
}

// Start runs the Loop on its own goroutine and the OnStart hooks. It is
// called by RunTask and Run; call it directly when managing the lifecycle
// yourself, and pair it with Shutdown.
func (r *Runtime) Start(ctx context.Context) error {
	start := time.Now()
	r.Logger.Info("Starting runtime", map[string]interface{}{
		"name":    r.Name,
		"version": r.Version,
	})

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return fmt.Errorf("runtime %s is shut down", r.Name)
	}
	if r.loopDone == nil {
		done := make(chan error, 1)
		r.loopDone = done
		go func() { done <- r.loop.Run(context.Background()) }()
	}
	r.mu.Unlock()

	if err := runHooks(ctx, r.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	r.Summary.SetStartupDuration(time.Since(start))
	if r.Cfg.Debug {
		r.Summary.Render(os.Stdout, nil)
	}
	return nil
}

// RunTask starts the runtime, runs task, and shuts down when the task
// returns. SIGINT and SIGTERM cancel the task's context. The task runs
// inside a span.
//
// Example:
//
//	rt.RunTask(ctx, func(ctx context.Context) error {
//	    return pipeline.Drain(ctx, src, handle, pipeline.WithScheduler(rt.Loop()))
//	})
func (r *Runtime) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := r.Start(ctx); err != nil {
		_ = r.Shutdown(context.Background())
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			r.Logger.Info("Received signal, canceling task", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskCtx, span := r.tracer.Start(taskCtx, "talkback.task")
	taskErr := task(taskCtx)
	if taskErr != nil {
		span.RecordError(taskErr)
		span.SetStatus(codes.Error, taskErr.Error())
	}
	span.End()

	if stopErr := r.Shutdown(context.Background()); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// Run starts the runtime and blocks until a shutdown signal or ctx
// cancellation, then shuts down.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		_ = r.Shutdown(context.Background())
		return err
	}
	r.Logger.Info("Runtime ready, waiting for shutdown signal")
	r.WaitForSignal(ctx)
	return r.Shutdown(context.Background())
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (r *Runtime) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		r.Logger.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		r.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown runs the OnStop hooks, closes the Loop and flushes the
// telemetry providers, all within the graceful timeout. Calls after the
// first return nil.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	done := r.loopDone
	r.mu.Unlock()

	r.Logger.Info("Shutting down runtime", map[string]interface{}{
		"timeout": r.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(ctx, r.gracefulTimeout)
	defer cancel()

	var errs []error
	if err := runHooks(ctx, r.onStop); err != nil {
		r.Logger.Error("OnStop hook error", logger.ErrorFields("shutdown", err))
		errs = append(errs, err)
	}

	r.loop.Close()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("loop %s did not stop: %w", r.loop.Name(), ctx.Err()))
		}
	}

	if err := r.shutdownProviders(ctx); err != nil {
		r.Logger.Error("Telemetry shutdown error", logger.ErrorFields("shutdown", err))
		errs = append(errs, err)
	}

	r.Logger.Info("Runtime shutdown complete")
	return errors.Join(errs...)
}

func (r *Runtime) shutdownProviders(ctx context.Context) error {
	var errs []error
	if r.meterProvider != nil {
		if err := r.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	if r.tracerProvider != nil {
		if err := r.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

func buildStatus(info version.Info) string {
	if info.IsRelease() {
		return "release"
	}
	return "development"
}

func guardStatus(cfg pipeline.GuardConfig) string {
	switch {
	case !cfg.Enabled:
		return "disabled"
	case cfg.Strict:
		return "strict"
	default:
		return "lenient"
	}
}
