package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/talkback/errors"
	"github.com/kbukum/talkback/logger"
	"github.com/kbukum/talkback/validation"
)

// Scheduler runs protocol deliveries on behalf of producers that fire on
// their own goroutines.
type Scheduler interface {
	Schedule(fn func())
}

// Immediate runs every callback inline on the calling goroutine.
var Immediate Scheduler = immediate{}

type immediate struct{}

func (immediate) Schedule(fn func()) { fn() }

// LoopConfig configures a Loop.
type LoopConfig struct {
	// Name identifies the loop in logs.
	Name string `yaml:"name" mapstructure:"name" validate:"max=64"`
	// QueueSize is the initial capacity of the callback queue.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=0,lte=1048576"`
}

// ApplyDefaults applies default values to the loop configuration.
func (c *LoopConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "loop"
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
}

// Validate validates the loop configuration.
func (c *LoopConfig) Validate() error {
	return validation.Validate(c)
}

// Loop is a single-goroutine callback queue. Everything scheduled on it
// runs one callback at a time, in FIFO order, on the goroutine that called
// Run. Schedule never blocks, so callbacks may schedule further callbacks.
type Loop struct {
	cfg LoopConfig
	log *logger.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	running   atomic.Bool
}

// NewLoop creates a Loop. Call Run to start executing callbacks.
func NewLoop(cfg LoopConfig) *Loop {
	cfg.ApplyDefaults()
	return &Loop{
		cfg:   cfg,
		log:   logger.Get("pipeline.loop").WithFields(logger.Fields("loop", cfg.Name)),
		queue: make([]func(), 0, cfg.QueueSize),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Name returns the configured loop name.
func (l *Loop) Name() string { return l.cfg.Name }

// Schedule appends fn to the queue. Callbacks scheduled after Close are dropped.
func (l *Loop) Schedule(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once Close has been called.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Pending returns the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Running reports whether Run is executing callbacks.
func (l *Loop) Running() bool { return l.running.Load() }

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Run executes callbacks until ctx is done or Close is called.
// It returns nil after Close and ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New(errors.ErrCodeInternal, "loop "+l.cfg.Name+" is already running")
	}
	defer l.running.Store(false)

	l.log.Debug("loop started")
	for {
		select {
		case <-l.done:
			l.log.Debug("loop closed", logger.Fields("dropped", l.Pending()))
			return nil
		case <-ctx.Done():
			l.log.Debug("loop stopped", logger.Fields("reason", ctx.Err().Error()))
			return ctx.Err()
		default:
		}

		if fn, ok := l.next(); ok {
			fn()
			continue
		}

		select {
		case <-l.wake:
		case <-l.done:
		case <-ctx.Done():
		}
	}
}

// Close stops the loop after the callback currently running, if any.
// Queued callbacks are discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.done)
	})
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}
