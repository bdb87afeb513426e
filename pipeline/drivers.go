package pipeline

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/kbukum/talkback/errors"
)

// Dispose cancels a running channel. Calling it after the channel ended,
// or more than once, does nothing.
type Dispose func()

// Observer groups the callbacks of a terminal consumer. Nil fields are skipped.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

func (o Observer[T]) next(v T) {
	if o.Next != nil {
		o.Next(v)
	}
}

func (o Observer[T]) end(err error) {
	switch {
	case err != nil && o.Error != nil:
		o.Error(err)
	case err == nil && o.Complete != nil:
		o.Complete()
	}
}

// ForEach drives a pullable source: it pulls once after Start and once
// after every Data, calling fn for each value.
func ForEach[T any](src Source[T], fn func(T)) Dispose {
	return drive(src, Observer[T]{Next: fn}, true)
}

// Observe consumes a listenable source without ever pulling.
func Observe[T any](src Source[T], fn func(T)) Dispose {
	return drive(src, Observer[T]{Next: fn}, false)
}

// Subscribe is Observe with termination callbacks.
func Subscribe[T any](src Source[T], o Observer[T]) Dispose {
	return drive(src, o, false)
}

func drive[T any](src Source[T], o Observer[T], pull bool) Dispose {
	var (
		talkback Talkback
		ended    atomic.Bool
	)
	src(func(m Message[T]) {
		switch m := m.(type) {
		case Start[T]:
			if talkback != nil {
				return
			}
			talkback = m.Talkback
			if pull && !ended.Load() {
				talkback(Pull)
			}
		case Data[T]:
			if ended.Load() {
				return
			}
			o.next(m.Value)
			if pull && !ended.Load() {
				talkback(Pull)
			}
		case End[T]:
			if ended.CompareAndSwap(false, true) {
				o.end(m.Err)
			}
		}
	})
	return func() {
		if ended.CompareAndSwap(false, true) && talkback != nil {
			talkback(Cancel)
		}
	}
}

// DrainOption configures Drain and Collect.
type DrainOption func(*drainOptions)

type drainOptions struct {
	scheduler Scheduler
}

// WithScheduler runs the subscription and any cancellation on s. Use it
// when the source's push producers deliver on a Loop.
func WithScheduler(s Scheduler) DrainOption {
	return func(o *drainOptions) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// Drain pulls src to completion, calling fn for every value, and blocks
// until End arrives or ctx is done. It returns the End error, the first
// error returned by fn (which cancels upstream), or a CANCELED/TIMEOUT
// stream error when ctx finishes first.
//
// With WithScheduler the scheduler must be running. If it is a Loop that
// gets closed, Drain returns a CANCELED error instead of waiting.
func Drain[T any](ctx context.Context, src Source[T], fn func(context.Context, T) error, opts ...DrainOption) error {
	o := drainOptions{scheduler: Immediate}
	for _, opt := range opts {
		opt(&o)
	}
	if ctx.Err() != nil {
		return contextError(ctx, "drain")
	}

	var (
		talkback Talkback
		ended    atomic.Bool
		once     sync.Once
		done     = make(chan error, 1)
	)
	finish := func(err error) {
		once.Do(func() { done <- err })
	}
	stop := func(err error) {
		if ended.CompareAndSwap(false, true) {
			if talkback != nil {
				talkback(Cancel)
			}
			finish(err)
		}
	}

	o.scheduler.Schedule(func() {
		src(func(m Message[T]) {
			switch m := m.(type) {
			case Start[T]:
				if talkback != nil {
					return
				}
				talkback = m.Talkback
				if !ended.Load() {
					talkback(Pull)
				}
			case Data[T]:
				if ended.Load() {
					return
				}
				if err := fn(ctx, m.Value); err != nil {
					stop(err)
					return
				}
				if !ended.Load() {
					talkback(Pull)
				}
			case End[T]:
				if ended.CompareAndSwap(false, true) {
					finish(m.Err)
				}
			}
		})
	})

	// A closed scheduler drops the cancel callback, so the wait has to
	// watch for that too.
	var closed <-chan struct{}
	if c, ok := o.scheduler.(closable); ok {
		closed = c.Done()
	}

	select {
	case err := <-done:
		return err
	case <-closed:
		finish(errors.Canceled("drain: scheduler closed"))
		return <-done
	case <-ctx.Done():
		o.scheduler.Schedule(func() { stop(contextError(ctx, "drain")) })
		select {
		case err := <-done:
			return err
		case <-closed:
			finish(contextError(ctx, "drain"))
			return <-done
		}
	}
}

// closable is a Scheduler that can stop running queued callbacks.
type closable interface {
	Done() <-chan struct{}
}

// Collect drains src and returns every value. On failure it returns the
// values received so far together with the error.
func Collect[T any](ctx context.Context, src Source[T], opts ...DrainOption) ([]T, error) {
	var (
		mu  sync.Mutex
		out []T
	)
	err := Drain(ctx, src, func(_ context.Context, v T) error {
		mu.Lock()
		out = append(out, v)
		mu.Unlock()
		return nil
	}, opts...)

	mu.Lock()
	defer mu.Unlock()
	return out, err
}

func contextError(ctx context.Context, op string) error {
	cause := context.Cause(ctx)
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Timeout(op).WithCause(cause)
	}
	return errors.Canceled(op).WithCause(cause)
}
