package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/talkback/errors"
)

// Emitter is an event source that registers listeners by event name.
type Emitter[T any] interface {
	// On registers fn for event and returns a function removing it.
	On(event string, fn func(T)) (off func())
}

// Subscribable is an observable-style producer.
type Subscribable[T any] interface {
	// Subscribe feeds o until the producer completes or dispose is called.
	Subscribe(o Observer[T]) (dispose func())
}

// pusher holds the state shared by push adapters whose producer lives on
// another goroutine. Deliveries go through sched; a delivery that runs
// after the channel ended is dropped.
type pusher[T any] struct {
	sink  Sink[T]
	sched Scheduler

	ended   atomic.Bool
	done    chan struct{}
	once    sync.Once
	cleanup func()
}

func newPusher[T any](sink Sink[T], sched Scheduler) *pusher[T] {
	if sched == nil {
		sched = Immediate
	}
	return &pusher[T]{sink: sink, sched: sched, done: make(chan struct{})}
}

// talkback ignores Pull: push producers emit on their own schedule.
func (p *pusher[T]) talkback(s Signal) {
	if s == Cancel && p.ended.CompareAndSwap(false, true) {
		p.stop()
	}
}

func (p *pusher[T]) stop() {
	p.once.Do(func() {
		close(p.done)
		if p.cleanup != nil {
			p.cleanup()
		}
	})
}

func (p *pusher[T]) data(v T) {
	p.sched.Schedule(func() {
		if !p.ended.Load() {
			p.sink(Data[T]{Value: v})
		}
	})
}

func (p *pusher[T]) end(err error) {
	p.sched.Schedule(func() {
		if p.ended.CompareAndSwap(false, true) {
			p.stop()
			p.sink(End[T]{Err: err})
		}
	})
}

// FromChannel creates a push source that forwards every value received from
// ch and ends when ch is closed. Each invocation starts its own reader, so
// several sinks on one channel split its values between them.
func FromChannel[T any](ch <-chan T, sched Scheduler) Source[T] {
	return func(sink Sink[T]) {
		p := newPusher(sink, sched)
		sink(Start[T]{Talkback: p.talkback})
		if p.ended.Load() {
			return
		}
		go func() {
			for {
				select {
				case <-p.done:
					return
				case v, ok := <-ch:
					if !ok {
						p.end(nil)
						return
					}
					p.data(v)
				}
			}
		}()
	}
}

// Interval creates a push source emitting 0, 1, 2, ... every period.
// It never ends on its own.
func Interval(period time.Duration, sched Scheduler) Source[int] {
	return func(sink Sink[int]) {
		p := newPusher(sink, sched)
		sink(Start[int]{Talkback: p.talkback})
		if p.ended.Load() {
			return
		}
		ticker := time.NewTicker(period)
		go func() {
			defer ticker.Stop()
			for i := 0; ; i++ {
				select {
				case <-p.done:
					return
				case <-ticker.C:
					p.data(i)
				}
			}
		}()
	}
}

// FromFuture runs fn once per invocation on its own goroutine and emits its
// result followed by End. A failure ends the channel with SOURCE_FAILED.
// Canceling the channel cancels the context passed to fn.
func FromFuture[T any](fn func(ctx context.Context) (T, error), sched Scheduler) Source[T] {
	return func(sink Sink[T]) {
		ctx, cancel := context.WithCancel(context.Background())
		p := newPusher(sink, sched)
		p.cleanup = cancel
		sink(Start[T]{Talkback: p.talkback})
		if p.ended.Load() {
			return
		}
		go func() {
			v, err := fn(ctx)
			if err != nil {
				p.end(errors.SourceFailed("future", err))
				return
			}
			p.data(v)
			p.end(nil)
		}()
	}
}

// FromEmitter creates a push source from the named event of e. The
// listener is removed when the channel is canceled. Values are delivered on
// whatever goroutine the emitter fires on.
func FromEmitter[T any](e Emitter[T], event string) Source[T] {
	return func(sink Sink[T]) {
		var (
			mu    sync.Mutex
			ended bool
			off   func()
		)
		sink(Start[T]{Talkback: func(s Signal) {
			if s != Cancel {
				return
			}
			mu.Lock()
			if ended {
				mu.Unlock()
				return
			}
			ended = true
			remove := off
			mu.Unlock()
			if remove != nil {
				remove()
			}
		}})

		mu.Lock()
		if ended {
			mu.Unlock()
			return
		}
		mu.Unlock()

		remove := e.On(event, func(v T) {
			mu.Lock()
			done := ended
			mu.Unlock()
			if !done {
				sink(Data[T]{Value: v})
			}
		})

		mu.Lock()
		if ended {
			mu.Unlock()
			remove()
			return
		}
		off = remove
		mu.Unlock()
	}
}

// FromSubscribable creates a push source from an observable-style producer.
// Its error and completion callbacks end the channel; cancel disposes the
// subscription.
func FromSubscribable[T any](s Subscribable[T]) Source[T] {
	return func(sink Sink[T]) {
		var (
			mu      sync.Mutex
			ended   bool
			dispose func()
		)
		finish := func() (func(), bool) {
			mu.Lock()
			defer mu.Unlock()
			if ended {
				return nil, false
			}
			ended = true
			return dispose, true
		}
		isEnded := func() bool {
			mu.Lock()
			defer mu.Unlock()
			return ended
		}

		sink(Start[T]{Talkback: func(sig Signal) {
			if sig != Cancel {
				return
			}
			if d, ok := finish(); ok && d != nil {
				d()
			}
		}})
		if isEnded() {
			return
		}

		d := s.Subscribe(Observer[T]{
			Next: func(v T) {
				if !isEnded() {
					sink(Data[T]{Value: v})
				}
			},
			Error: func(err error) {
				if _, ok := finish(); ok {
					sink(End[T]{Err: err})
				}
			},
			Complete: func() {
				if _, ok := finish(); ok {
					sink(End[T]{})
				}
			},
		})

		mu.Lock()
		if ended {
			mu.Unlock()
			if d != nil {
				d()
			}
			return
		}
		dispose = d
		mu.Unlock()
	}
}
