package pipeline

import (
	"github.com/kbukum/talkback/errors"
	"github.com/kbukum/talkback/resilience"
)

// Throttle drops values the limiter refuses. Like Filter, each dropped
// value is answered with one Pull.
func Throttle[T any](limiter *resilience.RateLimiter) Operator[T, T] {
	return Filter(func(T) bool { return limiter.Allow() })
}

// Breaker admits each invocation through cb. A refused invocation starts
// and immediately ends with a REJECTED error. An admitted channel reports
// its outcome once: an error End counts as a failure, a normal End or a
// downstream cancel as a success.
func Breaker[T any](cb *resilience.CircuitBreaker) Operator[T, T] {
	return func(src Source[T]) Source[T] {
		return func(sink Sink[T]) {
			if err := cb.Acquire(); err != nil {
				Fail[T](rejected("circuit breaker", cb.Name(), err))(sink)
				return
			}
			guarded(src, sink, cb.Record)
		}
	}
}

// Limit caps the number of live channels of the source at the bulkhead's
// size. An invocation over the cap starts and immediately ends with a
// REJECTED error. The slot is released on End or cancel.
func Limit[T any](b *resilience.Bulkhead) Operator[T, T] {
	return func(src Source[T]) Source[T] {
		return func(sink Sink[T]) {
			if err := b.TryAcquire(); err != nil {
				Fail[T](rejected("bulkhead", b.Name(), err))(sink)
				return
			}
			guarded(src, sink, func(error) { b.Release() })
		}
	}
}

// guarded relays src to sink and calls release exactly once, with the End
// error or with nil on downstream cancel. Messages after End are dropped.
func guarded[T any](src Source[T], sink Sink[T], release func(error)) {
	released, ended := false, false
	done := func(err error) {
		if !released {
			released = true
			release(err)
		}
	}
	src(func(m Message[T]) {
		switch m := m.(type) {
		case Start[T]:
			tb := m.Talkback
			sink(Start[T]{Talkback: func(s Signal) {
				if s == Cancel {
					done(nil)
				}
				tb(s)
			}})
		case Data[T]:
			if !ended {
				sink(m)
			}
		case End[T]:
			if ended {
				return
			}
			ended = true
			done(m.Err)
			sink(m)
		}
	})
}

func rejected(guard, name string, cause error) error {
	return errors.Rejected(guard, cause).WithDetail("name", name)
}
