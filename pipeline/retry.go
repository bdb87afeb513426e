package pipeline

import (
	"time"

	"github.com/kbukum/talkback/errors"
	"github.com/kbukum/talkback/resilience"
)

// Retry re-invokes the source when it ends with an error that cfg allows
// to be retried, up to cfg.MaxAttempts invocations in total. Downstream
// sees a single Start and the values of every attempt; outstanding pulls
// are replayed on the new producer. With a zero InitialBackoff the next
// attempt starts immediately; otherwise it is scheduled on sched after
// cfg.Backoff, so sched must be the Loop that serves the channel. A nil
// sched means Immediate and is only accepted without backoff. An invalid
// cfg makes every invocation end with its INVALID_INPUT error.
func Retry[T any](cfg resilience.RetryConfig, sched Scheduler) Operator[T, T] {
	cfg.ApplyDefaults()
	if sched == nil {
		sched = Immediate
	}
	err := cfg.Validate()
	if err == nil && cfg.InitialBackoff > 0 && sched == Immediate {
		err = errors.InvalidInput("scheduler", "a retry backoff needs a scheduler other than Immediate")
	}
	if err != nil {
		return func(Source[T]) Source[T] { return Fail[T](err) }
	}
	return func(src Source[T]) Source[T] {
		return func(sink Sink[T]) {
			r := &retrier[T]{cfg: cfg, sched: sched, src: src, sink: sink}
			r.advance()
		}
	}
}

type retrier[T any] struct {
	cfg   resilience.RetryConfig
	sched Scheduler
	src   Source[T]
	sink  Sink[T]

	up      upstream
	gen     int
	attempt int
	demand  int
	started bool
	ended   bool

	subscribing bool
	again       bool
}

// advance starts the next attempt. Attempts that fail synchronously while
// being started are looped here instead of recursing.
func (r *retrier[T]) advance() {
	r.again = true
	if r.subscribing {
		return
	}
	r.subscribing = true
	for r.again && !r.ended {
		r.again = false
		r.subscribe()
	}
	r.subscribing = false
}

func (r *retrier[T]) subscribe() {
	r.attempt++
	r.gen++
	gen := r.gen
	r.src(func(m Message[T]) {
		if r.ended || gen != r.gen {
			if s, ok := m.(Start[T]); ok {
				s.Talkback(Cancel)
			}
			return
		}
		switch m := m.(type) {
		case Start[T]:
			r.up.start(m.Talkback)
			if !r.started {
				r.started = true
				r.sink(Start[T]{Talkback: r.talkback})
				return
			}
			for i := 0; i < r.demand && !r.up.done; i++ {
				r.up.pull()
			}
		case Data[T]:
			if r.up.done {
				return
			}
			if r.demand > 0 {
				r.demand--
			}
			r.sink(m)
		case End[T]:
			if r.up.done {
				return
			}
			r.up.done = true
			if m.Err != nil && r.cfg.ShouldRetry(r.attempt, m.Err) {
				r.retry(m.Err)
				return
			}
			r.ended = true
			r.sink(m)
		}
	})
}

func (r *retrier[T]) retry(err error) {
	backoff := r.cfg.Backoff(r.attempt)
	if r.cfg.OnRetry != nil {
		r.cfg.OnRetry(r.attempt, err, backoff)
	}
	if backoff <= 0 {
		r.advance()
		return
	}
	time.AfterFunc(backoff, func() {
		r.sched.Schedule(func() {
			if !r.ended {
				r.advance()
			}
		})
	})
}

func (r *retrier[T]) talkback(s Signal) {
	if r.ended {
		return
	}
	if s == Cancel {
		r.ended = true
		r.up.cancel()
		return
	}
	r.demand++
	r.up.pull()
}
