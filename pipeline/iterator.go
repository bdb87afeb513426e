package pipeline

import (
	"context"
	"iter"

	"github.com/kbukum/talkback/errors"
)

// Iterator provides pull-based sequential access to a stream of values.
// It is the collaborator behind every pull source in this package.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// --- Constructors ---

// FromFunc creates a pull source from a factory that produces a fresh
// Iterator for every invocation. The context passed to the factory and to
// Next is canceled when the channel ends.
func FromFunc[T any](create func(ctx context.Context) Iterator[T]) Source[T] {
	return func(sink Sink[T]) {
		ctx, cancel := context.WithCancel(context.Background())
		p := &puller[T]{
			ctx:    ctx,
			cancel: cancel,
			iter:   create(ctx),
			sink:   sink,
		}
		sink(Start[T]{Talkback: p.talkback})
	}
}

// FromIterator creates a pull source from an existing Iterator.
// The iterator is consumed by the first invocation; later invocations see
// whatever it has left.
func FromIterator[T any](it Iterator[T]) Source[T] {
	return FromFunc(func(context.Context) Iterator[T] { return it })
}

// FromSlice creates a pull source emitting the items in order.
func FromSlice[T any](items []T) Source[T] {
	return FromFunc(func(context.Context) Iterator[T] {
		return &sliceIter[T]{items: items}
	})
}

// FromValues creates a pull source emitting its arguments in order.
func FromValues[T any](values ...T) Source[T] {
	return FromSlice(values)
}

// FromSeq creates a pull source from a range-over-func sequence.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	return FromFunc(func(context.Context) Iterator[T] {
		next, stop := iter.Pull(seq)
		return &seqIter[T]{next: next, stop: stop}
	})
}

// Empty returns a source that ends right after the handshake.
func Empty[T any]() Source[T] {
	return Fail[T](nil)
}

// Fail returns a source that ends with err right after the handshake.
func Fail[T any](err error) Source[T] {
	return func(sink Sink[T]) {
		canceled := false
		sink(Start[T]{Talkback: func(s Signal) {
			if s == Cancel {
				canceled = true
			}
		}})
		if !canceled {
			sink(End[T]{Err: err})
		}
	}
}

// Never returns a source that greets its sink and then stays silent.
func Never[T any]() Source[T] {
	return func(sink Sink[T]) {
		sink(Start[T]{Talkback: noop})
	}
}

// --- Pull loop ---

// puller drives an Iterator on behalf of one sink. Pulls that arrive while
// a value is being delivered are counted and served by the outer loop, so a
// sink pulling from inside its Data callback never grows the stack.
type puller[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	iter   Iterator[T]
	sink   Sink[T]

	ended    bool
	draining bool
	demand   int
}

func (p *puller[T]) talkback(s Signal) {
	if p.ended {
		return
	}
	if s == Cancel {
		p.close()
		return
	}
	p.demand++
	if p.draining {
		return
	}
	p.draining = true
	for p.demand > 0 && !p.ended {
		p.demand--
		val, ok, err := p.iter.Next(p.ctx)
		if p.ended {
			break
		}
		switch {
		case err != nil:
			p.close()
			p.sink(End[T]{Err: errors.SourceFailed("iterator", err)})
		case !ok:
			p.close()
			p.sink(End[T]{})
		default:
			p.sink(Data[T]{Value: val})
		}
	}
	p.draining = false
}

func (p *puller[T]) close() {
	p.ended = true
	p.cancel()
	_ = p.iter.Close()
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type seqIter[T any] struct {
	next func() (T, bool)
	stop func()
}

func (it *seqIter[T]) Next(_ context.Context) (T, bool, error) {
	val, ok := it.next()
	return val, ok, nil
}

func (it *seqIter[T]) Close() error {
	it.stop()
	return nil
}
