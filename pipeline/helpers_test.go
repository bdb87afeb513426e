package pipeline

import (
	"context"
	"errors"
)

// recorder is a test sink that keeps everything it receives.
type recorder[T any] struct {
	talkback Talkback
	starts   int
	values   []T
	ends     int
	err      error

	// pull makes the recorder pull after Start and after every Data.
	pull bool
	// onData runs after a value is recorded.
	onData func(T)
}

func newRecorder[T any](pull bool) *recorder[T] {
	return &recorder[T]{pull: pull}
}

func (r *recorder[T]) sink(m Message[T]) {
	switch m := m.(type) {
	case Start[T]:
		r.starts++
		r.talkback = m.Talkback
		if r.pull {
			r.talkback(Pull)
		}
	case Data[T]:
		r.values = append(r.values, m.Value)
		if r.onData != nil {
			r.onData(m.Value)
		}
		if r.pull && r.ends == 0 {
			r.talkback(Pull)
		}
	case End[T]:
		r.ends++
		r.err = m.Err
	}
}

func (r *recorder[T]) ended() bool { return r.ends > 0 }

// spy wraps a source and counts what crosses its boundary.
type spy[T any] struct {
	starts  int
	pulls   int
	cancels int
}

func (p *spy[T]) wrap(src Source[T]) Source[T] {
	return func(sink Sink[T]) {
		p.starts++
		src(func(m Message[T]) {
			if s, ok := m.(Start[T]); ok {
				tb := s.Talkback
				sink(Start[T]{Talkback: func(sig Signal) {
					if sig == Pull {
						p.pulls++
					} else {
						p.cancels++
					}
					tb(sig)
				}})
				return
			}
			sink(m)
		})
	}
}

// failingIter yields its items and then fails.
type failingIter struct {
	items  []int
	index  int
	err    error
	closed int
}

func (it *failingIter) Next(context.Context) (int, bool, error) {
	if it.index >= len(it.items) {
		return 0, false, it.err
	}
	v := it.items[it.index]
	it.index++
	return v, true, nil
}

func (it *failingIter) Close() error {
	it.closed++
	return nil
}

var errBoom = errors.New("boom")

func rangeInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
