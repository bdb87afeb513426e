package pipeline

import (
	"sync"
	"sync/atomic"
)

// member is one attached sink of a multicast.
type member[T any] struct {
	sink     Sink[T]
	attached atomic.Bool
}

// registry is the sink set of one multicast instance. The slice is
// replaced on every change, so a broadcast iterates a snapshot and a sink
// detaching mid-dispatch cannot disturb it. Detached members are skipped
// even if they are still in the snapshot.
type registry[T any] struct {
	mu      sync.Mutex
	members []*member[T]
}

func (r *registry[T]) add(sink Sink[T]) *member[T] {
	m := &member[T]{sink: sink}
	m.attached.Store(true)

	r.mu.Lock()
	next := make([]*member[T], len(r.members), len(r.members)+1)
	copy(next, r.members)
	r.members = append(next, m)
	r.mu.Unlock()
	return m
}

// remove detaches m and returns the number of sinks left, or -1 when m was
// already gone.
func (r *registry[T]) remove(m *member[T]) int {
	if !m.attached.CompareAndSwap(true, false) {
		return -1
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]*member[T], 0, len(r.members))
	for _, other := range r.members {
		if other != m {
			next = append(next, other)
		}
	}
	r.members = next
	return len(next)
}

func (r *registry[T]) snapshot() []*member[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// broadcast delivers msg to every member attached when it was called.
func (r *registry[T]) broadcast(msg Message[T]) {
	for _, m := range r.snapshot() {
		if m.attached.Load() {
			m.sink(msg)
		}
	}
}

// clear detaches everyone and returns the members that were attached.
func (r *registry[T]) clear() []*member[T] {
	r.mu.Lock()
	old := r.members
	r.members = nil
	r.mu.Unlock()

	out := old[:0:0]
	for _, m := range old {
		if m.attached.CompareAndSwap(true, false) {
			out = append(out, m)
		}
	}
	return out
}
