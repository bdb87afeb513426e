package pipeline

import "sync"

// Share multicasts one upstream channel to every attached sink. The
// upstream is invoked on the first attach; later sinks join the running
// broadcast without replay. Pulls from any sink reach the upstream.
// Canceling a sink detaches only that sink; when the last one leaves the
// upstream is canceled, and the next attach invokes it afresh. Upstream End
// is delivered to every attached sink and empties the set.
func Share[T any](src Source[T]) Source[T] {
	s := &share[T]{src: src}
	return s.attach
}

type share[T any] struct {
	src   Source[T]
	sinks registry[T]

	mu       sync.Mutex
	epoch    int
	running  bool
	talkback Talkback
	// pending counts pulls that arrived before the upstream handshake.
	pending int
}

func (s *share[T]) attach(sink Sink[T]) {
	m := s.sinks.add(sink)

	s.mu.Lock()
	first := !s.running
	if first {
		s.running = true
		s.epoch++
		s.talkback = nil
		s.pending = 0
	}
	epoch := s.epoch
	s.mu.Unlock()

	sink(Start[T]{Talkback: func(sig Signal) { s.signal(m, sig) }})

	if first && m.attached.Load() {
		s.src(func(msg Message[T]) { s.upstreamMessage(epoch, msg) })
	}
}

func (s *share[T]) signal(m *member[T], sig Signal) {
	if !m.attached.Load() {
		return
	}
	if sig == Pull {
		s.mu.Lock()
		tb := s.talkback
		if tb == nil && s.running {
			s.pending++
		}
		s.mu.Unlock()
		if tb != nil {
			tb(Pull)
		}
		return
	}

	if s.sinks.remove(m) != 0 {
		return
	}
	s.mu.Lock()
	tb := s.talkback
	wasRunning := s.running
	s.running = false
	s.talkback = nil
	s.mu.Unlock()
	if wasRunning && tb != nil {
		tb(Cancel)
	}
}

func (s *share[T]) upstreamMessage(epoch int, msg Message[T]) {
	switch msg := msg.(type) {
	case Start[T]:
		s.mu.Lock()
		stale := s.staleLocked(epoch)
		pending := 0
		if !stale {
			s.talkback = msg.Talkback
			pending, s.pending = s.pending, 0
		}
		s.mu.Unlock()
		if stale {
			msg.Talkback(Cancel)
			return
		}
		if s.sinks.len() == 0 {
			s.stop(epoch)
			return
		}
		for ; pending > 0; pending-- {
			msg.Talkback(Pull)
		}
	case Data[T]:
		s.mu.Lock()
		stale := s.staleLocked(epoch)
		s.mu.Unlock()
		if !stale {
			s.sinks.broadcast(msg)
		}
	case End[T]:
		s.mu.Lock()
		stale := s.staleLocked(epoch)
		if !stale {
			s.running = false
			s.talkback = nil
		}
		s.mu.Unlock()
		if stale {
			return
		}
		for _, m := range s.sinks.clear() {
			m.sink(msg)
		}
	}
}

// staleLocked reports whether epoch no longer owns the upstream. Caller holds mu.
func (s *share[T]) staleLocked(epoch int) bool {
	return epoch != s.epoch || !s.running
}

// stop cancels the upstream of epoch when every sink left during its
// handshake.
func (s *share[T]) stop(epoch int) {
	s.mu.Lock()
	if s.staleLocked(epoch) {
		s.mu.Unlock()
		return
	}
	tb := s.talkback
	s.running = false
	s.talkback = nil
	s.mu.Unlock()
	if tb != nil {
		tb(Cancel)
	}
}
