package pipeline

// Subject is an imperative multicast endpoint. Values pushed with Next
// reach every sink attached at that moment; nothing is buffered or
// replayed. End delivers End to the attached sinks and detaches them, after
// which the subject accepts new sinks again. Canceling the last sink leaves
// the subject open.
type Subject[T any] struct {
	sinks registry[T]
}

// NewSubject creates a Subject with no sinks.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Source returns the Source that attaches sinks to the subject.
func (s *Subject[T]) Source() Source[T] {
	return s.attach
}

func (s *Subject[T]) attach(sink Sink[T]) {
	m := s.sinks.add(sink)
	sink(Start[T]{Talkback: func(sig Signal) {
		if sig == Cancel {
			s.sinks.remove(m)
		}
	}})
}

// Next delivers v to every attached sink.
func (s *Subject[T]) Next(v T) {
	s.sinks.broadcast(Data[T]{Value: v})
}

// End delivers End with err to every attached sink and detaches them.
func (s *Subject[T]) End(err error) {
	for _, m := range s.sinks.clear() {
		m.sink(End[T]{Err: err})
	}
}

// Push feeds an already-built message into the subject. Start messages
// are ignored.
func (s *Subject[T]) Push(msg Message[T]) {
	switch msg := msg.(type) {
	case Data[T]:
		s.Next(msg.Value)
	case End[T]:
		s.End(msg.Err)
	}
}

// Len returns the number of attached sinks.
func (s *Subject[T]) Len() int {
	return s.sinks.len()
}
