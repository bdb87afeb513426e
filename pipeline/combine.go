package pipeline

// Combine emits a slice holding the latest value of every source, in
// argument order, each time any source emits once all of them have emitted
// at least once. Every emission is a fresh slice. The combined channel ends
// once every source has ended, or at the first error, which cancels the
// others.
//
// Combine of zero sources emits one empty slice and ends without waiting
// for a pull.
func Combine[T any](sources ...Source[T]) Source[[]T] {
	return func(sink Sink[[]T]) {
		n := len(sources)
		if n == 0 {
			canceled := false
			sink(Start[[]T]{Talkback: func(s Signal) {
				if s == Cancel {
					canceled = true
				}
			}})
			if !canceled {
				sink(Data[[]T]{Value: []T{}})
			}
			if !canceled {
				sink(End[[]T]{})
			}
			return
		}

		var (
			ups     = make([]upstream, n)
			latest  = make([]T, n)
			has     = make([]bool, n)
			starts  int
			missing = n
			endings int
			started bool
			ended   bool
		)

		cancelAll := func(except int) {
			for i := range ups {
				if i != except {
					ups[i].cancel()
				}
			}
		}

		talkback := func(s Signal) {
			if ended {
				return
			}
			if s == Cancel {
				ended = true
				cancelAll(-1)
				return
			}
			for i := range ups {
				ups[i].pull()
			}
		}

		for i := 0; i < n && !ended; i++ {
			i := i
			sources[i](func(m Message[T]) {
				switch m := m.(type) {
				case Start[T]:
					if ended {
						m.Talkback(Cancel)
						return
					}
					ups[i].start(m.Talkback)
					starts++
					if starts == n {
						started = true
						sink(Start[[]T]{Talkback: talkback})
					}
				case Data[T]:
					if ended || ups[i].done {
						return
					}
					if !has[i] {
						has[i] = true
						missing--
					}
					latest[i] = m.Value
					if missing == 0 && started {
						tuple := make([]T, n)
						copy(tuple, latest)
						sink(Data[[]T]{Value: tuple})
					}
				case End[T]:
					if ended || ups[i].done {
						return
					}
					ups[i].done = true
					if m.Err != nil {
						ended = true
						cancelAll(i)
						if !started {
							started = true
							sink(Start[[]T]{Talkback: noop})
						}
						sink(End[[]T]{Err: m.Err})
						return
					}
					endings++
					if endings == n {
						ended = true
						if !started {
							started = true
							sink(Start[[]T]{Talkback: noop})
						}
						sink(End[[]T]{})
					}
				}
			})
		}
	}
}
