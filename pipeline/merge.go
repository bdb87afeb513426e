package pipeline

// Merge interleaves the values of all sources. Downstream Pull and Cancel
// are broadcast to every live source. The merged channel ends once every
// source has ended, or at the first error, which cancels the others.
//
// Merge of zero sources starts and never ends.
func Merge[T any](sources ...Source[T]) Source[T] {
	return func(sink Sink[T]) {
		n := len(sources)
		if n == 0 {
			sink(Start[T]{Talkback: noop})
			return
		}

		var (
			ups     = make([]upstream, n)
			started bool
			pulled  bool
			ended   bool
			endings int
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
			pulled = true
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
					if !started {
						started = true
						sink(Start[T]{Talkback: talkback})
					} else if pulled {
						ups[i].pull()
					}
				case Data[T]:
					if ended || ups[i].done {
						return
					}
					sink(m)
				case End[T]:
					if ended || ups[i].done {
						return
					}
					ups[i].done = true
					if m.Err != nil {
						ended = true
						cancelAll(i)
						sink(m)
						return
					}
					endings++
					if endings == n {
						ended = true
						sink(End[T]{})
					}
				}
			})
		}
	}
}
