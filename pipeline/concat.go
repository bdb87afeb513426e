package pipeline

// Concat emits the values of each source in turn, starting source i+1 only
// after source i has ended normally. Only the first source's Start reaches
// downstream; later sources are primed with a Pull when downstream has
// already pulled. An error from any source ends the concatenation.
//
// Concat of zero sources starts and ends immediately.
func Concat[T any](sources ...Source[T]) Source[T] {
	return func(sink Sink[T]) {
		n := len(sources)
		if n == 0 {
			Empty[T]()(sink)
			return
		}

		var (
			up        upstream
			idx       int
			pulled    bool
			ended     bool
			advancing bool
			next      bool
		)

		talkback := func(s Signal) {
			if ended {
				return
			}
			if s == Cancel {
				ended = true
				up.cancel()
				return
			}
			pulled = true
			up.pull()
		}

		var subscribe func()
		// advance starts the next source. A source that ends synchronously
		// while being started sets next instead of recursing.
		advance := func() {
			next = true
			if advancing {
				return
			}
			advancing = true
			for next && !ended {
				next = false
				subscribe()
			}
			advancing = false
		}

		subscribe = func() {
			i := idx
			sources[i](func(m Message[T]) {
				if ended || idx != i {
					if s, ok := m.(Start[T]); ok && idx != i {
						s.Talkback(Cancel)
					}
					return
				}
				switch m := m.(type) {
				case Start[T]:
					up.start(m.Talkback)
					if i == 0 {
						sink(Start[T]{Talkback: talkback})
					} else if pulled {
						up.pull()
					}
				case Data[T]:
					if up.done {
						return
					}
					sink(m)
				case End[T]:
					if up.done {
						return
					}
					up.done = true
					if m.Err != nil || i == n-1 {
						ended = true
						sink(m)
						return
					}
					idx++
					advance()
				}
			})
		}

		advance()
	}
}
