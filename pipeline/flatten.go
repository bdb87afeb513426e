package pipeline

// Flatten forwards the values of the inner sources carried by outer,
// keeping at most one inner alive: a new inner cancels the current one.
// When an inner ends normally the outer is pulled for the next inner, or
// the channel ends if the outer has already ended. Any error ends the
// channel and cancels whichever side is still live.
func Flatten[T any](outer Source[Source[T]]) Source[T] {
	return func(sink Sink[T]) {
		var (
			out        upstream
			in         upstream
			gen        int
			active     bool
			outerEnded bool
			ended      bool
		)

		finish := func(err error) {
			if ended {
				return
			}
			ended = true
			in.cancel()
			out.cancel()
			sink(End[T]{Err: err})
		}

		talkback := func(s Signal) {
			if ended {
				return
			}
			if s == Cancel {
				ended = true
				in.cancel()
				out.cancel()
				return
			}
			if active {
				in.pull()
			} else {
				out.pull()
			}
		}

		outer(func(m Message[Source[T]]) {
			switch m := m.(type) {
			case Start[Source[T]]:
				out.start(m.Talkback)
				sink(Start[T]{Talkback: talkback})
			case Data[Source[T]]:
				if ended || out.done {
					return
				}
				in.cancel()
				gen++
				g := gen
				active = true
				m.Value(func(im Message[T]) {
					if ended || g != gen {
						if s, ok := im.(Start[T]); ok {
							s.Talkback(Cancel)
						}
						return
					}
					switch im := im.(type) {
					case Start[T]:
						in.start(im.Talkback)
						in.pull()
					case Data[T]:
						if in.done {
							return
						}
						sink(im)
					case End[T]:
						if in.done {
							return
						}
						in.done = true
						active = false
						if im.Err != nil {
							finish(im.Err)
							return
						}
						if outerEnded {
							finish(nil)
							return
						}
						out.pull()
					}
				})
			case End[Source[T]]:
				if ended || out.done {
					return
				}
				out.done = true
				outerEnded = true
				if m.Err != nil {
					finish(m.Err)
					return
				}
				if !active {
					finish(nil)
				}
			}
		})
	}
}
