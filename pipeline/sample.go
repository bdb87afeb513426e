package pipeline

// Sample turns a listenable into a clock for pullable: every value from the
// listenable sends one Pull to pullable, and pullable's values are
// forwarded. Either side ending ends the channel and cancels the other.
func Sample[T, U any](pullable Source[T]) Operator[U, T] {
	return func(listenable Source[U]) Source[T] {
		return func(sink Sink[T]) {
			var (
				clock upstream
				pull  upstream
				ended bool
			)

			finish := func(err error) {
				if ended {
					return
				}
				ended = true
				clock.cancel()
				pull.cancel()
				sink(End[T]{Err: err})
			}

			talkback := func(s Signal) {
				if ended || s != Cancel {
					return
				}
				ended = true
				clock.cancel()
				pull.cancel()
			}

			listenable(func(m Message[U]) {
				switch m := m.(type) {
				case Start[U]:
					clock.start(m.Talkback)
					sink(Start[T]{Talkback: talkback})
					if ended {
						clock.cancel()
						return
					}
					pullable(func(pm Message[T]) {
						switch pm := pm.(type) {
						case Start[T]:
							if ended {
								pm.Talkback(Cancel)
								return
							}
							pull.start(pm.Talkback)
						case Data[T]:
							if !ended {
								sink(pm)
							}
						case End[T]:
							if ended || pull.done {
								return
							}
							pull.done = true
							finish(pm.Err)
						}
					})
				case Data[U]:
					if !ended {
						pull.pull()
					}
				case End[U]:
					if ended || clock.done {
						return
					}
					clock.done = true
					finish(m.Err)
				}
			})
		}
	}
}

// SampleWhen holds the latest value of the source and emits it every time
// sampler emits, once a first value has been seen. Either side ending ends
// the channel and cancels the other. Pulls from downstream are ignored.
func SampleWhen[T, U any](sampler Source[U]) Operator[T, T] {
	return func(listenable Source[T]) Source[T] {
		return func(sink Sink[T]) {
			var (
				src    upstream
				clock  upstream
				latest T
				seen   bool
				ended  bool
			)

			finish := func(err error) {
				if ended {
					return
				}
				ended = true
				src.cancel()
				clock.cancel()
				sink(End[T]{Err: err})
			}

			talkback := func(s Signal) {
				if ended || s != Cancel {
					return
				}
				ended = true
				src.cancel()
				clock.cancel()
			}

			listenable(func(m Message[T]) {
				switch m := m.(type) {
				case Start[T]:
					src.start(m.Talkback)
					sink(Start[T]{Talkback: talkback})
					if ended {
						src.cancel()
						return
					}
					sampler(func(sm Message[U]) {
						switch sm := sm.(type) {
						case Start[U]:
							if ended {
								sm.Talkback(Cancel)
								return
							}
							clock.start(sm.Talkback)
						case Data[U]:
							if !ended && seen {
								sink(Data[T]{Value: latest})
							}
						case End[U]:
							if ended || clock.done {
								return
							}
							clock.done = true
							finish(sm.Err)
						}
					})
				case Data[T]:
					if !ended {
						latest, seen = m.Value, true
					}
				case End[T]:
					if ended || src.done {
						return
					}
					src.done = true
					finish(m.Err)
				}
			})
		}
	}
}
