package pipeline

// upstream tracks the talkback of one upstream channel and stops using it
// once that channel ended or was canceled.
type upstream struct {
	talkback Talkback
	done     bool
}

func (u *upstream) start(tb Talkback) {
	u.talkback = tb
	u.done = false
}

func (u *upstream) pull() {
	if !u.done && u.talkback != nil {
		u.talkback(Pull)
	}
}

func (u *upstream) cancel() {
	if u.done {
		return
	}
	u.done = true
	if u.talkback != nil {
		u.talkback(Cancel)
	}
}

// relay forwards downstream signals, ignoring them once the channel is dead.
func (u *upstream) relay(s Signal) {
	if s == Cancel {
		u.cancel()
		return
	}
	u.pull()
}

// Map transforms every value with fn. Start and the first End pass through
// unchanged; anything after End is dropped.
func Map[T, R any](fn func(T) R) Operator[T, R] {
	return func(src Source[T]) Source[R] {
		return func(sink Sink[R]) {
			var ended bool
			src(func(m Message[T]) {
				switch m := m.(type) {
				case Start[T]:
					sink(Start[R]{Talkback: m.Talkback})
				case Data[T]:
					if !ended {
						sink(Data[R]{Value: fn(m.Value)})
					}
				case End[T]:
					if !ended {
						ended = true
						sink(End[R]{Err: m.Err})
					}
				}
			})
		}
	}
}

// Tap calls fn for every value and forwards it unchanged.
func Tap[T any](fn func(T)) Operator[T, T] {
	return Map(func(v T) T {
		fn(v)
		return v
	})
}

// Filter forwards values for which pred holds. Each dropped value is
// answered with one Pull so a pull source keeps advancing.
func Filter[T any](pred func(T) bool) Operator[T, T] {
	return func(src Source[T]) Source[T] {
		return func(sink Sink[T]) {
			var up upstream
			src(func(m Message[T]) {
				switch m := m.(type) {
				case Start[T]:
					up.start(m.Talkback)
					sink(Start[T]{Talkback: up.relay})
				case Data[T]:
					if up.done {
						return
					}
					if pred(m.Value) {
						sink(m)
					} else {
						up.pull()
					}
				case End[T]:
					if up.done {
						return
					}
					up.done = true
					sink(m)
				}
			})
		}
	}
}

// Scan emits the running accumulation of reducer over the values,
// starting from seed.
func Scan[T, R any](reducer func(acc R, v T) R, seed R) Operator[T, R] {
	return func(src Source[T]) Source[R] {
		return func(sink Sink[R]) {
			acc := seed
			var ended bool
			src(func(m Message[T]) {
				switch m := m.(type) {
				case Start[T]:
					sink(Start[R]{Talkback: m.Talkback})
				case Data[T]:
					if ended {
						return
					}
					acc = reducer(acc, m.Value)
					sink(Data[R]{Value: acc})
				case End[T]:
					if !ended {
						ended = true
						sink(End[R]{Err: m.Err})
					}
				}
			})
		}
	}
}

// ScanFirst is Scan without a seed: the first value becomes the
// accumulator and is forwarded as-is.
func ScanFirst[T any](reducer func(acc, v T) T) Operator[T, T] {
	return func(src Source[T]) Source[T] {
		return func(sink Sink[T]) {
			var (
				acc    T
				seeded bool
				ended  bool
			)
			src(func(m Message[T]) {
				switch m := m.(type) {
				case Start[T]:
					sink(m)
				case Data[T]:
					if ended {
						return
					}
					if seeded {
						acc = reducer(acc, m.Value)
					} else {
						acc, seeded = m.Value, true
					}
					sink(Data[T]{Value: acc})
				case End[T]:
					if !ended {
						ended = true
						sink(m)
					}
				}
			})
		}
	}
}

// Take forwards at most n values. After the n-th it ends downstream and
// then cancels upstream; later pulls are ignored.
func Take[T any](n int) Operator[T, T] {
	return func(src Source[T]) Source[T] {
		return func(sink Sink[T]) {
			var (
				up    upstream
				taken int
				ended bool
			)
			src(func(m Message[T]) {
				switch m := m.(type) {
				case Start[T]:
					up.start(m.Talkback)
					if n <= 0 {
						ended = true
						canceled := false
						sink(Start[T]{Talkback: func(s Signal) {
							if s == Cancel {
								canceled = true
							}
						}})
						if !canceled {
							sink(End[T]{})
						}
						up.cancel()
						return
					}
					sink(Start[T]{Talkback: func(s Signal) {
						if ended {
							return
						}
						if s == Cancel {
							ended = true
						}
						up.relay(s)
					}})
				case Data[T]:
					if ended {
						return
					}
					taken++
					sink(m)
					if taken >= n && !ended {
						ended = true
						sink(End[T]{})
						up.cancel()
					}
				case End[T]:
					if ended {
						return
					}
					ended = true
					up.done = true
					sink(m)
				}
			})
		}
	}
}

// Skip drops the first n values, answering each with a Pull, and forwards
// the rest.
func Skip[T any](n int) Operator[T, T] {
	return func(src Source[T]) Source[T] {
		return func(sink Sink[T]) {
			var (
				up      upstream
				skipped int
			)
			src(func(m Message[T]) {
				switch m := m.(type) {
				case Start[T]:
					up.start(m.Talkback)
					sink(Start[T]{Talkback: up.relay})
				case Data[T]:
					if up.done {
						return
					}
					if skipped < n {
						skipped++
						up.pull()
						return
					}
					sink(m)
				case End[T]:
					if up.done {
						return
					}
					up.done = true
					sink(m)
				}
			})
		}
	}
}
