package pipeline

import (
	"github.com/google/uuid"

	"github.com/kbukum/talkback/logger"
)

// Log writes a debug entry for every message crossing it, in both
// directions, tagged with the operator name and a per-channel id. When
// debug logging is off at invocation time the source is wired straight
// through. Messages after End are dropped.
func Log[T any](l *logger.Logger, name string) Operator[T, T] {
	if l == nil {
		l = logger.Get("pipeline")
	}
	l = l.WithFields(logger.Fields(logger.FieldOperator, name))

	return func(src Source[T]) Source[T] {
		return func(sink Sink[T]) {
			if !l.DebugEnabled() {
				src(sink)
				return
			}
			cl := l.WithFields(logger.Fields(logger.FieldChannel, uuid.NewString()))
			var ended bool
			src(func(m Message[T]) {
				switch m := m.(type) {
				case Start[T]:
					cl.Debug("start")
					tb := m.Talkback
					sink(Start[T]{Talkback: func(s Signal) {
						cl.Debug("talkback", logger.Fields(logger.FieldSignal, s.String()))
						tb(s)
					}})
				case Data[T]:
					if ended {
						return
					}
					cl.Debug("data", logger.Fields(logger.FieldValue, m.Value))
					sink(m)
				case End[T]:
					if ended {
						return
					}
					ended = true
					if m.Err != nil {
						cl.Debug("end", logger.Fields(logger.FieldError, m.Err.Error()))
					} else {
						cl.Debug("end")
					}
					sink(m)
				}
			})
		}
	}
}
