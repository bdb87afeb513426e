package pipeline

import (
	"github.com/google/uuid"

	"github.com/kbukum/talkback/errors"
	"github.com/kbukum/talkback/logger"
)

// Protocol rules checked by Guard.
const (
	RuleDataBeforeStart  = "data before start"
	RuleEndBeforeStart   = "end before start"
	RuleDuplicateStart   = "duplicate start"
	RuleMessageAfterEnd  = "message after end"
	RuleTalkbackAfterEnd = "talkback after end"
	RuleAsyncHandshake   = "start not sent synchronously"
)

// GuardConfig configures the Guard operator.
type GuardConfig struct {
	// Enabled turns the checks on. A disabled Guard returns its source unchanged.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Strict ends the channel with a PROTOCOL_VIOLATION error on ordering
	// violations instead of only logging and dropping.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// Guard sits between a source and its sink and checks both directions of
// the channel against the handshake rules. Every violation is logged as a
// warning and the offending message is dropped. In strict mode a violation
// by the source ends the channel with a PROTOCOL_VIOLATION error and
// cancels the source.
func Guard[T any](cfg GuardConfig, log *logger.Logger) Operator[T, T] {
	if !cfg.Enabled {
		return func(src Source[T]) Source[T] { return src }
	}
	if log == nil {
		log = logger.Get("pipeline.guard")
	}
	return func(src Source[T]) Source[T] {
		return func(sink Sink[T]) {
			g := &guard[T]{
				strict: cfg.Strict,
				sink:   sink,
				log:    log.WithFields(logger.Fields(logger.FieldChannel, uuid.NewString())),
			}
			src(g.receive)
			if !g.upStarted && !g.ended {
				g.violation(RuleAsyncHandshake)
				if g.strict {
					g.fail(RuleAsyncHandshake)
				}
			}
		}
	}
}

type guard[T any] struct {
	strict bool
	sink   Sink[T]
	log    *logger.Logger

	up          upstream
	upStarted   bool
	downStarted bool
	canceled    bool
	ended       bool
}

func (g *guard[T]) receive(m Message[T]) {
	switch m := m.(type) {
	case Start[T]:
		if g.upStarted {
			g.violation(RuleDuplicateStart)
			return
		}
		g.upStarted = true
		if g.ended {
			// The channel already failed; refuse the late producer.
			m.Talkback(Cancel)
			return
		}
		g.up.start(m.Talkback)
		g.downStarted = true
		g.sink(Start[T]{Talkback: g.talkback})
	case Data[T]:
		switch {
		case !g.upStarted:
			g.violation(RuleDataBeforeStart)
			if g.strict {
				g.fail(RuleDataBeforeStart)
			}
		case g.ended:
			g.afterEnd()
		default:
			g.sink(m)
		}
	case End[T]:
		switch {
		case !g.upStarted:
			g.violation(RuleEndBeforeStart)
			if g.strict {
				g.fail(RuleEndBeforeStart)
				return
			}
			g.ended = true
			g.downStarted = true
			g.sink(Start[T]{Talkback: g.talkback})
			g.sink(m)
		case g.ended:
			g.afterEnd()
		default:
			g.ended = true
			g.up.done = true
			g.sink(m)
		}
	}
}

// afterEnd reports traffic on a dead channel. A source may still be
// finishing a delivery when a cancel arrives, so that case is not reported.
func (g *guard[T]) afterEnd() {
	if g.canceled {
		return
	}
	g.violation(RuleMessageAfterEnd)
}

func (g *guard[T]) talkback(s Signal) {
	if g.ended {
		g.violation(RuleTalkbackAfterEnd, logger.FieldSignal, s.String())
		return
	}
	if s == Cancel {
		g.ended = true
		g.canceled = true
	}
	g.up.relay(s)
}

func (g *guard[T]) fail(rule string) {
	if g.ended {
		return
	}
	if !g.downStarted {
		g.downStarted = true
		g.sink(Start[T]{Talkback: g.talkback})
	}
	g.ended = true
	g.up.cancel()
	g.sink(End[T]{Err: errors.ProtocolViolation(rule)})
}

func (g *guard[T]) violation(rule string, kvs ...interface{}) {
	fields := logger.Fields(append([]interface{}{logger.FieldRule, rule}, kvs...)...)
	g.log.Warn("protocol violation", fields)
}
