package observability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/talkback/pipeline"
)

// Instrumentation binds Instrument operators to a set of metrics and a tracer.
type Instrumentation struct {
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// NewInstrumentation creates metric instruments on meter. A nil tracer
// falls back to the global provider.
func NewInstrumentation(meter metric.Meter, tracer trace.Tracer) (*Instrumentation, error) {
	m, err := NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	if tracer == nil {
		tracer = Tracer(defaultTracerName)
	}
	return &Instrumentation{metrics: m, tracer: tracer, now: time.Now}, nil
}

// Metrics returns the channel metrics.
func (i *Instrumentation) Metrics() *Metrics { return i.metrics }

// Instrument records every channel of a source: one span per channel, the
// started/ended/active counters, a Data counter and the channel lifetime.
// A channel terminates when the source sends End or the sink cancels.
// Messages after End are dropped.
// With a nil Instrumentation the source is returned unchanged.
func Instrument[T any](inst *Instrumentation, name string) pipeline.Operator[T, T] {
	if inst == nil {
		return func(src pipeline.Source[T]) pipeline.Source[T] { return src }
	}
	return func(src pipeline.Source[T]) pipeline.Source[T] {
		return func(sink pipeline.Sink[T]) {
			c := &channel{inst: inst, name: name}
			var ended bool
			src(func(m pipeline.Message[T]) {
				switch m := m.(type) {
				case pipeline.Start[T]:
					if c.started {
						sink(m)
						return
					}
					c.start()
					tb := m.Talkback
					sink(pipeline.Start[T]{Talkback: func(s pipeline.Signal) {
						if s == pipeline.Cancel {
							c.finish(StatusCanceled, nil)
						}
						tb(s)
					}})
				case pipeline.Data[T]:
					if ended {
						return
					}
					c.data()
					sink(m)
				case pipeline.End[T]:
					if ended {
						return
					}
					ended = true
					if m.Err != nil {
						c.finish(StatusFailed, m.Err)
					} else {
						c.finish(StatusCompleted, nil)
					}
					sink(m)
				}
			})
		}
	}
}

// channel is the telemetry state of one channel.
type channel struct {
	inst *Instrumentation
	name string

	ctx     context.Context
	span    trace.Span
	begin   time.Time
	count   int64
	started bool
	done    bool
}

func (c *channel) start() {
	c.started = true
	c.begin = c.inst.now()
	c.ctx, c.span = c.inst.tracer.Start(context.Background(), SpanChannel,
		trace.WithAttributes(
			attribute.String(AttrOperator, c.name),
			attribute.String(AttrChannelID, uuid.NewString()),
		),
	)
	c.inst.metrics.RecordStart(c.ctx, c.name)
}

func (c *channel) data() {
	if !c.started || c.done {
		return
	}
	c.count++
	c.inst.metrics.RecordData(c.ctx, c.name)
}

func (c *channel) finish(status string, err error) {
	if !c.started || c.done {
		return
	}
	c.done = true

	c.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDataCount, c.count),
	)
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}
	c.span.End()
	c.inst.metrics.RecordEnd(c.ctx, c.name, status, c.inst.now().Sub(c.begin))
}
