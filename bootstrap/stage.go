package bootstrap

import (
	"github.com/kbukum/talkback/observability"
	"github.com/kbukum/talkback/pipeline"
)

// Guard returns a protocol Guard configured by the runtime's guard section.
func Guard[T any](r *Runtime) pipeline.Operator[T, T] {
	return pipeline.Guard[T](r.Cfg.Guard, r.Logger.WithComponent("pipeline.guard"))
}

// Instrument returns an Instrument operator bound to the runtime's telemetry.
func Instrument[T any](r *Runtime, name string) pipeline.Operator[T, T] {
	return observability.Instrument[T](r.inst, name)
}

// Stage wraps a source the way the runtime is configured: the guard
// checks it, debug logging traces it when the service runs with debug on,
// and the channel is instrumented under name.
func Stage[T any](r *Runtime, name string) pipeline.Operator[T, T] {
	ops := []pipeline.Operator[T, T]{Guard[T](r)}
	if r.Cfg.Debug {
		ops = append(ops, pipeline.Log[T](r.Logger, name))
	}
	ops = append(ops, Instrument[T](r, name))
	return func(src pipeline.Source[T]) pipeline.Source[T] {
		return pipeline.Pipe(src, ops...)
	}
}
