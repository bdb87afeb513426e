// Package bootstrap assembles the runtime of a process that runs pipelines.
//
// From a config.Config it builds the logger, the scheduler Loop that push
// producers deliver on, and (when enabled) the OpenTelemetry meter and
// tracer providers behind observability.Instrument. RunTask and Run drive
// the Loop and shut everything down afterwards.
//
// # Quick Start
//
//	var cfg config.Config
//	_ = config.Load("ingest", &cfg)
//	rt, err := bootstrap.New(&cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = rt.RunTask(ctx, func(ctx context.Context) error {
//		events := pipeline.FromChannel(ch, rt.Loop())
//		events = bootstrap.Stage[Event](rt, "events")(events)
//		return pipeline.Drain(ctx, events, handle, pipeline.WithScheduler(rt.Loop()))
//	})
package bootstrap
