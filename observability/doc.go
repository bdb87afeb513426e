// Package observability provides OpenTelemetry tracing and metrics for
// pipeline channels.
//
// Providers:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("ingest"))
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("ingest"))
//	defer mp.Shutdown(ctx)
//
// Instrumenting a source:
//
//	inst, err := observability.NewInstrumentation(observability.Meter("ingest"), observability.Tracer("ingest"))
//	src = observability.Instrument[Event](inst, "events")(src)
//
// Every channel of src then counts as one started and one ended channel,
// its Data messages are counted, its lifetime is recorded in a histogram,
// and it is traced as a single span.
//
// Health checks:
//
//	health := observability.NewServiceHealth("ingest", "1.0.0")
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
