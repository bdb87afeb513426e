// Package pipeline implements a tiny bidirectional handshake protocol for
// composing producers and consumers, plus operators built strictly on top
// of it.
//
// A Source is started by calling it with a Sink. Before returning, the
// source greets the sink with a Start message carrying a Talkback; after
// that the source sends zero or more Data messages and exactly one End.
// The sink uses the talkback to send Pull (request one more value) or
// Cancel upstream. Pull-driven sources (iterators) produce only when
// pulled; push-driven sources (channels, timers, subjects) produce on their
// own schedule and treat Pull as a hint.
//
// Dispatch is synchronous and cooperative: one call stack carries one
// message. Push producers that fire on their own goroutines hand their
// deliveries to a Scheduler (usually a Loop) so every sink of a channel is
// called from a single goroutine.
//
// # Operators
//
// Single source:
//
//   - Map, Filter, Scan, ScanFirst, Take, Skip, Tap
//   - Throttle, Retry, Breaker, Limit: resilience guards
//   - Log, Guard: diagnostics
//
// Multiple sources:
//
//   - Merge: interleave, end when all ended
//   - Concat: one after another
//   - Combine: latest value of every source, once all have emitted
//   - Flatten: switch to the newest inner source
//   - Sample, SampleWhen: a push clock driving a second source
//
// Multicast:
//
//   - Share: one upstream producer for many sinks
//   - Subject: imperative multicast endpoint
//
// # Usage
//
//	src := pipeline.FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8})
//	doubled := pipeline.Map(func(n int) int { return n * 2 })(src)
//	evens := pipeline.Filter(func(n int) bool { return n%4 == 0 })(doubled)
//	got, err := pipeline.Collect(ctx, pipeline.Take[int](2)(evens)) // [4 8]
//
// With push producers:
//
//	loop := pipeline.NewLoop(pipeline.LoopConfig{Name: "ticks"})
//	go loop.Run(ctx)
//	ticks := pipeline.Interval(time.Second, loop)
//	pipeline.Observe(pipeline.Take[int](3)(ticks), func(i int) { fmt.Println(i) })
package pipeline
