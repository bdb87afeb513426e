// Package resilience holds the guards that the pipeline operators wrap
// around flaky sources.
//
//   - RateLimiter: token bucket behind the Throttle operator
//   - RetryConfig: attempt and backoff policy behind the Retry operator
//   - CircuitBreaker: fails new channels fast after repeated source errors
//   - Bulkhead: caps how many channels of one source run at once
//
// The types carry no knowledge of the protocol; they answer "may this
// channel start" and "how long until the next attempt".
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 100, Burst: 20})
//	src = pipeline.Throttle[Event](rl)(src)
package resilience
