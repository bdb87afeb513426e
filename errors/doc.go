// Package errors provides the structured error type carried in END messages
// produced by talkback's own components.
//
// END payloads are plain error values, so user sources may end with any
// error. Failures raised by the library itself (protocol violations, failed
// iterators, canceled drivers) are *StreamError values with a
// machine-readable code and retryable detection, which pipeline.Retry uses
// as its default retry predicate.
package errors
