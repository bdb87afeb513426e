package errors

import (
	stderrors "errors"
	"fmt"
)

// StreamError is the structured error used by talkback components.
type StreamError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if re-invoking the source may succeed.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *StreamError) Unwrap() error { return e.Cause }

// Is reports whether target is a *StreamError with the same code.
// It makes errors.Is(err, errors.New(ErrCodeCanceled, "")) work on codes.
func (e *StreamError) Is(target error) bool {
	var t *StreamError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *StreamError) WithCause(cause error) *StreamError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *StreamError) WithDetails(details map[string]any) *StreamError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *StreamError) WithDetail(key string, value any) *StreamError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new StreamError with automatic retryable detection.
func New(code ErrorCode, message string) *StreamError {
	return &StreamError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// ProtocolViolation reports a broken handshake rule.
func ProtocolViolation(rule string) *StreamError {
	return &StreamError{
		Code: ErrCodeProtocolViolation, Message: fmt.Sprintf("protocol violation: %s", rule),
		Details: map[string]any{"rule": rule},
	}
}

// SourceFailed wraps a failure of the collaborator behind a source.
func SourceFailed(source string, cause error) *StreamError {
	return &StreamError{
		Code: ErrCodeSourceFailed, Message: fmt.Sprintf("%s source failed", source),
		Retryable: true, Details: map[string]any{"source": source}, Cause: cause,
	}
}

// Timeout reports a driver whose deadline expired before END.
func Timeout(operation string) *StreamError {
	return &StreamError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s timed out before the source ended", operation),
		Retryable: true, Details: map[string]any{"operation": operation},
	}
}

// Canceled reports a driver canceled before END.
func Canceled(operation string) *StreamError {
	return &StreamError{
		Code: ErrCodeCanceled, Message: fmt.Sprintf("%s canceled before the source ended", operation),
		Details: map[string]any{"operation": operation},
	}
}

// Rejected reports a channel refused by a resilience guard such as a
// circuit breaker or bulkhead.
func Rejected(guard string, cause error) *StreamError {
	return &StreamError{
		Code: ErrCodeRejected, Message: fmt.Sprintf("rejected by %s", guard),
		Retryable: true, Details: map[string]any{"guard": guard}, Cause: cause,
	}
}

// InvalidInput creates a new StreamError for invalid input.
func InvalidInput(field, reason string) *StreamError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &StreamError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new StreamError for failed struct validation.
func Validation(message string) *StreamError {
	return &StreamError{Code: ErrCodeInvalidInput, Message: message}
}

// Internal creates a new StreamError for an unexpected failure.
func Internal(cause error) *StreamError {
	return &StreamError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause,
	}
}

// --- Inspection ---

// AsStreamError converts an error to a StreamError if possible.
func AsStreamError(err error) (*StreamError, bool) {
	var se *StreamError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the code of the first StreamError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if se, ok := AsStreamError(err); ok {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether err is a retryable StreamError.
// Plain errors are not retryable.
func IsRetryable(err error) bool {
	se, ok := AsStreamError(err)
	return ok && se.Retryable
}
