package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Protocol errors
const (
	// ErrCodeProtocolViolation indicates a source or sink broke the handshake rules.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
)

// Producer errors
const (
	// ErrCodeSourceFailed indicates the collaborator behind a source failed.
	ErrCodeSourceFailed ErrorCode = "SOURCE_FAILED"
	// ErrCodeTimeout indicates a driver gave up waiting for END.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates a driver was canceled before END arrived.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeRejected indicates a resilience guard refused to start or continue a channel.
	ErrCodeRejected ErrorCode = "REJECTED"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected library failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeSourceFailed: true,
	ErrCodeTimeout:      true,
	ErrCodeRejected:     true,
	ErrCodeInternal:     false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
