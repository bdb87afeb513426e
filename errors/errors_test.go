package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestStreamError_New_Success(t *testing.T) {
	err := New(ErrCodeProtocolViolation, "bad handshake")
	if err.Code != ErrCodeProtocolViolation {
		t.Errorf("expected code %s, got %s", ErrCodeProtocolViolation, err.Code)
	}
	if err.Message != "bad handshake" {
		t.Errorf("expected message 'bad handshake', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("PROTOCOL_VIOLATION should not be retryable")
	}
}

func TestStreamError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestStreamError_SourceFailed_Success(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := SourceFailed("iterator", cause)
	if err.Code != ErrCodeSourceFailed {
		t.Errorf("expected SOURCE_FAILED, got %s", err.Code)
	}
	if !err.Retryable {
		t.Error("SourceFailed should be retryable")
	}
	if err.Details["source"] != "iterator" {
		t.Errorf("expected source=iterator, got %v", err.Details["source"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestStreamError_ProtocolViolation_Rule(t *testing.T) {
	err := ProtocolViolation("data before start")
	if err.Details["rule"] != "data before start" {
		t.Errorf("expected rule detail, got %v", err.Details["rule"])
	}
	if !strings.Contains(err.Error(), "data before start") {
		t.Errorf("expected rule in message, got %q", err.Error())
	}
}

func TestStreamError_InvalidInput_EmptyField(t *testing.T) {
	err := InvalidInput("", "oops")
	if _, ok := err.Details["field"]; ok {
		t.Error("expected no 'field' key in details when field is empty")
	}
}

func TestStreamError_WithDetails_Merge(t *testing.T) {
	err := New(ErrCodeInternal, "x").WithDetails(map[string]any{"a": 1})
	err.WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestStreamError_WithDetail_NilMap(t *testing.T) {
	err := &StreamError{Code: ErrCodeInternal}
	err.WithDetail("k", "v")
	if err.Details["k"] != "v" {
		t.Errorf("expected k=v, got %v", err.Details)
	}
}

func TestStreamError_Error_Format(t *testing.T) {
	err := New(ErrCodeCanceled, "stop")
	if err.Error() != "CANCELED: stop" {
		t.Errorf("unexpected format %q", err.Error())
	}
	err.WithCause(stderrors.New("ctx"))
	if err.Error() != "CANCELED: stop (cause: ctx)" {
		t.Errorf("unexpected format with cause %q", err.Error())
	}
}

func TestStreamError_Is_ComparesCodes(t *testing.T) {
	wrapped := fmt.Errorf("drain: %w", Canceled("drain"))
	if !stderrors.Is(wrapped, New(ErrCodeCanceled, "")) {
		t.Error("expected code match through wrapping")
	}
	if stderrors.Is(wrapped, New(ErrCodeTimeout, "")) {
		t.Error("different codes must not match")
	}
}

func TestAsStreamError_And_CodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Timeout("collect"))
	se, ok := AsStreamError(wrapped)
	if !ok || se.Code != ErrCodeTimeout {
		t.Fatalf("expected TIMEOUT stream error, got %v %v", se, ok)
	}
	if CodeOf(wrapped) != ErrCodeTimeout {
		t.Errorf("expected CodeOf TIMEOUT, got %s", CodeOf(wrapped))
	}
	if CodeOf(stderrors.New("plain")) != "" {
		t.Error("plain errors have no code")
	}
}

func TestIsRetryable_Table(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", stderrors.New("x"), false},
		{"source failed", SourceFailed("s", nil), true},
		{"timeout", Timeout("op"), true},
		{"canceled", Canceled("op"), false},
		{"violation", ProtocolViolation("r"), false},
		{"wrapped retryable", fmt.Errorf("w: %w", SourceFailed("s", nil)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_IsRetryableCode_Table(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeSourceFailed, true},
		{ErrCodeTimeout, true},
		{ErrCodeRejected, true},
		{ErrCodeCanceled, false},
		{ErrCodeInternal, false},
		{ErrCodeInvalidInput, false},
	}
	for _, tt := range tests {
		if got := IsRetryableCode(tt.code); got != tt.want {
			t.Errorf("IsRetryableCode(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRejected(t *testing.T) {
	cause := stderrors.New("open")
	err := Rejected("circuit breaker", cause)
	if err.Code != ErrCodeRejected || !err.Retryable {
		t.Errorf("unexpected error: %+v", err)
	}
	if err.Details["guard"] != "circuit breaker" {
		t.Errorf("guard detail = %v", err.Details["guard"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
}

func TestStreamError_ImplementsErrorInterface(t *testing.T) {
	var _ error = Internal(nil)
}
