package errors

import (
	"errors"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{Type: ErrorTypeRateLimit, Message: "rate limit exceeded", Code: 429}
	if got := err.Error(); got == "" {
		t.Error("Expected a non-empty error message")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrorTypePersistence, "failed to write pointer", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected the cause in the error chain")
	}

	var typed *Error
	if !errors.As(err, &typed) || typed.Type != ErrorTypePersistence {
		t.Errorf("Expected a persistence error, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		expected  bool
	}{
		{ErrorTypeTransport, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeNotFound, false},
		{ErrorTypeParsing, false},
		{ErrorTypeMalformedCursor, false},
		{ErrorTypePersistence, false},
		{ErrorTypeExhaustedRetries, false},
		{ErrorTypeSchema, false},
		{ErrorTypeUnknown, false},
	}

	for _, test := range tests {
		if got := IsRetryable(test.errorType); got != test.expected {
			t.Errorf("IsRetryable(%s): expected %v, got %v", test.errorType, test.expected, got)
		}
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	retryable := []int{429, 500, 502, 503, 504}
	for _, code := range retryable {
		if !IsRetryableStatusCode(code) {
			t.Errorf("Expected status %d to be retryable", code)
		}
	}

	terminal := []int{200, 400, 401, 403, 404}
	for _, code := range terminal {
		if IsRetryableStatusCode(code) {
			t.Errorf("Expected status %d to be terminal", code)
		}
	}
}
