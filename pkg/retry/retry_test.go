package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "github.com/emanongen/wiki-project/pkg/errors"
)

func TestLinearBackoff(t *testing.T) {
	backoff := &LinearBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Increment:    100 * time.Millisecond,
		JitterFactor: 0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 300 * time.Millisecond, "Third attempt"},
		{10, 1 * time.Second, "Tenth attempt (capped at max)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if delay := backoff.NextDelay(test.attempt); delay != test.expected {
				t.Errorf("Expected delay %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, "Third attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if delay := backoff.NextDelay(test.attempt); delay != test.expected {
				t.Errorf("Expected delay %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestStrategyForPolicy(t *testing.T) {
	linear := StrategyForPolicy("linear", 20*time.Second, 10*time.Minute)
	if _, ok := linear.(*LinearBackoff); !ok {
		t.Errorf("Expected a LinearBackoff for the linear policy, got %T", linear)
	}
	// Linear policy grows as delay*attempt
	if delay := linear.NextDelay(3); delay != 60*time.Second {
		t.Errorf("Expected 60s on the third attempt, got %v", delay)
	}

	exponential := StrategyForPolicy("exponential", 20*time.Second, 10*time.Minute)
	if _, ok := exponential.(*ExponentialBackoff); !ok {
		t.Errorf("Expected an ExponentialBackoff for the exponential policy, got %T", exponential)
	}
	if delay := exponential.NextDelay(3); delay != 80*time.Second {
		t.Errorf("Expected 80s on the third attempt, got %v", delay)
	}

	// Unknown policies fall back to exponential
	if _, ok := StrategyForPolicy("bogus", time.Second, time.Minute).(*ExponentialBackoff); !ok {
		t.Error("Expected the fallback policy to be exponential")
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeServerError, "internal server error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 10,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhaustion(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errs.New(errs.ErrorTypeTransport, "connection refused")
	}

	cfg := &Config{
		MaxAttempts: 4,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err == nil {
		t.Fatal("Expected an error after exhausting retries")
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", attempts)
	}

	var typed *errs.Error
	if !errors.As(err, &typed) || typed.Type != errs.ErrorTypeExhaustedRetries {
		t.Errorf("Expected an exhausted_retries error, got %v", err)
	}
	// The terminal error keeps the last attempt's failure in its chain
	var cause *errs.Error
	if !errors.As(typed.Err, &cause) || cause.Type != errs.ErrorTypeTransport {
		t.Errorf("Expected the transport cause preserved, got %v", typed.Err)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errs.New(errs.ErrorTypeNotFound, "no such entity")
	}

	cfg := &Config{
		MaxAttempts: 10,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err == nil {
		t.Fatal("Expected the error to propagate")
	}
	if attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts)
	}
}

func TestRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	op := func() error {
		attempts++
		cancel()
		return errs.New(errs.ErrorTypeTransport, "connection reset")
	}

	cfg := &Config{
		MaxAttempts: 10,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Second},
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
	}

	err := Do(op, cfg)
	if err == nil {
		t.Fatal("Expected an error after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected a cancellation error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"transport error", errs.New(errs.ErrorTypeTransport, "timeout"), true},
		{"rate limit error", errs.New(errs.ErrorTypeRateLimit, "429"), true},
		{"server error", errs.New(errs.ErrorTypeServerError, "503"), true},
		{"not found", errs.New(errs.ErrorTypeNotFound, "404"), false},
		{"parsing error", errs.New(errs.ErrorTypeParsing, "bad json"), false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"plain error", errors.New("something"), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := DefaultRetryIf(test.err); got != test.expected {
				t.Errorf("Expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errs.New(errs.ErrorTypeServerError, "flaky")
		}
		return "payload", nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if result != "payload" {
		t.Errorf("Expected the operation result, got %q", result)
	}
}

func TestRetrierBuilders(t *testing.T) {
	base := NewRetrier(&Config{
		MaxAttempts: 2,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(error) bool { return true },
		Context:     context.Background(),
	})

	attempts := 0
	err := base.WithMaxAttempts(5).Do(func() error {
		attempts++
		return errors.New("always fails")
	})
	if err == nil {
		t.Fatal("Expected failure")
	}
	if attempts != 5 {
		t.Errorf("Expected the overridden attempt count, got %d", attempts)
	}
}
