package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestPacerSpacesCalls(t *testing.T) {
	pacer := NewPacer(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := pacer.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First call is immediate, the next two wait out the interval
	if elapsed < 100*time.Millisecond {
		t.Errorf("Expected at least 100ms across three calls, got %v", elapsed)
	}
}

func TestPacerCancelledContext(t *testing.T) {
	pacer := NewPacer(10 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	// Drain the initial token so the next wait blocks
	if err := pacer.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	cancel()
	if err := pacer.Wait(ctx); err == nil {
		t.Error("Expected an error from a cancelled wait")
	}
}

func TestNoopNeverBlocks(t *testing.T) {
	limiter := Noop()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected no-op waits to return immediately, took %v", elapsed)
	}
}
