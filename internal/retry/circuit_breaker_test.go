package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := Execute(context.Background(), Policy{MaxAttempts: 3}, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on attempt 3, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d", attempts)
	}
}

func TestExecuteReturnsLastError(t *testing.T) {
	want := errors.New("still broken")
	err := Execute(context.Background(), Policy{MaxAttempts: 2}, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("got %v", err)
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(BreakerPolicy{FailureThreshold: 2, ResetTimeout: 30 * time.Second})
	now := time.Unix(0, 0)

	if !cb.Allow(now) {
		t.Fatal("fresh breaker should allow")
	}
	cb.RecordFailure(now)
	if !cb.Allow(now) {
		t.Fatal("one failure should not trip a threshold of 2")
	}
	cb.RecordFailure(now)
	if cb.Allow(now.Add(time.Second)) {
		t.Fatal("breaker should be open after the threshold")
	}

	// Probe after the reset timeout, then close on success.
	if !cb.Allow(now.Add(31 * time.Second)) {
		t.Fatal("breaker should half-open after the reset timeout")
	}
	cb.RecordSuccess()
	if !cb.Allow(now.Add(32 * time.Second)) {
		t.Fatal("breaker should close on success")
	}
}
