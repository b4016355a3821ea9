// Package retry wraps feed fetches with backoff and a circuit breaker so a
// flapping session store degrades the refresh cadence instead of hammering
// the backend or wedging the dashboard.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// BackoffStrategy selects how retry delays grow.
type BackoffStrategy string

const (
	BackoffLinear            BackoffStrategy = "linear"
	BackoffExponential       BackoffStrategy = "exponential"
	BackoffExponentialJitter BackoffStrategy = "exponential_jitter"
)

// Policy is a simple bounded retry policy.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffStrategy
}

// Execute runs fn up to MaxAttempts times, sleeping between attempts.
func Execute(ctx context.Context, policy Policy, fn func(context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := fn(ctx); err != nil {
			lastErr = err
			if i == attempts {
				return lastErr
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffFor(policy.Backoff, i)):
			}
			continue
		}
		return nil
	}
	return lastErr
}

func backoffFor(strategy BackoffStrategy, attempt int) time.Duration {
	base := 100 * time.Millisecond
	switch strategy {
	case BackoffExponential:
		return base * time.Duration(1<<uint(attempt-1))
	case BackoffExponentialJitter:
		exp := base * time.Duration(1<<uint(attempt-1))
		jitter := time.Duration(rand.Int63n(int64(base)))
		return exp + jitter
	default:
		return base * time.Duration(attempt)
	}
}
