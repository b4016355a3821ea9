package retry

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker refuses fetches.
var ErrCircuitOpen = errors.New("feed circuit breaker open")

// BreakerPolicy configures one circuit breaker.
type BreakerPolicy struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// CircuitBreaker trips after consecutive fetch failures and allows a probe
// once the reset timeout elapses.
type CircuitBreaker struct {
	mu                  sync.Mutex
	policy              BreakerPolicy
	consecutiveFailures int
	openUntil           time.Time
}

func NewCircuitBreaker(policy BreakerPolicy) *CircuitBreaker {
	if policy.FailureThreshold <= 0 {
		policy.FailureThreshold = 3
	}
	if policy.ResetTimeout <= 0 {
		policy.ResetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{policy: policy}
}

// Allow reports whether a fetch may proceed at now.
func (cb *CircuitBreaker) Allow(now time.Time) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.openUntil.IsZero() {
		return true
	}
	if now.Before(cb.openUntil) {
		return false
	}

	// Half-open: let a trial fetch through and reset counters.
	cb.openUntil = time.Time{}
	cb.consecutiveFailures = 0
	return true
}

// RecordSuccess closes the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures = 0
	cb.openUntil = time.Time{}
}

// RecordFailure counts one failure and opens the breaker at the threshold.
func (cb *CircuitBreaker) RecordFailure(now time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFailures++
	if cb.consecutiveFailures >= cb.policy.FailureThreshold {
		cb.openUntil = now.Add(cb.policy.ResetTimeout)
	}
}
