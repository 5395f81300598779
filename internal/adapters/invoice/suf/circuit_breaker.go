package suf

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int

const (
	CircuitBreakerClosed   CircuitBreakerState = iota // Normal operation
	CircuitBreakerOpen                                // Portal calls fail fast
	CircuitBreakerHalfOpen                            // Probing whether the portal recovered
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitBreakerOpen:
		return "open"
	case CircuitBreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned without calling the portal while the circuit is open.
var ErrCircuitOpen = errors.New("portal circuit breaker is open")

// CircuitBreaker stops hammering the portal once it keeps failing. Only
// upstream failures count: cancellations and 4xx answers do not.
type CircuitBreaker struct {
	maxFailures      int           // Consecutive-ish failures before opening
	failureThreshold float64       // Failure rate threshold (0.0-1.0)
	minRequests      int           // Requests observed before the rate applies
	cooldownPeriod   time.Duration // Time to wait before probing
	successThreshold int           // Successes needed to close from half-open
	now              func() time.Time

	mu              sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	successCount    int
	totalRequests   int
	lastStateChange time.Time
}

// NewCircuitBreaker creates a circuit breaker. Non-positive arguments fall
// back to 5 failures, a 50% rate and a 30s cooldown.
func NewCircuitBreaker(maxFailures int, failureThreshold float64, cooldownPeriod time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if failureThreshold <= 0 || failureThreshold > 1 {
		failureThreshold = 0.5
	}
	if cooldownPeriod <= 0 {
		cooldownPeriod = 30 * time.Second
	}

	return &CircuitBreaker{
		maxFailures:      maxFailures,
		failureThreshold: failureThreshold,
		minRequests:      2 * maxFailures,
		cooldownPeriod:   cooldownPeriod,
		successThreshold: 2,
		now:              time.Now,
		state:            CircuitBreakerClosed,
	}
}

// Execute runs fn unless the circuit is open. A nil breaker always runs fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if cb == nil {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cb.mu.Lock()
	if cb.state == CircuitBreakerOpen {
		if cb.now().Sub(cb.lastStateChange) < cb.cooldownPeriod {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.transition(CircuitBreakerHalfOpen)
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !tripsBreaker(err) {
		if err == nil {
			cb.recordSuccess()
		}
		return err
	}

	cb.totalRequests++
	cb.failureCount++

	if cb.state == CircuitBreakerHalfOpen {
		cb.transition(CircuitBreakerOpen)
		return err
	}
	failureRate := float64(cb.failureCount) / float64(cb.totalRequests)
	if cb.failureCount >= cb.maxFailures || (cb.totalRequests >= cb.minRequests && failureRate >= cb.failureThreshold) {
		cb.transition(CircuitBreakerOpen)
	}
	return err
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.totalRequests++
	cb.successCount++

	switch cb.state {
	case CircuitBreakerHalfOpen:
		if cb.successCount >= cb.successThreshold {
			cb.transition(CircuitBreakerClosed)
		}
	case CircuitBreakerClosed:
		if cb.successCount > cb.failureCount {
			cb.failureCount = 0
		}
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(state CircuitBreakerState) {
	cb.state = state
	cb.lastStateChange = cb.now()
	cb.successCount = 0
	if state == CircuitBreakerClosed {
		cb.failureCount = 0
		cb.totalRequests = 0
	}
}

// State returns the current circuit breaker state
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// tripsBreaker reports whether err says something about portal health.
func tripsBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	var decodeErr *DecodeError
	return !errors.As(err, &decodeErr)
}
