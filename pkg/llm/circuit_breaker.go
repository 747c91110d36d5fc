package llm

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// CircuitState is the breaker's position in its closed/open/half-open cycle.
type CircuitState int

const (
	// CircuitClosed admits every request.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects every request until the cool-down elapses.
	CircuitOpen
	// CircuitHalfOpen admits a single probe request and rejects the rest.
	CircuitHalfOpen
)

var circuitStateNames = [...]string{
	CircuitClosed:   "closed",
	CircuitOpen:     "open",
	CircuitHalfOpen: "half-open",
}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(circuitStateNames) {
		return "unknown"
	}
	return circuitStateNames[s]
}

// CircuitBreakerConfig controls when provider calls are suspended.
type CircuitBreakerConfig struct {
	// Threshold is how many consecutive failures open the circuit.
	Threshold int
	// ResetAfter is how long the circuit stays open before a probe is admitted.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig suspends a provider after 5 straight failures
// and probes it again 30 seconds later.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker suspends calls to a recommendation provider after repeated
// failures, so a large batch does not queue hundreds of doomed requests
// behind a dead endpoint. After Threshold consecutive failures it rejects
// calls for ResetAfter, then admits one probe; the probe's outcome decides
// whether the circuit closes again or the cool-down restarts.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
}

// NewCircuitBreaker returns a closed breaker with the given thresholds.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: config}
}

// Allow reports whether a request may proceed. While the circuit is open it
// returns an explanatory error instead; once the cool-down has elapsed it
// moves to half-open and admits exactly one probe.
func (cb *CircuitBreaker) Allow() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true, nil
	case CircuitHalfOpen:
		return false, errors.New("circuit breaker half-open: recovery probe already in flight")
	}

	wait := cb.cfg.ResetAfter - time.Since(cb.openedAt)
	if wait > 0 {
		return false, fmt.Errorf("circuit breaker open: provider suspended after %d consecutive failures, next probe in %s",
			cb.failures, wait.Round(time.Second))
	}
	cb.state = CircuitHalfOpen
	return true, nil
}

// RecordSuccess closes the circuit and clears the failure streak.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}

// RecordFailure extends the failure streak. A failed probe reopens the
// circuit immediately; in the closed state the circuit opens once the
// streak reaches the configured threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	switch {
	case cb.state == CircuitHalfOpen:
		cb.trip()
	case cb.state == CircuitClosed && cb.failures >= cb.cfg.Threshold:
		cb.trip()
	}
}

// trip opens the circuit and starts a fresh cool-down window.
// Callers must hold cb.mu.
func (cb *CircuitBreaker) trip() {
	cb.state = CircuitOpen
	cb.openedAt = time.Now()
}

// State returns the breaker's current position.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// ConsecutiveFailures returns the length of the current failure streak.
func (cb *CircuitBreaker) ConsecutiveFailures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset forces the circuit closed regardless of recent history.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}
