package httputil

import (
	"errors"
	"sync"
	"time"
)

// CircuitState is the breaker position.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned without contacting the API while the breaker
// is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures the breaker guarding the API. A zero
// FailureThreshold disables it.
type CircuitBreakerConfig struct {
	// FailureThreshold consecutive transport or 5xx failures open the circuit.
	FailureThreshold int
	// SuccessThreshold probes must succeed in half-open to close again.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration
	// OnStateChange runs synchronously, in transition order, while the
	// breaker lock is held. It must not call back into the breaker.
	OnStateChange func(from, to CircuitState)
}

// CircuitBreaker stops the client hammering an API that is down.
type CircuitBreaker struct {
	mu        sync.Mutex
	cfg       CircuitBreakerConfig
	now       func() time.Time
	state     CircuitState
	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

func (cb *CircuitBreaker) enabled() bool {
	return cb.cfg.FailureThreshold > 0
}

// Allow returns ErrCircuitOpen while the cooldown runs. The first call
// after it moves the breaker to half-open and lets the request through.
func (cb *CircuitBreaker) Allow() error {
	if !cb.enabled() {
		return nil
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != CircuitOpen {
		return nil
	}
	if cb.now().Sub(cb.openedAt) <= cb.cfg.Cooldown {
		return ErrCircuitOpen
	}
	cb.moveTo(CircuitHalfOpen)
	return nil
}

// RecordSuccess notes an answered request (including 4xx).
func (cb *CircuitBreaker) RecordSuccess() { cb.record(true) }

// RecordFailure notes a transport failure or 5xx answer.
func (cb *CircuitBreaker) RecordFailure() { cb.record(false) }

func (cb *CircuitBreaker) record(ok bool) {
	if !cb.enabled() {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case cb.state == CircuitHalfOpen && ok:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.moveTo(CircuitClosed)
		}
	case cb.state == CircuitHalfOpen:
		cb.moveTo(CircuitOpen)
	case cb.state == CircuitClosed && ok:
		cb.failures = 0
	case cb.state == CircuitClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.moveTo(CircuitOpen)
		}
	}
}

// moveTo requires cb.mu.
func (cb *CircuitBreaker) moveTo(next CircuitState) {
	prev := cb.state
	cb.state = next
	cb.failures, cb.successes = 0, 0
	if next == CircuitOpen {
		cb.openedAt = cb.now()
	}
	if fn := cb.cfg.OnStateChange; fn != nil {
		fn(prev, next)
	}
}

// State returns the current position.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
