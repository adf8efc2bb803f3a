package resilience

import (
	"sync"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/pkg/apperror"
	"github.com/Bapt252/nextvision/pkg/config"
	"github.com/Bapt252/nextvision/pkg/metrics"
)

// CircuitState is the breaker's FSM state, per spec §4.4.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

func (s CircuitState) serviceState() domain.ServiceState {
	switch s {
	case StateOpen:
		return domain.ServiceCircuitOpen
	case StateHalfOpen:
		return domain.ServiceDegraded
	default:
		return domain.ServiceHealthy
	}
}

// CircuitBreaker is a per-named-external-service breaker implementing the
// spec's §4.4 transition table:
//
//	CLOSED -> OPEN:      consecutive failures >= FailureThreshold
//	OPEN -> HALF_OPEN:   elapsed >= RecoveryTimeout
//	HALF_OPEN -> CLOSED: consecutive successes >= SuccessThreshold
//	HALF_OPEN -> OPEN:   any failure
//
// Initial state is CLOSED. While OPEN, Allow() returns false and callers
// must route to a fallback without attempting the call.
type CircuitBreaker struct {
	service string
	cfg     config.CircuitBreakerConfig
	metrics *metrics.Metrics

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	consecutiveSuccess  int
	openedAt            time.Time

	successCount int64
	failureCount int64
	lastSuccess  time.Time
	lastFailure  time.Time
}

// NewCircuitBreaker builds a CLOSED breaker for service. m may be nil (no
// metrics recorded) to keep unit tests independent of a metrics registry.
func NewCircuitBreaker(service string, cfg config.CircuitBreakerConfig, m *metrics.Metrics) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 3
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	return &CircuitBreaker{service: service, cfg: cfg, metrics: m, state: StateClosed}
}

// Allow reports whether a call should proceed. It also performs the
// OPEN -> HALF_OPEN transition as a side effect when the recovery timeout
// has elapsed, so a caller need only call Allow() immediately before the
// attempt.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.cfg.RecoveryTimeout {
			cb.transition(StateHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess reports a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successCount++
	cb.lastSuccess = time.Now()
	cb.consecutiveFailures = 0

	switch cb.state {
	case StateHalfOpen:
		cb.consecutiveSuccess++
		if cb.consecutiveSuccess >= cb.cfg.SuccessThreshold {
			cb.transition(StateClosed)
		}
	case StateClosed:
		cb.consecutiveSuccess = 0
	}
}

// RecordFailure reports a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailure = time.Now()
	cb.consecutiveSuccess = 0

	switch cb.state {
	case StateHalfOpen:
		cb.transition(StateOpen)
	case StateClosed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen)
		}
	}
}

// transition must be called with cb.mu held.
func (cb *CircuitBreaker) transition(to CircuitState) {
	if to == cb.state {
		return
	}
	cb.state = to
	if to == StateOpen {
		cb.openedAt = time.Now()
	}
	if to == StateClosed {
		cb.consecutiveFailures = 0
	}
	if to == StateHalfOpen {
		cb.consecutiveSuccess = 0
	}
	if cb.metrics != nil {
		cb.metrics.SetCircuitState(cb.service, int(to))
		if to == StateOpen {
			cb.metrics.RecordCircuitTrip(cb.service)
		}
	}
}

// State returns the breaker's current FSM state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Health snapshots the breaker as a domain.ServiceHealth record for the
// health-check surface.
func (cb *CircuitBreaker) Health() domain.ServiceHealth {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	h := domain.ServiceHealth{
		Service:      cb.service,
		State:        cb.state.serviceState(),
		SuccessCount: cb.successCount,
		FailureCount: cb.failureCount,
		LastSuccess:  cb.lastSuccess,
		LastFailure:  cb.lastFailure,
	}
	if cb.state == StateOpen {
		h.HalfOpenAt = domain.Some(cb.openedAt.Add(cb.cfg.RecoveryTimeout))
	}
	return h
}

// ErrCircuitOpen is returned by Call when the breaker short-circuits.
var ErrCircuitOpen = apperror.New(apperror.CodeCircuitOpen, "circuit breaker open")

// Call runs op only if Allow() permits it, recording the outcome. Returns
// ErrCircuitOpen without invoking op when the circuit is open.
func (cb *CircuitBreaker) Call(op func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	err := op()
	if err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}
