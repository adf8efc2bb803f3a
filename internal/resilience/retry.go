package resilience

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Bapt252/nextvision/pkg/apperror"
	"github.com/Bapt252/nextvision/pkg/config"
	"github.com/Bapt252/nextvision/pkg/metrics"
)

// Strategy is one of the six delay strategies named in spec §4.4.
type Strategy string

const (
	StrategyFixed               Strategy = "fixed"
	StrategyLinear              Strategy = "linear"
	StrategyExponential         Strategy = "exponential"
	StrategyJitteredExponential Strategy = "jittered_exponential"
	StrategyFibonacci           Strategy = "fibonacci"
	StrategyAdaptiveSmart       Strategy = "adaptive_smart"
)

// SuccessRateFunc reports a service's recent success rate in [0,1], used by
// the adaptive_smart strategy. A CircuitBreaker's Health().FailureRate() is
// the typical source.
type SuccessRateFunc func() float64

// strategyBackOff implements backoff.BackOff, letting RetryExecutor reuse
// cenkalti/backoff's retry loop (attempt counting, context cancellation)
// while supplying the spec's own delay sequences.
type strategyBackOff struct {
	strategy    Strategy
	base        time.Duration
	max         time.Duration
	attempt     int
	successRate SuccessRateFunc
	rng         *rand.Rand
}

func (b *strategyBackOff) NextBackOff() time.Duration {
	b.attempt++
	d := b.nominalDelay()
	if d > b.max {
		d = b.max
	}
	if d < 0 {
		d = 0
	}
	return d
}

func (b *strategyBackOff) nominalDelay() time.Duration {
	switch b.strategy {
	case StrategyFixed:
		return b.base
	case StrategyLinear:
		return b.base * time.Duration(b.attempt)
	case StrategyExponential:
		return b.base * time.Duration(1<<uint(b.attempt-1))
	case StrategyJitteredExponential:
		nominal := b.base * time.Duration(1<<uint(b.attempt-1))
		return b.jitter(nominal, 0.5)
	case StrategyFibonacci:
		return b.base * time.Duration(fibonacci(b.attempt))
	case StrategyAdaptiveSmart:
		nominal := b.base * time.Duration(1<<uint(b.attempt-1))
		rate := 1.0
		if b.successRate != nil {
			rate = b.successRate()
		}
		factor := 1.0
		switch {
		case rate < 0.5:
			factor = 2.0
		case rate < 0.8:
			factor = 1.5
		}
		return b.jitter(time.Duration(float64(nominal)*factor), 0.25)
	default:
		nominal := b.base * time.Duration(1<<uint(b.attempt-1))
		return b.jitter(nominal, 0.5)
	}
}

// jitter adds proportional jitter in [-frac, +frac] of d.
func (b *strategyBackOff) jitter(d time.Duration, frac float64) time.Duration {
	if b.rng == nil || frac <= 0 {
		return d
	}
	delta := (b.rng.Float64()*2 - 1) * frac
	return time.Duration(float64(d) * (1 + delta))
}

func fibonacci(n int) int {
	if n <= 2 {
		return 1
	}
	a, bb := 1, 1
	for i := 3; i <= n; i++ {
		a, bb = bb, a+bb
	}
	return bb
}

// RetryExecutor wraps a callable with one of the six named strategies,
// applying retries only to errors classified retryable and reporting the
// outcome of every attempt to a CircuitBreaker when one is supplied.
type RetryExecutor struct {
	cfg     config.RetryConfig
	metrics *metrics.Metrics
}

// NewRetryExecutor builds an executor from the application's retry
// configuration. m may be nil.
func NewRetryExecutor(cfg config.RetryConfig, m *metrics.Metrics) *RetryExecutor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = string(StrategyJitteredExponential)
	}
	return &RetryExecutor{cfg: cfg, metrics: m}
}

// Do runs op, retrying on a retryable error per strategy until MaxAttempts
// is reached, ctx is cancelled, or MaxTotalDelay elapses. breaker, when
// non-nil, receives RecordSuccess/RecordFailure and gates each attempt with
// Allow() so an executor wrapping a breaker-protected service short-circuits
// immediately instead of burning through retries against an open circuit.
func (r *RetryExecutor) Do(ctx context.Context, strategy Strategy, breaker *CircuitBreaker, successRate SuccessRateFunc, op func(ctx context.Context) error) error {
	if strategy == "" {
		strategy = Strategy(r.cfg.DefaultStrategy)
	}

	bo := &strategyBackOff{
		strategy:    strategy,
		base:        r.cfg.BaseDelay,
		max:         r.cfg.MaxDelay,
		successRate: successRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(r.cfg.MaxAttempts)),
	}
	if r.cfg.MaxTotalDelay > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(r.cfg.MaxTotalDelay))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if breaker != nil && !breaker.Allow() {
			return struct{}{}, backoff.Permanent(ErrCircuitOpen)
		}

		attemptErr := op(ctx)
		if attemptErr == nil {
			if breaker != nil {
				breaker.RecordSuccess()
			}
			r.recordAttempt(strategy, "success")
			return struct{}{}, nil
		}

		if breaker != nil {
			breaker.RecordFailure()
		}

		if !IsRetryable(attemptErr) {
			r.recordAttempt(strategy, "non_retryable")
			return struct{}{}, backoff.Permanent(attemptErr)
		}

		r.recordAttempt(strategy, "retry")
		return struct{}{}, attemptErr
	}, opts...)

	if err != nil {
		return apperror.Wrap(err, apperror.CodeRetryExhausted, "retry attempts exhausted")
	}
	return nil
}

func (r *RetryExecutor) recordAttempt(strategy Strategy, outcome string) {
	if r.metrics != nil {
		r.metrics.RecordRetryAttempt(string(strategy), outcome)
	}
}

// IsRetryable classifies an error per spec §4.4: network errors, timeouts,
// HTTP 5xx/429 (surfaced as apperror.CodeServiceUnavailable /
// CodeGeocodeQuotaReached by callers), and the engine's own "service
// temporarily unavailable" codes are retryable; everything else (bad input,
// not-found, permission) is terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	switch apperror.Code(err) {
	case apperror.CodeTimeout, apperror.CodeServiceUnavailable,
		apperror.CodeCircuitOpen, apperror.CodeGeocodeQuotaReached,
		apperror.CodeCacheUnavailable:
		return true
	}

	return false
}
