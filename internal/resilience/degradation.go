package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/pkg/apperror"
	"github.com/Bapt252/nextvision/pkg/logger"
	"github.com/Bapt252/nextvision/pkg/metrics"
)

// Strategy tag recorded against a degradation event, per spec §4.5.
type DegradationStrategy string

const (
	StrategyCacheOnly          DegradationStrategy = "CACHE_ONLY"
	StrategyApproximate        DegradationStrategy = "APPROXIMATE"
	StrategyDisableFeature     DegradationStrategy = "DISABLE_FEATURE"
	StrategySimplifiedResponse DegradationStrategy = "SIMPLIFIED_RESPONSE"
	StrategyManualIntervention DegradationStrategy = "MANUAL_INTERVENTION"
)

// Handler produces a fallback result for a terminal failure. It receives the
// triggering error so it can tailor the fallback (e.g. distinguish
// quota-exhausted from provider-down).
type Handler func(ctx context.Context, cause error) (any, error)

type registration struct {
	strategy DegradationStrategy
	handler  Handler
}

// DegradationManager holds per-(service, error_kind) fallback registrations
// and drives calls through a RetryExecutor, falling back to the most
// specific registered handler on terminal failure.
type DegradationManager struct {
	retry   *RetryExecutor
	metrics *metrics.Metrics
	log     *slog.Logger

	mu            sync.RWMutex
	handlers      map[string]registration // key: service + "/" + error_kind
	serviceHealth map[string]*domain.ServiceHealth
}

// NewDegradationManager wires a RetryExecutor; m and retry may be supplied
// by the caller's composition root.
func NewDegradationManager(ctx context.Context, retry *RetryExecutor, m *metrics.Metrics) *DegradationManager {
	return &DegradationManager{
		retry:         retry,
		metrics:       m,
		log:           logger.FromContext(ctx),
		handlers:      make(map[string]registration),
		serviceHealth: make(map[string]*domain.ServiceHealth),
	}
}

// Register associates (service, errorKind) with a strategy tag and a
// fallback handler. errorKind "*" registers a service-wide default,
// consulted when no more specific (service, errorKind) entry matches.
func (d *DegradationManager) Register(service, errorKind string, strategy DegradationStrategy, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[handlerKey(service, errorKind)] = registration{strategy: strategy, handler: handler}
}

func handlerKey(service, errorKind string) string {
	return service + "/" + errorKind
}

// ExecuteWithFallback runs op through the RetryExecutor under breaker; on
// terminal failure it selects the most specific registered handler for
// (service, errorKind) — falling back to the service-wide "*" entry — and
// invokes it. If no handler matches, it returns a minimal placeholder error
// tagged with errorKind. Every call updates the service's ServiceHealth.
func (d *DegradationManager) ExecuteWithFallback(ctx context.Context, service, errorKind string, strategy Strategy, breaker *CircuitBreaker, successRate SuccessRateFunc, op func(ctx context.Context) error) (any, error) {
	err := d.retry.Do(ctx, strategy, breaker, successRate, op)
	d.updateHealth(service, breaker, err)

	if err == nil {
		return nil, nil
	}

	reg, ok := d.lookupHandler(service, errorKind)
	if !ok {
		d.recordDegradation(service, "NONE")
		return nil, apperror.Wrap(err, apperror.CodeDegradationNoPath,
			fmt.Sprintf("no degradation handler registered for %s/%s", service, errorKind))
	}

	d.recordDegradation(service, string(reg.strategy))
	return reg.handler(ctx, err)
}

func (d *DegradationManager) lookupHandler(service, errorKind string) (registration, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if reg, ok := d.handlers[handlerKey(service, errorKind)]; ok {
		return reg, true
	}
	reg, ok := d.handlers[handlerKey(service, "*")]
	return reg, ok
}

func (d *DegradationManager) recordDegradation(service, strategy string) {
	d.log.Warn("degradation event", "service", service, "strategy", strategy)
	if d.metrics != nil {
		d.metrics.RecordDegradation(service, strategy)
	}
}

func (d *DegradationManager) updateHealth(service string, breaker *CircuitBreaker, callErr error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h, ok := d.serviceHealth[service]
	if !ok {
		h = &domain.ServiceHealth{Service: service}
		d.serviceHealth[service] = h
	}

	if breaker != nil {
		snapshot := breaker.Health()
		*h = snapshot
		h.Service = service
		return
	}

	if callErr == nil {
		h.SuccessCount++
	} else {
		h.FailureCount++
		if h.State == domain.ServiceHealthy {
			h.State = domain.ServiceDegraded
		}
	}
}

// Health returns the current per-service health snapshots, for aggregation
// into the health-check surface.
func (d *DegradationManager) Health() []domain.ServiceHealth {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.ServiceHealth, 0, len(d.serviceHealth))
	for _, h := range d.serviceHealth {
		out = append(out, *h)
	}
	return out
}
