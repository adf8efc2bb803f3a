// Package health composes the per-service ServiceHealth snapshots exposed
// by the engine's external-facing components into a single top-level
// health-check surface.
package health

import (
	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/internal/geocode"
	"github.com/Bapt252/nextvision/internal/routing"
	"github.com/Bapt252/nextvision/pkg/cache"
)

const l2CacheService = "l2_cache"

// Snapshot is the top-level health-check response: the worst-case
// aggregate state across every component, plus the per-service detail it
// was derived from.
type Snapshot struct {
	State    domain.ServiceState
	Services []domain.ServiceHealth
}

// Reporter gathers ServiceHealth from every resilient component the engine
// depends on. Any field may be nil (e.g. a deployment with L2 disabled);
// Snapshot skips what isn't wired.
type Reporter struct {
	geocoder *geocode.Geocoder
	router   *routing.Router
	l2       *cache.MultiLevelCache
}

// NewReporter builds a Reporter over the engine's live components.
func NewReporter(geocoder *geocode.Geocoder, router *routing.Router, l2 *cache.MultiLevelCache) *Reporter {
	return &Reporter{geocoder: geocoder, router: router, l2: l2}
}

// Snapshot reduces every component's current ServiceHealth to a single
// worst-case ServiceState via domain.Aggregate, per spec §5's shared
// ServiceHealth policy: DOWN beats CIRCUIT_OPEN beats FAILING beats
// DEGRADED beats HEALTHY.
func (r *Reporter) Snapshot() Snapshot {
	var services []domain.ServiceHealth
	if r.geocoder != nil {
		services = append(services, r.geocoder.Health())
	}
	if r.router != nil {
		services = append(services, r.router.Health())
	}
	if r.l2 != nil {
		services = append(services, l2Health(r.l2))
	}
	return Snapshot{State: domain.Aggregate(services), Services: services}
}

// l2Health has no circuit breaker of its own — MultiLevelCache degrades to
// L1-only on L2 failure rather than tripping a breaker — so it is modeled
// as a binary HEALTHY/DEGRADED signal off L2Healthy.
func l2Health(l2 *cache.MultiLevelCache) domain.ServiceHealth {
	state := domain.ServiceDegraded
	if l2.L2Healthy() {
		state = domain.ServiceHealthy
	}
	return domain.ServiceHealth{Service: l2CacheService, State: state}
}
