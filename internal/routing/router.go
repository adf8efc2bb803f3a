// Package routing computes commute routes between two points for a given
// transport mode, caching results and degrading to a haversine-distance
// estimate when the live provider or its circuit is unavailable.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/internal/resilience"
	"github.com/Bapt252/nextvision/pkg/cache"
	"github.com/Bapt252/nextvision/pkg/config"
	"github.com/Bapt252/nextvision/pkg/logger"
	"github.com/Bapt252/nextvision/pkg/metrics"
)

const (
	routingNamespace = "routing"
	fallbackRouteTTL = 30 * time.Minute
)

// Router implements spec §4.2. Unlike Geocoder, its fallback depends on the
// call's own arguments (origin/destination/mode), so it drives retries
// directly through a CircuitBreaker/RetryExecutor pair rather than a
// DegradationManager handler registry — a registered handler has no way to
// see per-call arguments.
type Router struct {
	backend  cache.Cache
	ttl      time.Duration
	provider Provider
	cfg      config.RouterConfig

	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryExecutor

	metrics *metrics.Metrics
	log     *slog.Logger
}

func New(ctx context.Context, cfg config.RouterConfig, backend cache.Cache, provider Provider, m *metrics.Metrics) *Router {
	ttl := config.DefaultNamespaceTTLs()[routingNamespace]
	return &Router{
		backend:  backend,
		ttl:      ttl,
		provider: provider,
		cfg:      cfg,
		breaker:  resilience.NewCircuitBreaker("router", config.CircuitBreakerConfig{}, m),
		retry:    resilience.NewRetryExecutor(config.RetryConfig{}, m),
		metrics:  m,
		log:      logger.FromContext(ctx),
	}
}

// Route resolves a single (origin, destination, mode) route for a departure
// time; departure selects the hour bucket of the cache key and is passed to
// the provider. The haversine fallback does not use it.
func (r *Router) Route(ctx context.Context, origin, destination domain.GeocodeResult, mode domain.TransportMode, departure time.Time) domain.Route {
	start := time.Now()
	if departure.IsZero() {
		departure = time.Now()
	}

	if !origin.IsUsable() || !destination.IsUsable() {
		return domain.Route{
			Origin: origin, Destination: destination, Mode: mode,
			ComputedAt: time.Now(), FromFallback: true,
		}
	}

	key := cacheKey(origin.Coordinates, destination.Coordinates, mode, departure)
	if cached, ok := r.lookupCache(ctx, key); ok {
		r.recordOutcome("cache_hit", start)
		return r.toRoute(origin, destination, mode, cached)
	}

	var pr ProviderRoute
	op := func(ctx context.Context) error {
		res, err := r.provider.Route(ctx, origin.Coordinates, destination.Coordinates, mode, departure)
		if err != nil {
			return err
		}
		pr = res
		return nil
	}

	err := r.retry.Do(ctx, resilience.StrategyJitteredExponential, r.breaker, nil, op)
	if err != nil {
		r.recordOutcome("fallback", start)
		entry := routeCacheEntry{ProviderRoute: haversineRoute(origin.Coordinates, destination.Coordinates, mode), FromFallback: true}
		r.storeCache(ctx, key, entry, fallbackRouteTTL)
		return r.toRoute(origin, destination, mode, entry)
	}

	r.recordOutcome("provider", start)
	entry := routeCacheEntry{ProviderRoute: pr}
	r.storeCache(ctx, key, entry, r.ttl)
	return r.toRoute(origin, destination, mode, entry)
}

// routeCacheEntry is the JSON-serialized cache payload: the provider (or
// fallback) route plus whether it came from the haversine fallback, so a
// cache hit can still report FromFallback accurately.
type routeCacheEntry struct {
	ProviderRoute
	FromFallback bool
}

func (r *Router) toRoute(origin, destination domain.GeocodeResult, mode domain.TransportMode, entry routeCacheEntry) domain.Route {
	route := domain.Route{
		Origin:       origin,
		Destination:  destination,
		Mode:         mode,
		Duration:     time.Duration(entry.DurationSeconds * float64(time.Second)),
		DistanceM:    entry.DistanceMeters,
		ComputedAt:   time.Now(),
		CacheUntil:   time.Now().Add(r.ttl),
		FromFallback: entry.FromFallback,
	}
	if entry.HasTraffic {
		route.TrafficFactor = domain.Some(entry.TrafficFactor)
	}
	if entry.HasTransfers {
		route.TransferCount = domain.Some(entry.TransferCount)
	}
	return route
}

func (r *Router) lookupCache(ctx context.Context, key string) (routeCacheEntry, bool) {
	raw, err := r.backend.Get(ctx, key)
	if err != nil {
		return routeCacheEntry{}, false
	}
	var entry routeCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.log.Warn("dropping corrupt route cache entry", "key", key, "error", err)
		_ = r.backend.Delete(ctx, key)
		return routeCacheEntry{}, false
	}
	return entry, true
}

func (r *Router) storeCache(ctx context.Context, key string, entry routeCacheEntry, ttl time.Duration) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := r.backend.Set(ctx, key, raw, ttl); err != nil {
		r.log.Warn("failed to cache route", "key", key, "error", err)
	}
}

// Health reports the router's current circuit-breaker-derived
// ServiceHealth, for aggregation into a top-level health-check surface.
func (r *Router) Health() domain.ServiceHealth {
	h := r.breaker.Health()
	h.Service = "router"
	return h
}

func (r *Router) recordOutcome(outcome string, start time.Time) {
	if r.metrics != nil {
		r.metrics.RecordRoute("router", outcome, time.Since(start))
	}
}

// cacheKey builds the (round6(origin), round6(dest), mode, hour-bucket)
// key from spec §4.2.
func cacheKey(origin, destination domain.Coordinates, mode domain.TransportMode, departure time.Time) string {
	hourBucket := departure.Truncate(time.Hour).Unix()
	return cache.BuildCacheKey(routingNamespace,
		round6(origin.Lat), round6(origin.Lon),
		round6(destination.Lat), round6(destination.Lon),
		mode.String(),
		fmt.Sprintf("%d", hourBucket))
}

func round6(v float64) string {
	return fmt.Sprintf("%.6f", math.Round(v*1e6)/1e6)
}
