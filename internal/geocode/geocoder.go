// Package geocode resolves free-text addresses to coordinates, caching
// results and degrading gracefully when the upstream provider or its daily
// quota is unavailable.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/internal/resilience"
	"github.com/Bapt252/nextvision/pkg/apperror"
	"github.com/Bapt252/nextvision/pkg/cache"
	"github.com/Bapt252/nextvision/pkg/config"
	"github.com/Bapt252/nextvision/pkg/logger"
	"github.com/Bapt252/nextvision/pkg/metrics"
)

const geocodingNamespace = "geocoding"

// Geocoder implements spec §4.1: cache-first address resolution with a
// circuit-breaker/retry-guarded provider call, quota-aware soft degradation,
// and a region-default fallback on terminal failure.
type Geocoder struct {
	backend  cache.Cache
	ttl      time.Duration
	provider Provider

	breaker     *resilience.CircuitBreaker
	retry       *resilience.RetryExecutor
	degradation *resilience.DegradationManager
	quota       *quotaTracker

	fallbackCentroid domain.Coordinates
	metrics          *metrics.Metrics
	log              *slog.Logger
}

// New wires a Geocoder from configuration. backend is typically a
// *cache.MultiLevelCache under the "geocoding" namespace; degradation is
// shared across the engine's resilient components.
func New(ctx context.Context, cfg config.GeocoderConfig, backend cache.Cache, provider Provider, degradation *resilience.DegradationManager, m *metrics.Metrics) (*Geocoder, error) {
	log := logger.FromContext(ctx)

	quota, err := newQuotaTracker(log, cfg.DailyQuota, cfg.QuotaSoftFraction, cfg.QuotaBackend, cfg.QuotaRedisAddr)
	if err != nil {
		return nil, err
	}

	g := &Geocoder{
		backend:          backend,
		ttl:              config.DefaultNamespaceTTLs()[geocodingNamespace],
		provider:         provider,
		breaker:          resilience.NewCircuitBreaker("geocoder", config.CircuitBreakerConfig{}, m),
		retry:            resilience.NewRetryExecutor(config.RetryConfig{}, m),
		degradation:      degradation,
		quota:            quota,
		fallbackCentroid: domain.Coordinates{Lat: cfg.FallbackCentroid.Lat, Lon: cfg.FallbackCentroid.Lon},
		metrics:          m,
		log:              log,
	}

	degradation.Register("geocoder", "*", resilience.StrategyApproximate, g.fallbackHandler)
	return g, nil
}

// Geocode resolves a single address. It is cache-first; on a cache miss it
// calls the provider under retry/circuit-breaker protection and stores the
// result. Terminal failures return a fallback GeocodeResult rather than an
// error, per spec §4.1 — callers always get a usable (if degraded) result.
func (g *Geocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	start := time.Now()
	normalized := normalize(address)
	if normalized == "" {
		return g.approximateFallback(address), nil
	}

	key := cache.BuildCacheKey(geocodingNamespace, normalized)
	if cached, ok := g.lookupCache(ctx, key); ok {
		g.recordOutcome("cache_hit", start)
		return cached, nil
	}

	if g.quota.preferCacheOnly() {
		g.recordOutcome("quota_degraded", start)
		return g.fallbackResult(address, domain.QualityFailed), nil
	}

	allowed, err := g.quota.reserve(ctx)
	if err != nil {
		g.recordOutcome("quota_error", start)
		return g.fallbackResult(address, domain.QualityFailed), nil
	}
	if !allowed {
		g.recordOutcome("quota_exhausted", start)
		return g.fallbackResult(address, domain.QualityFailed), nil
	}

	var raw ProviderResult
	op := func(ctx context.Context) error {
		r, err := g.provider.Geocode(ctx, normalized)
		if err != nil {
			return err
		}
		raw = r
		return nil
	}

	successRate := func() float64 { return 1 - g.breaker.Health().FailureRate() }
	result, err := g.degradation.ExecuteWithFallback(ctx, "geocoder", "*", resilience.StrategyJitteredExponential, g.breaker, successRate, op)
	if err != nil {
		g.recordOutcome("error", start)
		return g.fallbackResult(address, domain.QualityFailed), nil
	}

	if result != nil {
		gr := result.(domain.GeocodeResult)
		g.recordOutcome("degraded", start)
		return gr, nil
	}

	gr := domain.GeocodeResult{
		InputAddress:     address,
		FormattedAddress: raw.FormattedAddress,
		Coordinates:      domain.Coordinates{Lat: raw.Lat, Lon: raw.Lon},
		Quality:          mapQuality(raw.RawQuality),
		PlaceID:          raw.PlaceID,
		CachedAt:         time.Now(),
	}
	g.storeCache(ctx, key, gr)
	g.recordOutcome("provider", start)
	return gr, nil
}

// GeocodeBatch resolves each address independently, bounded to a modest
// concurrency since the provider and quota are shared across all of them.
func (g *Geocoder) GeocodeBatch(ctx context.Context, addresses []string) map[string]domain.GeocodeResult {
	const maxConcurrency = 8

	results := make(map[string]domain.GeocodeResult, len(addresses))
	resultsCh := make(chan struct {
		address string
		result  domain.GeocodeResult
	}, len(addresses))

	sem := make(chan struct{}, maxConcurrency)
	for _, addr := range addresses {
		addr := addr
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			r, _ := g.Geocode(ctx, addr)
			resultsCh <- struct {
				address string
				result  domain.GeocodeResult
			}{addr, r}
		}()
	}
	for range addresses {
		entry := <-resultsCh
		results[entry.address] = entry.result
	}
	return results
}

func (g *Geocoder) lookupCache(ctx context.Context, key string) (domain.GeocodeResult, bool) {
	raw, err := g.backend.Get(ctx, key)
	if err != nil {
		return domain.GeocodeResult{}, false
	}
	var gr domain.GeocodeResult
	if err := json.Unmarshal(raw, &gr); err != nil {
		g.log.Warn("dropping corrupt geocode cache entry", "key", key, "error", err)
		_ = g.backend.Delete(ctx, key)
		return domain.GeocodeResult{}, false
	}
	return gr, true
}

func (g *Geocoder) storeCache(ctx context.Context, key string, gr domain.GeocodeResult) {
	raw, err := json.Marshal(gr)
	if err != nil {
		return
	}
	if err := g.backend.Set(ctx, key, raw, g.ttl); err != nil {
		g.log.Warn("failed to cache geocode result", "key", key, "error", err)
	}
}

// fallbackHandler is registered once with the shared DegradationManager and
// invoked once retries are exhausted, without the triggering call's address
// (the Handler signature carries only the error), so it always falls back
// to the region-wide centroid rather than an arrondissement-level one —
// unlike fallbackResult, which is called directly from Geocode with the
// address still in scope. Invalid-input causes get an APPROXIMATE
// placeholder; everything else gets a FAILED one.
func (g *Geocoder) fallbackHandler(ctx context.Context, cause error) (any, error) {
	var appErr *apperror.Error
	for err := cause; errors.As(err, &appErr); err = appErr.Cause {
		if appErr.Code == apperror.CodeInvalidArgument {
			return g.approximateFallback(""), nil
		}
	}
	return g.fallbackResult("", domain.QualityFailed), nil
}

func (g *Geocoder) approximateFallback(address string) domain.GeocodeResult {
	return g.fallbackResult(address, domain.QualityApproximate)
}

// fallbackResult produces a degraded GeocodeResult. When address names a
// specific Paris arrondissement, it resolves to that arrondissement's
// centroid (a finer-grained fallback than the region-wide default) and the
// FALLBACK_CENTROID quality tier; otherwise it uses the configured
// region-wide centroid at the caller's requested quality.
func (g *Geocoder) fallbackResult(address string, quality domain.GeocodeQuality) domain.GeocodeResult {
	if c, ok := FallbackCentroid(address); ok {
		return domain.GeocodeResult{
			InputAddress: address,
			Coordinates:  c,
			Quality:      domain.QualityFallbackCentroid,
			CachedAt:     time.Now(),
		}
	}
	return domain.GeocodeResult{
		InputAddress: address,
		Coordinates:  g.fallbackCentroid,
		Quality:      quality,
		CachedAt:     time.Now(),
	}
}

// Health reports the geocoder's current circuit-breaker-derived
// ServiceHealth, for aggregation into a top-level health-check surface.
func (g *Geocoder) Health() domain.ServiceHealth {
	h := g.breaker.Health()
	h.Service = "geocoder"
	return h
}

func (g *Geocoder) recordOutcome(outcome string, start time.Time) {
	if g.metrics != nil {
		g.metrics.RecordGeocode(outcome, time.Since(start))
	}
}

// Close releases the quota tracker's resources.
func (g *Geocoder) Close() error {
	return g.quota.close()
}
