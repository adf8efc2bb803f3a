// Package wiring composes the matching engine's components from
// configuration: cache tiers, resilience primitives, the Geocoder and
// Router, the ComponentScorers, the MatchEngine, the BatchOrchestrator,
// and the health Reporter.
package wiring

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/Bapt252/nextvision/internal/batch"
	"github.com/Bapt252/nextvision/internal/geocode"
	"github.com/Bapt252/nextvision/internal/health"
	"github.com/Bapt252/nextvision/internal/resilience"
	"github.com/Bapt252/nextvision/internal/routing"
	"github.com/Bapt252/nextvision/internal/scoring"
	"github.com/Bapt252/nextvision/pkg/cache"
	"github.com/Bapt252/nextvision/pkg/config"
	"github.com/Bapt252/nextvision/pkg/metrics"
)

// No geocoding/routing SDK exists anywhere in the reference corpus (see
// internal/geocode/nominatim.go, internal/routing/osrm.go), so the base
// URLs for the public Nominatim/OSRM demo instances are composition-root
// constants, overridable by environment for a self-hosted deployment.
const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultOSRMURL      = "https://router.project-osrm.org"
)

// Engine bundles every composed component a caller needs: the MatchEngine
// for single scoring requests, the Orchestrator for batch requests, and
// the health Reporter for the /healthz surface.
type Engine struct {
	Match *scoring.MatchEngine
	Batch *batch.Orchestrator
	Health *health.Reporter

	l2       *cache.MultiLevelCache
	geocoder *geocode.Geocoder
}

// Build composes an Engine from cfg. ctx should already carry the
// composition root's logger (via logger.WithContext) since every
// component pulls it back out via logger.FromContext.
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Engine, error) {
	l2, err := cache.NewMultiLevelCache(ctx, &cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("building cache tiers: %w", err)
	}

	dm := resilience.NewDegradationManager(ctx, resilience.NewRetryExecutor(cfg.Retry, m), m)

	geoProvider := geocode.NewNominatimProvider(envOr("NOMINATIM_BASE_URL", defaultNominatimURL), cfg.Geocoder.RegionBias, http.DefaultClient)
	geocoder, err := geocode.New(ctx, cfg.Geocoder, l2, geoProvider, dm, m)
	if err != nil {
		return nil, fmt.Errorf("building geocoder: %w", err)
	}

	routeProvider := routing.NewOSRMProvider(envOr("OSRM_BASE_URL", defaultOSRMURL), http.DefaultClient)
	router := routing.New(ctx, cfg.Router, l2, routeProvider, m)

	transport := scoring.NewTransportScorer(geocoder, router, cfg.Transport)
	weighter := scoring.NewAdaptiveWeighter(cfg.Weighter.BaseWeights)

	matchTTL := config.DefaultNamespaceTTLs()["match_result"]
	matches := cache.NewMatchCache(ctx, l2, matchTTL)

	engine := scoring.NewMatchEngine(transport, weighter, cfg.Sectors, matches, m)
	orchestrator := batch.New(engine, cfg.Batch)
	reporter := health.NewReporter(geocoder, router, l2)

	return &Engine{
		Match:    engine,
		Batch:    orchestrator,
		Health:   reporter,
		l2:       l2,
		geocoder: geocoder,
	}, nil
}

// Close releases every component holding background resources (the
// geocoder's quota tracker, the cache's L2 connection).
func (e *Engine) Close() error {
	var err error
	if e.geocoder != nil {
		err = e.geocoder.Close()
	}
	if e.l2 != nil {
		if closeErr := e.l2.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
