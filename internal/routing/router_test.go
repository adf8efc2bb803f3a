package routing

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/pkg/apperror"
	"github.com/Bapt252/nextvision/pkg/cache"
	"github.com/Bapt252/nextvision/pkg/config"
)

type stubRouteProvider struct {
	calls  atomic.Int64
	result ProviderRoute
	err    error
}

func (p *stubRouteProvider) Route(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode, departure time.Time) (ProviderRoute, error) {
	p.calls.Add(1)
	if p.err != nil {
		return ProviderRoute{}, p.err
	}
	return p.result, nil
}

func testGeocodeResult(lat, lon float64) domain.GeocodeResult {
	return domain.GeocodeResult{Coordinates: domain.Coordinates{Lat: lat, Lon: lon}, Quality: domain.QualityExact}
}

func TestRouter_CacheMissCallsProvider(t *testing.T) {
	provider := &stubRouteProvider{result: ProviderRoute{DurationSeconds: 600, DistanceMeters: 5000}}
	router := New(context.Background(), config.RouterConfig{}, cache.NewMemoryCache(cache.DefaultOptions()), provider, nil)

	origin := testGeocodeResult(48.8566, 2.3522)
	dest := testGeocodeResult(48.8606, 2.3376)
	route := router.Route(context.Background(), origin, dest, domain.ModeDriving, time.Time{})

	if route.Duration != 600*time.Second {
		t.Errorf("Duration = %v, want 600s", route.Duration)
	}
	if route.FromFallback {
		t.Error("FromFallback = true, want false on a successful provider call")
	}
	if provider.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls.Load())
	}
}

func TestRouter_SecondLookupHitsCache(t *testing.T) {
	provider := &stubRouteProvider{result: ProviderRoute{DurationSeconds: 600, DistanceMeters: 5000}}
	router := New(context.Background(), config.RouterConfig{}, cache.NewMemoryCache(cache.DefaultOptions()), provider, nil)

	origin := testGeocodeResult(48.8566, 2.3522)
	dest := testGeocodeResult(48.8606, 2.3376)
	departure := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)

	router.Route(context.Background(), origin, dest, domain.ModeDriving, departure)
	router.Route(context.Background(), origin, dest, domain.ModeDriving, departure.Add(10*time.Minute))

	if provider.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1 (same hour bucket should hit cache)", provider.calls.Load())
	}
}

func TestRouter_DifferentHourBucketMisses(t *testing.T) {
	provider := &stubRouteProvider{result: ProviderRoute{DurationSeconds: 600, DistanceMeters: 5000}}
	router := New(context.Background(), config.RouterConfig{}, cache.NewMemoryCache(cache.DefaultOptions()), provider, nil)

	origin := testGeocodeResult(48.8566, 2.3522)
	dest := testGeocodeResult(48.8606, 2.3376)
	departure := time.Date(2026, 7, 29, 10, 0, 0, 0, time.UTC)

	router.Route(context.Background(), origin, dest, domain.ModeDriving, departure)
	router.Route(context.Background(), origin, dest, domain.ModeDriving, departure.Add(2*time.Hour))

	if provider.calls.Load() != 2 {
		t.Errorf("provider calls = %d, want 2 (different hour bucket should miss cache)", provider.calls.Load())
	}
}

func TestRouter_ProviderFailureFallsBackToHaversine(t *testing.T) {
	provider := &stubRouteProvider{err: apperror.New(apperror.CodeServiceUnavailable, "down")}
	router := New(context.Background(), config.RouterConfig{}, cache.NewMemoryCache(cache.DefaultOptions()), provider, nil)

	origin := testGeocodeResult(48.8566, 2.3522)
	dest := testGeocodeResult(48.8606, 2.3376)
	route := router.Route(context.Background(), origin, dest, domain.ModeWalking, time.Time{})

	if !route.FromFallback {
		t.Error("FromFallback = false, want true when the provider fails")
	}
	if route.Duration <= 0 {
		t.Error("Duration should be positive from the haversine fallback")
	}
}

func TestRouter_UnusableGeocodeShortCircuits(t *testing.T) {
	provider := &stubRouteProvider{result: ProviderRoute{DurationSeconds: 600}}
	router := New(context.Background(), config.RouterConfig{}, cache.NewMemoryCache(cache.DefaultOptions()), provider, nil)

	origin := domain.GeocodeResult{Quality: domain.QualityFailed}
	dest := testGeocodeResult(48.8606, 2.3376)
	route := router.Route(context.Background(), origin, dest, domain.ModeDriving, time.Time{})

	if provider.calls.Load() != 0 {
		t.Error("provider should not be called when origin did not resolve")
	}
	if !route.FromFallback {
		t.Error("FromFallback = false, want true for an unusable geocode")
	}
}

func TestHaversineRoute(t *testing.T) {
	origin := domain.Coordinates{Lat: 48.8566, Lon: 2.3522}
	dest := domain.Coordinates{Lat: 48.8606, Lon: 2.3376}

	route := haversineRoute(origin, dest, domain.ModeWalking)
	if route.DistanceMeters <= 0 {
		t.Error("DistanceMeters should be positive for distinct points")
	}
	if route.DurationSeconds <= 0 {
		t.Error("DurationSeconds should be positive")
	}
	if route.HasTraffic {
		t.Error("haversine fallback should never report traffic data")
	}
}

func TestIsRushHour(t *testing.T) {
	cfg := config.RouterConfig{RushHourStart1: 7, RushHourEnd1: 9, RushHourStart2: 17, RushHourEnd2: 19, Timezone: "UTC"}

	weekdayMorning := time.Date(2026, 7, 29, 8, 0, 0, 0, time.UTC) // Wednesday
	weekdayMidday := time.Date(2026, 7, 29, 13, 0, 0, 0, time.UTC)
	weekend := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC) // Saturday

	if !isRushHour(weekdayMorning, cfg) {
		t.Error("expected weekday 08:00 to be rush hour")
	}
	if isRushHour(weekdayMidday, cfg) {
		t.Error("expected weekday 13:00 to not be rush hour")
	}
	if isRushHour(weekend, cfg) {
		t.Error("expected Saturday morning to not be rush hour")
	}
}

func TestCacheKey_RoundsCoordinatesAndBucketsHour(t *testing.T) {
	a := domain.Coordinates{Lat: 48.85660001, Lon: 2.35220001}
	b := domain.Coordinates{Lat: 48.8566, Lon: 2.3522}
	dep := time.Date(2026, 7, 29, 10, 5, 0, 0, time.UTC)

	keyA := cacheKey(a, domain.Coordinates{Lat: 1, Lon: 1}, domain.ModeDriving, dep)
	keyB := cacheKey(b, domain.Coordinates{Lat: 1, Lon: 1}, domain.ModeDriving, dep)
	if keyA != keyB {
		t.Errorf("cacheKey should round to 6 decimal places: %q != %q", keyA, keyB)
	}
}
