package geocode

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/internal/resilience"
	"github.com/Bapt252/nextvision/pkg/apperror"
	"github.com/Bapt252/nextvision/pkg/cache"
	"github.com/Bapt252/nextvision/pkg/config"
)

type stubProvider struct {
	calls   atomic.Int64
	result  ProviderResult
	err     error
}

func (p *stubProvider) Geocode(ctx context.Context, address string) (ProviderResult, error) {
	p.calls.Add(1)
	if p.err != nil {
		return ProviderResult{}, p.err
	}
	return p.result, nil
}

func newTestGeocoder(t *testing.T, provider Provider, cfg config.GeocoderConfig) *Geocoder {
	t.Helper()
	if cfg.DailyQuota == 0 {
		cfg.DailyQuota = 1000
	}
	if cfg.QuotaSoftFraction == 0 {
		cfg.QuotaSoftFraction = 0.9
	}

	backend := cache.NewMemoryCache(cache.DefaultOptions())
	dm := resilience.NewDegradationManager(context.Background(), resilience.NewRetryExecutor(config.RetryConfig{
		MaxAttempts: 2,
	}, nil), nil)

	g, err := New(context.Background(), cfg, backend, provider, dm, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGeocoder_CacheMissCallsProvider(t *testing.T) {
	provider := &stubProvider{result: ProviderResult{
		FormattedAddress: "10 Rue de Rivoli, Paris",
		Lat:              48.8566,
		Lon:              2.3522,
		PlaceID:          "123",
		RawQuality:       "rooftop",
	}}
	g := newTestGeocoder(t, provider, config.GeocoderConfig{})

	result, err := g.Geocode(context.Background(), "10 Rue de Rivoli, Paris")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if result.Quality != domain.QualityExact {
		t.Errorf("Quality = %v, want EXACT", result.Quality)
	}
	if result.Coordinates.Lat != 48.8566 {
		t.Errorf("Lat = %v, want 48.8566", result.Coordinates.Lat)
	}
	if provider.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls.Load())
	}
}

func TestGeocoder_SecondLookupHitsCache(t *testing.T) {
	provider := &stubProvider{result: ProviderResult{Lat: 1, Lon: 2, RawQuality: "rooftop"}}
	g := newTestGeocoder(t, provider, config.GeocoderConfig{})

	ctx := context.Background()
	if _, err := g.Geocode(ctx, "Some Address, Lyon"); err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if _, err := g.Geocode(ctx, "some   address,   lyon"); err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}

	if provider.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1 (second lookup should normalize to the same cache key)", provider.calls.Load())
	}
}

func TestGeocoder_EmptyAddressReturnsApproximateFallback(t *testing.T) {
	provider := &stubProvider{result: ProviderResult{Lat: 1, Lon: 2}}
	g := newTestGeocoder(t, provider, config.GeocoderConfig{
		FallbackCentroid: config.LatLon{Lat: 48.85, Lon: 2.35},
	})

	result, err := g.Geocode(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if result.Quality != domain.QualityApproximate {
		t.Errorf("Quality = %v, want APPROXIMATE", result.Quality)
	}
	if provider.calls.Load() != 0 {
		t.Error("provider should not be called for an empty address")
	}
}

func TestGeocoder_ProviderFailureReturnsFailedFallback(t *testing.T) {
	provider := &stubProvider{err: apperror.New(apperror.CodeServiceUnavailable, "down")}
	g := newTestGeocoder(t, provider, config.GeocoderConfig{
		FallbackCentroid: config.LatLon{Lat: 48.85, Lon: 2.35},
	})

	result, err := g.Geocode(context.Background(), "Unreachable Address")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if result.Quality != domain.QualityFailed {
		t.Errorf("Quality = %v, want FAILED", result.Quality)
	}
	if result.Coordinates.Lat != 48.85 {
		t.Errorf("Coordinates = %v, want fallback centroid", result.Coordinates)
	}
}

func TestGeocoder_QuotaExhaustedSkipsProvider(t *testing.T) {
	provider := &stubProvider{result: ProviderResult{Lat: 1, Lon: 2, RawQuality: "rooftop"}}
	g := newTestGeocoder(t, provider, config.GeocoderConfig{DailyQuota: 1, QuotaSoftFraction: 0.99})

	ctx := context.Background()
	if _, err := g.Geocode(ctx, "First Address"); err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	result, err := g.Geocode(ctx, "Second Different Address")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if result.Quality != domain.QualityFailed {
		t.Errorf("Quality = %v, want FAILED once quota is exhausted", result.Quality)
	}
	if provider.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1 (second call should be quota-blocked)", provider.calls.Load())
	}
}

func TestGeocoder_GeocodeBatchResolvesAll(t *testing.T) {
	provider := &stubProvider{result: ProviderResult{Lat: 1, Lon: 2, RawQuality: "rooftop"}}
	g := newTestGeocoder(t, provider, config.GeocoderConfig{})

	results := g.GeocodeBatch(context.Background(), []string{"Address A", "Address B", "Address C"})
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for addr, r := range results {
		if r.Quality != domain.QualityExact {
			t.Errorf("results[%q].Quality = %v, want EXACT", addr, r.Quality)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  10 Rue de Rivoli,  Paris ", "10 rue de rivoli paris"},
		{"Lyon,France", "lyon france"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapQuality(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.GeocodeQuality
	}{
		{"rooftop", domain.QualityExact},
		{"range_interpolated", domain.QualityInterpolated},
		{"geometric_center", domain.QualityApproximate},
		{"approximate", domain.QualityPartial},
		{"unknown", domain.QualityPartial},
	}
	for _, tt := range tests {
		if got := mapQuality(tt.raw); got != tt.want {
			t.Errorf("mapQuality(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
