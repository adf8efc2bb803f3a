package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/internal/geocode"
	"github.com/Bapt252/nextvision/internal/resilience"
	"github.com/Bapt252/nextvision/internal/routing"
	"github.com/Bapt252/nextvision/pkg/cache"
	"github.com/Bapt252/nextvision/pkg/config"
)

type stubGeoProvider struct {
	result geocode.ProviderResult
}

func (p *stubGeoProvider) Geocode(ctx context.Context, address string) (geocode.ProviderResult, error) {
	return p.result, nil
}

type stubRouteProvider struct {
	durationSeconds float64
	err             error
}

func (p *stubRouteProvider) Route(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode, departure time.Time) (routing.ProviderRoute, error) {
	if p.err != nil {
		return routing.ProviderRoute{}, p.err
	}
	return routing.ProviderRoute{DurationSeconds: p.durationSeconds, DistanceMeters: 5000}, nil
}

func newTestTransportScorer(t *testing.T, routeDurationSeconds float64) *TransportScorer {
	t.Helper()
	cfg := config.GeocoderConfig{DailyQuota: 1000, QuotaSoftFraction: 0.9}
	dm := resilience.NewDegradationManager(context.Background(), resilience.NewRetryExecutor(config.RetryConfig{MaxAttempts: 1}, nil), nil)
	geocoder, err := geocode.New(context.Background(), cfg, cache.NewMemoryCache(cache.DefaultOptions()),
		&stubGeoProvider{result: geocode.ProviderResult{Lat: 48.85, Lon: 2.35, RawQuality: "rooftop"}}, dm, nil)
	if err != nil {
		t.Fatalf("geocode.New() error = %v", err)
	}
	t.Cleanup(func() { _ = geocoder.Close() })

	router := routing.New(context.Background(), config.RouterConfig{}, cache.NewMemoryCache(cache.DefaultOptions()),
		&stubRouteProvider{durationSeconds: routeDurationSeconds}, nil)

	return NewTransportScorer(geocoder, router, config.TransportConfig{})
}

func candidateWithMode(mode domain.TransportMode, allowedMinutes int) domain.CandidateProfile {
	return domain.CandidateProfile{
		ID:          "cand-1",
		HomeAddress: "10 rue de Rivoli, Paris",
		Mobility: domain.MobilityConstraints{
			AcceptedModes: []domain.TransportMode{mode},
			MaxMinutes:    map[domain.TransportMode]int{mode: allowedMinutes},
		},
	}
}

func jobAt(address string) domain.JobRequirement {
	return domain.JobRequirement{ID: "job-1", OfficeAddress: address}
}

func TestTransportScorer_CompatibleMode(t *testing.T) {
	scorer := newTestTransportScorer(t, 600) // 10 minutes
	candidate := candidateWithMode(domain.ModeDriving, 30)
	job := jobAt("La Défense")

	result := scorer.Score(context.Background(), candidate, job, time.Time{})
	if result.ZeroCompatible {
		t.Fatalf("expected a compatible mode, got ZeroCompatible=true")
	}
	if result.Score <= 0 {
		t.Errorf("expected a positive score, got %v", result.Score)
	}
	if result.BestMode != domain.ModeDriving {
		t.Errorf("expected driving as best mode, got %v", result.BestMode)
	}
}

func TestTransportScorer_ZeroCompatibleFallsBackToBaseline(t *testing.T) {
	scorer := newTestTransportScorer(t, 3600*2) // 2 hours, far beyond any allowance
	candidate := candidateWithMode(domain.ModeDriving, 20)
	candidate.Mobility.RemoteDaysWeek = 3
	job := jobAt("Lyon")
	job.RemotePolicy = domain.RemoteHybrid

	result := scorer.Score(context.Background(), candidate, job, time.Time{})
	if !result.ZeroCompatible {
		t.Fatalf("expected ZeroCompatible=true")
	}
	if !result.ConsiderRemote {
		t.Errorf("expected ConsiderRemote=true since candidate and job both allow remote")
	}
	if result.Score < 0.3 {
		t.Errorf("expected score >= the zero-mode baseline, got %v", result.Score)
	}
}

func TestTransportScorer_UsesLiveDataFlag(t *testing.T) {
	scorer := newTestTransportScorer(t, 600)
	candidate := candidateWithMode(domain.ModeDriving, 30)
	job := jobAt("La Défense")

	result := scorer.Score(context.Background(), candidate, job, time.Time{})
	if !result.UsedLiveData {
		t.Errorf("expected UsedLiveData=true when the provider succeeds")
	}
}
