package batch

import (
	"context"
	"testing"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/internal/geocode"
	"github.com/Bapt252/nextvision/internal/resilience"
	"github.com/Bapt252/nextvision/internal/routing"
	"github.com/Bapt252/nextvision/internal/scoring"
	"github.com/Bapt252/nextvision/pkg/cache"
	"github.com/Bapt252/nextvision/pkg/config"
)

type stubGeoProvider struct{}

func (stubGeoProvider) Geocode(ctx context.Context, address string) (geocode.ProviderResult, error) {
	return geocode.ProviderResult{Lat: 48.85, Lon: 2.35, RawQuality: "rooftop"}, nil
}

type stubRouteProvider struct{}

func (stubRouteProvider) Route(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode, departure time.Time) (routing.ProviderRoute, error) {
	return routing.ProviderRoute{DurationSeconds: 600, DistanceMeters: 5000}, nil
}

func newTestEngine(t *testing.T) *scoring.MatchEngine {
	t.Helper()
	ctx := context.Background()

	geoCfg := config.GeocoderConfig{DailyQuota: 1000, QuotaSoftFraction: 0.9}
	dm := resilience.NewDegradationManager(ctx, resilience.NewRetryExecutor(config.RetryConfig{MaxAttempts: 1}, nil), nil)
	geocoder, err := geocode.New(ctx, geoCfg, cache.NewMemoryCache(cache.DefaultOptions()), stubGeoProvider{}, dm, nil)
	if err != nil {
		t.Fatalf("geocode.New() error = %v", err)
	}
	t.Cleanup(func() { _ = geocoder.Close() })

	router := routing.New(ctx, config.RouterConfig{}, cache.NewMemoryCache(cache.DefaultOptions()), stubRouteProvider{}, nil)
	transport := scoring.NewTransportScorer(geocoder, router, config.TransportConfig{})
	weighter := scoring.NewAdaptiveWeighter(config.DefaultBaseWeights())
	matches := cache.NewMatchCache(ctx, cache.NewMemoryCache(cache.DefaultOptions()), time.Minute)
	return scoring.NewMatchEngine(transport, weighter, config.SectorConfig{}, matches, nil)
}

func testCandidate(id string) domain.CandidateProfile {
	return domain.CandidateProfile{
		ID:                   id,
		Skills:               []string{"Go"},
		YearsExperience:      5,
		Level:                domain.LevelSenior,
		ExpectedCompensation: 60000,
		Sector:               "tech",
		HomeAddress:          "10 rue de Rivoli, Paris",
		Mobility: domain.MobilityConstraints{
			AcceptedModes: []domain.TransportMode{domain.ModeDriving},
			MaxMinutes:    map[domain.TransportMode]int{domain.ModeDriving: 30},
		},
	}
}

func testJobs(n int) []domain.JobRequirement {
	jobs := make([]domain.JobRequirement, n)
	for i := range jobs {
		jobs[i] = domain.JobRequirement{
			ID:             "job",
			RequiredSkills: []string{"go"},
			Experience:     domain.ExperienceRange{Min: 3, Max: 8},
			RequiredLevel:  domain.LevelSenior,
			Salary:         domain.SalaryRange{Min: 50000, Max: 70000},
			Sector:         "tech",
			OfficeAddress:  "La Défense",
		}
	}
	return jobs
}

func testConfig() config.BatchConfig {
	return config.BatchConfig{
		MaxConcurrency:    4,
		ChunkSize:         10,
		ChunkTimeout:      5 * time.Second,
		PooledThreshold:   10,
		ParallelThreshold: 50,
		HugeThreshold:     200,
	}
}

func TestOrchestrator_CooperativeModePreservesOrder(t *testing.T) {
	o := New(newTestEngine(t), testConfig())
	jobs := testJobs(5)
	for i := range jobs {
		jobs[i].ID = "job-" + string(rune('a'+i))
	}

	result := o.MatchCandidateAgainstJobs(context.Background(), testCandidate("cand-1"), jobs, time.Time{})
	if len(result.Results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(result.Results))
	}
	for i, r := range result.Results {
		if r.Cancelled || r.Err != "" {
			t.Fatalf("position %d: unexpected cancelled/err result %+v", i, r)
		}
		if r.Result.JobID != jobs[i].ID {
			t.Errorf("position %d: expected job %s, got %s", i, jobs[i].ID, r.Result.JobID)
		}
	}
}

func TestOrchestrator_PooledModePreservesOrder(t *testing.T) {
	o := New(newTestEngine(t), testConfig())
	jobs := testJobs(30)
	for i := range jobs {
		jobs[i].ID = "job-" + string(rune('a'+i%26))
	}

	result := o.MatchCandidateAgainstJobs(context.Background(), testCandidate("cand-1"), jobs, time.Time{})
	if len(result.Results) != 30 {
		t.Fatalf("expected 30 results, got %d", len(result.Results))
	}
	for i, r := range result.Results {
		if r.Result.JobID != jobs[i].ID {
			t.Errorf("position %d: expected job %s, got %s", i, jobs[i].ID, r.Result.JobID)
		}
	}
	if result.Stats.Total != 30 {
		t.Errorf("expected stats.Total = 30, got %d", result.Stats.Total)
	}
}

func TestOrchestrator_ChunkedModePreservesOrder(t *testing.T) {
	o := New(newTestEngine(t), testConfig())
	jobs := testJobs(75)

	result := o.MatchCandidateAgainstJobs(context.Background(), testCandidate("cand-1"), jobs, time.Time{})
	if len(result.Results) != 75 {
		t.Fatalf("expected 75 results, got %d", len(result.Results))
	}
	for i, r := range result.Results {
		if r.Cancelled || r.Err != "" {
			t.Fatalf("position %d: unexpected cancelled/err result %+v", i, r)
		}
	}
}

func TestOrchestrator_HugeBatchFansChunksOutInParallel(t *testing.T) {
	cfg := testConfig()
	cfg.HugeThreshold = 50
	o := New(newTestEngine(t), cfg)
	jobs := testJobs(120)

	result := o.MatchCandidateAgainstJobs(context.Background(), testCandidate("cand-1"), jobs, time.Time{})
	if len(result.Results) != 120 {
		t.Fatalf("expected 120 results, got %d", len(result.Results))
	}
	for i, r := range result.Results {
		if r.Cancelled || r.Err != "" {
			t.Fatalf("position %d: unexpected cancelled/err result %+v", i, r)
		}
	}
}

func TestOrchestrator_HugeBatchWithAntsPool(t *testing.T) {
	cfg := testConfig()
	cfg.HugeThreshold = 50
	cfg.UseAntsPool = true
	o := New(newTestEngine(t), cfg)
	jobs := testJobs(110)

	result := o.MatchCandidateAgainstJobs(context.Background(), testCandidate("cand-1"), jobs, time.Time{})
	if len(result.Results) != 110 {
		t.Fatalf("expected 110 results, got %d", len(result.Results))
	}
}

func TestOrchestrator_CacheHitsAreCountedOnRepeatedJobs(t *testing.T) {
	o := New(newTestEngine(t), testConfig())
	jobs := testJobs(3)
	for i := range jobs {
		jobs[i].ID = "job-same"
	}

	candidate := testCandidate("cand-1")
	_ = o.MatchCandidateAgainstJobs(context.Background(), candidate, jobs[:1], time.Time{})
	result := o.MatchCandidateAgainstJobs(context.Background(), candidate, jobs, time.Time{})

	if result.Stats.CacheHits == 0 {
		t.Errorf("expected at least one cache hit for repeated identical (candidate, job) pairs")
	}
}

func TestOrchestrator_CancelledContextMarksRemainingPositions(t *testing.T) {
	o := New(newTestEngine(t), testConfig())
	jobs := testJobs(5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := o.MatchCandidateAgainstJobs(ctx, testCandidate("cand-1"), jobs, time.Time{})
	for i, r := range result.Results {
		if !r.Cancelled {
			t.Errorf("position %d: expected a cancellation marker for an already-cancelled context", i)
		}
	}
	if result.Stats.Cancelled != 5 {
		t.Errorf("expected stats.Cancelled = 5, got %d", result.Stats.Cancelled)
	}
}

func TestOrchestrator_MatchJobAgainstCandidatesPreservesOrder(t *testing.T) {
	o := New(newTestEngine(t), testConfig())
	candidates := []domain.CandidateProfile{testCandidate("cand-a"), testCandidate("cand-b"), testCandidate("cand-c")}
	job := testJobs(1)[0]

	result := o.MatchJobAgainstCandidates(context.Background(), job, candidates, time.Time{})
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(result.Results))
	}
	for i, r := range result.Results {
		if r.Result.CandidateID != candidates[i].ID {
			t.Errorf("position %d: expected candidate %s, got %s", i, candidates[i].ID, r.Result.CandidateID)
		}
	}
}
