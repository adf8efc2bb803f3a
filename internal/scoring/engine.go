package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/pkg/cache"
	"github.com/Bapt252/nextvision/pkg/config"
	"github.com/Bapt252/nextvision/pkg/metrics"
)

const engineVersion = "1.0.0"

const (
	confidenceBaseline     = 0.85
	confidenceLiveRoutes   = 0.05
	confidenceMotivations  = 0.05
	confidenceCap          = 0.98
	perfectMatchBonusRatio = 1.10
)

// MatchEngine implements spec §4.9: it composes every ComponentScorer's
// subscore with the AdaptiveWeighter's vector, applies the multiplicative
// sectoral/overqualification penalties, and derives the final MatchResult.
type MatchEngine struct {
	transport *TransportScorer
	weighter  *AdaptiveWeighter
	sectors   config.SectorConfig
	matches   *cache.MatchCache
	metrics   *metrics.Metrics
}

// NewMatchEngine wires a MatchEngine. m may be nil, in which case every
// metrics call below is a no-op, mirroring the Geocoder/Router pattern.
func NewMatchEngine(transport *TransportScorer, weighter *AdaptiveWeighter, sectors config.SectorConfig, matches *cache.MatchCache, m *metrics.Metrics) *MatchEngine {
	return &MatchEngine{transport: transport, weighter: weighter, sectors: sectors, matches: matches, metrics: m}
}

// timeComponent runs fn, recording its wall time against
// Metrics.ComponentScoreDuration under name when metrics are wired.
func timeComponent[T any](m *metrics.Metrics, name string, fn func() T) T {
	if m == nil {
		return fn()
	}
	timer := metrics.NewTimer(m.ComponentScoreDuration, name)
	defer timer.ObserveDuration()
	return fn()
}

// cacheKey derives the MatchCache key for a (candidate, job) pair under the
// candidate's effective weight vector, and reports whether a motivations
// subscore applies. Shared between Probe and Match so both agree on the
// exact same key for the exact same inputs.
func (e *MatchEngine) cacheKey(candidate domain.CandidateProfile, job domain.JobRequirement) (key string, hasMotivations bool) {
	_, hasMotivations = motivationScore(candidate, job)
	weights := e.weighter.Weigh(candidate, hasMotivations)
	fingerprint := cache.Fingerprint(weightsAsStrings(weights), 16)
	return e.matches.Key(candidate.ID, job.ID, fingerprint), hasMotivations
}

// Probe checks the MatchCache for a (candidate, job) pair without computing
// any subscore, per spec §4.10: the BatchOrchestrator calls this for each
// pair before Match, so a cache hit skips every subscore computation and
// every Geocoder/Router round trip.
func (e *MatchEngine) Probe(ctx context.Context, candidate domain.CandidateProfile, job domain.JobRequirement) (domain.MatchResult, bool) {
	if e.matches == nil {
		return domain.MatchResult{}, false
	}
	key, _ := e.cacheKey(candidate, job)
	return e.matches.Get(ctx, key)
}

// Match scores one candidate against one job, per spec §4.9. departure
// biases the transport routing call (rush-hour heuristic, live-traffic
// cache bucketing).
func (e *MatchEngine) Match(ctx context.Context, candidate domain.CandidateProfile, job domain.JobRequirement, departure time.Time) domain.MatchResult {
	if e.metrics != nil {
		e.metrics.Requests.Start("match")
		defer e.metrics.Requests.End("match")
	}
	matchStart := time.Now()

	motivations, hasMotivations := motivationScore(candidate, job)
	weights := e.weighter.Weigh(candidate, hasMotivations)

	var key string
	if e.matches != nil {
		key = e.matches.Key(candidate.ID, job.ID, cache.Fingerprint(weightsAsStrings(weights), 16))
		if cached, ok := e.matches.Get(ctx, key); ok {
			return cached
		}
	}

	semantic := timeComponent(e.metrics, "semantic", func() SemanticResult { return SemanticScore(candidate, job, e.sectors) })
	hierarchical := timeComponent(e.metrics, "hierarchical", func() float64 { return HierarchicalScore(candidate.Level, job.RequiredLevel) })
	compensation := timeComponent(e.metrics, "compensation", func() float64 { return CompensationScore(candidate.ExpectedCompensation, job.Salary) })
	experience := timeComponent(e.metrics, "experience", func() float64 { return ExperienceScore(candidate.YearsExperience, job.Experience) })
	sectoral := timeComponent(e.metrics, "sector", func() float64 { return SectoralScore(candidate.Sector, job.Sector, e.sectors) })
	transport := timeComponent(e.metrics, "location", func() TransportResult { return e.transport.Score(ctx, candidate, job, departure) })

	// Per spec §9, the perfect-match bonus is multiplicative on the
	// semantic subscore alone, applied before the weighted accumulation.
	semanticScore := semantic.Score
	perfectMatch := semantic.PerfectMatch
	if perfectMatch {
		semanticScore = domain.Clamp01(semanticScore * perfectMatchBonusRatio)
	}

	components := map[string]float64{
		"semantic":     semanticScore,
		"hierarchical": hierarchical,
		"compensation": compensation,
		"experience":   experience,
		"location":     transport.Score,
		"sector":       sectoral,
	}
	if hasMotivations {
		components["motivations"] = motivations
	}

	weighted := 0.0
	for name, subscore := range components {
		weighted += subscore * weights[name]
	}

	penalty, sectoralPenaltyApplied := SectoralIncompatibilityPenalty(candidate.Sector, job.Sector, e.sectors)
	overqGap := candidate.Level.Gap(job.RequiredLevel)
	overqPenalty := OverqualificationPenalty(overqGap)
	finalScore := domain.Clamp01(weighted * penalty * overqPenalty)

	var alerts []domain.AlertTag
	if sectoralPenaltyApplied {
		alerts = append(alerts, domain.AlertSectoralPenalty)
	}
	if overqGap >= 3 {
		alerts = append(alerts, domain.AlertOverqualification)
	}
	if perfectMatch {
		alerts = append(alerts, domain.AlertPerfectMatch)
	}
	if semantic.NoRequired {
		alerts = append(alerts, domain.AlertNoSkillRequirement)
	}
	if transport.ZeroCompatible {
		alerts = append(alerts, domain.AlertNoCompatibleMode)
	}
	if transport.ConsiderRemote {
		alerts = append(alerts, domain.AlertRemoteMitigation)
	}

	confidence := confidenceBaseline
	usedLiveRoutes := transport.UsedLiveData
	if usedLiveRoutes {
		confidence += confidenceLiveRoutes
	}
	if hasMotivations {
		confidence += confidenceMotivations
	}
	confidence = domain.Clamp01(confidence)
	if confidence > confidenceCap {
		confidence = confidenceCap
	}

	recommendation := domain.RecommendationClassFor(finalScore, sectoralPenaltyApplied)

	result := domain.MatchResult{
		CandidateID:     candidate.ID,
		JobID:           job.ID,
		FinalScore:      finalScore,
		Confidence:      confidence,
		ComponentScores: components,
		WeightsUsed:     weights,
		Transport:       transportSummary(transport),
		Alerts:          alerts,
		Explanations:    explanations(components, weights, transport, alerts),
		Recommendation:  recommendation,
		Metadata: domain.EngineMetadata{
			Version:        engineVersion,
			ComputedAt:     time.Now(),
			UsedLiveRoutes: usedLiveRoutes,
		},
	}

	if e.matches != nil {
		_ = e.matches.Set(ctx, key, result)
	}
	if e.metrics != nil {
		e.metrics.RecordMatch(recommendation.String(), time.Since(matchStart), finalScore)
	}
	return result
}

// motivationScore derives the motivations subscore from whichever component
// the candidate's stated listening reason most directly reflects, since
// JobRequirement carries no dedicated growth-opportunity field to score
// against directly. Returns (0, false) when the listening reason gives no
// signal to derive from.
func motivationScore(candidate domain.CandidateProfile, job domain.JobRequirement) (float64, bool) {
	switch candidate.ListeningReason {
	case domain.ReasonCareerGrowth:
		return HierarchicalScore(candidate.Level, job.RequiredLevel), true
	case domain.ReasonCompensation:
		return CompensationScore(candidate.ExpectedCompensation, job.Salary), true
	case domain.ReasonRelocDistance:
		return 1.0, true
	case domain.ReasonStability:
		return 1.0, true
	default:
		return 0, false
	}
}

func transportSummary(t TransportResult) domain.TransportSummary {
	perMode := make(map[domain.TransportMode]domain.TransportAnalysis, len(t.Analyses))
	for _, a := range t.Analyses {
		perMode[a.Mode] = a
	}
	summary := domain.TransportSummary{
		PerMode:      perMode,
		FinalScore:   t.Score,
		UsedLiveData: t.UsedLiveData,
	}
	if !t.ZeroCompatible && t.BestMode != domain.ModeUnspecified {
		summary.BestMode = domain.Some(t.BestMode)
	}
	return summary
}

func weightsAsStrings(weights Weights) map[string]string {
	out := make(map[string]string, len(weights))
	for k, v := range weights {
		out[k] = fmt.Sprintf("%.6f", v)
	}
	return out
}

func explanations(components map[string]float64, weights Weights, transport TransportResult, alerts []domain.AlertTag) []string {
	lines := make([]string, 0, len(components)+1)
	for _, name := range []string{"semantic", "hierarchical", "compensation", "experience", "location", "sector", "motivations"} {
		subscore, ok := components[name]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %.2f (weight %.2f)", name, subscore, weights[name]))
	}

	if transport.ZeroCompatible {
		lines = append(lines, "transport: no compatible mode within candidate limits")
	} else {
		lines = append(lines, fmt.Sprintf("transport: best mode %s, %d analyzed, score %.2f",
			transport.BestMode.String(), len(transport.Analyses), transport.Score))
	}

	for _, a := range alerts {
		lines = append(lines, fmt.Sprintf("alert: %s", a))
	}
	return lines
}
