package scoring

import (
	"context"
	"sort"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/internal/geocode"
	"github.com/Bapt252/nextvision/internal/routing"
	"github.com/Bapt252/nextvision/pkg/config"
)

// maxAcceptableTransfers bounds transit feasibility when the candidate
// hasn't stated a transfer ceiling explicitly; MobilityConstraints carries
// no such field, so a fixed default stands in.
const maxAcceptableTransfers = 2

// walkCycleComfortKm is the distance beyond which walking/cycling comfort
// starts to decay.
const walkCycleComfortKm = 3.0

// TransportResult is the TransportScorer's output: the aggregate subscore
// plus the per-mode detail the MatchEngine surfaces in its explanations.
type TransportResult struct {
	Score          float64
	Analyses       []domain.TransportAnalysis
	ZeroCompatible bool
	ConsiderRemote bool
	BestMode       domain.TransportMode
	UsedLiveData   bool
}

// TransportScorer implements spec §4.6: per-accepted-mode feasibility via
// the Geocoder and Router, aggregated into a single subscore.
type TransportScorer struct {
	geocoder *geocode.Geocoder
	router   *routing.Router
	cfg      config.TransportConfig
}

func NewTransportScorer(geocoder *geocode.Geocoder, router *routing.Router, cfg config.TransportConfig) *TransportScorer {
	if cfg.ModeBaseline == nil {
		cfg.ModeBaseline = config.DefaultModeBaselines()
	}
	if cfg.ZeroModeBaseline == 0 {
		cfg.ZeroModeBaseline = 0.3
	}
	if cfg.RemoteBoostCap == 0 {
		cfg.RemoteBoostCap = 0.2
	}
	return &TransportScorer{geocoder: geocoder, router: router, cfg: cfg}
}

// Score geocodes the candidate's home and the job's office once, routes
// each candidate-accepted mode between them, and aggregates the result per
// spec §4.6's formula.
func (s *TransportScorer) Score(ctx context.Context, candidate domain.CandidateProfile, job domain.JobRequirement, departure time.Time) TransportResult {
	home, err := s.geocoder.Geocode(ctx, candidate.HomeAddress)
	if err != nil {
		home = domain.GeocodeResult{Quality: domain.QualityFailed}
	}
	office, err := s.geocoder.Geocode(ctx, job.OfficeAddress)
	if err != nil {
		office = domain.GeocodeResult{Quality: domain.QualityFailed}
	}

	analyses := make([]domain.TransportAnalysis, 0, len(candidate.Mobility.AcceptedModes))
	usedLiveData := false
	for _, mode := range candidate.Mobility.AcceptedModes {
		allowed := candidate.Mobility.AllowedMinutes(mode)
		if allowed <= 0 {
			continue
		}
		route := s.router.Route(ctx, home, office, mode, departure)
		if !route.FromFallback {
			usedLiveData = true
		}
		analyses = append(analyses, s.analyze(mode, route, float64(allowed), departure))
	}

	result := s.aggregate(analyses, candidate, job)
	result.UsedLiveData = usedLiveData
	return result
}

func (s *TransportScorer) analyze(mode domain.TransportMode, route domain.Route, allowedMinutes float64, departure time.Time) domain.TransportAnalysis {
	actualMinutes := route.Duration.Minutes()
	transferCount, _ := route.TransferCount.Get()
	feasible := domain.IsFeasible(actualMinutes, allowedMinutes, mode, transferCount, maxAcceptableTransfers)

	efficiency := 0.0
	if actualMinutes > 0 {
		efficiency = allowedMinutes / actualMinutes
		if efficiency > 1 {
			efficiency = 1
		}
	}

	return domain.TransportAnalysis{
		Mode:           mode,
		Feasible:       feasible,
		ActualMinutes:  actualMinutes,
		AllowedMinutes: allowedMinutes,
		Efficiency:     efficiency,
		Comfort:        comfort(mode, route, departure),
		Reliability:    reliability(route),
	}
}

// comfort derives a [0,1] per-mode comfort subscore from route properties:
// transfers penalize transit, distance penalizes walking/cycling, rush hour
// penalizes driving.
func comfort(mode domain.TransportMode, route domain.Route, departure time.Time) float64 {
	switch mode {
	case domain.ModePublicTransit:
		transfers, _ := route.TransferCount.Get()
		return domain.Clamp01(1.0 - 0.15*float64(transfers))
	case domain.ModeWalking, domain.ModeCycling:
		km := route.DistanceM / 1000
		if km <= walkCycleComfortKm {
			return 1.0
		}
		return domain.Clamp01(1.0 - 0.1*(km-walkCycleComfortKm))
	case domain.ModeDriving:
		if isRushHourDeparture(departure, route) {
			return 0.8
		}
		return 1.0
	default:
		return 0.7
	}
}

func isRushHourDeparture(departure time.Time, route domain.Route) bool {
	if factor, ok := route.TrafficFactor.Get(); ok {
		return factor > 1.2
	}
	hour := departure.Hour()
	return (hour >= 7 && hour < 9) || (hour >= 17 && hour < 19)
}

// reliability derives a [0,1] confidence signal from the route itself: a
// haversine-fallback route is inherently less certain than a live one, and
// a high traffic factor signals variable driving conditions.
func reliability(route domain.Route) float64 {
	score := 1.0
	if route.FromFallback {
		score -= 0.25
	}
	if factor, ok := route.TrafficFactor.Get(); ok && factor > 1.0 {
		score -= domain.Clamp01((factor - 1.0)) * 0.3
	}
	return domain.Clamp01(score)
}

func (s *TransportScorer) aggregate(analyses []domain.TransportAnalysis, candidate domain.CandidateProfile, job domain.JobRequirement) TransportResult {
	compatible := make([]domain.TransportAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if a.Feasible {
			compatible = append(compatible, a)
		}
	}

	if len(compatible) == 0 {
		score := s.cfg.ZeroModeBaseline
		considerRemote := candidate.Mobility.AcceptsRemote() && job.RemotePolicy != domain.RemoteOnsite
		if considerRemote {
			boost := float64(candidate.Mobility.RemoteDaysWeek) / 5.0
			if boost > s.cfg.RemoteBoostCap {
				boost = s.cfg.RemoteBoostCap
			}
			score += boost
		}
		return TransportResult{
			Score:          domain.Clamp01(score),
			Analyses:       analyses,
			ZeroCompatible: true,
			ConsiderRemote: considerRemote,
		}
	}

	timeCompatibility := float64(len(compatible)) / float64(len(analyses))

	flexibilityBonus := 1.0
	if len(analyses) > 1 {
		extra := float64(len(compatible)-1) / float64(len(analyses)-1)
		flexibilityBonus = 1.0 + 0.15*domain.Clamp01(extra)
	}

	efficiencySum, reliabilitySum := 0.0, 0.0
	for _, a := range compatible {
		efficiencySum += a.Efficiency
		reliabilitySum += a.Reliability
	}
	efficiency := efficiencySum / float64(len(compatible))
	// Uniform weighting over compatible modes: spec calls for a "weighted
	// mean" without specifying weights, so each compatible mode counts
	// equally rather than by an unstated ridership or distance weight.
	reliabilityMean := reliabilitySum / float64(len(compatible))

	final := domain.Clamp01(0.5*timeCompatibility*flexibilityBonus + 0.25*efficiency + 0.25*reliabilityMean)

	best := bestMode(compatible, s.cfg.ModeBaseline)

	return TransportResult{
		Score:    final,
		Analyses: analyses,
		BestMode: best,
	}
}

// bestMode ranks compatible modes by highest efficiency, then highest
// reliability, then the configured mode-baseline prior, then the fixed
// transit>driving>cycling>walking priority order.
func bestMode(compatible []domain.TransportAnalysis, baseline map[string]float64) domain.TransportMode {
	ranked := make([]domain.TransportAnalysis, len(compatible))
	copy(ranked, compatible)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Efficiency != b.Efficiency {
			return a.Efficiency > b.Efficiency
		}
		if a.Reliability != b.Reliability {
			return a.Reliability > b.Reliability
		}
		if ba, bb := baseline[a.Mode.String()], baseline[b.Mode.String()]; ba != bb {
			return ba > bb
		}
		return a.Mode.Priority() < b.Mode.Priority()
	})
	return ranked[0].Mode
}
