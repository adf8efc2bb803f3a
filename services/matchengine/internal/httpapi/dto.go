// Package httpapi exposes the matching engine's scoring and batch contract
// (spec §6.1/§6.2) over JSON/HTTP. Domain types stay untagged (they are
// already JSON-round-tripped internally by pkg/cache under their default Go
// field names); these DTOs own the spec's public snake_case wire shape and
// convert to/from domain types at the boundary.
package httpapi

import (
	"fmt"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
)

type mobilityDTO struct {
	AcceptedModes  []string       `json:"accepted_modes"`
	MaxMinutes     map[string]int `json:"max_minutes"`
	RemoteDaysWeek int            `json:"remote_days_week"`
	FlexibleHours  bool           `json:"flexible_hours"`
}

type candidateDTO struct {
	ID                   string      `json:"id"`
	Skills               []string    `json:"skills"`
	YearsExperience      int         `json:"years_experience"`
	Level                string      `json:"level"`
	CurrentCompensation  int         `json:"current_compensation"`
	ExpectedCompensation int         `json:"expected_compensation"`
	Sector               string      `json:"sector"`
	HomeAddress          string      `json:"home_address"`
	Mobility             mobilityDTO `json:"mobility"`
	ListeningReason      string      `json:"listening_reason,omitempty"`
	DetailedExperiences  *int        `json:"detailed_experiences,omitempty"`
}

type jobDTO struct {
	ID              string   `json:"id"`
	RequiredSkills  []string `json:"required_skills"`
	PreferredSkills []string `json:"preferred_skills"`
	ExperienceMin   int      `json:"experience_min"`
	ExperienceMax   int      `json:"experience_max"`
	RequiredLevel   string   `json:"required_level"`
	SalaryMin       int      `json:"salary_min"`
	SalaryMax       int      `json:"salary_max"`
	Sector          string   `json:"sector"`
	OfficeAddress   string   `json:"office_address"`
	RemotePolicy    string   `json:"remote_policy,omitempty"`
	ParkingProvided bool     `json:"parking_provided"`
	FlexibleHours   bool     `json:"flexible_hours"`
}

// scoreRequest is the spec §6.1 "Scoring request" body. context is
// accepted but folded into candidate/job fields that already carry the
// same information (remote_days_per_week → candidate.mobility,
// flexible_hours → job); a dedicated context struct would just duplicate
// them.
type scoreRequest struct {
	Candidate   candidateDTO `json:"candidate"`
	Job         jobDTO       `json:"job"`
	DepartureAt *time.Time   `json:"departure_at,omitempty"`
}

type batchCandidateRequest struct {
	Candidate   candidateDTO `json:"candidate"`
	Jobs        []jobDTO     `json:"jobs"`
	DepartureAt *time.Time   `json:"departure_at,omitempty"`
}

type batchJobRequest struct {
	Job         jobDTO         `json:"job"`
	Candidates  []candidateDTO `json:"candidates"`
	DepartureAt *time.Time     `json:"departure_at,omitempty"`
}

func toCandidate(d candidateDTO) (domain.CandidateProfile, error) {
	level, err := parseLevel(d.Level)
	if err != nil {
		return domain.CandidateProfile{}, fmt.Errorf("candidate.level: %w", err)
	}
	reason, err := parseListeningReason(d.ListeningReason)
	if err != nil {
		return domain.CandidateProfile{}, fmt.Errorf("candidate.listening_reason: %w", err)
	}
	modes := make([]domain.TransportMode, 0, len(d.Mobility.AcceptedModes))
	for _, m := range d.Mobility.AcceptedModes {
		mode, err := parseMode(m)
		if err != nil {
			return domain.CandidateProfile{}, fmt.Errorf("candidate.mobility.accepted_modes: %w", err)
		}
		modes = append(modes, mode)
	}
	maxMinutes := make(map[domain.TransportMode]int, len(d.Mobility.MaxMinutes))
	for m, minutes := range d.Mobility.MaxMinutes {
		mode, err := parseMode(m)
		if err != nil {
			return domain.CandidateProfile{}, fmt.Errorf("candidate.mobility.max_minutes: %w", err)
		}
		maxMinutes[mode] = minutes
	}

	detailed := domain.None[int]()
	if d.DetailedExperiences != nil {
		detailed = domain.Some(*d.DetailedExperiences)
	}

	return domain.CandidateProfile{
		ID:                   d.ID,
		Skills:               d.Skills,
		YearsExperience:      d.YearsExperience,
		Level:                level,
		CurrentCompensation:  d.CurrentCompensation,
		ExpectedCompensation: d.ExpectedCompensation,
		Sector:               d.Sector,
		HomeAddress:          d.HomeAddress,
		Mobility: domain.MobilityConstraints{
			AcceptedModes:  modes,
			MaxMinutes:     maxMinutes,
			RemoteDaysWeek: d.Mobility.RemoteDaysWeek,
			FlexibleHours:  d.Mobility.FlexibleHours,
		},
		ListeningReason:     reason,
		DetailedExperiences: detailed,
	}, nil
}

func toJob(d jobDTO) (domain.JobRequirement, error) {
	level, err := parseLevel(d.RequiredLevel)
	if err != nil {
		return domain.JobRequirement{}, fmt.Errorf("job.required_level: %w", err)
	}
	policy, err := parseRemotePolicy(d.RemotePolicy)
	if err != nil {
		return domain.JobRequirement{}, fmt.Errorf("job.remote_policy: %w", err)
	}

	return domain.JobRequirement{
		ID:              d.ID,
		RequiredSkills:  d.RequiredSkills,
		PreferredSkills: d.PreferredSkills,
		Experience:      domain.ExperienceRange{Min: d.ExperienceMin, Max: d.ExperienceMax},
		RequiredLevel:   level,
		Salary:          domain.SalaryRange{Min: d.SalaryMin, Max: d.SalaryMax},
		Sector:          d.Sector,
		OfficeAddress:   d.OfficeAddress,
		RemotePolicy:    policy,
		ParkingProvided: d.ParkingProvided,
		FlexibleHours:   d.FlexibleHours,
	}, nil
}

func parseLevel(s string) (domain.HierarchicalLevel, error) {
	switch s {
	case "", "unspecified":
		return domain.LevelUnspecified, nil
	case "entry":
		return domain.LevelEntry, nil
	case "junior":
		return domain.LevelJunior, nil
	case "senior":
		return domain.LevelSenior, nil
	case "manager":
		return domain.LevelManager, nil
	case "director":
		return domain.LevelDirector, nil
	case "executive":
		return domain.LevelExecutive, nil
	default:
		return domain.LevelUnspecified, fmt.Errorf("unknown level %q", s)
	}
}

func parseMode(s string) (domain.TransportMode, error) {
	switch s {
	case "public_transit":
		return domain.ModePublicTransit, nil
	case "driving":
		return domain.ModeDriving, nil
	case "cycling":
		return domain.ModeCycling, nil
	case "walking":
		return domain.ModeWalking, nil
	default:
		return domain.ModeUnspecified, fmt.Errorf("unknown transport mode %q", s)
	}
}

func parseListeningReason(s string) (domain.ListeningReason, error) {
	switch domain.ListeningReason(s) {
	case domain.ReasonUnspecified, domain.ReasonRelocDistance, domain.ReasonCompensation,
		domain.ReasonCareerGrowth, domain.ReasonStability:
		return domain.ListeningReason(s), nil
	default:
		return domain.ReasonUnspecified, fmt.Errorf("unknown listening reason %q", s)
	}
}

func parseRemotePolicy(s string) (domain.RemotePolicy, error) {
	switch s {
	case "", "unspecified":
		return domain.RemoteUnspecified, nil
	case "onsite":
		return domain.RemoteOnsite, nil
	case "hybrid":
		return domain.RemoteHybrid, nil
	case "full_remote":
		return domain.RemoteFull, nil
	default:
		return domain.RemoteUnspecified, fmt.Errorf("unknown remote policy %q", s)
	}
}

type transportAnalysisDTO struct {
	Feasible       bool     `json:"feasible"`
	ActualMinutes  float64  `json:"actual_minutes"`
	AllowedMinutes float64  `json:"allowed_minutes"`
	Efficiency     float64  `json:"efficiency"`
	CostEstimate   *float64 `json:"cost_estimate,omitempty"`
	Comfort        float64  `json:"comfort"`
	Reliability    float64  `json:"reliability"`
}

type transportSummaryDTO struct {
	PerMode      map[string]transportAnalysisDTO `json:"per_mode"`
	BestMode     string                          `json:"best_mode,omitempty"`
	FinalScore   float64                         `json:"final_score"`
	UsedLiveData bool                            `json:"used_live_data"`
}

type engineMetadataDTO struct {
	Version        string    `json:"version"`
	ComputedAt     time.Time `json:"computed_at"`
	UsedLiveRoutes bool      `json:"used_live_routes"`
}

type matchResultDTO struct {
	CandidateID     string              `json:"candidate_id"`
	JobID           string              `json:"job_id"`
	FinalScore      float64             `json:"final_score"`
	Confidence      float64             `json:"confidence"`
	ComponentScores map[string]float64  `json:"component_scores"`
	WeightsUsed     map[string]float64  `json:"weights_used"`
	Transport       transportSummaryDTO `json:"transport_analysis"`
	Alerts          []string            `json:"alerts"`
	Explanations    []string            `json:"explanations"`
	Recommendation  string              `json:"recommendation_class"`
	Metadata        engineMetadataDTO   `json:"engine_metadata"`
}

func fromMatchResult(r domain.MatchResult) matchResultDTO {
	perMode := make(map[string]transportAnalysisDTO, len(r.Transport.PerMode))
	for mode, a := range r.Transport.PerMode {
		dto := transportAnalysisDTO{
			Feasible:       a.Feasible,
			ActualMinutes:  a.ActualMinutes,
			AllowedMinutes: a.AllowedMinutes,
			Efficiency:     a.Efficiency,
			Comfort:        a.Comfort,
			Reliability:    a.Reliability,
		}
		if cost, ok := a.CostEstimate.Get(); ok {
			dto.CostEstimate = &cost
		}
		perMode[mode.String()] = dto
	}
	var bestMode string
	if m, ok := r.Transport.BestMode.Get(); ok {
		bestMode = m.String()
	}

	alerts := make([]string, len(r.Alerts))
	for i, a := range r.Alerts {
		alerts[i] = string(a)
	}

	return matchResultDTO{
		CandidateID:     r.CandidateID,
		JobID:           r.JobID,
		FinalScore:      r.FinalScore,
		Confidence:      r.Confidence,
		ComponentScores: r.ComponentScores,
		WeightsUsed:     r.WeightsUsed,
		Transport: transportSummaryDTO{
			PerMode:      perMode,
			BestMode:     bestMode,
			FinalScore:   r.Transport.FinalScore,
			UsedLiveData: r.Transport.UsedLiveData,
		},
		Alerts:         alerts,
		Explanations:   r.Explanations,
		Recommendation: r.Recommendation.String(),
		Metadata: engineMetadataDTO{
			Version:        r.Metadata.Version,
			ComputedAt:     r.Metadata.ComputedAt,
			UsedLiveRoutes: r.Metadata.UsedLiveRoutes,
		},
	}
}

type batchItemDTO struct {
	Result    *matchResultDTO `json:"result,omitempty"`
	Err       string          `json:"error,omitempty"`
	Cancelled bool            `json:"cancelled,omitempty"`
}

type batchStatsDTO struct {
	Total      int     `json:"total"`
	CacheHits  int     `json:"cache_hits"`
	Errors     int     `json:"errors"`
	Cancelled  int     `json:"cancelled"`
	DurationMs float64 `json:"duration_ms"`
}

type batchResultDTO struct {
	Results []batchItemDTO `json:"results"`
	Stats   batchStatsDTO  `json:"stats"`
}

func fromBatchResult(r domain.BatchResult) batchResultDTO {
	items := make([]batchItemDTO, len(r.Results))
	for i, item := range r.Results {
		dto := batchItemDTO{Err: item.Err, Cancelled: item.Cancelled}
		if item.Err == "" && !item.Cancelled {
			res := fromMatchResult(item.Result)
			dto.Result = &res
		}
		items[i] = dto
	}
	return batchResultDTO{
		Results: items,
		Stats: batchStatsDTO{
			Total:      r.Stats.Total,
			CacheHits:  r.Stats.CacheHits,
			Errors:     r.Stats.Errors,
			Cancelled:  r.Stats.Cancelled,
			DurationMs: float64(r.Stats.Duration.Microseconds()) / 1000,
		},
	}
}
