package domain

import (
	"testing"
	"time"
)

func validCandidate() *CandidateProfile {
	return &CandidateProfile{
		ID:                   "cand-1",
		Skills:               []string{"Go", "Kubernetes"},
		YearsExperience:      5,
		Level:                LevelSenior,
		CurrentCompensation:  50000,
		ExpectedCompensation: 60000,
		Sector:               "tech",
		HomeAddress:          "10 rue de Rivoli, Paris",
		Mobility: MobilityConstraints{
			AcceptedModes: []TransportMode{ModeDriving},
			MaxMinutes:    map[TransportMode]int{ModeDriving: 45},
		},
	}
}

func validJob() *JobRequirement {
	return &JobRequirement{
		ID:             "job-1",
		RequiredSkills: []string{"Go"},
		Experience:     ExperienceRange{Min: 3, Max: 8},
		RequiredLevel:  LevelSenior,
		Salary:         SalaryRange{Min: 50000, Max: 70000},
		Sector:         "tech",
		OfficeAddress:  "La Défense, 92400",
	}
}

func TestValidateCandidateProfile_Valid(t *testing.T) {
	if err := ValidateCandidateProfile(validCandidate()); err != nil {
		t.Errorf("expected valid candidate, got error: %v", err)
	}
}

func TestValidateCandidateProfile_MissingID(t *testing.T) {
	c := validCandidate()
	c.ID = ""
	if err := ValidateCandidateProfile(c); err == nil {
		t.Error("expected validation error for missing id")
	}
}

func TestValidateCandidateProfile_NoSkills(t *testing.T) {
	c := validCandidate()
	c.Skills = nil
	if err := ValidateCandidateProfile(c); err == nil {
		t.Error("expected validation error for empty skills")
	}
}

func TestValidateJobRequirement_Valid(t *testing.T) {
	if err := ValidateJobRequirement(validJob()); err != nil {
		t.Errorf("expected valid job, got error: %v", err)
	}
}

func TestValidateJobRequirement_BadSalaryRange(t *testing.T) {
	j := validJob()
	j.Salary = SalaryRange{Min: 80000, Max: 50000}
	if err := ValidateJobRequirement(j); err == nil {
		t.Error("expected validation error for max < min salary")
	}
}

func TestHierarchicalLevel_Gap(t *testing.T) {
	if gap := LevelExecutive.Gap(LevelEntry); gap != int(LevelExecutive)-int(LevelEntry) {
		t.Errorf("Gap() = %d, want %d", gap, int(LevelExecutive)-int(LevelEntry))
	}
	if gap := LevelSenior.Gap(LevelSenior); gap != 0 {
		t.Errorf("Gap() for equal levels = %d, want 0", gap)
	}
}

func TestTransportMode_Priority(t *testing.T) {
	if ModePublicTransit.Priority() >= ModeDriving.Priority() {
		t.Error("transit should tie-break before driving")
	}
	if ModeDriving.Priority() >= ModeCycling.Priority() {
		t.Error("driving should tie-break before cycling")
	}
	if ModeCycling.Priority() >= ModeWalking.Priority() {
		t.Error("cycling should tie-break before walking")
	}
}

func TestGeocodeResult_Validate(t *testing.T) {
	ok := GeocodeResult{Coordinates: Coordinates{Lat: 48.8, Lon: 2.3}}
	if !ok.Validate() {
		t.Error("expected valid coordinates to pass")
	}
	bad := GeocodeResult{Coordinates: Coordinates{Lat: 91, Lon: 2.3}}
	if bad.Validate() {
		t.Error("expected out-of-range latitude to fail")
	}
}

func TestRoute_Valid(t *testing.T) {
	origin := GeocodeResult{Quality: QualityExact, Coordinates: Coordinates{Lat: 48.8, Lon: 2.3}}
	dest := GeocodeResult{Quality: QualityExact, Coordinates: Coordinates{Lat: 48.9, Lon: 2.4}}

	r := Route{Origin: origin, Destination: dest, Mode: ModeDriving, Duration: time.Minute, DistanceM: 1000}
	if !r.Valid() {
		t.Error("expected valid route to pass")
	}

	zero := Route{Origin: origin, Destination: dest, Mode: ModeDriving, Duration: 0, DistanceM: 1000}
	if zero.Valid() {
		t.Error("expected zero-duration route with usable endpoints to fail")
	}

	failedOrigin := GeocodeResult{Quality: QualityFailed}
	degraded := Route{Origin: failedOrigin, Destination: dest, Mode: ModeDriving, Duration: 0}
	if !degraded.Valid() {
		t.Error("expected a route with a FAILED endpoint to be exempt from the duration invariant")
	}
}

func TestIsFeasible(t *testing.T) {
	if !IsFeasible(40, 45, ModeDriving, 0, 0) {
		t.Error("expected actual <= allowed to be feasible")
	}
	if IsFeasible(60, 45, ModeDriving, 0, 0) {
		t.Error("expected actual far beyond allowed*(1+tolerance) to be infeasible")
	}
	if IsFeasible(40, 45, ModePublicTransit, 3, 2) {
		t.Error("expected transfer count over max to be infeasible even if time fits")
	}
}

func TestWeightsSumToOne(t *testing.T) {
	ok := map[string]float64{"a": 0.5, "b": 0.5}
	if !WeightsSumToOne(ok) {
		t.Error("expected weights summing to 1 to pass")
	}
	bad := map[string]float64{"a": 0.5, "b": 0.2}
	if WeightsSumToOne(bad) {
		t.Error("expected weights not summing to 1 to fail")
	}
}

func TestRecommendationClassFor(t *testing.T) {
	tests := []struct {
		score     float64
		sectoral  bool
		want      RecommendationClass
	}{
		{0.9, false, RecommendationStrongMatch},
		{0.7, false, RecommendationMatch},
		{0.5, false, RecommendationWeakMatch},
		{0.2, true, RecommendationNoMatchSectoral},
		{0.2, false, RecommendationNoMatch},
	}
	for _, tt := range tests {
		if got := RecommendationClassFor(tt.score, tt.sectoral); got != tt.want {
			t.Errorf("RecommendationClassFor(%v, %v) = %v, want %v", tt.score, tt.sectoral, got, tt.want)
		}
	}
}

func TestAggregate(t *testing.T) {
	services := []ServiceHealth{
		{Service: "geocoder", State: ServiceHealthy},
		{Service: "router", State: ServiceDegraded},
	}
	if got := Aggregate(services); got != ServiceDegraded {
		t.Errorf("Aggregate() = %v, want %v", got, ServiceDegraded)
	}
}

func TestOptional(t *testing.T) {
	none := None[int]()
	if _, ok := none.Get(); ok {
		t.Error("expected None to be unknown")
	}
	if v := none.OrElse(42); v != 42 {
		t.Errorf("OrElse() = %d, want 42", v)
	}

	some := Some(7)
	if v, ok := some.Get(); !ok || v != 7 {
		t.Errorf("Some.Get() = (%d, %v), want (7, true)", v, ok)
	}
}
