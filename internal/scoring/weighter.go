package scoring

import "github.com/Bapt252/nextvision/internal/domain"

const (
	weightAdjustStep       = 0.05
	weightAdjustGrowth     = 0.04
	weightAdjustExperience = 0.03
)

// Weights is the normalized [0,1] vector the MatchEngine composes subscores
// with; keys match DefaultBaseWeights' component names.
type Weights map[string]float64

// AdaptiveWeighter implements spec §4.8: starts from the configured base
// vector, applies every listening-reason/profile-richness adjustment, then
// renormalizes once so the vector still sums to 1.
type AdaptiveWeighter struct {
	base map[string]float64
}

func NewAdaptiveWeighter(base map[string]float64) *AdaptiveWeighter {
	return &AdaptiveWeighter{base: base}
}

// Weigh returns the adjusted, renormalized weight vector for one candidate.
// hasMotivations reports whether a motivations subscore could be computed at
// all; when false its weight is redistributed across the remaining
// components instead of renormalizing it away implicitly.
func (w *AdaptiveWeighter) Weigh(candidate domain.CandidateProfile, hasMotivations bool) Weights {
	weights := make(Weights, len(w.base))
	for k, v := range w.base {
		weights[k] = v
	}

	switch candidate.ListeningReason {
	case domain.ReasonRelocDistance:
		weights.shift("location", "semantic", weightAdjustStep)
	case domain.ReasonCompensation:
		weights.shift("compensation", "semantic", weightAdjustStep)
	case domain.ReasonCareerGrowth:
		weights.shift("motivations", "semantic", weightAdjustGrowth)
	}
	if candidate.HasManyDetailedExperiences() {
		weights.shift("experience", "semantic", weightAdjustExperience)
	}

	if !hasMotivations {
		weights.redistribute("motivations")
	}

	weights.renormalize()
	return weights
}

// shift moves delta from `from` to `to`, clamping both at 0 so an
// adjustment never drives a component negative.
func (w Weights) shift(to, from string, delta float64) {
	if w[from]-delta < 0 {
		delta = w[from]
	}
	w[to] += delta
	w[from] -= delta
}

// redistribute zeroes out w[key] and spreads its weight across the
// remaining components in proportion to their current share.
func (w Weights) redistribute(key string) {
	removed := w[key]
	if removed == 0 {
		return
	}
	w[key] = 0

	remaining := 0.0
	for k, v := range w {
		if k == key {
			continue
		}
		remaining += v
	}
	if remaining == 0 {
		return
	}
	for k, v := range w {
		if k == key {
			continue
		}
		w[k] = v + removed*(v/remaining)
	}
}

func (w Weights) renormalize() {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum == 0 {
		return
	}
	for k, v := range w {
		w[k] = v / sum
	}
}
