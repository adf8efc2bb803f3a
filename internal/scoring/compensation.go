package scoring

import "github.com/Bapt252/nextvision/internal/domain"

const (
	bandTolerance  = 0.10
	decayHorizon   = 0.50
	withinBandComp = 0.8
)

// CompensationScore implements spec §4.7's Compensation component: 1.0
// inside [job.Min, job.Max]; 0.8 within ±10% of the nearer bound; linear
// decay to 0.0 at ±50%.
func CompensationScore(expected int, salary domain.SalaryRange) float64 {
	if salary.Contains(expected) {
		return 1.0
	}

	var bound, diff float64
	if expected < salary.Min {
		bound = float64(salary.Min)
		diff = bound - float64(expected)
	} else {
		bound = float64(salary.Max)
		diff = float64(expected) - bound
	}
	if bound <= 0 {
		return 0
	}
	return decay(diff/bound, bandTolerance, decayHorizon, withinBandComp)
}

// decay scales linearly from `atTolerance` (at fracDistance == tolerance)
// down to 0 at fracDistance == horizon, and is exactly `atTolerance` for any
// fracDistance at or below tolerance.
func decay(fracDistance, tolerance, horizon, atTolerance float64) float64 {
	switch {
	case fracDistance <= tolerance:
		return atTolerance
	case fracDistance >= horizon:
		return 0
	default:
		return atTolerance * (horizon - fracDistance) / (horizon - tolerance)
	}
}
