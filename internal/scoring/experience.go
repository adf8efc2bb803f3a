package scoring

import "github.com/Bapt252/nextvision/internal/domain"

// yearsPerOverqualificationStep maps years beyond the job's maximum onto the
// same step table OverqualificationPenalty uses for hierarchical gaps: two
// years over the ceiling counts as one step.
const yearsPerOverqualificationStep = 2

// ExperienceScore implements spec §4.7's Experience component: 1.0 inside
// [job.Min, job.Max]; below Min it decays the same way Compensation decays
// below its lower bound; above Max it decays using the overqualification
// step table, since too much experience is an overqualification signal
// rather than a simple shortfall.
func ExperienceScore(years int, exp domain.ExperienceRange) float64 {
	if exp.Contains(years) {
		return 1.0
	}

	if years < exp.Min {
		if exp.Min <= 0 {
			return 0
		}
		diff := float64(exp.Min - years)
		return decay(diff/float64(exp.Min), bandTolerance, decayHorizon, withinBandComp)
	}

	over := years - exp.Max
	steps := over / yearsPerOverqualificationStep
	return OverqualificationPenalty(steps)
}
