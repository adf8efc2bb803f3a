package scoring

import (
	"math"

	"github.com/Bapt252/nextvision/internal/domain"
)

const (
	hierarchicalStepDecay = 0.15
	hierarchicalFloor     = 0.1
)

// HierarchicalScore implements spec §4.7's Hierarchical component: 1.0 at
// equal levels, linear decay of 0.15 per rank step, floored at 0.1.
func HierarchicalScore(candidateLevel, jobLevel domain.HierarchicalLevel) float64 {
	gap := math.Abs(float64(candidateLevel.Gap(jobLevel)))
	score := 1.0 - hierarchicalStepDecay*gap
	if score < hierarchicalFloor {
		return hierarchicalFloor
	}
	return score
}
