package scoring

import "github.com/Bapt252/nextvision/pkg/config"

// SectoralIncompatibilityPenalty looks up the candidate/job sector pair in
// the configured incompatibility table (spec §4.7's semantic-subscore
// penalty, e.g. tech<->accounting = 0.5). The lookup is tried in both
// directions since the table need not be populated symmetrically.
func SectoralIncompatibilityPenalty(candidateSector, jobSector string, sectors config.SectorConfig) (float64, bool) {
	if candidateSector == jobSector {
		return 1.0, false
	}
	if penalty, ok := lookup(sectors.Incompatible, candidateSector, jobSector); ok {
		return penalty, true
	}
	return 1.0, false
}

func lookup(table map[string]map[string]float64, a, b string) (float64, bool) {
	if inner, ok := table[a]; ok {
		if v, ok := inner[b]; ok {
			return v, true
		}
	}
	if inner, ok := table[b]; ok {
		if v, ok := inner[a]; ok {
			return v, true
		}
	}
	return 0, false
}

// OverqualificationPenalty maps a hierarchical gap to the multiplicative
// penalty spec §4.7 defines: gap 0 -> 1.0, 1 -> 0.9, 2 -> 0.7, >=3 -> 0.5.
func OverqualificationPenalty(gap int) float64 {
	switch {
	case gap <= 0:
		return 1.0
	case gap == 1:
		return 0.9
	case gap == 2:
		return 0.7
	default:
		return 0.5
	}
}
