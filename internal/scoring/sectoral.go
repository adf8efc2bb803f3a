package scoring

import "github.com/Bapt252/nextvision/pkg/config"

const sectoralDefaultScore = 0.6

// SectoralScore implements spec §4.7's Sectoral component: 1.0 when sectors
// are equal, a configured compatible-family score (0.8-0.9) when one is
// registered, else the incompatibility-table entry for the pair, else a
// 0.6 default.
func SectoralScore(candidateSector, jobSector string, sectors config.SectorConfig) float64 {
	if candidateSector == jobSector {
		return 1.0
	}
	if v, ok := lookup(sectors.Compatible, candidateSector, jobSector); ok {
		return v
	}
	if v, ok := lookup(sectors.Incompatible, candidateSector, jobSector); ok {
		return v
	}
	return sectoralDefaultScore
}
