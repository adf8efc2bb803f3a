package geocode

import (
	"regexp"
	"strconv"

	"github.com/Bapt252/nextvision/internal/domain"
)

// parisArrondissementCentroids are the approximate geographic centers of
// Paris's 20 arrondissements, used as a finer-grained fallback than a
// single city-wide centroid when geocoding fails but the address text still
// names a specific arrondissement.
var parisArrondissementCentroids = map[int]domain.Coordinates{
	1:  {Lat: 48.8625, Lon: 2.3360},
	2:  {Lat: 48.8686, Lon: 2.3411},
	3:  {Lat: 48.8630, Lon: 2.3610},
	4:  {Lat: 48.8543, Lon: 2.3577},
	5:  {Lat: 48.8445, Lon: 2.3504},
	6:  {Lat: 48.8496, Lon: 2.3339},
	7:  {Lat: 48.8562, Lon: 2.3122},
	8:  {Lat: 48.8718, Lon: 2.3126},
	9:  {Lat: 48.8768, Lon: 2.3378},
	10: {Lat: 48.8761, Lon: 2.3599},
	11: {Lat: 48.8590, Lon: 2.3800},
	12: {Lat: 48.8398, Lon: 2.3878},
	13: {Lat: 48.8322, Lon: 2.3561},
	14: {Lat: 48.8286, Lon: 2.3262},
	15: {Lat: 48.8417, Lon: 2.2996},
	16: {Lat: 48.8637, Lon: 2.2769},
	17: {Lat: 48.8872, Lon: 2.3069},
	18: {Lat: 48.8925, Lon: 2.3444},
	19: {Lat: 48.8870, Lon: 2.3840},
	20: {Lat: 48.8632, Lon: 2.4012},
}

// postalArrondissementRE matches a Paris postal code (750xx) and captures
// the arrondissement number.
var postalArrondissementRE = regexp.MustCompile(`\b750?(\d{1,2})\b`)

// ordinalArrondissementRE matches text like "11e arrondissement" or "11eme".
var ordinalArrondissementRE = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:e|ème|eme|er)\s*(?:arrondissement|arr\.?)?\b`)

// FallbackCentroid resolves address to an arrondissement-level centroid when
// it names a specific Paris arrondissement (via postal code or ordinal
// text), falling back to false when no arrondissement can be extracted —
// callers then fall back further to the region-wide default centroid.
func FallbackCentroid(address string) (domain.Coordinates, bool) {
	normalized := normalize(address)

	if m := postalArrondissementRE.FindStringSubmatch(normalized); m != nil {
		if n, ok := parseArrondissement(m[1]); ok {
			if c, ok := parisArrondissementCentroids[n]; ok {
				return c, true
			}
		}
	}

	if m := ordinalArrondissementRE.FindStringSubmatch(normalized); m != nil {
		if n, ok := parseArrondissement(m[1]); ok {
			if c, ok := parisArrondissementCentroids[n]; ok {
				return c, true
			}
		}
	}

	return domain.Coordinates{}, false
}

func parseArrondissement(digits string) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 20 {
		return 0, false
	}
	return n, true
}
