package domain

import "time"

// Coordinates is a plain (lat, lon) pair. Invariant: Lat in [-90,90], Lon in
// [-180,180] — enforced by GeocodeResult.Validate, not by the type itself,
// since intermediate arithmetic (e.g. centroid averaging) may transiently
// violate it.
type Coordinates struct {
	Lat float64
	Lon float64
}

// GeocodeResult is the Geocoder's output for a single address. Produced by
// the Geocoder; read-only thereafter. A cache entry wrapping one expires
// after the "geocoding" namespace TTL (default ~24h).
type GeocodeResult struct {
	InputAddress     string
	FormattedAddress string
	Coordinates      Coordinates
	Quality          GeocodeQuality
	PlaceID          string
	CachedAt         time.Time
}

// Validate checks the coordinate invariant from spec §3 and §8.
func (g GeocodeResult) Validate() bool {
	return g.Coordinates.Lat >= -90 && g.Coordinates.Lat <= 90 &&
		g.Coordinates.Lon >= -180 && g.Coordinates.Lon <= 180
}

// IsUsable reports whether the result carries a real geocode rather than a
// failure placeholder. Downstream scorers treat QualityFailed specially: no
// real distance computation is attempted against it.
func (g GeocodeResult) IsUsable() bool {
	return g.Quality != QualityFailed
}
