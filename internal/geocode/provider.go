package geocode

import (
	"context"

	"github.com/Bapt252/nextvision/internal/domain"
)

// Provider resolves a normalized address to raw coordinates. Implementations
// wrap one upstream geocoding service; the Geocoder adds caching, quota
// tracking, and resilience around whichever Provider it is given.
type Provider interface {
	Geocode(ctx context.Context, address string) (ProviderResult, error)
}

// ProviderResult is an upstream provider's raw answer, before quality-tier
// mapping into domain.GeocodeQuality.
type ProviderResult struct {
	FormattedAddress string
	Lat, Lon         float64
	PlaceID          string
	// RawQuality is the provider's own precision label, e.g. "rooftop",
	// "range_interpolated", "geometric_center", "approximate".
	RawQuality string
}

// mapQuality maps a provider's precision label onto the tiers spec §4.1
// defines: building-level resolves EXACT, range-interpolated or
// geometric-center resolves INTERPOLATED/APPROXIMATE, anything coarser
// resolves PARTIAL.
func mapQuality(raw string) domain.GeocodeQuality {
	switch raw {
	case "rooftop", "building", "house_number", "exact":
		return domain.QualityExact
	case "range_interpolated", "interpolated":
		return domain.QualityInterpolated
	case "geometric_center", "centroid":
		return domain.QualityApproximate
	default:
		return domain.QualityPartial
	}
}
