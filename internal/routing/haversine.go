package routing

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/pkg/config"
)

// haversineRoute builds a fallback ProviderRoute from great-circle distance
// and the mode's nominal speed (spec §4.2). It carries no traffic data.
func haversineRoute(origin, destination domain.Coordinates, mode domain.TransportMode) ProviderRoute {
	originPt := orb.Point{origin.Lon, origin.Lat}
	destPt := orb.Point{destination.Lon, destination.Lat}
	distanceM := geo.Distance(originPt, destPt)

	speedKmh := mode.NominalSpeedKmh()
	if speedKmh <= 0 {
		speedKmh = domain.ModeDriving.NominalSpeedKmh()
	}
	durationSeconds := (distanceM / 1000) / speedKmh * 3600

	return ProviderRoute{
		DurationSeconds: durationSeconds,
		DistanceMeters:  distanceM,
		HasTraffic:      false,
	}
}

// isRushHour reports whether t falls in either of the router's two
// configured rush-hour windows, in cfg's timezone (spec §4.2). Weekends are
// never rush hour regardless of the hour.
func isRushHour(t time.Time, cfg config.RouterConfig) bool {
	loc := time.UTC
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		}
	}
	local := t.In(loc)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}

	hour := local.Hour()
	start1, end1 := cfg.RushHourStart1, cfg.RushHourEnd1
	start2, end2 := cfg.RushHourStart2, cfg.RushHourEnd2
	if start1 == 0 && end1 == 0 {
		start1, end1 = 7, 9
	}
	if start2 == 0 && end2 == 0 {
		start2, end2 = 17, 19
	}

	return (hour >= start1 && hour < end1) || (hour >= start2 && hour < end2)
}
