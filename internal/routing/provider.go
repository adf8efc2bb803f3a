package routing

import (
	"context"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
)

// Provider computes a live route between two points for one transport mode.
// Implementations wrap a specific upstream routing service.
type Provider interface {
	Route(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode, departure time.Time) (ProviderRoute, error)
}

// ProviderRoute is an upstream provider's raw answer.
type ProviderRoute struct {
	DurationSeconds float64
	DistanceMeters  float64
	// TrafficFactor is the ratio of in-traffic to free-flow duration;
	// HasTraffic reports whether the provider actually returned one.
	TrafficFactor float64
	HasTraffic    bool
	// TransferCount is only meaningful for ModePublicTransit.
	TransferCount int
	HasTransfers  bool
}
