package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/pkg/apperror"
)

// OSRMProvider queries an OSRM-compatible routing service's /route endpoint.
// No routing SDK exists in the reference corpus, so this is a direct
// net/http client rather than a wrapped third-party library — see
// DESIGN.md. Vanilla OSRM does not return traffic data, so routes it
// produces never set HasTraffic, and it has no public-transit profile.
type OSRMProvider struct {
	baseURL string
	client  *http.Client
}

func NewOSRMProvider(baseURL string, client *http.Client) *OSRMProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &OSRMProvider{baseURL: baseURL, client: client}
}

var osrmProfiles = map[domain.TransportMode]string{
	domain.ModeDriving: "driving",
	domain.ModeCycling: "bike",
	domain.ModeWalking: "foot",
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

func (p *OSRMProvider) Route(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode, departure time.Time) (ProviderRoute, error) {
	profile, ok := osrmProfiles[mode]
	if !ok {
		return ProviderRoute{}, apperror.New(apperror.CodeRouteModeInvalid, "mode not supported by routing provider")
	}

	reqURL := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=false",
		p.baseURL, profile, origin.Lon, origin.Lat, destination.Lon, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ProviderRoute{}, apperror.Wrap(err, apperror.CodeInvalidArgument, "building route request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ProviderRoute{}, apperror.Wrap(err, apperror.CodeServiceUnavailable, "routing provider unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ProviderRoute{}, apperror.New(apperror.CodeServiceUnavailable, "routing provider rate limit")
	case resp.StatusCode >= 500:
		return ProviderRoute{}, apperror.New(apperror.CodeServiceUnavailable, "routing provider error")
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ProviderRoute{}, apperror.Wrap(err, apperror.CodeServiceUnavailable, "decoding route response")
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return ProviderRoute{}, apperror.New(apperror.CodeRouteUnavailable, "no route found")
	}

	r := body.Routes[0]
	return ProviderRoute{
		DurationSeconds: r.Duration,
		DistanceMeters:  r.Distance,
	}, nil
}
