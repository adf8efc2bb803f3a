package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Bapt252/nextvision/pkg/apperror"
)

// NominatimProvider queries a Nominatim-compatible (OpenStreetMap) search
// endpoint over HTTP. No geocoding SDK exists in the reference corpus, so
// this is a direct net/http client rather than a wrapped third-party
// library — see DESIGN.md.
type NominatimProvider struct {
	baseURL    string
	regionBias string
	client     *http.Client
}

func NewNominatimProvider(baseURL, regionBias string, client *http.Client) *NominatimProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &NominatimProvider{baseURL: baseURL, regionBias: regionBias, client: client}
}

type nominatimHit struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	PlaceID     int64  `json:"place_id"`
	Type        string `json:"type"`
}

func (p *NominatimProvider) Geocode(ctx context.Context, address string) (ProviderResult, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	if p.regionBias != "" {
		q.Set("countrycodes", p.regionBias)
	}
	reqURL := fmt.Sprintf("%s/search?%s", p.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ProviderResult{}, apperror.Wrap(err, apperror.CodeInvalidArgument, "building geocode request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ProviderResult{}, apperror.Wrap(err, apperror.CodeServiceUnavailable, "geocode provider unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ProviderResult{}, apperror.New(apperror.CodeGeocodeQuotaReached, "geocode provider rate limit")
	case resp.StatusCode >= 500:
		return ProviderResult{}, apperror.New(apperror.CodeServiceUnavailable, "geocode provider error")
	case resp.StatusCode != http.StatusOK:
		return ProviderResult{}, apperror.New(apperror.CodeInvalidArgument, "geocode provider rejected request")
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return ProviderResult{}, apperror.Wrap(err, apperror.CodeServiceUnavailable, "decoding geocode response")
	}
	if len(hits) == 0 {
		return ProviderResult{}, apperror.New(apperror.CodeGeocodeNotFound, "no match for address")
	}

	hit := hits[0]
	lat, err := strconv.ParseFloat(hit.Lat, 64)
	if err != nil {
		return ProviderResult{}, apperror.Wrap(err, apperror.CodeGeocodeNotFound, "invalid latitude in response")
	}
	lon, err := strconv.ParseFloat(hit.Lon, 64)
	if err != nil {
		return ProviderResult{}, apperror.Wrap(err, apperror.CodeGeocodeNotFound, "invalid longitude in response")
	}

	return ProviderResult{
		FormattedAddress: hit.DisplayName,
		Lat:              lat,
		Lon:              lon,
		PlaceID:          fmt.Sprintf("%d", hit.PlaceID),
		RawQuality:       classifyRawQuality(hit.Type),
	}, nil
}

func classifyRawQuality(osmType string) string {
	switch osmType {
	case "house", "building":
		return "rooftop"
	case "residential", "road":
		return "range_interpolated"
	case "neighbourhood", "suburb", "city_district":
		return "geometric_center"
	default:
		return "approximate"
	}
}
