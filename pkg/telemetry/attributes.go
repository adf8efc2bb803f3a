package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Standard attribute keys for matching, geocoding and routing spans.
const (
	AttrCandidateID = "match.candidate_id"
	AttrJobID       = "match.job_id"
	AttrFinalScore  = "match.final_score"
	AttrRecommend   = "match.recommendation"

	AttrGeocodeAddress = "geocode.address"
	AttrGeocodeQuality = "geocode.quality"
	AttrGeocodeCached  = "geocode.cached"

	AttrRouteMode     = "route.mode"
	AttrRouteDuration = "route.duration_seconds"
	AttrRouteFallback = "route.fallback"

	AttrBatchSize   = "batch.size"
	AttrBatchMode   = "batch.mode"
	AttrBatchErrors = "batch.errors"

	AttrCircuitService = "circuit.service"
	AttrCircuitState   = "circuit.state"
)

// MatchAttributes returns the span attributes for a single match operation.
func MatchAttributes(candidateID, jobID string, finalScore float64, recommendation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCandidateID, candidateID),
		attribute.String(AttrJobID, jobID),
		attribute.Float64(AttrFinalScore, finalScore),
		attribute.String(AttrRecommend, recommendation),
	}
}

// GeocodeAttributes returns the span attributes for a geocode call.
func GeocodeAttributes(address, quality string, cached bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrGeocodeAddress, address),
		attribute.String(AttrGeocodeQuality, quality),
		attribute.Bool(AttrGeocodeCached, cached),
	}
}

// RouteAttributes returns the span attributes for a routing call.
func RouteAttributes(mode string, durationSeconds float64, fallback bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRouteMode, mode),
		attribute.Float64(AttrRouteDuration, durationSeconds),
		attribute.Bool(AttrRouteFallback, fallback),
	}
}

// BatchAttributes returns the span attributes for a batch operation.
func BatchAttributes(size int, mode string, errors int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrBatchSize, size),
		attribute.String(AttrBatchMode, mode),
		attribute.Int(AttrBatchErrors, errors),
	}
}

// CircuitAttributes returns the span attributes for a circuit breaker event.
func CircuitAttributes(service, state string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCircuitService, service),
		attribute.String(AttrCircuitState, state),
	}
}
