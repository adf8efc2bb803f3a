package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the container for every Prometheus collector the engine exposes.
type Metrics struct {
	// Matching
	MatchesTotal    *prometheus.CounterVec
	MatchDuration   *prometheus.HistogramVec
	MatchScore      *prometheus.HistogramVec
	MatchesInFlight prometheus.Gauge
	Requests        *RequestTracker

	// Component scorers
	ComponentScoreDuration *prometheus.HistogramVec

	// Transport intelligence
	GeocodeRequestsTotal  *prometheus.CounterVec
	GeocodeDuration       *prometheus.HistogramVec
	RouteRequestsTotal    *prometheus.CounterVec
	RouteDuration         *prometheus.HistogramVec

	// Resilience
	CircuitBreakerState   *prometheus.GaugeVec // 0=closed,1=half_open,2=open, per service
	CircuitBreakerTrips   *prometheus.CounterVec
	RetryAttemptsTotal    *prometheus.CounterVec
	DegradationEventsTotal *prometheus.CounterVec

	// Cache
	CacheHitsTotal   *prometheus.CounterVec // tier={l1,l2}, namespace
	CacheMissesTotal *prometheus.CounterVec

	// Batch
	BatchSizeTotal     *prometheus.HistogramVec
	BatchDuration      *prometheus.HistogramVec
	BatchConcurrency   *prometheus.GaugeVec

	// Service info
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics registers every Nextvision collector under namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		MatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "matches_total", Help: "Total number of candidate/job matches performed",
			},
			[]string{"recommendation"},
		),
		MatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "match_duration_seconds", Help: "Duration of a single match",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{},
		),
		MatchScore: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "match_final_score", Help: "Distribution of final match scores",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{},
		),
		MatchesInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "matches_in_flight", Help: "Number of matches currently being computed",
			},
		),

		ComponentScoreDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "component_score_duration_seconds", Help: "Duration of a single component scorer",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"component"},
		),

		GeocodeRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "geocode_requests_total", Help: "Total geocode requests by outcome",
			},
			[]string{"outcome"}, // cache_hit, provider, degraded, error, quota_degraded, quota_error, quota_exhausted
		),
		GeocodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "geocode_duration_seconds", Help: "Duration of geocode calls",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		RouteRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "route_requests_total", Help: "Total route requests by outcome",
			},
			[]string{"mode", "outcome"}, // outcome: cache_hit, provider, fallback
		),
		RouteDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "route_duration_seconds", Help: "Duration of routing calls",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10},
			},
			[]string{"mode"},
		),

		CircuitBreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "circuit_breaker_state", Help: "0=closed 1=half_open 2=open",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "circuit_breaker_trips_total", Help: "Total CLOSED->OPEN transitions",
			},
			[]string{"service"},
		),
		RetryAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "retry_attempts_total", Help: "Total retry attempts by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		DegradationEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "degradation_events_total", Help: "Total degradation-manager fallback invocations",
			},
			[]string{"service", "strategy"},
		),

		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "cache_hits_total", Help: "Cache hits by tier and namespace",
			},
			[]string{"tier", "namespace"},
		),
		CacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "cache_misses_total", Help: "Cache misses by tier and namespace",
			},
			[]string{"tier", "namespace"},
		),

		BatchSizeTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "batch_size", Help: "Distribution of batch sizes",
				Buckets: []float64{1, 5, 10, 50, 100, 200, 500, 1000},
			},
			[]string{"mode"}, // cooperative, pooled, parallel, huge
		),
		BatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "batch_duration_seconds", Help: "Duration of whole-batch execution",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"mode"},
		),
		BatchConcurrency: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "batch_active_concurrency", Help: "Current effective concurrency limit (after backpressure halving)",
			},
			[]string{},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "service_info", Help: "Service build information",
			},
			[]string{"version", "environment"},
		),
	}

	m.Requests = NewRequestTracker(m.MatchesInFlight)
	prometheus.MustRegister(NewRuntimeCollector(namespace, subsystem))

	defaultMetrics = m
	return m
}

// Get returns the process-wide metrics instance, initializing it with
// defaults on first use.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("nextvision", "")
	}
	return defaultMetrics
}

// RecordMatch records a completed match's duration, score and recommendation class.
func (m *Metrics) RecordMatch(recommendation string, duration time.Duration, finalScore float64) {
	m.MatchesTotal.WithLabelValues(recommendation).Inc()
	m.MatchDuration.WithLabelValues().Observe(duration.Seconds())
	m.MatchScore.WithLabelValues().Observe(finalScore)
}

// RecordGeocode records a geocode call's outcome and duration.
func (m *Metrics) RecordGeocode(outcome string, duration time.Duration) {
	m.GeocodeRequestsTotal.WithLabelValues(outcome).Inc()
	m.GeocodeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordRoute records a routing call's outcome and duration.
func (m *Metrics) RecordRoute(mode, outcome string, duration time.Duration) {
	m.RouteRequestsTotal.WithLabelValues(mode, outcome).Inc()
	m.RouteDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// SetCircuitState publishes the current numeric state of a named circuit.
func (m *Metrics) SetCircuitState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitTrip records a CLOSED->OPEN transition.
func (m *Metrics) RecordCircuitTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// RecordRetryAttempt records one retry attempt outcome under a strategy.
func (m *Metrics) RecordRetryAttempt(strategy, outcome string) {
	m.RetryAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordDegradation records a DegradationManager fallback invocation.
func (m *Metrics) RecordDegradation(service, strategy string) {
	m.DegradationEventsTotal.WithLabelValues(service, strategy).Inc()
}

// RecordCacheHit/RecordCacheMiss record per-tier/namespace cache outcomes.
func (m *Metrics) RecordCacheHit(tier, namespace string)  { m.CacheHitsTotal.WithLabelValues(tier, namespace).Inc() }
func (m *Metrics) RecordCacheMiss(tier, namespace string) { m.CacheMissesTotal.WithLabelValues(tier, namespace).Inc() }

// RecordBatch records a completed batch's mode, size and duration.
func (m *Metrics) RecordBatch(mode string, size int, duration time.Duration) {
	m.BatchSizeTotal.WithLabelValues(mode).Observe(float64(size))
	m.BatchDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// SetServiceInfo publishes build metadata as a constant gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
