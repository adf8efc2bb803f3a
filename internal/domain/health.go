package domain

import "time"

// ServiceHealth is the point-in-time health snapshot for one named external
// service (e.g. "geocoder", "router", "l2_cache"). Counters are maintained
// with atomics by their owning component; this type is the read-only view
// exposed to health-check callers.
type ServiceHealth struct {
	Service string
	State   ServiceState

	SuccessCount int64
	FailureCount int64

	LastSuccess time.Time
	LastFailure time.Time

	AvgResponseTime time.Duration

	// HalfOpenAt is set only while State == ServiceCircuitOpen; it is the
	// scheduled time the circuit breaker will allow a probe call.
	HalfOpenAt Optional[time.Time]
}

// FailureRate returns the fraction of calls that failed, or 0 if no calls
// have been recorded yet.
func (h ServiceHealth) FailureRate() float64 {
	total := h.SuccessCount + h.FailureCount
	if total == 0 {
		return 0
	}
	return float64(h.FailureCount) / float64(total)
}

// Aggregate reduces a set of per-service health snapshots to a single
// worst-case state, used for a top-level health-check endpoint. DOWN beats
// CIRCUIT_OPEN beats FAILING beats DEGRADED beats HEALTHY.
func Aggregate(services []ServiceHealth) ServiceState {
	worst := ServiceHealthy
	rank := map[ServiceState]int{
		ServiceHealthy:     0,
		ServiceDegraded:    1,
		ServiceFailing:     2,
		ServiceCircuitOpen: 3,
		ServiceDown:        4,
	}
	for _, s := range services {
		if rank[s.State] > rank[worst] {
			worst = s.State
		}
	}
	return worst
}
