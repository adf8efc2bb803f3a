package geocode

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Bapt252/nextvision/pkg/apperror"
	"github.com/Bapt252/nextvision/pkg/ratelimit"
)

const (
	dailyQuotaKey    = "geocoder_daily"
	dailyQuotaWindow = 24 * time.Hour
)

// quotaTracker enforces the provider's daily call ceiling and flips into a
// soft-degraded mode at QuotaSoftFraction of the ceiling (spec §4.1): once
// crossed, the Geocoder stops calling the provider on a cache miss and
// serves only what the cache already has.
type quotaTracker struct {
	limiter       ratelimit.Limiter
	dailyQuota    int
	softThreshold int
	log           *slog.Logger

	softWarned atomic.Bool
}

func newQuotaTracker(log *slog.Logger, dailyQuota int, softFraction float64, backend, redisAddr string) (*quotaTracker, error) {
	if backend == "" {
		backend = "memory"
	}
	limiter, err := ratelimit.New(&ratelimit.Config{
		Requests:  dailyQuota,
		Window:    dailyQuotaWindow,
		Strategy:  "fixed_window",
		Backend:   backend,
		RedisAddr: redisAddr,
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeServiceUnavailable, "constructing geocoder quota limiter")
	}

	return &quotaTracker{
		limiter:       limiter,
		dailyQuota:    dailyQuota,
		softThreshold: int(float64(dailyQuota) * softFraction),
		log:           log,
	}, nil
}

// reserve records one provider call against the daily quota. It returns
// false once the hard ceiling is reached; the caller must not call the
// provider in that case.
func (q *quotaTracker) reserve(ctx context.Context) (bool, error) {
	allowed, err := q.limiter.Allow(ctx, dailyQuotaKey)
	if err != nil {
		return false, apperror.Wrap(err, apperror.CodeServiceUnavailable, "checking geocoder quota")
	}
	if !allowed {
		return false, nil
	}

	if info, err := q.limiter.GetInfo(ctx, dailyQuotaKey); err == nil {
		used := q.dailyQuota - info.Remaining
		if used >= q.softThreshold && q.softWarned.CompareAndSwap(false, true) {
			q.log.Warn("geocoder approaching daily quota, preferring cache-only",
				"used", used, "daily_quota", q.dailyQuota, "soft_threshold", q.softThreshold)
		}
	}
	return true, nil
}

// preferCacheOnly reports whether the soft threshold has been crossed within
// the current daily window; while true, a cache miss should not fall through
// to the provider. The flag clears once older calls age out of the window
// and usage drops back below the threshold.
func (q *quotaTracker) preferCacheOnly() bool {
	if !q.softWarned.Load() {
		return false
	}
	if info, err := q.limiter.GetInfo(context.Background(), dailyQuotaKey); err == nil {
		if q.dailyQuota-info.Remaining < q.softThreshold {
			q.softWarned.Store(false)
			return false
		}
	}
	return true
}

func (q *quotaTracker) close() error {
	return q.limiter.Close()
}
