package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/pkg/logger"
)

const matchResultNamespace = "match_result"

// MatchCache caches domain.MatchResult under the spec's §4.10 cache-key
// contract: (candidate_id, job_id, weights_fingerprint). Two calls to the
// MatchEngine for the same pair under the same effective weight vector hit
// the same entry; a weight change (a different listening reason, a
// reconfigured base vector) is a different key, never a stale hit.
type MatchCache struct {
	backend Cache
	ttl     time.Duration
	log     *slog.Logger
}

// NewMatchCache wraps backend (typically a *MultiLevelCache) with the
// match-result namespace TTL policy.
func NewMatchCache(ctx context.Context, backend Cache, ttl time.Duration) *MatchCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MatchCache{backend: backend, ttl: ttl, log: logger.FromContext(ctx)}
}

// Key builds the cache key for a (candidate, job) pair under a weight
// vector. weightsFingerprint should come from cache.Fingerprint applied to
// the effective weight map, so two requests that resolve to the same
// weights after adjustment/renormalization always collide on the same key
// regardless of the order their individual adjustments were computed in.
func (c *MatchCache) Key(candidateID, jobID, weightsFingerprint string) string {
	return BuildCacheKey(matchResultNamespace, candidateID, jobID, weightsFingerprint)
}

// Get returns the cached MatchResult for key, or (zero, false) on a miss or
// on a corrupt cache entry. A corrupt entry (one that fails to unmarshal —
// e.g. written by a since-changed version of MatchResult) self-heals: it is
// deleted so the next write repopulates it cleanly, and the corruption is
// logged rather than propagated as an error, since a cache layer must never
// turn a decode bug into a Match() failure.
func (c *MatchCache) Get(ctx context.Context, key string) (domain.MatchResult, bool) {
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		return domain.MatchResult{}, false
	}

	var result domain.MatchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.log.Warn("match cache entry corrupt, evicting", "key", key, "error", err)
		_ = c.backend.Delete(ctx, key)
		return domain.MatchResult{}, false
	}

	return result, true
}

// Set stores result under key with the match-result namespace TTL.
func (c *MatchCache) Set(ctx context.Context, key string, result domain.MatchResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal match result: %w", err)
	}
	return c.backend.Set(ctx, key, raw, c.ttl)
}

// Invalidate removes a single (candidate, job, weights) entry.
func (c *MatchCache) Invalidate(ctx context.Context, candidateID, jobID, weightsFingerprint string) error {
	return c.backend.Delete(ctx, c.Key(candidateID, jobID, weightsFingerprint))
}

// InvalidateCandidate removes every cached match for a candidate across all
// jobs and weight vectors, e.g. after the candidate's profile is updated.
func (c *MatchCache) InvalidateCandidate(ctx context.Context, candidateID string) (int64, error) {
	return c.backend.DeleteByPattern(ctx, BuildCacheKey(matchResultNamespace, candidateID, "*"))
}

// InvalidateAll drops every cached match result, e.g. after a base-weight
// configuration change that would otherwise be invisible to existing keys
// sharing the same fingerprint by coincidence.
func (c *MatchCache) InvalidateAll(ctx context.Context) (int64, error) {
	return c.backend.DeleteByPattern(ctx, BuildCacheKey(matchResultNamespace, "*"))
}
