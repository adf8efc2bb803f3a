package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/Bapt252/nextvision/pkg/config"
	"github.com/Bapt252/nextvision/pkg/logger"
)

// l1PromotionCap bounds the TTL used when a L2 hit is promoted into L1: the
// promoted copy never outlives the L2 entry, but it also never sits in L1
// longer than this, so a cold L1 restart can't serve a stale value for hours.
const l1PromotionCap = 5 * time.Minute

// negativeCacheFalsePositiveRate is the bloom filter's target false-positive
// rate; a false positive only costs a redundant full lookup, never wrong
// data, so a rate this loose is an acceptable trade for a compact filter.
const negativeCacheFalsePositiveRate = 0.01

// MultiLevelCache composes an in-process L1 and a remote L2 behind the same
// Cache-shaped surface used throughout the engine: Geocoder, Router and the
// match-result cache all address it by namespaced key, never by tier.
//
// Writes are write-through (both tiers, best effort on L2). Reads check L1,
// then L2; an L2 hit is promoted back into L1 so the next read for the same
// key is local. A bloom filter remembers keys that missed in both tiers so a
// repeated miss (e.g. an address the geocoder could never resolve) short-
// circuits before touching L2 again.
type MultiLevelCache struct {
	l1 Cache
	l2 Cache // nil when L2 is disabled (memory-only deployment)

	namespaceTTL map[string]time.Duration
	defaultTTL   time.Duration

	negMu    sync.Mutex
	negative *bloom.BloomFilter

	l2Healthy atomic.Bool
	log       *slog.Logger
}

// NewMultiLevelCache builds the cache's L1 tier unconditionally and its L2
// tier when cfg.L2Driver == "redis"; any other driver value (including
// empty, for single-process deployments/tests) leaves L2 nil and the cache
// runs L1-only.
func NewMultiLevelCache(ctx context.Context, cfg *config.CacheConfig) (*MultiLevelCache, error) {
	l1Opts := DefaultOptions()
	if cfg.L1MaxEntries > 0 {
		l1Opts.MaxEntries = cfg.L1MaxEntries
	}
	if cfg.L1CleanupInterval > 0 {
		l1Opts.CleanupInterval = cfg.L1CleanupInterval
	}

	mc := &MultiLevelCache{
		l1:           NewMemoryCache(l1Opts),
		namespaceTTL: mergeNamespaceTTLs(cfg.NamespaceTTL),
		defaultTTL:   5 * time.Minute,
		log:          logger.FromContext(ctx),
	}

	capacity := cfg.NegativeCacheSize
	if capacity == 0 {
		capacity = 100000
	}
	mc.negative = bloom.NewWithEstimates(capacity, negativeCacheFalsePositiveRate)

	if cfg.L2Driver == BackendRedis {
		l2, err := NewRedisCache(&Options{
			Backend:       BackendRedis,
			DefaultTTL:    mc.defaultTTL,
			RedisAddr:     cfg.L2Address,
			RedisPassword: cfg.L2Password,
			RedisDB:       cfg.L2DB,
			RedisPoolSize: 10,
		})
		if err != nil {
			return nil, err
		}
		mc.l2 = l2
		mc.l2Healthy.Store(true)
	}

	return mc, nil
}

func mergeNamespaceTTLs(overrides map[string]time.Duration) map[string]time.Duration {
	merged := config.DefaultNamespaceTTLs()
	for ns, ttl := range overrides {
		merged[ns] = ttl
	}
	return merged
}

// TTLForNamespace returns the configured TTL for namespace, or the cache's
// default if the namespace has no override.
func (c *MultiLevelCache) TTLForNamespace(namespace string) time.Duration {
	if ttl, ok := c.namespaceTTL[namespace]; ok {
		return ttl
	}
	return c.defaultTTL
}

// Get checks L1, then the negative cache, then L2 (promoting an L2 hit back
// into L1). A miss across both tiers is recorded in the negative cache.
// Checking L1 before the negative cache matters: a bloom filter can't forget
// a key, so a fresh Set after an earlier miss must still be visible via L1.
func (c *MultiLevelCache) Get(ctx context.Context, key string) ([]byte, error) {
	if val, err := c.l1.Get(ctx, key); err == nil {
		return val, nil
	}

	if c.isNegative(key) {
		return nil, ErrKeyNotFound
	}

	if c.l2 != nil && c.l2Healthy.Load() {
		val, ttl, err := c.l2.GetWithTTL(ctx, key)
		if err == nil {
			promoteTTL := ttl
			if promoteTTL <= 0 || promoteTTL > l1PromotionCap {
				promoteTTL = l1PromotionCap
			}
			_ = c.l1.Set(ctx, key, val, promoteTTL)
			return val, nil
		}
		if err != ErrKeyNotFound {
			c.markL2Unhealthy(err)
		}
	}

	c.markNegative(key)
	return nil, ErrKeyNotFound
}

// Set writes through to L1 and, when healthy, L2. An L2 write failure is
// logged and marks L2 degraded but does not fail the call: L1 already holds
// the value.
func (c *MultiLevelCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}

	if c.l2 != nil && c.l2Healthy.Load() {
		if err := c.l2.Set(ctx, key, value, ttl); err != nil {
			c.markL2Unhealthy(err)
		}
	}

	return nil
}

// Delete removes key from both tiers.
func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	if c.l2 != nil {
		return c.l2.Delete(ctx, key)
	}
	return nil
}

// DeleteByPattern removes matching keys from both tiers, returning the
// L1 count (L2's count, when present, is best effort and not summed since
// the two tiers may share most of their keyspace).
func (c *MultiLevelCache) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	n, err := c.l1.DeleteByPattern(ctx, pattern)
	if err != nil {
		return n, err
	}
	if c.l2 != nil && c.l2Healthy.Load() {
		if _, err := c.l2.DeleteByPattern(ctx, pattern); err != nil {
			c.markL2Unhealthy(err)
		}
	}
	return n, nil
}

// Close releases both tiers.
func (c *MultiLevelCache) Close() error {
	err := c.l1.Close()
	if c.l2 != nil {
		if l2Err := c.l2.Close(); l2Err != nil && err == nil {
			err = l2Err
		}
	}
	return err
}

// L2Healthy reports whether the remote tier is currently reachable. false
// when L2 is disabled entirely.
func (c *MultiLevelCache) L2Healthy() bool {
	return c.l2 != nil && c.l2Healthy.Load()
}

func (c *MultiLevelCache) markL2Unhealthy(err error) {
	if c.l2Healthy.CompareAndSwap(true, false) {
		c.log.Warn("L2 cache unreachable, degrading to L1-only", "error", err)
	}
}

// ReportL2Recovered lets a health-check loop restore L2 to the read/write
// path once it has confirmed (e.g. via a Ping) that the backend answers
// again.
func (c *MultiLevelCache) ReportL2Recovered() {
	if c.l2 != nil {
		c.l2Healthy.Store(true)
	}
}

func (c *MultiLevelCache) isNegative(key string) bool {
	c.negMu.Lock()
	defer c.negMu.Unlock()
	return c.negative.TestString(key)
}

func (c *MultiLevelCache) markNegative(key string) {
	c.negMu.Lock()
	defer c.negMu.Unlock()
	c.negative.AddString(key)
}
