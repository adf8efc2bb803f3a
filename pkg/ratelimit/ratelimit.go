package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrLimiterClosed     = errors.New("limiter is closed")
)

// Limiter is a request-rate limiter keyed by an arbitrary string (caller ID,
// quota name, IP address).
type Limiter interface {
	// Allow reports whether one request against key is permitted right now.
	Allow(ctx context.Context, key string) (bool, error)

	// AllowN reports whether n requests against key are permitted right now.
	AllowN(ctx context.Context, key string, n int) (bool, error)

	// Wait blocks until a request against key is permitted or ctx is done.
	Wait(ctx context.Context, key string) error

	// Reset clears any accumulated state for key.
	Reset(ctx context.Context, key string) error

	// GetInfo reports the current limit/remaining/reset state for key.
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)

	// Close releases any resources held by the limiter.
	Close() error
}

// LimitInfo describes the current state of one key's limit.
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config configures a rate limiter.
type Config struct {
	// Requests is the number of requests allowed per Window.
	Requests int `koanf:"requests"`

	// Window is the time window the limit applies over.
	Window time.Duration `koanf:"window"`

	// Strategy selects the limiting algorithm: sliding_window or token_bucket.
	// MemoryLimiter runs any other value (fixed_window included) as
	// sliding_window; RedisLimiter always uses a sliding window.
	Strategy string `koanf:"strategy"`

	// KeyFunc names the key-extraction strategy: ip, user, method.
	KeyFunc string `koanf:"key_func"`

	// Backend selects the storage backend: memory, redis.
	Backend string `koanf:"backend"`

	// BurstSize is the token-bucket burst allowance above Requests.
	BurstSize int `koanf:"burst_size"`

	// CleanupInterval controls how often the in-memory backend evicts stale buckets.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// Redis connection settings, used only when Backend == "redis".
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// DefaultConfig returns a sliding-window, in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Requests:        100,
		Window:          time.Minute,
		Strategy:        "sliding_window",
		KeyFunc:         "ip",
		Backend:         "memory",
		BurstSize:       10,
		CleanupInterval: 5 * time.Minute,
	}
}

// New builds a Limiter for cfg.Backend.
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(cfg)
	case "memory", "":
		return NewMemoryLimiter(cfg), nil
	default:
		return NewMemoryLimiter(cfg), nil
	}
}

// KeyExtractor derives a limiter key from a call's method and metadata.
type KeyExtractor func(ctx context.Context, method string, metadata map[string]string) string

// DefaultKeyExtractor keys by caller IP.
func DefaultKeyExtractor(_ context.Context, _ string, metadata map[string]string) string {
	if ip, ok := metadata["x-forwarded-for"]; ok && ip != "" {
		return ip
	}
	if ip, ok := metadata["x-real-ip"]; ok && ip != "" {
		return ip
	}
	if peer, ok := metadata[":authority"]; ok {
		return peer
	}
	return "unknown"
}

// MethodKeyExtractor keys by the called method name.
func MethodKeyExtractor(_ context.Context, method string, _ map[string]string) string {
	return method
}

// UserKeyExtractor keys by authenticated user, falling back to IP.
func UserKeyExtractor(ctx context.Context, method string, metadata map[string]string) string {
	if userID, ok := metadata["x-user-id"]; ok && userID != "" {
		return userID
	}
	return DefaultKeyExtractor(ctx, method, metadata)
}

// CompositeKeyExtractor concatenates the keys produced by several extractors.
func CompositeKeyExtractor(extractors ...KeyExtractor) KeyExtractor {
	return func(ctx context.Context, method string, metadata map[string]string) string {
		var key string
		for _, ext := range extractors {
			key += ext(ctx, method, metadata) + ":"
		}
		return key
	}
}

// RateLimitedMethods holds a per-method Config override with a shared default.
type RateLimitedMethods struct {
	mu            sync.RWMutex
	methods       map[string]*Config
	defaultConfig *Config
}

// NewRateLimitedMethods builds a method registry falling back to defaultCfg.
func NewRateLimitedMethods(defaultCfg *Config) *RateLimitedMethods {
	if defaultCfg == nil {
		defaultCfg = DefaultConfig()
	}
	return &RateLimitedMethods{
		methods:       make(map[string]*Config),
		defaultConfig: defaultCfg,
	}
}

// Set overrides the Config for method.
func (r *RateLimitedMethods) Set(method string, cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[method] = cfg
}

// Get returns method's Config, or the shared default if none was set.
func (r *RateLimitedMethods) Get(method string) *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.methods[method]; ok {
		return cfg
	}
	return r.defaultConfig
}
