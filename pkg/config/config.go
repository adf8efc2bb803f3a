// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration tree for the matching engine.
type Config struct {
	App           AppConfig           `koanf:"app"`
	Log           LogConfig           `koanf:"log"`
	Metrics       MetricsConfig       `koanf:"metrics"`
	Tracing       TracingConfig       `koanf:"tracing"`
	Geocoder      GeocoderConfig      `koanf:"geocoder"`
	Router        RouterConfig        `koanf:"router"`
	Cache         CacheConfig         `koanf:"cache"`
	Retry         RetryConfig         `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	Batch         BatchConfig         `koanf:"batch"`
	Weighter      WeighterConfig      `koanf:"weighter"`
	Sectors       SectorConfig        `koanf:"sectors"`
	Transport     TransportConfig     `koanf:"transport"`
}

// AppConfig holds general application metadata.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production, testing
	Debug       bool   `koanf:"debug"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Level      string `koanf:"level"`  // debug, info, warn, error
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"` // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"` // days
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig configures the Prometheus exposition.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// GeocoderConfig configures the address → coordinates subsystem.
type GeocoderConfig struct {
	Provider          string        `koanf:"provider"`           // e.g. "google", "nominatim"
	APIKeyEnv         string        `koanf:"api_key_env"`        // name of the env var carrying the credential
	RequestTimeout    time.Duration `koanf:"request_timeout"`    // soft per-call timeout
	HardTimeout       time.Duration `koanf:"hard_timeout"`       // hard per-call timeout
	DailyQuota        int           `koanf:"daily_quota"`        // region-specific; not a constant
	QuotaSoftFraction float64       `koanf:"quota_soft_fraction"` // e.g. 0.9 → warn + cache-preferring
	RegionBias        string        `koanf:"region_bias"`        // e.g. "fr"
	FallbackCentroid  LatLon        `koanf:"fallback_centroid"`  // region-default centroid
	QuotaBackend      string        `koanf:"quota_backend"`      // ratelimit.Config.Backend for the daily quota: "memory" or "redis"
	QuotaRedisAddr    string        `koanf:"quota_redis_addr"`   // used only when QuotaBackend == "redis"
}

// LatLon is a plain coordinate pair used in configuration.
type LatLon struct {
	Lat float64 `koanf:"lat"`
	Lon float64 `koanf:"lon"`
}

// RouterConfig configures the routing subsystem.
type RouterConfig struct {
	Provider       string        `koanf:"provider"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	HardTimeout    time.Duration `koanf:"hard_timeout"`
	RushHourStart1 int           `koanf:"rush_hour_start_1"` // 7
	RushHourEnd1   int           `koanf:"rush_hour_end_1"`   // 9
	RushHourStart2 int           `koanf:"rush_hour_start_2"` // 17
	RushHourEnd2   int           `koanf:"rush_hour_end_2"`   // 19
	Timezone       string        `koanf:"timezone"`          // e.g. "Europe/Paris"
}

// CacheConfig configures the multi-level cache.
type CacheConfig struct {
	L1MaxEntries      int                      `koanf:"l1_max_entries"`
	L1CleanupInterval time.Duration            `koanf:"l1_cleanup_interval"`
	L2Driver          string                   `koanf:"l2_driver"` // redis, memory
	L2Address         string                   `koanf:"l2_address"`
	L2Password        string                   `koanf:"l2_password"`
	L2DB              int                      `koanf:"l2_db"`
	NamespaceTTL      map[string]time.Duration `koanf:"namespace_ttl"`
	NegativeCacheSize uint                     `koanf:"negative_cache_size"` // bloom filter capacity
}

// DefaultNamespaceTTLs returns the spec's §4.3 namespace TTL policy.
func DefaultNamespaceTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		"geocoding":    24 * time.Hour,
		"routing":      time.Hour,
		"match_result": 15 * time.Minute,
		"bridge_cache": 2 * time.Minute,
	}
}

// RetryConfig configures the RetryExecutor.
type RetryConfig struct {
	DefaultStrategy string        `koanf:"default_strategy"` // fixed, linear, exponential, jittered_exponential, fibonacci, adaptive_smart
	MaxAttempts     int           `koanf:"max_attempts"`
	BaseDelay       time.Duration `koanf:"base_delay"`
	MaxDelay        time.Duration `koanf:"max_delay"`
	MaxTotalDelay   time.Duration `koanf:"max_total_delay"`
}

// CircuitBreakerConfig configures the per-service circuit breaker.
type CircuitBreakerConfig struct {
	FailureThreshold int           `koanf:"failure_threshold"` // consecutive failures to open
	SuccessThreshold int           `koanf:"success_threshold"` // consecutive successes to close from half-open
	RecoveryTimeout  time.Duration `koanf:"recovery_timeout"`  // OPEN → HALF_OPEN delay
}

// BatchConfig configures the BatchOrchestrator.
type BatchConfig struct {
	MaxConcurrency          int           `koanf:"max_concurrency"`
	ChunkSize               int           `koanf:"chunk_size"`
	ChunkTimeout            time.Duration `koanf:"chunk_timeout"`
	QuotaBackpressureAt     float64       `koanf:"quota_backpressure_at"` // e.g. 0.9
	PooledThreshold         int           `koanf:"pooled_threshold"`      // <this → single-context cooperative
	ParallelThreshold       int           `koanf:"parallel_threshold"`    // >=this → chunked parallel
	HugeThreshold           int           `koanf:"huge_threshold"`        // >this → outer fan-out over chunks
	UseAntsPool             bool          `koanf:"use_ants_pool"`
}

// WeighterConfig configures the AdaptiveWeighter's base vector and adjustments.
type WeighterConfig struct {
	BaseWeights map[string]float64 `koanf:"base_weights"`
}

// DefaultBaseWeights returns the spec's §4.8 base weight vector.
func DefaultBaseWeights() map[string]float64 {
	return map[string]float64{
		"semantic":     0.27,
		"hierarchical": 0.14,
		"compensation": 0.18,
		"experience":   0.15,
		"location":     0.13,
		"sector":       0.05,
		"motivations":  0.08,
	}
}

// TransportConfig configures the TransportScorer.
type TransportConfig struct {
	ModeBaseline     map[string]float64 `koanf:"mode_baseline"`      // mode -> [0,1] prior favoring car/transit by context
	ZeroModeBaseline float64            `koanf:"zero_mode_baseline"` // e.g. 0.3, used when no mode is compatible
	RemoteBoostCap   float64            `koanf:"remote_boost_cap"`   // e.g. 0.2
}

// DefaultModeBaselines returns the mode-scoring prior consulted before
// falling back to pure computed feasibility: driving is favored for
// longer commutes, transit in dense urban contexts, consistent with the
// mode priority order used for tie-breaking.
func DefaultModeBaselines() map[string]float64 {
	return map[string]float64{
		"public_transit": 0.75,
		"driving":        0.70,
		"cycling":        0.55,
		"walking":        0.45,
	}
}

// SectorConfig configures the sector compatibility/incompatibility tables and
// the skill synonym table used by ComponentScorers.
type SectorConfig struct {
	Incompatible map[string]map[string]float64 `koanf:"incompatible"` // sector -> sector -> penalty multiplier
	Compatible   map[string]map[string]float64 `koanf:"compatible"`   // sector -> sector -> subscore
	Synonyms     map[string][]string           `koanf:"synonyms"`     // canonical skill -> synonyms
}

// Validate checks the configuration for internal consistency (value-level
// constraints only). Unknown keys are not rejected in any environment: the
// loader unmarshals without a strict mode and ignores them.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Geocoder.DailyQuota <= 0 {
		errs = append(errs, "geocoder.daily_quota must be positive")
	}
	if c.Geocoder.QuotaSoftFraction <= 0 || c.Geocoder.QuotaSoftFraction > 1 {
		errs = append(errs, "geocoder.quota_soft_fraction must be in (0, 1]")
	}

	if c.CircuitBreaker.FailureThreshold <= 0 {
		errs = append(errs, "circuit_breaker.failure_threshold must be positive")
	}
	if c.CircuitBreaker.SuccessThreshold <= 0 {
		errs = append(errs, "circuit_breaker.success_threshold must be positive")
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, "retry.max_attempts must be positive")
	}

	sum := 0.0
	for _, w := range c.Weighter.BaseWeights {
		sum += w
	}
	if len(c.Weighter.BaseWeights) > 0 && (sum < 0.999 || sum > 1.001) {
		errs = append(errs, fmt.Sprintf("weighter.base_weights must sum to 1, got %f", sum))
	}

	if c.Batch.MaxConcurrency <= 0 {
		errs = append(errs, "batch.max_concurrency must be positive")
	}
	if c.Batch.ChunkSize <= 0 {
		errs = append(errs, "batch.chunk_size must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the app is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
