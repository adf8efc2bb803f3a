// pkg/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "NEXTVISION_"
	configEnvVar = "CONFIG_PATH"
)

// Loader loads configuration from layered sources: defaults, an optional
// YAML file, then environment variables (highest precedence).
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader creates a loader with the default search paths and env prefix.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/nextvision/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithConfigPaths overrides the file search paths.
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load loads configuration with priority:
//  1. Defaults (lowest)
//  2. Config file (yaml)
//  3. Environment variables (highest)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		// The file is optional; log to stderr rather than fail.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "nextvision",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.namespace": "nextvision",
		"metrics.subsystem": "",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "nextvision",
		"tracing.sample_rate":  0.1,

		// Geocoder
		"geocoder.provider":            "google",
		"geocoder.api_key_env":         "NEXTVISION_GEOCODER_API_KEY",
		"geocoder.request_timeout":     5 * time.Second,
		"geocoder.hard_timeout":        10 * time.Second,
		"geocoder.daily_quota":         25000, // region-specific default, see DESIGN.md Open Questions
		"geocoder.quota_soft_fraction": 0.9,
		"geocoder.region_bias":         "fr",
		"geocoder.fallback_centroid.lat": 48.8566,
		"geocoder.fallback_centroid.lon": 2.3522,

		// Router
		"router.provider":        "google",
		"router.request_timeout": 5 * time.Second,
		"router.hard_timeout":    10 * time.Second,
		"router.rush_hour_start_1": 7,
		"router.rush_hour_end_1":   9,
		"router.rush_hour_start_2": 17,
		"router.rush_hour_end_2":   19,
		"router.timezone":          "Europe/Paris",

		// Cache
		"cache.l1_max_entries":       1000,
		"cache.l1_cleanup_interval":  time.Minute,
		"cache.l2_driver":            "memory",
		"cache.l2_address":           "localhost:6379",
		"cache.l2_db":                0,
		"cache.negative_cache_size":  100000,
		"cache.namespace_ttl.geocoding":    24 * time.Hour,
		"cache.namespace_ttl.routing":      time.Hour,
		"cache.namespace_ttl.match_result": 15 * time.Minute,
		"cache.namespace_ttl.bridge_cache": 2 * time.Minute,

		// Retry
		"retry.default_strategy": "jittered_exponential",
		"retry.max_attempts":     5,
		"retry.base_delay":       200 * time.Millisecond,
		"retry.max_delay":        10 * time.Second,
		"retry.max_total_delay":  30 * time.Second,

		// CircuitBreaker
		"circuit_breaker.failure_threshold": 5,
		"circuit_breaker.success_threshold": 3,
		"circuit_breaker.recovery_timeout":  60 * time.Second,

		// Batch
		"batch.max_concurrency":       10,
		"batch.chunk_size":            50,
		"batch.chunk_timeout":         60 * time.Second,
		"batch.quota_backpressure_at": 0.9,
		"batch.pooled_threshold":      10,
		"batch.parallel_threshold":    50,
		"batch.huge_threshold":        200,
		"batch.use_ants_pool":         false,

		// Weighter base vector (spec §4.8)
		"weighter.base_weights.semantic":     0.27,
		"weighter.base_weights.hierarchical": 0.14,
		"weighter.base_weights.compensation": 0.18,
		"weighter.base_weights.experience":   0.15,
		"weighter.base_weights.location":     0.13,
		"weighter.base_weights.sector":       0.05,
		"weighter.base_weights.motivations":  0.08,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

func (l *Loader) loadEnv() error {
	// Env names flatten both "." and "_" to "_", so each name is resolved
	// against the keys already loaded first.
	known := make(map[string]string)
	for _, k := range l.k.Keys() {
		known[strings.ReplaceAll(k, ".", "_")] = k
	}
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		// NEXTVISION_GEOCODER_DAILY_QUOTA -> geocoder.daily_quota
		name := strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		if k, ok := known[name]; ok {
			return k
		}
		return strings.ReplaceAll(name, "_", ".")
	}), nil)
}

// MustLoad loads configuration or panics.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load is a convenience function for loading with default settings.
func Load() (*Config, error) {
	return NewLoader().Load()
}
