package config

import "testing"

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			App:            AppConfig{Name: "test-service"},
			Log:            LogConfig{Level: "info"},
			Geocoder:       GeocoderConfig{DailyQuota: 1000, QuotaSoftFraction: 0.9},
			CircuitBreaker: CircuitBreakerConfig{FailureThreshold: 5, SuccessThreshold: 3},
			Retry:          RetryConfig{MaxAttempts: 5},
			Batch:          BatchConfig{MaxConcurrency: 10, ChunkSize: 50},
			Weighter:       WeighterConfig{BaseWeights: DefaultBaseWeights()},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing app name", func(c *Config) { c.App.Name = "" }, true},
		{"invalid log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"zero daily quota", func(c *Config) { c.Geocoder.DailyQuota = 0 }, true},
		{"bad soft fraction", func(c *Config) { c.Geocoder.QuotaSoftFraction = 1.5 }, true},
		{"zero failure threshold", func(c *Config) { c.CircuitBreaker.FailureThreshold = 0 }, true},
		{"zero max attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, true},
		{"zero concurrency", func(c *Config) { c.Batch.MaxConcurrency = 0 }, true},
		{"weights don't sum to 1", func(c *Config) {
			c.Weighter.BaseWeights = map[string]float64{"semantic": 0.5}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"dev", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestDefaultNamespaceTTLs(t *testing.T) {
	ttls := DefaultNamespaceTTLs()
	for _, ns := range []string{"geocoding", "routing", "match_result", "bridge_cache"} {
		if _, ok := ttls[ns]; !ok {
			t.Errorf("missing namespace TTL policy for %q", ns)
		}
	}
	if ttls["geocoding"] <= ttls["routing"] {
		t.Error("geocoding TTL should be longer than routing TTL")
	}
}

func TestDefaultBaseWeights_SumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range DefaultBaseWeights() {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("base weights must sum to 1, got %f", sum)
	}
}
