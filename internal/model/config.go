package model

import "time"

// Config is the complete crmimport configuration.
// Populated from defaults, then the config file, CRMIMPORT_* env vars and flags.
type Config struct {
	Backend      BackendConfig      `yaml:"backend" mapstructure:"backend"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Import       ImportConfig       `yaml:"import" mapstructure:"import"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics" mapstructure:"metrics"`
}

// BackendConfig holds the CRM REST endpoint settings
type BackendConfig struct {
	URL        string        `yaml:"url" mapstructure:"url" validate:"required,url"`
	SiteKey    string        `yaml:"site_key" mapstructure:"site_key" validate:"required"`
	APIKey     string        `yaml:"api_key" mapstructure:"api_key" validate:"required"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy" validate:"omitempty,url"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy" validate:"omitempty,url"`
}

// RateLimitingConfig throttles calls against the backend
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=1"`
	// PerEntity adds a stricter rate for single entities, e.g. contribution: 1
	PerEntity map[string]float64 `yaml:"per_entity,omitempty" mapstructure:"per_entity" validate:"dive,gt=0"`
}

// ImportConfig selects the rule set and the optional enrichment
type ImportConfig struct {
	RuleSet string   `yaml:"ruleset" mapstructure:"ruleset" validate:"required"`
	GroupID int      `yaml:"group_id,omitempty" mapstructure:"group_id" validate:"gte=0"`
	Tags    []int    `yaml:"tags,omitempty" mapstructure:"tags" validate:"dive,gt=0"`
	SkipIDs []string `yaml:"skip_ids,omitempty" mapstructure:"skip_ids"`
	Sheet   string   `yaml:"sheet,omitempty" mapstructure:"sheet"`
}

// CacheConfig controls caching of backend reference data between runs
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LoggingConfig holds log level and format
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=text json"`
}

// MetricsConfig controls the Prometheus textfile written after a run
type MetricsConfig struct {
	File string `yaml:"file,omitempty" mapstructure:"file"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Timeout:   30 * time.Second,
			UserAgent: "crmimport/0.1",
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Import: ImportConfig{
			RuleSet: "press",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".crmimport-cache",
			TTL:     24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
