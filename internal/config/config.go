// Package config loads and validates analyzer configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	ECFR      ECFRConfig      `mapstructure:"ecfr"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Storage   StorageConfig   `mapstructure:"storage"`
	DB        DBConfig        `mapstructure:"db"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ECFRConfig governs the upstream API client.
type ECFRConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	RequestDelayMs   int    `mapstructure:"request_delay_ms"`
	MaxRetryAttempts int    `mapstructure:"max_retry_attempts"`
}

// PipelineConfig bounds a single acquisition run.
type PipelineConfig struct {
	MaxTitlesPerRun int    `mapstructure:"max_titles_per_run"`
	FallbackDate    string `mapstructure:"fallback_date"`
}

// AnalyticsConfig tunes report generation.
type AnalyticsConfig struct {
	RecentCutoff string `mapstructure:"recent_cutoff"`
}

// StorageConfig selects and configures the snapshot store.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
	DataDir  string `mapstructure:"data_dir"`
}

// DBConfig controls access to the relational database. Only used when
// storage.provider is "postgres".
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ECFR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("ecfr.base_url", "https://www.ecfr.gov")
	v.SetDefault("ecfr.user_agent", "eCFR-Analyzer/1.0")
	v.SetDefault("ecfr.timeout_seconds", 30)
	v.SetDefault("ecfr.request_delay_ms", 1000)
	v.SetDefault("ecfr.max_retry_attempts", 3)
	v.SetDefault("pipeline.max_titles_per_run", 50)
	v.SetDefault("pipeline.fallback_date", "2024-01-01")
	v.SetDefault("analytics.recent_cutoff", "2024-01-01")
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.data_dir", "data/processed")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.ECFR.BaseURL == "" {
		return fmt.Errorf("ecfr.base_url must be set")
	}
	if c.ECFR.TimeoutSeconds <= 0 {
		return fmt.Errorf("ecfr.timeout_seconds must be > 0")
	}
	if c.ECFR.MaxRetryAttempts <= 0 {
		return fmt.Errorf("ecfr.max_retry_attempts must be > 0")
	}
	if c.Pipeline.MaxTitlesPerRun <= 0 {
		return fmt.Errorf("pipeline.max_titles_per_run must be > 0")
	}
	switch c.Storage.Provider {
	case "local":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir must be set for the local provider")
		}
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for the postgres provider")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.provider %q is not supported", c.Storage.Provider)
	}
	return nil
}

// RequestDelay converts the configured inter-request spacing into a
// duration for the shared rate limiter.
func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.ECFR.RequestDelayMs) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.ECFR.TimeoutSeconds) * time.Second
}
