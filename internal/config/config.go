// Package config loads and validates the scoring core configuration:
// logging, resilience tuning, and the per-assessment-kind weight tables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full core configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Quality    QualityConfig    `yaml:"quality" mapstructure:"quality"`
	Predict    PredictConfig    `yaml:"predict" mapstructure:"predict"`
	TablesPath string           `yaml:"tables_path" mapstructure:"tables_path"`

	// Tables is populated from TablesPath when set, otherwise from
	// DefaultTables. Immutable after Load.
	Tables *Tables `yaml:"-" mapstructure:"-"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ResilienceConfig tunes the rate limiter, circuit breakers, and cache.
type ResilienceConfig struct {
	RateWindow       time.Duration `yaml:"rate_window" mapstructure:"rate_window"`
	RateLimit        int           `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateSweepIdle    time.Duration `yaml:"rate_sweep_idle" mapstructure:"rate_sweep_idle"`
	BreakerThreshold int           `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breaker_reset" mapstructure:"breaker_reset"`
	CacheTTL         time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheCapacity    int           `yaml:"cache_capacity" mapstructure:"cache_capacity"`
	GlobalRatePerSec float64       `yaml:"global_rate_per_sec" mapstructure:"global_rate_per_sec"`
	GlobalBurst      int           `yaml:"global_burst" mapstructure:"global_burst"`
}

// QualityConfig tunes the quality assessor.
type QualityConfig struct {
	StalenessWindow time.Duration `yaml:"staleness_window" mapstructure:"staleness_window"`
}

// PredictConfig tunes the external readmission prediction dependency.
type PredictConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Baseline     float64       `yaml:"baseline" mapstructure:"baseline"`
	AnthropicKey string        `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	Model        string        `yaml:"model" mapstructure:"model"`
}

// Load reads configuration from config.yaml (optional), environment
// variables prefixed ASSESS_, and built-in defaults, then loads and
// validates the assessment-kind tables. Table validation failures are
// fatal here, never per-request.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASSESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("resilience.rate_window", "60s")
	v.SetDefault("resilience.rate_limit", 100)
	v.SetDefault("resilience.rate_sweep_idle", "5m")
	v.SetDefault("resilience.breaker_threshold", 3)
	v.SetDefault("resilience.breaker_reset", "60s")
	v.SetDefault("resilience.cache_ttl", "5m")
	v.SetDefault("resilience.cache_capacity", 1000)
	v.SetDefault("resilience.global_rate_per_sec", 0) // 0 disables
	v.SetDefault("resilience.global_burst", 0)
	v.SetDefault("quality.staleness_window", "720h") // 30 days
	v.SetDefault("predict.timeout", "5s")
	v.SetDefault("predict.baseline", 0.18)
	v.SetDefault("predict.model", "claude-haiku-4-5-20251001")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.TablesPath != "" {
		tables, err := LoadTables(cfg.TablesPath)
		if err != nil {
			return nil, err
		}
		cfg.Tables = tables
	} else {
		cfg.Tables = DefaultTables()
	}
	if err := cfg.Tables.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InitLogger builds the global zap logger from LogConfig.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
