// Package config loads docfill configuration from config.yaml and AUTOFILL_*
// environment variables, and initialises the global logger.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Extractor ExtractorConfig `yaml:"extractor" mapstructure:"extractor"`
	Options   OptionsConfig   `yaml:"options" mapstructure:"options"`
	Mapping   MappingConfig   `yaml:"mapping" mapstructure:"mapping"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SessionConfig scopes persisted extraction state.
type SessionConfig struct {
	// ID is the session used by CLI commands.
	ID              string `yaml:"id" mapstructure:"id"`
	PersistAnalysis bool   `yaml:"persist_analysis" mapstructure:"persist_analysis"`
	MaxAgeHours     int    `yaml:"max_age_hours" mapstructure:"max_age_hours"`
}

// MaxAge returns MaxAgeHours as a duration.
func (s SessionConfig) MaxAge() time.Duration {
	return time.Duration(s.MaxAgeHours) * time.Hour
}

// StoreConfig configures the session KV backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ExtractorConfig configures the extraction service client.
type ExtractorConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Key              string  `yaml:"key" mapstructure:"key"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// OptionsConfig configures dropdown option sources.
type OptionsConfig struct {
	// File is a YAML file of static options.
	File string `yaml:"file" mapstructure:"file"`
	// Procedures maps field keys to database functions returning (id, name).
	Procedures  map[string]string `yaml:"procedures" mapstructure:"procedures"`
	Concurrency int               `yaml:"concurrency" mapstructure:"concurrency"`
}

// MappingConfig configures field mapping.
type MappingConfig struct {
	// File adds form types and field tables to the built-in ones.
	File            string `yaml:"file" mapstructure:"file"`
	ClearAfterApply bool   `yaml:"clear_after_apply" mapstructure:"clear_after_apply"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("AUTOFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("session.id", "default")
	v.SetDefault("session.persist_analysis", false)
	v.SetDefault("session.max_age_hours", 24*7)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "docfill.db")
	v.SetDefault("store.max_conns", 5)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("extractor.base_url", "http://localhost:8000")
	v.SetDefault("extractor.timeout_secs", 120)
	v.SetDefault("extractor.rate_per_sec", 2.0)
	v.SetDefault("extractor.burst", 1)
	v.SetDefault("extractor.max_attempts", 3)
	v.SetDefault("extractor.initial_backoff_ms", 500)
	v.SetDefault("extractor.max_backoff_ms", 10000)
	v.SetDefault("options.concurrency", 4)
	v.SetDefault("mapping.clear_after_apply", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is "cli", "extract" or
// "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be memory, sqlite or postgres", c.Store.Driver))
	}

	if c.Options.Concurrency < 1 || c.Options.Concurrency > 32 {
		errs = append(errs, "options.concurrency must be between 1 and 32")
	}
	if len(c.Options.Procedures) > 0 && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required when options.procedures is set")
	}

	switch mode {
	case "cli":
	case "extract":
		if c.Extractor.BaseURL == "" {
			errs = append(errs, "extractor.base_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
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
