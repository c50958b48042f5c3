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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Enrichment EnrichmentConfig `yaml:"enrichment" mapstructure:"enrichment"`
	Outreach   OutreachConfig   `yaml:"outreach" mapstructure:"outreach"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Preflight  PreflightConfig  `yaml:"preflight" mapstructure:"preflight"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// RedisConfig configures the campaign-build session store. An empty Addr
// selects the in-process store.
type RedisConfig struct {
	Addr           string `yaml:"addr" mapstructure:"addr"`
	Password       string `yaml:"password" mapstructure:"password"`
	DB             int    `yaml:"db" mapstructure:"db"`
	SessionTTLMins int    `yaml:"session_ttl_mins" mapstructure:"session_ttl_mins"`
}

// SessionTTL returns the session lifetime.
func (c RedisConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMins) * time.Minute
}

// EnrichmentConfig configures the paid contact lookup.
type EnrichmentConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	BatchSize        int     `yaml:"batch_size" mapstructure:"batch_size"`
	BatchDelayMs     int     `yaml:"batch_delay_ms" mapstructure:"batch_delay_ms"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// BatchDelay returns the pause between enrichment batches.
func (c EnrichmentConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMs) * time.Millisecond
}

// OutreachConfig holds settings for the campaign backend functions
// (quality check, integration probe, launch).
type OutreachConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PricingConfig holds advisory per-lookup cost estimates.
type PricingConfig struct {
	Enrichment EnrichmentPricing `yaml:"enrichment" mapstructure:"enrichment"`
}

// EnrichmentPricing holds the flat cost estimates for one lookup.
type EnrichmentPricing struct {
	PerMatch   float64 `yaml:"per_match" mapstructure:"per_match"`
	PerNoMatch float64 `yaml:"per_no_match" mapstructure:"per_no_match"`
}

// PreflightConfig configures the pre-flight sequencer.
type PreflightConfig struct {
	SettleMs int `yaml:"settle_ms" mapstructure:"settle_ms"`
}

// ServerConfig configures the HTTP API.
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

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl_mins", 240)
	v.SetDefault("enrichment.key", "")
	v.SetDefault("enrichment.base_url", "https://api.contactlookup.io/v1")
	v.SetDefault("enrichment.batch_size", 5)
	v.SetDefault("enrichment.batch_delay_ms", 500)
	v.SetDefault("enrichment.rate_per_sec", 0)
	v.SetDefault("enrichment.timeout_secs", 30)
	v.SetDefault("enrichment.failure_threshold", 5)
	v.SetDefault("enrichment.reset_timeout_secs", 30)
	v.SetDefault("outreach.key", "")
	v.SetDefault("outreach.base_url", "http://localhost:54321/functions/v1")
	v.SetDefault("outreach.timeout_secs", 60)
	v.SetDefault("pricing.enrichment.per_match", 0.10)
	v.SetDefault("pricing.enrichment.per_no_match", 0.02)
	v.SetDefault("preflight.settle_ms", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	return &cfg, nil
}

// Validate checks that the keys required by a command mode are present.
// Modes: "store" (database only), "enrich" (store + lookup provider),
// "launch" (store + outreach backend), "serve" (everything + port).
func (c *Config) Validate(mode string) error {
	var errs []string

	needStore := func() {
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required")
			}
		case "sqlite":
		default:
			errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
		}
	}
	needEnrichment := func() {
		if c.Enrichment.Key == "" {
			errs = append(errs, "enrichment.key is required")
		}
		if c.Enrichment.BatchSize < 1 || c.Enrichment.BatchSize > 50 {
			errs = append(errs, "enrichment.batch_size must be between 1 and 50")
		}
		if c.Enrichment.BatchDelayMs < 0 {
			errs = append(errs, "enrichment.batch_delay_ms must be >= 0")
		}
	}
	needOutreach := func() {
		if c.Outreach.BaseURL == "" {
			errs = append(errs, "outreach.base_url is required")
		}
	}

	switch mode {
	case "store":
		needStore()
	case "enrich":
		needStore()
		needEnrichment()
	case "launch":
		needStore()
		needOutreach()
	case "serve":
		needStore()
		needEnrichment()
		needOutreach()
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
