package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/garagedata/vehiclefacts/internal/gate"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Lookup   LookupConfig   `yaml:"lookup" mapstructure:"lookup"`
	Gate     gate.Config    `yaml:"gate" mapstructure:"gate"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// CacheConfig configures the evidence cache backend and TTLs.
type CacheConfig struct {
	Backend          string `yaml:"backend" mapstructure:"backend"` // "memory", "sqlite", or "redis"
	SQLitePath       string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	RedisAddr        string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword    string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB          int    `yaml:"redis_db" mapstructure:"redis_db"`
	PositiveTTLHours int    `yaml:"positive_ttl_hours" mapstructure:"positive_ttl_hours"`
	NegativeTTLHours int    `yaml:"negative_ttl_hours" mapstructure:"negative_ttl_hours"`
}

// LookupConfig configures the grounded lookup collaborator.
type LookupConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ResolverConfig configures resolution behavior.
type ResolverConfig struct {
	MaxConcurrentFields int    `yaml:"max_concurrent_fields" mapstructure:"max_concurrent_fields"`
	RulesetPath         string `yaml:"ruleset_path" mapstructure:"ruleset_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("VEHICLEFACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "vehiclefacts.db")
	v.SetDefault("cache.backend", "sqlite")
	v.SetDefault("cache.sqlite_path", "vehiclefacts-cache.db")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.positive_ttl_hours", 720)
	v.SetDefault("cache.negative_ttl_hours", 6)
	v.SetDefault("lookup.rate_per_sec", 5)
	v.SetDefault("gate.min_confidence", 0.7)
	v.SetDefault("gate.min_evidence_weight", 0.7)
	v.SetDefault("gate.min_sources", 1)
	v.SetDefault("resolver.max_concurrent_fields", 4)
	v.SetDefault("server.port", 8080)
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
