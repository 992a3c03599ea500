package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/boq-resolver/internal/convert"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	// MaxBodyMB bounds POST /v1/resolve request bodies.
	MaxBodyMB int `yaml:"max_body_mb" mapstructure:"max_body_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ResolverConfig configures material resolution.
type ResolverConfig struct {
	Jurisdiction      string  `yaml:"jurisdiction" mapstructure:"jurisdiction"`
	JurisdictionsFile string  `yaml:"jurisdictions_file" mapstructure:"jurisdictions_file"`
	Gauge             string  `yaml:"gauge" mapstructure:"gauge"`
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	OutlierRatio      float64 `yaml:"outlier_ratio" mapstructure:"outlier_ratio"`
	MinOutlierPeers   int     `yaml:"min_outlier_peers" mapstructure:"min_outlier_peers"`
	// SaveRuns records API runs unless a request says otherwise.
	SaveRuns          bool    `yaml:"save_runs" mapstructure:"save_runs"`
}

// FetchConfig configures snapshot downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BOQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "boq.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_mb", 32)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("resolver.jurisdiction", "AU")
	v.SetDefault("resolver.jurisdictions_file", "")
	v.SetDefault("resolver.gauge", convert.GaugeDefault)
	v.SetDefault("resolver.workers", 4)
	v.SetDefault("resolver.outlier_ratio", 2.0)
	v.SetDefault("resolver.min_outlier_peers", 3)
	v.SetDefault("resolver.save_runs", true)
	v.SetDefault("fetch.user_agent", "boq-resolver/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)

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

// Validate checks the settings a command needs. Mode is one of
// "resolve", "serve" or "store"; every mode checks the resolver and store.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not sqlite or postgres", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if _, err := convert.New(c.Resolver.Gauge); err != nil {
		problems = append(problems, fmt.Sprintf("resolver.gauge %q is not a known gauge", c.Resolver.Gauge))
	}
	if c.Resolver.Workers < 1 {
		problems = append(problems, "resolver.workers must be at least 1")
	}
	if c.Resolver.MinOutlierPeers < 1 {
		problems = append(problems, "resolver.min_outlier_peers must be at least 1")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
		if c.Server.MaxBodyMB < 1 {
			problems = append(problems, "server.max_body_mb must be at least 1")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
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
