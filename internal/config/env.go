package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
//
// Tags carry the full MULTIMORPH_ name. envconfig falls back to the bare tag
// when the prefixed variable is unset, so a prefixed tag keeps generic shell
// variables such as DB_URL or LOG_LEVEL from being picked up.
type EnvConfig struct {
	// DataDir is the data directory path.
	// Default: ~/.multimorph
	DataDir string `envconfig:"MULTIMORPH_DATA_DIR"`

	// DBURL is the database connection URL.
	// Default: sqlite:///{data_dir}/multimorph.db
	DBURL string `envconfig:"MULTIMORPH_DB_URL"`

	// LogLevel is the log verbosity level.
	LogLevel string `envconfig:"MULTIMORPH_LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	LogFormat string `envconfig:"MULTIMORPH_LOG_FORMAT" default:"pretty"`

	// ManifestPath is the YAML file listing morph families.
	ManifestPath string `envconfig:"MULTIMORPH_MANIFEST" default:"morphs.yaml"`

	// IDColumnType is the SQL type of added {name}_id columns.
	IDColumnType string `envconfig:"MULTIMORPH_ID_COLUMN_TYPE" default:"bigint"`

	// PoolMaxOpen is the maximum number of open connections.
	PoolMaxOpen int `envconfig:"MULTIMORPH_DB_POOL_MAX_OPEN" default:"10"`

	// PoolMaxIdle is the maximum number of idle connections.
	PoolMaxIdle int `envconfig:"MULTIMORPH_DB_POOL_MAX_IDLE" default:"2"`

	// PoolMaxLifetime is the maximum connection lifetime in seconds.
	PoolMaxLifetime float64 `envconfig:"MULTIMORPH_DB_POOL_MAX_LIFETIME" default:"1800"`
}

// LoadFromEnv loads configuration from MULTIMORPH_ environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	// Apply overrides from environment
	if e.DataDir != "" {
		cfg = cfg.Apply(WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.ManifestPath != "" {
		cfg = cfg.Apply(WithManifestPath(e.ManifestPath))
	}
	cfg = cfg.Apply(
		WithIDColumnType(e.IDColumnType),
		WithPool(e.PoolMaxOpen, e.PoolMaxIdle, time.Duration(e.PoolMaxLifetime*float64(time.Second))),
	)
	return cfg
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
