// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultLogLevel        = "INFO"
	DefaultManifestPath    = "morphs.yaml"
	DefaultIDColumnType    = "bigint"
	DefaultDBFile          = "multimorph.db"
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 2
	DefaultConnMaxLifetime = 30 * time.Minute
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// PoolConfig configures the database connection pool.
type PoolConfig struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

// NewPoolConfig creates a new PoolConfig with defaults.
func NewPoolConfig() PoolConfig {
	return PoolConfig{
		maxOpenConns:    DefaultMaxOpenConns,
		maxIdleConns:    DefaultMaxIdleConns,
		connMaxLifetime: DefaultConnMaxLifetime,
	}
}

// MaxOpenConns returns the maximum number of open connections.
func (p PoolConfig) MaxOpenConns() int { return p.maxOpenConns }

// MaxIdleConns returns the maximum number of idle connections.
func (p PoolConfig) MaxIdleConns() int { return p.maxIdleConns }

// ConnMaxLifetime returns the maximum lifetime of a connection.
func (p PoolConfig) ConnMaxLifetime() time.Duration { return p.connMaxLifetime }

// AppConfig holds the main application configuration.
type AppConfig struct {
	dataDir      string
	dbURL        string
	logLevel     string
	logFormat    LogFormat
	manifestPath string
	idColumnType string
	pool         PoolConfig
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".multimorph"
	}
	return filepath.Join(home, ".multimorph")
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		dataDir:      dataDir,
		dbURL:        "sqlite:///" + filepath.Join(dataDir, DefaultDBFile),
		logLevel:     DefaultLogLevel,
		logFormat:    LogFormatPretty,
		manifestPath: DefaultManifestPath,
		idColumnType: DefaultIDColumnType,
		pool:         NewPoolConfig(),
	}
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// ManifestPath returns the path of the morph manifest.
func (c AppConfig) ManifestPath() string { return c.manifestPath }

// IDColumnType returns the SQL type used for new {name}_id columns.
func (c AppConfig) IDColumnType() string { return c.idColumnType }

// Pool returns the connection pool configuration.
func (c AppConfig) Pool() PoolConfig { return c.pool }

// UsesDefaultDB reports whether the database URL points at the data dir's
// SQLite file, which must exist before connecting.
func (c AppConfig) UsesDefaultDB() bool {
	return c.dbURL == "sqlite:///"+filepath.Join(c.dataDir, DefaultDBFile)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		// Update default DB URL when data dir changes
		if c.dbURL == "" || strings.Contains(c.dbURL, DefaultDBFile) {
			c.dbURL = "sqlite:///" + filepath.Join(dir, DefaultDBFile)
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) {
		c.dbURL = url
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) {
		c.logLevel = level
	}
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) {
		c.logFormat = format
	}
}

// WithManifestPath sets the manifest path.
func WithManifestPath(path string) AppConfigOption {
	return func(c *AppConfig) {
		c.manifestPath = path
	}
}

// WithIDColumnType sets the SQL type for new {name}_id columns.
func WithIDColumnType(sqlType string) AppConfigOption {
	return func(c *AppConfig) {
		if sqlType != "" {
			c.idColumnType = sqlType
		}
	}
}

// WithPool sets the connection pool configuration. Non-positive values keep
// the current setting.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if maxOpen > 0 {
			c.pool.maxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			c.pool.maxIdleConns = maxIdle
		}
		if maxLifetime > 0 {
			c.pool.connMaxLifetime = maxLifetime
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a copy of c with opts applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
