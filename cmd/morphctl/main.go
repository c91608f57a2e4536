// Package main is the entry point for the morphctl CLI, which derives,
// migrates and audits multi-morph columns.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/helixml/multimorph/internal/config"
	"github.com/helixml/multimorph/internal/database"
	"github.com/helixml/multimorph/internal/log"
	"github.com/helixml/multimorph/internal/manifest"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command that touches the database.
type globalFlags struct {
	envFile  string
	dbURL    string
	manifest string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "morphctl",
		Short: "Manage multi-morph relationship columns",
		Long: `morphctl derives, migrates and audits the {name}_type, {name}_id and
{name}_relationship columns used by labelled polymorphic relationships.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables (only MULTIMORPH_ names are read; DB_URL and the like are ignored):
  MULTIMORPH_DATA_DIR          Data directory (default: ~/.multimorph)
  MULTIMORPH_DB_URL            Database URL (default: sqlite:///{data_dir}/multimorph.db)
  MULTIMORPH_MANIFEST          Morph manifest (default: morphs.yaml)
  MULTIMORPH_ID_COLUMN_TYPE    SQL type for new {name}_id columns (default: bigint)
  MULTIMORPH_LOG_LEVEL         Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  MULTIMORPH_LOG_FORMAT        Log format: pretty, json (default: pretty)
  MULTIMORPH_DB_POOL_*         MAX_OPEN, MAX_IDLE, MAX_LIFETIME (seconds)`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.PersistentFlags().StringVar(&flags.dbURL, "db-url", "", "Database URL (overrides MULTIMORPH_DB_URL)")
	cmd.PersistentFlags().StringVar(&flags.manifest, "manifest", "", "Morph manifest (overrides MULTIMORPH_MANIFEST)")

	cmd.AddCommand(columnsCmd())
	cmd.AddCommand(migrateCmd(&flags))
	cmd.AddCommand(auditCmd(&flags))
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables,
// then applies flag overrides.
func loadConfig(flags *globalFlags) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(flags.envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	if flags.dbURL != "" {
		cfg = cfg.Apply(config.WithDBURL(flags.dbURL))
	}
	if flags.manifest != "" {
		cfg = cfg.Apply(config.WithManifestPath(flags.manifest))
	}
	return cfg, nil
}

// environment is everything a database command needs.
type environment struct {
	cfg      config.AppConfig
	logger   *log.Logger
	db       database.Database
	manifest manifest.Manifest
}

func (e environment) Close() {
	if err := e.db.Close(); err != nil {
		e.logger.Error("failed to close database", "error", err.Error())
	}
}

// setup loads configuration and the manifest, then opens the database.
// The returned context carries the logger for library debug output.
func setup(ctx context.Context, flags *globalFlags) (context.Context, environment, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return ctx, environment{}, err
	}
	logger := log.Configure(cfg)
	ctx = logger.Attach(log.WithCorrelationID(ctx, uuid.NewString()))

	m, err := manifest.Load(cfg.ManifestPath())
	if err != nil {
		return ctx, environment{}, err
	}

	if cfg.UsesDefaultDB() {
		if _, err := config.PrepareDataDir(cfg.DataDir()); err != nil {
			return ctx, environment{}, err
		}
	}
	db, err := database.NewDatabase(ctx, cfg.DBURL(), database.WithLogger(logger.Zerolog()))
	if err != nil {
		return ctx, environment{}, fmt.Errorf("open database: %w", err)
	}
	pool := cfg.Pool()
	if err := db.ConfigurePool(pool.MaxOpenConns(), pool.MaxIdleConns(), pool.ConnMaxLifetime()); err != nil {
		_ = db.Close()
		return ctx, environment{}, err
	}

	logger.Debug("database opened", "sqlite", db.IsSQLite(), "postgres", db.IsPostgres(), "morphs", len(m.Morphs))
	return ctx, environment{cfg: cfg, logger: logger, db: db, manifest: m}, nil
}
