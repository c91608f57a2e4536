package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "", cfg.DBURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "morphs.yaml", cfg.ManifestPath)
	assert.Equal(t, "bigint", cfg.IDColumnType)
	assert.Equal(t, 10, cfg.PoolMaxOpen)
	assert.Equal(t, 2, cfg.PoolMaxIdle)
	assert.Equal(t, 1800.0, cfg.PoolMaxLifetime)
}

func TestEnvDefaults_MatchConfigDefaults(t *testing.T) {
	// Struct tag defaults must be literals; keep them in sync with config.go.
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultManifestPath, cfg.ManifestPath)
	assert.Equal(t, DefaultIDColumnType, cfg.IDColumnType)
	assert.Equal(t, DefaultMaxOpenConns, cfg.PoolMaxOpen)
	assert.Equal(t, DefaultMaxIdleConns, cfg.PoolMaxIdle)
	assert.Equal(t, DefaultConnMaxLifetime, time.Duration(cfg.PoolMaxLifetime*float64(time.Second)))
}

func TestLoadFromEnv_OverrideValues(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("MULTIMORPH_DATA_DIR", "/custom/data")
	t.Setenv("MULTIMORPH_DB_URL", "postgres://localhost/app")
	t.Setenv("MULTIMORPH_LOG_LEVEL", "DEBUG")
	t.Setenv("MULTIMORPH_LOG_FORMAT", "json")
	t.Setenv("MULTIMORPH_MANIFEST", "/etc/morphs.yaml")
	t.Setenv("MULTIMORPH_ID_COLUMN_TYPE", "uuid")
	t.Setenv("MULTIMORPH_DB_POOL_MAX_OPEN", "20")
	t.Setenv("MULTIMORPH_DB_POOL_MAX_LIFETIME", "60")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/custom/data", cfg.DataDir)
	assert.Equal(t, "postgres://localhost/app", cfg.DBURL)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/etc/morphs.yaml", cfg.ManifestPath)
	assert.Equal(t, "uuid", cfg.IDColumnType)
	assert.Equal(t, 20, cfg.PoolMaxOpen)
	assert.Equal(t, 60.0, cfg.PoolMaxLifetime)
}

func TestLoadFromEnv_IgnoresUnprefixed(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DATA_DIR", "/bare/data")
	t.Setenv("DB_URL", "postgres://elsewhere/db")
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("MANIFEST", "/bare/morphs.yaml")
	t.Setenv("ID_COLUMN_TYPE", "uuid")
	t.Setenv("MAX_OPEN", "99")
	t.Setenv("DB_POOL_MAX_OPEN", "98")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.DataDir)
	assert.Empty(t, cfg.DBURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "morphs.yaml", cfg.ManifestPath)
	assert.Equal(t, "bigint", cfg.IDColumnType)
	assert.Equal(t, 10, cfg.PoolMaxOpen)
}

func TestLoadConfig_IgnoresUnprefixedDBURL(t *testing.T) {
	clearEnvVars(t)
	dir := t.TempDir()
	t.Setenv("MULTIMORPH_DATA_DIR", dir)
	t.Setenv("DB_URL", "postgres://elsewhere/db")
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o644))

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.True(t, cfg.UsesDefaultDB())
}

func TestLoadFromEnv_InvalidValue(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("MULTIMORPH_DB_POOL_MAX_OPEN", "many")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestEnvConfig_ToAppConfig(t *testing.T) {
	env := EnvConfig{
		DataDir:      "/data",
		LogLevel:     "WARN",
		LogFormat:    "JSON",
		ManifestPath: "m.yaml",
		IDColumnType: "varchar(36)",
		PoolMaxOpen:     4,
		PoolMaxIdle:     1,
		PoolMaxLifetime: 90,
	}

	cfg := env.ToAppConfig()

	assert.Equal(t, "/data", cfg.DataDir())
	assert.Equal(t, "sqlite:///"+filepath.Join("/data", DefaultDBFile), cfg.DBURL())
	assert.True(t, cfg.UsesDefaultDB())
	assert.Equal(t, "WARN", cfg.LogLevel())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.Equal(t, "m.yaml", cfg.ManifestPath())
	assert.Equal(t, "varchar(36)", cfg.IDColumnType())
	assert.Equal(t, 4, cfg.Pool().MaxOpenConns())
	assert.Equal(t, 1, cfg.Pool().MaxIdleConns())
	assert.Equal(t, 90*time.Second, cfg.Pool().ConnMaxLifetime())
}

func TestEnvConfig_ToAppConfig_ExplicitDBURL(t *testing.T) {
	env := EnvConfig{DataDir: "/data", DBURL: "postgres://db/app"}

	cfg := env.ToAppConfig()

	assert.Equal(t, "postgres://db/app", cfg.DBURL())
	assert.False(t, cfg.UsesDefaultDB())
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected LogFormat
	}{
		{"json", LogFormatJSON},
		{"JSON", LogFormatJSON},
		{"pretty", LogFormatPretty},
		{"PRETTY", LogFormatPretty},
		{"", LogFormatPretty},
		{"unknown", LogFormatPretty},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogFormat(tt.input))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := `MULTIMORPH_DATA_DIR=/from/dotenv
MULTIMORPH_LOG_LEVEL=DEBUG
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	clearEnvVars(t)

	err = LoadDotEnv(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/from/dotenv", os.Getenv("MULTIMORPH_DATA_DIR"))
	assert.Equal(t, "DEBUG", os.Getenv("MULTIMORPH_LOG_LEVEL"))
}

func TestLoadDotEnv_ExplicitMissing(t *testing.T) {
	clearEnvVars(t)

	err := LoadDotEnv("/nonexistent/.env")
	assert.ErrorIs(t, err, ErrEnvFileNotFound)
}

func TestLoadDotEnv_DefaultMissing(t *testing.T) {
	clearEnvVars(t)
	t.Chdir(t.TempDir())

	assert.NoError(t, LoadDotEnv(""))
}

func TestLoadDotEnv_DefaultInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, DefaultEnvFile), []byte("MULTIMORPH_ID_COLUMN_TYPE=uuid\n"), 0o644)
	require.NoError(t, err)

	clearEnvVars(t)
	t.Chdir(dir)

	require.NoError(t, LoadDotEnv(""))
	assert.Equal(t, "uuid", os.Getenv("MULTIMORPH_ID_COLUMN_TYPE"))
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := `MULTIMORPH_DATA_DIR=/config/data
MULTIMORPH_LOG_LEVEL=WARN
MULTIMORPH_MANIFEST=/config/morphs.yaml
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	clearEnvVars(t)
	// Already set variables win over the file.
	t.Setenv("MULTIMORPH_LOG_LEVEL", "ERROR")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/config/data", cfg.DataDir())
	assert.Equal(t, "ERROR", cfg.LogLevel())
	assert.Equal(t, "/config/morphs.yaml", cfg.ManifestPath())
}

func TestLoadConfig_MissingEnvFile(t *testing.T) {
	clearEnvVars(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrEnvFileNotFound)
}

// clearEnvVars unsets all config-related environment variables and restores
// them when the test finishes.
func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"MULTIMORPH_DATA_DIR",
		"MULTIMORPH_DB_URL",
		"MULTIMORPH_LOG_LEVEL",
		"MULTIMORPH_LOG_FORMAT",
		"MULTIMORPH_MANIFEST",
		"MULTIMORPH_ID_COLUMN_TYPE",
		"MULTIMORPH_DB_POOL_MAX_OPEN",
		"MULTIMORPH_DB_POOL_MAX_IDLE",
		"MULTIMORPH_DB_POOL_MAX_LIFETIME",
		"DATA_DIR",
		"DB_URL",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"MANIFEST",
		"ID_COLUMN_TYPE",
		"MAX_OPEN",
		"DB_POOL_MAX_OPEN",
	}

	for _, v := range vars {
		t.Setenv(v, "")
		require.NoError(t, os.Unsetenv(v))
	}
}
