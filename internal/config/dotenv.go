package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no .env path is given.
const DefaultEnvFile = ".env"

// ErrEnvFileNotFound is returned when an explicitly named .env file is missing.
var ErrEnvFileNotFound = errors.New("env file not found")

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set win over the file. With an empty path the
// DefaultEnvFile is loaded if it exists; an explicit path must exist.
func LoadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat env file: %w", err)
		}
		if explicit {
			return fmt.Errorf("%w: %s", ErrEnvFileNotFound, path)
		}
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from a .env file and environment variables.
func LoadConfig(envPath string) (AppConfig, error) {
	if err := LoadDotEnv(envPath); err != nil {
		return AppConfig{}, err
	}

	envCfg, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, err
	}

	return envCfg.ToAppConfig(), nil
}
