// Package config loads service configuration from YAML with .env and
// environment variable overrides declared through `env:"NAME"` struct tags.
//
// Priority, lowest to highest: YAML file, defaults for zero values,
// environment (including ENV_FILE / .env.local / .env).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "CONFIG_PATH"

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// godotenv never overwrites variables that are already set, so the first
// file to define a key wins.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads path into a T and applies environment overrides.
// A missing file is not an error: the zero T is returned with overrides
// applied, which lets CLIs run from defaults alone.
func Load[T any](path string) (*T, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	var cfg T
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, unmarshalErr)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadWithDefaults is Load followed by setDefaults; env overrides are
// applied again afterwards so the environment always wins over defaults.
func LoadWithDefaults[T any](path string, setDefaults func(*T)) (*T, error) {
	cfg, err := Load[T](path)
	if err != nil {
		return nil, err
	}
	if setDefaults != nil {
		setDefaults(cfg)
		applyEnvOverrides(cfg)
	}
	if validator, ok := any(cfg).(interface{ Validate() error }); ok {
		if validateErr := validator.Validate(); validateErr != nil {
			return nil, fmt.Errorf("invalid config: %w", validateErr)
		}
	}
	return cfg, nil
}

// GetConfigPath returns $CONFIG_PATH or defaultPath.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return path
	}
	return defaultPath
}
