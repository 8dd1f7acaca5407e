package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/luminary-app/luminary/internal/errors"
)

// Config holds the global Luminary client configuration.
//
// Values are resolved in order: built-in defaults, then the config file at
// ~/.luminary/config.yaml, then LUMINARY_* environment variables. The API
// base URL is the single externally configured service endpoint.
type Config struct {
	// APIURL is the base URL of the Luminary identity/API service
	APIURL string `yaml:"api_url" env:"LUMINARY_API_URL"`

	// RequestTimeout bounds every outbound API call
	RequestTimeout time.Duration `yaml:"request_timeout" env:"LUMINARY_REQUEST_TIMEOUT"`

	// LogLevel is the minimum log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level" env:"LUMINARY_LOG_LEVEL"`

	// LogFormat is the log output format (text, json)
	LogFormat string `yaml:"log_format" env:"LUMINARY_LOG_FORMAT"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		APIURL:         "http://localhost:8080",
		RequestTimeout: 30 * time.Second,
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

// Dir returns the Luminary config directory (~/.luminary), creating nothing.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfigRead, "cannot resolve home directory", err)
	}
	return filepath.Join(home, ".luminary"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load resolves the effective configuration.
//
// A missing config file is not an error; the defaults plus environment
// overrides apply. A malformed file is an error, so a typo does not silently
// send credentials to the wrong endpoint.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeConfigInvalid, "malformed config file", err).
				WithSuggestion("Check the YAML syntax in " + path)
		}
	case os.IsNotExist(err):
		// No file is the common case for a fresh install.
	default:
		return Config{}, errors.Wrap(errors.ErrCodeConfigRead, "cannot read config file", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfigInvalid, "invalid environment override", err).
			WithSuggestion("Check LUMINARY_* environment variables")
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = Default().RequestTimeout
	}

	return cfg, nil
}

// Save writes the configuration to the config file, creating the directory
// if needed.
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeConfigRead, "cannot create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "cannot encode config", err)
	}

	path := filepath.Join(dir, "config.yaml")
	return os.WriteFile(path, data, 0o644)
}
