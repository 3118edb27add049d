package config

import (
	"bytes"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// envFiles are loaded (if present) before the config is expanded. Existing
// process variables always win.
var envFiles = []string{".env", ".env.local"}

// Load reads, expands, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read configuration").
			WithContext("path", path).Build()
	}
	cfg, err := Parse(data)
	if err != nil {
		if c, ok := errors.AsClassified(err); ok {
			return nil, c.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration with ${VAR} expansion and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "decode configuration").Fatal().Build()
	}
	normalizeEnums(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFiles() error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "load env file").
				WithContext("path", f).Fatal().Build()
		}
		slog.Debug("Loaded env file", logfields.Path(f))
	}
	return nil
}
