package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Example returns the configuration written by `docpublish init`.
func Example() *Config {
	cfg := &Config{
		Source: SourceConfig{
			URL:    "https://git.example.org/lofire/lofire-rs.git",
			Branch: DefaultBranch,
			Depth:  1,
		},
		Environment: EnvironmentConfig{
			Name:     "nix-devshell",
			Version:  "1",
			Wrapper:  "nix develop --command",
			PinFiles: []string{"flake.lock", "rust-toolchain.toml"},
		},
		Generate: GenerateConfig{Timeout: 30 * time.Minute},
		Publish: PublishConfig{
			Artifact: "public.tar.gz",
			Deploy:   DeployConfig{Type: DeployDirectory, Target: "./public"},
		},
		Daemon: DaemonConfig{WebhookSecret: "${DOCPUBLISH_WEBHOOK_SECRET}"},
	}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.NewError(errors.CategoryAlreadyExists, "configuration file already exists (use --force to overwrite)").
			WithContext("path", path).Build()
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal example configuration").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.FileSystemError("write configuration").WithCause(err).
			WithContext("path", path).Build()
	}
	return nil
}
