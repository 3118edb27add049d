package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if c.Source.URL == "" && c.Source.Path == "" {
		return errors.ConfigError("source.url or source.path is required").Build()
	}
	if c.Source.URL != "" && c.Source.Path != "" {
		return errors.ConfigError("source.url and source.path are mutually exclusive").Build()
	}
	if c.Source.Depth < 0 {
		return errors.ConfigError("source.depth cannot be negative").
			WithContext("depth", c.Source.Depth).Build()
	}
	if err := validateAuth("source.auth", c.Source.Auth); err != nil {
		return err
	}
	if filepath.IsAbs(c.Generate.OutputDir) || strings.HasPrefix(filepath.Clean(c.Generate.OutputDir), "..") {
		return errors.ConfigError("generate.output_dir must be relative to the source checkout").
			WithContext("output_dir", c.Generate.OutputDir).Build()
	}
	if c.Generate.Timeout < 0 {
		return errors.ConfigError("generate.timeout cannot be negative").Build()
	}
	switch c.Site.Ordering {
	case OrderingLexicographic, OrderingFilesystem:
	default:
		return errors.ConfigError("site.ordering must be "+orderingNormalizer.Describe()).
			WithContext("ordering", string(c.Site.Ordering)).Build()
	}
	if strings.ContainsAny(c.Site.ComponentPrefix, `/\`) {
		return errors.ConfigError("site.component_prefix cannot contain path separators").
			WithContext("prefix", c.Site.ComponentPrefix).Build()
	}
	return c.validateDeploy()
}

func (c *Config) validateDeploy() error {
	d := c.Publish.Deploy
	switch d.Type {
	case DeployNone:
	case DeployDirectory:
		if d.Target == "" {
			return errors.ConfigError("publish.deploy.target is required for directory deploys").Build()
		}
	case DeployGitBranch:
		if d.Remote == "" {
			return errors.ConfigError("publish.deploy.remote is required for git-branch deploys").Build()
		}
		if err := validateAuth("publish.deploy.auth", d.Auth); err != nil {
			return err
		}
	default:
		return errors.ConfigError("publish.deploy.type must be "+deployNormalizer.Describe()).
			WithContext("type", string(d.Type)).Build()
	}
	return nil
}

func validateAuth(field string, a *AuthConfig) error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthNone, "":
	case AuthToken:
		if a.Token == "" {
			return errors.ConfigError(field + ": token authentication requires a token").Build()
		}
	case AuthBasic:
		if a.Username == "" || a.Password == "" {
			return errors.ConfigError(field + ": basic authentication requires username and password").Build()
		}
	case AuthSSH:
	default:
		return errors.ConfigError(field+".type must be "+authNormalizer.Describe()).
			WithContext("type", string(a.Type)).Build()
	}
	return nil
}
