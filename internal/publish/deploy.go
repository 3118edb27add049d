package publish

import (
	"context"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/site"
)

// Request describes one deployment.
type Request struct {
	SiteRoot string
	RunID    string
	Commit   string
}

// Deployment is the outcome of a successful deploy.
type Deployment struct {
	Target   string `json:"target"`
	Location string `json:"location,omitempty"`
	Revision string `json:"revision,omitempty"`
}

// Deployer makes an assembled site live.
type Deployer interface {
	Name() string
	Deploy(ctx context.Context, req Request) (*Deployment, error)
}

// NewDeployer builds the deployer selected by cfg.
func NewDeployer(cfg config.DeployConfig) (Deployer, error) {
	switch cfg.Type {
	case config.DeployNone, "":
		return NoopDeployer{}, nil
	case config.DeployDirectory:
		return &DirectoryDeployer{Target: cfg.Target}, nil
	case config.DeployGitBranch:
		return NewGitBranchDeployer(cfg), nil
	default:
		return nil, errors.ConfigError("unsupported deploy type").
			WithContext("type", string(cfg.Type)).Build()
	}
}

// NoopDeployer accepts every site without deploying it.
type NoopDeployer struct{}

func (NoopDeployer) Name() string { return string(config.DeployNone) }

func (NoopDeployer) Deploy(_ context.Context, req Request) (*Deployment, error) {
	slog.Info("Deployment disabled", logfields.RunID(req.RunID))
	return &Deployment{Target: string(config.DeployNone)}, nil
}

// DirectoryDeployer replaces Target with a copy of the site. The copy is staged in a
// sibling directory and promoted with renames, so readers see either the old or the
// new site.
type DirectoryDeployer struct {
	Target string
}

func (d *DirectoryDeployer) Name() string { return string(config.DeployDirectory) }

func (d *DirectoryDeployer) Deploy(ctx context.Context, req Request) (*Deployment, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.CanceledError("deployment canceled").WithCause(err).Build()
	}
	stage := d.Target + "_stage"
	prev := d.Target + ".prev"

	if err := os.RemoveAll(stage); err != nil {
		return nil, fsError(err, "clear staging directory", stage)
	}
	if err := site.CopyTree(req.SiteRoot, stage); err != nil {
		_ = os.RemoveAll(stage)
		return nil, fsError(err, "stage site", stage)
	}
	if err := os.RemoveAll(prev); err != nil {
		return nil, fsError(err, "remove previous backup", prev)
	}
	if _, err := os.Stat(d.Target); err == nil {
		if err := os.Rename(d.Target, prev); err != nil {
			return nil, fsError(err, "back up current site", d.Target)
		}
	}
	if err := os.Rename(stage, d.Target); err != nil {
		return nil, fsError(err, "promote staged site", d.Target)
	}
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous site", logfields.Path(prev), logfields.Error(err))
	}
	slog.Info("Site deployed", logfields.Path(d.Target))
	return &Deployment{Target: d.Name(), Location: d.Target}, nil
}

func fsError(err error, msg, path string) error {
	return errors.PublishError(msg).WithCause(err).WithContext("path", path).Build()
}
