package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/gitauth"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/site"
)

// GitBranchDeployer publishes the site as the sole content of a branch, e.g. gh-pages.
// Each deploy creates a fresh single-commit history and force-pushes it.
type GitBranchDeployer struct {
	cfg config.DeployConfig
	now func() time.Time
}

// NewGitBranchDeployer creates a GitBranchDeployer.
func NewGitBranchDeployer(cfg config.DeployConfig) *GitBranchDeployer {
	if cfg.Branch == "" {
		cfg.Branch = config.DefaultDeployBranch
	}
	return &GitBranchDeployer{cfg: cfg, now: time.Now}
}

func (g *GitBranchDeployer) Name() string { return string(config.DeployGitBranch) }

func (g *GitBranchDeployer) Deploy(ctx context.Context, req Request) (*Deployment, error) {
	auth, err := gitauth.AuthMethod(g.cfg.Auth)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "docpublish-pages-")
	if err != nil {
		return nil, errors.FileSystemError("create pages checkout").WithCause(err).Build()
	}
	defer func() { _ = os.RemoveAll(dir) }()

	branch := plumbing.NewBranchReferenceName(g.cfg.Branch)
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: branch},
	})
	if err != nil {
		return nil, gitError(err, "init pages repository")
	}

	if err := copyInto(req.SiteRoot, dir); err != nil {
		return nil, errors.PublishError("copy site into pages repository").WithCause(err).Build()
	}
	// Keep GitHub Pages from running Jekyll over the generated tree.
	if err := os.WriteFile(filepath.Join(dir, ".nojekyll"), nil, 0o644); err != nil { // #nosec G306 -- public marker
		return nil, errors.FileSystemError("write .nojekyll").WithCause(err).Build()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, gitError(err, "open pages worktree")
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, gitError(err, "stage site")
	}
	msg := "Publish documentation"
	if req.Commit != "" {
		msg = fmt.Sprintf("Publish documentation for %s", req.Commit)
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: g.cfg.AuthorName, Email: g.cfg.AuthorEmail, When: g.now()},
	})
	if err != nil {
		return nil, gitError(err, "commit site")
	}

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{g.cfg.Remote}}); err != nil {
		return nil, gitError(err, "configure remote")
	}
	refSpec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s", branch, branch))
	slog.Info("Pushing site", logfields.URL(g.cfg.Remote), logfields.Branch(g.cfg.Branch), logfields.Commit(hash.String()))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth,
		Force:      true,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		if ctx.Err() != nil {
			return nil, errors.CanceledError("push interrupted").WithCause(ctx.Err()).Build()
		}
		return nil, errors.PublishError("push site").WithCause(err).
			WithContext("remote", g.cfg.Remote).
			WithContext("branch", g.cfg.Branch).Build()
	}
	return &Deployment{Target: g.Name(), Location: g.cfg.Remote + "#" + g.cfg.Branch, Revision: hash.String()}, nil
}

// copyInto copies the children of src into the existing directory dst.
func copyInto(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := site.CopyTree(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func gitError(err error, msg string) error {
	return errors.GitError(msg).WithCause(err).Build()
}
