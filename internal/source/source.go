// Package source acquires the repository snapshot that documentation is generated from.
package source

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/gitauth"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// Snapshot is an acquired source tree.
type Snapshot struct {
	Dir    string
	Branch string
	Commit string // empty when the tree is not a git checkout
}

// Acquirer retrieves a snapshot into dest. Local acquirers ignore dest.
type Acquirer interface {
	Acquire(ctx context.Context, dest string) (*Snapshot, error)
}

// New returns a LocalAcquirer when cfg.Path is set and a GitAcquirer otherwise.
func New(cfg config.SourceConfig) Acquirer {
	if cfg.Path != "" {
		return &LocalAcquirer{Path: cfg.Path}
	}
	return &GitAcquirer{cfg: cfg}
}

// GitAcquirer clones a single branch of a remote repository.
type GitAcquirer struct {
	cfg config.SourceConfig
}

// NewGitAcquirer creates a GitAcquirer.
func NewGitAcquirer(cfg config.SourceConfig) *GitAcquirer {
	return &GitAcquirer{cfg: cfg}
}

func (g *GitAcquirer) Acquire(ctx context.Context, dest string) (*Snapshot, error) {
	if err := os.RemoveAll(dest); err != nil {
		return nil, errors.FileSystemError("reset checkout directory").WithCause(err).
			WithContext("path", dest).Build()
	}

	branch := g.cfg.Branch
	if branch == "" {
		branch = config.DefaultBranch
	}
	opts := &git.CloneOptions{
		URL:           g.cfg.URL,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         g.cfg.Depth,
	}
	auth, err := gitauth.AuthMethod(g.cfg.Auth)
	if err != nil {
		return nil, err
	}
	opts.Auth = auth

	slog.Info("Cloning source", logfields.URL(g.cfg.URL), logfields.Branch(branch), logfields.Path(dest))
	repo, err := git.PlainCloneContext(ctx, dest, false, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.CanceledError("clone interrupted").WithCause(ctx.Err()).Build()
		}
		return nil, errors.GitError("clone source").WithCause(err).
			WithContext("url", g.cfg.URL).
			WithContext("branch", branch).Build()
	}
	head, err := repo.Head()
	if err != nil {
		return nil, errors.GitError("resolve HEAD").WithCause(err).Build()
	}
	slog.Info("Source acquired", logfields.Branch(branch), logfields.Commit(head.Hash().String()))
	return &Snapshot{Dir: dest, Branch: branch, Commit: head.Hash().String()}, nil
}

// LocalAcquirer uses an existing directory as the snapshot.
type LocalAcquirer struct {
	Path string
}

func (l *LocalAcquirer) Acquire(_ context.Context, _ string) (*Snapshot, error) {
	dir, err := filepath.Abs(l.Path)
	if err != nil {
		return nil, errors.FileSystemError("resolve source path").WithCause(err).
			WithContext("path", l.Path).Build()
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, errors.NotFoundError("source path is not a directory").
			WithContext("path", dir).Build()
	}

	snap := &Snapshot{Dir: dir}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	switch {
	case err == nil:
		if head, herr := repo.Head(); herr == nil {
			snap.Commit = head.Hash().String()
			if head.Name().IsBranch() {
				snap.Branch = head.Name().Short()
			}
		}
	case stderrors.Is(err, git.ErrRepositoryNotExists):
	default:
		return nil, errors.GitError("open local repository").WithCause(err).
			WithContext("path", dir).Build()
	}
	slog.Info("Using local source", logfields.Path(dir), logfields.Commit(snap.Commit))
	return snap, nil
}
