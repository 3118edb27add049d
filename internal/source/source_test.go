package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// fixtureRepo creates a repository on branch main with a single commit.
func fixtureRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[workspace]\nmembers = [\"lofire\"]\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestGitAcquirerClonesBranch(t *testing.T) {
	remote, commit := fixtureRepo(t)
	dest := filepath.Join(t.TempDir(), "source")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale"), []byte("x"), 0o644))

	snap, err := New(config.SourceConfig{URL: remote, Branch: "main"}).Acquire(context.Background(), dest)
	require.NoError(t, err)

	assert.Equal(t, commit, snap.Commit)
	assert.Equal(t, "main", snap.Branch)
	assert.FileExists(t, filepath.Join(dest, "Cargo.toml"))
	assert.NoFileExists(t, filepath.Join(dest, "stale"))
}

func TestGitAcquirerUnknownBranch(t *testing.T) {
	remote, _ := fixtureRepo(t)
	_, err := NewGitAcquirer(config.SourceConfig{URL: remote, Branch: "release"}).
		Acquire(context.Background(), filepath.Join(t.TempDir(), "source"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}

func TestLocalAcquirer(t *testing.T) {
	t.Run("git checkout", func(t *testing.T) {
		dir, commit := fixtureRepo(t)
		snap, err := New(config.SourceConfig{Path: dir}).Acquire(context.Background(), "ignored")
		require.NoError(t, err)
		assert.Equal(t, commit, snap.Commit)
		assert.Equal(t, "main", snap.Branch)
		assert.Equal(t, dir, snap.Dir)
	})

	t.Run("plain directory", func(t *testing.T) {
		dir := t.TempDir()
		snap, err := (&LocalAcquirer{Path: dir}).Acquire(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, snap.Commit)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := (&LocalAcquirer{Path: filepath.Join(t.TempDir(), "nope")}).Acquire(context.Background(), "")
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	})
}
