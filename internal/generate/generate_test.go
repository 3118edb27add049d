package generate

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/environment"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandGeneratorProducesTree(t *testing.T) {
	requireShell(t)
	src := t.TempDir()
	env, err := environment.New(config.EnvironmentConfig{Name: "test", Vars: map[string]string{"CRATE": "lofire-broker"}})
	require.NoError(t, err)

	g, err := NewCommandGenerator(config.GenerateConfig{
		Command: `sh -c 'mkdir -p target/doc/$CRATE && echo ok > target/doc/$CRATE/index.html'`,
	}, env)
	require.NoError(t, err)

	root, err := g.Generate(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(src, "target", "doc"), root)
	assert.FileExists(t, filepath.Join(root, "lofire-broker", "index.html"))
}

func TestCommandGeneratorUsesWrapper(t *testing.T) {
	requireShell(t)
	env, err := environment.New(config.EnvironmentConfig{Name: "wrapped", Wrapper: "env DOC_ROOT=out"})
	require.NoError(t, err)

	g, err := NewCommandGenerator(config.GenerateConfig{
		Command:   `sh -c 'mkdir -p $DOC_ROOT/lofire && touch $DOC_ROOT/lofire/index.html'`,
		OutputDir: "out",
	}, env)
	require.NoError(t, err)
	assert.Equal(t, "env", g.Command()[0])

	root, err := g.Generate(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "lofire", "index.html"))
}

func TestCommandGeneratorFailures(t *testing.T) {
	requireShell(t)

	t.Run("non-zero exit", func(t *testing.T) {
		g, err := NewCommandGenerator(config.GenerateConfig{Command: `sh -c 'echo broken >&2; exit 101'`}, nil)
		require.NoError(t, err)
		_, err = g.Generate(context.Background(), t.TempDir())
		require.Error(t, err)
		c, ok := errors.AsClassified(err)
		require.True(t, ok)
		assert.Equal(t, errors.CategoryGenerate, c.Category())
		stderr, _ := c.Context().GetString("stderr")
		assert.Contains(t, stderr, "broken")
	})

	t.Run("no output", func(t *testing.T) {
		g, err := NewCommandGenerator(config.GenerateConfig{Command: "sh -c true"}, nil)
		require.NoError(t, err)
		_, err = g.Generate(context.Background(), t.TempDir())
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryGenerate))
	})

	t.Run("empty output", func(t *testing.T) {
		g, err := NewCommandGenerator(config.GenerateConfig{Command: "sh -c 'mkdir -p target/doc'"}, nil)
		require.NoError(t, err)
		_, err = g.Generate(context.Background(), t.TempDir())
		require.Error(t, err)
	})

	t.Run("missing executable", func(t *testing.T) {
		g, err := NewCommandGenerator(config.GenerateConfig{Command: "docpublish-no-such-binary"}, nil)
		require.NoError(t, err)
		_, err = g.Generate(context.Background(), t.TempDir())
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryEnvironment))
	})

	t.Run("canceled", func(t *testing.T) {
		g, err := NewCommandGenerator(config.GenerateConfig{Command: "sh -c 'sleep 5'"}, nil)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = g.Generate(ctx, t.TempDir())
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryCanceled))
	})
}

func TestCommandGeneratorRunsScriptRelativeToSource(t *testing.T) {
	requireShell(t)
	src := t.TempDir()
	script := "#!/bin/sh\nmkdir -p target/doc/lofire && echo ok > target/doc/lofire/index.html\n"
	require.NoError(t, os.MkdirAll(filepath.Join(src, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "scripts", "docs.sh"), []byte(script), 0o755))

	g, err := NewCommandGenerator(config.GenerateConfig{Command: "./scripts/docs.sh"}, nil)
	require.NoError(t, err)

	root, err := g.Generate(context.Background(), src)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "lofire", "index.html"))

	t.Run("missing script", func(t *testing.T) {
		g, err := NewCommandGenerator(config.GenerateConfig{Command: "./scripts/absent.sh"}, nil)
		require.NoError(t, err)
		_, err = g.Generate(context.Background(), src)
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryEnvironment))
	})

	t.Run("not executable", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(src, "scripts", "plain.sh"), []byte(script), 0o644))
		g, err := NewCommandGenerator(config.GenerateConfig{Command: "./scripts/plain.sh"}, nil)
		require.NoError(t, err)
		_, err = g.Generate(context.Background(), src)
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryEnvironment))
	})
}

func TestNewCommandGeneratorRejectsEmptyCommand(t *testing.T) {
	_, err := NewCommandGenerator(config.GenerateConfig{Command: ""}, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestStaticGenerator(t *testing.T) {
	root := t.TempDir()
	_, err := StaticGenerator{Root: root}.Generate(context.Background(), "")
	require.Error(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(root, "lofire"), 0o755))
	got, err := StaticGenerator{Root: root}.Generate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, root, got)
}
