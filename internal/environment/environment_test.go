package environment

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublish/internal/config"
)

func TestNewSplitsWrapper(t *testing.T) {
	env, err := New(config.EnvironmentConfig{
		Name:    "nix-devshell",
		Version: "1",
		Wrapper: `nix develop ".#docs" --command`,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"nix", "develop", ".#docs", "--command"}, env.Wrapper)
	assert.Equal(t, []string{"nix", "develop", ".#docs", "--command", "cargo", "doc"}, env.Wrap([]string{"cargo", "doc"}))
	assert.Equal(t, "nix-devshell@1", env.String())
}

func TestNewRejectsUnbalancedQuotes(t *testing.T) {
	_, err := New(config.EnvironmentConfig{Name: "x", Wrapper: `nix develop "unterminated`})
	require.Error(t, err)
}

func TestWrapWithoutWrapper(t *testing.T) {
	env, err := New(config.EnvironmentConfig{Name: "plain"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cargo", "doc"}, env.Wrap([]string{"cargo", "doc"}))
	assert.Equal(t, "plain", env.String())
}

func TestEnvironAppendsVars(t *testing.T) {
	env, err := New(config.EnvironmentConfig{Name: "x", Vars: map[string]string{"RUSTDOCFLAGS": "-D warnings"}})
	require.NoError(t, err)
	assert.True(t, slices.Contains(env.Environ(), "RUSTDOCFLAGS=-D warnings"))
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flake.lock"), []byte(`{"nodes":{}}`), 0o644))

	base := config.EnvironmentConfig{
		Name:     "nix-devshell",
		Version:  "1",
		Vars:     map[string]string{"A": "1", "B": "2"},
		PinFiles: []string{"flake.lock", "rust-toolchain.toml"},
	}
	env, err := New(base)
	require.NoError(t, err)

	first, err := env.Fingerprint(dir)
	require.NoError(t, err)
	again, err := env.Fingerprint(dir)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, first, 64)

	// Pin file content is part of the identity.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flake.lock"), []byte(`{"nodes":{"x":1}}`), 0o644))
	changed, err := env.Fingerprint(dir)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)

	// So is the version.
	base.Version = "2"
	env2, err := New(base)
	require.NoError(t, err)
	bumped, err := env2.Fingerprint(dir)
	require.NoError(t, err)
	assert.NotEqual(t, changed, bumped)
}

func TestReadToolchain(t *testing.T) {
	t.Run("toml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "rust-toolchain.toml"), []byte(`
[toolchain]
channel = "1.74.0"
components = ["rustfmt", "clippy"]
profile = "minimal"
`), 0o644))
		tc, err := ReadToolchain(dir)
		require.NoError(t, err)
		require.NotNil(t, tc)
		assert.Equal(t, "1.74.0", tc.Channel)
		assert.Equal(t, []string{"rustfmt", "clippy"}, tc.Components)
		assert.Equal(t, "minimal", tc.Profile)
	})

	t.Run("legacy single line", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "rust-toolchain"), []byte("nightly-2023-10-01\n"), 0o644))
		tc, err := ReadToolchain(dir)
		require.NoError(t, err)
		assert.Equal(t, "nightly-2023-10-01", tc.Channel)
	})

	t.Run("absent", func(t *testing.T) {
		tc, err := ReadToolchain(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, tc)
	})

	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "rust-toolchain.toml"), []byte("[toolchain\n"), 0o644))
		_, err := ReadToolchain(dir)
		require.Error(t, err)
	})
}
