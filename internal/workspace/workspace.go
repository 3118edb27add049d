package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

const (
	SourceDir = "source"
	PublicDir = "public"
)

// Manager handles a single run's workspace.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
}

// NewManager creates a manager for an ephemeral workspace named after runID.
func NewManager(baseDir, runID string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{
		baseDir: baseDir,
		dir:     filepath.Join(baseDir, "docpublish-"+runID),
	}
}

// NewPersistentManager creates a manager for a fixed workspace directory that is
// kept after the run.
func NewPersistentManager(baseDir, subdirName string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if subdirName == "" {
		subdirName = "working"
	}
	return &Manager{
		baseDir:    baseDir,
		dir:        filepath.Join(baseDir, subdirName),
		persistent: true,
	}
}

// Create prepares an empty workspace directory.
func (m *Manager) Create() error {
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to reset workspace directory: %w", err)
	}
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	slog.Debug("Created workspace", logfields.Path(m.dir), slog.Bool("persistent", m.persistent))
	return nil
}

// Path returns the workspace directory.
func (m *Manager) Path() string { return m.dir }

// SourcePath is where the repository snapshot is checked out.
func (m *Manager) SourcePath() string { return filepath.Join(m.dir, SourceDir) }

// PublicPath is the assembled site's output root.
func (m *Manager) PublicPath() string { return filepath.Join(m.dir, PublicDir) }

// Cleanup removes an ephemeral workspace. Persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.persistent {
		slog.Debug("Keeping persistent workspace", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	return nil
}
