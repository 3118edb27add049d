package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManager_EphemeralMode(t *testing.T) {
	base := t.TempDir()
	mgr := NewManager(base, "run-1")

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if got, want := mgr.Path(), filepath.Join(base, "docpublish-run-1"); got != want {
		t.Fatalf("Path() = %s, want %s", got, want)
	}
	if _, err := os.Stat(mgr.Path()); err != nil {
		t.Fatalf("workspace missing: %v", err)
	}
	if filepath.Dir(mgr.SourcePath()) != mgr.Path() || filepath.Dir(mgr.PublicPath()) != mgr.Path() {
		t.Fatalf("source/public paths must live in the workspace")
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(mgr.Path()); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after cleanup: %s", mgr.Path())
	}
}

func TestManager_DistinctRunsDoNotCollide(t *testing.T) {
	base := t.TempDir()
	a := NewManager(base, "a")
	b := NewManager(base, "b")
	if a.Path() == b.Path() {
		t.Fatalf("expected distinct workspaces, both at %s", a.Path())
	}
}

func TestManager_PersistentModeResetsAndKeeps(t *testing.T) {
	base := t.TempDir()
	mgr := NewPersistentManager(base, "")

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if mgr.Path() != filepath.Join(base, "working") {
		t.Fatalf("expected default subdir 'working', got %s", mgr.Path())
	}

	marker := filepath.Join(mgr.Path(), "marker.txt")
	if err := os.WriteFile(marker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("persistent workspace was removed: %v", err)
	}

	// A new run starts from an empty directory.
	if err := NewPersistentManager(base, "working").Create(); err != nil {
		t.Fatalf("second Create() failed: %v", err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatalf("expected marker to be reset by Create")
	}
}
