// Package manifest records the inputs and outputs of a run next to its artifact.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// RunManifest is a complete record of a run's inputs and outputs.
type RunManifest struct {
	ID        string    `json:"id"`
	Trigger   string    `json:"trigger"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    Inputs    `json:"inputs"`
	Outputs   Outputs   `json:"outputs"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
	Version   string    `json:"version"`
}

// Inputs captures everything that determines the generated site.
type Inputs struct {
	Source         SourceInput `json:"source"`
	Environment    string      `json:"environment"`
	EnvFingerprint string      `json:"env_fingerprint"`
	Toolchain      string      `json:"toolchain,omitempty"`
	ConfigHash     string      `json:"config_hash"`
}

// SourceInput identifies the source snapshot.
type SourceInput struct {
	URL    string `json:"url,omitempty"`
	Path   string `json:"path,omitempty"`
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
}

// Outputs captures what the run produced.
type Outputs struct {
	Components     []string `json:"components"`
	Artifact       string   `json:"artifact,omitempty"`
	ArtifactSHA256 string   `json:"artifact_sha256,omitempty"`
	Deployment     string   `json:"deployment,omitempty"`
	Revision       string   `json:"revision,omitempty"`
}

// ToJSON serializes the manifest to JSON.
func (m *RunManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*RunManifest, error) {
	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash is a digest of the run inputs. Two runs with the same hash generated
// from the same commit, environment and site configuration.
func (m *RunManifest) Hash() (string, error) {
	data, err := json.Marshal(m.Inputs)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// PathFor returns the manifest location for an artifact: site.tar.gz -> site.manifest.json.
func PathFor(artifactPath string) string {
	dir, base := filepath.Split(artifactPath)
	for _, ext := range []string{".tar.gz", ".tgz"} {
		if strings.HasSuffix(base, ext) {
			return filepath.Join(dir, strings.TrimSuffix(base, ext)+".manifest.json")
		}
	}
	return filepath.Join(dir, base+".manifest.json")
}

// Read loads the manifest stored at path.
func Read(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path derived from configured artifact
	if err != nil {
		return nil, errors.FileSystemError("read manifest").WithCause(err).
			WithContext("path", path).Build()
	}
	return FromJSON(data)
}
