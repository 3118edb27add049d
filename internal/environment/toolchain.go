package environment

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Toolchain describes a pinned Rust toolchain.
type Toolchain struct {
	Channel    string   `toml:"channel"`
	Components []string `toml:"components"`
	Targets    []string `toml:"targets"`
	Profile    string   `toml:"profile"`
}

type toolchainFile struct {
	Toolchain Toolchain `toml:"toolchain"`
}

// ReadToolchain reads the pinned toolchain from rust-toolchain.toml, or from the legacy
// single-line rust-toolchain file. It returns nil when neither file exists.
func ReadToolchain(dir string) (*Toolchain, error) {
	data, err := os.ReadFile(filepath.Join(dir, "rust-toolchain.toml"))
	if err == nil {
		var f toolchainFile
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, errors.WrapError(err, errors.CategoryEnvironment, "parse rust-toolchain.toml").Build()
		}
		return &f.Toolchain, nil
	}
	if !os.IsNotExist(err) {
		return nil, errors.WrapError(err, errors.CategoryEnvironment, "read rust-toolchain.toml").Build()
	}

	data, err = os.ReadFile(filepath.Join(dir, "rust-toolchain"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryEnvironment, "read rust-toolchain").Build()
	}
	content := strings.TrimSpace(string(data))
	if strings.Contains(content, "[toolchain]") {
		var f toolchainFile
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, errors.WrapError(err, errors.CategoryEnvironment, "parse rust-toolchain").Build()
		}
		return &f.Toolchain, nil
	}
	return &Toolchain{Channel: content}, nil
}
