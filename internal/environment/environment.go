// Package environment models the pinned toolchain environment the documentation
// generator runs in. The environment is an explicit value handed to the generator
// instead of ambient process state, so its identity can be fingerprinted and logged.
package environment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"mvdan.cc/sh/v3/shell"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Environment is a declarative, versioned toolchain environment.
type Environment struct {
	Name     string
	Version  string
	Wrapper  []string
	Vars     map[string]string
	PinFiles []string
}

// New builds an Environment from configuration, splitting the wrapper command line
// with shell word rules.
func New(cfg config.EnvironmentConfig) (*Environment, error) {
	wrapper, err := SplitCommand(cfg.Wrapper)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEnvironment, "parse environment wrapper").
			WithContext("wrapper", cfg.Wrapper).Build()
	}
	vars := make(map[string]string, len(cfg.Vars))
	for k, v := range cfg.Vars {
		vars[k] = v
	}
	return &Environment{
		Name:     cfg.Name,
		Version:  cfg.Version,
		Wrapper:  wrapper,
		Vars:     vars,
		PinFiles: append([]string(nil), cfg.PinFiles...),
	}, nil
}

// SplitCommand splits a command line into argv. Quotes are honoured and $VARS are
// expanded from the process environment. An empty line yields no words.
func SplitCommand(line string) ([]string, error) {
	if line == "" {
		return nil, nil
	}
	return shell.Fields(line, nil)
}

// Wrap prefixes argv with the environment's wrapper command.
func (e *Environment) Wrap(argv []string) []string {
	out := make([]string, 0, len(e.Wrapper)+len(argv))
	out = append(out, e.Wrapper...)
	return append(out, argv...)
}

// Environ returns the process environment with the environment's variables applied.
func (e *Environment) Environ() []string {
	env := os.Environ()
	for _, k := range e.sortedKeys() {
		env = append(env, k+"="+e.Vars[k])
	}
	return env
}

// Fingerprint hashes the environment's identity together with the contents of its pin
// files, resolved relative to dir. Missing pin files are part of the identity.
func (e *Environment) Fingerprint(dir string) (string, error) {
	h := sha256.New()
	w := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	w("name", e.Name)
	w("version", e.Version)
	w(append([]string{"wrapper"}, e.Wrapper...)...)
	for _, k := range e.sortedKeys() {
		w("var", k, e.Vars[k])
	}

	pins := append([]string(nil), e.PinFiles...)
	sort.Strings(pins)
	for _, pin := range pins {
		data, err := os.ReadFile(filepath.Join(dir, pin))
		switch {
		case err == nil:
			sum := sha256.Sum256(data)
			w("pin", pin, hex.EncodeToString(sum[:]))
		case os.IsNotExist(err):
			w("pin", pin, "missing")
		default:
			return "", errors.WrapError(err, errors.CategoryEnvironment, "read pin file").
				WithContext("pin", pin).Build()
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// String identifies the environment in logs.
func (e *Environment) String() string {
	if e.Version == "" {
		return e.Name
	}
	return fmt.Sprintf("%s@%s", e.Name, e.Version)
}

func (e *Environment) sortedKeys() []string {
	keys := make([]string, 0, len(e.Vars))
	for k := range e.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
