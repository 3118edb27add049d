// Package generate invokes the documentation generator that produces the raw doc tree.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/environment"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// Generator produces a generated doc tree for a source checkout and returns its root.
type Generator interface {
	Generate(ctx context.Context, sourceDir string) (string, error)
}

// CommandGenerator runs an external generator inside an Environment.
type CommandGenerator struct {
	argv      []string
	outputDir string
	timeout   time.Duration
	env       *environment.Environment
}

// NewCommandGenerator creates a generator from configuration.
func NewCommandGenerator(cfg config.GenerateConfig, env *environment.Environment) (*CommandGenerator, error) {
	argv, err := environment.SplitCommand(cfg.Command)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse generate.command").
			WithContext("command", cfg.Command).Build()
	}
	if len(argv) == 0 {
		return nil, errors.ConfigError("generate.command is empty").Build()
	}
	if env == nil {
		env = &environment.Environment{Name: config.DefaultEnvironmentName}
	}
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = config.DefaultOutputDir
	}
	return &CommandGenerator{argv: argv, outputDir: outputDir, timeout: cfg.Timeout, env: env}, nil
}

// Command returns the full argv including the environment wrapper.
func (g *CommandGenerator) Command() []string { return g.env.Wrap(g.argv) }

// Generate runs the generator in sourceDir and checks that it produced output.
func (g *CommandGenerator) Generate(ctx context.Context, sourceDir string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	argv := g.Command()
	exe, err := resolveExecutable(argv[0], sourceDir)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, exe, argv[1:]...)
	cmd.Dir = sourceDir
	cmd.Env = g.env.Environ()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("Running documentation generator",
		slog.String("command", strings.Join(argv, " ")),
		slog.String("environment", g.env.String()),
		logfields.Path(sourceDir))
	start := time.Now()
	err = cmd.Run()

	if out := stdout.String(); out != "" {
		slog.Debug("generator stdout", "output", out)
	}
	if errOut := stderr.String(); errOut != "" {
		// cargo reports progress on stderr, so this is not necessarily a failure.
		slog.Debug("generator stderr", "output", errOut)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", errors.CanceledError("generator interrupted").WithCause(ctxErr).Build()
		}
		return "", errors.WrapError(err, errors.CategoryGenerate, "generator failed").
			WithContext("command", strings.Join(argv, " ")).
			WithContext("stderr", tail(stderr.String(), 2048)).Build()
	}
	slog.Info("Documentation generator finished", logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	root := filepath.Join(sourceDir, g.outputDir)
	if err := checkOutput(root); err != nil {
		return "", err
	}
	return root, nil
}

// resolveExecutable looks bare names up on PATH. Names with a path separator are taken
// relative to dir, which is where the command runs.
func resolveExecutable(name, dir string) (string, error) {
	path := name
	var err error
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		var info os.FileInfo
		if info, err = os.Stat(path); err == nil && (info.IsDir() || info.Mode().Perm()&0o111 == 0) {
			err = fmt.Errorf("%s is not executable", path)
		}
	} else {
		path, err = exec.LookPath(name)
	}
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryEnvironment, "generator executable not found").
			WithContext("executable", name).Build()
	}
	return path, nil
}

// StaticGenerator returns an existing generated tree. It backs the assemble command,
// where generation already happened elsewhere.
type StaticGenerator struct {
	Root string
}

func (s StaticGenerator) Generate(_ context.Context, _ string) (string, error) {
	if err := checkOutput(s.Root); err != nil {
		return "", err
	}
	return s.Root, nil
}

func checkOutput(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return errors.WrapError(err, errors.CategoryGenerate, "generator produced no output").
			WithContext("path", root).Build()
	}
	if len(entries) == 0 {
		return errors.GenerateError("generator output is empty").
			WithContext("path", root).Build()
	}
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
