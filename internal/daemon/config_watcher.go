package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// ConfigWatcher reloads the configuration file after it changes. Bursts of events
// are debounced into one reload.
type ConfigWatcher struct {
	configPath string
	debounce   time.Duration
	load       func(string) (*config.Config, error)
	apply      func(*config.Config) error
}

// NewConfigWatcher creates a watcher that passes each successfully loaded
// configuration to apply.
func NewConfigWatcher(configPath string, debounce time.Duration, apply func(*config.Config) error) (*ConfigWatcher, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve config path").Build()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &ConfigWatcher{configPath: absPath, debounce: debounce, load: config.Load, apply: apply}, nil
}

// Run watches until ctx is done.
func (cw *ConfigWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "create file watcher").Build()
	}
	defer func() { _ = watcher.Close() }()

	// Watching the directory survives editors that replace the file.
	if err := watcher.Add(filepath.Dir(cw.configPath)); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "watch config directory").
			WithContext("path", cw.configPath).Build()
	}
	slog.Info("Starting configuration watcher", logfields.Path(cw.configPath))

	configFile := filepath.Base(cw.configPath)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			if event.Has(fsnotify.Remove) {
				slog.Warn("Config file removed", logfields.Path(event.Name))
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("Config file change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(cw.debounce)
			} else {
				timer.Reset(cw.debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Config watcher error", logfields.Error(err))
		case <-fire:
			fire = nil
			if err := cw.reload(); err != nil {
				slog.Error("Failed to reload configuration, keeping previous", logfields.Error(err))
			}
		}
	}
}

func (cw *ConfigWatcher) reload() error {
	slog.Info("Reloading configuration", logfields.Path(cw.configPath))
	cfg, err := cw.load(cw.configPath)
	if err != nil {
		return err
	}
	if err := cw.apply(cfg); err != nil {
		return err
	}
	slog.Info("Configuration reloaded")
	return nil
}
