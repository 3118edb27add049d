package daemon

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/history"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/metrics"
	"git.home.luguber.info/inful/docpublish/internal/pipeline"
	"git.home.luguber.info/inful/docpublish/internal/publish"
	"git.home.luguber.info/inful/docpublish/internal/runner"
)

const (
	retentionInterval = time.Hour
	shutdownTimeout   = 10 * time.Second
)

// Daemon owns the long-lived collaborators shared by all runs.
type Daemon struct {
	configPath string

	mu       sync.RWMutex
	cfg      *config.Config
	notifier *sharedNotifier

	registry    *prom.Registry
	recorder    *metrics.PrometheusRecorder
	history     history.Store
	publisher   *publish.Publisher
	coordinator *runner.Coordinator
	started     time.Time

	pipelineOpts []pipeline.Option
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithPipelineOptions appends options to every pipeline the daemon builds.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(d *Daemon) { d.pipelineOpts = append(d.pipelineOpts, opts...) }
}

// New creates a daemon for cfg. configPath is watched for changes when non-empty.
func New(configPath string, cfg *config.Config, opts ...Option) (*Daemon, error) {
	d := &Daemon{configPath: configPath, cfg: cfg, started: time.Now()}
	for _, opt := range opts {
		opt(d)
	}

	d.registry = prom.NewRegistry()
	d.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.recorder = metrics.NewPrometheusRecorder(d.registry)

	store, err := history.NewSQLiteStore(cfg.Daemon.HistoryDB)
	if err != nil {
		return nil, err
	}
	d.history = store

	notifier, err := newNotifier(cfg.Notify)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	d.notifier = newSharedNotifier(notifier)

	deployer, err := publish.NewDeployer(cfg.Publish.Deploy)
	if err != nil {
		_ = store.Close()
		_ = notifier.Close()
		return nil, err
	}
	d.publisher = publish.NewPublisher(deployer, d.recorder)
	d.coordinator = runner.New(d.execute)
	return d, nil
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Coordinator exposes the run coordinator.
func (d *Daemon) Coordinator() *runner.Coordinator { return d.coordinator }

// ReloadConfig makes cfg the configuration for subsequent runs. The in-flight run
// keeps the configuration and the notifier it started with; a replaced notifier is
// closed when that run finishes.
func (d *Daemon) ReloadConfig(cfg *config.Config) error {
	deployer, err := publish.NewDeployer(cfg.Publish.Deploy)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	old := d.cfg
	if cfg.Notify != old.Notify {
		n, err := newNotifier(cfg.Notify)
		if err != nil {
			return err
		}
		d.notifier.retire()
		d.notifier = newSharedNotifier(n)
	}
	if cfg.Daemon.Listen != old.Daemon.Listen || cfg.Daemon.HistoryDB != old.Daemon.HistoryDB {
		slog.Warn("daemon.listen and daemon.history_db changes take effect after restart")
	}
	d.publisher.Swap(deployer)
	d.cfg = cfg
	return nil
}

func (d *Daemon) execute(ctx context.Context, run pipeline.Run) (*pipeline.Report, error) {
	d.mu.RLock()
	cfg, notifier := d.cfg, d.notifier
	notifier.acquire()
	d.mu.RUnlock()
	defer notifier.release()

	opts := append([]pipeline.Option{
		pipeline.WithRecorder(d.recorder),
		pipeline.WithHistory(d.history),
		pipeline.WithNotifier(notifier.Notifier),
		pipeline.WithPublisher(d.publisher),
	}, d.pipelineOpts...)
	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		slog.Error("Cannot build pipeline", logfields.RunID(run.ID), logfields.Error(err))
		now := time.Now()
		return &pipeline.Report{Run: run, Status: pipeline.StatusFailed, Started: now, Finished: now, Err: err}, err
	}
	return p.Run(ctx, run)
}

// Handler returns the HTTP surface.
func (d *Daemon) Handler() http.Handler {
	h := &handlers{
		runs:    d.coordinator,
		history: d.history,
		settings: func() webhookSettings {
			cfg := d.Config()
			return webhookSettings{Branch: cfg.Source.Branch, Secret: cfg.Daemon.WebhookSecret}
		},
		metrics: metrics.HTTPHandler(d.registry),
		errs:    errors.NewHTTPErrorAdapter(slog.Default()),
		started: d.started,
	}
	return h.routes()
}

// Run serves until ctx is done or a component fails, then cancels the in-flight run
// and releases resources.
func (d *Daemon) Run(ctx context.Context) error {
	cfg := d.Config()
	ln, err := net.Listen("tcp", cfg.Daemon.Listen)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "listen").
			WithContext("address", cfg.Daemon.Listen).Build()
	}
	return d.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	defer d.close()

	var watcher *ConfigWatcher
	if d.configPath != "" {
		w, err := NewConfigWatcher(d.configPath, d.Config().Daemon.ReloadDebounce, d.ReloadConfig)
		if err != nil {
			_ = ln.Close()
			return err
		}
		watcher = w
	}
	job, err := NewRetentionJob(d.history, retentionInterval, func() time.Duration {
		return d.Config().Daemon.HistoryRetention
	})
	if err != nil {
		_ = ln.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	srv := &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 10 * time.Second}

	g.Go(func() error {
		slog.Info("Daemon listening", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapError(err, errors.CategoryRuntime, "http server").Build()
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	g.Go(func() error { return job.Run(gctx) })

	err = g.Wait()
	slog.Info("Daemon stopped")
	return err
}

func (d *Daemon) close() {
	d.coordinator.Close()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifier.retire()
	if err := d.history.Close(); err != nil {
		slog.Warn("Failed to close history", logfields.Error(err))
	}
}
