package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/history"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// RetentionJob periodically prunes run history older than the configured retention.
type RetentionJob struct {
	scheduler gocron.Scheduler
	store     history.Store
	retention func() time.Duration
}

// NewRetentionJob schedules pruning every interval, starting immediately.
func NewRetentionJob(store history.Store, interval time.Duration, retention func() time.Duration) (*RetentionJob, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "create scheduler").Build()
	}
	j := &RetentionJob{scheduler: s, store: store, retention: retention}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(j.prune),
		gocron.WithName("history-retention"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryRuntime, "schedule history retention").Build()
	}
	return j, nil
}

// Run starts the scheduler and blocks until ctx is done.
func (j *RetentionJob) Run(ctx context.Context) error {
	slog.Info("Starting history retention scheduler")
	j.scheduler.Start()
	<-ctx.Done()
	slog.Info("Stopping history retention scheduler")
	return j.scheduler.Shutdown()
}

// Prune deletes history older than the retention window. A non-positive window
// keeps everything.
func (j *RetentionJob) Prune(ctx context.Context) (int64, error) {
	window := j.retention()
	if window <= 0 {
		return 0, nil
	}
	return j.store.Prune(ctx, time.Now().Add(-window))
}

func (j *RetentionJob) prune() {
	n, err := j.Prune(context.Background())
	if err != nil {
		slog.Error("History pruning failed", logfields.Error(err))
		return
	}
	if n > 0 {
		slog.Info("Pruned run history", slog.Int64("events", n))
	}
}
