package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/environment"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/generate"
	"git.home.luguber.info/inful/docpublish/internal/history"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/metrics"
	"git.home.luguber.info/inful/docpublish/internal/notify"
	"git.home.luguber.info/inful/docpublish/internal/publish"
	"git.home.luguber.info/inful/docpublish/internal/site"
	"git.home.luguber.info/inful/docpublish/internal/source"
)

// Pipeline executes runs against one configuration.
type Pipeline struct {
	cfg       *config.Config
	env       *environment.Environment
	acquirer  source.Acquirer
	generator generate.Generator
	assembler *site.Assembler
	publisher *publish.Publisher
	recorder  metrics.Recorder
	history   history.Store
	notifier  notify.Notifier
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(p *Pipeline) { p.recorder = r } }

// WithHistory records run events in s.
func WithHistory(s history.Store) Option { return func(p *Pipeline) { p.history = s } }

// WithNotifier announces finished runs through n.
func WithNotifier(n notify.Notifier) Option { return func(p *Pipeline) { p.notifier = n } }

// WithPublisher shares a publisher, and with it the deployment slot, between pipelines.
func WithPublisher(pub *publish.Publisher) Option { return func(p *Pipeline) { p.publisher = pub } }

// WithGenerator replaces the configured generator command.
func WithGenerator(g generate.Generator) Option { return func(p *Pipeline) { p.generator = g } }

// WithAcquirer replaces the configured source acquirer.
func WithAcquirer(a source.Acquirer) Option { return func(p *Pipeline) { p.acquirer = a } }

// New builds a pipeline for cfg. cfg must already be validated.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	env, err := environment.New(cfg.Environment)
	if err != nil {
		return nil, err
	}
	p.env = env
	if p.recorder == nil {
		p.recorder = metrics.NoopRecorder{}
	}
	if p.notifier == nil {
		p.notifier = notify.Noop{}
	}
	if p.acquirer == nil {
		p.acquirer = source.New(cfg.Source)
	}
	if p.generator == nil {
		g, err := generate.NewCommandGenerator(cfg.Generate, env)
		if err != nil {
			return nil, err
		}
		p.generator = g
	}
	if p.publisher == nil {
		d, err := publish.NewDeployer(cfg.Publish.Deploy)
		if err != nil {
			return nil, err
		}
		p.publisher = publish.NewPublisher(d, p.recorder)
	}
	p.assembler = site.NewAssembler(cfg.Site)
	return p, nil
}

func (p *Pipeline) stages() []stageDef {
	return []stageDef{
		{StageAcquire, p.acquire},
		{StageGenerate, p.generate},
		{StageAssemble, p.assemble},
		{StageVerify, p.verify},
		{StagePublish, p.publish},
	}
}

// Run executes all stages for run. The returned Report is never nil; the error is the
// one that ended the run.
func (p *Pipeline) Run(ctx context.Context, run Run) (*Report, error) {
	report := &Report{Run: run, Started: time.Now(), Environment: p.env.String()}
	st := &runState{report: report, ws: p.newWorkspace(run)}
	log := slog.With(logfields.RunID(run.ID), logfields.Trigger(string(run.Trigger)))
	log.Info("Run started")
	p.record(ctx, run.ID, history.EventRunStarted, history.RunStarted{
		Trigger: string(run.Trigger),
		Branch:  p.cfg.Source.Branch,
	})

	defer func() {
		if err := st.ws.Cleanup(); err != nil {
			log.Warn("Failed to clean up workspace", logfields.Error(err))
		}
	}()

	err := p.runStages(ctx, st, log)
	report.Finished = time.Now()
	report.Err = err
	switch {
	case err == nil:
		report.Status = StatusSuccess
	case ctx.Err() != nil || errors.HasCategory(err, errors.CategoryCanceled):
		report.Status = StatusCanceled
	default:
		report.Status = StatusFailed
	}
	p.finish(ctx, report, log)
	return report, err
}

func (p *Pipeline) runStages(ctx context.Context, st *runState, log *slog.Logger) error {
	for _, def := range p.stages() {
		if err := ctx.Err(); err != nil {
			se := errors.CanceledError("run canceled").WithCause(err).
				WithContext("stage", string(def.Name)).Build()
			p.recordStage(ctx, st.report, def.Name, 0, se)
			return se
		}

		log.Debug("Stage started", logfields.Stage(string(def.Name)))
		start := time.Now()
		err := def.Fn(ctx, st)
		dur := time.Since(start)
		p.recordStage(ctx, st.report, def.Name, dur, err)

		if err != nil {
			log.Error("Stage failed", logfields.Stage(string(def.Name)), logfields.Error(err))
			return err
		}
		log.Info("Stage completed", logfields.Stage(string(def.Name)),
			logfields.DurationMS(float64(dur.Milliseconds())))
	}
	return nil
}

func (p *Pipeline) recordStage(ctx context.Context, report *Report, stage StageName, dur time.Duration, err error) {
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case ctx.Err() != nil || errors.HasCategory(err, errors.CategoryCanceled):
		result = metrics.ResultCanceled
	default:
		result = metrics.ResultFailed
	}
	report.Stages = append(report.Stages, StageResult{Stage: stage, Result: result, Duration: dur.Milliseconds(), Err: err})
	p.recorder.ObserveStageDuration(string(stage), dur)
	p.recorder.IncStageResult(string(stage), result)

	payload := history.StageCompleted{Stage: string(stage), DurationMS: dur.Milliseconds()}
	if err != nil {
		payload.Error = err.Error()
	}
	p.record(ctx, report.Run.ID, history.EventStageCompleted, payload)
}

func (p *Pipeline) finish(ctx context.Context, r *Report, log *slog.Logger) {
	p.recorder.ObserveRunDuration(r.Duration())
	p.recorder.IncRunOutcome(metrics.RunOutcomeLabel(r.Status))

	finished := history.RunFinished{
		Status:         string(r.Status),
		Commit:         r.Commit,
		EnvFingerprint: r.EnvFingerprint,
		Components:     r.Components,
		DurationMS:     r.Duration().Milliseconds(),
		Error:          r.ErrorString(),
	}
	msg := notify.RunFinished{
		RunID:      r.Run.ID,
		Trigger:    string(r.Run.Trigger),
		Status:     string(r.Status),
		Branch:     r.Branch,
		Commit:     r.Commit,
		Components: r.Components,
		Error:      r.ErrorString(),
		DurationMS: r.Duration().Milliseconds(),
		FinishedAt: r.Finished,
	}
	if r.Artifact != nil {
		finished.ArtifactSHA256 = r.Artifact.SHA256
		msg.ArtifactSHA256 = r.Artifact.SHA256
	}
	if r.Deployment != nil {
		msg.Location = r.Deployment.Location
	}
	p.record(ctx, r.Run.ID, history.EventRunFinished, finished)

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.notifier.RunFinished(nctx, msg); err != nil {
		log.Warn("Failed to send run notification", logfields.Error(err))
	}

	attrs := []any{logfields.Status(string(r.Status)),
		logfields.DurationMS(float64(r.Duration().Milliseconds())),
		slog.Int("components", len(r.Components))}
	if r.Status == StatusSuccess {
		log.Info("Run finished", attrs...)
	} else {
		log.Warn("Run finished", append(attrs,
			slog.String("category", string(errors.GetCategory(r.Err))), logfields.Error(r.Err))...)
	}
}

// record appends a history event. History is an audit trail and never fails a run.
func (p *Pipeline) record(ctx context.Context, runID string, t history.EventType, payload any) {
	if p.history == nil {
		return
	}
	if err := p.history.Append(context.WithoutCancel(ctx), runID, t, payload, nil); err != nil {
		slog.Warn("Failed to record history event", logfields.RunID(runID),
			slog.String("event", string(t)), logfields.Error(err))
	}
}
