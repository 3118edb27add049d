package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/notify"
	"git.home.luguber.info/inful/docpublish/internal/pipeline"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Trigger string `help:"Trigger recorded for this run" default:"manual" enum:"manual,push"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunPipeline(ctx, g, cfg, pipeline.Trigger(r.Trigger))
}

// newNotifier builds the notifier for one-shot runs.
var newNotifier = notify.New

// RunPipeline executes one run and prints its summary. The notifier configured under
// notify is opened for the run and closed afterwards.
func RunPipeline(ctx context.Context, g *Global, cfg *config.Config, trigger pipeline.Trigger, opts ...pipeline.Option) error {
	n, err := newNotifier(cfg.Notify)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := n.Close(); cerr != nil {
			slog.Warn("Failed to close notifier", logfields.Error(cerr))
		}
	}()

	p, err := pipeline.New(cfg, append([]pipeline.Option{pipeline.WithNotifier(n)}, opts...)...)
	if err != nil {
		return err
	}
	report, err := p.Run(ctx, pipeline.NewRun(trigger))
	if report != nil {
		printReport(g, report)
	}
	return err
}

func printReport(g *Global, r *pipeline.Report) {
	out := g.out()
	_, _ = fmt.Fprintf(out, "Run %s: %s (%s)\n", r.Run.ID, r.Status, r.Duration().Round(time.Millisecond))
	for _, s := range r.Stages {
		line := fmt.Sprintf("  %-9s %-8s %dms", s.Stage, s.Result, s.Duration)
		if s.Err != nil {
			line += "  " + s.Err.Error()
		}
		_, _ = fmt.Fprintln(out, line)
	}
	if r.Commit != "" {
		_, _ = fmt.Fprintf(out, "Commit:     %s\n", r.Commit)
	}
	if len(r.Components) > 0 {
		_, _ = fmt.Fprintf(out, "Components: %d\n", len(r.Components))
	}
	if r.Artifact != nil {
		_, _ = fmt.Fprintf(out, "Artifact:   %s (sha256 %s)\n", r.Artifact.Path, r.Artifact.SHA256)
	}
	if r.Deployment != nil {
		_, _ = fmt.Fprintf(out, "Deployed:   %s %s\n", r.Deployment.Target, r.Deployment.Location)
	}
}
