// Package runner coordinates pipeline runs: a new run cancels the one in flight and
// waits for it to finish before starting.
package runner

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/pipeline"
)

// RunFunc executes one run.
type RunFunc func(ctx context.Context, run pipeline.Run) (*pipeline.Report, error)

type active struct {
	run    pipeline.Run
	cancel context.CancelFunc
	done   chan struct{}
}

// Coordinator runs at most one RunFunc at a time.
type Coordinator struct {
	fn RunFunc

	submitMu sync.Mutex // serializes Submit so cancel-and-wait is atomic

	mu      sync.Mutex
	current *active
	last    *pipeline.Report
	closed  bool

	base       context.Context
	cancelBase context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a Coordinator that executes runs with fn.
func New(fn RunFunc) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{fn: fn, base: ctx, cancelBase: cancel}
}

// Submit cancels any in-flight run, waits for it to finish and starts a new run in the
// background. It returns the new run's ID.
func (c *Coordinator) Submit(trigger pipeline.Trigger) (string, error) {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	c.mu.Lock()
	prev := c.current
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return "", errors.NewError(errors.CategoryRuntime, "coordinator is closed").Build()
	}
	if prev != nil {
		slog.Info("Canceling in-flight run", logfields.RunID(prev.run.ID))
		prev.cancel()
		<-prev.done
	}

	run := pipeline.NewRun(trigger)
	ctx, cancel := context.WithCancel(c.base)
	a := &active{run: run, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return "", errors.NewError(errors.CategoryRuntime, "coordinator is closed").Build()
	}
	c.current = a
	c.wg.Add(1)
	c.mu.Unlock()

	go c.execute(ctx, a)
	return run.ID, nil
}

func (c *Coordinator) execute(ctx context.Context, a *active) {
	defer c.wg.Done()
	defer close(a.done)
	defer a.cancel()

	report, err := c.fn(ctx, a.run)
	if err != nil {
		slog.Debug("Run ended with error", logfields.RunID(a.run.ID), logfields.Error(err))
	}

	c.mu.Lock()
	if c.current == a {
		c.current = nil
	}
	if report != nil {
		c.last = report
	}
	c.mu.Unlock()
}

// Current returns the in-flight run, if any.
func (c *Coordinator) Current() (pipeline.Run, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return pipeline.Run{}, false
	}
	return c.current.run, true
}

// Last returns the report of the most recently finished run.
func (c *Coordinator) Last() *pipeline.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Wait blocks until no run is in flight or ctx is done, and returns the last report.
func (c *Coordinator) Wait(ctx context.Context) (*pipeline.Report, error) {
	for {
		c.mu.Lock()
		cur := c.current
		c.mu.Unlock()
		if cur == nil {
			return c.Last(), nil
		}
		select {
		case <-cur.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close cancels the in-flight run and waits for it to drain. Later Submits fail.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancelBase()
	c.wg.Wait()
}
