package publish

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/metrics"
)

// Publisher serializes deployments through a single Deployer.
type Publisher struct {
	mu       sync.RWMutex
	deployer Deployer
	recorder metrics.Recorder
	slot     chan struct{}
}

// NewPublisher wraps d. A nil recorder disables metrics.
func NewPublisher(d Deployer, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Publisher{deployer: d, recorder: recorder, slot: make(chan struct{}, 1)}
}

// Deployer returns the wrapped deployer.
func (p *Publisher) Deployer() Deployer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.deployer
}

// Swap replaces the deployer used by later deployments. An in-flight deployment
// finishes with the deployer it started with.
func (p *Publisher) Swap(d Deployer) {
	p.mu.Lock()
	p.deployer = d
	p.mu.Unlock()
}

// Publish waits for any in-flight deployment to finish, then deploys req. It gives up
// when ctx is canceled while waiting.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Deployment, error) {
	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.CanceledError("gave up waiting for deployment slot").WithCause(ctx.Err()).Build()
	}
	defer func() { <-p.slot }()

	d := p.Deployer()
	start := time.Now()
	dep, err := d.Deploy(ctx, req)
	p.recorder.ObserveDeployment(d.Name(), time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	slog.Info("Deployment finished",
		logfields.RunID(req.RunID),
		slog.String("target", dep.Target),
		slog.String("location", dep.Location),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return dep, nil
}
