// Package notify announces finished runs to interested subscribers.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/logfields"
)

// RunFinished is the message published when a run ends.
type RunFinished struct {
	RunID          string    `json:"run_id"`
	Trigger        string    `json:"trigger"`
	Status         string    `json:"status"`
	Branch         string    `json:"branch,omitempty"`
	Commit         string    `json:"commit,omitempty"`
	Components     []string  `json:"components,omitempty"`
	ArtifactSHA256 string    `json:"artifact_sha256,omitempty"`
	Location       string    `json:"location,omitempty"`
	Error          string    `json:"error,omitempty"`
	DurationMS     int64     `json:"duration_ms"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Notifier receives run outcomes.
type Notifier interface {
	RunFinished(ctx context.Context, msg RunFinished) error
	Close() error
}

// New returns a NATSNotifier when cfg.NATSURL is set and a Noop otherwise.
func New(cfg config.NotifyConfig) (Notifier, error) {
	if cfg.NATSURL == "" {
		return Noop{}, nil
	}
	return NewNATSNotifier(cfg)
}

// Noop discards notifications.
type Noop struct{}

func (Noop) RunFinished(context.Context, RunFinished) error { return nil }
func (Noop) Close() error                                   { return nil }

// conn is the subset of *nats.Conn the notifier uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes RunFinished messages as JSON on a NATS subject.
type NATSNotifier struct {
	conn    conn
	subject string
}

// NewNATSNotifier connects to cfg.NATSURL.
func NewNATSNotifier(cfg config.NotifyConfig) (*NATSNotifier, error) {
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("docpublish"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotify, "connect to NATS").
			WithContext("url", cfg.NATSURL).Build()
	}
	subject := cfg.Subject
	if subject == "" {
		subject = config.DefaultSubject
	}
	slog.Info("NATS notifier initialized", logfields.URL(cfg.NATSURL), slog.String("subject", subject))
	return &NATSNotifier{conn: nc, subject: subject}, nil
}

func (n *NATSNotifier) RunFinished(ctx context.Context, msg RunFinished) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "marshal notification").Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "publish notification").
			WithContext("subject", n.subject).Build()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "flush notification").Build()
	}
	slog.Debug("Published run notification", logfields.RunID(msg.RunID), logfields.Status(msg.Status))
	return nil
}

func (n *NATSNotifier) Close() error {
	n.conn.Close()
	return nil
}
