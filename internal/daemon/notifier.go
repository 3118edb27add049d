package daemon

import (
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/notify"
)

// newNotifier opens the notifier for a notify configuration.
var newNotifier = notify.New

// sharedNotifier is a notifier held by the daemon and borrowed by runs. A retired
// notifier is closed once the last run holding it has released it.
type sharedNotifier struct {
	notify.Notifier

	mu      sync.Mutex
	refs    int
	retired bool
	closed  bool
}

func newSharedNotifier(n notify.Notifier) *sharedNotifier {
	return &sharedNotifier{Notifier: n}
}

func (s *sharedNotifier) acquire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs++
}

func (s *sharedNotifier) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs--
	s.closeIfIdle()
}

// retire marks the notifier as replaced.
func (s *sharedNotifier) retire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retired = true
	s.closeIfIdle()
}

func (s *sharedNotifier) closeIfIdle() {
	if !s.retired || s.refs > 0 || s.closed {
		return
	}
	s.closed = true
	if err := s.Notifier.Close(); err != nil {
		slog.Warn("Failed to close notifier", logfields.Error(err))
	}
}
