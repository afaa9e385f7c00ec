package webui

import (
	"context"
	"sync"
	"time"

	"github.com/otherjamesbrown/azurely-cli/pkg/logging"
	"github.com/otherjamesbrown/azurely-cli/pkg/observability"
	"github.com/otherjamesbrown/azurely-cli/pkg/session"
)

// CleanupInterval is how often idle sessions are swept.
const CleanupInterval = time.Minute

// ControllerFactory builds the controller for a new browser session.
type ControllerFactory func(id string) *session.Controller

type entry struct {
	ctrl     *session.Controller
	lastSeen time.Time
}

// Sessions holds one controller per browser session.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	factory ControllerFactory
	ttl     time.Duration
	metrics *observability.Metrics
	logger  logging.Logger
	now     func() time.Time
}

// NewSessions creates an empty session table. Sessions untouched for ttl are
// dropped by Cleanup.
func NewSessions(factory ControllerFactory, ttl time.Duration, metrics *observability.Metrics, logger logging.Logger) *Sessions {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Sessions{
		sessions: make(map[string]*entry),
		factory:  factory,
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the controller for id and marks the session as used.
func (s *Sessions) Get(id string) (*session.Controller, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	e.lastSeen = s.now()
	s.mu.Unlock()
	return e.ctrl, true
}

// Create starts a new session and returns its id.
func (s *Sessions) Create() (string, *session.Controller) {
	id := newID()
	ctrl := s.factory(id)

	s.mu.Lock()
	s.sessions[id] = &entry{ctrl: ctrl, lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetSessionsActive(n)
	s.logger.Debug("session created", logging.F("session_id", id))
	return id, ctrl
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup drops sessions idle for longer than the ttl and returns how many
// were removed. Sessions with a request in flight are kept.
func (s *Sessions) Cleanup() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	removed := 0
	for id, e := range s.sessions {
		if e.lastSeen.After(cutoff) {
			continue
		}
		if e.ctrl.State().IsLoading() {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.metrics.SetSessionsActive(n)
		s.logger.Info("expired idle sessions",
			logging.F("removed", removed),
			logging.F("remaining", n),
		)
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}
