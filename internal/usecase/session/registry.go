// Package session keeps independent pipeline controllers keyed by session ID.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/usecase/pipeline"
)

// Factory creates the controller for a new session.
type Factory func() (*pipeline.Controller, error)

// Session is one user's pipeline.
type Session struct {
	ID         string
	Controller *pipeline.Controller
	CreatedAt  time.Time

	lastUsed time.Time
}

// Registry owns sessions and evicts the ones left idle longer than the TTL.
type Registry struct {
	factory Factory
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. ttl <= 0 disables eviction.
func NewRegistry(factory Factory, ttl time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// WithClock overrides the time source, for tests.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Create starts a new session with an Idle controller.
func (r *Registry) Create() (*Session, error) {
	ctrl, err := r.factory()
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}

	now := r.now()
	s := &Session{
		ID:         uuid.NewString(),
		Controller: ctrl,
		CreatedAt:  now,
		lastUsed:   now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	r.logger.Debug("Session created", zap.String("session_id", s.ID))
	return s, nil
}

// Get returns a session and marks it used.
func (r *Registry) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	s.lastUsed = r.now()
	return s, nil
}

// Delete removes a session and drops its index.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	metrics.ActiveSessions.Set(float64(n))
	s.Controller.Reset()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle past the TTL and returns how many were removed.
// Sessions busy processing or answering are kept.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	var evicted []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if !s.lastUsed.Before(cutoff) || busy(s.Controller.Status().State) {
			continue
		}
		delete(r.sessions, id)
		evicted = append(evicted, s)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range evicted {
		s.Controller.Reset()
		r.logger.Info("Session evicted",
			zap.String("session_id", s.ID),
			zap.Duration("idle", r.now().Sub(s.lastUsed)),
		)
	}
	if len(evicted) > 0 {
		metrics.ActiveSessions.Set(float64(n))
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

func busy(s pipeline.State) bool {
	return s == pipeline.Segmenting || s == pipeline.Embedding || s == pipeline.Querying
}
