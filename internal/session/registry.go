package session

import (
	"context"
	"sync"
	"time"

	commonerrors "henry-gateway/internal/common/errors"
	"henry-gateway/internal/common/logger"
	"henry-gateway/internal/common/metrics"
)

// Registry tracks live sessions by ID and evicts ones that have gone idle
// past the TTL, mirroring the page-lifetime nature of the widget: a closed
// tab never says goodbye, so idle timeout is the only teardown signal.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
	logger logger.Logger
}

// NewRegistry creates a registry and starts its background sweeper.
func NewRegistry(ttl time.Duration, log logger.Logger) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
		logger:   log.With(map[string]interface{}{"component": "session-registry"}),
	}
	go r.sweep()
	return r
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	metrics.SessionsActive.Set(float64(len(r.sessions)))
}

// Get looks up a live session by ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, commonerrors.New(commonerrors.ErrCodeSessionNotFound, "session not found or expired")
	}
	return s, nil
}

// Remove tears down and deregisters a session. Unknown IDs are a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	if ok {
		s.Teardown()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown stops the sweeper and tears down every session.
func (r *Registry) Shutdown(ctx context.Context) {
	r.once.Do(func() { close(r.stop) })

	r.mu.Lock()
	remaining := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		remaining = append(remaining, s)
		delete(r.sessions, id)
	}
	metrics.SessionsActive.Set(0)
	r.mu.Unlock()

	for _, s := range remaining {
		s.Teardown()
	}
}

func (r *Registry) sweep() {
	ticker := time.NewTicker(r.ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range expired {
		s.Teardown()
		r.logger.Info("evicted idle session", map[string]interface{}{
			"sessionId": s.ID,
		})
	}
}
