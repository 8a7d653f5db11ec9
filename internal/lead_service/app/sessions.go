package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
)

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// SessionRegistry keeps the open form sessions of the HTTP API. Each session
// owns its own controller; nothing is shared between sessions.
type SessionRegistry struct {
	pipeline *Pipeline
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionRegistry returns a registry whose sessions expire after ttl
// without activity. A ttl of zero disables expiry.
func NewSessionRegistry(p *Pipeline, ttl time.Duration, logger *slog.Logger) *SessionRegistry {
	return &SessionRegistry{
		pipeline: p,
		ttl:      ttl,
		logger:   logger.With("component", "session_registry"),
		now:      time.Now,
		sessions: map[string]*session{},
	}
}

// Open starts a session. Modal forms remove themselves from the registry
// once their success feedback has run out.
func (r *SessionRegistry) Open(kind domain.FormKind, serviceTitle string) (*Controller, error) {
	var id string
	ctrl, err := r.pipeline.Open(kind, serviceTitle, func() { r.Close(id) })
	if err != nil {
		return nil, err
	}
	id = ctrl.ID()

	r.mu.Lock()
	r.sessions[id] = &session{ctrl: ctrl, lastSeen: r.now()}
	openSessionsGauge.Set(float64(len(r.sessions)))
	r.mu.Unlock()
	return ctrl, nil
}

// Get returns the controller of an open session and marks it as active.
func (r *SessionRegistry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s.ctrl, nil
}

// Close ends a session. Closing an unknown session is an error so the HTTP
// layer can answer 404.
func (r *SessionRegistry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		openSessionsGauge.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.ctrl.Close()
	return nil
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes every session idle for longer than the ttl. Sessions with a
// send in flight are kept.
func (r *SessionRegistry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)
	var expired []*Controller

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.lastSeen.After(cutoff) || s.ctrl.Status() == domain.StatusSending {
			continue
		}
		delete(r.sessions, id)
		expired = append(expired, s.ctrl)
	}
	openSessionsGauge.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("Expired idle form sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps on every interval tick until ctx is done, then closes all
// remaining sessions.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *SessionRegistry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = map[string]*session{}
	openSessionsGauge.Set(0)
	r.mu.Unlock()
	for _, s := range all {
		s.ctrl.Close()
	}
}
