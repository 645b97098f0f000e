package onboarding

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lora-lending/lora/internal/logging"
	"github.com/lora-lending/lora/internal/metrics"
)

type session struct {
	wizard   *Wizard
	lastSeen time.Time
}

// Registry keeps one wizard per onboarding session in process memory.
// Sessions idle for longer than ttl are dropped and their countdown cancelled.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*session
	ttl       time.Duration
	newWizard func() *Wizard
	now       func() time.Time
	logger    *slog.Logger
}

// NewRegistry builds a session registry. newWizard is called once per Start.
func NewRegistry(ttl time.Duration, newWizard func() *Wizard, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		sessions:  make(map[string]*session),
		ttl:       ttl,
		newWizard: newWizard,
		now:       time.Now,
		logger:    logger,
	}
}

// Start opens a new session and returns its id and wizard.
func (r *Registry) Start() (string, *Wizard) {
	id := uuid.NewString()
	w := r.newWizard()
	r.mu.Lock()
	r.sessions[id] = &session{wizard: w, lastSeen: r.now()}
	r.mu.Unlock()
	metrics.OnboardingSessions.Inc()
	r.logger.Debug("onboarding session started", slog.String("session_id", id))
	return id, w
}

// Get returns the wizard of a live session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Wizard, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok && r.expired(s) {
		delete(r.sessions, id)
		r.mu.Unlock()
		r.drop(id, s, "expired")
		return nil, ErrSessionNotFound
	}
	if !ok {
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	r.mu.Unlock()
	return s.wizard, nil
}

// Discard ends a session and cancels its countdown.
func (r *Registry) Discard(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	r.drop(id, s, "discarded")
	return nil
}

// Sweep drops every expired session and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	stale := make(map[string]*session)
	for id, s := range r.sessions {
		if r.expired(s) {
			stale[id] = s
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for id, s := range stale {
		r.drop(id, s, "expired")
	}
	return len(stale)
}

// Run sweeps expired sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("onboarding sessions swept", slog.Int("count", n))
			}
		}
	}
}

// Close discards every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()
	for id, s := range all {
		r.drop(id, s, "closed")
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expired(s *session) bool {
	return r.ttl > 0 && r.now().Sub(s.lastSeen) > r.ttl
}

func (r *Registry) drop(id string, s *session, reason string) {
	s.wizard.Close()
	metrics.OnboardingSessions.Dec()
	r.logger.Debug("onboarding session dropped", slog.String("session_id", id), slog.String("reason", reason))
}
