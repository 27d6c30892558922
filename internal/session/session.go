package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bluetecnologia/status_admin/internal/form"
	"github.com/bluetecnologia/status_admin/internal/modal"
)

// Session is the UI state of one browser: its modal slot and the service
// form mounted on it.
type Session struct {
	ID    string
	Modal *modal.Store
	Form  *form.Form

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry keeps the live UI sessions.
type Registry struct {
	deps form.Deps
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps form.Deps) *Registry {
	return &Registry{
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session with id and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

func (r *Registry) Create() *Session {
	store := modal.NewStore()
	s := &Session{
		ID:       uuid.NewString(),
		Modal:    store,
		Form:     form.New(store, r.deps),
		lastSeen: r.now(),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many
// were removed. Their modals are closed so pending submissions stop.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range expired {
		s.Modal.Close()
	}
	return len(expired)
}
