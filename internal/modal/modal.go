package modal

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/bluetecnologia/status_admin/internal/models"
)

// Type names a modal that can occupy the single modal slot.
type Type string

const CreateService Type = "createService"

// Payload is the data handed to the modal that is being opened.
type Payload struct {
	Server *models.ServiceRecord `json:"server,omitempty"`
}

// State is an immutable snapshot of the modal slot. Transitions return a
// new value; Token changes on every open and is empty while closed.
type State struct {
	IsOpen bool    `json:"isOpen"`
	Type   Type    `json:"type"`
	Data   Payload `json:"data"`
	Token  string  `json:"-"`
}

// Opened returns the state with modal t open and p as its payload.
func (s State) Opened(t Type, p Payload, token string) State {
	if p.Server != nil {
		rec := *p.Server
		p.Server = &rec
	}
	return State{IsOpen: true, Type: t, Data: p, Token: token}
}

// Closed returns the empty state.
func (s State) Closed() State {
	return State{}
}

// Shows reports whether modal t is the one currently open.
func (s State) Shows(t Type) bool {
	return s.IsOpen && s.Type == t
}

// Store owns the modal slot of one UI session.
type Store struct {
	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	newToken func() string
}

func NewStore() *Store {
	return &Store{newToken: uuid.NewString}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open replaces whatever modal was open. A submission still running for the
// previous modal is cancelled.
func (s *Store) Open(t Type, p Payload) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.state = s.state.Opened(t, p, s.newToken())
	return s.state
}

func (s *Store) Close() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.state = s.state.Closed()
	return s.state
}

// CloseIf closes the modal only while token is still the open one.
func (s *Store) CloseIf(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsOpen || s.state.Token != token {
		return false
	}
	s.cancel = nil
	s.state = s.state.Closed()
	return true
}

// Track registers cancel as the in-flight submission for token. It fails
// when token is no longer current. release must be called once the
// submission returns.
func (s *Store) Track(token string, cancel context.CancelFunc) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsOpen || s.state.Token != token {
		return func() {}, false
	}
	s.cancel = cancel
	return func() {
		s.mu.Lock()
		if s.state.Token == token {
			s.cancel = nil
		}
		s.mu.Unlock()
	}, true
}

func (s *Store) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
