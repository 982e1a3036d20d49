package session

import (
	"sync"

	"github.com/google/uuid"
)

// Session pairs a state with its lock. Triggers for one session run
// strictly sequentially; the HTTP layer holds the lock for the full
// trigger, including its side effects.
type Session struct {
	mu    sync.Mutex
	State State
}

// Do runs fn with exclusive access to the session state.
func (s *Session) Do(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.State)
}

// Registry holds live sessions by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create starts a new session in the start stage.
func (r *Registry) Create() *Session {
	s := &Session{State: State{SessionID: uuid.NewString()}}
	r.mu.Lock()
	r.sessions[s.State.SessionID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}
