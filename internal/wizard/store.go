package wizard

import (
	"sync"
	"time"

	"github.com/Kerhoff/TripGuide/internal/metrics"
)

// SessionStore holds the in-flight sessions of this process
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

func (st *SessionStore) add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	metrics.SessionsActive.Set(float64(len(st.sessions)))
}

func (st *SessionStore) get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

func (st *SessionStore) remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
	metrics.SessionsActive.Set(float64(len(st.sessions)))
}

// idleSince returns the sessions whose last activity is before cutoff
func (st *SessionStore) idleSince(cutoff time.Time) []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var idle []*Session
	for _, s := range st.sessions {
		if s.LastActivity().Before(cutoff) {
			idle = append(idle, s)
		}
	}
	return idle
}

// Len returns the number of held sessions
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
