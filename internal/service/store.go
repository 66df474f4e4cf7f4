package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"fixaphone-web/internal/metrics"
)

// SessionFactory builds a new session for the given id.
type SessionFactory func(id string) *Session

// SessionStore keeps chat sessions in memory. Nothing is persisted; a session
// lives until it is idle for longer than the configured timeout.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	factory     SessionFactory
	idleTimeout time.Duration
	metrics     *metrics.Metrics
}

// NewSessionStore creates an empty store. A zero idleTimeout disables eviction
// and a nil m records to an unexported registry.
func NewSessionStore(factory SessionFactory, idleTimeout time.Duration, m *metrics.Metrics) *SessionStore {
	if m == nil {
		m = metrics.NewNop()
	}
	return &SessionStore{
		sessions:    make(map[string]*Session),
		factory:     factory,
		idleTimeout: idleTimeout,
		metrics:     m,
	}
}

// Open returns the session for id, or a new session with a fresh id when id
// is empty or unknown. The bool reports whether a session was created.
func (st *SessionStore) Open(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		return s, false
	}

	s := st.factory(uuid.NewString())
	st.sessions[s.ID()] = s
	st.metrics.ActiveSessions.Set(float64(len(st.sessions)))
	return s, true
}

// Get returns an existing session or ErrNotFound.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Sweep evicts sessions idle for longer than the timeout and returns how many
// were removed. Sessions with a request in flight are kept.
func (st *SessionStore) Sweep(now time.Time) int {
	if st.idleTimeout <= 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		last, idle := s.idleSince()
		if idle && now.Sub(last) > st.idleTimeout {
			delete(st.sessions, id)
			s.close()
			removed++
		}
	}
	st.metrics.ActiveSessions.Set(float64(len(st.sessions)))
	return removed
}

// Len returns the number of sessions held.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
