package dispatcher

import (
	"sync"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/semaphore"
)

// Session binds a transcript to a single conversation. The semaphore
// serializes turns: turn N fully completes, including appending both
// transcript entries, before turn N+1 begins.
type Session struct {
	ID         string
	Transcript *Transcript

	turnSem *semaphore.Weighted
}

func newSession(id string) *Session {
	return &Session{
		ID:         id,
		Transcript: &Transcript{},
		turnSem:    semaphore.NewWeighted(1),
	}
}

// Manager owns the in-memory session registry. Sessions live for the
// process lifetime; nothing is persisted.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a new session with a generated id.
func (m *Manager) Create() *Session {
	sess := newSession(shortuuid.New())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return sess
}

// Get returns the session with the given id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}
