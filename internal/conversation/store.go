package conversation

import (
	"sync"
	"time"
)

// Store keeps one Session per user. Implementations own their synchronization.
type Store interface {
	Get(userID string) Session
	Set(userID string, s Session)
	// Reset moves the user to StateEnded and clears the selection in one step.
	Reset(userID string)
}

type entry struct {
	session   Session
	updatedAt time.Time
}

// MemoryStore is a process-local Store. Sessions do not survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Get returns a copy of the user's session; unknown users are in StateNone.
func (m *MemoryStore) Get(userID string) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[userID]
	if !ok {
		return Session{State: StateNone}
	}
	return e.session.clone()
}

func (m *MemoryStore) Set(userID string, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = &entry{session: s.clone(), updatedAt: m.now()}
}

func (m *MemoryStore) Reset(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = &entry{session: Session{State: StateEnded}, updatedAt: m.now()}
}

// Expire drops sessions not written within maxIdle; those users fall back to
// StateNone. Returns the number of sessions removed.
func (m *MemoryStore) Expire(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, e := range m.sessions {
		if now.Sub(e.updatedAt) > maxIdle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked users.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
