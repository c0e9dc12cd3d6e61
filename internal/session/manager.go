package session

import (
	"sync"
	"time"
)

// Manager serializes message processing per user so that messages from the
// same phone never race on the same conversation state.
type Manager struct {
	mu      sync.Mutex
	mutexes map[string]*userLock
	queues  map[string][]func()
	pending sync.WaitGroup
}

type userLock struct {
	mu       sync.Mutex
	lastUsed time.Time
}

func NewManager() *Manager {
	return &Manager{
		mutexes: make(map[string]*userLock),
		queues:  make(map[string][]func()),
	}
}

// WithLock executes fn while holding the per-user mutex.
// Concurrent callers for the same user are serialized; different users run in parallel.
func (m *Manager) WithLock(userID string, fn func() error) error {
	m.mu.Lock()
	ul, ok := m.mutexes[userID]
	if !ok {
		ul = &userLock{}
		m.mutexes[userID] = ul
	}
	m.mu.Unlock()

	ul.mu.Lock()
	defer ul.mu.Unlock()

	ul.lastUsed = time.Now()
	return fn()
}

// Submit queues fn to run after every fn previously submitted for the same
// user, in submission order. It never blocks on the work itself.
// A worker goroutine exists per user only while that user's queue is non-empty.
func (m *Manager) Submit(userID string, fn func()) {
	m.mu.Lock()
	q, running := m.queues[userID]
	m.queues[userID] = append(q, fn)
	m.pending.Add(1)
	m.mu.Unlock()

	if !running {
		go m.drain(userID)
	}
}

func (m *Manager) drain(userID string) {
	for {
		m.mu.Lock()
		q := m.queues[userID]
		if len(q) == 0 {
			delete(m.queues, userID)
			m.mu.Unlock()
			return
		}
		fn := q[0]
		q[0] = nil
		m.queues[userID] = q[1:]
		m.mu.Unlock()

		m.run(fn)
	}
}

func (m *Manager) run(fn func()) {
	defer m.pending.Done()
	fn()
}

// Wait blocks until all submitted work has finished. Stop submitting first.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// Cleanup removes locks not used within maxAge to prevent memory leaks.
func (m *Manager) Cleanup(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for userID, ul := range m.mutexes {
		if ul.mu.TryLock() {
			stale := now.Sub(ul.lastUsed) > maxAge
			ul.mu.Unlock()
			if stale {
				delete(m.mutexes, userID)
			}
		}
	}
}
