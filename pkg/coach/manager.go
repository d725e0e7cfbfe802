package coach

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Manager keeps one Session per channel connection, keyed by session id.
// Idle sessions expire from the cache; a reconnect with the same id after
// expiry simply starts fresh.
type Manager struct {
	mu    sync.Mutex
	store *gocache.Cache
	ttl   time.Duration
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		store: gocache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Ensure returns the session for id, creating it on first use. Access
// refreshes the idle TTL.
func (m *Manager) Ensure(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store.Get(id); ok {
		sess := v.(*Session)
		m.store.Set(id, sess, m.ttl)
		return sess
	}
	sess := NewSession(id)
	m.store.Set(id, sess, m.ttl)
	return sess
}

// Get returns the session for id if it exists and has not expired.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Reset reopens the session for id with a blank draft and empty history.
func (m *Manager) Reset(id string) *Session {
	sess := m.Ensure(id)
	sess.Reset()
	return sess
}

// Drop removes the session outright, e.g. when its connection closes.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Delete(id)
}
