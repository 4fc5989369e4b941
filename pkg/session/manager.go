package session

import (
	"context"
	"sync"
	"time"

	"birthdaybot/pkg/credential"
)

// AdminIdentity keys the single privileged session in the manager.
const AdminIdentity = "admin"

// Manager owns every session in the process, at most one usable
// session per identity. Lookups for different identities never block
// each other; lookups for the same identity are serialized, so two
// concurrent callers can not race a duplicate login.
type Manager struct {
	baseURL string
	timeout time.Duration
	enc     *credential.Encryptor

	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
}

func NewManager(baseURL string, enc *credential.Encryptor, timeout time.Duration) *Manager {
	return &Manager{
		baseURL:  baseURL,
		timeout:  timeout,
		enc:      enc,
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Session returns the live session for identity, creating or
// replacing one that is missing or expired. Construction logs in, so
// the per-identity lock is held across one network round trip at most.
func (m *Manager) Session(ctx context.Context, identity string) (*Session, error) {
	return m.get(ctx, identity, false)
}

// Admin returns the privileged session used for cross-user listing.
func (m *Manager) Admin(ctx context.Context) (*Session, error) {
	return m.get(ctx, AdminIdentity, true)
}

func (m *Manager) get(ctx context.Context, identity string, admin bool) (*Session, error) {
	lock := m.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	sess := m.sessions[identity]
	m.mu.Unlock()

	if sess != nil && !sess.IsExpired() {
		return sess, nil
	}

	sess, err := New(ctx, identity, admin, m.baseURL, m.enc, m.timeout)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[identity] = sess
	m.mu.Unlock()
	return sess, nil
}

func (m *Manager) identityLock(identity string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[identity]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[identity] = lock
	}
	return lock
}
