package server

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionManager hands the single client session to the first caller that
// presents the API secret. It is released when that client disconnects.
type SessionManager struct {
	apiSecret string
	id        string
	holder    string // remote address of the session owner
	since     time.Time
	mu        sync.Mutex
}

func NewSessionManager(apiSecret string) *SessionManager {
	return &SessionManager{apiSecret: apiSecret}
}

// Authorized reports whether secret matches the configured API secret.
// Without a configured secret every caller is authorized.
func (m *SessionManager) Authorized(secret string) bool {
	if m.apiSecret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(m.apiSecret)) == 1
}

// Acquire claims the session for remoteAddr and returns its ID. It returns
// false when the session is already held.
func (m *SessionManager) Acquire(remoteAddr string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.holder != "" {
		return "", false
	}
	m.id = uuid.NewString()
	m.holder = remoteAddr
	m.since = time.Now()
	logger.Printf("Session %s acquired by %s", m.id, remoteAddr)
	return m.id, true
}

// Release frees the session.
func (m *SessionManager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.holder != "" {
		logger.Printf("Session %s released after %s", m.id, time.Since(m.since).Round(time.Second))
		m.id, m.holder = "", ""
	}
}

// Active reports whether a client holds the session.
func (m *SessionManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder != ""
}
