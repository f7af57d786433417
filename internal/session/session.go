package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"pma-companion/internal/api"
	"pma-companion/internal/store"
)

// Session is the explicit identity object threaded through the
// coordinators. There are no ambient identity reads anywhere else.
type Session struct {
	UserID      string
	Username    string
	IsAlzheimer bool
	DeviceID    string
}

// Manager owns the login/logout lifecycle. The active session is set on
// login (or restore) and cleared on logout; the API client's auth header
// follows it.
type Manager struct {
	client *api.Client
	cache  *store.Store

	mu      sync.RWMutex
	current *Session
}

func NewManager(client *api.Client, cache *store.Store) *Manager {
	return &Manager{client: client, cache: cache}
}

// Current returns the active session, or nil when logged out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Login authenticates against the backend, persists the identity and
// activates it.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := m.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		UserID:      user.UserID,
		Username:    user.Username,
		IsAlzheimer: user.IsAlzheimer,
		DeviceID:    uuid.NewString(),
	}

	if err := m.cache.SaveSession(store.SessionRecord{
		UserID:      sess.UserID,
		Username:    sess.Username,
		IsAlzheimer: sess.IsAlzheimer,
		DeviceID:    sess.DeviceID,
	}); err != nil {
		log.Printf("⚠️  Failed to persist session: %v", err)
	}

	m.activate(sess)
	log.Printf("✅ Logged in as %s", sess.Username)
	return sess, nil
}

// Restore activates the identity persisted by a previous login, if any.
func (m *Manager) Restore() (*Session, error) {
	rec, err := m.cache.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	sess := &Session{
		UserID:      rec.UserID,
		Username:    rec.Username,
		IsAlzheimer: rec.IsAlzheimer,
		DeviceID:    rec.DeviceID,
	}
	m.activate(sess)
	log.Printf("✅ Session restored for %s", sess.Username)
	return sess, nil
}

// Logout clears the persisted identity and detaches the auth header.
// Safe to call when nobody is logged in.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	m.client.ClearUsername()

	if err := m.cache.ClearSession(); err != nil {
		return err
	}

	log.Println("🔌 Logged out")
	return nil
}

func (m *Manager) activate(sess *Session) {
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.client.SetUsername(sess.Username)
}
