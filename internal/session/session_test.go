package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pma-companion/internal/api"
	"pma-companion/internal/store"
)

func newTestManager(t *testing.T, backend http.HandlerFunc) (*Manager, *api.Client, *store.Store) {
	t.Helper()

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	cache, err := store.Open(filepath.Join(t.TempDir(), "companion.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	client := api.NewClient(server.URL)
	return NewManager(client, cache), client, cache
}

func loginBackend(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"userId":"u1","username":"carol","isAlzheimer":true}`))
		default:
			w.WriteHeader(http.StatusOK)
		}
	}
}

func TestLoginActivatesSession(t *testing.T) {
	m, _, _ := newTestManager(t, loginBackend(t))

	sess, err := m.Login(context.Background(), "carol", "secret")
	require.NoError(t, err)

	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "carol", sess.Username)
	assert.True(t, sess.IsAlzheimer)
	assert.NotEmpty(t, sess.DeviceID)
	assert.Same(t, sess, m.Current())
}

func TestLoginAttachesAuthHeader(t *testing.T) {
	var header string
	m, client, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"userId":"u1","username":"carol","isAlzheimer":false}`))
			return
		}
		header = r.Header.Get("X-Username")
		w.WriteHeader(http.StatusOK)
	})

	_, err := m.Login(context.Background(), "carol", "secret")
	require.NoError(t, err)

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "carol", header)
}

func TestRestoreAfterRestart(t *testing.T) {
	m, _, cache := newTestManager(t, loginBackend(t))

	original, err := m.Login(context.Background(), "carol", "secret")
	require.NoError(t, err)

	// A fresh manager over the same cache stands in for a restart.
	restartClient := api.NewClient("http://localhost:1")
	m2 := NewManager(restartClient, cache)

	restored, err := m2.Restore()
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, original.UserID, restored.UserID)
	assert.Equal(t, original.Username, restored.Username)
	assert.Equal(t, original.DeviceID, restored.DeviceID)
	assert.True(t, restored.IsAlzheimer)
}

func TestRestoreWithoutPersistedSession(t *testing.T) {
	m, _, _ := newTestManager(t, loginBackend(t))

	sess, err := m.Restore()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLogoutClearsEverything(t *testing.T) {
	var header string
	m, client, cache := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"userId":"u1","username":"carol","isAlzheimer":false}`))
			return
		}
		header = r.Header.Get("X-Username")
		w.WriteHeader(http.StatusOK)
	})

	_, err := m.Login(context.Background(), "carol", "secret")
	require.NoError(t, err)

	require.NoError(t, m.Logout())
	assert.Nil(t, m.Current())

	rec, err := cache.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, client.Ping(context.Background()))
	assert.Empty(t, header)
}

func TestLogoutWhenLoggedOut(t *testing.T) {
	m, _, _ := newTestManager(t, loginBackend(t))
	assert.NoError(t, m.Logout())
}

func TestLoginFailure(t *testing.T) {
	m, _, _ := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})

	_, err := m.Login(context.Background(), "carol", "wrong")
	require.Error(t, err)
	assert.Nil(t, m.Current())
}
