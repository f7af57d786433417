package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestsCarryUsernameHeader(t *testing.T) {
	var header string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Username")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	c.SetUsername("carol")

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "carol", header)
}

func TestRequestsWithoutSessionCarryNoHeader(t *testing.T) {
	var present bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["X-Username"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	require.NoError(t, c.Ping(context.Background()))
	assert.False(t, present)
}

func TestClearUsernameDetachesHeader(t *testing.T) {
	var header string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Username")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	c.SetUsername("carol")
	c.ClearUsername()

	require.NoError(t, c.Ping(context.Background()))
	assert.Empty(t, header)
}

func TestNon2xxBecomesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestLoginSendsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"userId":"u1","username":"carol","isAlzheimer":false}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	user, err := c.Login(context.Background(), "carol", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
	assert.Equal(t, "carol", user.Username)
}

func TestFamilyMembersUnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/family/list/u1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"ok","data":[{"id":"p1","username":"alice"}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	members, err := c.FamilyMembers(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "p1", members[0].ID)
}

func TestPermanentLocationRejectsZeroCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"latitude":0,"longitude":0}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.PermanentLocation(context.Background(), "p1")
	assert.Error(t, err)
}

func TestSafetyCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/patients/p1/safety-check", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"isSafe":false}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	safe, err := c.SafetyCheck(context.Background(), "p1", -23.55, -46.63)
	require.NoError(t, err)
	assert.False(t, safe)
}

func TestDownloadURLBuilders(t *testing.T) {
	c := NewClient("http://backend:8080")
	assert.Equal(t, "http://backend:8080/api/memories/m1/download?type=voice", c.VoiceNoteURL("m1"))
	assert.Equal(t, "http://backend:8080/api/memories/m1/download?type=file", c.FileURL("m1"))
}
