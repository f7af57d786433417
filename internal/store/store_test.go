package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pma-companion/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "companion.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundtrip(t *testing.T) {
	s := openTestStore(t)

	rec := SessionRecord{
		UserID:      "u1",
		Username:    "carol",
		IsAlzheimer: true,
		DeviceID:    "dev-123",
	}
	require.NoError(t, s.SaveSession(rec))

	got, err := s.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)
}

func TestLoadSessionWhenEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveSessionReplacesPrevious(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveSession(SessionRecord{UserID: "u1", Username: "carol", DeviceID: "d1"}))
	require.NoError(t, s.SaveSession(SessionRecord{UserID: "u2", Username: "alice", DeviceID: "d2"}))

	got, err := s.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u2", got.UserID)
	assert.Equal(t, "alice", got.Username)
}

func TestClearSession(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveSession(SessionRecord{UserID: "u1", Username: "carol", DeviceID: "d1"}))
	require.NoError(t, s.ClearSession())

	got, err := s.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChatJournalDeduplicates(t *testing.T) {
	s := openTestStore(t)
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	msg := models.ChatMessage{Sender: "alice", Message: "hi", CreatedAt: at}
	require.NoError(t, s.AppendChatMessage(msg))
	require.NoError(t, s.AppendChatMessage(msg))

	history, err := s.ChatHistory("alice")
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Message)
	assert.True(t, history[0].CreatedAt.Equal(at))
}

func TestChatHistoryOrderedOldestFirst(t *testing.T) {
	s := openTestStore(t)
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendChatMessage(models.ChatMessage{Sender: "alice", Message: "second", CreatedAt: at.Add(time.Minute)}))
	require.NoError(t, s.AppendChatMessage(models.ChatMessage{Sender: "alice", Message: "first", CreatedAt: at}))
	require.NoError(t, s.AppendChatMessage(models.ChatMessage{Sender: "bob", Message: "other thread", CreatedAt: at}))

	history, err := s.ChatHistory("alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Message)
	assert.Equal(t, "second", history[1].Message)
}

func TestPermanentLocationRoundtrip(t *testing.T) {
	s := openTestStore(t)

	loc := models.SavedLocation{
		Latitude:  -23.5505,
		Longitude: -46.6333,
		Address:   "Home",
	}
	require.NoError(t, s.SavePermanentLocation("p1", loc))

	got, err := s.PermanentLocation("p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, loc, *got)
}

func TestPermanentLocationMissing(t *testing.T) {
	s := openTestStore(t)

	got, err := s.PermanentLocation("nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPermanentLocationOverwrite(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SavePermanentLocation("p1", models.SavedLocation{Latitude: 1, Longitude: 2}))
	require.NoError(t, s.SavePermanentLocation("p1", models.SavedLocation{Latitude: 3, Longitude: 4}))

	got, err := s.PermanentLocation("p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3.0, got.Latitude)
	assert.Equal(t, 4.0, got.Longitude)
}
