package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pma-companion/internal/api"
	"pma-companion/internal/notify"
	"pma-companion/pkg/models"
)

func newConversations() *Conversations {
	return NewConversations("carol", nil, notify.NewBus(true))
}

func msgAt(sender, text string, at time.Time) models.ChatMessage {
	return models.ChatMessage{Sender: sender, Message: text, CreatedAt: at}
}

func TestMergeDeduplicatesRepeatedPolls(t *testing.T) {
	c := newConversations()
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	batch := []models.ChatMessage{msgAt("alice", "hi", at)}

	// The backend returns the same window on every cycle.
	c.Merge(batch)
	c.Merge(batch)
	c.Merge(batch)

	assert.Len(t, c.Thread("alice"), 1)
	assert.Equal(t, 1, c.Unread("alice"))
}

func TestMergePrefersServerID(t *testing.T) {
	c := newConversations()
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	// Same id delivered twice, even with differing timestamps, is one
	// message.
	c.Merge([]models.ChatMessage{{ID: "m1", Sender: "alice", Message: "hi", CreatedAt: at}})
	c.Merge([]models.ChatMessage{{ID: "m1", Sender: "alice", Message: "hi", CreatedAt: at.Add(time.Second)}})

	assert.Len(t, c.Thread("alice"), 1)
}

func TestMergeKeepsDistinctMessages(t *testing.T) {
	c := newConversations()
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	c.Merge([]models.ChatMessage{
		msgAt("alice", "one", at),
		msgAt("alice", "two", at.Add(time.Second)),
		msgAt("bob", "three", at),
	})

	assert.Len(t, c.Thread("alice"), 2)
	assert.Len(t, c.Thread("bob"), 1)
	assert.Equal(t, 3, c.UnreadTotal())
}

func TestOpenConversationResetsUnread(t *testing.T) {
	c := newConversations()
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	c.Merge([]models.ChatMessage{msgAt("alice", "hi", at)})
	require.Equal(t, 1, c.Unread("alice"))

	c.Open("alice")
	assert.Equal(t, 0, c.Unread("alice"))

	// Messages arriving while the thread is on-screen stay read.
	c.Merge([]models.ChatMessage{msgAt("alice", "again", at.Add(time.Second))})
	assert.Equal(t, 0, c.Unread("alice"))

	// After closing, new messages count again.
	c.CloseActive()
	c.Merge([]models.ChatMessage{msgAt("alice", "later", at.Add(2 * time.Second))})
	assert.Equal(t, 1, c.Unread("alice"))
}

func TestOwnMessagesNeverCountUnread(t *testing.T) {
	c := newConversations()
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	c.Merge([]models.ChatMessage{msgAt("carol", "note to family", at)})
	assert.Equal(t, 0, c.UnreadTotal())
}

func TestSendEchoesLocally(t *testing.T) {
	var sent int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat/send", r.URL.Path)
		sent++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newConversations()
	client := api.NewClient(server.URL)

	require.NoError(t, c.Send(context.Background(), client, "alice", "hello"))

	thread := c.Thread("alice")
	require.Len(t, thread, 1)
	assert.Equal(t, "carol", thread[0].Sender)
	assert.Equal(t, "hello", thread[0].Message)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, c.UnreadTotal())
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	c := newConversations()
	err := c.Send(context.Background(), api.NewClient("http://localhost:1"), "alice", "")
	assert.Error(t, err)
}

func TestSendFailureLeavesThreadUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newConversations()
	err := c.Send(context.Background(), api.NewClient(server.URL), "alice", "hello")
	require.Error(t, err)
	assert.Empty(t, c.Thread("alice"))
}

func TestPollerMergesBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat/receive", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"sender":"alice","message":"hi","createdAt":"2026-08-30T10:00:00Z"}]`))
	}))
	defer server.Close()

	c := newConversations()
	p := NewPoller(api.NewClient(server.URL), c, 5*time.Second)

	assert.Equal(t, "chat-reconciler", p.Name())
	assert.Equal(t, 5*time.Second, p.Interval())

	require.NoError(t, p.Poll(context.Background()))
	require.NoError(t, p.Poll(context.Background()))

	assert.Len(t, c.Thread("alice"), 1)
}
