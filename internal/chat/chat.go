package chat

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"pma-companion/internal/api"
	"pma-companion/internal/notify"
	"pma-companion/internal/store"
	"pma-companion/pkg/models"
)

// Conversations holds one message thread per family member, merged from
// the polling reconciler and local echoes. Messages are deduplicated by
// server id when the backend assigns one, otherwise by the
// (sender, createdAt) pair, so repeated polls of the same window never
// duplicate a thread.
type Conversations struct {
	selfUsername string
	journal      *store.Store
	bus          *notify.Bus

	mu      sync.RWMutex
	threads map[string][]models.ChatMessage
	seen    map[string]bool
	unread  map[string]int
	open    string
}

func NewConversations(selfUsername string, journal *store.Store, bus *notify.Bus) *Conversations {
	return &Conversations{
		selfUsername: selfUsername,
		journal:      journal,
		bus:          bus,
		threads:      make(map[string][]models.ChatMessage),
		seen:         make(map[string]bool),
		unread:       make(map[string]int),
	}
}

func dedupKey(msg models.ChatMessage) string {
	if msg.ID != "" {
		return "id:" + msg.ID
	}
	return fmt.Sprintf("%s|%s", msg.Sender, msg.CreatedAt.UTC().Format(time.RFC3339Nano))
}

// Merge folds a polled batch into the threads. Already-seen messages
// are skipped; genuinely new inbound messages bump the sender's unread
// count and surface a toast unless that conversation is open.
func (c *Conversations) Merge(batch []models.ChatMessage) {
	var toasts []notify.Toast

	c.mu.Lock()
	for _, msg := range batch {
		key := dedupKey(msg)
		if c.seen[key] {
			continue
		}
		c.seen[key] = true
		c.threads[msg.Sender] = append(c.threads[msg.Sender], msg)

		if c.journal != nil {
			if err := c.journal.AppendChatMessage(msg); err != nil {
				log.Printf("⚠️  Failed to journal chat message: %v", err)
			}
		}

		if msg.Sender == c.selfUsername {
			continue
		}
		if c.open != msg.Sender {
			c.unread[msg.Sender]++
			toasts = append(toasts, notify.Toast{
				Category: "chat",
				Title:    fmt.Sprintf("Message from %s", msg.Sender),
				Body:     msg.Message,
			})
		}
	}
	c.mu.Unlock()

	for _, t := range toasts {
		c.bus.Push(t)
	}
}

// Send delivers a message and echoes it into the local thread so it
// shows up immediately, without waiting for the next poll.
func (c *Conversations) Send(ctx context.Context, client *api.Client, to, message string) error {
	if message == "" {
		return fmt.Errorf("cannot send an empty message")
	}

	if err := client.SendChatMessage(ctx, to, message); err != nil {
		return err
	}

	echo := models.ChatMessage{
		Sender:    c.selfUsername,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	key := dedupKey(echo)
	if !c.seen[key] {
		c.seen[key] = true
		c.threads[to] = append(c.threads[to], echo)
	}
	c.mu.Unlock()

	if c.journal != nil {
		if err := c.journal.AppendChatMessage(echo); err != nil {
			log.Printf("⚠️  Failed to journal sent message: %v", err)
		}
	}

	return nil
}

// Open marks a conversation as on-screen: its unread count resets and
// new messages from that member stop raising toasts.
func (c *Conversations) Open(member string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = member
	c.unread[member] = 0
}

// CloseActive marks no conversation as on-screen.
func (c *Conversations) CloseActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = ""
}

// Thread returns a copy of the message thread with member, oldest
// first.
func (c *Conversations) Thread(member string) []models.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	thread := c.threads[member]
	out := make([]models.ChatMessage, len(thread))
	copy(out, thread)
	return out
}

// Unread returns the unread count for member.
func (c *Conversations) Unread(member string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unread[member]
}

// UnreadTotal sums unread counts across all members.
func (c *Conversations) UnreadTotal() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, n := range c.unread {
		total += n
	}
	return total
}

// RestoreHistory preloads a thread from the offline journal. Journaled
// messages count as seen so the next poll does not duplicate them.
func (c *Conversations) RestoreHistory(member string) error {
	if c.journal == nil {
		return nil
	}
	history, err := c.journal.ChatHistory(member)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msg := range history {
		key := dedupKey(msg)
		if c.seen[key] {
			continue
		}
		c.seen[key] = true
		c.threads[msg.Sender] = append(c.threads[msg.Sender], msg)
	}
	return nil
}

// Poller drives the polling reconciler: every cycle it fetches pending
// messages and merges them into the conversations. It implements
// poller.Poller.
type Poller struct {
	client   *api.Client
	conv     *Conversations
	interval time.Duration
}

func NewPoller(client *api.Client, conv *Conversations, interval time.Duration) *Poller {
	return &Poller{client: client, conv: conv, interval: interval}
}

func (p *Poller) Name() string            { return "chat-reconciler" }
func (p *Poller) Interval() time.Duration { return p.interval }

func (p *Poller) Poll(ctx context.Context) error {
	batch, err := p.client.ReceiveChatMessages(ctx)
	if err != nil {
		return fmt.Errorf("chat poll failed: %w", err)
	}
	p.conv.Merge(batch)
	return nil
}
