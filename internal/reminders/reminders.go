package reminders

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"pma-companion/internal/api"
	"pma-companion/internal/livefeed"
	"pma-companion/internal/notify"
	"pma-companion/pkg/models"
)

// Coordinator owns the memory-reminder client: the live topic feed, the
// due-reminders catch-up fetch and the mark-read acknowledgment. At
// most one reminder is active for display at any time.
type Coordinator struct {
	userID string
	client *api.Client
	slot   *livefeed.Latest[models.Reminder]
	bus    *notify.Bus

	mu          sync.Mutex
	lastShownID string
}

func NewCoordinator(userID string, client *api.Client, bus *notify.Bus) *Coordinator {
	return &Coordinator{
		userID: userID,
		client: client,
		slot:   livefeed.NewLatest[models.Reminder](),
		bus:    bus,
	}
}

// Topic returns the live topic this coordinator subscribes to.
func (c *Coordinator) Topic() string {
	return livefeed.RemindersTopic(c.userID)
}

// HandlePush is the livefeed handler for reminder messages.
func (c *Coordinator) HandlePush(body []byte) {
	var reminder models.Reminder
	if err := json.Unmarshal(body, &reminder); err != nil {
		log.Printf("⚠️  Dropping malformed reminder payload: %v", err)
		return
	}
	if reminder.ID == "" || reminder.Title == "" {
		log.Printf("⚠️  Dropping reminder with missing id or title")
		return
	}

	c.deliver(reminder)
}

// FetchDue reconciles reminders that came due while the companion was
// offline. The first due reminder (if any) becomes the active one; a
// reminder already delivered via push is not re-surfaced.
func (c *Coordinator) FetchDue(ctx context.Context) error {
	due, err := c.client.DueReminders(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("due reminder fetch failed: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	c.deliver(due[0])
	return nil
}

func (c *Coordinator) deliver(reminder models.Reminder) {
	c.mu.Lock()
	alreadyShown := c.lastShownID == reminder.ID
	c.lastShownID = reminder.ID
	c.mu.Unlock()

	c.slot.Set(reminder)

	if alreadyShown {
		return
	}

	c.bus.Push(notify.Toast{
		Category: "reminder",
		Title:    reminder.Title,
		Body:     reminder.Description,
	})
}

// Active returns the reminder currently on display.
func (c *Coordinator) Active() (models.Reminder, bool) {
	return c.slot.Get()
}

// Changes exposes the reminder slot for whoever renders it.
func (c *Coordinator) Changes() <-chan models.Reminder {
	return c.slot.Changes()
}

// MarkRead acknowledges the active reminder. The display clears
// immediately, whether or not the backend accepts the call: a dismissed
// reminder must never re-appear because of a transport failure.
func (c *Coordinator) MarkRead(ctx context.Context, memoryID string) error {
	c.slot.Clear()

	c.mu.Lock()
	if c.lastShownID == memoryID {
		c.lastShownID = ""
	}
	c.mu.Unlock()

	if err := c.client.MarkReminderRead(ctx, memoryID); err != nil {
		log.Printf("⚠️  Mark-read failed for %s (cleared locally anyway): %v", memoryID, err)
		return err
	}
	return nil
}

// VoiceNoteURL builds the playback URL for a reminder's voice note.
func (c *Coordinator) VoiceNoteURL(memoryID string) string {
	return c.client.VoiceNoteURL(memoryID)
}
