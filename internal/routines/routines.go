package routines

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"pma-companion/internal/api"
	"pma-companion/internal/livefeed"
	"pma-companion/internal/notify"
	"pma-companion/pkg/models"
)

// Coordinator handles routine check-in questions pushed to the patient.
// Only the latest unanswered question is kept; a new push replaces the
// previous one.
type Coordinator struct {
	userID string
	client *api.Client
	slot   *livefeed.Latest[models.RoutineNotification]
	bus    *notify.Bus
}

func NewCoordinator(userID string, client *api.Client, bus *notify.Bus) *Coordinator {
	return &Coordinator{
		userID: userID,
		client: client,
		slot:   livefeed.NewLatest[models.RoutineNotification](),
		bus:    bus,
	}
}

// Topics returns the live topics this coordinator subscribes to. The
// backend delivers routine questions on both the routine channel and
// the general notifications channel.
func (c *Coordinator) Topics() []string {
	return []string{
		livefeed.RoutineTopic(c.userID),
		livefeed.NotificationsTopic(c.userID),
	}
}

// HandlePush is the livefeed handler for routine questions. Payloads
// are JSON routine notifications; a bare-text body is accepted as a
// question without a routine id, for older backends.
func (c *Coordinator) HandlePush(body []byte) {
	var notification models.RoutineNotification
	if err := json.Unmarshal(body, &notification); err != nil || notification.Question == "" {
		text := strings.TrimSpace(string(body))
		text = strings.Trim(text, `"`)
		if text == "" {
			log.Printf("⚠️  Dropping empty routine notification")
			return
		}
		notification = models.RoutineNotification{Question: text}
	}

	if notification.DeliveredAt.IsZero() {
		notification.DeliveredAt = time.Now().UTC()
	}

	c.slot.Set(notification)

	c.bus.Push(notify.Toast{
		Category: "routine",
		Title:    "Routine check-in",
		Body:     notification.Question,
	})
}

// Active returns the question currently awaiting an answer.
func (c *Coordinator) Active() (models.RoutineNotification, bool) {
	return c.slot.Get()
}

// Changes exposes the question slot for whoever renders it.
func (c *Coordinator) Changes() <-chan models.RoutineNotification {
	return c.slot.Changes()
}

// Respond answers the active question with YES or NO. The question
// clears from display immediately; a failed submit is logged, not
// re-surfaced.
func (c *Coordinator) Respond(ctx context.Context, routineID, answer string) error {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	if answer != "YES" && answer != "NO" {
		return fmt.Errorf("invalid routine response %q: must be YES or NO", answer)
	}

	c.slot.Clear()

	if routineID == "" {
		// Legacy bare-text question with no id: nothing to submit.
		log.Printf("⚠️  Routine response %s discarded: notification carried no routine id", answer)
		return nil
	}

	if err := c.client.RespondToRoutine(ctx, routineID, answer); err != nil {
		log.Printf("⚠️  Routine response failed for %s (cleared locally anyway): %v", routineID, err)
		return err
	}
	return nil
}

// Dismiss drops the active question without answering.
func (c *Coordinator) Dismiss() {
	c.slot.Clear()
}
