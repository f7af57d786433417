package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"pma-companion/internal/api"
	"pma-companion/internal/notify"
	"pma-companion/pkg/models"
)

// Collector accumulates location danger alerts for a caregiver. The
// backend owns the alert lifecycle: each poll replaces the visible set
// with what the server returns, so an alert resolved server-side
// disappears here on the next cycle without a local dismiss step.
type Collector struct {
	bus *notify.Bus

	mu    sync.RWMutex
	items []models.LocationAlert
	seen  map[string]bool
}

func NewCollector(bus *notify.Bus) *Collector {
	return &Collector{
		bus:  bus,
		seen: make(map[string]bool),
	}
}

// alertKey identifies one logical alert across push and poll delivery.
// Backends that omit the timestamp still get a stable key, so repeated
// reconcile cycles never re-surface the same alert.
func alertKey(a models.LocationAlert) string {
	if a.PatientID != "" && a.Timestamp != "" {
		return a.PatientID + "|" + a.Timestamp
	}
	return fmt.Sprintf("%s|%s|%g|%g", a.PatientID, a.Message, a.Latitude, a.Longitude)
}

// HandlePush is the livefeed handler for the shared alerts topic.
func (c *Collector) HandlePush(body []byte) {
	var alert models.LocationAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		log.Printf("⚠️  Dropping malformed location alert: %v", err)
		return
	}
	if alert.PatientName == "" && alert.Message == "" {
		log.Printf("⚠️  Dropping empty location alert")
		return
	}

	c.add(alert)
}

// Reconcile replaces the visible set with the server's current alerts.
// Alerts already surfaced do not toast again; alerts the server no
// longer reports are cleared.
func (c *Collector) Reconcile(polled []models.LocationAlert) {
	var toasts []notify.Toast

	c.mu.Lock()
	c.items = c.items[:0]
	for _, alert := range polled {
		c.items = append(c.items, alert)
		key := alertKey(alert)
		if !c.seen[key] {
			c.seen[key] = true
			toasts = append(toasts, toastFor(alert))
		}
	}
	c.mu.Unlock()

	for _, t := range toasts {
		c.bus.Push(t)
	}
}

func (c *Collector) add(alert models.LocationAlert) {
	key := alertKey(alert)

	c.mu.Lock()
	if c.seen[key] {
		c.mu.Unlock()
		return
	}
	c.seen[key] = true
	c.items = append(c.items, alert)
	c.mu.Unlock()

	c.bus.Push(toastFor(alert))
}

func toastFor(alert models.LocationAlert) notify.Toast {
	title := "🚨 Danger alert"
	if alert.PatientName != "" {
		title = fmt.Sprintf("🚨 %s may need help", alert.PatientName)
	}
	return notify.Toast{
		Category: "alert",
		Title:    title,
		Body:     alert.Message,
	}
}

// Active returns a copy of the alerts currently visible.
func (c *Collector) Active() []models.LocationAlert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.LocationAlert, len(c.items))
	copy(out, c.items)
	return out
}

// Poller reconciles the alert set against the backend. It implements
// poller.Poller.
type Poller struct {
	userID    string
	client    *api.Client
	collector *Collector
	interval  time.Duration
}

func NewPoller(userID string, client *api.Client, collector *Collector, interval time.Duration) *Poller {
	return &Poller{
		userID:    userID,
		client:    client,
		collector: collector,
		interval:  interval,
	}
}

func (p *Poller) Name() string            { return "alert-reconciler" }
func (p *Poller) Interval() time.Duration { return p.interval }

func (p *Poller) Poll(ctx context.Context) error {
	polled, err := p.client.AlertsForUser(ctx, p.userID)
	if err != nil {
		return fmt.Errorf("alert poll failed: %w", err)
	}
	p.collector.Reconcile(polled)
	return nil
}
