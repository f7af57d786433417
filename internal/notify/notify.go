package notify

import (
	"log"
	"sync"
	"time"
)

// Toast is one in-app notification. Categories mirror the notification
// clients: reminder, routine, chat, alert.
type Toast struct {
	Category string    `json:"category"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	At       time.Time `json:"at"`
}

const maxRecentToasts = 50

// Bus surfaces toasts to whoever is watching (the ops API, a future UI
// shell). When notifications are not allowed the feature degrades to a
// log line instead of failing.
type Bus struct {
	allowed bool

	mu     sync.RWMutex
	recent []Toast
	subs   []chan Toast
}

func NewBus(allowed bool) *Bus {
	if !allowed {
		log.Println("⚠️  Notifications not allowed; toasts will only be logged")
	}
	return &Bus{allowed: allowed}
}

// Push surfaces a toast. Never blocks: slow subscribers miss toasts
// rather than stalling delivery.
func (b *Bus) Push(t Toast) {
	if t.At.IsZero() {
		t.At = time.Now()
	}

	log.Printf("🔔 [%s] %s: %s", t.Category, t.Title, t.Body)

	if !b.allowed {
		return
	}

	b.mu.Lock()
	b.recent = append(b.recent, t)
	if len(b.recent) > maxRecentToasts {
		b.recent = b.recent[1:]
	}
	subs := make([]chan Toast, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- t:
		default:
		}
	}
}

// Subscribe returns a channel of future toasts.
func (b *Bus) Subscribe() <-chan Toast {
	ch := make(chan Toast, 16)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Recent returns the latest surfaced toasts, oldest first.
func (b *Bus) Recent() []Toast {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Toast, len(b.recent))
	copy(out, b.recent)
	return out
}
