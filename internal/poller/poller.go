package poller

import (
	"context"
	"log"
	"sync"
	"time"
)

// Poller is one fixed-interval reconciliation loop. Poll fetches
// authoritative state from the backend and merges it into local
// collections; it must be idempotent, since push and poll race.
type Poller interface {
	Name() string
	Interval() time.Duration
	Poll(ctx context.Context) error
}

// Manager runs the registered pollers until Stop. Every ticker is torn
// down on Stop so no poll fires against a dead session.
type Manager struct {
	pollers  []Poller
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
}

func NewManager() *Manager {
	return &Manager{
		stopChan: make(chan struct{}),
	}
}

// Register adds a poller. Must be called before Start.
func (m *Manager) Register(p Poller) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pollers = append(m.pollers, p)
	log.Printf("✅ Poller '%s' registered (interval: %v)", p.Name(), p.Interval())
}

// Start launches every registered poller.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	log.Printf("🚀 Starting %d poller(s)...", len(m.pollers))

	for _, p := range m.pollers {
		m.wg.Add(1)
		go m.runPoller(p, m.stopChan)
	}
}

func (m *Manager) runPoller(p Poller, stop <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	// First cycle runs immediately so state is reconciled at startup.
	m.executePoll(p)

	for {
		select {
		case <-ticker.C:
			m.executePoll(p)

		case <-stop:
			log.Printf("🛑 Poller '%s' stopped", p.Name())
			return
		}
	}
}

func (m *Manager) executePoll(p Poller) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.Poll(ctx); err != nil {
		// One-shot poll failures are dropped; the next cycle repairs
		// whatever was missed.
		log.Printf("⚠️  Poller '%s': %v", p.Name(), err)
	}
}

// Stop terminates all pollers and waits for in-flight cycles. The
// manager can be started again afterwards.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	stop := m.stopChan
	m.mu.Unlock()

	close(stop)
	m.wg.Wait()

	m.mu.Lock()
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	log.Println("✅ All pollers stopped")
}

// Stats describes the registered pollers for the ops API.
type Stats struct {
	Total int      `json:"total"`
	Names []string `json:"names"`
}

func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.pollers))
	for i, p := range m.pollers {
		names[i] = p.Name()
	}

	return Stats{Total: len(m.pollers), Names: names}
}
