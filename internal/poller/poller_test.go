package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPoller struct {
	name     string
	interval time.Duration
	calls    atomic.Int32
	err      error
}

func (p *countingPoller) Name() string            { return p.name }
func (p *countingPoller) Interval() time.Duration { return p.interval }
func (p *countingPoller) Poll(ctx context.Context) error {
	p.calls.Add(1)
	return p.err
}

func TestFirstCycleRunsImmediately(t *testing.T) {
	m := NewManager()
	p := &countingPoller{name: "test", interval: time.Hour}
	m.Register(p)

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return p.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTickerKeepsPolling(t *testing.T) {
	m := NewManager()
	p := &countingPoller{name: "fast", interval: 20 * time.Millisecond}
	m.Register(p)

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return p.calls.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPollFailuresDoNotStopTheLoop(t *testing.T) {
	m := NewManager()
	p := &countingPoller{name: "flaky", interval: 20 * time.Millisecond, err: errors.New("backend down")}
	m.Register(p)

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return p.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopHaltsPolling(t *testing.T) {
	m := NewManager()
	p := &countingPoller{name: "stoppable", interval: 20 * time.Millisecond}
	m.Register(p)

	m.Start()
	require.Eventually(t, func() bool {
		return p.calls.Load() >= 1
	}, time.Second, 10*time.Millisecond)

	m.Stop()
	after := p.calls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, p.calls.Load())
}

func TestManagerRestarts(t *testing.T) {
	m := NewManager()
	p := &countingPoller{name: "restartable", interval: time.Hour}
	m.Register(p)

	m.Start()
	require.Eventually(t, func() bool {
		return p.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
	m.Stop()

	// A second Start must run fresh cycles, not exit immediately.
	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool {
		return p.calls.Load() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	m := NewManager()
	m.Register(&countingPoller{name: "x", interval: time.Hour})

	m.Start()
	m.Stop()
	m.Stop()
}

func TestStartIsIdempotent(t *testing.T) {
	m := NewManager()
	p := &countingPoller{name: "once", interval: time.Hour}
	m.Register(p)

	m.Start()
	m.Start()
	defer m.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestGetStats(t *testing.T) {
	m := NewManager()
	m.Register(&countingPoller{name: "a", interval: time.Hour})
	m.Register(&countingPoller{name: "b", interval: time.Hour})

	stats := m.GetStats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, []string{"a", "b"}, stats.Names)
}
