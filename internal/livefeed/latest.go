package livefeed

import "sync"

// Latest is a single-slot, last-write-wins register. Only the newest
// value is ever held; Set overwrites whatever was pending. Changes is a
// replace-on-write channel: a slow observer sees the most recent value,
// never a backlog.
type Latest[T any] struct {
	mu  sync.Mutex
	val *T
	ch  chan T
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Set stores v, overwriting any previous value.
func (l *Latest[T]) Set(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.val = &v

	// Replace the pending notification instead of queueing behind it.
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

// Get returns the current value without clearing it.
func (l *Latest[T]) Get() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.val == nil {
		var zero T
		return zero, false
	}
	return *l.val, true
}

// Take returns the current value and clears the slot.
func (l *Latest[T]) Take() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.val == nil {
		var zero T
		return zero, false
	}

	v := *l.val
	l.val = nil

	select {
	case <-l.ch:
	default:
	}

	return v, true
}

// Clear empties the slot without returning the value.
func (l *Latest[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.val = nil
	select {
	case <-l.ch:
	default:
	}
}

// Changes delivers each newly set value. Values overwritten before the
// observer reads are dropped.
func (l *Latest[T]) Changes() <-chan T {
	return l.ch
}
