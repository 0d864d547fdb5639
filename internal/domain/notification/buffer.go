package notification

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
)

// Buffer keeps notifications in memory until they expire, so a polling UI
// sees each one for its configured duration.
type Buffer struct {
	mu    sync.Mutex
	clock clock.Clock
	items []Notification
	max   int
}

// NewBuffer creates a buffer holding at most max live notifications.
func NewBuffer(c clock.Clock, max int) *Buffer {
	if max < 1 {
		max = 100
	}
	return &Buffer{clock: c, max: max}
}

// Notify implements Sink.
func (b *Buffer) Notify(_ context.Context, n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()
	b.items = append(b.items, n)
	if len(b.items) > b.max {
		b.items = b.items[len(b.items)-b.max:]
	}
}

// Active returns the unexpired notifications, oldest first.
func (b *Buffer) Active() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()
	return append([]Notification{}, b.items...)
}

func (b *Buffer) pruneLocked() {
	now := b.clock.Now()
	live := b.items[:0]
	for _, n := range b.items {
		if n.ExpiresAt().After(now) {
			live = append(live, n)
		}
	}
	b.items = live
}
