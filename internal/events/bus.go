// Package events fans published Views out to SSE subscribers.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/micro-nova/nowplaying/internal/models"
)

const subBufferSize = 8

// Bus is a non-blocking publish-subscribe bus of Views.
// A subscriber that falls behind loses updates instead of stalling the
// controller loop.
type Bus struct {
	mu      sync.Mutex
	subs    map[string]chan models.View
	dropped atomic.Uint64
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]chan models.View),
	}
}

// Subscribe registers id and returns its channel of Views.
// Call Unsubscribe when done to clean up.
func (b *Bus) Subscribe(id string) <-chan models.View {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.subs[id]; ok {
		close(old)
	}
	ch := make(chan models.View, subBufferSize)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends v to every subscriber whose buffer has room.
func (b *Bus) Publish(v models.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			b.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped for slow subscribers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
