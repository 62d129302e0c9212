package event

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const defaultBuffer = 100

type InMemoryBus struct {
	mu          sync.RWMutex
	buffer      int
	subscribers map[string]chan Event
	dropped     atomic.Uint64
}

func NewBus() *InMemoryBus {
	return NewBusWithBuffer(defaultBuffer)
}

func NewBusWithBuffer(buffer int) *InMemoryBus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &InMemoryBus{
		buffer:      buffer,
		subscribers: make(map[string]chan Event),
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			total := b.dropped.Add(1)
			slog.Warn("event dropped for slow subscriber", "type", e.Type, "dropped_total", total)
		}
	}
}

func (b *InMemoryBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, b.buffer)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, exists := b.subscribers[id]; exists {
			close(ch)
			delete(b.subscribers, id)
		}
	}

	return ch, unsubscribe
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (b *InMemoryBus) Dropped() uint64 {
	return b.dropped.Load()
}
