package stream

import (
	"sync"
	"sync/atomic"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

// Broadcaster fans newly created alerts out to live subscribers (the SSE
// endpoint). Sends never block: slow subscribers miss alerts.
type Broadcaster struct {
	subscribers map[uint64]chan *models.Alert
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan *models.Alert),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan *models.Alert) {
	id := b.nextID.Add(1)
	ch := make(chan *models.Alert, 16)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(a *models.Alert) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- a:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
