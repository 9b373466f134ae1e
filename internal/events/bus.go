package events

import (
	"log/slog"
	"sync"

	"github.com/codebreakergame/codebreaker-go/internal/model"
)

// subscriberBuffer is the per-subscriber channel capacity. Publishing
// never blocks; events past a full buffer are dropped with a warning.
const subscriberBuffer = 64

// Subscription is one receiver's handle on the bus
type Subscription struct {
	// C delivers published events until the subscription is removed
	C chan model.Event

	name string
}

// Bus fans lifecycle events out to every subscriber: one per connected
// player plus the log sink. Game progress never blocks on a slow
// subscriber.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]bool
	closed      bool
	logger      *slog.Logger
}

// NewBus creates a new event bus
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[*Subscription]bool),
		logger:      logger.With(slog.String("component", "events")),
	}
}

// Subscribe registers a named subscriber and returns its subscription
func (b *Bus) Subscribe(name string) *Subscription {
	sub := &Subscription{
		C:    make(chan model.Event, subscriberBuffer),
		name: name,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.C)
		return sub
	}
	b.subscribers[sub] = true
	b.logger.Debug("subscriber registered",
		slog.String("subscriber", name),
		slog.Int("total_subscribers", len(b.subscribers)))
	return sub
}

// Unsubscribe removes a subscriber and closes its channel
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		close(sub.C)
		b.logger.Debug("subscriber removed",
			slog.String("subscriber", sub.name),
			slog.Int("total_subscribers", len(b.subscribers)))
	}
}

// Publish delivers the event to every subscriber without blocking
func (b *Bus) Publish(event model.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for sub := range b.subscribers {
		select {
		case sub.C <- event:
		default:
			b.logger.Warn("event dropped - subscriber buffer full",
				slog.String("subscriber", sub.name),
				slog.String("event_type", string(event.Type)))
		}
	}
}

// Close shuts down the bus and closes every subscriber channel
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subscribers {
		delete(b.subscribers, sub)
		close(sub.C)
	}
	b.logger.Info("event bus closed")
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
