// Package broadcast fans successfully ingested live records out to every
// connected subscriber. The registry is transport-agnostic: a subscriber is
// just a buffered channel, and whatever carries the bytes (websocket, SSE,
// a test) drains it.
package broadcast

import (
	"log"
	"sync"

	"bustracker/internal/core/model"
)

const subscriberBuffer = 16

// Subscription is the handle returned by Subscribe. Records arrive on C
// until Unsubscribe or Shutdown closes it.
type Subscription struct {
	C chan *model.LiveRecord
}

// Broadcaster delivers each published record to all open subscribers. A slow
// or dead subscriber never blocks the publisher or its peers: when a
// subscriber's buffer is full the record is dropped for that subscriber.
type Broadcaster struct {
	mutex       sync.RWMutex
	subscribers map[*Subscription]struct{}
	shutdown    bool

	// onDrop is called once per record dropped for a saturated subscriber;
	// wired to a metrics counter by the server.
	onDrop func()
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[*Subscription]struct{}),
	}
}

// OnDrop registers a callback fired whenever a record is dropped for a slow
// subscriber. Must be called before the broadcaster is shared.
func (b *Broadcaster) OnDrop(fn func()) {
	b.onDrop = fn
}

// Subscribe registers a new subscriber. Returns nil after Shutdown.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.shutdown {
		return nil
	}
	sub := &Subscription{C: make(chan *model.LiveRecord, subscriberBuffer)}
	b.subscribers[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Idempotent: safe
// to call twice or after the subscriber already went away.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if _, exists := b.subscribers[sub]; !exists {
		return
	}
	delete(b.subscribers, sub)
	close(sub.C)
}

// Publish delivers the record to every current subscriber. With zero
// subscribers this returns immediately without any work.
func (b *Broadcaster) Publish(record *model.LiveRecord) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if len(b.subscribers) == 0 {
		return
	}

	for sub := range b.subscribers {
		select {
		case sub.C <- record:
		default:
			// Subscriber buffer full; drop rather than block the others.
			if b.onDrop != nil {
				b.onDrop()
			}
			log.Printf("broadcast: dropped update for bus %s, slow subscriber", record.BusID)
		}
	}
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.subscribers)
}

// Shutdown closes every subscriber channel and rejects new subscriptions.
// Idempotent.
func (b *Broadcaster) Shutdown() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.shutdown {
		return
	}
	b.shutdown = true
	for sub := range b.subscribers {
		delete(b.subscribers, sub)
		close(sub.C)
	}
}
