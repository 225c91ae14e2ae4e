// Package events implements the in-process pub/sub used to push content
// updates to live subscribers (SSE streams).
package events

import (
	"encoding/json"
	"sync"
)

// subscriberBuffer bounds how many undelivered messages a subscriber may
// accumulate before further sends to it are dropped.
const subscriberBuffer = 256

// UpdateEvent is the notification published after a successful tagging run.
type UpdateEvent struct {
	Type   string `json:"type"`
	ItemID string `json:"item_id"`
}

// NewUpdateEvent builds the standard update notification for an item.
func NewUpdateEvent(itemID string) UpdateEvent {
	return UpdateEvent{Type: "update", ItemID: itemID}
}

// Broadcaster fans messages out to a dynamic set of subscriber channels.
// Each subscriber observes its own messages in publish order; no ordering
// is guaranteed across subscribers. Subscribers must Unsubscribe on
// disconnect; an abandoned channel fills up and its messages are dropped.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	closed bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan []byte]struct{})}
}

// Subscribe registers and returns a new subscriber channel.
func (b *Broadcaster) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes the channel. Unknown or already-removed
// channels are a no-op.
func (b *Broadcaster) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Broadcast delivers msg to every currently registered subscriber, FIFO per
// channel. A subscriber whose buffer is full misses the message rather than
// blocking the publisher.
func (b *Broadcaster) Broadcast(msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// BroadcastEvent marshals event as JSON and broadcasts it.
func (b *Broadcaster) BroadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	b.Broadcast(payload)
}

// SubscriberCount returns the number of registered subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel and rejects future subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}
