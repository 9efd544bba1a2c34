package events

import (
	"sync"
)

// Bus is a channel-based pub-sub event bus with topic subscriptions.
// Publishing never blocks: subscribers with a full buffer miss the
// event rather than stalling the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]chan Event // topic -> subscriber channels
	closed bool
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]chan Event)}
}

// Subscribe returns a channel receiving events published to topic.
// bufSize defaults to 256 if <= 0. The channel is closed when the bus
// closes; a subscription to a closed bus yields an already-closed
// channel.
func (b *Bus) Subscribe(topic string, bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = 256
	}
	ch := make(chan Event, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	b.subs[topic] = append(b.subs[topic], ch)
	return ch
}

// Publish delivers event to every subscriber of topic, dropping it for
// subscribers whose buffer is full.
func (b *Bus) Publish(topic string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up; drop rather than block
		}
	}
}

// Close closes all subscriber channels. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
}
