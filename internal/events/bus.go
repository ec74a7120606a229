// Package events is the in-process publish/subscribe bus that carries
// score updates, feedback, sound cues and picker ticks to the live stream
// and the ledger worker. An optional upstream (NATS) fans events out across
// processes.
package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(Event)
}

// Bus is a publish/subscribe hub.
type Bus interface {
	Publisher
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// Upstream is a bus that spans processes (e.g., NATS).
type Upstream interface {
	Bus
	Close()
}

const subscriberBuffer = 64

// LocalBus broadcasts to in-process subscribers. With an upstream configured,
// Publish goes to the upstream only and local subscribers receive what the
// upstream echoes back.
type LocalBus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	upstream    Upstream
	log         zerolog.Logger
}

// NewLocalBus creates a bus without upstream.
func NewLocalBus(log zerolog.Logger) *LocalBus {
	return &LocalBus{log: log.With().Str("component", "event_bus").Logger()}
}

// NewBusWithUpstream creates a bus bridged to upstream.
func NewBusWithUpstream(upstream Upstream, log zerolog.Logger) *LocalBus {
	b := NewLocalBus(log)
	b.upstream = upstream

	go func() {
		ch := upstream.Subscribe()
		for e := range ch {
			b.publishLocal(e)
		}
		b.log.Debug().Msg("Upstream channel closed")
	}()
	return b
}

// Subscribe adds a subscriber. Slow subscribers miss events rather than
// blocking publishers.
func (b *LocalBus) Subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	b.subscribers = append(b.subscribers, ch)
	b.log.Debug().Int("subscribers", len(b.subscribers)).Msg("Subscriber added")
	return ch
}

// Unsubscribe removes and closes ch.
func (b *LocalBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			close(ch)
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends e to every subscriber (through the upstream when set).
func (b *LocalBus) Publish(e Event) {
	if b.upstream != nil {
		b.upstream.Publish(e)
		return
	}
	b.publishLocal(e)
}

// SubscriberCount returns the number of local subscribers.
func (b *LocalBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber channel and the upstream.
func (b *LocalBus) Close() {
	b.mu.Lock()
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
	b.mu.Unlock()

	if b.upstream != nil {
		b.upstream.Close()
	}
}

func (b *LocalBus) publishLocal(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.log.Warn().Str("type", string(e.Type)).Msg("Subscriber full, event dropped")
		}
	}
}
