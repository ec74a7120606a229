package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stemsi/classpoints-backend/internal/config"
)

// NATSUpstream relays events over core NATS. Each event type is published on
// its own subject below the base subject.
type NATSUpstream struct {
	nc          *nats.Conn
	sub         *nats.Subscription
	base        string
	mu          sync.RWMutex
	subscribers []chan Event
	log         zerolog.Logger
}

// NewNATSUpstream connects to url and subscribes to base.>.
func NewNATSUpstream(url, base string, log zerolog.Logger) (*NATSUpstream, error) {
	nc, err := nats.Connect(url, nats.Name("classpoints"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	u := &NATSUpstream{
		nc:   nc,
		base: base,
		log:  log.With().Str("component", "nats_upstream").Logger(),
	}

	u.sub, err = nc.Subscribe(base+".>", u.receive)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", base, err)
	}
	if err := nc.Flush(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("flush nats: %w", err)
	}
	return u, nil
}

func (u *NATSUpstream) receive(msg *nats.Msg) {
	var e Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		u.log.Error().Err(err).Str("subject", msg.Subject).Msg("Invalid event payload")
		return
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, ch := range u.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Publish sends e to NATS. Failures are logged; the bus is best effort.
func (u *NATSUpstream) Publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		u.log.Error().Err(err).Msg("Marshal event")
		return
	}
	subject := config.StoreKey.EventSubject(u.base, string(e.Type))
	if err := u.nc.Publish(subject, data); err != nil {
		u.log.Error().Err(err).Str("subject", subject).Msg("Publish to NATS failed")
	}
}

func (u *NATSUpstream) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	u.mu.Lock()
	u.subscribers = append(u.subscribers, ch)
	u.mu.Unlock()
	return ch
}

func (u *NATSUpstream) Unsubscribe(ch chan Event) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, sub := range u.subscribers {
		if sub == ch {
			u.subscribers = append(u.subscribers[:i], u.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close drains the subscription and closes the connection and all
// subscriber channels.
func (u *NATSUpstream) Close() {
	if u.sub != nil {
		_ = u.sub.Unsubscribe()
	}
	u.nc.Close()

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, ch := range u.subscribers {
		close(ch)
	}
	u.subscribers = nil
}
