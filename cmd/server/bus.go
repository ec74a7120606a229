package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/config"
	"github.com/stemsi/classpoints-backend/internal/events"
)

// closableBus is the event bus plus shutdown and the subscriber count shown
// on the status endpoint.
type closableBus interface {
	events.Bus
	SubscriberCount() int
	Close()
}

func openBus(cfg *config.Config, log zerolog.Logger) (closableBus, error) {
	switch cfg.EventsDriver {
	case config.EventsDriverLocal:
		return events.NewLocalBus(log), nil
	case config.EventsDriverNATS:
		upstream, err := events.NewNATSUpstream(cfg.NATSURL, cfg.NATSSubject, log)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		return events.NewBusWithUpstream(upstream, log), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.EventsDriver)
	}
}
