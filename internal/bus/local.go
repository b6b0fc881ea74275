package bus

import (
	"context"
	"fmt"

	"github.com/1broseidon/deskbridge/container"
)

// Hub connects in-process participants. Each participant gets its own
// Local bus from Endpoint.
type Hub struct {
	router router[*Local]
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Endpoint returns a bus that publishes as (uuid, name).
func (h *Hub) Endpoint(uuid, name string) *Local {
	return &Local{hub: h, id: Identity{UUID: uuid, Name: name}}
}

// Local is an in-process container.MessageBus. Deliveries for one publish
// run on their own goroutine, in subscription order, so Publish never
// blocks on a listener.
type Local struct {
	hub *Hub
	id  Identity
}

var _ container.MessageBus = (*Local)(nil)

// Identity returns the address this endpoint publishes as.
func (l *Local) Identity() Identity { return l.id }

func (l *Local) Subscribe(ctx context.Context, topic string, listener container.MessageHandler, opts *container.SubscriptionOptions) (*container.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := container.NewSubscription(topic, listener, opts)
	l.hub.router.add(l, l.id, sub)
	return sub, nil
}

func (l *Local) Unsubscribe(ctx context.Context, sub *container.Subscription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("unsubscribe: subscription is nil")
	}
	if !l.hub.router.remove(l, sub) {
		return fmt.Errorf("unsubscribe: no subscription to %q", sub.Topic)
	}
	return nil
}

func (l *Local) Publish(ctx context.Context, topic string, message any, opts *container.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	routes := l.hub.router.match(topic, l.id, opts)
	if len(routes) == 0 {
		return nil
	}
	sender := l.id
	go func() {
		for _, rt := range routes {
			rt.sub.Deliver(message, sender.UUID, sender.Name)
		}
	}()
	return nil
}
