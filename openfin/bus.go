package openfin

import (
	"context"
	"fmt"

	"github.com/1broseidon/deskbridge/container"
)

// MessageBus adapts the InterApplicationBus to container.MessageBus.
type MessageBus struct {
	bus InterApplicationBus
}

var _ container.MessageBus = (*MessageBus)(nil)

// NewMessageBus wraps bus.
func NewMessageBus(bus InterApplicationBus) *MessageBus {
	return &MessageBus{bus: bus}
}

// Subscribe registers listener for topic. Without a UUID in opts the
// subscription covers every application ("*").
func (b *MessageBus) Subscribe(ctx context.Context, topic string, listener container.MessageHandler, opts *container.SubscriptionOptions) (*container.Subscription, error) {
	sub := container.NewSubscription(topic, listener, opts)
	uuid, name := sub.Address()
	err := container.Await0(ctx, "subscribe", func(done func(), fail func(string)) {
		b.bus.Subscribe(uuid, name, topic, sub, done, fail)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe removes sub using the addressing it was registered with.
func (b *MessageBus) Unsubscribe(ctx context.Context, sub *container.Subscription) error {
	if sub == nil {
		return fmt.Errorf("unsubscribe: subscription is nil")
	}
	uuid, name := sub.Address()
	return container.Await0(ctx, "unsubscribe", func(done func(), fail func(string)) {
		b.bus.Unsubscribe(uuid, name, sub.Topic, sub, done, fail)
	})
}

// Publish broadcasts message, or sends it to one application when opts
// carries a UUID.
func (b *MessageBus) Publish(ctx context.Context, topic string, message any, opts *container.PublishOptions) error {
	if opts.IsPointToPoint() {
		return container.Await0(ctx, "send", func(done func(), fail func(string)) {
			b.bus.Send(opts.UUID, opts.Name, topic, message, done, fail)
		})
	}
	return container.Await0(ctx, "publish", func(done func(), fail func(string)) {
		b.bus.Publish(topic, message, done, fail)
	})
}
