package container

import "context"

// Wildcard is the native address meaning "any application".
const Wildcard = "*"

// Message is a bus delivery as seen by a subscriber.
type Message struct {
	Topic string
	Data  any
	// UUID and Name identify the sender when the transport reports it.
	UUID string
	Name string
}

// MessageHandler receives bus messages.
type MessageHandler func(Message)

// SubscriptionOptions scope a subscription to one sender. An empty UUID
// subscribes across the whole addressable space.
type SubscriptionOptions struct {
	UUID string
	Name string
}

// PublishOptions address a publish. An empty UUID broadcasts; otherwise the
// message is sent point-to-point to UUID (and Name when set).
type PublishOptions struct {
	UUID string
	Name string
}

// Subscription is one active bus registration.
//
// The *Subscription pointer doubles as the listener handed to the native
// bus: Deliver normalizes a native delivery into a Message for Listener.
type Subscription struct {
	Topic    string
	Listener MessageHandler
	Options  *SubscriptionOptions
}

// NewSubscription builds a subscription value.
func NewSubscription(topic string, listener MessageHandler, opts *SubscriptionOptions) *Subscription {
	return &Subscription{Topic: topic, Listener: listener, Options: opts}
}

// Deliver hands a native delivery to the canonical listener.
func (s *Subscription) Deliver(data any, uuid, name string) {
	if s == nil || s.Listener == nil {
		return
	}
	s.Listener(Message{Topic: s.Topic, Data: data, UUID: uuid, Name: name})
}

// Address returns the (uuid, name) pair the subscription is registered
// under: (Wildcard, "") when it is not scoped.
func (s *Subscription) Address() (string, string) {
	if s == nil || s.Options == nil || s.Options.UUID == "" {
		name := ""
		if s != nil && s.Options != nil {
			name = s.Options.Name
		}
		return Wildcard, name
	}
	return s.Options.UUID, s.Options.Name
}

// Matches reports whether a message from (uuid, name) reaches s.
func (s *Subscription) Matches(uuid, name string) bool {
	addrUUID, addrName := s.Address()
	if addrUUID != Wildcard && addrUUID != uuid {
		return false
	}
	if addrName != "" && addrName != name {
		return false
	}
	return true
}

// MessageBus is the uniform subscribe/unsubscribe/publish contract.
type MessageBus interface {
	Subscribe(ctx context.Context, topic string, listener MessageHandler, opts *SubscriptionOptions) (*Subscription, error)
	Unsubscribe(ctx context.Context, sub *Subscription) error
	Publish(ctx context.Context, topic string, message any, opts *PublishOptions) error
}

// IsPointToPoint reports whether opts address a single destination.
func (o *PublishOptions) IsPointToPoint() bool {
	return o != nil && o.UUID != ""
}
