// Package bus provides message buses that are not tied to a desktop host:
// an in-process hub and a unix socket broker with its client.
package bus

import (
	"sync"

	"github.com/1broseidon/deskbridge/container"
)

// Identity is the (uuid, name) address of a bus participant.
type Identity struct {
	UUID string `json:"uuid"`
	Name string `json:"name,omitempty"`
}

// route is one subscription held by one participant.
type route[O comparable] struct {
	owner O
	id    Identity
	sub   *container.Subscription
}

// router matches publishes against subscriptions. Both the in-process hub
// and the socket broker route through it.
type router[O comparable] struct {
	mu     sync.RWMutex
	routes []*route[O]
}

func (r *router[O]) add(owner O, id Identity, sub *container.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, &route[O]{owner: owner, id: id, sub: sub})
}

// remove drops the route for sub and reports whether it existed.
func (r *router[O]) remove(owner O, sub *container.Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rt := range r.routes {
		if rt.owner == owner && rt.sub == sub {
			r.routes = append(r.routes[:i:i], r.routes[i+1:]...)
			return true
		}
	}
	return false
}

// removeOwner drops every route held by owner.
func (r *router[O]) removeOwner(owner O) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.routes[:0]
	for _, rt := range r.routes {
		if rt.owner != owner {
			kept = append(kept, rt)
		}
	}
	for i := len(kept); i < len(r.routes); i++ {
		r.routes[i] = nil
	}
	r.routes = kept
}

// match returns, in registration order, the routes a message on topic from
// sender reaches. A point-to-point publish only reaches participants whose
// identity matches dest.
func (r *router[O]) match(topic string, sender Identity, dest *container.PublishOptions) []*route[O] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*route[O]
	for _, rt := range r.routes {
		if rt.sub.Topic != topic {
			continue
		}
		if dest.IsPointToPoint() {
			if rt.id.UUID != dest.UUID {
				continue
			}
			if dest.Name != "" && rt.id.Name != dest.Name {
				continue
			}
		}
		if !rt.sub.Matches(sender.UUID, sender.Name) {
			continue
		}
		out = append(out, rt)
	}
	return out
}
