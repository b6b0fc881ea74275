package container

import (
	"fmt"
	"sync"
)

// Event is delivered to listeners. Details carries the normalized native
// payload; its keys depend on the event.
type Event struct {
	Name    string
	Window  Window
	Details map[string]any
}

// Listener is a caller-owned event callback. Its pointer is its identity:
// pass the same *Listener to RemoveListener that was given to AddListener.
type Listener struct {
	fn func(Event)
}

// NewListener wraps fn.
func NewListener(fn func(Event)) *Listener {
	return &Listener{fn: fn}
}

// Handle invokes the callback. A nil listener or callback is ignored.
func (l *Listener) Handle(e Event) {
	if l == nil || l.fn == nil {
		return
	}
	l.fn(e)
}

// MapEventName returns the native name for a canonical event, or the
// canonical name unchanged when the table has no entry.
func MapEventName(table map[string]string, canonical string) string {
	if native, ok := table[canonical]; ok {
		return native
	}
	return canonical
}

type listenerKey struct {
	event    string
	listener *Listener
}

// ListenerTable remembers the native wrapper registered for each
// (canonical event, listener) pair so removal can hand the host the exact
// wrapper it was given.
type ListenerTable[W any] struct {
	mu       sync.Mutex
	wrappers map[listenerKey]W
}

// Put records w. It fails if the pair is already registered.
func (t *ListenerTable[W]) Put(event string, l *Listener, w W) error {
	if l == nil {
		return fmt.Errorf("listener for %q is nil", event)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.wrappers == nil {
		t.wrappers = make(map[listenerKey]W)
	}
	key := listenerKey{event: event, listener: l}
	if _, ok := t.wrappers[key]; ok {
		return fmt.Errorf("listener already registered for %q", event)
	}
	t.wrappers[key] = w
	return nil
}

// Take removes and returns the wrapper for the pair.
func (t *ListenerTable[W]) Take(event string, l *Listener) (W, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := listenerKey{event: event, listener: l}
	w, ok := t.wrappers[key]
	if ok {
		delete(t.wrappers, key)
	}
	return w, ok
}

// Len returns the number of registered wrappers.
func (t *ListenerTable[W]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.wrappers)
}

// Emitter dispatches container-level events in registration order.
type Emitter struct {
	mu        sync.Mutex
	listeners map[string][]*Listener
}

// AddListener registers l for event.
func (e *Emitter) AddListener(event string, l *Listener) error {
	if l == nil {
		return fmt.Errorf("listener for %q is nil", event)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]*Listener)
	}
	e.listeners[event] = append(e.listeners[event], l)
	return nil
}

// RemoveListener unregisters l for event. Removing an unknown listener is a
// no-op.
func (e *Emitter) RemoveListener(event string, l *Listener) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.listeners[event]
	for i, existing := range list {
		if existing == l {
			e.listeners[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// Emit calls every listener for ev.Name synchronously.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	list := append([]*Listener(nil), e.listeners[ev.Name]...)
	e.mu.Unlock()
	for _, l := range list {
		l.Handle(ev)
	}
}
