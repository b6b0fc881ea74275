package sway

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// eventHub shares one sway window-event subscription between every
// listener of a container. The subscription starts with the first
// listener and lives until the container is closed.
type eventHub struct {
	ipc    IPC
	logger *zap.Logger

	mu       sync.Mutex
	nextID   uint64
	handlers map[uint64]hubEntry
	started  bool
	ctx      context.Context
	cancel   context.CancelFunc
}

type hubEntry struct {
	conID  int64
	change string
	fn     func(WindowEvent)
}

func newEventHub(ipc IPC, logger *zap.Logger) *eventHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &eventHub{
		ipc:      ipc,
		logger:   logger,
		handlers: make(map[uint64]hubEntry),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (h *eventHub) add(conID int64, change string, fn func(WindowEvent)) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.handlers[id] = hubEntry{conID: conID, change: change, fn: fn}
	if !h.started {
		h.started = true
		go h.run()
	}
	return id
}

func (h *eventHub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers, id)
}

func (h *eventHub) run() {
	err := h.ipc.SubscribeWindows(h.ctx, h.dispatch)
	if err != nil && h.ctx.Err() == nil {
		h.logger.Warn("sway event subscription ended", zap.Error(err))
	}
}

// dispatch calls matching handlers in registration order.
func (h *eventHub) dispatch(ev WindowEvent) {
	h.mu.Lock()
	var ids []uint64
	for id, e := range h.handlers {
		if e.conID == ev.View.ID && e.change == ev.Change {
			ids = append(ids, id)
		}
	}
	fns := make([]func(WindowEvent), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, h.handlers[id].fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (h *eventHub) close() {
	h.cancel()
}
