package tui

import (
	"context"
	"errors"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/bus"
)

type fakeWindow struct {
	container.NoGrouping
	id      string
	name    string
	bounds  container.Bounds
	hidden  bool
	focused int
	flashed int
	closed  int
	fail    error
}

func (w *fakeWindow) ID() string                                       { return w.id }
func (w *fakeWindow) Name() string                                     { return w.name }
func (w *fakeWindow) Native() any                                      { return w }
func (w *fakeWindow) Snapshot(context.Context) (string, error)         { return "", nil }
func (w *fakeWindow) AddListener(string, *container.Listener) error    { return nil }
func (w *fakeWindow) RemoveListener(string, *container.Listener) error { return nil }
func (w *fakeWindow) IsShowing(context.Context) (bool, error)          { return !w.hidden, nil }
func (w *fakeWindow) Bounds(context.Context) (container.Bounds, error) { return w.bounds, nil }

func (w *fakeWindow) SetBounds(_ context.Context, b container.Bounds) error {
	w.bounds = b
	return nil
}

func (w *fakeWindow) Show(context.Context) error {
	if w.fail != nil {
		return w.fail
	}
	w.hidden = false
	return nil
}

func (w *fakeWindow) Hide(context.Context) error {
	if w.fail != nil {
		return w.fail
	}
	w.hidden = true
	return nil
}

func (w *fakeWindow) Focus(context.Context) error {
	if w.fail != nil {
		return w.fail
	}
	w.focused++
	return nil
}

func (w *fakeWindow) Flash(context.Context, bool) error {
	w.flashed++
	return nil
}

func (w *fakeWindow) Close(context.Context, bool) error {
	if w.fail != nil {
		return w.fail
	}
	w.closed++
	return nil
}

type fakeHost struct {
	container.Emitter
	container.NoTray

	windows []*fakeWindow
	listErr error
}

func (h *fakeHost) HostType() string                { return "Fake" }
func (h *fakeHost) UUID() string                    { return "host-uuid" }
func (h *fakeHost) Bus() container.MessageBus       { return bus.NewHub().Endpoint("host-uuid", "") }
func (h *fakeHost) CurrentWindow() container.Window { return h.MainWindow() }

func (h *fakeHost) MainWindow() container.Window {
	if len(h.windows) == 0 {
		return nil
	}
	return h.windows[0]
}

func (h *fakeHost) CreateWindow(context.Context, string, *container.WindowOptions) (container.Window, error) {
	return nil, container.Unsupported("window creation")
}

func (h *fakeHost) AllWindows(context.Context) ([]container.Window, error) {
	if h.listErr != nil {
		return nil, h.listErr
	}
	out := make([]container.Window, len(h.windows))
	for i, w := range h.windows {
		out[i] = w
	}
	return out, nil
}

func (h *fakeHost) WindowByID(context.Context, string) (container.Window, error)   { return nil, nil }
func (h *fakeHost) WindowByName(context.Context, string) (container.Window, error) { return nil, nil }
func (h *fakeHost) CloseAllWindows(context.Context) error                          { return nil }

func (h *fakeHost) SaveLayout(context.Context, string) (*container.Layout, error) {
	return nil, errors.New("not used")
}

func (h *fakeHost) ShowNotification(string, *container.NotificationOptions) error { return nil }
