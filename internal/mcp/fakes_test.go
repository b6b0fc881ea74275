package mcp

import (
	"context"
	"errors"
	"time"

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
	closed  []bool
	failAll error
}

func (w *fakeWindow) ID() string                                       { return w.id }
func (w *fakeWindow) Name() string                                     { return w.name }
func (w *fakeWindow) Native() any                                      { return w }
func (w *fakeWindow) Show(context.Context) error                       { w.hidden = false; return nil }
func (w *fakeWindow) Hide(context.Context) error                       { w.hidden = true; return nil }
func (w *fakeWindow) Snapshot(context.Context) (string, error)         { return "", nil }
func (w *fakeWindow) Flash(context.Context, bool) error                { return nil }
func (w *fakeWindow) AddListener(string, *container.Listener) error    { return nil }
func (w *fakeWindow) RemoveListener(string, *container.Listener) error { return nil }

func (w *fakeWindow) Focus(context.Context) error {
	if w.failAll != nil {
		return w.failAll
	}
	w.focused++
	return nil
}

func (w *fakeWindow) Close(_ context.Context, force bool) error {
	if w.failAll != nil {
		return w.failAll
	}
	w.closed = append(w.closed, force)
	return nil
}

func (w *fakeWindow) IsShowing(context.Context) (bool, error) {
	if w.failAll != nil {
		return false, w.failAll
	}
	return !w.hidden, nil
}

func (w *fakeWindow) Bounds(context.Context) (container.Bounds, error) {
	if w.failAll != nil {
		return container.Bounds{}, w.failAll
	}
	return w.bounds, nil
}

func (w *fakeWindow) SetBounds(_ context.Context, b container.Bounds) error {
	if w.failAll != nil {
		return w.failAll
	}
	w.bounds = b
	return nil
}

type fakeHost struct {
	container.Emitter
	container.NoTray

	windows       []*fakeWindow
	bus           *bus.Local
	notifications []string
	notifyErr     error
	layouts       []string
}

func newFakeHost(windows ...*fakeWindow) *fakeHost {
	return &fakeHost{windows: windows, bus: bus.NewHub().Endpoint("host-uuid", "")}
}

func (h *fakeHost) HostType() string                { return "Fake" }
func (h *fakeHost) UUID() string                    { return "host-uuid" }
func (h *fakeHost) Bus() container.MessageBus       { return h.bus }
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
	out := make([]container.Window, len(h.windows))
	for i, w := range h.windows {
		out[i] = w
	}
	return out, nil
}

func (h *fakeHost) WindowByID(_ context.Context, id string) (container.Window, error) {
	for _, w := range h.windows {
		if w.id == id {
			return w, nil
		}
	}
	return nil, nil
}

func (h *fakeHost) WindowByName(_ context.Context, name string) (container.Window, error) {
	for _, w := range h.windows {
		if w.name == name {
			return w, nil
		}
	}
	return nil, nil
}

func (h *fakeHost) CloseAllWindows(ctx context.Context) error {
	windows, _ := h.AllWindows(ctx)
	return container.CloseAll(ctx, windows)
}

func (h *fakeHost) SaveLayout(ctx context.Context, name string) (*container.Layout, error) {
	if name == "bad/name" {
		return nil, errors.New("invalid layout name")
	}
	h.layouts = append(h.layouts, name)
	windows, _ := h.AllWindows(ctx)
	layout, err := container.CaptureLayout(ctx, name, windows, h.MainWindow())
	if err != nil {
		return nil, err
	}
	layout.SavedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return layout, nil
}

func (h *fakeHost) ShowNotification(title string, _ *container.NotificationOptions) error {
	if h.notifyErr != nil {
		return h.notifyErr
	}
	h.notifications = append(h.notifications, title)
	return nil
}
