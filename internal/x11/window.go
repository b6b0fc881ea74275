package x11

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/deskbridge/container"
)

// Events maps canonical event names to the X events that signal them.
var Events = map[string]string{
	"move":     EventConfigureNotify,
	"resize":   EventConfigureNotify,
	"close":    EventClientMessage,
	"closed":   EventDestroyNotify,
	"focus":    EventFocusIn,
	"blur":     EventFocusOut,
	"minimize": EventUnmapNotify,
	"restore":  EventMapNotify,
}

const snapshotPrefix = "data:image/png;base64,"

// Window wraps one X client window.
type Window struct {
	container.NoGrouping

	display   Display
	win       xproto.Window
	listeners container.ListenerTable[func()]
}

var (
	_ container.Window = (*Window)(nil)
	_ container.URLer  = (*Window)(nil)
)

func NewWindow(display Display, win xproto.Window) *Window {
	return &Window{display: display, win: win}
}

// XID returns the X window id.
func (w *Window) XID() xproto.Window { return w.win }

func (w *Window) ID() string { return FormatWindowID(w.win) }

// Name is the deskbridge tag when the window has one, otherwise its title.
func (w *Window) Name() string {
	if name, err := w.display.Property(w.win, NameProperty); err == nil && name != "" {
		return name
	}
	return w.display.Title(w.win)
}

func (w *Window) Native() any { return w.win }

func (w *Window) Focus(ctx context.Context) error {
	return container.Call0(ctx, "focus", func() error { return w.display.Activate(w.win) })
}

func (w *Window) Show(ctx context.Context) error {
	return container.Call0(ctx, "show", func() error { return w.display.Map(w.win) })
}

func (w *Window) Hide(ctx context.Context) error {
	return container.Call0(ctx, "hide", func() error { return w.display.Iconify(w.win) })
}

// Close asks the client to close. force disconnects the client instead.
func (w *Window) Close(ctx context.Context, force bool) error {
	if force {
		return container.Call0(ctx, "close", func() error { return w.display.Kill(w.win) })
	}
	return container.Call0(ctx, "close", func() error { return w.display.RequestClose(w.win) })
}

func (w *Window) IsShowing(ctx context.Context) (bool, error) {
	return container.Call(ctx, "isShowing", func() (bool, error) { return w.display.IsViewable(w.win) })
}

func (w *Window) Snapshot(ctx context.Context) (string, error) {
	data, err := container.Call(ctx, "snapshot", func() ([]byte, error) { return w.display.CapturePNG(w.win) })
	if err != nil {
		return "", err
	}
	return snapshotPrefix + base64.StdEncoding.EncodeToString(data), nil
}

func (w *Window) Bounds(ctx context.Context) (container.Bounds, error) {
	return container.Call(ctx, "getBounds", func() (container.Bounds, error) { return w.display.Geometry(w.win) })
}

func (w *Window) SetBounds(ctx context.Context, b container.Bounds) error {
	return container.Call0(ctx, "setBounds", func() error { return w.display.MoveResize(w.win, b) })
}

// Flash toggles _NET_WM_STATE_DEMANDS_ATTENTION.
func (w *Window) Flash(ctx context.Context, enable bool) error {
	return container.Call0(ctx, "flash", func() error { return w.display.SetDemandsAttention(w.win, enable) })
}

// URL returns the page deskbridge opened in this window, if it did.
func (w *Window) URL(ctx context.Context) (string, error) {
	return container.Call(ctx, "getUrl", func() (string, error) { return w.display.Property(w.win, URLProperty) })
}

func (w *Window) AddListener(event string, l *container.Listener) error {
	if l == nil {
		return fmt.Errorf("listener for %q is nil", event)
	}
	native := container.MapEventName(Events, event)
	handler := func(details map[string]any) {
		l.Handle(container.Event{Name: event, Window: w, Details: normalizePayload(details)})
	}
	detach, err := w.display.Watch(w.win, native, handler)
	if err != nil {
		if _, known := Events[event]; !known {
			return container.Unsupported("event " + event)
		}
		return container.NewNativeError("addEventListener", err.Error())
	}
	if err := w.listeners.Put(event, l, detach); err != nil {
		detach()
		return err
	}
	return nil
}

// RemoveListener detaches the watcher registered for (event, l). Removing
// an unknown listener is a no-op.
func (w *Window) RemoveListener(event string, l *container.Listener) error {
	if detach, ok := w.listeners.Take(event, l); ok && detach != nil {
		detach()
	}
	return nil
}

// normalizePayload adds a "bounds" entry when the event carries geometry.
func normalizePayload(details map[string]any) map[string]any {
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	x, okX := details["x"].(int)
	y, okY := details["y"].(int)
	width, okW := details["width"].(int)
	height, okH := details["height"].(int)
	if okX && okY && okW && okH {
		out["bounds"] = container.Bounds{X: x, Y: y, Width: width, Height: height}
	}
	return out
}
