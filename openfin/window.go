package openfin

import (
	"context"
	"fmt"

	"github.com/1broseidon/deskbridge/container"
)

// windowEventMap maps canonical event names to OpenFin window events.
// Names missing from the map are passed through unchanged.
var windowEventMap = map[string]string{
	"move":     "bounds-changing",
	"resize":   "bounds-changing",
	"close":    "close-requested",
	"focus":    "focused",
	"blur":     "blurred",
	"maximize": "maximized",
	"minimize": "minimized",
	"restore":  "restored",
}

// Window wraps one fin.desktop.Window.
type Window struct {
	native    NativeWindow
	listeners container.ListenerTable[*EventHandler]
}

var (
	_ container.Window = (*Window)(nil)
	_ container.URLer  = (*Window)(nil)
)

// NewWindow wraps native.
func NewWindow(native NativeWindow) *Window {
	return &Window{native: native}
}

// ID is the native window name; OpenFin addresses windows by name.
func (w *Window) ID() string { return w.native.Name() }

func (w *Window) Name() string { return w.native.Name() }

func (w *Window) Native() any { return w.native }

// Inner returns the wrapped runtime window.
func (w *Window) Inner() NativeWindow { return w.native }

func (w *Window) Focus(ctx context.Context) error {
	return container.Await0(ctx, "focus", w.native.Focus)
}

func (w *Window) Show(ctx context.Context) error {
	return container.Await0(ctx, "show", w.native.Show)
}

func (w *Window) Hide(ctx context.Context) error {
	return container.Await0(ctx, "hide", w.native.Hide)
}

func (w *Window) Close(ctx context.Context, force bool) error {
	return container.Await0(ctx, "close", func(done func(), fail func(string)) {
		w.native.Close(force, done, fail)
	})
}

func (w *Window) IsShowing(ctx context.Context) (bool, error) {
	return container.Await(ctx, "isShowing", w.native.IsShowing)
}

func (w *Window) Snapshot(ctx context.Context) (string, error) {
	data, err := container.Await(ctx, "getSnapshot", w.native.GetSnapshot)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + data, nil
}

func (w *Window) Bounds(ctx context.Context) (container.Bounds, error) {
	b, err := container.Await(ctx, "getBounds", w.native.GetBounds)
	if err != nil {
		return container.Bounds{}, err
	}
	return container.Bounds{X: b.Left, Y: b.Top, Width: b.Width, Height: b.Height}, nil
}

func (w *Window) SetBounds(ctx context.Context, b container.Bounds) error {
	return container.Await0(ctx, "setBounds", func(done func(), fail func(string)) {
		w.native.SetBounds(b.X, b.Y, b.Width, b.Height, done, fail)
	})
}

func (w *Window) Flash(ctx context.Context, enable bool) error {
	if enable {
		return container.Await0(ctx, "flash", func(done func(), fail func(string)) {
			w.native.Flash(&FlashOptions{}, done, fail)
		})
	}
	return container.Await0(ctx, "stopFlashing", w.native.StopFlashing)
}

// URL reports the URL the window was created with.
func (w *Window) URL(ctx context.Context) (string, error) {
	opts, err := container.Await(ctx, "getOptions", w.native.GetOptions)
	if err != nil {
		return "", err
	}
	return opts.URL, nil
}

func (w *Window) AllowGrouping() bool { return true }

func (w *Window) Group(ctx context.Context) ([]container.Window, error) {
	natives, err := container.Await(ctx, "getGroup", w.native.GetGroup)
	if err != nil {
		return nil, err
	}
	windows := make([]container.Window, 0, len(natives))
	for _, n := range natives {
		windows = append(windows, NewWindow(n))
	}
	return windows, nil
}

// JoinGroup joins target's group. Joining a window that wraps the same
// native handle is a no-op.
func (w *Window) JoinGroup(ctx context.Context, target container.Window) error {
	if target == nil {
		return fmt.Errorf("join group: target window is nil")
	}
	if container.SameHandle(w, target) {
		return nil
	}
	native, ok := target.Native().(NativeWindow)
	if !ok {
		return fmt.Errorf("join group: target %q is not an OpenFin window", target.Name())
	}
	return container.Await0(ctx, "joinGroup", func(done func(), fail func(string)) {
		w.native.JoinGroup(native, done, fail)
	})
}

func (w *Window) LeaveGroup(ctx context.Context) error {
	return container.Await0(ctx, "leaveGroup", w.native.LeaveGroup)
}

// AddListener registers l for the canonical event. The listener receives the
// runtime's event payload as Details.
func (w *Window) AddListener(event string, l *container.Listener) error {
	handler := &EventHandler{
		Handle: func(payload map[string]any) {
			l.Handle(container.Event{Name: event, Window: w, Details: normalizePayload(payload)})
		},
	}
	if err := w.listeners.Put(event, l, handler); err != nil {
		return err
	}
	native := container.MapEventName(windowEventMap, event)
	err := container.Await0(context.Background(), "addEventListener", func(done func(), fail func(string)) {
		w.native.AddEventListener(native, handler, done, fail)
	})
	if err != nil {
		w.listeners.Take(event, l)
		return err
	}
	return nil
}

// RemoveListener unregisters l. The runtime is always asked to remove the
// mapped event, even for a listener this wrapper never registered.
func (w *Window) RemoveListener(event string, l *container.Listener) error {
	handler, ok := w.listeners.Take(event, l)
	if !ok {
		handler = &EventHandler{}
	}
	native := container.MapEventName(windowEventMap, event)
	return container.Await0(context.Background(), "removeEventListener", func(done func(), fail func(string)) {
		w.native.RemoveEventListener(native, handler, done, fail)
	})
}

// normalizePayload adds a "bounds" entry for payloads that carry the
// runtime's left/top/width/height fields.
func normalizePayload(payload map[string]any) map[string]any {
	details := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		details[k] = v
	}
	left, okL := toInt(payload["left"])
	top, okT := toInt(payload["top"])
	width, okW := toInt(payload["width"])
	height, okH := toInt(payload["height"])
	if okL && okT && okW && okH {
		details["bounds"] = container.Bounds{X: left, Y: top, Width: width, Height: height}
	}
	return details
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
