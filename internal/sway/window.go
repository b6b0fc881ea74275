package sway

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/deskbridge/container"
)

// Events maps canonical event names to sway window event changes.
var Events = map[string]string{
	"move":     "move",
	"closed":   "close",
	"focus":    "focus",
	"maximize": "fullscreen_mode",
}

// Mark prefixes deskbridge uses to tag views.
const (
	NameMarkPrefix = "deskbridge:"
	URLMarkPrefix  = "deskbridge-url:"
)

const snapshotPrefix = "data:image/png;base64,"

// Window wraps one sway view, addressed by con_id.
type Window struct {
	container.NoGrouping

	ipc    IPC
	id     int64
	events *eventHub
	// listeners maps (event, listener) to the hub registration.
	listeners container.ListenerTable[uint64]
}

var (
	_ container.Window = (*Window)(nil)
	_ container.URLer  = (*Window)(nil)
)

func newWindow(ipc IPC, id int64, events *eventHub) *Window {
	return &Window{ipc: ipc, id: id, events: events}
}

// ConID returns the sway container id.
func (w *Window) ConID() int64 { return w.id }

func (w *Window) ID() string { return strconv.FormatInt(w.id, 10) }

// Name is the deskbridge mark when the view has one, otherwise its title.
func (w *Window) Name() string {
	v, err := w.view(context.Background())
	if err != nil {
		return ""
	}
	if name := markValue(v.Marks, NameMarkPrefix); name != "" {
		return name
	}
	return v.Name
}

func (w *Window) Native() any { return w.id }

// view re-reads the tree; nothing about the view is cached.
func (w *Window) view(ctx context.Context) (View, error) {
	views, err := w.ipc.Views(ctx)
	if err != nil {
		return View{}, err
	}
	for _, v := range views {
		if v.ID == w.id {
			return v, nil
		}
	}
	return View{}, fmt.Errorf("no view with con_id %d", w.id)
}

func (w *Window) run(ctx context.Context, op, cmd string) error {
	return container.Call0(ctx, op, func() error {
		return w.ipc.Command(ctx, fmt.Sprintf("[con_id=%d] %s", w.id, cmd))
	})
}

func (w *Window) Focus(ctx context.Context) error { return w.run(ctx, "focus", "focus") }

// Show brings a view back from the scratchpad. Visible views are left alone.
func (w *Window) Show(ctx context.Context) error {
	showing, err := w.IsShowing(ctx)
	if err != nil {
		return err
	}
	if showing {
		return nil
	}
	return w.run(ctx, "show", "scratchpad show, floating disable")
}

// Hide moves the view to the scratchpad.
func (w *Window) Hide(ctx context.Context) error {
	return w.run(ctx, "hide", "move scratchpad")
}

// Close asks the client to close. sway has no forced variant.
func (w *Window) Close(ctx context.Context, force bool) error {
	return w.run(ctx, "close", "kill")
}

func (w *Window) IsShowing(ctx context.Context) (bool, error) {
	v, err := container.Call(ctx, "isShowing", func() (View, error) { return w.view(ctx) })
	if err != nil {
		return false, err
	}
	return v.Visible, nil
}

func (w *Window) Snapshot(ctx context.Context) (string, error) {
	data, err := container.Call(ctx, "snapshot", func() ([]byte, error) {
		v, err := w.view(ctx)
		if err != nil {
			return nil, err
		}
		return w.ipc.Capture(ctx, v.Rect)
	})
	if err != nil {
		return "", err
	}
	return snapshotPrefix + base64.StdEncoding.EncodeToString(data), nil
}

func (w *Window) Bounds(ctx context.Context) (container.Bounds, error) {
	v, err := container.Call(ctx, "getBounds", func() (View, error) { return w.view(ctx) })
	if err != nil {
		return container.Bounds{}, err
	}
	return v.Rect, nil
}

// SetBounds floats the view so it can take an absolute geometry.
func (w *Window) SetBounds(ctx context.Context, b container.Bounds) error {
	return w.run(ctx, "setBounds", fmt.Sprintf(
		"floating enable, move absolute position %d %d, resize set %d %d",
		b.X, b.Y, b.Width, b.Height))
}

func (w *Window) Flash(ctx context.Context, enable bool) error {
	if enable {
		return w.run(ctx, "flash", "urgent enable")
	}
	return w.run(ctx, "flash", "urgent disable")
}

// URL returns the page deskbridge opened in this view, if it did.
func (w *Window) URL(ctx context.Context) (string, error) {
	v, err := container.Call(ctx, "getUrl", func() (View, error) { return w.view(ctx) })
	if err != nil {
		return "", err
	}
	return markValue(v.Marks, URLMarkPrefix), nil
}

func (w *Window) AddListener(event string, l *container.Listener) error {
	if l == nil {
		return fmt.Errorf("listener for %q is nil", event)
	}
	native := container.MapEventName(Events, event)
	id := w.events.add(w.id, native, func(ev WindowEvent) {
		l.Handle(container.Event{
			Name:   event,
			Window: w,
			Details: map[string]any{
				"change": ev.Change,
				"bounds": ev.View.Rect,
				"title":  ev.View.Name,
			},
		})
	})
	if err := w.listeners.Put(event, l, id); err != nil {
		w.events.remove(id)
		return err
	}
	return nil
}

func (w *Window) RemoveListener(event string, l *container.Listener) error {
	if id, ok := w.listeners.Take(event, l); ok {
		w.events.remove(id)
	}
	return nil
}

func markValue(marks []string, prefix string) string {
	for _, m := range marks {
		if strings.HasPrefix(m, prefix) {
			return strings.TrimPrefix(m, prefix)
		}
	}
	return ""
}

// quote renders s as a sway command string argument.
func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
