package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

type watchKey struct {
	win   xproto.Window
	event string
}

// Watch registers fn for event on win. One xevent callback is connected per
// (window, event) pair and fans out to the watchers registered for it, so a
// detach only touches deskbridge's own table.
func (c *Connection) Watch(win xproto.Window, event string, fn EventFunc) (func(), error) {
	key := watchKey{win: win, event: event}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hooked[key] {
		if err := c.hook(key); err != nil {
			return nil, err
		}
		c.hooked[key] = true
	}

	c.nextID++
	id := c.nextID
	if c.watchers[key] == nil {
		c.watchers[key] = make(map[uint64]EventFunc)
	}
	c.watchers[key][id] = fn
	c.startEventLoop()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.watchers[key], id)
	}, nil
}

func (c *Connection) dispatch(key watchKey, details map[string]any) {
	c.mu.Lock()
	fns := make([]EventFunc, 0, len(c.watchers[key]))
	for _, fn := range c.watchers[key] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(details)
	}
}

// hook selects the event mask for key and connects the xevent callback.
func (c *Connection) hook(key watchKey) error {
	xw := xwindow.New(c.XUtil, key.win)
	var mask int
	switch key.event {
	case EventConfigureNotify, EventDestroyNotify, EventUnmapNotify, EventMapNotify:
		mask = xproto.EventMaskStructureNotify
	case EventFocusIn, EventFocusOut:
		mask = xproto.EventMaskFocusChange
	case EventClientMessage:
		// client messages are delivered regardless of the event mask
	default:
		return fmt.Errorf("unsupported X event %q", key.event)
	}
	if mask != 0 {
		// Listen replaces the mask, so keep every mask ever requested.
		if err := xw.Listen(c.maskFor(key.win) | mask); err != nil {
			return fmt.Errorf("failed to select events on %s: %w", FormatWindowID(key.win), err)
		}
	}

	switch key.event {
	case EventConfigureNotify:
		xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
			c.dispatch(key, map[string]any{
				"x": int(ev.X), "y": int(ev.Y),
				"width": int(ev.Width), "height": int(ev.Height),
			})
		}).Connect(c.XUtil, key.win)
	case EventDestroyNotify:
		xevent.DestroyNotifyFun(func(*xgbutil.XUtil, xevent.DestroyNotifyEvent) {
			c.dispatch(key, map[string]any{})
		}).Connect(c.XUtil, key.win)
	case EventUnmapNotify:
		xevent.UnmapNotifyFun(func(*xgbutil.XUtil, xevent.UnmapNotifyEvent) {
			c.dispatch(key, map[string]any{})
		}).Connect(c.XUtil, key.win)
	case EventMapNotify:
		xevent.MapNotifyFun(func(*xgbutil.XUtil, xevent.MapNotifyEvent) {
			c.dispatch(key, map[string]any{})
		}).Connect(c.XUtil, key.win)
	case EventFocusIn:
		xevent.FocusInFun(func(_ *xgbutil.XUtil, ev xevent.FocusInEvent) {
			c.dispatch(key, map[string]any{"mode": int(ev.Mode)})
		}).Connect(c.XUtil, key.win)
	case EventFocusOut:
		xevent.FocusOutFun(func(_ *xgbutil.XUtil, ev xevent.FocusOutEvent) {
			c.dispatch(key, map[string]any{"mode": int(ev.Mode)})
		}).Connect(c.XUtil, key.win)
	case EventClientMessage:
		xevent.ClientMessageFun(func(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
			name, err := xprop.AtomName(xu, ev.Type)
			if err != nil {
				name = ""
			}
			c.dispatch(key, map[string]any{"type": name})
		}).Connect(c.XUtil, key.win)
	}
	return nil
}

// maskFor is the union of masks already selected on win. Callers hold c.mu.
func (c *Connection) maskFor(win xproto.Window) int {
	mask := 0
	for key := range c.hooked {
		if key.win != win {
			continue
		}
		switch key.event {
		case EventConfigureNotify, EventDestroyNotify, EventUnmapNotify, EventMapNotify:
			mask |= xproto.EventMaskStructureNotify
		case EventFocusIn, EventFocusOut:
			mask |= xproto.EventMaskFocusChange
		}
	}
	return mask
}
