package x11

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/deskbridge/container"
)

// Properties deskbridge stores on windows it creates.
const (
	NameProperty = "_DESKBRIDGE_NAME"
	URLProperty  = "_DESKBRIDGE_URL"
)

// Native X event names a listener can watch.
const (
	EventConfigureNotify = "ConfigureNotify"
	EventClientMessage   = "ClientMessage"
	EventDestroyNotify   = "DestroyNotify"
	EventFocusIn         = "FocusIn"
	EventFocusOut        = "FocusOut"
	EventUnmapNotify     = "UnmapNotify"
	EventMapNotify       = "MapNotify"
)

// EventFunc receives the decoded payload of a native X event.
type EventFunc func(details map[string]any)

// Display is the native boundary of the X11 adapter. *Connection implements
// it over xgbutil; every call is synchronous.
type Display interface {
	Clients() ([]xproto.Window, error)
	ActiveWindow() (xproto.Window, error)
	IsNormalWindow(win xproto.Window) bool
	Title(win xproto.Window) string

	Property(win xproto.Window, name string) (string, error)
	SetProperty(win xproto.Window, name, value string) error

	Geometry(win xproto.Window) (container.Bounds, error)
	MoveResize(win xproto.Window, b container.Bounds) error
	WorkArea() (container.Bounds, error)

	Activate(win xproto.Window) error
	Map(win xproto.Window) error
	Iconify(win xproto.Window) error
	IsViewable(win xproto.Window) (bool, error)
	RequestClose(win xproto.Window) error
	Kill(win xproto.Window) error
	SetDemandsAttention(win xproto.Window, on bool) error
	CapturePNG(win xproto.Window) ([]byte, error)

	// Watch registers fn for a native event on win and returns its detach
	// function.
	Watch(win xproto.Window, event string, fn EventFunc) (func(), error)
}

// FormatWindowID renders a window id the way xprop and xwininfo do.
func FormatWindowID(win xproto.Window) string {
	return fmt.Sprintf("0x%x", uint32(win))
}

// ParseWindowID accepts hex ("0x3a00007") or decimal window ids.
func ParseWindowID(s string) (xproto.Window, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", s, err)
	}
	return xproto.Window(v), nil
}
