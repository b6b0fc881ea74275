package x11

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/deskbridge/container"
)

const sourcePager = 2 // EWMH source indication: direct user action

// Clients returns the EWMH client list.
func (c *Connection) Clients() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

func (c *Connection) ActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil {
		return true
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP", "_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH", "_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}
	return len(types) == 0
}

// Title prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) Title(win xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, win); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, win); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// Property reads a UTF8 string property. A missing property is "".
func (c *Connection) Property(win xproto.Window, name string) (string, error) {
	reply, err := xprop.GetProperty(c.XUtil, win, name)
	if err != nil {
		if strings.Contains(err.Error(), "No such property") {
			return "", nil
		}
		return "", err
	}
	return xprop.PropValStr(reply, nil)
}

func (c *Connection) SetProperty(win xproto.Window, name, value string) error {
	return xprop.ChangeProp(c.XUtil, win, 8, name, "UTF8_STRING", []byte(value))
}

// Geometry returns the client geometry translated to root coordinates.
func (c *Connection) Geometry(win xproto.Window) (container.Bounds, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return container.Bounds{}, fmt.Errorf("failed to get geometry: %w", err)
	}
	pos, err := xproto.TranslateCoordinates(c.XUtil.Conn(), win, c.Root, 0, 0).Reply()
	if err != nil {
		return container.Bounds{}, fmt.Errorf("failed to translate coordinates: %w", err)
	}
	return container.Bounds{
		X:      int(pos.DstX),
		Y:      int(pos.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// MoveResize unmaximizes win and moves it through the window manager,
// falling back to a direct configure request.
func (c *Connection) MoveResize(win xproto.Window, b container.Bounds) error {
	c.unmaximize(win)
	if err := ewmh.MoveresizeWindow(c.XUtil, win, b.X, b.Y, b.Width, b.Height); err != nil {
		xwindow.New(c.XUtil, win).MoveResize(b.X, b.Y, b.Width, b.Height)
	}
	return nil
}

// unmaximize drops the maximized states, which would otherwise make the
// window manager ignore the new geometry.
func (c *Connection) unmaximize(win xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, win)
	if err != nil {
		return
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			ewmh.WmStateReq(c.XUtil, win, ewmh.StateRemove, state)
		}
	}
}

// Activate raises and focuses win via _NET_ACTIVE_WINDOW.
func (c *Connection) Activate(win xproto.Window) error {
	return c.sendRootMessage(win, "_NET_ACTIVE_WINDOW", sourcePager)
}

func (c *Connection) Map(win xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), win).Check()
}

// Iconify minimizes win via WM_CHANGE_STATE.
func (c *Connection) Iconify(win xproto.Window) error {
	const iconicState = 3
	return c.sendRootMessage(win, "WM_CHANGE_STATE", iconicState)
}

// IsViewable reports whether win is mapped and not hidden by the window
// manager.
func (c *Connection) IsViewable(win xproto.Window) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to get window attributes: %w", err)
	}
	if attrs.MapState != xproto.MapStateViewable {
		return false, nil
	}
	states, err := ewmh.WmStateGet(c.XUtil, win)
	if err != nil {
		return true, nil
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return false, nil
		}
	}
	return true, nil
}

// RequestClose asks the client to close via WM_DELETE_WINDOW.
func (c *Connection) RequestClose(win xproto.Window) error {
	deleteAtom, err := c.internAtom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocols, err := c.internAtom("WM_PROTOCOLS")
	if err != nil {
		return err
	}
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   protocols,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}
	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		win,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

// Kill disconnects the client owning win.
func (c *Connection) Kill(win xproto.Window) error {
	return xproto.KillClientChecked(c.XUtil.Conn(), uint32(win)).Check()
}

func (c *Connection) SetDemandsAttention(win xproto.Window, on bool) error {
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(c.XUtil, win, action, "_NET_WM_STATE_DEMANDS_ATTENTION")
}

// CapturePNG grabs the window contents as PNG.
func (c *Connection) CapturePNG(win xproto.Window) ([]byte, error) {
	img, err := xgraphics.NewDrawable(c.XUtil, xproto.Drawable(win))
	if err != nil {
		return nil, fmt.Errorf("failed to capture window: %w", err)
	}
	defer img.Destroy()

	var buf bytes.Buffer
	if err := img.WritePng(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
