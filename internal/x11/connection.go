// Package x11 adapts an EWMH-compliant X11 session to the container
// contract.
package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"go.uber.org/zap"
)

// Connection owns one X display connection and implements Display.
type Connection struct {
	XUtil  *xgbutil.XUtil
	Root   xproto.Window
	logger *zap.Logger

	loopOnce sync.Once

	mu       sync.Mutex
	nextID   uint64
	watchers map[watchKey]map[uint64]EventFunc
	hooked   map[watchKey]bool
}

var _ Display = (*Connection)(nil)

// NewConnection connects to displayName, or $DISPLAY when empty.
func NewConnection(displayName string, logger *zap.Logger) (*Connection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		xu  *xgbutil.XUtil
		err error
	)
	if displayName == "" {
		xu, err = xgbutil.NewConn()
	} else {
		xu, err = xgbutil.NewConnDisplay(displayName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X display: %w", err)
	}

	return &Connection{
		XUtil:    xu,
		Root:     xu.RootWin(),
		logger:   logger.Named("x11"),
		watchers: make(map[watchKey]map[uint64]EventFunc),
		hooked:   make(map[watchKey]bool),
	}, nil
}

// startEventLoop runs the xevent loop the first time a listener is added.
func (c *Connection) startEventLoop() {
	c.loopOnce.Do(func() {
		go xevent.Main(c.XUtil)
	})
}

// Close stops the event loop and disconnects.
func (c *Connection) Close() {
	xevent.Quit(c.XUtil)
	c.XUtil.Conn().Close()
}

// internAtom resolves an atom name on this connection.
func (c *Connection) internAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return reply.Atom, nil
}

// sendRootMessage sends an EWMH client message about win to the root
// window. The xgbutil ewmh request helpers panic on this library version
// for some atoms, so the event is built by hand.
func (c *Connection) sendRootMessage(win xproto.Window, atom string, data ...uint32) error {
	typ, err := c.internAtom(atom)
	if err != nil {
		return err
	}
	payload := make([]uint32, 5)
	copy(payload, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(payload),
	}
	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
