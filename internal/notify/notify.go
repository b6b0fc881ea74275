// Package notify sends freedesktop desktop notifications over the D-Bus
// session bus.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyCall = busName + ".Notify"
)

// Notification is one desktop notification.
type Notification struct {
	Summary string
	Body    string
	Icon    string
	// URL is attached as the "x-deskbridge-url" hint for daemons that act
	// on it.
	URL string
	// Timeout in milliseconds; -1 lets the daemon decide.
	Timeout int32
}

// Notifier shows notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) (uint32, error)
}

// caller is the part of dbus.BusObject Client uses.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Client is a Notifier over the session bus.
type Client struct {
	appName string
	obj     caller

	mu   sync.Mutex
	conn *dbus.Conn
}

var _ Notifier = (*Client)(nil)

// Dial connects to the session bus. It fails when no session bus is
// reachable, which callers treat as "notifications unsupported".
func Dial(appName string) (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		appName: appName,
		obj:     conn.Object(busName, objectPath),
		conn:    conn,
	}, nil
}

func newClient(appName string, obj caller) *Client {
	return &Client{appName: appName, obj: obj}
}

// Notify shows n and returns the daemon's notification id.
func (c *Client) Notify(ctx context.Context, n Notification) (uint32, error) {
	hints := map[string]dbus.Variant{}
	if n.URL != "" {
		hints["x-deskbridge-url"] = dbus.MakeVariant(n.URL)
	}
	timeout := n.Timeout
	if timeout == 0 {
		timeout = -1
	}

	call := c.obj.CallWithContext(ctx, notifyCall, 0,
		c.appName, uint32(0), n.Icon, n.Summary, n.Body, []string{}, hints, timeout)
	if call.Err != nil {
		return 0, fmt.Errorf("notify failed: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify returned unexpected reply: %w", err)
	}
	return id, nil
}

// Close releases the bus connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
