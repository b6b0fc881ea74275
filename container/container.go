// Package container defines the host-independent contract that every desktop
// host adapter implements, plus the small shared pieces adapters compose to
// build it.
//
// A Container is bound at construction to exactly one native host. Every
// method that touches the host blocks until the host reports completion or
// failure; callers bound the wait with their context. A done context returns
// ctx.Err() but never retracts a native call that was already issued.
package container

import "context"

// Event names emitted by containers.
const (
	EventWindowCreated = "window-created"
)

// Window wraps exactly one native window handle.
//
// Wrappers are cheap and not interned: two wrappers may refer to the same
// native window. Use SameHandle to compare them.
type Window interface {
	// ID and Name are read from the native handle on every call.
	ID() string
	Name() string

	// Native returns the wrapped native handle.
	Native() any

	Focus(ctx context.Context) error
	Show(ctx context.Context) error
	Hide(ctx context.Context) error
	Close(ctx context.Context, force bool) error
	IsShowing(ctx context.Context) (bool, error)

	// Snapshot returns a PNG data URL of the window contents.
	Snapshot(ctx context.Context) (string, error)

	Bounds(ctx context.Context) (Bounds, error)
	SetBounds(ctx context.Context, b Bounds) error

	// Flash starts (enable=true) or stops (enable=false) attention flashing.
	Flash(ctx context.Context, enable bool) error

	AllowGrouping() bool
	Group(ctx context.Context) ([]Window, error)
	JoinGroup(ctx context.Context, target Window) error
	LeaveGroup(ctx context.Context) error

	AddListener(event string, l *Listener) error
	RemoveListener(event string, l *Listener) error
}

// WindowManager enumerates, creates and persists windows.
type WindowManager interface {
	MainWindow() Window
	CurrentWindow() Window

	CreateWindow(ctx context.Context, url string, opts *WindowOptions) (Window, error)
	AllWindows(ctx context.Context) ([]Window, error)

	// WindowByID and WindowByName return (nil, nil) when nothing matches.
	WindowByID(ctx context.Context, id string) (Window, error)
	WindowByName(ctx context.Context, name string) (Window, error)

	CloseAllWindows(ctx context.Context) error
	SaveLayout(ctx context.Context, name string) (*Layout, error)
}

// NotificationManager shows desktop notifications.
type NotificationManager interface {
	ShowNotification(title string, opts *NotificationOptions) error
}

// Container represents one running desktop host.
type Container interface {
	WindowManager
	NotificationManager

	// HostType identifies the adapter ("OpenFin", "X11", "Sway").
	HostType() string

	// UUID is a v4 GUID assigned once at construction.
	UUID() string

	// Bus returns the message bus bound to this host.
	Bus() MessageBus

	// AddTrayIcon registers a tray icon. listener and items are optional.
	AddTrayIcon(ctx context.Context, details TrayIconDetails, listener func(), items []MenuItem) error

	AddListener(event string, l *Listener) error
	RemoveListener(event string, l *Listener) error
}
