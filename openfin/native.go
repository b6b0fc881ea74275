package openfin

// The interfaces in this file describe the OpenFin runtime boundary. Every
// asynchronous call takes a success callback followed by a failure callback,
// in the positional order the runtime uses. A runtime binding (for example a
// bridge process speaking to the OpenFin RVM) implements them; tests use
// fakes.

// Desktop is the root of the runtime API (fin.desktop).
type Desktop interface {
	CurrentApplication() Application
	CurrentWindow() NativeWindow
	NewWindow(opts WindowOptions, done func(NativeWindow), fail func(reason string))
	Notification(opts NotificationOptions)
	InterApplicationBus() InterApplicationBus
}

// Application is the running OpenFin application.
type Application interface {
	UUID() string
	// Window returns the application's main window.
	Window() NativeWindow
	ChildWindows(done func([]NativeWindow), fail func(reason string))
	SetTrayIcon(icon string, onClick func(TrayClick), done func(), fail func(reason string))
}

// NativeWindow is a fin.desktop.Window.
type NativeWindow interface {
	Name() string

	Focus(done func(), fail func(reason string))
	Show(done func(), fail func(reason string))
	ShowAt(left, top int, force bool, done func(), fail func(reason string))
	Hide(done func(), fail func(reason string))
	Close(force bool, done func(), fail func(reason string))
	IsShowing(done func(bool), fail func(reason string))
	GetSnapshot(done func(base64PNG string), fail func(reason string))
	GetBounds(done func(WindowBounds), fail func(reason string))
	SetBounds(left, top, width, height int, done func(), fail func(reason string))
	Flash(opts *FlashOptions, done func(), fail func(reason string))
	StopFlashing(done func(), fail func(reason string))
	GetOptions(done func(WindowOptions), fail func(reason string))

	GetGroup(done func([]NativeWindow), fail func(reason string))
	JoinGroup(target NativeWindow, done func(), fail func(reason string))
	LeaveGroup(done func(), fail func(reason string))

	AddEventListener(event string, handler *EventHandler, done func(), fail func(reason string))
	RemoveEventListener(event string, handler *EventHandler, done func(), fail func(reason string))
}

// InterApplicationBus is fin.desktop.InterApplicationBus. An empty name
// stands for the runtime's "undefined".
type InterApplicationBus interface {
	Subscribe(uuid, name, topic string, listener BusListener, done func(), fail func(reason string))
	Unsubscribe(uuid, name, topic string, listener BusListener, done func(), fail func(reason string))
	Send(uuid, name, topic string, message any, done func(), fail func(reason string))
	Publish(topic string, message any, done func(), fail func(reason string))
}

// BusListener receives bus deliveries. The runtime identifies a registration
// by the listener value, so Unsubscribe must be given the same one.
type BusListener interface {
	Deliver(message any, uuid, name string)
}

// EventHandler is the native listener handed to AddEventListener. Its
// pointer identifies the registration.
type EventHandler struct {
	Handle func(payload map[string]any)
}

// WindowBounds is the runtime's bounds shape.
type WindowBounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowOptions are the fin.desktop.Window creation options. Unset optional
// fields are omitted from the runtime payload.
type WindowOptions struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	AutoShow        bool   `json:"autoShow"`
	DefaultLeft     *int   `json:"defaultLeft,omitempty"`
	DefaultTop      *int   `json:"defaultTop,omitempty"`
	DefaultWidth    *int   `json:"defaultWidth,omitempty"`
	DefaultHeight   *int   `json:"defaultHeight,omitempty"`
	ShowTaskbarIcon *bool  `json:"showTaskbarIcon,omitempty"`
	DefaultCentered *bool  `json:"defaultCentered,omitempty"`
	Icon            string `json:"icon,omitempty"`
	SaveWindowState *bool  `json:"saveWindowState,omitempty"`
	Frame           *bool  `json:"frame,omitempty"`
	Resizable       *bool  `json:"resizable,omitempty"`
	AlwaysOnTop     *bool  `json:"alwaysOnTop,omitempty"`
}

// FlashOptions are passed to NativeWindow.Flash.
type FlashOptions struct{}

// NotificationOptions are the fin.desktop.Notification options.
type NotificationOptions struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// TrayClick describes a click on the tray icon.
type TrayClick struct {
	Button int `json:"button"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// Mouse buttons reported in TrayClick.Button.
const (
	ButtonLeft  = 0
	ButtonRight = 2
)
