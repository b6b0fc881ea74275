package container

// Bounds is a window rectangle in screen coordinates.
type Bounds struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// WindowOptions are the host-independent creation options. Nil fields are
// left to the host's defaults.
type WindowOptions struct {
	X       *int
	Y       *int
	Width   *int
	Height  *int
	Taskbar *bool
	Center  *bool
	Icon    string
	// Name defaults to a fresh GUID when empty.
	Name string
	// SaveWindowState asks the host to persist the window's geometry.
	SaveWindowState bool
}

// RequestedBounds returns the bounds the options ask for and whether any
// geometry was requested at all. Missing fields are taken from fallback.
func (o *WindowOptions) RequestedBounds(fallback Bounds) (Bounds, bool) {
	if o == nil {
		return fallback, false
	}
	b := fallback
	set := false
	if o.X != nil {
		b.X, set = *o.X, true
	}
	if o.Y != nil {
		b.Y, set = *o.Y, true
	}
	if o.Width != nil {
		b.Width, set = *o.Width, true
	}
	if o.Height != nil {
		b.Height, set = *o.Height, true
	}
	return b, set
}

// NotificationOptions mirror the Web Notification options subset hosts use.
type NotificationOptions struct {
	Body string
	Icon string
	// URL is the notification document for hosts that render notifications
	// as windows.
	URL string
}

// MenuItem describes one context-menu entry.
type MenuItem struct {
	ID    string
	Label string
	Icon  string
	Click func(MenuItem)
}

// TrayIconDetails describes a tray icon.
type TrayIconDetails struct {
	Icon string
	Text string
}

// IntPtr and BoolPtr help build WindowOptions.
func IntPtr(v int) *int    { return &v }
func BoolPtr(v bool) *bool { return &v }
