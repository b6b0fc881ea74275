// Package openfin adapts the OpenFin runtime to the container contract.
//
// The package does not talk to the runtime itself. A program that embeds a
// runtime binding implements Desktop and passes it to New.
package openfin

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/guid"
)

// HostType is reported by Container.HostType.
const HostType = "OpenFin"

// Options configure a Container.
type Options struct {
	// BaseURL is the document URL relative icon and notification URLs are
	// resolved against. Empty means URLs are used as given.
	BaseURL string
	Layouts container.LayoutSaver
	Logger  *zap.Logger
}

// Container is the OpenFin host adapter.
type Container struct {
	container.Emitter

	desktop  Desktop
	app      Application
	uuid     string
	bus      *MessageBus
	resolver *container.URLResolver
	layouts  container.LayoutSaver
	logger   *zap.Logger

	trayMu    sync.Mutex
	trayItems []container.MenuItem

	// subMu serializes changes to traySub across AddTrayIcon calls.
	subMu   sync.Mutex
	traySub *container.Subscription
}

var _ container.Container = (*Container)(nil)

// New builds a container bound to desktop.
func New(desktop Desktop, opts Options) *Container {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Container{
		desktop:  desktop,
		app:      desktop.CurrentApplication(),
		uuid:     guid.New(),
		bus:      NewMessageBus(desktop.InterApplicationBus()),
		resolver: container.NewURLResolver(opts.BaseURL),
		layouts:  opts.Layouts,
		logger:   logger.With(zap.String("host", HostType)),
	}
}

func (c *Container) HostType() string { return HostType }

func (c *Container) UUID() string { return c.uuid }

func (c *Container) Bus() container.MessageBus { return c.bus }

// MainWindow wraps the application's main window.
func (c *Container) MainWindow() container.Window {
	return NewWindow(c.app.Window())
}

// CurrentWindow wraps the window this code runs in.
func (c *Container) CurrentWindow() container.Window {
	return NewWindow(c.desktop.CurrentWindow())
}

// windowOptions translates creation options into runtime options.
func (c *Container) windowOptions(url string, opts *container.WindowOptions) WindowOptions {
	native := WindowOptions{URL: url, AutoShow: true}
	if opts != nil {
		native.DefaultLeft = opts.X
		native.DefaultTop = opts.Y
		native.DefaultWidth = opts.Width
		native.DefaultHeight = opts.Height
		native.ShowTaskbarIcon = opts.Taskbar
		native.DefaultCentered = opts.Center
		if opts.Icon != "" {
			native.Icon = c.resolver.Resolve(opts.Icon)
		}
		native.SaveWindowState = container.BoolPtr(opts.SaveWindowState)
		native.Name = opts.Name
	}
	if native.Name == "" {
		native.Name = guid.New()
	}
	return native
}

// CreateWindow opens a window on url. The container emits "window-created"
// before returning.
func (c *Container) CreateWindow(ctx context.Context, url string, opts *container.WindowOptions) (container.Window, error) {
	native := c.windowOptions(url, opts)
	created, err := container.Await(ctx, "createWindow", func(done func(NativeWindow), fail func(string)) {
		c.desktop.NewWindow(native, done, fail)
	})
	if err != nil {
		c.logger.Debug("create window failed", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	win := NewWindow(created)
	c.logger.Info("window created", zap.String("name", native.Name), zap.String("url", url))
	c.Emit(container.Event{Name: container.EventWindowCreated, Window: win})
	return win, nil
}

// AllWindows returns the main window followed by the application's child
// windows.
func (c *Container) AllWindows(ctx context.Context) ([]container.Window, error) {
	children, err := container.Await(ctx, "getChildWindows", c.app.ChildWindows)
	if err != nil {
		return nil, err
	}
	windows := make([]container.Window, 0, len(children)+1)
	windows = append(windows, c.MainWindow())
	for _, child := range children {
		windows = append(windows, NewWindow(child))
	}
	return windows, nil
}

func (c *Container) WindowByID(ctx context.Context, id string) (container.Window, error) {
	return c.findWindow(ctx, func(w container.Window) bool { return w.ID() == id })
}

func (c *Container) WindowByName(ctx context.Context, name string) (container.Window, error) {
	return c.findWindow(ctx, func(w container.Window) bool { return w.Name() == name })
}

func (c *Container) findWindow(ctx context.Context, match func(container.Window) bool) (container.Window, error) {
	windows, err := c.AllWindows(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range windows {
		if match(w) {
			return w, nil
		}
	}
	return nil, nil
}

// CloseAllWindows closes every window and reports every failure.
func (c *Container) CloseAllWindows(ctx context.Context) error {
	windows, err := c.AllWindows(ctx)
	if err != nil {
		return err
	}
	return container.CloseAll(ctx, windows)
}

// SaveLayout captures every window and stores the layout under name.
func (c *Container) SaveLayout(ctx context.Context, name string) (*container.Layout, error) {
	windows, err := c.AllWindows(ctx)
	if err != nil {
		return nil, err
	}
	return container.SaveLayout(ctx, c.layouts, name, windows, c.MainWindow())
}

// ShowNotification shows a runtime notification window. OpenFin renders the
// notification document at opts.URL and passes it opts.Body as its message;
// the title is left to the document.
func (c *Container) ShowNotification(title string, opts *container.NotificationOptions) error {
	var n NotificationOptions
	if opts != nil {
		n.URL = c.resolver.Resolve(opts.URL)
		n.Message = opts.Body
	}
	c.desktop.Notification(n)
	return nil
}

// AddTrayIcon sets the application tray icon. A left click calls listener;
// a right click opens a menu of items at the click position.
func (c *Container) AddTrayIcon(ctx context.Context, details container.TrayIconDetails, listener func(), items []container.MenuItem) error {
	var subscribed bool
	if len(items) > 0 {
		var err error
		if subscribed, err = c.watchTrayMenu(ctx, items); err != nil {
			return fmt.Errorf("failed to subscribe to tray menu clicks: %w", err)
		}
	}

	onClick := func(click TrayClick) {
		switch {
		case click.Button == ButtonLeft && listener != nil:
			listener()
		case click.Button == ButtonRight && len(items) > 0:
			c.showTrayMenu(click, items)
		}
	}

	err := container.Await0(ctx, "setTrayIcon", func(done func(), fail func(string)) {
		c.app.SetTrayIcon(c.resolver.Resolve(details.Icon), onClick, done, fail)
	})
	if err != nil && subscribed {
		c.unwatchTrayMenu(ctx)
	}
	return err
}

// TrayMenuTopic is the bus topic this container's tray menu posts to.
func (c *Container) TrayMenuTopic() string {
	return TrayMenuTopicPrefix + c.uuid
}

// watchTrayMenu records items and subscribes once to the tray menu topic,
// scoped to this application. It reports whether this call created the
// subscription.
func (c *Container) watchTrayMenu(ctx context.Context, items []container.MenuItem) (bool, error) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.trayMu.Lock()
	c.trayItems = append([]container.MenuItem(nil), items...)
	c.trayMu.Unlock()
	if c.traySub != nil {
		return false, nil
	}

	sub, err := c.bus.Subscribe(ctx, c.TrayMenuTopic(), c.dispatchTrayClick,
		&container.SubscriptionOptions{UUID: c.app.UUID()})
	if err != nil {
		return false, err
	}
	c.traySub = sub
	return true, nil
}

// unwatchTrayMenu drops the tray menu subscription after the icon it was
// made for could not be set.
func (c *Container) unwatchTrayMenu(ctx context.Context) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.traySub == nil {
		return
	}
	if err := c.bus.Unsubscribe(ctx, c.traySub); err != nil {
		c.logger.Warn("tray menu unsubscribe failed", zap.Error(err))
	}
	c.traySub = nil
}

func (c *Container) dispatchTrayClick(msg container.Message) {
	id := menuItemID(msg.Data)
	c.trayMu.Lock()
	items := c.trayItems
	c.trayMu.Unlock()
	for _, item := range items {
		if item.ID == id {
			if item.Click != nil {
				item.Click(item)
			}
			return
		}
	}
	c.logger.Debug("tray menu click for unknown item", zap.String("id", id))
}

func menuItemID(data any) string {
	switch v := data.(type) {
	case map[string]any:
		id, _ := v["id"].(string)
		return id
	case map[string]string:
		return v["id"]
	default:
		return ""
	}
}

// showTrayMenu opens a frameless menu window just above the click point.
// It runs from the runtime's click callback, so failures are logged.
func (c *Container) showTrayMenu(click TrayClick, items []container.MenuItem) {
	html, err := RenderMenu(items, c.app.UUID(), c.uuid)
	if err != nil {
		c.logger.Warn("tray menu render failed", zap.Error(err))
		return
	}
	width, height := menuSize(len(items))
	opts := WindowOptions{
		Name:            "trayMenu" + guid.New(),
		URL:             menuDataURL(html),
		AutoShow:        false,
		DefaultWidth:    container.IntPtr(width),
		DefaultHeight:   container.IntPtr(height),
		ShowTaskbarIcon: container.BoolPtr(false),
		SaveWindowState: container.BoolPtr(false),
		Frame:           container.BoolPtr(false),
		Resizable:       container.BoolPtr(false),
		AlwaysOnTop:     container.BoolPtr(true),
	}
	left, top := click.X, click.Y-height
	if top < 0 {
		top = click.Y
	}
	fail := func(reason string) {
		c.logger.Warn("tray menu failed", zap.String("reason", reason))
	}
	c.desktop.NewWindow(opts, func(menu NativeWindow) {
		menu.ShowAt(left, top, false, func() {
			menu.Focus(func() {
				c.logger.Debug("tray menu shown", zap.String("window", menu.Name()))
			}, fail)
		}, fail)
	}, fail)
}
