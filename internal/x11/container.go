package x11

import (
	"context"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/bus"
	"github.com/1broseidon/deskbridge/internal/guid"
	"github.com/1broseidon/deskbridge/internal/launch"
	"github.com/1broseidon/deskbridge/internal/notify"
)

// HostType is reported by Container.HostType.
const HostType = "X11"

// Options configure a Container.
type Options struct {
	// Launcher opens browser windows for CreateWindow. Nil disables
	// window creation.
	Launcher *launch.Launcher
	// Notifier delivers notifications. Nil reports them as unsupported.
	Notifier notify.Notifier
	Layouts  container.LayoutSaver
	// Bus defaults to an in-process bus.
	Bus container.MessageBus
	// UUID is the container id. A fresh one is generated when empty.
	UUID string
	// AppOnly limits enumeration to windows carrying a deskbridge name.
	AppOnly bool
	// MainWindow overrides $WINDOWID and the active window.
	MainWindow xproto.Window
	BaseURL    string
	Logger     *zap.Logger
}

// Container is the X11 host adapter.
type Container struct {
	container.Emitter
	container.NoTray

	display  Display
	uuid     string
	bus      container.MessageBus
	launcher *launch.Launcher
	notifier notify.Notifier
	layouts  container.LayoutSaver
	resolver *container.URLResolver
	appOnly  bool
	main     xproto.Window
	current  xproto.Window
	logger   *zap.Logger
}

var _ container.Container = (*Container)(nil)

// New builds a container over display.
func New(display Display, opts Options) *Container {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	uuid := opts.UUID
	if uuid == "" {
		uuid = guid.New()
	}
	c := &Container{
		display:  display,
		uuid:     uuid,
		bus:      opts.Bus,
		launcher: opts.Launcher,
		notifier: opts.Notifier,
		layouts:  opts.Layouts,
		resolver: container.NewURLResolver(opts.BaseURL),
		appOnly:  opts.AppOnly,
		logger:   logger.With(zap.String("host", HostType)),
	}
	if c.bus == nil {
		c.bus = bus.NewHub().Endpoint(uuid, "")
	}

	c.current = envWindow()
	if c.current == 0 {
		if active, err := display.ActiveWindow(); err == nil {
			c.current = active
		}
	}
	c.main = opts.MainWindow
	if c.main == 0 {
		c.main = c.current
	}
	return c
}

// envWindow reads $WINDOWID, set by terminals for the window they run in.
func envWindow() xproto.Window {
	v := os.Getenv("WINDOWID")
	if v == "" {
		return 0
	}
	win, err := ParseWindowID(v)
	if err != nil {
		return 0
	}
	return win
}

func (c *Container) HostType() string { return HostType }

func (c *Container) UUID() string { return c.uuid }

func (c *Container) Bus() container.MessageBus { return c.bus }

func (c *Container) MainWindow() container.Window {
	if c.main == 0 {
		return nil
	}
	return NewWindow(c.display, c.main)
}

func (c *Container) CurrentWindow() container.Window {
	if c.current == 0 {
		return nil
	}
	return NewWindow(c.display, c.current)
}

// clients lists the window ids this container exposes.
func (c *Container) clients(ctx context.Context) ([]xproto.Window, error) {
	return container.Call(ctx, "getAllWindows", func() ([]xproto.Window, error) {
		all, err := c.display.Clients()
		if err != nil {
			return nil, err
		}
		out := make([]xproto.Window, 0, len(all))
		for _, win := range all {
			if !c.display.IsNormalWindow(win) {
				continue
			}
			if c.appOnly {
				if name, err := c.display.Property(win, NameProperty); err != nil || name == "" {
					continue
				}
			}
			out = append(out, win)
		}
		return out, nil
	})
}

func (c *Container) AllWindows(ctx context.Context) ([]container.Window, error) {
	ids, err := c.clients(ctx)
	if err != nil {
		return nil, err
	}
	windows := make([]container.Window, 0, len(ids))
	for _, id := range ids {
		windows = append(windows, NewWindow(c.display, id))
	}
	return windows, nil
}

func (c *Container) WindowByID(ctx context.Context, id string) (container.Window, error) {
	want, err := ParseWindowID(id)
	if err != nil {
		return nil, nil
	}
	ids, err := c.clients(ctx)
	if err != nil {
		return nil, err
	}
	for _, win := range ids {
		if win == want {
			return NewWindow(c.display, win), nil
		}
	}
	return nil, nil
}

func (c *Container) WindowByName(ctx context.Context, name string) (container.Window, error) {
	windows, err := c.AllWindows(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range windows {
		if w.Name() == name {
			return w, nil
		}
	}
	return nil, nil
}

// CreateWindow launches the browser command on url, waits for the new
// client window, tags it and applies the requested geometry.
func (c *Container) CreateWindow(ctx context.Context, url string, opts *container.WindowOptions) (container.Window, error) {
	if c.launcher == nil {
		return nil, container.Unsupported("window creation")
	}
	url = c.resolver.Resolve(url)
	name := ""
	if opts != nil {
		name = opts.Name
	}
	if name == "" {
		name = guid.New()
	}

	win, err := launch.Open[xproto.Window](ctx, c.launcher, url, name, c.clients)
	if err != nil {
		return nil, err
	}
	if err := c.display.SetProperty(win, NameProperty, name); err != nil {
		return nil, container.NewNativeError("createWindow", err.Error())
	}
	if err := c.display.SetProperty(win, URLProperty, url); err != nil {
		c.logger.Debug("failed to tag window url", zap.String("window", FormatWindowID(win)), zap.Error(err))
	}

	w := NewWindow(c.display, win)
	if err := c.placeWindow(ctx, w, opts); err != nil {
		return nil, err
	}

	c.logger.Info("window created",
		zap.String("window", w.ID()),
		zap.String("name", name),
		zap.String("url", url),
	)
	c.Emit(container.Event{Name: container.EventWindowCreated, Window: w})
	return w, nil
}

// placeWindow applies the requested bounds, centering on the active
// monitor when asked.
func (c *Container) placeWindow(ctx context.Context, w *Window, opts *container.WindowOptions) error {
	if opts == nil {
		return nil
	}
	center := opts.Center != nil && *opts.Center
	_, set := opts.RequestedBounds(container.Bounds{})
	if !set && !center {
		return nil
	}

	current, err := w.Bounds(ctx)
	if err != nil {
		return err
	}
	target, _ := opts.RequestedBounds(current)
	if center {
		area, err := c.display.WorkArea()
		if err != nil {
			c.logger.Debug("failed to read work area", zap.Error(err))
		} else {
			target = centerIn(area, target.Width, target.Height)
		}
	}
	return w.SetBounds(ctx, target)
}

func (c *Container) CloseAllWindows(ctx context.Context) error {
	windows, err := c.AllWindows(ctx)
	if err != nil {
		return err
	}
	return container.CloseAll(ctx, windows)
}

func (c *Container) SaveLayout(ctx context.Context, name string) (*container.Layout, error) {
	windows, err := c.AllWindows(ctx)
	if err != nil {
		return nil, err
	}
	return container.SaveLayout(ctx, c.layouts, name, windows, c.MainWindow())
}

// ShowNotification sends a freedesktop notification.
func (c *Container) ShowNotification(title string, opts *container.NotificationOptions) error {
	if c.notifier == nil {
		return container.Unsupported("notifications")
	}
	n := notify.Notification{Summary: title, Timeout: -1}
	if opts != nil {
		n.Body = opts.Body
		n.Icon = c.resolver.Resolve(opts.Icon)
		n.URL = c.resolver.Resolve(opts.URL)
	}
	if _, err := c.notifier.Notify(context.Background(), n); err != nil {
		return container.NewNativeError("showNotification", err.Error())
	}
	return nil
}
