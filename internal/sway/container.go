package sway

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/bus"
	"github.com/1broseidon/deskbridge/internal/guid"
	"github.com/1broseidon/deskbridge/internal/launch"
	"github.com/1broseidon/deskbridge/internal/notify"
)

// HostType is reported by Container.HostType.
const HostType = "Sway"

// Options configure a Container.
type Options struct {
	Launcher *launch.Launcher
	Notifier notify.Notifier
	Layouts  container.LayoutSaver
	Bus      container.MessageBus
	// UUID is the container id. A fresh one is generated when empty.
	UUID string
	// AppOnly limits enumeration to views carrying a deskbridge mark.
	AppOnly bool
	BaseURL string
	Logger  *zap.Logger
}

// Container is the sway host adapter.
type Container struct {
	container.Emitter
	container.NoTray

	ipc      IPC
	uuid     string
	bus      container.MessageBus
	launcher *launch.Launcher
	notifier notify.Notifier
	layouts  container.LayoutSaver
	resolver *container.URLResolver
	appOnly  bool
	events   *eventHub
	focused  int64
	logger   *zap.Logger
}

var _ container.Container = (*Container)(nil)

// New builds a container over ipc. The focused view at construction time
// becomes the main and current window.
func New(ctx context.Context, ipc IPC, opts Options) *Container {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("host", HostType))
	uuid := opts.UUID
	if uuid == "" {
		uuid = guid.New()
	}
	c := &Container{
		ipc:      ipc,
		uuid:     uuid,
		bus:      opts.Bus,
		launcher: opts.Launcher,
		notifier: opts.Notifier,
		layouts:  opts.Layouts,
		resolver: container.NewURLResolver(opts.BaseURL),
		appOnly:  opts.AppOnly,
		events:   newEventHub(ipc, logger),
		logger:   logger,
	}
	if c.bus == nil {
		c.bus = bus.NewHub().Endpoint(uuid, "")
	}
	if views, err := ipc.Views(ctx); err == nil {
		for _, v := range views {
			if v.Focused {
				c.focused = v.ID
				break
			}
		}
	} else {
		logger.Debug("failed to read sway tree", zap.Error(err))
	}
	return c
}

// Close stops the window event subscription.
func (c *Container) Close() error {
	c.events.close()
	return nil
}

func (c *Container) HostType() string { return HostType }

func (c *Container) UUID() string { return c.uuid }

func (c *Container) Bus() container.MessageBus { return c.bus }

func (c *Container) wrap(id int64) *Window { return newWindow(c.ipc, id, c.events) }

func (c *Container) MainWindow() container.Window {
	if c.focused == 0 {
		return nil
	}
	return c.wrap(c.focused)
}

func (c *Container) CurrentWindow() container.Window { return c.MainWindow() }

func (c *Container) views(ctx context.Context) ([]View, error) {
	return container.Call(ctx, "getAllWindows", func() ([]View, error) {
		all, err := c.ipc.Views(ctx)
		if err != nil {
			return nil, err
		}
		if !c.appOnly {
			return all, nil
		}
		out := all[:0:0]
		for _, v := range all {
			if markValue(v.Marks, NameMarkPrefix) != "" {
				out = append(out, v)
			}
		}
		return out, nil
	})
}

func (c *Container) viewIDs(ctx context.Context) ([]int64, error) {
	views, err := c.views(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	return ids, nil
}

func (c *Container) AllWindows(ctx context.Context) ([]container.Window, error) {
	ids, err := c.viewIDs(ctx)
	if err != nil {
		return nil, err
	}
	windows := make([]container.Window, 0, len(ids))
	for _, id := range ids {
		windows = append(windows, c.wrap(id))
	}
	return windows, nil
}

func (c *Container) WindowByID(ctx context.Context, id string) (container.Window, error) {
	want, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, nil
	}
	ids, err := c.viewIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range ids {
		if v == want {
			return c.wrap(v), nil
		}
	}
	return nil, nil
}

func (c *Container) WindowByName(ctx context.Context, name string) (container.Window, error) {
	views, err := c.views(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		if markValue(v.Marks, NameMarkPrefix) == name {
			return c.wrap(v.ID), nil
		}
	}
	for _, v := range views {
		if markValue(v.Marks, NameMarkPrefix) == "" && v.Name == name {
			return c.wrap(v.ID), nil
		}
	}
	return nil, nil
}

// CreateWindow launches the browser command on url, waits for the new
// view, marks it and applies the requested geometry.
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

	id, err := launch.Open[int64](ctx, c.launcher, url, name, c.viewIDs)
	if err != nil {
		return nil, err
	}
	w := c.wrap(id)
	marks := fmt.Sprintf("mark --add %s, mark --add %s", quote(NameMarkPrefix+name), quote(URLMarkPrefix+url))
	if err := w.run(ctx, "createWindow", marks); err != nil {
		return nil, err
	}
	if err := c.placeWindow(ctx, w, opts); err != nil {
		return nil, err
	}

	c.logger.Info("window created",
		zap.Int64("con_id", id),
		zap.String("name", name),
		zap.String("url", url),
	)
	c.Emit(container.Event{Name: container.EventWindowCreated, Window: w})
	return w, nil
}

func (c *Container) placeWindow(ctx context.Context, w *Window, opts *container.WindowOptions) error {
	if opts == nil {
		return nil
	}
	if _, set := opts.RequestedBounds(container.Bounds{}); set {
		current, err := w.Bounds(ctx)
		if err != nil {
			return err
		}
		target, _ := opts.RequestedBounds(current)
		if err := w.SetBounds(ctx, target); err != nil {
			return err
		}
	}
	if opts.Center != nil && *opts.Center {
		return w.run(ctx, "center", "floating enable, move position center")
	}
	return nil
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
