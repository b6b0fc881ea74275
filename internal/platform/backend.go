// Package platform picks the desktop host deskbridge runs on and builds its
// container from the effective configuration.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/bus"
	"github.com/1broseidon/deskbridge/internal/config"
	"github.com/1broseidon/deskbridge/internal/guid"
	"github.com/1broseidon/deskbridge/internal/launch"
	"github.com/1broseidon/deskbridge/internal/layout"
	"github.com/1broseidon/deskbridge/internal/notify"
	"github.com/1broseidon/deskbridge/internal/runtimepath"
	"github.com/1broseidon/deskbridge/internal/sway"
	"github.com/1broseidon/deskbridge/internal/x11"
)

// ErrNoHost is returned when auto detection finds neither sway nor X11.
var ErrNoHost = errors.New("no supported desktop host found (set DISPLAY or SWAYSOCK, or host in config)")

// busDialTimeout bounds the attempt to reach a running broker.
const busDialTimeout = 500 * time.Millisecond

// Detect returns config.HostX11 or config.HostSway. An explicit host in
// cfg wins; auto prefers sway, then X11.
func Detect(cfg *config.Config, getenv func(string) string) (string, error) {
	switch cfg.Host {
	case config.HostX11, config.HostSway:
		return cfg.Host, nil
	}
	if cfg.SwaySocket != "" || getenv("SWAYSOCK") != "" {
		return config.HostSway, nil
	}
	if cfg.Display != "" || getenv("DISPLAY") != "" {
		return config.HostX11, nil
	}
	return "", ErrNoHost
}

// Opener builds hosts. The zero value is not usable; start from
// NewOpener. Fields are exposed so tests can replace the native dialers.
type Opener struct {
	Getenv func(string) string
	Setenv func(key, value string) error

	DialX11      func(display string, logger *zap.Logger) (x11.Display, io.Closer, error)
	DialSway     func(ctx context.Context) (sway.IPC, io.Closer, error)
	DialNotifier func(appName string) (notify.Notifier, io.Closer, error)
	DialBus      func(ctx context.Context, socketPath string, id bus.Identity, logger *zap.Logger) (container.MessageBus, io.Closer, error)
}

// NewOpener returns an Opener wired to the real display servers, session
// bus and broker.
func NewOpener() *Opener {
	return &Opener{
		Getenv:       os.Getenv,
		Setenv:       os.Setenv,
		DialX11:      dialX11,
		DialSway:     dialSway,
		DialNotifier: dialNotifier,
		DialBus:      dialBus,
	}
}

// Host is an opened container plus everything that must be released with
// it.
type Host struct {
	Kind      string
	Container container.Container
	Layouts   *layout.Store
	// Shared is true when the bus goes through a running broker rather
	// than staying in process.
	Shared bool

	closers []io.Closer
}

// Close releases the container and its connections in reverse order.
func (h *Host) Close() error {
	var err error
	for i := len(h.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, h.closers[i].Close())
	}
	h.closers = nil
	return err
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Open detects the host and builds its container.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Host, error) {
	return NewOpener().Open(ctx, cfg, logger)
}

func (o *Opener) Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Host, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	kind, err := Detect(cfg, o.Getenv)
	if err != nil {
		return nil, err
	}
	if err := o.exportEnv(cfg); err != nil {
		return nil, err
	}

	layoutDir, err := cfg.GetLayoutDir()
	if err != nil {
		return nil, err
	}
	store, err := layout.NewStore(layoutDir, cfg.LayoutCacheSize)
	if err != nil {
		return nil, err
	}

	h := &Host{Kind: kind, Layouts: store}
	uuid := guid.New()
	launcher := &launch.Launcher{Template: cfg.BrowserCommand, Timeout: cfg.LaunchTimeout.Std()}
	appOnly := cfg.WindowScope == config.ScopeApp

	messageBus := o.openBus(ctx, cfg, bus.Identity{UUID: uuid, Name: cfg.AppID}, logger, h)
	notifier := o.openNotifier(cfg, logger, h)

	switch kind {
	case config.HostSway:
		ipc, closer, err := o.DialSway(ctx)
		if err != nil {
			_ = h.Close()
			return nil, err
		}
		h.add(closer)
		c := sway.New(ctx, ipc, sway.Options{
			Launcher: launcher,
			Notifier: notifier,
			Layouts:  store,
			Bus:      messageBus,
			UUID:     uuid,
			AppOnly:  appOnly,
			BaseURL:  cfg.BaseURL,
			Logger:   logger,
		})
		h.add(closerFunc(c.Close))
		h.Container = c
	default:
		display, closer, err := o.DialX11(cfg.Display, logger)
		if err != nil {
			_ = h.Close()
			return nil, err
		}
		h.add(closer)
		h.Container = x11.New(display, x11.Options{
			Launcher: launcher,
			Notifier: notifier,
			Layouts:  store,
			Bus:      messageBus,
			UUID:     uuid,
			AppOnly:  appOnly,
			BaseURL:  cfg.BaseURL,
			Logger:   logger,
		})
	}

	logger.Debug("host opened",
		zap.String("host", kind),
		zap.String("uuid", uuid),
		zap.Bool("shared_bus", h.Shared),
		zap.Bool("notifications", notifier != nil),
	)
	return h, nil
}

func (h *Host) add(c io.Closer) {
	if c != nil {
		h.closers = append(h.closers, c)
	}
}

// exportEnv hands configured connection settings to libraries that only
// read them from the environment.
func (o *Opener) exportEnv(cfg *config.Config) error {
	vars := map[string]string{
		"SWAYSOCK":   cfg.SwaySocket,
		"XAUTHORITY": cfg.XAuthority,
	}
	for key, value := range vars {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if err := o.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// openBus joins a running broker. Without one the container keeps its
// in-process bus, so a nil bus is returned.
func (o *Opener) openBus(ctx context.Context, cfg *config.Config, id bus.Identity, logger *zap.Logger, h *Host) container.MessageBus {
	socketPath, err := runtimepath.SocketPath(cfg.SocketPath)
	if err != nil {
		logger.Debug("no bus socket path", zap.Error(err))
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, busDialTimeout)
	defer cancel()
	b, closer, err := o.DialBus(dialCtx, socketPath, id, logger)
	if err != nil {
		logger.Debug("bus broker not reachable, using in-process bus",
			zap.String("socket", socketPath),
			zap.Error(err),
		)
		return nil
	}
	h.add(closer)
	h.Shared = true
	return b
}

func (o *Opener) openNotifier(cfg *config.Config, logger *zap.Logger, h *Host) notify.Notifier {
	if !cfg.Notifications {
		return nil
	}
	n, closer, err := o.DialNotifier(cfg.AppID)
	if err != nil {
		logger.Debug("notifications unavailable", zap.Error(err))
		return nil
	}
	h.add(closer)
	return n
}

func dialX11(display string, logger *zap.Logger) (x11.Display, io.Closer, error) {
	conn, err := x11.NewConnection(display, logger)
	if err != nil {
		return nil, nil, err
	}
	return conn, closerFunc(func() error { conn.Close(); return nil }), nil
}

func dialSway(ctx context.Context) (sway.IPC, io.Closer, error) {
	client, err := sway.Dial(ctx)
	if err != nil {
		return nil, nil, err
	}
	return client, nil, nil
}

func dialNotifier(appName string) (notify.Notifier, io.Closer, error) {
	client, err := notify.Dial(appName)
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

func dialBus(ctx context.Context, socketPath string, id bus.Identity, logger *zap.Logger) (container.MessageBus, io.Closer, error) {
	s, err := bus.Dial(ctx, socketPath, id, logger)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}
