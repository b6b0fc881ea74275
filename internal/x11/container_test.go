package x11

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/guid"
	"github.com/1broseidon/deskbridge/internal/launch"
)

type memLayouts struct {
	saved map[string]*container.Layout
}

func (m *memLayouts) SaveLayout(name string, l *container.Layout) error {
	if m.saved == nil {
		m.saved = map[string]*container.Layout{}
	}
	m.saved[name] = l
	return nil
}

func newTestContainer(t *testing.T, d *fakeDisplay, opts Options) *Container {
	t.Helper()
	t.Setenv("WINDOWID", "")
	return New(d, opts)
}

// launcherFor returns a launcher whose browser "opens" win on d.
func launcherFor(d *fakeDisplay, win xproto.Window, argv *[]string) *launch.Launcher {
	return &launch.Launcher{
		Template: "browser --app={{url}}",
		Timeout:  time.Second,
		Start: func(a []string) error {
			if argv != nil {
				*argv = a
			}
			d.add(win, "New Tab", container.Bounds{X: 0, Y: 0, Width: 800, Height: 600})
			return nil
		},
	}
}

func TestContainer_Identity(t *testing.T) {
	c := newTestContainer(t, newFakeDisplay(), Options{})
	assert.Equal(t, "X11", c.HostType())
	assert.True(t, guid.IsValid(c.UUID()))
	assert.NotNil(t, c.Bus())
}

func TestContainer_MainWindow(t *testing.T) {
	d := newFakeDisplay()
	d.add(1, "term", container.Bounds{})
	d.add(2, "app", container.Bounds{})
	d.active = 1

	c := newTestContainer(t, d, Options{})
	assert.Equal(t, xproto.Window(1), c.MainWindow().Native())
	assert.Equal(t, xproto.Window(1), c.CurrentWindow().Native())

	c = newTestContainer(t, d, Options{MainWindow: 2})
	assert.Equal(t, xproto.Window(2), c.MainWindow().Native())

	t.Setenv("WINDOWID", "2")
	c = New(d, Options{})
	assert.Equal(t, xproto.Window(2), c.CurrentWindow().Native())
}

func TestContainer_NoActiveWindow(t *testing.T) {
	c := newTestContainer(t, newFakeDisplay(), Options{})
	assert.Nil(t, c.MainWindow())
	assert.Nil(t, c.CurrentWindow())
}

func TestContainer_AllWindowsSkipsNonNormal(t *testing.T) {
	d := newFakeDisplay()
	d.add(1, "a", container.Bounds{})
	d.add(2, "panel", container.Bounds{}).normal = false
	d.add(3, "b", container.Bounds{})

	windows, err := newTestContainer(t, d, Options{}).AllWindows(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "0x1", windows[0].ID())
	assert.Equal(t, "0x3", windows[1].ID())
}

func TestContainer_AppOnlyScope(t *testing.T) {
	d := newFakeDisplay()
	d.add(1, "a", container.Bounds{})
	d.add(2, "b", container.Bounds{}).props[NameProperty] = "tagged"

	windows, err := newTestContainer(t, d, Options{AppOnly: true}).AllWindows(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "tagged", windows[0].Name())
}

func TestContainer_WindowLookup(t *testing.T) {
	ctx := context.Background()
	d := newFakeDisplay()
	d.add(0x10, "Editor", container.Bounds{})
	c := newTestContainer(t, d, Options{})

	w, err := c.WindowByID(ctx, "0x10")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "Editor", w.Name())

	w, err = c.WindowByName(ctx, "Editor")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "0x10", w.ID())

	for _, id := range []string{"0x99", "not-an-id"} {
		w, err = c.WindowByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, w)
	}
	w, err = c.WindowByName(ctx, "DoesNotExist")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestContainer_LookupFailure(t *testing.T) {
	d := newFakeDisplay()
	d.failWith["Clients"] = errors.New("connection reset")
	_, err := newTestContainer(t, d, Options{}).WindowByName(context.Background(), "x")
	assert.EqualError(t, err, "connection reset")
}

func TestContainer_CreateWindow(t *testing.T) {
	d := newFakeDisplay()
	d.add(1, "existing", container.Bounds{})
	var argv []string
	c := newTestContainer(t, d, Options{Launcher: launcherFor(d, 9, &argv)})

	var created container.Window
	require.NoError(t, c.AddListener(container.EventWindowCreated, container.NewListener(func(e container.Event) {
		created = e.Window
	})))

	w, err := c.CreateWindow(context.Background(), "http://localhost/app", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"browser", "--app=http://localhost/app"}, argv)
	assert.Equal(t, xproto.Window(9), w.Native())
	assert.True(t, guid.IsValid(w.Name()), "generated name %q", w.Name())
	require.NotNil(t, created)
	assert.True(t, container.SameHandle(w, created))

	u, err := w.(container.URLer).URL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/app", u)
	assert.Zero(t, d.count("MoveResize"), "no geometry requested")
}

func TestContainer_CreateWindowResolvesRelativeURL(t *testing.T) {
	d := newFakeDisplay()
	var argv []string
	c := newTestContainer(t, d, Options{
		Launcher: launcherFor(d, 9, &argv),
		BaseURL:  "http://localhost:8080/app/index.html",
	})

	w, err := c.CreateWindow(context.Background(), "blotter.html", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"browser", "--app=http://localhost:8080/app/blotter.html"}, argv)

	u, err := w.(container.URLer).URL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/app/blotter.html", u)
}

func TestContainer_CreateWindowAppliesBounds(t *testing.T) {
	d := newFakeDisplay()
	c := newTestContainer(t, d, Options{Launcher: launcherFor(d, 9, nil)})

	w, err := c.CreateWindow(context.Background(), "u", &container.WindowOptions{
		Name:  "blotter",
		X:     container.IntPtr(100),
		Width: container.IntPtr(640),
	})
	require.NoError(t, err)
	assert.Equal(t, "blotter", w.Name())

	b, err := w.Bounds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, container.Bounds{X: 100, Y: 0, Width: 640, Height: 600}, b)
}

func TestContainer_CreateWindowCentered(t *testing.T) {
	d := newFakeDisplay()
	d.area = container.Bounds{X: 0, Y: 30, Width: 1000, Height: 800}
	c := newTestContainer(t, d, Options{Launcher: launcherFor(d, 9, nil)})

	w, err := c.CreateWindow(context.Background(), "u", &container.WindowOptions{
		Width:  container.IntPtr(400),
		Height: container.IntPtr(200),
		Center: container.BoolPtr(true),
	})
	require.NoError(t, err)
	b, err := w.Bounds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, container.Bounds{X: 300, Y: 330, Width: 400, Height: 200}, b)
}

func TestContainer_CreateWindowWithoutLauncher(t *testing.T) {
	_, err := newTestContainer(t, newFakeDisplay(), Options{}).CreateWindow(context.Background(), "u", nil)
	assert.ErrorIs(t, err, container.ErrNotSupported)
}

func TestContainer_CloseAllWindows(t *testing.T) {
	d := newFakeDisplay()
	d.add(1, "a", container.Bounds{})
	d.add(2, "b", container.Bounds{})
	c := newTestContainer(t, d, Options{})

	require.NoError(t, c.CloseAllWindows(context.Background()))
	assert.Equal(t, 2, d.count("RequestClose"))

	d.failWith["RequestClose"] = errors.New("BadWindow")
	err := c.CloseAllWindows(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestContainer_SaveLayout(t *testing.T) {
	d := newFakeDisplay()
	d.add(1, "main", container.Bounds{X: 1, Y: 2, Width: 3, Height: 4})
	d.add(2, "chart", container.Bounds{X: 5, Y: 6, Width: 7, Height: 8}).props[URLProperty] = "http://localhost/chart"
	d.active = 1
	store := &memLayouts{}
	c := newTestContainer(t, d, Options{Layouts: store})

	layout, err := c.SaveLayout(context.Background(), "desk")
	require.NoError(t, err)
	assert.Same(t, layout, store.saved["desk"])
	require.Len(t, layout.Windows, 2)
	assert.True(t, layout.Windows[0].Main)
	assert.False(t, layout.Windows[1].Main)
	assert.Equal(t, "http://localhost/chart", layout.Windows[1].URL)
	assert.Empty(t, layout.Windows[1].Group)
}

func TestContainer_ShowNotification(t *testing.T) {
	n := &fakeNotifier{}
	c := newTestContainer(t, newFakeDisplay(), Options{Notifier: n, BaseURL: "http://localhost/app/"})

	require.NoError(t, c.ShowNotification("Build", &container.NotificationOptions{Body: "done", Icon: "ok.png"}))
	require.Len(t, n.sent, 1)
	assert.Equal(t, "Build", n.sent[0].Summary)
	assert.Equal(t, "done", n.sent[0].Body)
	assert.Equal(t, "http://localhost/app/ok.png", n.sent[0].Icon)

	n.err = errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
	err := c.ShowNotification("x", nil)
	assert.True(t, container.IsNative(err))
}

func TestContainer_Unsupported(t *testing.T) {
	c := newTestContainer(t, newFakeDisplay(), Options{})
	assert.ErrorIs(t, c.ShowNotification("x", nil), container.ErrNotSupported)
	assert.ErrorIs(t, c.AddTrayIcon(context.Background(), container.TrayIconDetails{}, nil, nil), container.ErrNotSupported)
}

func TestCenterAndClip(t *testing.T) {
	area := container.Bounds{X: 0, Y: 0, Width: 100, Height: 100}
	assert.Equal(t, container.Bounds{X: 25, Y: 40, Width: 50, Height: 20}, centerIn(area, 50, 20))

	assert.Equal(t,
		container.Bounds{X: 0, Y: 30, Width: 100, Height: 70},
		clip(area, container.Bounds{X: -10, Y: 30, Width: 500, Height: 500}))
	assert.Equal(t, area, clip(area, container.Bounds{X: 200, Y: 200, Width: 5, Height: 5}))
}
