package sway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/guid"
	"github.com/1broseidon/deskbridge/internal/launch"
)

type memLayouts struct {
	name   string
	layout *container.Layout
}

func (m *memLayouts) SaveLayout(name string, l *container.Layout) error {
	m.name, m.layout = name, l
	return nil
}

func newTestContainer(t *testing.T, ipc *fakeIPC, opts Options) *Container {
	t.Helper()
	c := New(context.Background(), ipc, opts)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testLauncher(ipc *fakeIPC, id int64, started *[]string) *launch.Launcher {
	return &launch.Launcher{
		Template: "browser --app={{url}}",
		Timeout:  time.Second,
		Start: func(argv []string) error {
			*started = argv
			ipc.addView(View{ID: id, Name: "page", Visible: true, Rect: container.Bounds{Width: 800, Height: 600}})
			return nil
		},
	}
}

func withFastPoll(t *testing.T) {
	t.Helper()
	old := launch.PollInterval
	launch.PollInterval = 5 * time.Millisecond
	t.Cleanup(func() { launch.PollInterval = old })
}

func TestContainer_Identity(t *testing.T) {
	c := newTestContainer(t, newFakeIPC(), Options{})
	assert.Equal(t, "Sway", c.HostType())
	assert.True(t, guid.IsValid(c.UUID()))
	require.NotNil(t, c.Bus())
}

func TestContainer_MainWindowIsFocusedView(t *testing.T) {
	ipc := newFakeIPC(View{ID: 1}, View{ID: 2, Focused: true})
	c := newTestContainer(t, ipc, Options{})

	require.NotNil(t, c.MainWindow())
	assert.Equal(t, "2", c.MainWindow().ID())
	assert.True(t, container.SameHandle(c.MainWindow(), c.CurrentWindow()))
}

func TestContainer_NoFocusedView(t *testing.T) {
	ipc := newFakeIPC()
	ipc.failTree = errors.New("connection refused")
	c := newTestContainer(t, ipc, Options{})
	assert.Nil(t, c.MainWindow())
	assert.Nil(t, c.CurrentWindow())

	_, err := c.AllWindows(context.Background())
	require.Error(t, err)
	assert.Equal(t, "connection refused", err.Error())
}

func TestContainer_AllWindows(t *testing.T) {
	ipc := newFakeIPC(
		View{ID: 1, Name: "editor"},
		View{ID: 2, Name: "blotter", Marks: []string{NameMarkPrefix + "blotter"}},
	)
	ctx := context.Background()

	all, err := newTestContainer(t, ipc, Options{}).AllWindows(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID())

	own, err := newTestContainer(t, ipc, Options{AppOnly: true}).AllWindows(ctx)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "blotter", own[0].Name())
}

func TestContainer_WindowLookup(t *testing.T) {
	ipc := newFakeIPC(
		View{ID: 1, Name: "blotter"},
		View{ID: 2, Name: "other", Marks: []string{NameMarkPrefix + "blotter"}},
	)
	c := newTestContainer(t, ipc, Options{})
	ctx := context.Background()

	w, err := c.WindowByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, int64(1), w.Native())

	w, err = c.WindowByName(ctx, "blotter")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "2", w.ID(), "marked name wins over a matching title")

	w, err = c.WindowByName(ctx, "editor")
	require.NoError(t, err)
	assert.Nil(t, w)

	for _, id := range []string{"99", "not-a-number"} {
		w, err = c.WindowByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, w)
	}
}

func TestContainer_CreateWindow(t *testing.T) {
	withFastPoll(t)
	ipc := newFakeIPC(View{ID: 1, Focused: true})
	var started []string
	c := newTestContainer(t, ipc, Options{Launcher: testLauncher(ipc, 42, &started)})

	var created container.Window
	require.NoError(t, c.AddListener(container.EventWindowCreated, container.NewListener(func(e container.Event) {
		created = e.Window
	})))

	w, err := c.CreateWindow(context.Background(), "http://localhost/app", &container.WindowOptions{Name: "blotter"})
	require.NoError(t, err)
	assert.Equal(t, []string{"browser", "--app=http://localhost/app"}, started)
	assert.Equal(t, "42", w.ID())
	assert.Equal(t, "blotter", w.Name())
	assert.Equal(t, `[con_id=42] mark --add "deskbridge:blotter", mark --add "deskbridge-url:http://localhost/app"`, ipc.lastCommand())

	url, err := w.(container.URLer).URL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/app", url)

	require.NotNil(t, created)
	assert.True(t, container.SameHandle(w, created))
}

func TestContainer_CreateWindowResolvesRelativeURL(t *testing.T) {
	withFastPoll(t)
	ipc := newFakeIPC()
	var started []string
	c := newTestContainer(t, ipc, Options{
		Launcher: testLauncher(ipc, 42, &started),
		BaseURL:  "http://localhost:8080/app/index.html",
	})

	_, err := c.CreateWindow(context.Background(), "blotter.html", &container.WindowOptions{Name: "blotter"})
	require.NoError(t, err)
	assert.Equal(t, []string{"browser", "--app=http://localhost:8080/app/blotter.html"}, started)
	assert.Contains(t, ipc.lastCommand(), `"deskbridge-url:http://localhost:8080/app/blotter.html"`)
}

func TestContainer_CreateWindowGeneratesName(t *testing.T) {
	withFastPoll(t)
	ipc := newFakeIPC()
	var started []string
	c := newTestContainer(t, ipc, Options{Launcher: testLauncher(ipc, 7, &started)})

	w, err := c.CreateWindow(context.Background(), "u", nil)
	require.NoError(t, err)
	assert.True(t, guid.IsValid(w.Name()), "generated name %q", w.Name())
}

func TestContainer_CreateWindowPlacement(t *testing.T) {
	withFastPoll(t)
	ipc := newFakeIPC()
	var started []string
	c := newTestContainer(t, ipc, Options{Launcher: testLauncher(ipc, 7, &started)})

	w, err := c.CreateWindow(context.Background(), "u", &container.WindowOptions{
		Name:   "n",
		X:      container.IntPtr(100),
		Width:  container.IntPtr(500),
		Center: container.BoolPtr(true),
	})
	require.NoError(t, err)

	b, err := w.Bounds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, container.Bounds{X: 100, Y: 0, Width: 500, Height: 600}, b)
	assert.Equal(t, "[con_id=7] floating enable, move position center", ipc.lastCommand())
}

func TestContainer_CreateWindowWithoutLauncher(t *testing.T) {
	c := newTestContainer(t, newFakeIPC(), Options{})
	_, err := c.CreateWindow(context.Background(), "u", nil)
	assert.ErrorIs(t, err, container.ErrNotSupported)
}

func TestContainer_CloseAllWindows(t *testing.T) {
	ipc := newFakeIPC(View{ID: 1}, View{ID: 2})
	c := newTestContainer(t, ipc, Options{})

	require.NoError(t, c.CloseAllWindows(context.Background()))
	assert.ElementsMatch(t, []string{"[con_id=1] kill", "[con_id=2] kill"}, ipc.commands)
}

func TestContainer_SaveLayout(t *testing.T) {
	ipc := newFakeIPC(
		View{ID: 1, Focused: true, Rect: container.Bounds{X: 0, Y: 1, Width: 2, Height: 3},
			Marks: []string{NameMarkPrefix + "main", URLMarkPrefix + "http://x/"}},
		View{ID: 2, Name: "editor"},
	)
	store := &memLayouts{}
	c := newTestContainer(t, ipc, Options{Layouts: store})

	layout, err := c.SaveLayout(context.Background(), "desk")
	require.NoError(t, err)
	assert.Equal(t, "desk", store.name)
	assert.Same(t, layout, store.layout)
	require.Len(t, layout.Windows, 2)
	assert.Equal(t, container.PersistedWindow{
		ID:     "1",
		Name:   "main",
		URL:    "http://x/",
		Main:   true,
		Bounds: container.Bounds{X: 0, Y: 1, Width: 2, Height: 3},
	}, layout.Windows[0])
	assert.False(t, layout.Windows[1].Main)
	assert.Empty(t, layout.Windows[1].Group)
}

func TestContainer_ShowNotification(t *testing.T) {
	n := &fakeNotifier{}
	c := newTestContainer(t, newFakeIPC(), Options{Notifier: n, BaseURL: "http://localhost/app/index.html"})

	require.NoError(t, c.ShowNotification("title", &container.NotificationOptions{Body: "hi", Icon: "icon.png"}))
	require.Len(t, n.sent, 1)
	assert.Equal(t, "title", n.sent[0].Summary)
	assert.Equal(t, "hi", n.sent[0].Body)
	assert.Equal(t, "http://localhost/app/icon.png", n.sent[0].Icon)
}

func TestContainer_Unsupported(t *testing.T) {
	c := newTestContainer(t, newFakeIPC(), Options{})
	assert.ErrorIs(t, c.ShowNotification("t", nil), container.ErrNotSupported)
	assert.ErrorIs(t, c.AddTrayIcon(context.Background(), container.TrayIconDetails{}, nil, nil), container.ErrNotSupported)
}
