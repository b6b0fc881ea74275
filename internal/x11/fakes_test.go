package x11

import (
	"context"
	"errors"
	"sync"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/notify"
)

type fakeClient struct {
	title    string
	props    map[string]string
	bounds   container.Bounds
	viewable bool
	attn     bool
	normal   bool
}

type fakeDisplay struct {
	mu       sync.Mutex
	clients  []xproto.Window
	windows  map[xproto.Window]*fakeClient
	active   xproto.Window
	area     container.Bounds
	calls    []string
	failWith map[string]error
	watchers map[watchKey][]EventFunc
	// onLaunch, when set, runs when a new window should appear.
	onLaunch func()
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		windows:  make(map[xproto.Window]*fakeClient),
		failWith: make(map[string]error),
		watchers: make(map[watchKey][]EventFunc),
		area:     container.Bounds{X: 0, Y: 0, Width: 1920, Height: 1080},
	}
}

func (d *fakeDisplay) add(win xproto.Window, title string, b container.Bounds) *fakeClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &fakeClient{title: title, props: map[string]string{}, bounds: b, viewable: true, normal: true}
	d.windows[win] = c
	d.clients = append(d.clients, win)
	return c
}

func (d *fakeDisplay) record(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, op)
	return d.failWith[op]
}

func (d *fakeDisplay) count(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (d *fakeDisplay) client(win xproto.Window) (*fakeClient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.windows[win]
	if !ok {
		return nil, errors.New("BadWindow")
	}
	return c, nil
}

func (d *fakeDisplay) fire(win xproto.Window, event string, details map[string]any) {
	d.mu.Lock()
	fns := append([]EventFunc(nil), d.watchers[watchKey{win, event}]...)
	d.mu.Unlock()
	for _, fn := range fns {
		fn(details)
	}
}

func (d *fakeDisplay) Clients() ([]xproto.Window, error) {
	if err := d.record("Clients"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]xproto.Window(nil), d.clients...), nil
}

func (d *fakeDisplay) ActiveWindow() (xproto.Window, error) {
	return d.active, d.record("ActiveWindow")
}

func (d *fakeDisplay) IsNormalWindow(win xproto.Window) bool {
	c, err := d.client(win)
	return err == nil && c.normal
}

func (d *fakeDisplay) Title(win xproto.Window) string {
	c, err := d.client(win)
	if err != nil {
		return ""
	}
	return c.title
}

func (d *fakeDisplay) Property(win xproto.Window, name string) (string, error) {
	c, err := d.client(win)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return c.props[name], nil
}

func (d *fakeDisplay) SetProperty(win xproto.Window, name, value string) error {
	if err := d.record("SetProperty"); err != nil {
		return err
	}
	c, err := d.client(win)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	c.props[name] = value
	return nil
}

func (d *fakeDisplay) Geometry(win xproto.Window) (container.Bounds, error) {
	if err := d.record("Geometry"); err != nil {
		return container.Bounds{}, err
	}
	c, err := d.client(win)
	if err != nil {
		return container.Bounds{}, err
	}
	return c.bounds, nil
}

func (d *fakeDisplay) MoveResize(win xproto.Window, b container.Bounds) error {
	if err := d.record("MoveResize"); err != nil {
		return err
	}
	c, err := d.client(win)
	if err != nil {
		return err
	}
	d.mu.Lock()
	c.bounds = b
	d.mu.Unlock()
	return nil
}

func (d *fakeDisplay) WorkArea() (container.Bounds, error) {
	return d.area, d.record("WorkArea")
}

func (d *fakeDisplay) Activate(win xproto.Window) error { return d.record("Activate") }

func (d *fakeDisplay) Map(win xproto.Window) error {
	if err := d.record("Map"); err != nil {
		return err
	}
	c, err := d.client(win)
	if err == nil {
		c.viewable = true
	}
	return err
}

func (d *fakeDisplay) Iconify(win xproto.Window) error {
	if err := d.record("Iconify"); err != nil {
		return err
	}
	c, err := d.client(win)
	if err == nil {
		c.viewable = false
	}
	return err
}

func (d *fakeDisplay) IsViewable(win xproto.Window) (bool, error) {
	if err := d.record("IsViewable"); err != nil {
		return false, err
	}
	c, err := d.client(win)
	if err != nil {
		return false, err
	}
	return c.viewable, nil
}

func (d *fakeDisplay) RequestClose(win xproto.Window) error { return d.record("RequestClose") }

func (d *fakeDisplay) Kill(win xproto.Window) error { return d.record("Kill") }

func (d *fakeDisplay) SetDemandsAttention(win xproto.Window, on bool) error {
	if err := d.record("SetDemandsAttention"); err != nil {
		return err
	}
	c, err := d.client(win)
	if err == nil {
		c.attn = on
	}
	return err
}

func (d *fakeDisplay) CapturePNG(win xproto.Window) ([]byte, error) {
	if err := d.record("CapturePNG"); err != nil {
		return nil, err
	}
	return []byte("\x89PNG"), nil
}

func (d *fakeDisplay) Watch(win xproto.Window, event string, fn EventFunc) (func(), error) {
	if err := d.record("Watch"); err != nil {
		return nil, err
	}
	switch event {
	case EventConfigureNotify, EventClientMessage, EventDestroyNotify, EventFocusIn,
		EventFocusOut, EventUnmapNotify, EventMapNotify:
	default:
		return nil, errors.New("unsupported X event")
	}
	key := watchKey{win: win, event: event}
	d.mu.Lock()
	d.watchers[key] = append(d.watchers[key], fn)
	idx := len(d.watchers[key]) - 1
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.watchers[key][idx] = func(map[string]any) {}
	}, nil
}

type fakeNotifier struct {
	sent []notify.Notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, msg notify.Notification) (uint32, error) {
	if n.err != nil {
		return 0, n.err
	}
	n.sent = append(n.sent, msg)
	return uint32(len(n.sent)), nil
}
