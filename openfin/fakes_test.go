package openfin

import (
	"sync"
)

type call struct {
	method string
	args   []any
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) record(method string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{method: method, args: args})
}

func (r *recorder) called(method string) []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []call
	for _, c := range r.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeWindow struct {
	recorder
	name string

	failWith map[string]string
	group    []NativeWindow
	options  WindowOptions
	bounds   WindowBounds
	snapshot string
	showing  bool
}

func newFakeWindow(name string) *fakeWindow {
	return &fakeWindow{
		name:     name,
		failWith: map[string]string{},
		options:  WindowOptions{URL: "url"},
		bounds:   WindowBounds{Left: 0, Top: 1, Width: 2, Height: 3},
		showing:  true,
	}
}

func (w *fakeWindow) settle(method string, done func(), fail func(string)) {
	if reason, ok := w.failWith[method]; ok {
		fail(reason)
		return
	}
	done()
}

func (w *fakeWindow) Name() string { return w.name }

func (w *fakeWindow) Focus(done func(), fail func(string)) {
	w.record("Focus")
	w.settle("Focus", done, fail)
}

func (w *fakeWindow) Show(done func(), fail func(string)) {
	w.record("Show")
	w.settle("Show", done, fail)
}

func (w *fakeWindow) ShowAt(left, top int, force bool, done func(), fail func(string)) {
	w.record("ShowAt", left, top, force)
	w.settle("ShowAt", done, fail)
}

func (w *fakeWindow) Hide(done func(), fail func(string)) {
	w.record("Hide")
	w.settle("Hide", done, fail)
}

func (w *fakeWindow) Close(force bool, done func(), fail func(string)) {
	w.record("Close", force)
	w.settle("Close", done, fail)
}

func (w *fakeWindow) IsShowing(done func(bool), fail func(string)) {
	w.record("IsShowing")
	w.settle("IsShowing", func() { done(w.showing) }, fail)
}

func (w *fakeWindow) GetSnapshot(done func(string), fail func(string)) {
	w.record("GetSnapshot")
	w.settle("GetSnapshot", func() { done(w.snapshot) }, fail)
}

func (w *fakeWindow) GetBounds(done func(WindowBounds), fail func(string)) {
	w.record("GetBounds")
	w.settle("GetBounds", func() { done(w.bounds) }, fail)
}

func (w *fakeWindow) SetBounds(left, top, width, height int, done func(), fail func(string)) {
	w.record("SetBounds", left, top, width, height)
	w.settle("SetBounds", done, fail)
}

func (w *fakeWindow) Flash(opts *FlashOptions, done func(), fail func(string)) {
	w.record("Flash", opts)
	w.settle("Flash", done, fail)
}

func (w *fakeWindow) StopFlashing(done func(), fail func(string)) {
	w.record("StopFlashing")
	w.settle("StopFlashing", done, fail)
}

func (w *fakeWindow) GetOptions(done func(WindowOptions), fail func(string)) {
	w.record("GetOptions")
	w.settle("GetOptions", func() { done(w.options) }, fail)
}

func (w *fakeWindow) GetGroup(done func([]NativeWindow), fail func(string)) {
	w.record("GetGroup")
	w.settle("GetGroup", func() { done(w.group) }, fail)
}

func (w *fakeWindow) JoinGroup(target NativeWindow, done func(), fail func(string)) {
	w.record("JoinGroup", target)
	w.settle("JoinGroup", done, fail)
}

func (w *fakeWindow) LeaveGroup(done func(), fail func(string)) {
	w.record("LeaveGroup")
	w.settle("LeaveGroup", done, fail)
}

func (w *fakeWindow) AddEventListener(event string, handler *EventHandler, done func(), fail func(string)) {
	w.record("AddEventListener", event, handler)
	w.settle("AddEventListener", done, fail)
}

func (w *fakeWindow) RemoveEventListener(event string, handler *EventHandler, done func(), fail func(string)) {
	w.record("RemoveEventListener", event, handler)
	w.settle("RemoveEventListener", done, fail)
}

type fakeApp struct {
	recorder
	uuid     string
	main     NativeWindow
	children []NativeWindow
	onClick  func(TrayClick)
	trayFail string
}

func (a *fakeApp) UUID() string         { return a.uuid }
func (a *fakeApp) Window() NativeWindow { return a.main }

func (a *fakeApp) ChildWindows(done func([]NativeWindow), fail func(string)) {
	a.record("ChildWindows")
	done(a.children)
}

func (a *fakeApp) SetTrayIcon(icon string, onClick func(TrayClick), done func(), fail func(string)) {
	a.record("SetTrayIcon", icon)
	if a.trayFail != "" {
		fail(a.trayFail)
		return
	}
	a.mu.Lock()
	a.onClick = onClick
	a.mu.Unlock()
	done()
}

type fakeBus struct {
	recorder
	lmu       sync.Mutex
	listeners map[string][]BusListener
	failWith  string
}

func (b *fakeBus) settle(done func(), fail func(string)) {
	if b.failWith != "" {
		fail(b.failWith)
		return
	}
	done()
}

func (b *fakeBus) Subscribe(uuid, name, topic string, listener BusListener, done func(), fail func(string)) {
	b.record("Subscribe", uuid, name, topic, listener)
	b.lmu.Lock()
	if b.listeners == nil {
		b.listeners = map[string][]BusListener{}
	}
	b.listeners[topic] = append(b.listeners[topic], listener)
	b.lmu.Unlock()
	b.settle(done, fail)
}

func (b *fakeBus) Unsubscribe(uuid, name, topic string, listener BusListener, done func(), fail func(string)) {
	b.record("Unsubscribe", uuid, name, topic, listener)
	b.settle(done, fail)
}

func (b *fakeBus) Send(uuid, name, topic string, message any, done func(), fail func(string)) {
	b.record("Send", uuid, name, topic, message)
	b.settle(done, fail)
}

func (b *fakeBus) Publish(topic string, message any, done func(), fail func(string)) {
	b.record("Publish", topic, message)
	b.settle(done, fail)
}

// deliver simulates the runtime delivering message on topic from uuid/name.
func (b *fakeBus) deliver(topic string, message any, uuid, name string) {
	b.lmu.Lock()
	listeners := append([]BusListener(nil), b.listeners[topic]...)
	b.lmu.Unlock()
	for _, l := range listeners {
		l.Deliver(message, uuid, name)
	}
}

type fakeDesktop struct {
	recorder
	app           *fakeApp
	current       NativeWindow
	bus           *fakeBus
	notifications []NotificationOptions
	created       []*fakeWindow
	createFail    string
}

func newFakeDesktop() *fakeDesktop {
	singleton := newFakeWindow("Singleton")
	return &fakeDesktop{
		app: &fakeApp{
			uuid:     "uuid",
			main:     singleton,
			children: []NativeWindow{singleton},
		},
		current: singleton,
		bus:     &fakeBus{},
	}
}

func (d *fakeDesktop) CurrentApplication() Application          { return d.app }
func (d *fakeDesktop) CurrentWindow() NativeWindow              { return d.current }
func (d *fakeDesktop) InterApplicationBus() InterApplicationBus { return d.bus }

func (d *fakeDesktop) NewWindow(opts WindowOptions, done func(NativeWindow), fail func(string)) {
	d.record("NewWindow", opts)
	if d.createFail != "" {
		fail(d.createFail)
		return
	}
	w := newFakeWindow(opts.Name)
	w.options = opts
	d.created = append(d.created, w)
	done(w)
}

func (d *fakeDesktop) Notification(opts NotificationOptions) {
	d.record("Notification", opts)
	d.notifications = append(d.notifications, opts)
}
