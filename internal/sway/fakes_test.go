package sway

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/notify"
)

// fakeIPC keeps a flat list of views and understands the handful of
// commands the adapter sends.
type fakeIPC struct {
	mu       sync.Mutex
	views    []View
	commands []string
	failCmd  error
	failTree error

	subscribed chan func(WindowEvent)
}

func newFakeIPC(views ...View) *fakeIPC {
	return &fakeIPC{views: views, subscribed: make(chan func(WindowEvent), 1)}
}

func (f *fakeIPC) Views(ctx context.Context) ([]View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTree != nil {
		return nil, f.failTree
	}
	out := make([]View, len(f.views))
	for i, v := range f.views {
		v.Marks = append([]string(nil), v.Marks...)
		out[i] = v
	}
	return out, nil
}

func (f *fakeIPC) addView(v View) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, v)
}

func (f *fakeIPC) find(id int64) *View {
	for i := range f.views {
		if f.views[i].ID == id {
			return &f.views[i]
		}
	}
	return nil
}

var criteria = regexp.MustCompile(`^\[con_id=(\d+)\] (.*)$`)

func (f *fakeIPC) Command(ctx context.Context, cmd string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	if f.failCmd != nil {
		return f.failCmd
	}
	m := criteria.FindStringSubmatch(cmd)
	if m == nil {
		return fmt.Errorf("unexpected command %q", cmd)
	}
	var id int64
	fmt.Sscan(m[1], &id)
	v := f.find(id)
	if v == nil {
		return errors.New("No matching node.")
	}
	for _, part := range strings.Split(m[2], ", ") {
		var x, y, w, h int
		switch {
		case strings.HasPrefix(part, "mark --add "):
			mark := strings.Trim(strings.TrimPrefix(part, "mark --add "), `"`)
			v.Marks = append(v.Marks, mark)
		case part == "move scratchpad":
			v.Visible = false
		case part == "scratchpad show":
			v.Visible = true
		case part == "urgent enable":
			v.Urgent = true
		case part == "urgent disable":
			v.Urgent = false
		case strings.HasPrefix(part, "move absolute position"):
			fmt.Sscanf(part, "move absolute position %d %d", &x, &y)
			v.Rect.X, v.Rect.Y = x, y
		case strings.HasPrefix(part, "resize set"):
			fmt.Sscanf(part, "resize set %d %d", &w, &h)
			v.Rect.Width, v.Rect.Height = w, h
		}
	}
	return nil
}

func (f *fakeIPC) lastCommand() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.commands) == 0 {
		return ""
	}
	return f.commands[len(f.commands)-1]
}

func (f *fakeIPC) SubscribeWindows(ctx context.Context, fn func(WindowEvent)) error {
	f.subscribed <- fn
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeIPC) Capture(ctx context.Context, r container.Bounds) ([]byte, error) {
	return []byte(fmt.Sprintf("png %d,%d %dx%d", r.X, r.Y, r.Width, r.Height)), nil
}

type fakeNotifier struct {
	sent []notify.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, msg notify.Notification) (uint32, error) {
	n.sent = append(n.sent, msg)
	return 1, nil
}
