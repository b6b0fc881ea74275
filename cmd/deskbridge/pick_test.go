package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/palette"
)

type pickWindowStub struct {
	container.NoGrouping
	name   string
	bounds container.Bounds
	hidden bool
}

func (w *pickWindowStub) ID() string                                       { return w.name }
func (w *pickWindowStub) Name() string                                     { return w.name }
func (w *pickWindowStub) Native() any                                      { return w }
func (w *pickWindowStub) Focus(context.Context) error                      { return nil }
func (w *pickWindowStub) Show(context.Context) error                       { return nil }
func (w *pickWindowStub) Hide(context.Context) error                       { return nil }
func (w *pickWindowStub) Close(context.Context, bool) error                { return nil }
func (w *pickWindowStub) IsShowing(context.Context) (bool, error)          { return !w.hidden, nil }
func (w *pickWindowStub) Snapshot(context.Context) (string, error)         { return "", nil }
func (w *pickWindowStub) Bounds(context.Context) (container.Bounds, error) { return w.bounds, nil }
func (w *pickWindowStub) SetBounds(context.Context, container.Bounds) error {
	return nil
}
func (w *pickWindowStub) Flash(context.Context, bool) error                { return nil }
func (w *pickWindowStub) AddListener(string, *container.Listener) error    { return nil }
func (w *pickWindowStub) RemoveListener(string, *container.Listener) error { return nil }

type pickManagerStub struct {
	windows []container.Window
}

func (m *pickManagerStub) MainWindow() container.Window    { return m.windows[0] }
func (m *pickManagerStub) CurrentWindow() container.Window { return m.windows[0] }
func (m *pickManagerStub) CreateWindow(context.Context, string, *container.WindowOptions) (container.Window, error) {
	return nil, container.Unsupported("window creation")
}
func (m *pickManagerStub) AllWindows(context.Context) ([]container.Window, error) {
	return m.windows, nil
}
func (m *pickManagerStub) WindowByID(context.Context, string) (container.Window, error) {
	return nil, nil
}
func (m *pickManagerStub) WindowByName(context.Context, string) (container.Window, error) {
	return nil, nil
}
func (m *pickManagerStub) CloseAllWindows(context.Context) error { return nil }
func (m *pickManagerStub) SaveLayout(context.Context, string) (*container.Layout, error) {
	return nil, nil
}

type menuStub struct {
	items  []palette.Item
	choose int
	err    error
}

func (m *menuStub) Name() string { return "stub" }

func (m *menuStub) Show(_ context.Context, _ string, items []palette.Item) (palette.Item, error) {
	m.items = items
	if m.err != nil {
		return palette.Item{}, m.err
	}
	return items[m.choose], nil
}

func TestPickWindow(t *testing.T) {
	chart := &pickWindowStub{name: "chart", bounds: container.Bounds{Width: 300, Height: 200}, hidden: true}
	wm := &pickManagerStub{windows: []container.Window{
		&pickWindowStub{name: "main", bounds: container.Bounds{X: 1, Y: 2, Width: 800, Height: 600}},
		chart,
	}}
	menu := &menuStub{choose: 1}

	w, err := pickWindow(context.Background(), menu, wm)
	require.NoError(t, err)
	assert.Same(t, chart, w)

	assert.Equal(t, []palette.Item{
		{Label: "main  800x600+1+2", Value: "0", Active: true},
		{Label: "chart  300x200+0+0", Value: "1", Urgent: true},
	}, menu.items)
}

func TestPickWindow_Cancelled(t *testing.T) {
	wm := &pickManagerStub{windows: []container.Window{&pickWindowStub{name: "main"}}}
	_, err := pickWindow(context.Background(), &menuStub{err: palette.ErrCancelled}, wm)
	assert.ErrorIs(t, err, palette.ErrCancelled)
}

func TestRunPick_Usage(t *testing.T) {
	assert.Equal(t, 2, runPick([]string{"--action", "explode"}))
	assert.Equal(t, 2, runPick([]string{"extra"}))
}
