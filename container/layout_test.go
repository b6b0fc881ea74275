package container

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type stuckWindow struct {
	*fakeWindow
}

func (w stuckWindow) SetBounds(context.Context, Bounds) error { return errors.New("window is fixed") }

func TestRestoreLayout(t *testing.T) {
	editor := newFakeWindow("editor")
	blotter := newFakeWindow("blotter")
	wm := &fakeManager{windows: []Window{editor, blotter}}

	layout := &Layout{Name: "desk", Windows: []PersistedWindow{
		{Name: "editor", Bounds: Bounds{X: 10, Y: 20, Width: 300, Height: 200}},
		{Name: "chart", Bounds: Bounds{Width: 100, Height: 100}},
		{Name: "blotter", Bounds: Bounds{X: 400, Width: 500, Height: 600}},
	}}

	res, err := RestoreLayout(context.Background(), wm, layout)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor", "blotter"}, res.Restored)
	assert.Equal(t, []string{"chart"}, res.Missing)
	assert.Equal(t, Bounds{X: 10, Y: 20, Width: 300, Height: 200}, editor.bounds)
	assert.Equal(t, Bounds{X: 400, Width: 500, Height: 600}, blotter.bounds)
}

func TestRestoreLayout_ContinuesPastFailures(t *testing.T) {
	editor := newFakeWindow("editor")
	wm := &fakeManager{windows: []Window{
		stuckWindow{newFakeWindow("a")},
		editor,
		stuckWindow{newFakeWindow("b")},
	}}
	layout := &Layout{Windows: []PersistedWindow{
		{Name: "a"}, {Name: "editor", Bounds: Bounds{Width: 1, Height: 1}}, {Name: "b"},
	}}

	res, err := RestoreLayout(context.Background(), wm, layout)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorContains(t, err, `failed to move "a": window is fixed`)
	assert.Equal(t, []string{"editor"}, res.Restored)
	assert.Equal(t, Bounds{Width: 1, Height: 1}, editor.bounds)
}

func TestRestoreLayout_Nil(t *testing.T) {
	_, err := RestoreLayout(context.Background(), &fakeManager{}, nil)
	assert.Error(t, err)
}
