package launch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"chromium --app={{url}}", []string{"chromium", "--app={{url}}"}},
		{`firefox  --new-window   {{url}}`, []string{"firefox", "--new-window", "{{url}}"}},
		{`sh -c 'open "{{url}}"'`, []string{"sh", "-c", `open "{{url}}"`}},
		{`a "b c" d\ e`, []string{"a", "b c", "d e"}},
		{`a "" b`, []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SplitCommand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SplitCommand(`a "b`)
	assert.Error(t, err)
	_, err = SplitCommand(`a \`)
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	argv, err := RenderCommand("chromium --app={{url}} --class={{name}}", "http://x/?a=1 2", "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"chromium", "--app=http://x/?a=1 2", "--class=main"}, argv)

	argv, err = RenderCommand("browser {{url}} {{name}}", "u", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"browser", "u"}, argv)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "''", ShellQuote(""))
	assert.Equal(t, "plain", ShellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, ShellQuote("it's"))
}

type fakeScreen struct {
	mu    sync.Mutex
	ids   []uint32
	calls int
	// appearAfter adds id on the given list call.
	appearAfter int
	id          uint32
}

func (s *fakeScreen) list(context.Context) ([]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.appearAfter > 0 && s.calls == s.appearAfter {
		s.ids = append(s.ids, s.id)
	}
	return append([]uint32(nil), s.ids...), nil
}

func withFastPoll(t *testing.T) {
	t.Helper()
	old := PollInterval
	PollInterval = 5 * time.Millisecond
	t.Cleanup(func() { PollInterval = old })
}

func TestOpen_ReturnsNewWindow(t *testing.T) {
	withFastPoll(t)
	screen := &fakeScreen{ids: []uint32{1, 2}, appearAfter: 3, id: 7}

	var started []string
	l := &Launcher{
		Template: "browser --app={{url}}",
		Timeout:  time.Second,
		Start:    func(argv []string) error { started = argv; return nil },
	}

	id, err := Open[uint32](context.Background(), l, "http://localhost/", "w", screen.list)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), id)
	assert.Equal(t, []string{"browser", "--app=http://localhost/"}, started)
}

func TestOpen_StartFailure(t *testing.T) {
	screen := &fakeScreen{}
	l := &Launcher{
		Template: "browser {{url}}",
		Start:    func([]string) error { return errors.New("no such file") },
	}
	_, err := Open[uint32](context.Background(), l, "u", "", screen.list)
	assert.EqualError(t, err, "no such file")
}

func TestWaitForNew_Timeout(t *testing.T) {
	withFastPoll(t)
	screen := &fakeScreen{ids: []uint32{1}}

	_, err := WaitForNew(context.Background(), screen.list, map[uint32]struct{}{1: {}}, 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestWaitForNew_ContextCanceled(t *testing.T) {
	withFastPoll(t)
	screen := &fakeScreen{ids: []uint32{1}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WaitForNew(ctx, screen.list, map[uint32]struct{}{1: {}}, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
