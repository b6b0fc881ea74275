// Package launch starts browser windows for hosts that have no window
// creation API of their own and waits for the new window to appear.
package launch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout is returned when no new window shows up in time.
var ErrTimeout = errors.New("timed out waiting for new window")

// PollInterval is how often the window list is re-read while waiting.
var PollInterval = 150 * time.Millisecond

// ListFunc returns the ids of the windows currently on screen.
type ListFunc[ID comparable] func(ctx context.Context) ([]ID, error)

// Launcher renders a command template and runs it.
type Launcher struct {
	// Template is a command line with {{url}} and optional {{name}}
	// placeholders.
	Template string
	Timeout  time.Duration
	// Start runs argv without waiting for it. Defaults to StartProcess.
	Start func(argv []string) error
}

// Open starts a window on url and returns the id of the first window that
// was not on screen before the launch.
func Open[ID comparable](ctx context.Context, l *Launcher, url, name string, list ListFunc[ID]) (ID, error) {
	var zero ID
	argv, err := RenderCommand(l.Template, url, name)
	if err != nil {
		return zero, fmt.Errorf("failed to render browser command: %w", err)
	}
	if len(argv) == 0 {
		return zero, fmt.Errorf("browser command is empty")
	}

	before, err := list(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to list windows: %w", err)
	}
	existing := make(map[ID]struct{}, len(before))
	for _, id := range before {
		existing[id] = struct{}{}
	}

	start := l.Start
	if start == nil {
		start = StartProcess
	}
	if err := start(argv); err != nil {
		return zero, err
	}
	return WaitForNew(ctx, list, existing, l.Timeout)
}

// StartProcess starts argv and reaps it in the background. Browser windows
// are long-lived, so the caller does not wait.
func StartProcess(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %q: %w", argv[0], err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// WaitForNew polls list until an id outside existing appears, ctx is done,
// or timeout passes. A zero timeout waits on ctx alone.
func WaitForNew[ID comparable](ctx context.Context, list ListFunc[ID], existing map[ID]struct{}, timeout time.Duration) (ID, error) {
	var zero ID
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		ids, err := list(ctx)
		if err == nil {
			for _, id := range ids {
				if _, ok := existing[id]; !ok {
					return id, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
			}
			return zero, ctx.Err()
		case <-ticker.C:
		}
	}
}

// RenderCommand splits template into argv and substitutes {{url}} and
// {{name}}. Substituted values are never re-split.
func RenderCommand(template, url, name string) ([]string, error) {
	argv, err := SplitCommand(template)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(argv))
	for _, arg := range argv {
		hadName := strings.Contains(arg, "{{name}}")
		arg = strings.ReplaceAll(arg, "{{url}}", url)
		arg = strings.ReplaceAll(arg, "{{name}}", name)
		if hadName && name == "" && strings.TrimSpace(arg) == "" {
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

// SplitCommand splits a command line with shell-like quoting.
func SplitCommand(s string) ([]string, error) {
	var out []string

	var buf strings.Builder
	inSingle := false
	inDouble := false
	escaped := false
	started := false

	flush := func() {
		if !started {
			return
		}
		out = append(out, buf.String())
		buf.Reset()
		started = false
	}

	for _, r := range s {
		if escaped {
			buf.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case !inSingle && r == '\\':
			escaped, started = true, true
		case !inDouble && r == '\'':
			inSingle, started = !inSingle, true
		case !inSingle && r == '"':
			inDouble, started = !inDouble, true
		case !inSingle && !inDouble && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			buf.WriteRune(r)
			started = true
		}
	}

	if escaped {
		return nil, fmt.Errorf("unfinished escape in command template")
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("unterminated quote in command template")
	}

	flush()
	return out, nil
}

// ShellQuote quotes s for display in a shell command line.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\r\n'\"\\$`(){}[]*?!;|&<>") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
