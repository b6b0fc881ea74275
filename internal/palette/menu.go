package palette

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type kind int

const (
	kindRofi kind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

var kinds = map[string]kind{
	"rofi":   kindRofi,
	"fuzzel": kindFuzzel,
	"wofi":   kindWofi,
	"dmenu":  kindDmenu,
}

// runner executes command with args, writes stdin to it and returns stdout.
type runner func(ctx context.Context, command string, args []string, stdin string) (string, error)

// menu drives any launcher that speaks the dmenu protocol: one row per
// stdin line, the choice on stdout.
type menu struct {
	command string
	kind    kind
	run     runner
}

func newMenu(command string, k kind, run runner) *menu {
	return &menu{command: command, kind: k, run: run}
}

func (m *menu) Name() string { return m.command }

// byIndex reports whether the launcher can print the selected row number
// instead of its text.
func (m *menu) byIndex() bool {
	return m.kind == kindRofi || m.kind == kindFuzzel
}

func (m *menu) Show(ctx context.Context, prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}
	labels := m.labels(items)
	out, err := m.run(ctx, m.command, m.args(prompt, items), strings.Join(labels, "\n"))
	selection := strings.TrimSpace(out)
	if err != nil {
		if selection == "" && isCancelExit(err) {
			return Item{}, ErrCancelled
		}
		return Item{}, err
	}
	if selection == "" {
		return Item{}, ErrCancelled
	}

	if m.byIndex() {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for i, label := range labels {
		if label == selection {
			return items[i], nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

// labels renders one line per item. Launchers that answer with the row text
// need every label to be unique, so repeats get a counter.
func (m *menu) labels(items []Item) []string {
	out := make([]string, len(items))
	seen := make(map[string]int)
	for i, item := range items {
		label := sanitizeLabel(item.Label)
		if !m.byIndex() {
			if n := seen[label]; n > 0 {
				seen[label]++
				label = fmt.Sprintf("%s (%d)", label, n+1)
			} else {
				seen[label] = 1
			}
		}
		out[i] = label
	}
	return out
}

func (m *menu) args(prompt string, items []Item) []string {
	var args []string
	switch m.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-matching", "fuzzy"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		var active, urgent []int
		selected := -1
		for i, item := range items {
			if item.Active {
				active = append(active, i)
				if selected < 0 {
					selected = i
				}
			}
			if item.Urgent {
				urgent = append(urgent, i)
			}
		}
		if len(active) > 0 {
			args = append(args, "-a", joinInts(active))
		}
		if len(urgent) > 0 {
			args = append(args, "-u", joinInts(urgent))
		}
		if selected >= 0 {
			args = append(args, "-selected-row", strconv.Itoa(selected))
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindWofi:
		args = []string{"--dmenu", "--insensitive"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

func execRunner(ctx context.Context, command string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil && !isCancelExit(err) {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return string(out), fmt.Errorf("%s failed: %s", command, msg)
		}
		return string(out), fmt.Errorf("%s failed: %w", command, err)
	}
	return string(out), err
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// isCancelExit matches the exit status launchers use for "nothing chosen":
// 1 for Escape and 130 for Ctrl+C.
func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
