package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/palette"
	"github.com/1broseidon/deskbridge/internal/platform"
)

var pickActions = map[string]func(ctx context.Context, w container.Window) error{
	"focus": func(ctx context.Context, w container.Window) error { return w.Focus(ctx) },
	"show":  func(ctx context.Context, w container.Window) error { return w.Show(ctx) },
	"hide":  func(ctx context.Context, w container.Window) error { return w.Hide(ctx) },
	"flash": func(ctx context.Context, w container.Window) error { return w.Flash(ctx, true) },
	"close": func(ctx context.Context, w container.Window) error { return w.Close(ctx, false) },
}

func runPick(args []string) int {
	fs := flag.NewFlagSet("pick", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
	backendName := fs.String("backend", "", "Menu program: auto, rofi, fuzzel, wofi, dmenu (default: palette_backend)")
	action := fs.String("action", "focus", "What to do with the chosen window: focus, show, hide, flash, close")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskbridge pick [--backend B] [--action A]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Choose a window from a launcher menu and act on it.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	op, ok := pickActions[*action]
	if !ok || fs.NArg() != 0 {
		fs.Usage()
		return 2
	}

	name := *backendName
	if name == "" {
		cfg, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		name = cfg.PaletteBackend
	}
	backend, err := palette.New(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return withHost(*path, func(ctx context.Context, h *platform.Host, logger *zap.Logger) error {
		w, err := pickWindow(ctx, backend, h.Container)
		if errors.Is(err, palette.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		logger.Debug("window picked", zap.String("id", w.ID()), zap.String("action", *action))
		return op(ctx, w)
	})
}

// pickWindow lists the windows of wm in the menu. The main window is
// preselected and hidden windows are highlighted.
func pickWindow(ctx context.Context, menu palette.Backend, wm container.WindowManager) (container.Window, error) {
	windows, err := wm.AllWindows(ctx)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows")
	}
	main := wm.MainWindow()
	items := make([]palette.Item, len(windows))
	for i, w := range windows {
		label := w.Name()
		if b, err := w.Bounds(ctx); err == nil {
			label = fmt.Sprintf("%s  %s", label, formatBounds(b))
		}
		showing, _ := w.IsShowing(ctx)
		items[i] = palette.Item{
			Label:  label,
			Value:  strconv.Itoa(i),
			Active: container.SameHandle(w, main),
			Urgent: !showing,
		}
	}
	chosen, err := menu.Show(ctx, "window", items)
	if err != nil {
		return nil, err
	}
	idx, err := strconv.Atoi(chosen.Value)
	if err != nil || idx < 0 || idx >= len(windows) {
		return nil, fmt.Errorf("palette returned an unknown window")
	}
	return windows[idx], nil
}
