package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/platform"
	"github.com/1broseidon/deskbridge/internal/runtimepath"
)

type windowRow struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Bounds  container.Bounds `json:"bounds"`
	Showing bool             `json:"showing"`
	Main    bool             `json:"main,omitempty"`
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
	query := fs.String("query", "", "Fuzzy filter on window names")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskbridge windows [--query Q] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List the windows of the detected desktop host.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	return withHost(*path, func(ctx context.Context, h *platform.Host, logger *zap.Logger) error {
		windows, err := h.Container.AllWindows(ctx)
		if err != nil {
			return err
		}
		if *query != "" {
			matches := container.MatchWindows(windows, *query)
			windows = windows[:0:0]
			for _, m := range matches {
				windows = append(windows, m.Window)
			}
		}
		main := h.Container.MainWindow()
		rows := make([]windowRow, 0, len(windows))
		for _, w := range windows {
			bounds, err := w.Bounds(ctx)
			if err != nil {
				logger.Debug("skipping window", zap.String("id", w.ID()), zap.Error(err))
				continue
			}
			showing, _ := w.IsShowing(ctx)
			rows = append(rows, windowRow{
				ID:      w.ID(),
				Name:    w.Name(),
				Bounds:  bounds,
				Showing: showing,
				Main:    main != nil && container.SameHandle(w, main),
			})
		}
		if *asJSON {
			return printJSON(os.Stdout, rows)
		}
		return printWindowTable(os.Stdout, rows)
	})
}

func printWindowTable(w io.Writer, rows []windowRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBOUNDS\tSHOWING")
	for _, r := range rows {
		name := r.Name
		if r.Main {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", r.ID, name, formatBounds(r.Bounds), r.Showing)
	}
	return tw.Flush()
}

func formatBounds(b container.Bounds) string {
	return fmt.Sprintf("%dx%d+%d+%d", b.Width, b.Height, b.X, b.Y)
}

func printWindowUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  deskbridge window focus <window>")
	fmt.Fprintln(w, "  deskbridge window show <window>")
	fmt.Fprintln(w, "  deskbridge window hide <window>")
	fmt.Fprintln(w, "  deskbridge window close [--force [--yes]] <window>")
	fmt.Fprintln(w, "  deskbridge window bounds <window>")
	fmt.Fprintln(w, "  deskbridge window move <window> <x> <y> <width> <height>")
	fmt.Fprintln(w, "  deskbridge window flash [--stop] <window>")
	fmt.Fprintln(w, "  deskbridge window snapshot [--out FILE] <window>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "<window> is an id, a name, or a fuzzy name match.")
}

func runWindow(args []string) int {
	if len(args) == 0 || isHelp(args) {
		printWindowUsage(os.Stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	action := args[0]
	fs := flag.NewFlagSet("window "+action, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
	force := fs.Bool("force", false, "Destroy the window without asking the application (close)")
	yes := fs.Bool("yes", false, "Do not ask before a forced close")
	stop := fs.Bool("stop", false, "Stop flashing (flash)")
	out := fs.String("out", "", "Output file (snapshot; default: runtime dir)")
	if code, ok := parseFlags(fs, args[1:]); !ok {
		return code
	}

	wantArgs := 1
	if action == "move" {
		wantArgs = 5
	}
	if fs.NArg() != wantArgs {
		fmt.Fprintf(os.Stderr, "window %s takes %d argument(s)\n\n", action, wantArgs)
		printWindowUsage(os.Stderr)
		return 2
	}

	var target container.Bounds
	if action == "move" {
		b, err := parseBounds(fs.Args()[1:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		target = b
	}

	var op func(ctx context.Context, w container.Window) error
	switch action {
	case "focus":
		op = func(ctx context.Context, w container.Window) error { return w.Focus(ctx) }
	case "show":
		op = func(ctx context.Context, w container.Window) error { return w.Show(ctx) }
	case "hide":
		op = func(ctx context.Context, w container.Window) error { return w.Hide(ctx) }
	case "close":
		op = func(ctx context.Context, w container.Window) error {
			if *force && !*yes {
				ok, err := confirm(ctx, fmt.Sprintf("Force close %q?", w.Name()), "The application will not be asked first.")
				if err != nil {
					return err
				}
				if !ok {
					return errCanceled
				}
			}
			return w.Close(ctx, *force)
		}
	case "flash":
		op = func(ctx context.Context, w container.Window) error { return w.Flash(ctx, !*stop) }
	case "move":
		op = func(ctx context.Context, w container.Window) error { return w.SetBounds(ctx, target) }
	case "bounds":
		op = func(ctx context.Context, w container.Window) error {
			b, err := w.Bounds(ctx)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, b)
		}
	case "snapshot":
		op = func(ctx context.Context, w container.Window) error {
			file, err := saveSnapshot(ctx, w, *out)
			if err != nil {
				return err
			}
			fmt.Println(file)
			return nil
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown window command: %s\n\n", action)
		printWindowUsage(os.Stderr)
		return 2
	}

	ref := fs.Arg(0)
	return withHost(*path, func(ctx context.Context, h *platform.Host, _ *zap.Logger) error {
		w, err := container.FindWindow(ctx, h.Container, ref)
		if err != nil {
			return err
		}
		return op(ctx, w)
	})
}

func parseBounds(args []string) (container.Bounds, error) {
	if len(args) != 4 {
		return container.Bounds{}, fmt.Errorf("expected <x> <y> <width> <height>")
	}
	var v [4]int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return container.Bounds{}, fmt.Errorf("invalid number %q", a)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return container.Bounds{}, fmt.Errorf("width and height must be > 0")
	}
	return container.Bounds{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

const pngDataURLPrefix = "data:image/png;base64,"

// decodeSnapshot turns a PNG data URL into image bytes.
func decodeSnapshot(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, pngDataURLPrefix) {
		return nil, fmt.Errorf("snapshot is not a PNG data URL")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, pngDataURLPrefix))
}

func saveSnapshot(ctx context.Context, w container.Window, out string) (string, error) {
	dataURL, err := w.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	data, err := decodeSnapshot(dataURL)
	if err != nil {
		return "", err
	}
	if out == "" {
		out, err = runtimepath.SnapshotPath(w.ID())
		if err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(out, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return out, nil
}

func runOpen(args []string) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
	name := fs.String("name", "", "Window name (default: generated)")
	x := fs.Int("x", -1, "Left edge")
	y := fs.Int("y", -1, "Top edge")
	width := fs.Int("width", 0, "Width")
	height := fs.Int("height", 0, "Height")
	center := fs.Bool("center", false, "Center on the active monitor")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskbridge open [--name N] [--x X --y Y] [--width W --height H] [--center] <url>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open url with browser_command and wait for its window.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	opts := &container.WindowOptions{Name: *name}
	if *x >= 0 {
		opts.X = container.IntPtr(*x)
	}
	if *y >= 0 {
		opts.Y = container.IntPtr(*y)
	}
	if *width > 0 {
		opts.Width = container.IntPtr(*width)
	}
	if *height > 0 {
		opts.Height = container.IntPtr(*height)
	}
	if *center {
		opts.Center = container.BoolPtr(true)
	}

	url := fs.Arg(0)
	return withHost(*path, func(ctx context.Context, h *platform.Host, _ *zap.Logger) error {
		w, err := h.Container.CreateWindow(ctx, url, opts)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", w.ID(), w.Name())
		return nil
	})
}
