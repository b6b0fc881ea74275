package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/1broseidon/deskbridge/internal/config"
	"github.com/1broseidon/deskbridge/internal/logging"
	"github.com/1broseidon/deskbridge/internal/platform"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "window":
		os.Exit(runWindow(os.Args[2:]))
	case "open":
		os.Exit(runOpen(os.Args[2:]))
	case "layout":
		os.Exit(runLayout(os.Args[2:]))
	case "notify":
		os.Exit(runNotify(os.Args[2:]))
	case "bus":
		os.Exit(runBus(os.Args[2:]))
	case "pick":
		os.Exit(runPick(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskbridge <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  windows             List windows of the desktop host")
	fmt.Fprintln(w, "  window focus        Focus a window")
	fmt.Fprintln(w, "  window show         Show a hidden or minimized window")
	fmt.Fprintln(w, "  window hide         Hide a window")
	fmt.Fprintln(w, "  window close        Close a window")
	fmt.Fprintln(w, "  window bounds       Print window bounds")
	fmt.Fprintln(w, "  window move         Move and resize a window")
	fmt.Fprintln(w, "  window flash        Flash a window for attention")
	fmt.Fprintln(w, "  window snapshot     Save a PNG of a window")
	fmt.Fprintln(w, "  open                Open a URL in a new app window")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  layout save         Save the current window layout")
	fmt.Fprintln(w, "  layout list         List saved layouts")
	fmt.Fprintln(w, "  layout show         Print a saved layout")
	fmt.Fprintln(w, "  layout restore      Move open windows back to a saved layout")
	fmt.Fprintln(w, "  layout delete       Delete a saved layout")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  notify              Show a desktop notification")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  bus serve           Run the message bus broker (foreground)")
	fmt.Fprintln(w, "  bus publish         Publish a message on the bus")
	fmt.Fprintln(w, "  bus listen          Print messages published on a topic")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  pick                Choose a window from rofi/fuzzel/wofi/dmenu")
	fmt.Fprintln(w, "  tui                 Browse and act on windows interactively")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskbridge <command> --help' for command-specific options.")
}

func isHelp(args []string) bool {
	return len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help")
}

// parseFlags parses args and maps the outcome to an exit code; ok is false
// when the caller should return code.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// newLogger logs to stderr, with the console encoder when stderr is a
// terminal or log_dev is set.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDev || term.IsTerminal(int(os.Stderr.Fd())),
	})
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withHost opens the configured host, runs fn and releases the host.
func withHost(path string, fn func(ctx context.Context, h *platform.Host, logger *zap.Logger) error) int {
	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signalContext()
	defer cancel()

	h, err := platform.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() {
		if err := h.Close(); err != nil {
			logger.Debug("failed to release host", zap.Error(err))
		}
	}()

	if err := fn(ctx, h, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
