package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/internal/mcp"
	"github.com/1broseidon/deskbridge/internal/platform"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskbridge mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskbridge mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	if isHelp(args) {
		fmt.Fprintln(os.Stdout, "Usage: deskbridge mcp serve [--path PATH]")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Start the MCP server on stdio over the detected desktop host.")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Example:")
		fmt.Fprintln(os.Stdout, "  <client> mcp add deskbridge -- deskbridge mcp serve")
		return 0
	}
	path := ""
	if len(args) == 2 && args[0] == "--path" {
		path = args[1]
	} else if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: deskbridge mcp serve [--path PATH]")
		return 2
	}

	return withHost(path, func(ctx context.Context, h *platform.Host, logger *zap.Logger) error {
		logger.Info("mcp server starting", zap.String("host", h.Kind))
		if err := mcp.NewServer(h.Container, logger).Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	})
}
