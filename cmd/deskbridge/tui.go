package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/internal/platform"
	"github.com/1broseidon/deskbridge/internal/tui"
)

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskbridge tui [--path PATH]")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return 2
	}
	return withHost(*path, func(ctx context.Context, h *platform.Host, _ *zap.Logger) error {
		return tui.New(h.Container).Run(ctx)
	})
}
