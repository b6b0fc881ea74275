package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/platform"
)

func runNotify(args []string) int {
	fs := flag.NewFlagSet("notify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
	body := fs.String("body", "", "Notification body")
	icon := fs.String("icon", "", "Icon path or URL")
	url := fs.String("url", "", "URL attached to the notification")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskbridge notify [--body B] [--icon I] [--url U] <title>")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	title := fs.Arg(0)
	return withHost(*path, func(_ context.Context, h *platform.Host, _ *zap.Logger) error {
		return h.Container.ShowNotification(title, &container.NotificationOptions{
			Body: *body,
			Icon: *icon,
			URL:  *url,
		})
	})
}
