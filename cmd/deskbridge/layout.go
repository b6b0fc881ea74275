package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/layout"
	"github.com/1broseidon/deskbridge/internal/platform"
)

func printLayoutUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  deskbridge layout save <name>")
	fmt.Fprintln(w, "  deskbridge layout list [--json]")
	fmt.Fprintln(w, "  deskbridge layout show [--json] <name>")
	fmt.Fprintln(w, "  deskbridge layout restore [--json] <name>")
	fmt.Fprintln(w, "  deskbridge layout delete [--yes] <name>")
}

func runLayout(args []string) int {
	if len(args) == 0 {
		printLayoutUsage(os.Stderr)
		return 2
	}

	sub := args[0]
	fs := flag.NewFlagSet("layout "+sub, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
	asJSON := fs.Bool("json", false, "Print JSON instead of YAML")
	yes := fs.Bool("yes", false, "Do not ask before deleting (delete)")

	switch sub {
	case "help", "-h", "--help":
		printLayoutUsage(os.Stdout)
		return 0
	case "save", "list", "show", "restore", "delete":
	default:
		fmt.Fprintf(os.Stderr, "Unknown layout command: %s\n\n", sub)
		printLayoutUsage(os.Stderr)
		return 2
	}
	if code, ok := parseFlags(fs, args[1:]); !ok {
		return code
	}
	wantArgs := 1
	if sub == "list" {
		wantArgs = 0
	}
	if fs.NArg() != wantArgs {
		printLayoutUsage(os.Stderr)
		return 2
	}

	if sub == "save" {
		name := fs.Arg(0)
		if err := layout.ValidateName(name); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		return withHost(*path, func(ctx context.Context, h *platform.Host, logger *zap.Logger) error {
			saved, err := h.Container.SaveLayout(ctx, name)
			if err != nil {
				return err
			}
			logger.Info("layout saved", zap.String("name", name), zap.Int("windows", len(saved.Windows)))
			fmt.Printf("saved %s (%d windows)\n", name, len(saved.Windows))
			return nil
		})
	}

	if sub == "restore" {
		name := fs.Arg(0)
		return withHost(*path, func(ctx context.Context, h *platform.Host, logger *zap.Logger) error {
			return restoreLayout(ctx, h, logger, name, *asJSON)
		})
	}

	store, err := openStore(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	switch sub {
	case "list":
		names, err := store.List()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *asJSON {
			if names == nil {
				names = []string{}
			}
			err = printJSON(os.Stdout, names)
		} else {
			for _, n := range names {
				fmt.Println(n)
			}
		}
	case "show":
		l, rerr := store.Read(fs.Arg(0))
		err = rerr
		if err == nil {
			if *asJSON {
				err = printJSON(os.Stdout, l)
			} else {
				err = printYAML(os.Stdout, l)
			}
		}
	case "delete":
		name := fs.Arg(0)
		ok := *yes
		if !ok {
			ok, err = confirm(context.Background(), fmt.Sprintf("Delete layout %q?", name), store.Dir())
		}
		if err == nil && !ok {
			err = errCanceled
		}
		if err == nil {
			err = store.Delete(name)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func restoreLayout(ctx context.Context, h *platform.Host, logger *zap.Logger, name string, asJSON bool) error {
	saved, err := h.Layouts.Read(name)
	if err != nil {
		return err
	}
	res, err := container.RestoreLayout(ctx, h.Container, saved)
	if res != nil {
		logger.Info("layout restored",
			zap.String("name", name),
			zap.Strings("restored", res.Restored),
			zap.Strings("missing", res.Missing))
		if asJSON {
			if perr := printJSON(os.Stdout, res); perr != nil {
				return perr
			}
		} else {
			fmt.Printf("restored %s (%d windows)\n", name, len(res.Restored))
			for _, m := range res.Missing {
				fmt.Printf("missing: %s\n", m)
			}
		}
	}
	return err
}

func openStore(path string) (*layout.Store, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	dir, err := cfg.GetLayoutDir()
	if err != nil {
		return nil, err
	}
	return layout.NewStore(dir, cfg.LayoutCacheSize)
}

func printYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
