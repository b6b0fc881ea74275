package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/1broseidon/deskbridge/internal/config"
	"github.com/1broseidon/deskbridge/internal/platform"
)

func runConfig(args []string) int {
	if len(args) == 0 || isHelp(args) {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  deskbridge config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  deskbridge config print [--path PATH] [--effective|--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		if host, err := platform.Detect(cfg, os.Getenv); err == nil {
			fmt.Printf("host: %s\n", host)
		} else {
			fmt.Printf("host: none (%v)\n", err)
		}
		if len(config.DetectBrowsers()) == 0 {
			fmt.Println("warning: no known app-mode browser found on PATH")
		}
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printEffective := fs.Bool("effective", false, "Print effective config (default)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if *printDefaults && *printEffective {
			fmt.Fprintln(os.Stderr, "--defaults and --effective are mutually exclusive")
			return 2
		}
		if *printDefaults {
			if err := printYAML(os.Stdout, config.DefaultConfig()); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			return 0
		}

		var res *config.LoadResult
		var err error
		if *path == "" {
			res, err = config.LoadWithSources()
		} else {
			res, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if res.File != "" {
			fmt.Printf("# file: %s\n", res.File)
		}
		for _, key := range overriddenKeys(res) {
			fmt.Printf("# %s: %s\n", key, formatSource(res.Sources[key]))
		}
		if err := printYAML(os.Stdout, res.Config); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

// overriddenKeys lists keys set by the environment, sorted.
func overriddenKeys(res *config.LoadResult) []string {
	var keys []string
	for key, src := range res.Sources {
		if src.Kind == config.SourceEnv {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceEnv:
		return "env:" + src.File
	default:
		return string(src.Kind)
	}
}
