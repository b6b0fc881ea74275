package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
	"github.com/1broseidon/deskbridge/internal/bus"
	"github.com/1broseidon/deskbridge/internal/config"
	"github.com/1broseidon/deskbridge/internal/guid"
	"github.com/1broseidon/deskbridge/internal/runtimepath"
)

func printBusUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  deskbridge bus serve")
	fmt.Fprintln(w, "  deskbridge bus publish [--uuid U [--name N]] [--json] <topic> <message>")
	fmt.Fprintln(w, "  deskbridge bus listen [--uuid U [--name N]] <topic>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "publish and listen need a running 'deskbridge bus serve'.")
}

func runBus(args []string) int {
	if len(args) == 0 {
		printBusUsage(os.Stderr)
		return 2
	}
	sub := args[0]
	switch sub {
	case "help", "-h", "--help":
		printBusUsage(os.Stdout)
		return 0
	case "serve", "publish", "listen":
	default:
		fmt.Fprintf(os.Stderr, "Unknown bus command: %s\n\n", sub)
		printBusUsage(os.Stderr)
		return 2
	}

	fs := flag.NewFlagSet("bus "+sub, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskbridge/config.yaml)")
	uuid := fs.String("uuid", "", "Sender uuid to address (publish) or filter on (listen)")
	name := fs.String("name", "", "Window name, only with --uuid")
	asJSON := fs.Bool("json", false, "Parse <message> as JSON (publish)")
	if code, ok := parseFlags(fs, args[1:]); !ok {
		return code
	}
	wantArgs := map[string]int{"serve": 0, "publish": 2, "listen": 1}[sub]
	if fs.NArg() != wantArgs {
		printBusUsage(os.Stderr)
		return 2
	}
	if *name != "" && *uuid == "" {
		fmt.Fprintln(os.Stderr, "--name requires --uuid")
		return 2
	}

	cfg, err := loadConfig(*path)
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

	switch sub {
	case "serve":
		err = serveBus(ctx, cfg, logger)
	case "publish":
		var data any
		data, err = parseMessage(fs.Arg(1), *asJSON)
		if err == nil {
			err = publish(ctx, cfg, logger, fs.Arg(0), data, *uuid, *name)
		}
	case "listen":
		err = listen(ctx, cfg, logger, fs.Arg(0), *uuid, *name, os.Stdout)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func serveBus(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	socketPath, err := runtimepath.SocketPath(cfg.SocketPath)
	if err != nil {
		return err
	}
	broker := bus.NewBroker(socketPath, logger)
	if err := broker.Start(); err != nil {
		return err
	}
	logger.Info("bus broker listening", zap.String("socket", socketPath))
	<-ctx.Done()
	return broker.Stop()
}

func dialBroker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*bus.Socket, error) {
	socketPath, err := runtimepath.SocketPath(cfg.SocketPath)
	if err != nil {
		return nil, err
	}
	return bus.Dial(ctx, socketPath, bus.Identity{UUID: guid.New(), Name: cfg.AppID}, logger)
}

// parseMessage returns raw as a string, or decoded when asJSON is set.
func parseMessage(raw string, asJSON bool) (any, error) {
	if !asJSON {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("message is not valid JSON: %w", err)
	}
	return v, nil
}

func publish(ctx context.Context, cfg *config.Config, logger *zap.Logger, topic string, data any, uuid, name string) error {
	s, err := dialBroker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	var opts *container.PublishOptions
	if uuid != "" {
		opts = &container.PublishOptions{UUID: uuid, Name: name}
	}
	return s.Publish(ctx, topic, data, opts)
}

type listenLine struct {
	Topic string `json:"topic"`
	UUID  string `json:"uuid"`
	Name  string `json:"name,omitempty"`
	Data  any    `json:"data"`
}

// listen prints one JSON line per delivery until ctx is done or the broker
// goes away.
func listen(ctx context.Context, cfg *config.Config, logger *zap.Logger, topic, uuid, name string, out io.Writer) error {
	s, err := dialBroker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	var opts *container.SubscriptionOptions
	if uuid != "" {
		opts = &container.SubscriptionOptions{UUID: uuid, Name: name}
	}
	enc := json.NewEncoder(out)
	_, err = s.Subscribe(ctx, topic, func(m container.Message) {
		if err := enc.Encode(listenLine{Topic: m.Topic, UUID: m.UUID, Name: m.Name, Data: m.Data}); err != nil {
			logger.Debug("failed to print message", zap.Error(err))
		}
	}, opts)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return nil
	case <-s.Done():
		return bus.ErrClosed
	}
}
