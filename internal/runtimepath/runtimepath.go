// Package runtimepath locates per-user runtime files: the bus socket and
// scratch captures.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the first usable runtime directory: $XDG_RUNTIME_DIR, then
// /run/user/<uid> when it exists, else /tmp/deskbridge-runtime-<uid>, which
// is created with mode 0700.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}
	uid := os.Getuid()
	if dir := fmt.Sprintf("/run/user/%d", uid); isDir(dir) {
		return dir, nil
	}
	fallback := fmt.Sprintf("/tmp/deskbridge-runtime-%d", uid)
	if err := os.MkdirAll(fallback, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return fallback, nil
}

// SocketPath returns the bus broker socket. A non-empty override (the
// socket_path setting) wins.
func SocketPath(override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return override, nil
	}
	return file("deskbridge.sock")
}

// SnapshotPath returns a scratch file for a window capture.
func SnapshotPath(name string) (string, error) {
	return file("deskbridge-snapshot-" + name + ".png")
}

func file(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
