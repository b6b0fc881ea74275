// Package palette shows a list of entries in an external launcher menu
// (rofi, fuzzel, wofi or dmenu) and returns the one the user picked.
package palette

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the menu without a choice.
var ErrCancelled = errors.New("palette cancelled")

// Item is one selectable row.
type Item struct {
	Label  string
	Value  string // returned untouched on selection
	Active bool   // preselected and highlighted where supported
	Urgent bool
}

// Backend shows items and returns the selected one.
type Backend interface {
	Name() string
	Show(ctx context.Context, prompt string, items []Item) (Item, error)
}

// Backends in detection order.
var Backends = []string{"rofi", "fuzzel", "wofi", "dmenu"}

var lookPath = exec.LookPath

// Detect returns the first backend found in PATH.
func Detect() (string, error) {
	for _, name := range Backends {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(Backends, ", "))
}

// New returns the backend called name. "auto" or "" picks the first one
// installed.
func New(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := Detect()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	kind, ok := kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(Backends, ", "))
	}
	if _, err := lookPath(name); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", name)
	}
	return newMenu(name, kind, execRunner), nil
}
