// Package tui is an interactive window browser over a container.
package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/deskbridge/container"
)

// TUI browses and acts on the windows of one host.
type TUI struct {
	host container.Container
}

// New creates a TUI over host.
func New(host container.Container) *TUI {
	return &TUI{host: host}
}

// Run starts the UI and blocks until the user quits or ctx is done.
func (t *TUI) Run(ctx context.Context) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	p := tea.NewProgram(newModel(ctx, t.host), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
