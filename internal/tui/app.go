package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/deskbridge/container"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// actionTimeout bounds one host call made from the UI.
const actionTimeout = 5 * time.Second

// windowItem implements list.Item for the window list.
type windowItem struct {
	window  container.Window
	name    string
	bounds  container.Bounds
	showing bool
	main    bool
}

func (i windowItem) Title() string {
	prefix := "  "
	if i.main {
		prefix = "* "
	}
	return prefix + i.name
}

func (i windowItem) Description() string {
	state := "visible"
	if !i.showing {
		state = "hidden"
	}
	b := i.bounds
	return fmt.Sprintf("%s  %dx%d+%d+%d  %s", i.window.ID(), b.Width, b.Height, b.X, b.Y, state)
}

func (i windowItem) FilterValue() string { return i.name }

// windowsMsg carries a refreshed window list.
type windowsMsg struct {
	items []list.Item
	err   error
}

// actionMsg is sent after a window action completes.
type actionMsg struct {
	text string
	err  error
}

// model is the root bubbletea model: a filterable window list.
type model struct {
	ctx  context.Context
	host container.Container
	list list.Model

	statusText string
	statusErr  bool

	width  int
	height int
}

func newModel(ctx context.Context, host container.Container) model {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = host.HostType() + " windows"
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	return model{ctx: ctx, host: host, list: l}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.refresh()
}

func (m model) refresh() tea.Cmd {
	return func() tea.Msg {
		items, err := loadItems(m.ctx, m.host)
		return windowsMsg{items: items, err: err}
	}
}

func loadItems(ctx context.Context, host container.Container) ([]list.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	windows, err := host.AllWindows(ctx)
	if err != nil {
		return nil, err
	}
	mainWin := host.MainWindow()
	items := make([]list.Item, 0, len(windows))
	for _, w := range windows {
		bounds, err := w.Bounds(ctx)
		if err != nil {
			continue
		}
		showing, _ := w.IsShowing(ctx)
		items = append(items, windowItem{
			window:  w,
			name:    w.Name(),
			bounds:  bounds,
			showing: showing,
			main:    container.SameHandle(w, mainWin),
		})
	}
	return items, nil
}

// act runs fn against the selected window.
func (m model) act(verb string, fn func(ctx context.Context, w container.Window) error) tea.Cmd {
	item, ok := m.list.SelectedItem().(windowItem)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, actionTimeout)
		defer cancel()
		if err := fn(ctx, item.window); err != nil {
			return actionMsg{err: fmt.Errorf("%s %s: %w", verb, item.name, err)}
		}
		return actionMsg{text: fmt.Sprintf("%s %s", verb, item.name)}
	}
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, m.listHeight())
		return m, nil

	case windowsMsg:
		if msg.err != nil {
			m.statusText, m.statusErr = msg.err.Error(), true
			return m, nil
		}
		return m, m.list.SetItems(msg.items)

	case actionMsg:
		if msg.err != nil {
			m.statusText, m.statusErr = msg.err.Error(), true
			return m, nil
		}
		m.statusText, m.statusErr = msg.text, false
		return m, m.refresh()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// While the filter prompt is open every key belongs to the list.
		if m.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "q", "esc":
			if m.list.FilterState() == list.FilterApplied {
				m.list.ResetFilter()
				return m, nil
			}
			return m, tea.Quit
		case "enter", "f":
			return m, m.act("focused", func(ctx context.Context, w container.Window) error { return w.Focus(ctx) })
		case "s":
			return m, m.act("shown", func(ctx context.Context, w container.Window) error { return w.Show(ctx) })
		case "h":
			return m, m.act("hidden", func(ctx context.Context, w container.Window) error { return w.Hide(ctx) })
		case "x":
			return m, m.act("flashed", func(ctx context.Context, w container.Window) error { return w.Flash(ctx, true) })
		case "c":
			return m, m.act("closed", func(ctx context.Context, w container.Window) error { return w.Close(ctx, false) })
		case "r":
			return m, m.refresh()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) listHeight() int {
	// status line + help line
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

// View implements tea.Model.
func (m model) View() string {
	status := ""
	if m.statusText != "" {
		if m.statusErr {
			status = errorStyle.Render(m.statusText)
		} else {
			status = statusStyle.Render(m.statusText)
		}
	}
	help := helpStyle.Render("enter focus • s show • h hide • x flash • c close • / filter • r refresh • q quit")
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), status, help)
}
