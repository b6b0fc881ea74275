package container

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// NoNotifications is embedded by containers whose host has no notification
// API.
type NoNotifications struct{}

func (NoNotifications) ShowNotification(string, *NotificationOptions) error {
	return Unsupported("notifications")
}

// NoTray is embedded by containers whose host has no tray icon API.
type NoTray struct{}

func (NoTray) AddTrayIcon(context.Context, TrayIconDetails, func(), []MenuItem) error {
	return Unsupported("tray icons")
}

// NoGrouping is embedded by windows whose host has no window groups.
type NoGrouping struct{}

func (NoGrouping) AllowGrouping() bool { return false }

func (NoGrouping) Group(context.Context) ([]Window, error) { return []Window{}, nil }

func (NoGrouping) JoinGroup(context.Context, Window) error {
	return Unsupported("window grouping")
}

func (NoGrouping) LeaveGroup(context.Context) error {
	return Unsupported("window grouping")
}

// URLResolver turns possibly-relative URLs into absolute ones against a base
// document URL. It is created once per adapter. With no usable base it
// returns its input unchanged.
type URLResolver struct {
	base *url.URL
}

// NewURLResolver parses base. An empty or unparsable base yields a resolver
// that passes URLs through.
func NewURLResolver(base string) *URLResolver {
	base = strings.TrimSpace(base)
	if base == "" {
		return &URLResolver{}
	}
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() {
		return &URLResolver{}
	}
	return &URLResolver{base: u}
}

// Resolve returns ref made absolute against the base.
func (r *URLResolver) Resolve(ref string) string {
	if r == nil || r.base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return r.base.ResolveReference(u).String()
}

// SameHandle reports whether a and b wrap the same native window.
func SameHandle(a, b Window) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Native() == b.Native()
}

// CloseAll closes every window concurrently and waits for all of them. Every
// close is attempted; the result combines all individual failures.
func CloseAll(ctx context.Context, windows []Window) error {
	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, w := range windows {
		wg.Add(1)
		go func(w Window) {
			defer wg.Done()
			if err := w.Close(ctx, false); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return errs
}
