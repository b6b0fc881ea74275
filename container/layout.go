package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Layout is a captured window arrangement.
type Layout struct {
	Name    string            `json:"name" yaml:"name"`
	SavedAt time.Time         `json:"saved_at" yaml:"saved_at"`
	Windows []PersistedWindow `json:"windows" yaml:"windows"`
}

// PersistedWindow is one window inside a Layout.
type PersistedWindow struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	URL    string   `json:"url,omitempty" yaml:"url,omitempty"`
	Main   bool     `json:"main,omitempty" yaml:"main,omitempty"`
	Bounds Bounds   `json:"bounds" yaml:"bounds"`
	Group  []string `json:"group,omitempty" yaml:"group,omitempty"`
}

// LayoutSaver persists captured layouts.
type LayoutSaver interface {
	SaveLayout(name string, layout *Layout) error
}

// URLer is implemented by windows whose host can report the loaded URL.
type URLer interface {
	URL(ctx context.Context) (string, error)
}

// CaptureLayout records the bounds, group membership and URL of every
// window. main, when non-nil, marks the matching window as the main one.
func CaptureLayout(ctx context.Context, name string, windows []Window, main Window) (*Layout, error) {
	layout := &Layout{
		Name:    name,
		SavedAt: time.Now().UTC(),
		Windows: make([]PersistedWindow, 0, len(windows)),
	}
	for _, w := range windows {
		bounds, err := w.Bounds(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read bounds of %q: %w", w.Name(), err)
		}
		pw := PersistedWindow{
			ID:     w.ID(),
			Name:   w.Name(),
			Main:   main != nil && SameHandle(w, main),
			Bounds: bounds,
		}
		if u, ok := w.(URLer); ok {
			if loc, err := u.URL(ctx); err == nil {
				pw.URL = loc
			}
		}
		if w.AllowGrouping() {
			group, err := w.Group(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to read group of %q: %w", w.Name(), err)
			}
			for _, member := range group {
				if SameHandle(member, w) {
					continue
				}
				pw.Group = append(pw.Group, member.Name())
			}
		}
		layout.Windows = append(layout.Windows, pw)
	}
	return layout, nil
}

// SaveLayout captures windows and hands the layout to saver.
func SaveLayout(ctx context.Context, saver LayoutSaver, name string, windows []Window, main Window) (*Layout, error) {
	if saver == nil {
		return nil, fmt.Errorf("no layout storage configured")
	}
	layout, err := CaptureLayout(ctx, name, windows, main)
	if err != nil {
		return nil, err
	}
	if err := saver.SaveLayout(name, layout); err != nil {
		return nil, fmt.Errorf("failed to save layout %q: %w", name, err)
	}
	return layout, nil
}

// RestoreResult reports what RestoreLayout did.
type RestoreResult struct {
	Restored []string `json:"restored"`
	Missing  []string `json:"missing,omitempty"`
}

// RestoreLayout moves every open window named in layout back to its saved
// bounds. Windows that are no longer open are reported as missing; a failed
// move does not stop the others.
func RestoreLayout(ctx context.Context, wm WindowManager, layout *Layout) (*RestoreResult, error) {
	if layout == nil {
		return nil, fmt.Errorf("layout is nil")
	}
	res := &RestoreResult{}
	var errs error
	for _, pw := range layout.Windows {
		w, err := wm.WindowByName(ctx, pw.Name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to find %q: %w", pw.Name, err))
			continue
		}
		if w == nil {
			res.Missing = append(res.Missing, pw.Name)
			continue
		}
		if err := w.SetBounds(ctx, pw.Bounds); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to move %q: %w", pw.Name, err))
			continue
		}
		res.Restored = append(res.Restored, pw.Name)
	}
	return res, errs
}
