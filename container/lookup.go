package container

import (
	"context"
	"fmt"

	"github.com/sahilm/fuzzy"
)

// FindWindow resolves ref to one window: an exact ID, then an exact name,
// then the single best fuzzy match on names.
func FindWindow(ctx context.Context, wm WindowManager, ref string) (Window, error) {
	if ref == "" {
		return nil, fmt.Errorf("window reference is empty")
	}
	if w, err := wm.WindowByID(ctx, ref); err != nil || w != nil {
		return w, err
	}
	if w, err := wm.WindowByName(ctx, ref); err != nil || w != nil {
		return w, err
	}

	windows, err := wm.AllWindows(ctx)
	if err != nil {
		return nil, err
	}
	matches := MatchWindows(windows, ref)
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("no window matches %q", ref)
	case len(matches) > 1 && matches[0].Score == matches[1].Score:
		return nil, fmt.Errorf("%q is ambiguous: matches %q and %q", ref, matches[0].Window.Name(), matches[1].Window.Name())
	}
	return matches[0].Window, nil
}

// WindowMatch is one fuzzy hit from MatchWindows.
type WindowMatch struct {
	Window Window
	Score  int
}

// MatchWindows fuzzy-matches pattern against window names, best first.
func MatchWindows(windows []Window, pattern string) []WindowMatch {
	names := make([]string, len(windows))
	for i, w := range windows {
		names[i] = w.Name()
	}
	found := fuzzy.Find(pattern, names)
	out := make([]WindowMatch, len(found))
	for i, m := range found {
		out[i] = WindowMatch{Window: windows[m.Index], Score: m.Score}
	}
	return out
}
