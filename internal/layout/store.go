// Package layout persists captured window layouts as JSON files.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/1broseidon/deskbridge/container"
)

// ErrNotFound is returned by Read for a layout that was never saved.
var ErrNotFound = errors.New("layout not found")

// Store keeps one <name>.json file per layout under dir. Reads are served
// from an LRU cache that writes and deletes keep current.
type Store struct {
	dir   string
	mu    sync.Mutex
	cache *lru.Cache[string, *container.Layout]
}

var _ container.LayoutSaver = (*Store)(nil)

// NewStore opens a store rooted at dir. cacheSize bounds the number of
// decoded layouts kept in memory.
func NewStore(dir string, cacheSize int) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("layout directory is required")
	}
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New[string, *container.Layout](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create layout cache: %w", err)
	}
	return &Store{dir: dir, cache: cache}, nil
}

// Dir returns the directory layouts are stored in.
func (s *Store) Dir() string { return s.dir }

// ValidateName rejects names that cannot be used as a file name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("layout name is required")
	}
	if strings.Contains(name, string(os.PathSeparator)) || name != filepath.Base(name) {
		return fmt.Errorf("invalid layout name %q", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("invalid layout name %q", name)
	}
	return nil
}

// Path returns the file a layout is stored in.
func (s *Store) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// SaveLayout writes layout under name, replacing any previous one.
func (s *Store) SaveLayout(name string, layout *container.Layout) error {
	if layout == nil {
		return fmt.Errorf("layout is nil")
	}
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create layout directory: %w", err)
	}

	saved := *layout
	saved.Name = name
	data, err := json.MarshalIndent(&saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write layout %q: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write layout %q: %w", name, err)
	}
	s.cache.Add(name, cloneLayout(&saved))
	return nil
}

// Read returns the layout saved under name.
func (s *Store) Read(name string) (*container.Layout, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(name); ok {
		return cloneLayout(cached), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read layout %q: %w", name, err)
	}
	var layout container.Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout %q: %w", name, err)
	}
	if layout.Name == "" {
		layout.Name = name
	}
	s.cache.Add(name, &layout)
	return cloneLayout(&layout), nil
}

// Delete removes the layout saved under name.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete layout %q: %w", name, err)
	}
	return nil
}

// List returns saved layout names in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(out)
	return out, nil
}

// cloneLayout copies l so callers cannot mutate cached values.
func cloneLayout(l *container.Layout) *container.Layout {
	out := *l
	out.Windows = make([]container.PersistedWindow, len(l.Windows))
	for i, w := range l.Windows {
		w.Group = append([]string(nil), w.Group...)
		out.Windows[i] = w
	}
	return &out
}
