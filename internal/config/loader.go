package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
	SourceEnv     SourceKind = "env"
)

type Source struct {
	Kind   SourceKind
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // key -> last writer (file or env)
	File    string            // loaded file, empty when none existed
}

// DefaultConfigPath returns ~/.config/deskbridge/config.yaml, or config.toml
// when only the TOML file exists.
func DefaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	yamlPath := filepath.Join(dir, "config.yaml")
	tomlPath := filepath.Join(dir, "config.toml")
	if !pathExists(yamlPath) && pathExists(tomlPath) {
		return tomlPath, nil
	}
	return yamlPath, nil
}

// Load reads the configuration from the standard location and applies
// DESKBRIDGE_* environment overrides.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load plus per-key source information.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path over the defaults. A missing file is not an error.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func LoadFromPath(path string) (*LoadResult, error) {
	res := &LoadResult{Config: DefaultConfig(), Sources: map[string]Source{}}

	file, err := loadFile(path, res.Config, res.Sources)
	if err != nil {
		return nil, err
	}
	res.File = file

	if err := applyEnv(res.Config, res.Sources); err != nil {
		return nil, err
	}
	if err := res.Config.Validate(); err != nil {
		return nil, attachSourceContext(err, res.Sources)
	}
	return res, nil
}

// loadFile decodes path into cfg and records which keys it set. It returns
// the canonical path read, or "" when the file does not exist.
func loadFile(path string, cfg *Config, sources map[string]Source) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: is a directory", path)
	}

	canon := canonicalPath(path)
	data, err := os.ReadFile(canon)
	if err != nil {
		return "", fmt.Errorf("%s: failed to read: %w", canon, err)
	}

	decode, collect := decodeStrictYAML, yamlSources
	if isTOML(canon) {
		decode, collect = decodeStrictTOML, tomlSources
	}
	if err := decode(data, cfg); err != nil {
		return "", fmt.Errorf("%s: %w", canon, err)
	}
	if err := collect(data, canon, sources); err != nil {
		return "", fmt.Errorf("%s: %w", canon, err)
	}
	return canon, nil
}

// applyEnv overlays DESKBRIDGE_* variables. Unset variables leave the
// current value alone.
func applyEnv(cfg *Config, sources map[string]Source) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	for key, env := range envKeys {
		if _, ok := os.LookupEnv(env); ok {
			sources[key] = Source{Kind: SourceEnv, File: env}
		}
	}
	return nil
}

var envKeys = map[string]string{
	"host":              "DESKBRIDGE_HOST",
	"app_id":            "DESKBRIDGE_APP_ID",
	"browser_command":   "DESKBRIDGE_BROWSER_COMMAND",
	"launch_timeout":    "DESKBRIDGE_LAUNCH_TIMEOUT",
	"window_scope":      "DESKBRIDGE_WINDOW_SCOPE",
	"base_url":          "DESKBRIDGE_BASE_URL",
	"layout_dir":        "DESKBRIDGE_LAYOUT_DIR",
	"layout_cache_size": "DESKBRIDGE_LAYOUT_CACHE_SIZE",
	"socket_path":       "DESKBRIDGE_SOCKET_PATH",
	"display":           "DESKBRIDGE_DISPLAY",
	"xauthority":        "DESKBRIDGE_XAUTHORITY",
	"sway_socket":       "DESKBRIDGE_SWAY_SOCKET",
	"log_level":         "DESKBRIDGE_LOG_LEVEL",
	"log_dev":           "DESKBRIDGE_LOG_DEV",
	"notifications":     "DESKBRIDGE_NOTIFICATIONS",
	"palette_backend":   "DESKBRIDGE_PALETTE_BACKEND",
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func decodeStrictTOML(data []byte, out any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("failed to parse toml at %d:%d: %w", row, col, err)
		}
		return fmt.Errorf("failed to parse toml: %w", err)
	}
	return nil
}

// tomlSources records top-level keys present in a TOML file. TOML
// decoding carries no positions, so only the file is known.
func tomlSources(data []byte, file string, out map[string]Source) error {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse toml: %w", err)
	}
	for key := range doc {
		out[key] = Source{Kind: SourceFile, File: file}
	}
	return nil
}

// yamlSources records the position of every top-level key in a YAML file.
func yamlSources(data []byte, file string, out map[string]Source) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	// Content alternates key and value nodes.
	for i := 1; i < len(root.Content); i += 2 {
		key, val := root.Content[i-1], root.Content[i]
		out[key.Value] = Source{Kind: SourceFile, File: file, Line: val.Line, Column: val.Column}
	}
	return nil
}

// canonicalPath resolves path to an absolute, symlink-free form where
// possible and falls back to the input.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func attachSourceContext(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, found := sources[verr.Path]; found {
		verr.Source = src
	}
	return err
}
