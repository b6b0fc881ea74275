package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Host selects the adapter deskbridge drives.
const (
	HostAuto = "auto"
	HostX11  = "x11"
	HostSway = "sway"
)

// Window scopes for X11 and sway containers.
const (
	// ScopeSession exposes every window of the desktop session.
	ScopeSession = "session"
	// ScopeApp exposes only windows deskbridge created or tagged.
	ScopeApp = "app"
)

const (
	DefaultBrowserCommand  = "chromium --new-window --app={{url}}"
	DefaultLaunchTimeout   = 10 * time.Second
	DefaultLayoutCacheSize = 32
)

// Config is the effective deskbridge configuration.
type Config struct {
	Host            string   `yaml:"host" toml:"host" envconfig:"DESKBRIDGE_HOST"`
	AppID           string   `yaml:"app_id" toml:"app_id" envconfig:"DESKBRIDGE_APP_ID"`
	BrowserCommand  string   `yaml:"browser_command" toml:"browser_command" envconfig:"DESKBRIDGE_BROWSER_COMMAND"`
	LaunchTimeout   Duration `yaml:"launch_timeout" toml:"launch_timeout" envconfig:"DESKBRIDGE_LAUNCH_TIMEOUT"`
	WindowScope     string   `yaml:"window_scope" toml:"window_scope" envconfig:"DESKBRIDGE_WINDOW_SCOPE"`
	BaseURL         string   `yaml:"base_url,omitempty" toml:"base_url,omitempty" envconfig:"DESKBRIDGE_BASE_URL"`
	LayoutDir       string   `yaml:"layout_dir,omitempty" toml:"layout_dir,omitempty" envconfig:"DESKBRIDGE_LAYOUT_DIR"`
	LayoutCacheSize int      `yaml:"layout_cache_size" toml:"layout_cache_size" envconfig:"DESKBRIDGE_LAYOUT_CACHE_SIZE"`
	SocketPath      string   `yaml:"socket_path,omitempty" toml:"socket_path,omitempty" envconfig:"DESKBRIDGE_SOCKET_PATH"`
	Display         string   `yaml:"display,omitempty" toml:"display,omitempty" envconfig:"DESKBRIDGE_DISPLAY"`
	XAuthority      string   `yaml:"xauthority,omitempty" toml:"xauthority,omitempty" envconfig:"DESKBRIDGE_XAUTHORITY"`
	SwaySocket      string   `yaml:"sway_socket,omitempty" toml:"sway_socket,omitempty" envconfig:"DESKBRIDGE_SWAY_SOCKET"`
	LogLevel        string   `yaml:"log_level" toml:"log_level" envconfig:"DESKBRIDGE_LOG_LEVEL"`
	LogDev          bool     `yaml:"log_dev" toml:"log_dev" envconfig:"DESKBRIDGE_LOG_DEV"`
	Notifications   bool     `yaml:"notifications" toml:"notifications" envconfig:"DESKBRIDGE_NOTIFICATIONS"`
	PaletteBackend  string   `yaml:"palette_backend" toml:"palette_backend" envconfig:"DESKBRIDGE_PALETTE_BACKEND"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            HostAuto,
		AppID:           "deskbridge",
		BrowserCommand:  DefaultBrowserCommand,
		LaunchTimeout:   Duration(DefaultLaunchTimeout),
		WindowScope:     ScopeSession,
		LayoutCacheSize: DefaultLayoutCacheSize,
		LogLevel:        "info",
		Notifications:   true,
		PaletteBackend:  "auto",
	}
}

// DefaultLayoutDir is where layouts live when layout_dir is unset.
func DefaultLayoutDir() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "layouts"), nil
}

// GetLayoutDir returns layout_dir with ~ expanded, or the default.
func (c *Config) GetLayoutDir() (string, error) {
	if c == nil || strings.TrimSpace(c.LayoutDir) == "" {
		return DefaultLayoutDir()
	}
	return expandHome(c.LayoutDir)
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.Host {
	case HostAuto, HostX11, HostSway:
	default:
		return &ValidationError{Path: "host", Err: fmt.Errorf("host must be one of: auto, x11, sway")}
	}
	if strings.TrimSpace(c.AppID) == "" {
		return &ValidationError{Path: "app_id", Err: fmt.Errorf("app_id is required")}
	}
	if strings.TrimSpace(c.BrowserCommand) == "" {
		return &ValidationError{Path: "browser_command", Err: fmt.Errorf("browser_command must not be empty")}
	}
	if !strings.Contains(c.BrowserCommand, "{{url}}") {
		return &ValidationError{Path: "browser_command", Err: fmt.Errorf("browser_command must contain {{url}}")}
	}
	if c.LaunchTimeout <= 0 {
		return &ValidationError{Path: "launch_timeout", Err: fmt.Errorf("launch_timeout must be > 0")}
	}
	switch c.WindowScope {
	case ScopeSession, ScopeApp:
	default:
		return &ValidationError{Path: "window_scope", Err: fmt.Errorf("window_scope must be one of: session, app")}
	}
	if c.LayoutCacheSize <= 0 {
		return &ValidationError{Path: "layout_cache_size", Err: fmt.Errorf("layout_cache_size must be > 0")}
	}
	switch c.PaletteBackend {
	case "auto", "rofi", "fuzzel", "wofi", "dmenu":
	default:
		return &ValidationError{Path: "palette_backend", Err: fmt.Errorf("palette_backend must be one of: auto, rofi, fuzzel, wofi, dmenu")}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	return nil
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidationError points at the offending key and, for YAML files, where it
// was set.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func configDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "deskbridge"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
