package mcp

import (
	"time"

	"github.com/1broseidon/deskbridge/container"
)

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Optional fuzzy filter on window names"`
}

// WindowInfo describes one window.
type WindowInfo struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Bounds  container.Bounds `json:"bounds"`
	Showing bool             `json:"showing"`
	Main    bool             `json:"main,omitempty"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Host    string       `json:"host"`
	Windows []WindowInfo `json:"windows"`
}

// WindowRef selects a window.
type WindowRef struct {
	Window string `json:"window" jsonschema:"Window id or name"`
}

// WindowResult identifies the window a tool acted on.
type WindowResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SetWindowBoundsInput is the input for the set_window_bounds tool.
type SetWindowBoundsInput struct {
	Window string `json:"window" jsonschema:"Window id or name"`
	X      *int   `json:"x,omitempty" jsonschema:"Left edge in screen pixels"`
	Y      *int   `json:"y,omitempty" jsonschema:"Top edge in screen pixels"`
	Width  *int   `json:"width,omitempty" jsonschema:"Width in pixels"`
	Height *int   `json:"height,omitempty" jsonschema:"Height in pixels"`
}

// SetWindowBoundsOutput is the output for the set_window_bounds tool.
type SetWindowBoundsOutput struct {
	ID     string           `json:"id"`
	Bounds container.Bounds `json:"bounds"`
}

// CloseWindowInput is the input for the close_window tool.
type CloseWindowInput struct {
	Window string `json:"window" jsonschema:"Window id or name"`
	Force  bool   `json:"force,omitempty" jsonschema:"Destroy the window without asking the application"`
}

// SaveLayoutInput is the input for the save_layout tool.
type SaveLayoutInput struct {
	Name string `json:"name" jsonschema:"Layout name (letters, digits, dot, dash, underscore)"`
}

// SaveLayoutOutput is the output for the save_layout tool.
type SaveLayoutOutput struct {
	Name    string    `json:"name"`
	Windows int       `json:"windows"`
	SavedAt time.Time `json:"saved_at"`
}

// PublishMessageInput is the input for the publish_message tool.
type PublishMessageInput struct {
	Topic string `json:"topic" jsonschema:"Bus topic"`
	Data  any    `json:"data,omitempty" jsonschema:"Message payload (any JSON value)"`
	UUID  string `json:"uuid,omitempty" jsonschema:"Destination application uuid; empty broadcasts"`
	Name  string `json:"name,omitempty" jsonschema:"Destination window name, only with uuid"`
}

// PublishMessageOutput is the output for the publish_message tool.
type PublishMessageOutput struct {
	Topic string `json:"topic"`
	Mode  string `json:"mode"`
}

// ShowNotificationInput is the input for the show_notification tool.
type ShowNotificationInput struct {
	Title string `json:"title" jsonschema:"Notification title"`
	Body  string `json:"body,omitempty" jsonschema:"Notification body"`
	Icon  string `json:"icon,omitempty" jsonschema:"Icon path or URL"`
	URL   string `json:"url,omitempty" jsonschema:"URL associated with the notification"`
}

// ShowNotificationOutput is the output for the show_notification tool.
type ShowNotificationOutput struct {
	Shown bool `json:"shown"`
}
