// Package mcp exposes the active desktop container as MCP tools.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
)

const (
	ServerName    = "deskbridge"
	ServerVersion = "0.1.0"
)

// Server is the MCP server over one container.
type Server struct {
	mcpServer *mcpsdk.Server
	host      container.Container
	logger    *zap.Logger
}

// NewServer registers the window, layout, bus and notification tools for
// host.
func NewServer(host container.Container, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		host:   host,
		logger: logger.Named("mcp"),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves on stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves one session on t. Used for in-process clients.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the windows of the desktop host with their ids, names, bounds and visibility. Pass query to fuzzy-filter by window name.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Focus a window. The window is matched by id, then exact name, then the single best fuzzy name match.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_window_bounds",
		Description: "Move and resize a window. Omitted fields keep their current value.",
	}, s.handleSetWindowBounds)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a window. With force the host destroys it without asking the application.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_layout",
		Description: "Capture the bounds of every window and store them as a named layout.",
	}, s.handleSaveLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "publish_message",
		Description: "Publish a message on the inter-application bus. Set uuid (and optionally name) to send to one application instead of broadcasting.",
	}, s.handlePublishMessage)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_notification",
		Description: "Show a desktop notification.",
	}, s.handleShowNotification)
}
