package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
)

func (s *Server) handleListWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.host.AllWindows(ctx)
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("failed to list windows: %w", err)
	}
	if q := strings.TrimSpace(args.Query); q != "" {
		matches := container.MatchWindows(windows, q)
		windows = windows[:0:0]
		for _, m := range matches {
			windows = append(windows, m.Window)
		}
	}

	main := s.host.MainWindow()
	out := ListWindowsOutput{Host: s.host.HostType(), Windows: make([]WindowInfo, 0, len(windows))}
	for _, w := range windows {
		info, err := describe(ctx, w)
		if err != nil {
			// Windows can vanish between listing and reading them.
			s.logger.Debug("skipping window", zap.String("id", w.ID()), zap.Error(err))
			continue
		}
		info.Main = main != nil && container.SameHandle(w, main)
		out.Windows = append(out.Windows, info)
	}
	return nil, out, nil
}

func describe(ctx context.Context, w container.Window) (WindowInfo, error) {
	bounds, err := w.Bounds(ctx)
	if err != nil {
		return WindowInfo{}, err
	}
	showing, err := w.IsShowing(ctx)
	if err != nil {
		return WindowInfo{}, err
	}
	return WindowInfo{ID: w.ID(), Name: w.Name(), Bounds: bounds, Showing: showing}, nil
}

func (s *Server) handleFocusWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args WindowRef) (*mcpsdk.CallToolResult, WindowResult, error) {
	w, err := container.FindWindow(ctx, s.host, args.Window)
	if err != nil {
		return nil, WindowResult{}, err
	}
	if err := w.Focus(ctx); err != nil {
		return nil, WindowResult{}, fmt.Errorf("failed to focus %q: %w", w.Name(), err)
	}
	s.logger.Info("window focused", zap.String("id", w.ID()))
	return nil, WindowResult{ID: w.ID(), Name: w.Name()}, nil
}

func (s *Server) handleSetWindowBounds(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetWindowBoundsInput) (*mcpsdk.CallToolResult, SetWindowBoundsOutput, error) {
	w, err := container.FindWindow(ctx, s.host, args.Window)
	if err != nil {
		return nil, SetWindowBoundsOutput{}, err
	}
	req := &container.WindowOptions{X: args.X, Y: args.Y, Width: args.Width, Height: args.Height}
	if _, set := req.RequestedBounds(container.Bounds{}); !set {
		return nil, SetWindowBoundsOutput{}, fmt.Errorf("at least one of x, y, width, height is required")
	}
	current, err := w.Bounds(ctx)
	if err != nil {
		return nil, SetWindowBoundsOutput{}, fmt.Errorf("failed to read bounds of %q: %w", w.Name(), err)
	}
	target, _ := req.RequestedBounds(current)
	if target.Width <= 0 || target.Height <= 0 {
		return nil, SetWindowBoundsOutput{}, fmt.Errorf("width and height must be > 0")
	}
	if err := w.SetBounds(ctx, target); err != nil {
		return nil, SetWindowBoundsOutput{}, fmt.Errorf("failed to set bounds of %q: %w", w.Name(), err)
	}
	return nil, SetWindowBoundsOutput{ID: w.ID(), Bounds: target}, nil
}

func (s *Server) handleCloseWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args CloseWindowInput) (*mcpsdk.CallToolResult, WindowResult, error) {
	w, err := container.FindWindow(ctx, s.host, args.Window)
	if err != nil {
		return nil, WindowResult{}, err
	}
	res := WindowResult{ID: w.ID(), Name: w.Name()}
	if err := w.Close(ctx, args.Force); err != nil {
		return nil, WindowResult{}, fmt.Errorf("failed to close %q: %w", res.Name, err)
	}
	s.logger.Info("window closed", zap.String("id", res.ID), zap.Bool("force", args.Force))
	return nil, res, nil
}

func (s *Server) handleSaveLayout(ctx context.Context, _ *mcpsdk.CallToolRequest, args SaveLayoutInput) (*mcpsdk.CallToolResult, SaveLayoutOutput, error) {
	if strings.TrimSpace(args.Name) == "" {
		return nil, SaveLayoutOutput{}, fmt.Errorf("name is required")
	}
	layout, err := s.host.SaveLayout(ctx, args.Name)
	if err != nil {
		return nil, SaveLayoutOutput{}, err
	}
	return nil, SaveLayoutOutput{Name: layout.Name, Windows: len(layout.Windows), SavedAt: layout.SavedAt}, nil
}

func (s *Server) handlePublishMessage(ctx context.Context, _ *mcpsdk.CallToolRequest, args PublishMessageInput) (*mcpsdk.CallToolResult, PublishMessageOutput, error) {
	if args.Topic == "" {
		return nil, PublishMessageOutput{}, fmt.Errorf("topic is required")
	}
	if args.Name != "" && args.UUID == "" {
		return nil, PublishMessageOutput{}, fmt.Errorf("name requires uuid")
	}
	var opts *container.PublishOptions
	mode := "broadcast"
	if args.UUID != "" {
		opts = &container.PublishOptions{UUID: args.UUID, Name: args.Name}
		mode = "send"
	}
	if err := s.host.Bus().Publish(ctx, args.Topic, args.Data, opts); err != nil {
		return nil, PublishMessageOutput{}, fmt.Errorf("failed to publish on %q: %w", args.Topic, err)
	}
	return nil, PublishMessageOutput{Topic: args.Topic, Mode: mode}, nil
}

func (s *Server) handleShowNotification(_ context.Context, _ *mcpsdk.CallToolRequest, args ShowNotificationInput) (*mcpsdk.CallToolResult, ShowNotificationOutput, error) {
	if strings.TrimSpace(args.Title) == "" {
		return nil, ShowNotificationOutput{}, fmt.Errorf("title is required")
	}
	err := s.host.ShowNotification(args.Title, &container.NotificationOptions{
		Body: args.Body,
		Icon: args.Icon,
		URL:  args.URL,
	})
	if err != nil {
		return nil, ShowNotificationOutput{}, err
	}
	return nil, ShowNotificationOutput{Shown: true}, nil
}
