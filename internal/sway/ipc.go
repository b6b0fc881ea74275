// Package sway adapts the sway compositor to the container contract over
// its IPC socket.
package sway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	gosway "github.com/joshuarubin/go-sway"

	"github.com/1broseidon/deskbridge/container"
)

// View is one application window in the sway tree.
type View struct {
	ID      int64
	Name    string
	AppID   string
	Rect    container.Bounds
	Focused bool
	Urgent  bool
	Visible bool
	Marks   []string
}

// WindowEvent is a "window" event from sway.
type WindowEvent struct {
	Change string
	View   View
}

// IPC is the native boundary of the sway adapter.
type IPC interface {
	// Views returns every application window in tree order.
	Views(ctx context.Context) ([]View, error)
	// Command runs a sway command and fails with sway's error text.
	Command(ctx context.Context, cmd string) error
	// SubscribeWindows delivers window events until ctx is done.
	SubscribeWindows(ctx context.Context, fn func(WindowEvent)) error
	// Capture grabs the screen region r as PNG.
	Capture(ctx context.Context, r container.Bounds) ([]byte, error)
}

// Client implements IPC with go-sway and grim.
type Client struct {
	client gosway.Client
}

var _ IPC = (*Client)(nil)

// Dial connects to the sway instance named by $SWAYSOCK.
func Dial(ctx context.Context) (*Client, error) {
	client, err := gosway.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sway: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Views(ctx context.Context) ([]View, error) {
	tree, err := c.client.GetTree(ctx)
	if err != nil {
		return nil, err
	}
	var root node
	if err := reshape(tree, &root); err != nil {
		return nil, err
	}
	var views []View
	root.walk(false, &views)
	return views, nil
}

// node is the subset of a sway tree node deskbridge reads. It is keyed by
// the IPC field names rather than go-sway's struct fields.
type node struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	AppID   *string  `json:"app_id"`
	Focused bool     `json:"focused"`
	Urgent  bool     `json:"urgent"`
	Visible *bool    `json:"visible"`
	Marks   []string `json:"marks"`
	Rect    struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"rect"`
	Nodes         []*node `json:"nodes"`
	FloatingNodes []*node `json:"floating_nodes"`
}

// walk collects leaf application containers. Views on the scratchpad
// workspace are hidden.
func (n *node) walk(hidden bool, out *[]View) {
	if n.Type == "workspace" && n.Name == "__i3_scratch" {
		hidden = true
	}
	if (n.Type == "con" || n.Type == "floating_con") && len(n.Nodes) == 0 && len(n.FloatingNodes) == 0 {
		*out = append(*out, n.view(hidden))
		return
	}
	for _, child := range n.Nodes {
		child.walk(hidden, out)
	}
	for _, child := range n.FloatingNodes {
		child.walk(hidden, out)
	}
}

func (n *node) view(hidden bool) View {
	v := View{
		ID:      n.ID,
		Name:    n.Name,
		Focused: n.Focused,
		Urgent:  n.Urgent,
		Visible: !hidden,
		Marks:   n.Marks,
		Rect: container.Bounds{
			X:      n.Rect.X,
			Y:      n.Rect.Y,
			Width:  n.Rect.Width,
			Height: n.Rect.Height,
		},
	}
	if n.AppID != nil {
		v.AppID = *n.AppID
	}
	if n.Visible != nil {
		v.Visible = *n.Visible && !hidden
	}
	return v
}

// reshape re-decodes a go-sway value through its JSON form.
func reshape(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to encode sway reply: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode sway reply: %w", err)
	}
	return nil
}

func (c *Client) Command(ctx context.Context, cmd string) error {
	replies, err := c.client.RunCommand(ctx, cmd)
	if err != nil {
		return err
	}
	var results []struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := reshape(replies, &results); err != nil {
		return err
	}
	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("%s", r.Error)
		}
	}
	return nil
}

func (c *Client) SubscribeWindows(ctx context.Context, fn func(WindowEvent)) error {
	h := &windowHandler{EventHandler: gosway.NoOpEventHandler(), fn: fn}
	return gosway.Subscribe(ctx, h, gosway.EventTypeWindow)
}

type windowHandler struct {
	gosway.EventHandler
	fn func(WindowEvent)
}

func (h *windowHandler) Window(_ context.Context, ev gosway.WindowEvent) {
	var raw struct {
		Change    string `json:"change"`
		Container node   `json:"container"`
	}
	if err := reshape(ev, &raw); err != nil {
		return
	}
	h.fn(WindowEvent{Change: raw.Change, View: raw.Container.view(false)})
}

// Capture runs grim on r.
func (c *Client) Capture(ctx context.Context, r container.Bounds) ([]byte, error) {
	geometry := fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "grim", "-t", "png", "-g", geometry, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("grim: %s", msg)
		}
		return nil, fmt.Errorf("grim: %w", err)
	}
	return stdout.Bytes(), nil
}
