package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/deskbridge/container"
)

// monitors returns the geometry of every active RandR CRTC.
func (c *Connection) monitors() ([]container.Bounds, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var out []container.Bounds
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil || info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		out = append(out, container.Bounds{
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return out, nil
}

// WorkArea returns the usable area of the monitor holding the active
// window (or the pointer), clipped to the EWMH work area.
func (c *Connection) WorkArea() (container.Bounds, error) {
	monitors, err := c.monitors()
	if err != nil {
		return container.Bounds{}, err
	}
	if len(monitors) == 0 {
		return container.Bounds{}, fmt.Errorf("no monitors found")
	}

	active := -1
	if win, err := ewmh.ActiveWindowGet(c.XUtil); err == nil && win != 0 {
		if b, err := c.Geometry(win); err == nil {
			active = monitorAt(monitors, b.X+b.Width/2, b.Y+b.Height/2)
		}
	}
	if active < 0 {
		if ptr, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply(); err == nil {
			active = monitorAt(monitors, int(ptr.RootX), int(ptr.RootY))
		}
	}
	if active < 0 {
		active = 0
	}
	area := monitors[active]

	workAreas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workAreas) == 0 {
		return area, nil
	}
	desktop := 0
	if d, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(d) < len(workAreas) {
		desktop = int(d)
	}
	wa := workAreas[desktop]
	return clip(area, container.Bounds{
		X:      wa.X,
		Y:      wa.Y,
		Width:  int(wa.Width),
		Height: int(wa.Height),
	}), nil
}

func monitorAt(monitors []container.Bounds, x, y int) int {
	for i, m := range monitors {
		if x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height {
			return i
		}
	}
	return -1
}

// clip returns the intersection of a and b, or a when they do not overlap.
func clip(a, b container.Bounds) container.Bounds {
	x1, y1 := max(a.X, b.X), max(a.Y, b.Y)
	x2, y2 := min(a.X+a.Width, b.X+b.Width), min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return a
	}
	return container.Bounds{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// centerIn places a w x h window in the middle of area.
func centerIn(area container.Bounds, w, h int) container.Bounds {
	return container.Bounds{
		X:      area.X + (area.Width-w)/2,
		Y:      area.Y + (area.Height-h)/2,
		Width:  w,
		Height: h,
	}
}
