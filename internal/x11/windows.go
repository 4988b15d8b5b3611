package x11

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowKind classifies a client for tracking purposes.
type WindowKind int

const (
	KindNormal WindowKind = iota
	KindDesktop
	KindIgnored
)

// WindowState is the subset of _NET_WM_STATE a panel cares about.
type WindowState struct {
	Maximized   bool
	Minimized   bool
	Shaded      bool
	SkipTaskbar bool
}

// Geometry is a window frame rectangle in root coordinates.
type Geometry struct {
	X, Y, Width, Height int
}

// ClientList returns the EWMH managed client list.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// ClassifyWindow decides whether a client is a regular window, the desktop
// surface, or something a panel never tracks (docks, splashes, notifications).
func (c *Connection) ClassifyWindow(windowID xproto.Window) WindowKind {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return KindNormal
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return KindNormal
		case "_NET_WM_WINDOW_TYPE_DESKTOP":
			return KindDesktop
		case "_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION",
			"_NET_WM_WINDOW_TYPE_TOOLTIP",
			"_NET_WM_WINDOW_TYPE_MENU",
			"_NET_WM_WINDOW_TYPE_POPUP_MENU",
			"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU":
			return KindIgnored
		}
	}

	return KindNormal
}

// GetWindowState reads _NET_WM_STATE. Maximized requires both axes.
func (c *Connection) GetWindowState(windowID xproto.Window) (WindowState, error) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return WindowState{}, err
	}
	return parseWindowState(states), nil
}

func parseWindowState(states []string) WindowState {
	var ws WindowState
	hasMaxH := false
	hasMaxV := false
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			hasMaxH = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			hasMaxV = true
		case "_NET_WM_STATE_HIDDEN":
			ws.Minimized = true
		case "_NET_WM_STATE_SHADED":
			ws.Shaded = true
		case "_NET_WM_STATE_SKIP_TASKBAR":
			ws.SkipTaskbar = true
		}
	}
	ws.Maximized = hasMaxH && hasMaxV
	return ws
}

// GetFrameGeometry returns the decorated window rectangle in root coordinates.
func (c *Connection) GetFrameGeometry(windowID xproto.Window) (Geometry, error) {
	rect, err := xwindow.New(c.XUtil, windowID).DecorGeometry()
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to get geometry for window %d: %w", windowID, err)
	}
	return Geometry{X: rect.X(), Y: rect.Y(), Width: rect.Width(), Height: rect.Height()}, nil
}

// GetAppName returns the WM_CLASS class, falling back to the instance name.
func (c *Connection) GetAppName(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	if class := strings.TrimSpace(wmClass.Class); class != "" {
		return class
	}
	return strings.TrimSpace(wmClass.Instance)
}

// GetTitle returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) GetTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil && title != "" {
		return title
	}
	title, err := icccm.WmNameGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return title
}

// GetIcon returns the largest _NET_WM_ICON image of a window.
func (c *Connection) GetIcon(windowID xproto.Window) (image.Image, error) {
	icons, err := ewmh.WmIconGet(c.XUtil, windowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get icon for window %d: %w", windowID, err)
	}
	if len(icons) == 0 {
		return nil, fmt.Errorf("window %d has no icon", windowID)
	}

	best := icons[0]
	for _, icon := range icons[1:] {
		if icon.Width*icon.Height > best.Width*best.Height {
			best = icon
		}
	}
	return argbToImage(int(best.Width), int(best.Height), best.Data), nil
}

// argbToImage converts _NET_WM_ICON ARGB cardinals into an NRGBA image.
func argbToImage(width, height int, data []uint) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, px := range data {
		if i >= width*height {
			break
		}
		img.SetNRGBA(i%width, i/width, color.NRGBA{
			A: uint8(px >> 24),
			R: uint8(px >> 16),
			G: uint8(px >> 8),
			B: uint8(px),
		})
	}
	return img
}

func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// IsAlive reports whether the X server still knows the window.
func (c *Connection) IsAlive(windowID xproto.Window) bool {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	return err == nil
}
