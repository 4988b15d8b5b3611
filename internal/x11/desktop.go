package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xprop"
)

// AllActivities is the activity id KDE uses for "shown on every activity".
const AllActivities = "00000000-0000-0000-0000-000000000000"

// GetCurrentDesktop returns the current virtual desktop number (0-indexed).
// Uses _NET_CURRENT_DESKTOP atom. Returns 0 with an error if detection fails.
func (c *Connection) GetCurrentDesktop() (int, error) {
	desktop, err := ewmh.CurrentDesktopGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get current desktop: %w", err)
	}
	return int(desktop), nil
}

// GetWindowDesktop returns the desktop number a window is on.
// Uses _NET_WM_DESKTOP atom. Returns -1 for "sticky" windows (visible on all desktops).
// Returns 0 with an error if detection fails.
func (c *Connection) GetWindowDesktop(windowID uint32) (int, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, xproto.Window(windowID))
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	// 0xFFFFFFFF means the window is on all desktops (sticky)
	if desktop == 0xFFFFFFFF {
		return -1, nil
	}
	return int(desktop), nil
}

// GetWindowActivities reads _KDE_NET_WM_ACTIVITIES. A window without the
// property, or one marked with AllActivities, yields nil (every activity).
func (c *Connection) GetWindowActivities(windowID uint32) []string {
	val, err := xprop.PropValStr(xprop.GetProperty(c.XUtil, xproto.Window(windowID), "_KDE_NET_WM_ACTIVITIES"))
	if err != nil {
		return nil
	}
	return parseActivities(val)
}

func parseActivities(val string) []string {
	var out []string
	for _, id := range strings.Split(val, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if id == AllActivities {
			return nil
		}
		out = append(out, id)
	}
	return out
}
