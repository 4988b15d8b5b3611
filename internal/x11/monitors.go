package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	// Initialize RandR if not already done
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	// Get screen resources
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	return monitors, nil
}

// MonitorForGeometry returns the id of the monitor containing the center of g.
// When the center is off every monitor, the monitor with the largest overlap
// wins; -1 means no monitors are known.
func MonitorForGeometry(monitors []Monitor, g Geometry) int {
	cx := g.X + g.Width/2
	cy := g.Y + g.Height/2
	for _, mon := range monitors {
		if cx >= mon.X && cx < mon.X+mon.Width && cy >= mon.Y && cy < mon.Y+mon.Height {
			return mon.ID
		}
	}

	best, bestArea := -1, 0
	for _, mon := range monitors {
		w := min(g.X+g.Width, mon.X+mon.Width) - max(g.X, mon.X)
		h := min(g.Y+g.Height, mon.Y+mon.Height) - max(g.Y, mon.Y)
		if w > 0 && h > 0 && w*h > bestArea {
			best, bestArea = mon.ID, w*h
		}
	}
	if best < 0 && len(monitors) > 0 {
		return monitors[0].ID
	}
	return best
}
