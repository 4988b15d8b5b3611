package tracker

import (
	"fmt"
	"slices"
	"strings"

	"github.com/1broseidon/dockwatch/internal/platform"
)

// ViewID identifies a registered dock or panel.
type ViewID string

// Edge is the screen edge a view is anchored to.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// ParseEdge validates an edge name.
func ParseEdge(s string) (Edge, error) {
	switch e := Edge(strings.ToLower(strings.TrimSpace(s))); e {
	case EdgeTop, EdgeBottom, EdgeLeft, EdgeRight:
		return e, nil
	default:
		return "", fmt.Errorf("invalid edge %q (want top, bottom, left or right)", s)
	}
}

// ViewDescriptor is the geometry and activity context of a view. It is
// supplied by the caller and copied on registration.
type ViewDescriptor struct {
	// Screen is the display id the view lives on.
	Screen int
	// Edge is the band used for touch detection.
	Edge platform.Rect
	// Geometry is the view's own rectangle; a window with exactly this
	// geometry is the view itself.
	Geometry platform.Rect
	// Activities are the activities considered current. Empty disables
	// activity filtering.
	Activities []string
	// Excluded lists the view's own surfaces, never treated as windows.
	Excluded []platform.WindowID
}

// Equal reports whether two descriptors describe the same view context.
func (d ViewDescriptor) Equal(o ViewDescriptor) bool {
	return d.Screen == o.Screen &&
		d.Edge == o.Edge &&
		d.Geometry == o.Geometry &&
		slices.Equal(d.Activities, o.Activities) &&
		slices.Equal(d.Excluded, o.Excluded)
}

func (d ViewDescriptor) clone() ViewDescriptor {
	d.Activities = slices.Clone(d.Activities)
	d.Excluded = slices.Clone(d.Excluded)
	return d
}

// PanelGeometry returns the strip a panel of the given thickness occupies
// along edge of display.
func PanelGeometry(display platform.Rect, edge Edge, thickness int) platform.Rect {
	thickness = max(0, thickness)
	switch edge {
	case EdgeTop:
		return platform.Rect{X: display.X, Y: display.Y, Width: display.Width, Height: min(thickness, display.Height)}
	case EdgeLeft:
		return platform.Rect{X: display.X, Y: display.Y, Width: min(thickness, display.Width), Height: display.Height}
	case EdgeRight:
		w := min(thickness, display.Width)
		return platform.Rect{X: display.X + display.Width - w, Y: display.Y, Width: w, Height: display.Height}
	default:
		h := min(thickness, display.Height)
		return platform.Rect{X: display.X, Y: display.Y + display.Height - h, Width: display.Width, Height: h}
	}
}

// EdgeBand returns the touch band of a panel: its strip grown by one pixel
// toward the screen interior, so windows flush against the panel overlap it.
func EdgeBand(display platform.Rect, edge Edge, thickness int) platform.Rect {
	band := PanelGeometry(display, edge, thickness)
	switch edge {
	case EdgeTop:
		band.Height++
	case EdgeLeft:
		band.Width++
	case EdgeRight:
		band.X--
		band.Width++
	default:
		band.Y--
		band.Height++
	}
	return band.Intersect(display)
}

// DescriptorFor builds the descriptor of a panel anchored to edge.
func DescriptorFor(display platform.Display, edge Edge, thickness int, activities []string) ViewDescriptor {
	return ViewDescriptor{
		Screen:     display.ID,
		Edge:       EdgeBand(display.Bounds, edge, thickness),
		Geometry:   PanelGeometry(display.Bounds, edge, thickness),
		Activities: slices.Clone(activities),
	}
}
