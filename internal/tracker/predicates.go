package tracker

import (
	"slices"

	"github.com/1broseidon/dockwatch/internal/platform"
)

// inCurrentDesktopActivity reports whether the window is visible on the
// current desktop and on at least one of the current activities. An empty
// desktop id or activity list means "unknown" and does not filter.
func inCurrentDesktopActivity(w platform.WindowInfo, desktop string, activities []string) bool {
	if !w.OnAllDesktops() && desktop != "" && !slices.Contains(w.Desktops, desktop) {
		return false
	}
	if w.OnAllActivities() || len(activities) == 0 {
		return true
	}
	for _, a := range w.Activities {
		if slices.Contains(activities, a) {
			return true
		}
	}
	return false
}

func inViewScreen(d ViewDescriptor, w platform.WindowInfo, desktop string) bool {
	return w.Screen == d.Screen && inCurrentDesktopActivity(w, desktop, d.Activities)
}

func isActive(w platform.WindowInfo) bool {
	return w.Flags.Active && !w.Flags.Minimized && !w.Flags.Desktop
}

func isActiveInViewScreen(d ViewDescriptor, w platform.WindowInfo, desktop string) bool {
	return isActive(w) && inViewScreen(d, w, desktop)
}

func isMaximizedInViewScreen(d ViewDescriptor, w platform.WindowInfo, desktop string) bool {
	f := w.Flags
	return f.Maximized && !f.Minimized && !f.Shaded && !f.Desktop && inViewScreen(d, w, desktop)
}

// isTouchingViewEdge is the geometric test: the window overlaps the view's
// touch band.
func isTouchingViewEdge(d ViewDescriptor, w platform.WindowInfo, desktop string) bool {
	if w.Flags.Minimized || w.Flags.Desktop {
		return false
	}
	return inViewScreen(d, w, desktop) && w.Geometry.Intersects(d.Edge)
}

// isTouchingView adds the view's own exclusions to isTouchingViewEdge.
func isTouchingView(d ViewDescriptor, w platform.WindowInfo, desktop string) bool {
	if !isTouchingViewEdge(d, w, desktop) {
		return false
	}
	if slices.Contains(d.Excluded, w.ID) {
		return false
	}
	return d.Geometry.Empty() || w.Geometry != d.Geometry
}
