package platform

import (
	"errors"
	"image"
	"slices"
)

// ErrWindowGone is returned by Backend queries for windows that no longer exist.
var ErrWindowGone = errors.New("window no longer exists")

// WindowID is a platform-neutral window identifier. Zero means "no window".
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersect returns the overlapping region of r and o, or the zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Intersects reports whether r and o overlap by a non-zero area.
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// Flags carries the window-manager state bits of a window.
type Flags struct {
	Active      bool `json:"active"`
	Maximized   bool `json:"maximized"`
	Minimized   bool `json:"minimized"`
	Shaded      bool `json:"shaded"`
	SkipTaskbar bool `json:"skip_taskbar"`
	// Desktop marks the desktop surface (wallpaper/icons window).
	Desktop bool `json:"desktop"`
}

// WindowInfo is the last-known attribute set of a top-level window.
// Empty Desktops or Activities mean the window is on all of them.
type WindowInfo struct {
	ID         WindowID `json:"id"`
	Geometry   Rect     `json:"geometry"`
	Flags      Flags    `json:"flags"`
	Desktops   []string `json:"desktops,omitempty"`
	Activities []string `json:"activities,omitempty"`
	Screen     int      `json:"screen"`
	AppName    string   `json:"app_name,omitempty"`
	Title      string   `json:"title,omitempty"`
}

// OnAllDesktops reports whether the window is sticky.
func (w WindowInfo) OnAllDesktops() bool {
	return len(w.Desktops) == 0
}

// OnAllActivities reports whether the window is shown on every activity.
func (w WindowInfo) OnAllActivities() bool {
	return len(w.Activities) == 0
}

// Equal reports whether two infos carry the same attributes. A nil and an
// empty membership list are equal.
func (w WindowInfo) Equal(o WindowInfo) bool {
	return w.ID == o.ID &&
		w.Geometry == o.Geometry &&
		w.Flags == o.Flags &&
		w.Screen == o.Screen &&
		w.AppName == o.AppName &&
		w.Title == o.Title &&
		slices.Equal(w.Desktops, o.Desktops) &&
		slices.Equal(w.Activities, o.Activities)
}

// Clone returns a deep copy so stored snapshots never alias caller slices.
func (w WindowInfo) Clone() WindowInfo {
	w.Desktops = slices.Clone(w.Desktops)
	w.Activities = slices.Clone(w.Activities)
	return w
}

// Display describes a physical display.
type Display struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Bounds Rect   `json:"bounds"`
}

// EventKind identifies a raw window-manager event.
type EventKind int

const (
	EventWindowAdded EventKind = iota
	EventWindowChanged
	EventWindowRemoved
	EventActiveWindowChanged
	EventCurrentDesktopChanged
	EventScreenGeometryChanged
)

func (k EventKind) String() string {
	switch k {
	case EventWindowAdded:
		return "window-added"
	case EventWindowChanged:
		return "window-changed"
	case EventWindowRemoved:
		return "window-removed"
	case EventActiveWindowChanged:
		return "active-window-changed"
	case EventCurrentDesktopChanged:
		return "current-desktop-changed"
	case EventScreenGeometryChanged:
		return "screen-geometry-changed"
	default:
		return "unknown"
	}
}

// Property is a bitmask of window properties touched by a change event.
type Property uint16

const (
	PropGeometry Property = 1 << iota
	PropState
	PropDesktop
	PropActivities
	PropName
	PropClass
	// PropIcon is not part of WindowInfo; it invalidates derived schemes.
	PropIcon
)

// Event is a raw event delivered by a Backend. Window is zero for
// EventActiveWindowChanged when no window holds focus.
type Event struct {
	Kind    EventKind
	Window  WindowID
	Changed Property
}

// Backend abstracts the window manager: an event stream plus window queries.
type Backend interface {
	Events() <-chan Event
	IsValid(id WindowID) bool
	Info(id WindowID) (WindowInfo, error)
	ActiveWindow() (WindowID, error)
	CurrentDesktop() (string, error)
	Windows() ([]WindowID, error)
	Displays() ([]Display, error)
	Icon(id WindowID) (image.Image, error)
	AppName(id WindowID) string
}
