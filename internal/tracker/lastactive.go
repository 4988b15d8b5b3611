package tracker

import (
	"slices"
	"time"

	"github.com/1broseidon/dockwatch/internal/platform"
)

// LastActiveWindow is the most recent window that held focus for a view. It
// survives the window losing focus or closing until a new window is
// activated.
type LastActiveWindow struct {
	ID          platform.WindowID `json:"id"`
	AppName     string            `json:"app_name"`
	Title       string            `json:"title"`
	Geometry    platform.Rect     `json:"geometry"`
	Flags       platform.Flags    `json:"flags"`
	Screen      int               `json:"screen"`
	Desktops    []string          `json:"desktops,omitempty"`
	Activities  []string          `json:"activities,omitempty"`
	ActivatedAt time.Time         `json:"activated_at"`
}

func newLastActive(w platform.WindowInfo, at time.Time) *LastActiveWindow {
	return &LastActiveWindow{
		ID:          w.ID,
		AppName:     w.AppName,
		Title:       w.Title,
		Geometry:    w.Geometry,
		Flags:       w.Flags,
		Screen:      w.Screen,
		Desktops:    slices.Clone(w.Desktops),
		Activities:  slices.Clone(w.Activities),
		ActivatedAt: at,
	}
}

// refreshed returns the record updated from a newer snapshot of the same
// window, and whether anything changed.
func (l *LastActiveWindow) refreshed(w platform.WindowInfo) (*LastActiveWindow, bool) {
	next := newLastActive(w, l.ActivatedAt)
	changed := next.AppName != l.AppName ||
		next.Title != l.Title ||
		next.Geometry != l.Geometry ||
		next.Flags != l.Flags ||
		next.Screen != l.Screen ||
		!slices.Equal(next.Desktops, l.Desktops) ||
		!slices.Equal(next.Activities, l.Activities)
	return next, changed
}

func (l *LastActiveWindow) clone() *LastActiveWindow {
	if l == nil {
		return nil
	}
	c := *l
	c.Desktops = slices.Clone(l.Desktops)
	c.Activities = slices.Clone(l.Activities)
	return &c
}
