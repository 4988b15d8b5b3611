package tracker

import "github.com/1broseidon/dockwatch/internal/platform"

// NotificationKind names a fact or raw window change.
type NotificationKind int

const (
	EnabledChanged NotificationKind = iota
	ActiveWindowMaximizedChanged
	ActiveWindowTouchingChanged
	ExistsWindowActiveChanged
	ExistsWindowMaximizedChanged
	ExistsWindowTouchingChanged
	ActiveWindowSchemeChanged
	TouchingWindowSchemeChanged
	LastActiveWindowChanged

	// Raw pass-through notifications carry a window and no view.
	ActiveWindowChanged
	WindowChanged
	WindowRemoved
	// ScreensChanged follows a screen layout change, after snapshots were
	// refreshed and before views are recomputed.
	ScreensChanged
)

var kindNames = map[NotificationKind]string{
	EnabledChanged:               "enabled",
	ActiveWindowMaximizedChanged: "active_window_maximized",
	ActiveWindowTouchingChanged:  "active_window_touching",
	ExistsWindowActiveChanged:    "exists_window_active",
	ExistsWindowMaximizedChanged: "exists_window_maximized",
	ExistsWindowTouchingChanged:  "exists_window_touching",
	ActiveWindowSchemeChanged:    "active_window_scheme",
	TouchingWindowSchemeChanged:  "touching_window_scheme",
	LastActiveWindowChanged:      "last_active_window",
	ActiveWindowChanged:          "active_window",
	WindowChanged:                "window_changed",
	WindowRemoved:                "window_removed",
	ScreensChanged:               "screens_changed",
}

func (k NotificationKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Notification reports one change. View is empty for raw window
// notifications.
type Notification struct {
	Kind   NotificationKind
	View   ViewID
	Window platform.WindowID
}

// Listener receives notifications synchronously on the engine goroutine.
type Listener func(Notification)

type subscription struct {
	id int
	fn Listener
}

// Subscribe registers a listener and returns a function that removes it.
// Listeners run in registration order.
func (e *Engine) Subscribe(fn Listener) (cancel func()) {
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscription{id: id, fn: fn})
	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) notify(n Notification) {
	subs := e.subs
	for _, s := range subs {
		s.fn(n)
	}
}
