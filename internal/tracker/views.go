package tracker

import (
	"errors"
	"maps"
	"slices"
	"weak"

	"github.com/1broseidon/dockwatch/internal/platform"
	"github.com/1broseidon/dockwatch/internal/scheme"
)

// ErrNotRegistered is returned for operations addressed to an unknown view.
var ErrNotRegistered = errors.New("view not registered")

// Facts are the derived window facts of one view. The scheme references are
// weak: the scheme cache owns the objects.
type Facts struct {
	ActiveWindowMaximized bool
	ActiveWindowTouching  bool
	ExistsWindowActive    bool
	ExistsWindowMaximized bool
	ExistsWindowTouching  bool
	ActiveScheme          weak.Pointer[scheme.Colors]
	TouchingScheme        weak.Pointer[scheme.Colors]
}

type viewState struct {
	desc       ViewDescriptor
	enabled    bool
	facts      Facts
	lastActive *LastActiveWindow
	// contributors are the windows behind the current facts; a change to
	// any of them recomputes this view regardless of screen.
	contributors map[platform.WindowID]struct{}
}

// AddView registers a view and computes its initial facts, notifying every
// fact that differs from the all-false default. Adding a registered view
// replaces its descriptor.
func (e *Engine) AddView(id ViewID, desc ViewDescriptor) {
	if _, ok := e.views[id]; ok {
		_ = e.UpdateView(id, desc)
		return
	}

	e.views[id] = &viewState{desc: desc.clone(), enabled: true}
	e.logger.Debug("view registered", "view", id, "screen", desc.Screen)

	if w, ok := e.store.Get(e.activeID); ok && e.isRelevant(desc, w) {
		e.setLastActive(id, newLastActive(w, e.now()))
	}
	e.updateHints(id)
}

// UpdateView replaces a view's descriptor. Disabled views keep their frozen
// facts until re-enabled.
func (e *Engine) UpdateView(id ViewID, desc ViewDescriptor) error {
	vs, ok := e.views[id]
	if !ok {
		return ErrNotRegistered
	}
	vs.desc = desc.clone()
	e.updateHints(id)
	return nil
}

// RemoveView unregisters a view. Removing an unknown view is a no-op.
func (e *Engine) RemoveView(id ViewID) {
	if _, ok := e.views[id]; !ok {
		return
	}
	delete(e.views, id)
	e.logger.Debug("view unregistered", "view", id)
}

// SetEnabled toggles recomputation for a view. Disabling freezes the facts;
// enabling recomputes and notifies only what actually moved. Unknown views
// are ignored.
func (e *Engine) SetEnabled(id ViewID, enabled bool) {
	vs, ok := e.views[id]
	if !ok || vs.enabled == enabled {
		return
	}
	vs.enabled = enabled
	e.notify(Notification{Kind: EnabledChanged, View: id})
	if !enabled {
		return
	}

	if w, ok := e.store.Get(e.activeID); ok && e.isRelevant(vs.desc, w) {
		if vs.lastActive == nil || vs.lastActive.ID != w.ID {
			e.setLastActive(id, newLastActive(w, e.now()))
		}
	}
	e.updateHints(id)
}

// Enabled reports whether a view is recomputed. Unknown views report false.
func (e *Engine) Enabled(id ViewID) bool {
	vs, ok := e.views[id]
	return ok && vs.enabled
}

// Views returns the registered view ids in sorted order.
func (e *Engine) Views() []ViewID {
	return slices.Sorted(maps.Keys(e.views))
}

// Descriptor returns a copy of a view's descriptor.
func (e *Engine) Descriptor(id ViewID) (ViewDescriptor, bool) {
	vs, ok := e.views[id]
	if !ok {
		return ViewDescriptor{}, false
	}
	return vs.desc.clone(), true
}

// Facts returns the last computed facts of a view.
func (e *Engine) Facts(id ViewID) (Facts, error) {
	vs, ok := e.views[id]
	if !ok {
		return Facts{}, ErrNotRegistered
	}
	return vs.facts, nil
}

// The boolean accessors below return false for unregistered views.

func (e *Engine) ActiveWindowMaximized(id ViewID) bool {
	f, _ := e.Facts(id)
	return f.ActiveWindowMaximized
}

func (e *Engine) ActiveWindowTouching(id ViewID) bool {
	f, _ := e.Facts(id)
	return f.ActiveWindowTouching
}

func (e *Engine) ExistsWindowActive(id ViewID) bool {
	f, _ := e.Facts(id)
	return f.ExistsWindowActive
}

func (e *Engine) ExistsWindowMaximized(id ViewID) bool {
	f, _ := e.Facts(id)
	return f.ExistsWindowMaximized
}

func (e *Engine) ExistsWindowTouching(id ViewID) bool {
	f, _ := e.Facts(id)
	return f.ExistsWindowTouching
}

// ActiveWindowScheme returns the scheme of the view's active window, or nil
// when there is none, the view is unknown, or the scheme was released.
func (e *Engine) ActiveWindowScheme(id ViewID) *scheme.Colors {
	f, _ := e.Facts(id)
	return f.ActiveScheme.Value()
}

// TouchingWindowScheme returns the scheme of the window touching the view,
// or nil.
func (e *Engine) TouchingWindowScheme(id ViewID) *scheme.Colors {
	f, _ := e.Facts(id)
	return f.TouchingScheme.Value()
}

// LastActiveWindow returns a copy of the view's last active window record,
// or nil when the view is unknown or no window was active yet.
func (e *Engine) LastActiveWindow(id ViewID) *LastActiveWindow {
	vs, ok := e.views[id]
	if !ok {
		return nil
	}
	return vs.lastActive.clone()
}

func (e *Engine) setLastActive(id ViewID, l *LastActiveWindow) {
	e.views[id].lastActive = l
	e.notify(Notification{Kind: LastActiveWindowChanged, View: id, Window: l.ID})
}

// applyFacts stores next and notifies every field that changed.
func (e *Engine) applyFacts(id ViewID, vs *viewState, next Facts) {
	prev := vs.facts
	vs.facts = next

	emit := func(changed bool, kind NotificationKind) {
		if changed {
			e.notify(Notification{Kind: kind, View: id})
		}
	}
	emit(prev.ActiveWindowMaximized != next.ActiveWindowMaximized, ActiveWindowMaximizedChanged)
	emit(prev.ActiveWindowTouching != next.ActiveWindowTouching, ActiveWindowTouchingChanged)
	emit(prev.ExistsWindowActive != next.ExistsWindowActive, ExistsWindowActiveChanged)
	emit(prev.ExistsWindowMaximized != next.ExistsWindowMaximized, ExistsWindowMaximizedChanged)
	emit(prev.ExistsWindowTouching != next.ExistsWindowTouching, ExistsWindowTouchingChanged)
	emit(prev.ActiveScheme != next.ActiveScheme, ActiveWindowSchemeChanged)
	emit(prev.TouchingScheme != next.TouchingScheme, TouchingWindowSchemeChanged)
}
