// Package tracker maintains a snapshot of every open window and derives, per
// registered view, the window facts a dock or panel reacts to.
//
// An Engine is single-threaded: every method must be called from the
// goroutine running Run, or from a function passed to Post or Call. Tests
// may drive it directly from one goroutine without running the loop.
package tracker

import (
	"image"
	"log/slog"
	"slices"
	"sync"
	"time"
	"weak"

	"github.com/1broseidon/dockwatch/internal/platform"
	"github.com/1broseidon/dockwatch/internal/scheme"
)

// SchemeSource resolves the color scheme of a window. The returned object is
// owned by the source. Invalidate is called when a window's icon changed.
type SchemeSource interface {
	SchemeFor(id platform.WindowID) *scheme.Colors
	Invalidate(id platform.WindowID)
}

const taskBuffer = 64

// Engine consumes backend events and keeps per-view facts current.
type Engine struct {
	backend platform.Backend
	schemes SchemeSource
	logger  *slog.Logger
	now     func() time.Time

	store *Store
	views map[ViewID]*viewState

	activeID platform.WindowID
	desktop  string

	activationSeq  uint64
	activation     map[platform.WindowID]uint64
	desktopWindows map[platform.WindowID]struct{}

	subs    []subscription
	nextSub int

	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// New creates an engine over backend. schemes may be nil, in which case no
// scheme facts are ever set.
func New(backend platform.Backend, schemes SchemeSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		backend:        backend,
		schemes:        schemes,
		logger:         logger,
		now:            time.Now,
		store:          NewStore(),
		views:          make(map[ViewID]*viewState),
		activation:     make(map[platform.WindowID]uint64),
		desktopWindows: make(map[platform.WindowID]struct{}),
		tasks:          make(chan func(), taskBuffer),
		done:           make(chan struct{}),
	}
}

// Init seeds the store from the backend's current window list, active window
// and desktop. Windows that cannot be queried are skipped; the reconciler
// and later events settle them.
func (e *Engine) Init() error {
	if desktop, err := e.backend.CurrentDesktop(); err == nil {
		e.desktop = desktop
	} else {
		e.logger.Warn("failed to read current desktop", "error", err)
	}

	if active, err := e.backend.ActiveWindow(); err == nil {
		e.activeID = active
	} else {
		e.logger.Warn("failed to read active window", "error", err)
	}

	ids, err := e.backend.Windows()
	if err != nil {
		return err
	}
	for _, id := range ids {
		info, err := e.backend.Info(id)
		if err != nil {
			e.logger.Debug("skipping window during init", "window", id, "error", err)
			continue
		}
		e.store.Upsert(e.normalize(info))
	}
	if e.store.Has(e.activeID) {
		e.activationSeq++
		e.activation[e.activeID] = e.activationSeq
	} else {
		e.activeID = 0
	}

	e.logger.Info("tracker initialized", "windows", e.store.Len(), "active", e.activeID, "desktop", e.desktop)
	e.updateAllHints()
	return nil
}

// HandleEvent applies one backend event: store update, recomputation of the
// affected views, diff and notification.
func (e *Engine) HandleEvent(ev platform.Event) {
	switch ev.Kind {
	case platform.EventWindowAdded, platform.EventWindowChanged:
		e.refreshWindow(ev)
	case platform.EventWindowRemoved:
		e.removeWindow(ev.Window)
	case platform.EventActiveWindowChanged:
		e.setActiveWindow(ev.Window)
	case platform.EventCurrentDesktopChanged:
		e.refreshDesktop()
	case platform.EventScreenGeometryChanged:
		e.refreshAllWindows()
	default:
		e.logger.Debug("ignoring unknown event", "kind", ev.Kind)
	}
}

func (e *Engine) refreshWindow(ev platform.Event) {
	id := ev.Window
	if id == 0 {
		return
	}
	info, err := e.backend.Info(id)
	if err != nil {
		if !e.backend.IsValid(id) {
			e.removeWindow(id)
			return
		}
		e.logger.Debug("window query failed", "window", id, "error", err)
		return
	}
	if ev.Kind == platform.EventWindowChanged && !e.store.Has(id) {
		e.logger.Debug("change for unannounced window, tracking it", "window", id)
	}
	// The icon is not part of the snapshot, so a new icon recomputes the
	// window's views even though Upsert sees no change.
	iconChanged := ev.Changed&platform.PropIcon != 0 && e.schemes != nil
	if iconChanged {
		e.schemes.Invalidate(id)
	}
	e.commit(info, iconChanged)
}

// commit stores a window snapshot and, when it changed or force is set,
// recomputes the views it can affect.
func (e *Engine) commit(info platform.WindowInfo, force bool) {
	old, existed := e.store.Get(info.ID)
	info = e.normalize(info)
	changed := e.store.Upsert(info)
	if !changed && !force {
		return
	}

	screens := []int{info.Screen}
	if existed && old.Screen != info.Screen {
		screens = append(screens, old.Screen)
	}
	for _, vid := range e.affectedViews(info.ID, screens) {
		e.updateHints(vid)
	}
	if !changed {
		return
	}
	e.refreshLastActive(info.ID)
	e.notify(Notification{Kind: WindowChanged, Window: info.ID})
}

// removeWindow is the single retirement path for closed and faulty windows.
func (e *Engine) removeWindow(id platform.WindowID) {
	old, ok := e.store.Get(id)
	if !ok {
		return
	}
	affected := e.affectedViews(id, []int{old.Screen})
	e.store.Remove(id)
	delete(e.activation, id)
	delete(e.desktopWindows, id)
	if e.activeID == id {
		// Last active window records are kept; only the live flag goes.
		e.activeID = 0
	}

	for _, vid := range affected {
		e.updateHints(vid)
	}
	e.notify(Notification{Kind: WindowRemoved, Window: id})
}

func (e *Engine) setActiveWindow(id platform.WindowID) {
	if id != 0 && !e.store.Has(id) {
		info, err := e.backend.Info(id)
		if err != nil {
			e.logger.Debug("active window cannot be queried", "window", id, "error", err)
			id = 0
		} else {
			e.store.Upsert(info)
		}
	}
	if id == e.activeID {
		return
	}

	prev := e.activeID
	e.activeID = id
	if w, ok := e.store.Get(prev); ok {
		e.store.Upsert(e.normalize(w))
	}
	if w, ok := e.store.Get(id); ok {
		e.store.Upsert(e.normalize(w))
		e.activationSeq++
		e.activation[id] = e.activationSeq
	}

	e.updateAllHints()

	// Records of the window that lost focus follow its cleared flag. A null
	// active window (desktop, transient states) keeps them otherwise.
	e.refreshLastActive(prev)
	if w, ok := e.store.Get(id); ok {
		at := e.now()
		for _, vid := range e.Views() {
			vs := e.views[vid]
			if !vs.enabled {
				continue
			}
			if e.isRelevant(vs.desc, w) {
				e.setLastActive(vid, newLastActive(w, at))
			} else if vs.lastActive != nil && vs.lastActive.ID == id {
				if next, changed := vs.lastActive.refreshed(w); changed {
					e.setLastActive(vid, next)
				}
			}
		}
	}

	e.notify(Notification{Kind: ActiveWindowChanged, Window: id})
}

func (e *Engine) refreshDesktop() {
	desktop, err := e.backend.CurrentDesktop()
	if err != nil {
		e.logger.Warn("failed to read current desktop", "error", err)
		return
	}
	if desktop == e.desktop {
		return
	}
	e.desktop = desktop
	e.updateAllHints()
}

// refreshAllWindows re-reads every snapshot after a screen layout change,
// since screen assignment and geometry may all have moved.
func (e *Engine) refreshAllWindows() {
	var changed []platform.WindowID
	for _, id := range e.store.IDs() {
		info, err := e.backend.Info(id)
		if err != nil {
			if !e.backend.IsValid(id) {
				e.removeWindow(id)
			}
			continue
		}
		if e.store.Upsert(e.normalize(info)) {
			changed = append(changed, id)
		}
	}
	e.notify(Notification{Kind: ScreensChanged})
	e.updateAllHints()
	for _, id := range changed {
		e.refreshLastActive(id)
		e.notify(Notification{Kind: WindowChanged, Window: id})
	}
}

// normalize applies the engine's own view of activity and desktop surfaces
// on top of what the backend reported.
func (e *Engine) normalize(info platform.WindowInfo) platform.WindowInfo {
	info.Flags.Active = info.ID != 0 && info.ID == e.activeID
	if _, ok := e.desktopWindows[info.ID]; ok {
		info.Flags.Desktop = true
	}
	return info
}

// affectedViews returns the enabled views a change to window id on the given
// screens can affect.
func (e *Engine) affectedViews(id platform.WindowID, screens []int) []ViewID {
	var out []ViewID
	for _, vid := range e.Views() {
		vs := e.views[vid]
		if !vs.enabled {
			continue
		}
		_, contributed := vs.contributors[id]
		if contributed || slices.Contains(screens, vs.desc.Screen) {
			out = append(out, vid)
		}
	}
	return out
}

func (e *Engine) updateAllHints() {
	for _, vid := range e.Views() {
		e.updateHints(vid)
	}
}

// updateHints recomputes one enabled view and notifies what changed.
func (e *Engine) updateHints(id ViewID) {
	vs, ok := e.views[id]
	if !ok || !vs.enabled {
		return
	}
	next, contributors := e.computeFacts(vs.desc)
	vs.contributors = contributors
	e.applyFacts(id, vs, next)
}

// computeFacts derives a view's facts from the current store.
func (e *Engine) computeFacts(desc ViewDescriptor) (Facts, map[platform.WindowID]struct{}) {
	var f Facts
	contributors := make(map[platform.WindowID]struct{})
	var activeID platform.WindowID
	var touching []platform.WindowID

	for _, id := range e.store.IDs() {
		w, _ := e.store.Get(id)

		if isActiveInViewScreen(desc, w, e.desktop) {
			activeID = id
			f.ExistsWindowActive = true
			contributors[id] = struct{}{}
			if isMaximizedInViewScreen(desc, w, e.desktop) {
				f.ActiveWindowMaximized = true
			}
			if isTouchingView(desc, w, e.desktop) {
				f.ActiveWindowTouching = true
			}
		}

		// Skip-taskbar windows can be active but never count as existing
		// maximized or touching windows.
		if w.Flags.SkipTaskbar {
			continue
		}
		if isMaximizedInViewScreen(desc, w, e.desktop) {
			f.ExistsWindowMaximized = true
			contributors[id] = struct{}{}
		}
		if isTouchingView(desc, w, e.desktop) {
			f.ExistsWindowTouching = true
			contributors[id] = struct{}{}
			touching = append(touching, id)
		}
	}

	if activeID != 0 {
		f.ActiveScheme = e.weakScheme(activeID)
	}
	var touchingID platform.WindowID
	if f.ActiveWindowTouching {
		touchingID = activeID
	} else {
		touchingID = e.mostRecentlyActivated(touching)
	}
	if touchingID != 0 {
		f.TouchingScheme = e.weakScheme(touchingID)
	}
	return f, contributors
}

// mostRecentlyActivated picks the window activated last; never-activated
// windows lose to activated ones and tie on the lowest id.
func (e *Engine) mostRecentlyActivated(ids []platform.WindowID) platform.WindowID {
	var best platform.WindowID
	var bestSeq uint64
	for _, id := range ids {
		seq := e.activation[id]
		if best == 0 || seq > bestSeq {
			best, bestSeq = id, seq
		}
	}
	return best
}

func (e *Engine) weakScheme(id platform.WindowID) weak.Pointer[scheme.Colors] {
	if e.schemes == nil {
		return weak.Pointer[scheme.Colors]{}
	}
	s := e.schemes.SchemeFor(id)
	if s == nil {
		return weak.Pointer[scheme.Colors]{}
	}
	return weak.Make(s)
}

// isRelevant reports whether a window belongs to a view's screen and its
// current desktop and activities.
func (e *Engine) isRelevant(desc ViewDescriptor, w platform.WindowInfo) bool {
	return inViewScreen(desc, w, e.desktop)
}

// refreshLastActive keeps last active records in sync with their window.
func (e *Engine) refreshLastActive(id platform.WindowID) {
	w, ok := e.store.Get(id)
	if !ok {
		return
	}
	for _, vid := range e.Views() {
		vs := e.views[vid]
		if !vs.enabled || vs.lastActive == nil || vs.lastActive.ID != id {
			continue
		}
		if next, changed := vs.lastActive.refreshed(w); changed {
			e.setLastActive(vid, next)
		}
	}
}

// SetDesktopWindow marks a window as the desktop surface. It never counts as
// active, maximized or touching, and the mark survives later updates.
func (e *Engine) SetDesktopWindow(id platform.WindowID) {
	if id == 0 {
		return
	}
	e.desktopWindows[id] = struct{}{}
	if w, ok := e.store.Get(id); ok {
		e.commit(w, false)
	}
}

// CleanupFaultyWindows removes every tracked window the backend no longer
// considers valid, through the same path as a window-removed event. It
// returns the number of windows removed.
func (e *Engine) CleanupFaultyWindows() int {
	removed := 0
	for _, id := range e.store.IDs() {
		if e.backend.IsValid(id) {
			continue
		}
		e.logger.Info("removing faulty window", "window", id)
		e.removeWindow(id)
		removed++
	}
	return removed
}

// ActiveWindow returns the tracked active window, or zero.
func (e *Engine) ActiveWindow() platform.WindowID {
	return e.activeID
}

// CurrentDesktop returns the desktop facts are computed against.
func (e *Engine) CurrentDesktop() string {
	return e.desktop
}

// Windows returns copies of every tracked snapshot in id order.
func (e *Engine) Windows() []platform.WindowInfo {
	ids := e.store.IDs()
	out := make([]platform.WindowInfo, 0, len(ids))
	for _, id := range ids {
		w, _ := e.store.Get(id)
		out = append(out, w)
	}
	return out
}

// WindowCount returns the number of tracked windows.
func (e *Engine) WindowCount() int {
	return e.store.Len()
}

// IsValidFor reports whether a window is tracked and still valid.
func (e *Engine) IsValidFor(id platform.WindowID) bool {
	return e.store.Has(id) && e.backend.IsValid(id)
}

// InfoFor returns the snapshot of a window; untracked windows yield the zero
// value and false.
func (e *Engine) InfoFor(id platform.WindowID) (platform.WindowInfo, bool) {
	return e.store.Get(id)
}

// AppNameFor returns the application name of a tracked window, or "".
func (e *Engine) AppNameFor(id platform.WindowID) string {
	w, ok := e.store.Get(id)
	if !ok {
		return ""
	}
	if w.AppName != "" {
		return w.AppName
	}
	return e.backend.AppName(id)
}

// IconFor returns the icon of a tracked window, or nil.
func (e *Engine) IconFor(id platform.WindowID) image.Image {
	if !e.store.Has(id) {
		return nil
	}
	img, err := e.backend.Icon(id)
	if err != nil {
		return nil
	}
	return img
}
