package tracker

import (
	"errors"
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/1broseidon/dockwatch/internal/platform"
	"github.com/1broseidon/dockwatch/internal/platform/platformtest"
	"github.com/1broseidon/dockwatch/internal/scheme"
)

const dock ViewID = "dock"

var (
	normalGeom   = platform.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	touchingGeom = platform.Rect{X: 100, Y: 500, Width: 800, Height: 600}
	fullGeom     = platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1032}
)

type recorder struct {
	got []Notification
}

func (r *recorder) listen(n Notification) {
	r.got = append(r.got, n)
}

func (r *recorder) count(kind NotificationKind) int {
	n := 0
	for _, got := range r.got {
		if got.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.got = nil
}

type schemeMap map[platform.WindowID]*scheme.Colors

func (m schemeMap) SchemeFor(id platform.WindowID) *scheme.Colors {
	return m[id]
}

func (m schemeMap) Invalidate(platform.WindowID) {}

func solidIcon(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func window(id platform.WindowID, geom platform.Rect) platform.WindowInfo {
	return platform.WindowInfo{
		ID:       id,
		Geometry: geom,
		Desktops: []string{"1"},
		AppName:  "app",
	}
}

func maximized(id platform.WindowID) platform.WindowInfo {
	w := window(id, fullGeom)
	w.Flags.Maximized = true
	return w
}

func newTestEngine(t *testing.T, fake *platformtest.Fake, schemes SchemeSource) (*Engine, *recorder) {
	t.Helper()
	e := New(fake, schemes, nil)
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	rec := &recorder{}
	e.Subscribe(rec.listen)
	e.AddView(dock, DescriptorFor(testDisplay, EdgeBottom, 48, nil))
	return e, rec
}

func activate(e *Engine, fake *platformtest.Fake, id platform.WindowID) {
	fake.SetActive(id)
	e.HandleEvent(platform.Event{Kind: platform.EventActiveWindowChanged, Window: id})
}

func TestAddViewComputesInitialFacts(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(maximized(1))
	fake.SetActive(1)

	e := New(fake, nil, nil)
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	rec := &recorder{}
	e.Subscribe(rec.listen)
	e.AddView(dock, DescriptorFor(testDisplay, EdgeBottom, 48, nil))

	if !e.ExistsWindowActive(dock) || !e.ActiveWindowMaximized(dock) || !e.ExistsWindowMaximized(dock) {
		t.Fatalf("expected active maximized facts, got %+v", mustFacts(t, e, dock))
	}
	if rec.count(ActiveWindowMaximizedChanged) != 1 || rec.count(ExistsWindowMaximizedChanged) != 1 {
		t.Fatalf("expected initial facts to be notified once, got %+v", rec.got)
	}
	last := e.LastActiveWindow(dock)
	if last == nil || last.ID != 1 {
		t.Fatalf("expected last active window 1, got %+v", last)
	}
}

func TestUnregisteredViewQueries(t *testing.T) {
	e := New(platformtest.NewFake(), nil, nil)

	if _, err := e.Facts("nope"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if err := e.UpdateView("nope", ViewDescriptor{}); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered from UpdateView, got %v", err)
	}
	if e.ExistsWindowActive("nope") || e.Enabled("nope") {
		t.Fatalf("expected false for unregistered view")
	}
	if e.ActiveWindowScheme("nope") != nil || e.LastActiveWindow("nope") != nil {
		t.Fatalf("expected nil for unregistered view")
	}

	e.RemoveView("nope")
	e.SetEnabled("nope", false)
}

func TestTouchingTransitionsNotifyOnce(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(window(1, normalGeom))
	e, rec := newTestEngine(t, fake, nil)
	rec.reset()

	fake.Update(1, func(w *platform.WindowInfo) { w.Geometry = touchingGeom })
	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1, Changed: platform.PropGeometry})

	if !e.ExistsWindowTouching(dock) {
		t.Fatalf("expected window to touch the dock")
	}
	if got := rec.count(ExistsWindowTouchingChanged); got != 1 {
		t.Fatalf("expected 1 touching notification, got %d", got)
	}
	if got := rec.count(WindowChanged); got != 1 {
		t.Fatalf("expected 1 window changed notification, got %d", got)
	}

	rec.reset()
	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1, Changed: platform.PropGeometry})
	if len(rec.got) != 0 {
		t.Fatalf("expected no notifications for an unchanged window, got %+v", rec.got)
	}

	fake.Update(1, func(w *platform.WindowInfo) { w.Geometry = normalGeom })
	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1, Changed: platform.PropGeometry})
	if e.ExistsWindowTouching(dock) {
		t.Fatalf("expected window to stop touching the dock")
	}
	if got := rec.count(ExistsWindowTouchingChanged); got != 1 {
		t.Fatalf("expected 1 touching notification after moving away, got %d", got)
	}
}

func TestDisabledViewFreezesFacts(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(window(1, normalGeom))
	e, rec := newTestEngine(t, fake, nil)

	e.SetEnabled(dock, false)
	if e.Enabled(dock) {
		t.Fatalf("expected view to be disabled")
	}
	rec.reset()

	fake.Update(1, func(w *platform.WindowInfo) { w.Geometry = touchingGeom })
	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1})
	if e.ExistsWindowTouching(dock) {
		t.Fatalf("expected frozen facts while disabled")
	}
	if got := rec.count(ExistsWindowTouchingChanged); got != 0 {
		t.Fatalf("expected no fact notifications while disabled, got %d", got)
	}

	e.SetEnabled(dock, true)
	if !e.ExistsWindowTouching(dock) {
		t.Fatalf("expected facts to be recomputed on enable")
	}
	if rec.count(EnabledChanged) != 1 || rec.count(ExistsWindowTouchingChanged) != 1 {
		t.Fatalf("expected enabled and touching notifications, got %+v", rec.got)
	}

	rec.reset()
	e.SetEnabled(dock, true)
	if len(rec.got) != 0 {
		t.Fatalf("expected no notifications for a redundant enable, got %+v", rec.got)
	}
}

func TestLastActiveWindowSurvivesClose(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(window(1, normalGeom))
	fake.Put(window(2, normalGeom))
	e, _ := newTestEngine(t, fake, nil)

	activate(e, fake, 1)
	if last := e.LastActiveWindow(dock); last == nil || last.ID != 1 {
		t.Fatalf("expected last active window 1, got %+v", last)
	}

	fake.Update(1, func(w *platform.WindowInfo) { w.Title = "renamed" })
	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1, Changed: platform.PropName})
	if last := e.LastActiveWindow(dock); last.Title != "renamed" {
		t.Fatalf("expected last active record to follow its window, got %q", last.Title)
	}

	activate(e, fake, 0)
	if last := e.LastActiveWindow(dock); last == nil || last.ID != 1 {
		t.Fatalf("expected last active window to survive a null activation, got %+v", last)
	}

	fake.Delete(1)
	e.HandleEvent(platform.Event{Kind: platform.EventWindowRemoved, Window: 1})
	if last := e.LastActiveWindow(dock); last == nil || last.ID != 1 {
		t.Fatalf("expected last active window to survive close, got %+v", last)
	}
	if e.ExistsWindowActive(dock) {
		t.Fatalf("expected no active window after close")
	}

	activate(e, fake, 2)
	if last := e.LastActiveWindow(dock); last == nil || last.ID != 2 {
		t.Fatalf("expected last active window 2, got %+v", last)
	}
}

func TestClosingActiveWindowClearsActiveFacts(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(maximized(1))
	fake.SetActive(1)
	e, rec := newTestEngine(t, fake, nil)
	rec.reset()

	fake.Delete(1)
	e.HandleEvent(platform.Event{Kind: platform.EventWindowRemoved, Window: 1})

	f := mustFacts(t, e, dock)
	if f.ActiveWindowMaximized || f.ExistsWindowMaximized || f.ExistsWindowActive {
		t.Fatalf("expected all facts false after close, got %+v", f)
	}
	if rec.count(WindowRemoved) != 1 {
		t.Fatalf("expected a window removed notification, got %+v", rec.got)
	}
	if e.ActiveWindow() != 0 {
		t.Fatalf("expected no active window, got %d", e.ActiveWindow())
	}

	rec.reset()
	e.HandleEvent(platform.Event{Kind: platform.EventWindowRemoved, Window: 1})
	if len(rec.got) != 0 {
		t.Fatalf("expected removing an absent window to be a no-op, got %+v", rec.got)
	}
}

func TestSkipTaskbarWindows(t *testing.T) {
	fake := platformtest.NewFake()
	w := maximized(1)
	w.Flags.SkipTaskbar = true
	fake.Put(w)
	e, _ := newTestEngine(t, fake, nil)

	if e.ExistsWindowMaximized(dock) || e.ExistsWindowTouching(dock) {
		t.Fatalf("expected skip-taskbar window not to count, got %+v", mustFacts(t, e, dock))
	}

	activate(e, fake, 1)
	f := mustFacts(t, e, dock)
	if !f.ActiveWindowMaximized || !f.ActiveWindowTouching {
		t.Fatalf("expected active skip-taskbar window to count as active, got %+v", f)
	}
	if f.ExistsWindowMaximized || f.ExistsWindowTouching {
		t.Fatalf("expected exists facts to ignore skip-taskbar windows, got %+v", f)
	}
}

func TestWindowsOnOtherScreensOrDesktopsAreIgnored(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetDisplays([]platform.Display{
		testDisplay,
		{ID: 1, Name: "DP-2", Bounds: platform.Rect{X: 1920, Width: 1920, Height: 1080}},
	})
	other := maximized(1)
	other.Screen = 1
	fake.Put(other)
	hidden := maximized(2)
	hidden.Desktops = []string{"2"}
	fake.Put(hidden)
	e, _ := newTestEngine(t, fake, nil)

	if e.ExistsWindowMaximized(dock) {
		t.Fatalf("expected no maximized window on the dock's screen and desktop")
	}

	fake.SetCurrentDesktop("2")
	e.HandleEvent(platform.Event{Kind: platform.EventCurrentDesktopChanged})
	if !e.ExistsWindowMaximized(dock) {
		t.Fatalf("expected window 2 to count after switching desktops")
	}
	if e.CurrentDesktop() != "2" {
		t.Fatalf("expected current desktop 2, got %q", e.CurrentDesktop())
	}

	fake.Update(1, func(w *platform.WindowInfo) { w.Screen = 0; w.Desktops = nil })
	fake.Update(2, func(w *platform.WindowInfo) { w.Screen = 1 })
	e.HandleEvent(platform.Event{Kind: platform.EventScreenGeometryChanged})
	if !e.ExistsWindowMaximized(dock) {
		t.Fatalf("expected sticky window 1 to count after moving screens")
	}
}

func TestActivityFilter(t *testing.T) {
	fake := platformtest.NewFake()
	w := maximized(1)
	w.Activities = []string{"work"}
	fake.Put(w)

	e := New(fake, nil, nil)
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	e.AddView("home", DescriptorFor(testDisplay, EdgeBottom, 48, []string{"home"}))
	e.AddView("work", DescriptorFor(testDisplay, EdgeBottom, 48, []string{"work"}))

	if e.ExistsWindowMaximized("home") {
		t.Fatalf("expected window on another activity to be ignored")
	}
	if !e.ExistsWindowMaximized("work") {
		t.Fatalf("expected window on the view's activity to count")
	}
}

func TestImplicitAppearanceOnChange(t *testing.T) {
	fake := platformtest.NewFake()
	e, rec := newTestEngine(t, fake, nil)
	rec.reset()

	fake.Put(maximized(5))
	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 5, Changed: platform.PropState})

	if _, ok := e.InfoFor(5); !ok {
		t.Fatalf("expected unannounced window to be tracked")
	}
	if !e.ExistsWindowMaximized(dock) {
		t.Fatalf("expected unannounced maximized window to count")
	}
}

func TestChangeForVanishedWindowRemovesIt(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(maximized(1))
	e, rec := newTestEngine(t, fake, nil)
	rec.reset()

	fake.Delete(1)
	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1, Changed: platform.PropState})

	if _, ok := e.InfoFor(1); ok {
		t.Fatalf("expected vanished window to be removed")
	}
	if rec.count(WindowRemoved) != 1 || rec.count(ExistsWindowMaximizedChanged) != 1 {
		t.Fatalf("expected removal notifications, got %+v", rec.got)
	}
}

func TestCleanupFaultyWindows(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(maximized(1))
	fake.Put(window(2, normalGeom))
	e, rec := newTestEngine(t, fake, nil)
	rec.reset()

	if n := e.CleanupFaultyWindows(); n != 0 {
		t.Fatalf("expected nothing to clean up, got %d", n)
	}

	fake.Invalidate(1)
	if e.IsValidFor(1) {
		t.Fatalf("expected window 1 to be invalid")
	}
	if n := e.CleanupFaultyWindows(); n != 1 {
		t.Fatalf("expected 1 faulty window, got %d", n)
	}
	if e.WindowCount() != 1 {
		t.Fatalf("expected 1 remaining window, got %d", e.WindowCount())
	}
	if e.ExistsWindowMaximized(dock) {
		t.Fatalf("expected faulty window to stop contributing facts")
	}
	if rec.count(WindowRemoved) != 1 {
		t.Fatalf("expected a window removed notification, got %+v", rec.got)
	}
}

func TestTouchingSchemeTieBreak(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(window(1, normalGeom))
	fake.Put(window(2, touchingGeom))
	fake.Put(window(3, touchingGeom))
	schemes := schemeMap{
		1: &scheme.Colors{App: "one"},
		2: &scheme.Colors{App: "two"},
		3: &scheme.Colors{App: "three"},
	}
	e, rec := newTestEngine(t, fake, schemes)

	if got := e.TouchingWindowScheme(dock); got != schemes[2] {
		t.Fatalf("expected lowest touching id to win without activations, got %+v", got)
	}

	activate(e, fake, 3)
	activate(e, fake, 1)
	if got := e.TouchingWindowScheme(dock); got != schemes[3] {
		t.Fatalf("expected most recently activated touching window, got %+v", got)
	}
	if got := e.ActiveWindowScheme(dock); got != schemes[1] {
		t.Fatalf("expected active window scheme, got %+v", got)
	}

	rec.reset()
	activate(e, fake, 2)
	if got := e.TouchingWindowScheme(dock); got != schemes[2] {
		t.Fatalf("expected active touching window to win, got %+v", got)
	}
	if !e.ActiveWindowTouching(dock) {
		t.Fatalf("expected active window to touch the dock")
	}
	if rec.count(TouchingWindowSchemeChanged) != 1 || rec.count(ActiveWindowSchemeChanged) != 1 {
		t.Fatalf("expected one notification per scheme, got %+v", rec.got)
	}
}

func TestDesktopWindowNeverCounts(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(maximized(1))
	e, _ := newTestEngine(t, fake, nil)

	e.SetDesktopWindow(1)
	if e.ExistsWindowMaximized(dock) {
		t.Fatalf("expected desktop window not to count")
	}

	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1})
	activate(e, fake, 1)
	f := mustFacts(t, e, dock)
	if f.ExistsWindowActive || f.ExistsWindowMaximized || f.ExistsWindowTouching {
		t.Fatalf("expected desktop mark to survive updates, got %+v", f)
	}
}

func TestViewOwnSurfacesAreNotTouching(t *testing.T) {
	fake := platformtest.NewFake()
	desc := DescriptorFor(testDisplay, EdgeBottom, 48, nil)
	fake.Put(window(7, desc.Geometry))
	fake.Put(window(8, touchingGeom))

	e := New(fake, nil, nil)
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	desc.Excluded = []platform.WindowID{8}
	e.AddView(dock, desc)

	if e.ExistsWindowTouching(dock) {
		t.Fatalf("expected the view's own surfaces to be ignored")
	}

	desc.Excluded = nil
	if err := e.UpdateView(dock, desc); err != nil {
		t.Fatalf("UpdateView: %v", err)
	}
	if !e.ExistsWindowTouching(dock) {
		t.Fatalf("expected window 8 to touch once no longer excluded")
	}
}

func TestRemoveViewIsIdempotent(t *testing.T) {
	fake := platformtest.NewFake()
	e, _ := newTestEngine(t, fake, nil)

	e.RemoveView(dock)
	e.RemoveView(dock)
	if len(e.Views()) != 0 {
		t.Fatalf("expected no views, got %v", e.Views())
	}
}

func TestSubscribeCancel(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(window(1, normalGeom))
	e := New(fake, nil, nil)
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	rec := &recorder{}
	cancel := e.Subscribe(rec.listen)
	activate(e, fake, 1)
	cancel()
	activate(e, fake, 0)

	if got := rec.count(ActiveWindowChanged); got != 1 {
		t.Fatalf("expected 1 notification before cancel, got %d", got)
	}
}

func mustFacts(t *testing.T, e *Engine, id ViewID) Facts {
	t.Helper()
	f, err := e.Facts(id)
	if err != nil {
		t.Fatalf("Facts(%s): %v", id, err)
	}
	return f
}

func TestIconChangeRederivesScheme(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(window(1, normalGeom))
	fake.SetActive(1)
	e, rec := newTestEngine(t, fake, scheme.NewCache(fake))

	if got := e.ActiveWindowScheme(dock); got != nil {
		t.Fatalf("expected no scheme before the icon exists, got %+v", got)
	}

	fake.SetIcon(1, solidIcon(color.RGBA{R: 200, G: 20, B: 20, A: 255}))
	rec.reset()
	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1, Changed: platform.PropName})
	if got := e.ActiveWindowScheme(dock); got != nil {
		t.Fatalf("expected other property changes to keep the cached miss, got %+v", got)
	}

	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1, Changed: platform.PropIcon})
	red := e.ActiveWindowScheme(dock)
	if red == nil {
		t.Fatalf("expected a scheme once the icon arrived")
	}
	if rec.count(ActiveWindowSchemeChanged) != 1 {
		t.Fatalf("expected one active scheme notification, got %+v", rec.got)
	}
	if rec.count(WindowChanged) != 0 {
		t.Fatalf("icon changes leave the snapshot alone, got %+v", rec.got)
	}

	fake.SetIcon(1, solidIcon(color.RGBA{R: 250, G: 250, B: 250, A: 255}))
	rec.reset()
	e.HandleEvent(platform.Event{Kind: platform.EventWindowChanged, Window: 1, Changed: platform.PropIcon})
	white := e.ActiveWindowScheme(dock)
	if white == nil || white == red || white.IsDark() {
		t.Fatalf("expected a light scheme for the new icon, got %+v", white)
	}
	if rec.count(ActiveWindowSchemeChanged) != 1 {
		t.Fatalf("expected one active scheme notification, got %+v", rec.got)
	}
}

func TestLastActiveRecordFollowsLostFocus(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(window(1, normalGeom))
	e, rec := newTestEngine(t, fake, nil)

	activate(e, fake, 1)
	if last := e.LastActiveWindow(dock); last == nil || !last.Flags.Active {
		t.Fatalf("expected active last active record, got %+v", last)
	}

	rec.reset()
	activate(e, fake, 0)
	last := e.LastActiveWindow(dock)
	if last == nil || last.ID != 1 {
		t.Fatalf("expected window 1 to stay the last active window, got %+v", last)
	}
	if last.Flags.Active {
		t.Fatalf("expected the record to drop the active flag")
	}
	if rec.count(LastActiveWindowChanged) != 1 {
		t.Fatalf("expected one last active notification, got %+v", rec.got)
	}
}

func TestMaximizedElsewhereAndMinimizedOnEdge(t *testing.T) {
	fake := platformtest.NewFake()
	w1 := window(1, platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1000})
	w1.Flags.Maximized = true
	w2 := window(2, touchingGeom)
	w2.Flags.Minimized = true
	fake.Put(w1)
	fake.Put(w2)
	e, _ := newTestEngine(t, fake, nil)

	f := mustFacts(t, e, dock)
	if !f.ExistsWindowMaximized {
		t.Fatalf("expected a maximized window, got %+v", f)
	}
	if f.ExistsWindowTouching {
		t.Fatalf("minimized windows never touch, got %+v", f)
	}
	if f.ExistsWindowActive || f.ActiveWindowMaximized {
		t.Fatalf("expected no active window, got %+v", f)
	}
}

func TestReenableWithoutChangesOnlyTogglesEnabled(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(maximized(1))
	fake.Put(window(2, touchingGeom))
	fake.SetActive(1)
	e, rec := newTestEngine(t, fake, nil)
	before := mustFacts(t, e, dock)
	rec.reset()

	e.SetEnabled(dock, false)
	e.SetEnabled(dock, true)

	if len(rec.got) != 2 || rec.count(EnabledChanged) != 2 {
		t.Fatalf("expected only enabled notifications, got %+v", rec.got)
	}
	if after := mustFacts(t, e, dock); after != before {
		t.Fatalf("facts moved without events: %+v -> %+v", before, after)
	}
}

func TestDuplicateEventsAreIdempotent(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(window(1, normalGeom))
	once, onceRec := newTestEngine(t, fake, nil)
	twice, twiceRec := newTestEngine(t, fake, nil)
	onceRec.reset()
	twiceRec.reset()

	steps := []struct {
		name   string
		mutate func()
		ev     platform.Event
	}{
		{"add", func() { fake.Put(window(2, touchingGeom)) }, platform.Event{Kind: platform.EventWindowAdded, Window: 2}},
		{"activate", func() { fake.SetActive(2) }, platform.Event{Kind: platform.EventActiveWindowChanged, Window: 2}},
		{"maximize", func() {
			fake.Update(1, func(w *platform.WindowInfo) {
				w.Geometry = fullGeom
				w.Flags.Maximized = true
			})
		}, platform.Event{Kind: platform.EventWindowChanged, Window: 1, Changed: platform.PropState | platform.PropGeometry}},
		{"remove absent", func() {}, platform.Event{Kind: platform.EventWindowRemoved, Window: 9}},
		{"close", func() { fake.Delete(2) }, platform.Event{Kind: platform.EventWindowRemoved, Window: 2}},
	}
	for _, step := range steps {
		step.mutate()
		once.HandleEvent(step.ev)
		twice.HandleEvent(step.ev)
		twice.HandleEvent(step.ev)

		if a, b := mustFacts(t, once, dock), mustFacts(t, twice, dock); a != b {
			t.Fatalf("%s: facts differ: %+v vs %+v", step.name, a, b)
		}
	}

	if !slices.EqualFunc(once.Windows(), twice.Windows(), func(a, b platform.WindowInfo) bool { return a.Equal(b) }) {
		t.Fatalf("windows differ: %+v vs %+v", once.Windows(), twice.Windows())
	}
	if !slices.Equal(onceRec.got, twiceRec.got) {
		t.Fatalf("duplicates changed notifications:\n%+v\n%+v", onceRec.got, twiceRec.got)
	}
}

func TestAppNameAndIconLookups(t *testing.T) {
	fake := platformtest.NewFake()
	w := window(1, normalGeom)
	w.AppName = ""
	fake.Put(w)
	fake.Put(window(2, normalGeom))
	fake.SetIcon(2, solidIcon(color.RGBA{B: 200, A: 255}))
	e, _ := newTestEngine(t, fake, nil)

	fake.Update(1, func(w *platform.WindowInfo) { w.AppName = "late" })
	tests := []struct {
		id       platform.WindowID
		app      string
		wantIcon bool
	}{
		{1, "late", false},
		{2, "app", true},
		{7, "", false},
		{0, "", false},
	}
	for _, tt := range tests {
		if got := e.AppNameFor(tt.id); got != tt.app {
			t.Fatalf("AppNameFor(%d)=%q, want %q", tt.id, got, tt.app)
		}
		if got := e.IconFor(tt.id); (got != nil) != tt.wantIcon {
			t.Fatalf("IconFor(%d)=%v, want icon=%v", tt.id, got, tt.wantIcon)
		}
	}

	fake.SetIcon(7, solidIcon(color.White))
	if e.IconFor(7) != nil {
		t.Fatalf("expected no icon for an untracked window")
	}
}
