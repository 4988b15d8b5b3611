package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/1broseidon/dockwatch/internal/config"
	"github.com/1broseidon/dockwatch/internal/platform"
	"github.com/1broseidon/dockwatch/internal/platform/platformtest"
	"github.com/1broseidon/dockwatch/internal/tracker"
)

func startEngine(t *testing.T, fake *platformtest.Fake) *tracker.Engine {
	t.Helper()
	e := tracker.New(fake, nil, nil)
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx, fake.Events())
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return e
}

func TestReconcileNowRemovesFaultyWindows(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(platform.WindowInfo{ID: 1})
	fake.Put(platform.WindowInfo{ID: 2})
	e := startEngine(t, fake)

	r := NewReconciler(ReconcilerConfig{Interval: time.Hour}, e)
	fake.Invalidate(2)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	removed, err := r.ReconcileNow(ctx)
	if err != nil {
		t.Fatalf("ReconcileNow: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed window, got %d", removed)
	}

	var count int
	if err := e.Call(ctx, func() { count = e.WindowCount() }); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 remaining window, got %d", count)
	}
}

func TestReconcilerRunSweepsPeriodically(t *testing.T) {
	fake := platformtest.NewFake()
	fake.Put(platform.WindowInfo{ID: 1})
	e := startEngine(t, fake)

	r := NewReconciler(ReconcilerConfig{Interval: 10 * time.Millisecond}, e)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	fake.Invalidate(1)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var count int
		if err := e.Call(ctx, func() { count = e.WindowCount() }); err != nil {
			t.Fatalf("Call: %v", err)
		}
		if count == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected the faulty window to be swept")
}

func TestViewSyncAppliesConfig(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetDisplays([]platform.Display{
		{ID: 0, Name: "DP-1", Bounds: platform.Rect{Width: 1920, Height: 1080}},
		{ID: 1, Name: "DP-2", Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024}},
	})
	e := tracker.New(fake, nil, nil)
	s := NewViewSync(e, fake, nil)

	disabled := false
	s.SetViews([]config.View{
		{Name: "dock", Screen: 0, Edge: "bottom", Thickness: 48},
		{Name: "side", Screen: 1, Edge: "left", Thickness: 40, Enabled: &disabled},
		{Name: "ghost", Screen: 5, Edge: "top", Thickness: 20},
	})

	views := e.Views()
	if len(views) != 2 || views[0] != "dock" || views[1] != "side" {
		t.Fatalf("expected dock and side, got %v", views)
	}
	if e.Enabled("side") || !e.Enabled("dock") {
		t.Fatalf("unexpected enabled flags")
	}
	side, _ := e.Descriptor("side")
	if side.Screen != 1 || side.Geometry != (platform.Rect{X: 1920, Width: 40, Height: 1024}) {
		t.Fatalf("unexpected side descriptor: %+v", side)
	}

	e.SetEnabled("side", true)
	s.SetActivity("work")
	if !e.Enabled("side") {
		t.Fatalf("expected runtime toggle to survive an activity resync")
	}
	dock, _ := e.Descriptor("dock")
	if len(dock.Activities) != 1 || dock.Activities[0] != "work" {
		t.Fatalf("expected dock to follow the current activity, got %v", dock.Activities)
	}

	s.SetViews([]config.View{{Name: "dock", Screen: 0, Edge: "top", Thickness: 30}})
	if views := e.Views(); len(views) != 1 {
		t.Fatalf("expected side to be removed, got %v", views)
	}
	dock, _ = e.Descriptor("dock")
	if dock.Geometry != (platform.Rect{Width: 1920, Height: 30}) {
		t.Fatalf("expected dock to move to the top, got %+v", dock.Geometry)
	}
}

func TestViewSyncFollowsScreenChanges(t *testing.T) {
	fake := platformtest.NewFake()
	e := tracker.New(fake, nil, nil)
	s := NewViewSync(e, fake, nil)
	e.Subscribe(s.Listen)

	s.SetViews([]config.View{{Name: "dock", Screen: 0, Edge: "bottom", Thickness: 48}})

	fake.SetDisplays([]platform.Display{{ID: 0, Name: "DP-1", Bounds: platform.Rect{Width: 2560, Height: 1440}}})
	e.HandleEvent(platform.Event{Kind: platform.EventScreenGeometryChanged})

	dock, _ := e.Descriptor("dock")
	if dock.Geometry != (platform.Rect{Y: 1392, Width: 2560, Height: 48}) {
		t.Fatalf("expected dock to follow the new resolution, got %+v", dock.Geometry)
	}
}
