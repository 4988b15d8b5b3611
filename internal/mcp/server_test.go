package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/1broseidon/dockwatch/internal/ipc"
	"github.com/1broseidon/dockwatch/internal/platform"
	"github.com/1broseidon/dockwatch/internal/tracker"
)

type fakeDaemon struct {
	views   map[string]ipc.ViewData
	windows ipc.WindowsData
}

func (f *fakeDaemon) ListViews() (*ipc.ViewsData, error) {
	data := &ipc.ViewsData{}
	for _, name := range []string{"dock", "panel"} {
		if v, ok := f.views[name]; ok {
			data.Views = append(data.Views, v)
		}
	}
	return data, nil
}

func (f *fakeDaemon) GetView(name string) (*ipc.ViewData, error) {
	v, ok := f.views[name]
	if !ok {
		return nil, &ipc.DaemonError{Code: ipc.CodeNotRegistered, Message: "view not registered"}
	}
	return &v, nil
}

func (f *fakeDaemon) SetEnabled(name string, enabled bool) (*ipc.ViewData, error) {
	v, ok := f.views[name]
	if !ok {
		return nil, &ipc.DaemonError{Code: ipc.CodeNotRegistered, Message: "view not registered"}
	}
	v.Enabled = enabled
	f.views[name] = v
	return &v, nil
}

func (f *fakeDaemon) ListWindows() (*ipc.WindowsData, error) {
	return &f.windows, nil
}

func newFakeDaemon() *fakeDaemon {
	activated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &fakeDaemon{
		views: map[string]ipc.ViewData{
			"dock": {
				Name:    "dock",
				Enabled: true,
				Facts: ipc.FactsData{
					ActiveWindowMaximized: true,
					ExistsWindowMaximized: true,
					ActiveWindowScheme:    &ipc.SchemeData{App: "konsole", Background: "#202040", Foreground: "#f0f0f0", Highlight: "#6060c0", Dark: true},
				},
				LastActiveWindow: &tracker.LastActiveWindow{ID: 7, AppName: "konsole", ActivatedAt: activated},
			},
			"panel": {Name: "panel", Screen: 1},
		},
		windows: ipc.WindowsData{
			ActiveWindow: 7,
			Windows: []platform.WindowInfo{
				{ID: 7, AppName: "konsole", Geometry: platform.Rect{Width: 1920, Height: 1032}, Flags: platform.Flags{Active: true, Maximized: true}},
				{ID: 9, AppName: "firefox", Screen: 1},
			},
		},
	}
}

func TestListViews(t *testing.T) {
	s := NewServer(newFakeDaemon())

	_, out, err := s.handleListViews(context.Background(), nil, ListViewsInput{})
	if err != nil {
		t.Fatalf("list_views: %v", err)
	}
	if len(out.Views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(out.Views))
	}
	dock := out.Views[0]
	if !dock.ActiveWindowMaximized || dock.ActiveWindowScheme == nil || dock.ActiveWindowScheme.Background != "#202040" {
		t.Fatalf("unexpected dock info: %+v", dock)
	}
	if dock.LastActiveWindow == nil || dock.LastActiveWindow.ActivatedAt != "2024-05-01T12:00:00Z" {
		t.Fatalf("unexpected last active window: %+v", dock.LastActiveWindow)
	}
}

func TestGetViewFacts(t *testing.T) {
	s := NewServer(newFakeDaemon())

	if _, _, err := s.handleGetViewFacts(context.Background(), nil, GetViewFactsInput{Name: " "}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, _, err := s.handleGetViewFacts(context.Background(), nil, GetViewFactsInput{Name: "nope"}); err == nil {
		t.Fatalf("expected error for unknown view")
	}
	_, out, err := s.handleGetViewFacts(context.Background(), nil, GetViewFactsInput{Name: "panel"})
	if err != nil {
		t.Fatalf("get_view_facts: %v", err)
	}
	if out.Name != "panel" || out.Screen != 1 || out.LastActiveWindow != nil {
		t.Fatalf("unexpected panel info: %+v", out)
	}
}

func TestListWindowsFiltersByScreen(t *testing.T) {
	s := NewServer(newFakeDaemon())

	_, all, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("list_windows: %v", err)
	}
	if len(all.Windows) != 2 || all.ActiveWindow != 7 {
		t.Fatalf("unexpected windows: %+v", all)
	}

	screen := 1
	_, filtered, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{Screen: &screen})
	if err != nil {
		t.Fatalf("list_windows: %v", err)
	}
	if len(filtered.Windows) != 1 || filtered.Windows[0].ID != 9 {
		t.Fatalf("expected only window 9, got %+v", filtered.Windows)
	}
}

func TestSetViewEnabled(t *testing.T) {
	d := newFakeDaemon()
	s := NewServer(d)

	_, out, err := s.handleSetViewEnabled(context.Background(), nil, SetViewEnabledInput{Name: "dock", Enabled: false})
	if err != nil {
		t.Fatalf("set_view_enabled: %v", err)
	}
	if out.Enabled || d.views["dock"].Enabled {
		t.Fatalf("expected dock to be disabled")
	}
}
