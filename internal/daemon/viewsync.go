package daemon

import (
	"log/slog"

	"github.com/1broseidon/dockwatch/internal/config"
	"github.com/1broseidon/dockwatch/internal/platform"
	"github.com/1broseidon/dockwatch/internal/tracker"
)

// ViewSync keeps the engine's registered views in line with the configured
// views, the display layout and the current activity. It must only be used
// on the engine goroutine.
type ViewSync struct {
	engine   *tracker.Engine
	backend  platform.Backend
	logger   *slog.Logger
	views    []config.View
	activity string
	// configured is the enabled value last taken from config per view, so
	// runtime toggles survive unrelated resyncs.
	configured map[tracker.ViewID]bool
}

// NewViewSync creates a synchronizer for engine.
func NewViewSync(engine *tracker.Engine, backend platform.Backend, logger *slog.Logger) *ViewSync {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ViewSync{
		engine:     engine,
		backend:    backend,
		logger:     logger,
		configured: make(map[tracker.ViewID]bool),
	}
}

// SetViews replaces the configured views.
func (s *ViewSync) SetViews(views []config.View) {
	s.views = append([]config.View(nil), views...)
	s.Resync()
}

// SetActivity records the current activity; views that follow the current
// activity are updated.
func (s *ViewSync) SetActivity(activity string) {
	if activity == s.activity {
		return
	}
	s.activity = activity
	s.Resync()
}

// Activity returns the activity views currently follow.
func (s *ViewSync) Activity() string {
	return s.activity
}

// Listen resyncs after screen layout changes. Pass it to Engine.Subscribe.
func (s *ViewSync) Listen(n tracker.Notification) {
	if n.Kind == tracker.ScreensChanged {
		s.Resync()
	}
}

// Resync applies the configured views to the engine: adds, updates and
// removals. Views whose screen is not connected are unregistered until it
// comes back.
func (s *ViewSync) Resync() {
	displays, err := s.backend.Displays()
	if err != nil {
		s.logger.Warn("failed to list displays", "error", err)
		return
	}
	byID := make(map[int]platform.Display, len(displays))
	for _, d := range displays {
		byID[d.ID] = d
	}

	wanted := make(map[tracker.ViewID]struct{}, len(s.views))
	for _, v := range s.views {
		id := tracker.ViewID(v.Name)
		display, ok := byID[v.Screen]
		if !ok {
			s.logger.Warn("view screen not connected", "view", v.Name, "screen", v.Screen)
			continue
		}
		edge, err := tracker.ParseEdge(v.Edge)
		if err != nil {
			s.logger.Warn("skipping view", "view", v.Name, "error", err)
			continue
		}
		wanted[id] = struct{}{}

		desc := tracker.DescriptorFor(display, edge, v.Thickness, s.activitiesFor(v))
		if current, ok := s.engine.Descriptor(id); !ok {
			s.engine.AddView(id, desc)
			s.logger.Info("view added", "view", id, "screen", v.Screen, "edge", edge)
		} else if !current.Equal(desc) {
			_ = s.engine.UpdateView(id, desc)
			s.logger.Debug("view updated", "view", id)
		}

		enabled := v.IsEnabled()
		if last, ok := s.configured[id]; !ok || last != enabled {
			s.engine.SetEnabled(id, enabled)
			s.configured[id] = enabled
		}
	}

	for _, id := range s.engine.Views() {
		if _, ok := wanted[id]; ok {
			continue
		}
		s.engine.RemoveView(id)
		delete(s.configured, id)
		s.logger.Info("view removed", "view", id)
	}
}

func (s *ViewSync) activitiesFor(v config.View) []string {
	if len(v.Activities) > 0 {
		return v.Activities
	}
	if s.activity == "" {
		return nil
	}
	return []string{s.activity}
}
