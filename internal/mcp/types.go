package mcp

// ListViewsInput is the input for the list_views tool.
type ListViewsInput struct{}

// ListViewsOutput is the output for the list_views tool.
type ListViewsOutput struct {
	Views []ViewInfo `json:"views"`
}

// GetViewFactsInput is the input for the get_view_facts tool.
type GetViewFactsInput struct {
	Name string `json:"name" jsonschema:"required,Name of the view as configured in dockwatch"`
}

// SetViewEnabledInput is the input for the set_view_enabled tool.
type SetViewEnabledInput struct {
	Name    string `json:"name" jsonschema:"required,Name of the view as configured in dockwatch"`
	Enabled bool   `json:"enabled" jsonschema:"required,True to resume tracking, false to freeze the view's facts"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Screen *int `json:"screen,omitempty" jsonschema:"Only list windows on this screen id"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	ActiveWindow uint32       `json:"active_window"`
	Windows      []WindowInfo `json:"windows"`
}

// SchemeInfo is a borrowed color scheme.
type SchemeInfo struct {
	App        string `json:"app,omitempty"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Highlight  string `json:"highlight"`
	Dark       bool   `json:"dark"`
}

// LastActiveInfo is the last window that held focus for a view.
type LastActiveInfo struct {
	ID          uint32 `json:"id"`
	AppName     string `json:"app_name"`
	Title       string `json:"title"`
	ActivatedAt string `json:"activated_at"`
}

// ViewInfo describes a view and its current facts.
type ViewInfo struct {
	Name                  string          `json:"name"`
	Enabled               bool            `json:"enabled"`
	Screen                int             `json:"screen"`
	Activities            []string        `json:"activities,omitempty"`
	ActiveWindowMaximized bool            `json:"active_window_maximized"`
	ActiveWindowTouching  bool            `json:"active_window_touching"`
	ExistsWindowActive    bool            `json:"exists_window_active"`
	ExistsWindowMaximized bool            `json:"exists_window_maximized"`
	ExistsWindowTouching  bool            `json:"exists_window_touching"`
	ActiveWindowScheme    *SchemeInfo     `json:"active_window_scheme,omitempty"`
	TouchingWindowScheme  *SchemeInfo     `json:"touching_window_scheme,omitempty"`
	LastActiveWindow      *LastActiveInfo `json:"last_active_window,omitempty"`
}

// WindowInfo describes one tracked window.
type WindowInfo struct {
	ID          uint32 `json:"id"`
	AppName     string `json:"app_name,omitempty"`
	Title       string `json:"title,omitempty"`
	Screen      int    `json:"screen"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Active      bool   `json:"active"`
	Maximized   bool   `json:"maximized"`
	Minimized   bool   `json:"minimized"`
	SkipTaskbar bool   `json:"skip_taskbar"`
}
