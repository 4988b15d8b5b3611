package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/dockwatch/internal/platform"
	"github.com/1broseidon/dockwatch/internal/scheme"
	"github.com/1broseidon/dockwatch/internal/tracker"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListViews   CommandType = "LIST_VIEWS"
	CommandGetView     CommandType = "GET_VIEW"
	CommandSetEnabled  CommandType = "SET_ENABLED"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandReconcile   CommandType = "RECONCILE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	// Code classifies errors clients act on; empty for generic failures.
	Code ErrorCode `json:"code,omitempty"`
}

// ErrorCode identifies an error condition across the socket.
type ErrorCode string

const CodeNotRegistered ErrorCode = "NOT_REGISTERED"

// DaemonError is an ERROR response as seen by the client.
type DaemonError struct {
	Code    ErrorCode
	Message string
}

func (e *DaemonError) Error() string {
	return "daemon error: " + e.Message
}

// Is lets errors.Is match coded errors against their sentinels.
func (e *DaemonError) Is(target error) bool {
	return e.Code == CodeNotRegistered && target == tracker.ErrNotRegistered
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds   int64  `json:"uptime_seconds"`
	DaemonRunning   bool   `json:"daemon_running"`
	WindowCount     int    `json:"window_count"`
	ViewCount       int    `json:"view_count"`
	ActiveWindow    uint32 `json:"active_window"`
	CurrentDesktop  string `json:"current_desktop"`
	CurrentActivity string `json:"current_activity,omitempty"`
	ConfigFile      string `json:"config_file,omitempty"`
}

// SchemeData is a color scheme in hex form.
type SchemeData struct {
	App        string `json:"app,omitempty"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Highlight  string `json:"highlight"`
	Dark       bool   `json:"dark"`
}

// FactsData mirrors the derived facts of one view.
type FactsData struct {
	ActiveWindowMaximized bool        `json:"active_window_maximized"`
	ActiveWindowTouching  bool        `json:"active_window_touching"`
	ExistsWindowActive    bool        `json:"exists_window_active"`
	ExistsWindowMaximized bool        `json:"exists_window_maximized"`
	ExistsWindowTouching  bool        `json:"exists_window_touching"`
	ActiveWindowScheme    *SchemeData `json:"active_window_scheme,omitempty"`
	TouchingWindowScheme  *SchemeData `json:"touching_window_scheme,omitempty"`
}

// ViewData describes one registered view.
type ViewData struct {
	Name             string                    `json:"name"`
	Enabled          bool                      `json:"enabled"`
	Screen           int                       `json:"screen"`
	Edge             platform.Rect             `json:"edge"`
	Geometry         platform.Rect             `json:"geometry"`
	Activities       []string                  `json:"activities,omitempty"`
	Facts            FactsData                 `json:"facts"`
	LastActiveWindow *tracker.LastActiveWindow `json:"last_active_window,omitempty"`
}

// ViewsData represents the data returned by LIST_VIEWS
type ViewsData struct {
	Views []ViewData `json:"views"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	ActiveWindow uint32                `json:"active_window"`
	Windows      []platform.WindowInfo `json:"windows"`
	// WithIcon lists the windows whose icon can be read.
	WithIcon []uint32 `json:"with_icon,omitempty"`
}

// ReconcileData represents the data returned by RECONCILE
type ReconcileData struct {
	Removed int `json:"removed"`
}

type ViewPayload struct {
	Name string `json:"name"`
}

type SetEnabledPayload struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// NewSchemeData converts a scheme; nil stays nil.
func NewSchemeData(c *scheme.Colors) *SchemeData {
	if c == nil {
		return nil
	}
	return &SchemeData{
		App:        c.App,
		Background: c.BackgroundHex(),
		Foreground: c.ForegroundHex(),
		Highlight:  c.HighlightHex(),
		Dark:       c.IsDark(),
	}
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// NewCodedErrorResponse creates an error response carrying code.
func NewCodedErrorResponse(code ErrorCode, errMsg string) *Response {
	resp := NewErrorResponse(errMsg)
	resp.Code = code
	return resp
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
