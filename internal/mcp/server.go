// Package mcp exposes dockwatch view facts to MCP clients over stdio. It is a
// thin client of the running daemon.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/dockwatch/internal/ipc"
)

const (
	ServerName    = "dockwatch"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools need.
type Daemon interface {
	ListViews() (*ipc.ViewsData, error)
	GetView(name string) (*ipc.ViewData, error)
	SetEnabled(name string, enabled bool) (*ipc.ViewData, error)
	ListWindows() (*ipc.WindowsData, error)
}

// Server is the MCP server for dockwatch.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates a server talking to daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_views",
		Description: "List every dock/panel view tracked by dockwatch with its current window facts: whether the active window is maximized or touching the view, whether any window is, the borrowed color schemes and the last active window.",
	}, s.handleListViews)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_view_facts",
		Description: "Get the current window facts of one view by name.",
	}, s.handleGetViewFacts)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the windows dockwatch currently tracks, with geometry, screen and state flags. Optionally filter by screen id.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_view_enabled",
		Description: "Enable or disable fact tracking for a view. A disabled view keeps its last facts until it is enabled again.",
	}, s.handleSetViewEnabled)
}

func (s *Server) handleListViews(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListViewsInput) (*mcpsdk.CallToolResult, ListViewsOutput, error) {
	data, err := s.daemon.ListViews()
	if err != nil {
		return nil, ListViewsOutput{}, err
	}
	out := ListViewsOutput{Views: make([]ViewInfo, 0, len(data.Views))}
	for _, v := range data.Views {
		out.Views = append(out.Views, toViewInfo(v))
	}
	return nil, out, nil
}

func (s *Server) handleGetViewFacts(_ context.Context, _ *mcpsdk.CallToolRequest, args GetViewFactsInput) (*mcpsdk.CallToolResult, ViewInfo, error) {
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return nil, ViewInfo{}, fmt.Errorf("name is required")
	}
	v, err := s.daemon.GetView(name)
	if err != nil {
		return nil, ViewInfo{}, err
	}
	return nil, toViewInfo(*v), nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.daemon.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{
		ActiveWindow: data.ActiveWindow,
		Windows:      make([]WindowInfo, 0, len(data.Windows)),
	}
	for _, w := range data.Windows {
		if args.Screen != nil && w.Screen != *args.Screen {
			continue
		}
		out.Windows = append(out.Windows, WindowInfo{
			ID:          uint32(w.ID),
			AppName:     w.AppName,
			Title:       w.Title,
			Screen:      w.Screen,
			X:           w.Geometry.X,
			Y:           w.Geometry.Y,
			Width:       w.Geometry.Width,
			Height:      w.Geometry.Height,
			Active:      w.Flags.Active,
			Maximized:   w.Flags.Maximized,
			Minimized:   w.Flags.Minimized,
			SkipTaskbar: w.Flags.SkipTaskbar,
		})
	}
	return nil, out, nil
}

func (s *Server) handleSetViewEnabled(_ context.Context, _ *mcpsdk.CallToolRequest, args SetViewEnabledInput) (*mcpsdk.CallToolResult, ViewInfo, error) {
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return nil, ViewInfo{}, fmt.Errorf("name is required")
	}
	v, err := s.daemon.SetEnabled(name, args.Enabled)
	if err != nil {
		return nil, ViewInfo{}, err
	}
	return nil, toViewInfo(*v), nil
}

func toViewInfo(v ipc.ViewData) ViewInfo {
	info := ViewInfo{
		Name:                  v.Name,
		Enabled:               v.Enabled,
		Screen:                v.Screen,
		Activities:            v.Activities,
		ActiveWindowMaximized: v.Facts.ActiveWindowMaximized,
		ActiveWindowTouching:  v.Facts.ActiveWindowTouching,
		ExistsWindowActive:    v.Facts.ExistsWindowActive,
		ExistsWindowMaximized: v.Facts.ExistsWindowMaximized,
		ExistsWindowTouching:  v.Facts.ExistsWindowTouching,
		ActiveWindowScheme:    toSchemeInfo(v.Facts.ActiveWindowScheme),
		TouchingWindowScheme:  toSchemeInfo(v.Facts.TouchingWindowScheme),
	}
	if l := v.LastActiveWindow; l != nil {
		info.LastActiveWindow = &LastActiveInfo{
			ID:          uint32(l.ID),
			AppName:     l.AppName,
			Title:       l.Title,
			ActivatedAt: l.ActivatedAt.Format(time.RFC3339),
		}
	}
	return info
}

func toSchemeInfo(s *ipc.SchemeData) *SchemeInfo {
	if s == nil {
		return nil
	}
	return &SchemeInfo{
		App:        s.App,
		Background: s.Background,
		Foreground: s.Foreground,
		Highlight:  s.Highlight,
		Dark:       s.Dark,
	}
}
