package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/dockwatch/internal/daemon"
	"github.com/1broseidon/dockwatch/internal/runtimepath"
	"github.com/1broseidon/dockwatch/internal/tracker"
)

const requestTimeout = 5 * time.Second

// Options wires the daemon pieces the server reports on and controls.
type Options struct {
	Reconciler *daemon.Reconciler
	// Reload reloads the configuration; nil makes RELOAD fail.
	Reload func() error
	// Activity returns the current activity. It runs on the engine
	// goroutine.
	Activity   func() string
	ConfigFile string
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	engine       *tracker.Engine
	opts         Options
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(engine *tracker.Engine, opts Options) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		engine:     engine,
		opts:       opts,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := s.handleCommand(req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListViews:
		return s.handleListViews()
	case CommandGetView:
		return s.handleGetView(req.Payload)
	case CommandSetEnabled:
		return s.handleSetEnabled(req.Payload)
	case CommandListWindows:
		return s.handleListWindows()
	case CommandReconcile:
		return s.handleReconcile()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// call runs fn on the engine goroutine with the request timeout.
func (s *Server) call(fn func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return s.engine.Call(ctx, fn)
}

func okResponse(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	if s.opts.Reload == nil {
		return NewErrorResponse("Reload is not supported")
	}
	if err := s.opts.Reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	log.Println("IPC: Config reloaded successfully")
	return okResponse(nil)
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		ConfigFile:    s.opts.ConfigFile,
	}
	err := s.call(func() {
		status.WindowCount = s.engine.WindowCount()
		status.ViewCount = len(s.engine.Views())
		status.ActiveWindow = uint32(s.engine.ActiveWindow())
		status.CurrentDesktop = s.engine.CurrentDesktop()
		if s.opts.Activity != nil {
			status.CurrentActivity = s.opts.Activity()
		}
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to read status: %v", err))
	}
	return okResponse(status)
}

func (s *Server) handleListViews() *Response {
	var data ViewsData
	err := s.call(func() {
		for _, id := range s.engine.Views() {
			if v, err := buildViewData(s.engine, id); err == nil {
				data.Views = append(data.Views, v)
			}
		}
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list views: %v", err))
	}
	if data.Views == nil {
		data.Views = []ViewData{}
	}
	return okResponse(data)
}

func (s *Server) handleGetView(payload json.RawMessage) *Response {
	var req ViewPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return NewErrorResponse("View name is required")
	}

	var (
		view    ViewData
		viewErr error
	)
	err := s.call(func() {
		view, viewErr = buildViewData(s.engine, tracker.ViewID(name))
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to read view: %v", err))
	}
	if viewErr != nil {
		return viewErrorResponse(name, viewErr)
	}
	return okResponse(view)
}

func (s *Server) handleSetEnabled(payload json.RawMessage) *Response {
	var req SetEnabledPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	id := tracker.ViewID(strings.TrimSpace(req.Name))

	var (
		view    ViewData
		viewErr error
	)
	err := s.call(func() {
		if _, ok := s.engine.Descriptor(id); !ok {
			viewErr = tracker.ErrNotRegistered
			return
		}
		s.engine.SetEnabled(id, req.Enabled)
		view, viewErr = buildViewData(s.engine, id)
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set enabled: %v", err))
	}
	if viewErr != nil {
		return viewErrorResponse(string(id), viewErr)
	}
	log.Printf("IPC: view %s enabled=%v", id, req.Enabled)
	return okResponse(view)
}

func (s *Server) handleListWindows() *Response {
	var data WindowsData
	err := s.call(func() {
		data.ActiveWindow = uint32(s.engine.ActiveWindow())
		data.Windows = s.engine.Windows()
		for i := range data.Windows {
			w := &data.Windows[i]
			if w.AppName == "" {
				w.AppName = s.engine.AppNameFor(w.ID)
			}
			if s.engine.IconFor(w.ID) != nil {
				data.WithIcon = append(data.WithIcon, uint32(w.ID))
			}
		}
	})
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list windows: %v", err))
	}
	return okResponse(data)
}

func (s *Server) handleReconcile() *Response {
	if s.opts.Reconciler == nil {
		return NewErrorResponse("Reconciler is not running")
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	removed, err := s.opts.Reconciler.ReconcileNow(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reconcile: %v", err))
	}
	return okResponse(ReconcileData{Removed: removed})
}

// buildViewData snapshots one view. It must run on the engine goroutine.
func buildViewData(e *tracker.Engine, id tracker.ViewID) (ViewData, error) {
	desc, ok := e.Descriptor(id)
	if !ok {
		return ViewData{}, tracker.ErrNotRegistered
	}
	facts, err := e.Facts(id)
	if err != nil {
		return ViewData{}, err
	}
	return ViewData{
		Name:       string(id),
		Enabled:    e.Enabled(id),
		Screen:     desc.Screen,
		Edge:       desc.Edge,
		Geometry:   desc.Geometry,
		Activities: desc.Activities,
		Facts: FactsData{
			ActiveWindowMaximized: facts.ActiveWindowMaximized,
			ActiveWindowTouching:  facts.ActiveWindowTouching,
			ExistsWindowActive:    facts.ExistsWindowActive,
			ExistsWindowMaximized: facts.ExistsWindowMaximized,
			ExistsWindowTouching:  facts.ExistsWindowTouching,
			ActiveWindowScheme:    NewSchemeData(facts.ActiveScheme.Value()),
			TouchingWindowScheme:  NewSchemeData(facts.TouchingScheme.Value()),
		},
		LastActiveWindow: e.LastActiveWindow(id),
	}, nil
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

func viewErrorResponse(name string, err error) *Response {
	msg := fmt.Sprintf("View %q: %v", name, err)
	if errors.Is(err, tracker.ErrNotRegistered) {
		return NewCodedErrorResponse(CodeNotRegistered, msg)
	}
	return NewErrorResponse(msg)
}

// IsNotRegistered reports whether a client error came from an unknown view.
func IsNotRegistered(err error) bool {
	return errors.Is(err, tracker.ErrNotRegistered)
}
