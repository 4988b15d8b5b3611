//go:build linux

package platform

import (
	"fmt"
	"image"
	"sort"
	"strconv"
	"sync"

	"github.com/1broseidon/dockwatch/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const eventBuffer = 256

// LinuxBackend translates X11/EWMH notifications into platform events and
// answers window queries over the same connection.
type LinuxBackend struct {
	conn   *x11.Connection
	events chan Event
	done   chan struct{}

	mu       sync.Mutex
	known    map[xproto.Window]x11.WindowKind
	monitors []x11.Monitor
	active   xproto.Window
	closed   bool
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{
		conn:   conn,
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
		known:  make(map[xproto.Window]x11.WindowKind),
	}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11
// connection to display ("" uses $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnectionTo(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn), nil
}

// Start subscribes to root and client notifications and seeds the client
// set. It must run before EventLoop.
func (b *LinuxBackend) Start() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	root := xwindow.New(conn.XUtil, conn.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskStructureNotify); err != nil {
		return fmt.Errorf("failed to listen on root window: %w", err)
	}
	xevent.PropertyNotifyFun(b.onRootProperty).Connect(conn.XUtil, conn.Root)
	xevent.ConfigureNotifyFun(b.onRootConfigure).Connect(conn.XUtil, conn.Root)

	b.refreshMonitors()
	if active, err := conn.GetActiveWindow(); err == nil {
		b.mu.Lock()
		b.active = active
		b.mu.Unlock()
	}

	clients, err := conn.ClientList()
	if err != nil {
		return err
	}
	for _, win := range clients {
		b.track(win, false)
	}
	return nil
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Disconnect stops the event loop and closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b == nil || b.conn == nil {
		return
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()
	b.conn.Quit()
	b.conn.Close()
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// Events returns the raw event stream.
func (b *LinuxBackend) Events() <-chan Event {
	return b.events
}

// IsValid reports whether the window is still a managed, live client.
func (b *LinuxBackend) IsValid(id WindowID) bool {
	conn, err := b.connection()
	if err != nil {
		return false
	}
	b.mu.Lock()
	_, ok := b.known[xproto.Window(id)]
	b.mu.Unlock()
	return ok && conn.IsAlive(xproto.Window(id))
}

// Info queries every attribute the tracker snapshots.
func (b *LinuxBackend) Info(id WindowID) (WindowInfo, error) {
	conn, err := b.connection()
	if err != nil {
		return WindowInfo{}, err
	}
	win := xproto.Window(id)
	if !conn.IsAlive(win) {
		return WindowInfo{}, fmt.Errorf("window %d: %w", id, ErrWindowGone)
	}

	geom, err := conn.GetFrameGeometry(win)
	if err != nil {
		return WindowInfo{}, err
	}
	// Windows without _NET_WM_STATE are simply in the normal state.
	state, _ := conn.GetWindowState(win)

	b.mu.Lock()
	kind, tracked := b.known[win]
	active := b.active
	monitors := b.monitors
	b.mu.Unlock()
	if !tracked {
		kind = conn.ClassifyWindow(win)
	}

	info := WindowInfo{
		ID: id,
		Geometry: Rect{
			X:      geom.X,
			Y:      geom.Y,
			Width:  geom.Width,
			Height: geom.Height,
		},
		Flags: Flags{
			Active:      win == active,
			Maximized:   state.Maximized,
			Minimized:   state.Minimized,
			Shaded:      state.Shaded,
			SkipTaskbar: state.SkipTaskbar,
			Desktop:     kind == x11.KindDesktop,
		},
		Activities: conn.GetWindowActivities(uint32(id)),
		Screen:     x11.MonitorForGeometry(monitors, geom),
		AppName:    conn.GetAppName(win),
		Title:      conn.GetTitle(win),
	}
	if desktop, err := conn.GetWindowDesktop(uint32(id)); err == nil && desktop >= 0 {
		info.Desktops = []string{strconv.Itoa(desktop)}
	}
	return info, nil
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// CurrentDesktop returns the current virtual desktop as a string id.
func (b *LinuxBackend) CurrentDesktop() (string, error) {
	conn, err := b.connection()
	if err != nil {
		return "", err
	}
	desktop, err := conn.GetCurrentDesktop()
	if err != nil {
		return "", err
	}
	return strconv.Itoa(desktop), nil
}

// Windows lists the tracked clients in ascending id order.
func (b *LinuxBackend) Windows() ([]WindowID, error) {
	if _, err := b.connection(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	ids := make([]WindowID, 0, len(b.known))
	for win := range b.known {
		ids = append(ids, WindowID(win))
	}
	b.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	if _, err := b.connection(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	monitors := b.monitors
	b.mu.Unlock()
	if len(monitors) == 0 {
		monitors = b.refreshMonitors()
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// Icon returns the window's largest _NET_WM_ICON.
func (b *LinuxBackend) Icon(id WindowID) (image.Image, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	return conn.GetIcon(xproto.Window(id))
}

// AppName returns the window class name.
func (b *LinuxBackend) AppName(id WindowID) string {
	conn, err := b.connection()
	if err != nil {
		return ""
	}
	return conn.GetAppName(xproto.Window(id))
}

func (b *LinuxBackend) onRootProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil {
		return
	}

	switch name {
	case "_NET_CLIENT_LIST":
		b.syncClients()
	case "_NET_ACTIVE_WINDOW":
		active, err := b.conn.GetActiveWindow()
		if err != nil {
			active = 0
		}
		b.mu.Lock()
		if active == b.active {
			b.mu.Unlock()
			return
		}
		b.active = active
		_, tracked := b.known[active]
		b.mu.Unlock()
		if !tracked {
			// Focus moved to a dock, a popup or nothing at all.
			active = 0
		}
		b.emit(Event{Kind: EventActiveWindowChanged, Window: WindowID(active)})
	case "_NET_CURRENT_DESKTOP":
		b.emit(Event{Kind: EventCurrentDesktopChanged})
	}
}

func (b *LinuxBackend) onRootConfigure(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
	b.refreshMonitors()
	b.emit(Event{Kind: EventScreenGeometryChanged})
}

func (b *LinuxBackend) onClientProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil {
		return
	}
	if prop := propertyForAtom(name); prop != 0 {
		b.emit(Event{Kind: EventWindowChanged, Window: WindowID(ev.Window), Changed: prop})
	}
}

func (b *LinuxBackend) onClientConfigure(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
	b.emit(Event{Kind: EventWindowChanged, Window: WindowID(ev.Window), Changed: PropGeometry})
}

func (b *LinuxBackend) onClientDestroy(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
	b.untrack(ev.Window)
}

// syncClients diffs _NET_CLIENT_LIST against the known set.
func (b *LinuxBackend) syncClients() {
	clients, err := b.conn.ClientList()
	if err != nil {
		return
	}
	current := make(map[xproto.Window]struct{}, len(clients))
	for _, win := range clients {
		current[win] = struct{}{}
	}

	b.mu.Lock()
	var gone []xproto.Window
	for win := range b.known {
		if _, ok := current[win]; !ok {
			gone = append(gone, win)
		}
	}
	b.mu.Unlock()

	for _, win := range gone {
		b.untrack(win)
	}
	for _, win := range clients {
		b.mu.Lock()
		_, seen := b.known[win]
		b.mu.Unlock()
		if !seen {
			b.track(win, true)
		}
	}
}

// track starts following a client. Clients seeded by Start are not
// announced; the consumer lists them with Windows.
func (b *LinuxBackend) track(win xproto.Window, report bool) {
	kind := b.conn.ClassifyWindow(win)
	if kind == x11.KindIgnored {
		return
	}

	b.mu.Lock()
	b.known[win] = kind
	b.mu.Unlock()

	xu := b.conn.XUtil
	if err := xwindow.New(xu, win).Listen(xproto.EventMaskPropertyChange, xproto.EventMaskStructureNotify); err != nil {
		// The window vanished between the client list read and now; the
		// reconciler retires it if no removal event follows.
		if report {
			b.announce(win)
		}
		return
	}
	xevent.PropertyNotifyFun(b.onClientProperty).Connect(xu, win)
	xevent.ConfigureNotifyFun(b.onClientConfigure).Connect(xu, win)
	xevent.DestroyNotifyFun(b.onClientDestroy).Connect(xu, win)

	if report {
		b.announce(win)
	}
}

// announce reports a newly tracked client. Focus may have reached it before
// _NET_CLIENT_LIST listed it; that activation was reported as none, so it is
// repeated now.
func (b *LinuxBackend) announce(win xproto.Window) {
	b.emit(Event{Kind: EventWindowAdded, Window: WindowID(win)})
	b.mu.Lock()
	focused := b.active == win
	b.mu.Unlock()
	if focused {
		b.emit(Event{Kind: EventActiveWindowChanged, Window: WindowID(win)})
	}
}

func (b *LinuxBackend) untrack(win xproto.Window) {
	b.mu.Lock()
	_, ok := b.known[win]
	delete(b.known, win)
	b.mu.Unlock()
	if !ok {
		return
	}
	xevent.Detach(b.conn.XUtil, win)
	b.emit(Event{Kind: EventWindowRemoved, Window: WindowID(win)})
}

func (b *LinuxBackend) refreshMonitors() []x11.Monitor {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil
	}
	b.mu.Lock()
	b.monitors = monitors
	b.mu.Unlock()
	return monitors
}

func (b *LinuxBackend) emit(ev Event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func propertyForAtom(name string) Property {
	switch name {
	case "_NET_WM_STATE":
		return PropState
	case "_NET_WM_DESKTOP":
		return PropDesktop
	case "_KDE_NET_WM_ACTIVITIES":
		return PropActivities
	case "_NET_WM_NAME", "WM_NAME":
		return PropName
	case "WM_CLASS":
		return PropClass
	case "_NET_WM_ICON":
		return PropIcon
	default:
		return 0
	}
}

func displayFromMonitor(m x11.Monitor) Display {
	return Display{
		ID:   m.ID,
		Name: m.Name,
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		},
	}
}
