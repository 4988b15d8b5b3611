// Package platformtest provides an in-memory platform.Backend for tests.
package platformtest

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/1broseidon/dockwatch/internal/platform"
)

// Fake is a scriptable backend. Windows put into it are valid until they are
// deleted or invalidated.
type Fake struct {
	mu       sync.Mutex
	windows  map[platform.WindowID]platform.WindowInfo
	invalid  map[platform.WindowID]bool
	icons    map[platform.WindowID]image.Image
	active   platform.WindowID
	desktop  string
	displays []platform.Display
	events   chan platform.Event

	// InfoCalls counts Info queries.
	InfoCalls int
}

var _ platform.Backend = (*Fake)(nil)

// NewFake returns an empty backend on desktop "1" with one 1920x1080 display.
func NewFake() *Fake {
	return &Fake{
		windows: make(map[platform.WindowID]platform.WindowInfo),
		invalid: make(map[platform.WindowID]bool),
		icons:   make(map[platform.WindowID]image.Image),
		desktop: "1",
		displays: []platform.Display{
			{ID: 0, Name: "DP-1", Bounds: platform.Rect{Width: 1920, Height: 1080}},
		},
		events: make(chan platform.Event, 64),
	}
}

// Put stores or replaces a window.
func (f *Fake) Put(info platform.WindowInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[info.ID] = info.Clone()
	delete(f.invalid, info.ID)
}

// Update mutates a stored window in place.
func (f *Fake) Update(id platform.WindowID, fn func(*platform.WindowInfo)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.windows[id]
	if !ok {
		return
	}
	fn(&info)
	f.windows[id] = info
}

// Delete forgets a window entirely.
func (f *Fake) Delete(id platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.windows, id)
	delete(f.icons, id)
}

// Invalidate keeps the window's attributes but makes IsValid report false,
// as happens when a backend silently loses a window.
func (f *Fake) Invalidate(id platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalid[id] = true
}

// SetActive changes the active window.
func (f *Fake) SetActive(id platform.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = id
}

// SetCurrentDesktop changes the current desktop.
func (f *Fake) SetCurrentDesktop(desktop string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.desktop = desktop
}

// SetDisplays replaces the display list.
func (f *Fake) SetDisplays(displays []platform.Display) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displays = displays
}

// SetIcon assigns an icon to a window.
func (f *Fake) SetIcon(id platform.WindowID, img image.Image) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.icons[id] = img
}

// Emit queues an event on the event stream.
func (f *Fake) Emit(ev platform.Event) {
	f.events <- ev
}

func (f *Fake) Events() <-chan platform.Event {
	return f.events
}

func (f *Fake) IsValid(id platform.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.windows[id]
	return ok && !f.invalid[id]
}

func (f *Fake) Info(id platform.WindowID) (platform.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InfoCalls++
	info, ok := f.windows[id]
	if !ok || f.invalid[id] {
		return platform.WindowInfo{}, fmt.Errorf("window %d: %w", id, platform.ErrWindowGone)
	}
	info = info.Clone()
	info.Flags.Active = id == f.active
	return info, nil
}

func (f *Fake) ActiveWindow() (platform.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

func (f *Fake) CurrentDesktop() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.desktop, nil
}

func (f *Fake) Windows() ([]platform.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]platform.WindowID, 0, len(f.windows))
	for id := range f.windows {
		if !f.invalid[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *Fake) Displays() ([]platform.Display, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Display(nil), f.displays...), nil
}

func (f *Fake) Icon(id platform.WindowID) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.icons[id]
	if !ok {
		return nil, fmt.Errorf("window %d has no icon", id)
	}
	return img, nil
}

func (f *Fake) AppName(id platform.WindowID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[id].AppName
}
