package scheme

import (
	"image"

	"github.com/1broseidon/dockwatch/internal/platform"
)

// IconSource supplies the window content a scheme is derived from.
type IconSource interface {
	Icon(id platform.WindowID) (image.Image, error)
	AppName(id platform.WindowID) string
}

// Cache maps windows to schemes. Windows of the same application share one
// *Colors so switching between them is not a scheme change. Cache is not
// safe for concurrent use; it lives on the tracker goroutine.
type Cache struct {
	src      IconSource
	byApp    map[string]*Colors
	byWindow map[platform.WindowID]*Colors
	misses   map[platform.WindowID]struct{}
}

// NewCache creates an empty cache reading icons from src.
func NewCache(src IconSource) *Cache {
	return &Cache{
		src:      src,
		byApp:    make(map[string]*Colors),
		byWindow: make(map[platform.WindowID]*Colors),
		misses:   make(map[platform.WindowID]struct{}),
	}
}

// SchemeFor returns the scheme of a window, or nil when none can be derived.
func (c *Cache) SchemeFor(id platform.WindowID) *Colors {
	if id == 0 {
		return nil
	}
	if s, ok := c.byWindow[id]; ok {
		return s
	}
	if _, ok := c.misses[id]; ok {
		return nil
	}

	app := c.src.AppName(id)
	if app != "" {
		if s, ok := c.byApp[app]; ok {
			c.byWindow[id] = s
			return s
		}
	}

	img, err := c.src.Icon(id)
	if err != nil {
		c.misses[id] = struct{}{}
		return nil
	}
	s, ok := FromImage(app, img)
	if !ok {
		c.misses[id] = struct{}{}
		return nil
	}
	if app != "" {
		c.byApp[app] = s
	}
	c.byWindow[id] = s
	return s
}

// Forget drops a closed window and any app scheme no window uses anymore.
func (c *Cache) Forget(id platform.WindowID) {
	c.drop(id)
}

// Invalidate discards what is known about a live window's scheme after its
// icon changed, so the next SchemeFor derives it again. A scheme still shared
// with other windows of the same app is kept for them and reused.
func (c *Cache) Invalidate(id platform.WindowID) {
	c.drop(id)
}

func (c *Cache) drop(id platform.WindowID) {
	delete(c.misses, id)
	s, ok := c.byWindow[id]
	if !ok {
		return
	}
	delete(c.byWindow, id)
	if s.App == "" {
		return
	}
	for _, other := range c.byWindow {
		if other == s {
			return
		}
	}
	delete(c.byApp, s.App)
}

// Len returns the number of windows with a cached scheme.
func (c *Cache) Len() int {
	return len(c.byWindow)
}
