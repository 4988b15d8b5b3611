// Package scheme derives panel color schemes from window content and caches
// them per window. The tracker only ever holds weak references to these
// objects; the cache decides their lifetime.
package scheme

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// minAlpha is the 16-bit alpha below which icon pixels are ignored.
const minAlpha = 0x8000

// Colors is a color scheme a panel can borrow from a window.
type Colors struct {
	App        string
	Background colorful.Color
	Foreground colorful.Color
	Highlight  colorful.Color
}

// BackgroundHex returns the background as #rrggbb.
func (c *Colors) BackgroundHex() string { return c.Background.Hex() }

// ForegroundHex returns the foreground as #rrggbb.
func (c *Colors) ForegroundHex() string { return c.Foreground.Hex() }

// HighlightHex returns the highlight as #rrggbb.
func (c *Colors) HighlightHex() string { return c.Highlight.Hex() }

// IsDark reports whether the background calls for light text.
func (c *Colors) IsDark() bool {
	l, _, _ := c.Background.Lab()
	return l < 0.5
}

// FromImage builds a scheme from the average opaque color of img, averaged in
// Lab space. It reports false when the image has no opaque pixels.
func FromImage(app string, img image.Image) (*Colors, bool) {
	if img == nil {
		return nil, false
	}

	var sumL, sumA, sumB float64
	n := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := img.At(x, y)
			if _, _, _, a := px.RGBA(); a < minAlpha {
				continue
			}
			c, ok := colorful.MakeColor(px)
			if !ok {
				continue
			}
			l, a, b := c.Lab()
			sumL += l
			sumA += a
			sumB += b
			n++
		}
	}
	if n == 0 {
		return nil, false
	}

	base := colorful.Lab(sumL/float64(n), sumA/float64(n), sumB/float64(n)).Clamped()
	return fromBase(app, base), true
}

func fromBase(app string, base colorful.Color) *Colors {
	h, c, l := base.Hcl()

	bg := colorful.Hcl(h, c*0.5, 0.25).Clamped()
	if l > 0.75 {
		// Very light icons read better on a light panel.
		bg = colorful.Hcl(h, c*0.3, 0.9).Clamped()
	}

	fg := colorful.Hcl(h, 0.02, 0.95).Clamped()
	if bgL, _, _ := bg.Lab(); bgL >= 0.5 {
		fg = colorful.Hcl(h, 0.02, 0.12).Clamped()
	}

	return &Colors{
		App:        app,
		Background: bg,
		Foreground: fg,
		Highlight:  colorful.Hcl(h, max(c, 0.4), 0.6).Clamped(),
	}
}
