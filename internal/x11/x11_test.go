package x11

import (
	"image"
	"image/color"
	"slices"
	"testing"
)

func TestParseActivities(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a, b,,", []string{"a", "b"}},
		{AllActivities, nil},
		{"a," + AllActivities, nil},
	}

	for _, tt := range tests {
		if got := parseActivities(tt.in); !slices.Equal(got, tt.want) {
			t.Fatalf("parseActivities(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestParseWindowState(t *testing.T) {
	half := parseWindowState([]string{"_NET_WM_STATE_MAXIMIZED_VERT"})
	if half.Maximized {
		t.Fatalf("expected vertical-only maximize not to count as maximized")
	}

	ws := parseWindowState([]string{
		"_NET_WM_STATE_MAXIMIZED_HORZ",
		"_NET_WM_STATE_MAXIMIZED_VERT",
		"_NET_WM_STATE_HIDDEN",
		"_NET_WM_STATE_SHADED",
		"_NET_WM_STATE_SKIP_TASKBAR",
	})
	want := WindowState{Maximized: true, Minimized: true, Shaded: true, SkipTaskbar: true}
	if ws != want {
		t.Fatalf("expected %+v, got %+v", want, ws)
	}
}

func TestMonitorForGeometry(t *testing.T) {
	monitors := []Monitor{
		{ID: 0, X: 0, Y: 0, Width: 1920, Height: 1080},
		{ID: 1, X: 1920, Y: 0, Width: 1280, Height: 1024},
	}

	tests := []struct {
		name string
		g    Geometry
		want int
	}{
		{"left center", Geometry{X: 100, Y: 100, Width: 400, Height: 300}, 0},
		{"right center", Geometry{X: 2000, Y: 100, Width: 400, Height: 300}, 1},
		{"straddling", Geometry{X: 1800, Y: 0, Width: 400, Height: 300}, 1},
		{"center below right monitor", Geometry{X: 1900, Y: 900, Width: 800, Height: 400}, 1},
		{"off screen", Geometry{X: -5000, Y: -5000, Width: 10, Height: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonitorForGeometry(monitors, tt.g); got != tt.want {
				t.Fatalf("expected monitor %d, got %d", tt.want, got)
			}
		})
	}

	if got := MonitorForGeometry(nil, Geometry{Width: 10, Height: 10}); got != -1 {
		t.Fatalf("expected -1 without monitors, got %d", got)
	}
}

func TestArgbToImage(t *testing.T) {
	img := argbToImage(2, 1, []uint{0xff102030, 0x00000000})
	if img.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	got := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	if got != (color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}) {
		t.Fatalf("unexpected pixel %+v", got)
	}
	if _, _, _, a := img.At(1, 0).RGBA(); a != 0 {
		t.Fatalf("expected transparent second pixel")
	}
}
