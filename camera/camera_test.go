package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew_FitsWorld(t *testing.T) {
	cam := New(1200, 600, 1200, 600)

	if cam.X != 600 || cam.Y != 300 {
		t.Errorf("expected camera at (600, 300), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}

	sx, sy := cam.WorldToScreen(0, 0)
	if !near(sx, 0) || !near(sy, 0) {
		t.Errorf("world origin should map to screen origin, got (%f, %f)", sx, sy)
	}
}

func TestNew_Letterbox(t *testing.T) {
	// Window is twice as tall as needed: world fits by width
	cam := New(600, 600, 1200, 600)

	if !near(cam.Zoom, 0.5) {
		t.Errorf("expected zoom 0.5, got %f", cam.Zoom)
	}
	_, sy := cam.WorldToScreen(600, 0)
	if !near(sy, 150) {
		t.Errorf("expected world top at y=150, got %f", sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1200, 600, 1200, 600)
	cam.SetZoom(2)
	cam.Pan(100, 40)

	cases := []struct{ sx, sy float32 }{
		{600, 300},
		{10, 10},
		{1100, 550},
	}
	for _, tc := range cases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)", tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPan_ClampsToWorld(t *testing.T) {
	cam := New(1200, 600, 1200, 600)
	cam.SetZoom(2)

	cam.Pan(-10000, -10000)
	minX, minY, _, _ := cam.VisibleWorldBounds()
	if !near(minX, 0) || !near(minY, 0) {
		t.Errorf("expected view pinned at origin, got (%f, %f)", minX, minY)
	}

	cam.Pan(10000, 10000)
	_, _, maxX, maxY := cam.VisibleWorldBounds()
	if !near(maxX, 1200) || !near(maxY, 600) {
		t.Errorf("expected view pinned at far corner, got (%f, %f)", maxX, maxY)
	}
}

func TestZoom_Limits(t *testing.T) {
	cam := New(1200, 600, 1200, 600)

	cam.ZoomBy(0.1)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1200, 600, 1200, 600)
	cam.SetZoom(4)
	cam.Pan(-10000, -10000) // view covers [0,300]x[0,150]

	if !cam.IsVisible(100, 100, 0) {
		t.Error("point inside view should be visible")
	}
	if cam.IsVisible(900, 500, 5) {
		t.Error("point far outside view should not be visible")
	}
	if !cam.IsVisible(305, 100, 10) {
		t.Error("circle overlapping the edge should be visible")
	}
}

func TestResize_KeepsZoomValid(t *testing.T) {
	cam := New(1200, 600, 1200, 600)
	cam.Resize(2400, 1200)

	if cam.Zoom < cam.MinZoom {
		t.Errorf("zoom %f below min %f after resize", cam.Zoom, cam.MinZoom)
	}
	if !near(cam.MinZoom, 2) {
		t.Errorf("expected min zoom 2, got %f", cam.MinZoom)
	}
}
