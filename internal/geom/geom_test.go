package geom

import (
	"math"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cameras := []Camera{
		{Pan: Point{0, 0}, Zoom: 1},
		{Pan: Point{120, -45}, Zoom: 0.25},
		{Pan: Point{-999.5, 3.25}, Zoom: 2.75},
		{Pan: Point{0.001, 0.001}, Zoom: MinZoom},
		{Pan: Point{50, 50}, Zoom: MaxZoom},
	}
	points := []Point{
		{0, 0}, {100, 100}, {-350.5, 912.25}, {1e6, -1e6}, {0.125, -0.125},
	}

	for _, cam := range cameras {
		for _, p := range points {
			got := cam.ScreenToWorld(cam.WorldToScreen(p))
			if math.Abs(got.X-p.X) > 1e-6 || math.Abs(got.Y-p.Y) > 1e-6 {
				t.Errorf("camera %+v point %+v: round trip gave %+v", cam, p, got)
			}
		}
	}
}

func TestClampZoom(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0.01, MinZoom},
		{-5, MinZoom},
		{1, 1},
		{2.9, 2.9},
		{99, MaxZoom},
	}
	for _, c := range cases {
		if got := ClampZoom(c.in); got != c.want {
			t.Errorf("ClampZoom(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	cam := Camera{Pan: Point{0, 0}, Zoom: 1}

	// Node at world (100,100) appears at screen (100,100).
	screen := cam.WorldToScreen(Point{100, 100})
	if screen.X != 100 || screen.Y != 100 {
		t.Fatalf("expected screen (100,100), got %+v", screen)
	}

	// Zoom to 2.0 anchored at that point: the node must stay put.
	cam = cam.ZoomAt(2.0, Point{100, 100})
	screen = cam.WorldToScreen(Point{100, 100})
	if math.Abs(screen.X-100) > 1e-9 || math.Abs(screen.Y-100) > 1e-9 {
		t.Errorf("anchor moved to %+v after zoom", screen)
	}
	if cam.Zoom != 2.0 {
		t.Errorf("zoom = %v, want 2.0", cam.Zoom)
	}
}

func TestZoomAtClamps(t *testing.T) {
	cam := NewCamera()
	if got := cam.ZoomAt(100, Point{}).Zoom; got != MaxZoom {
		t.Errorf("zoom = %v, want %v", got, MaxZoom)
	}
	if got := cam.ZoomAt(0, Point{}).Zoom; got != MinZoom {
		t.Errorf("zoom = %v, want %v", got, MinZoom)
	}
}

func TestDistToSegment(t *testing.T) {
	a, b := Point{0, 0}, Point{10, 0}
	if d := DistToSegment(Point{5, 3}, a, b); math.Abs(d-3) > 1e-9 {
		t.Errorf("perpendicular distance = %v, want 3", d)
	}
	if d := DistToSegment(Point{-4, 0}, a, b); math.Abs(d-4) > 1e-9 {
		t.Errorf("distance past endpoint = %v, want 4", d)
	}
	if d := DistToSegment(Point{3, 4}, a, a); math.Abs(d-5) > 1e-9 {
		t.Errorf("degenerate segment distance = %v, want 5", d)
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{CX: 0, CY: 0, W: 200, H: 150}
	if !r.Contains(Point{0, 0}) || !r.Contains(Point{99, -74}) {
		t.Error("points inside reported outside")
	}
	if r.Contains(Point{101, 0}) || r.Contains(Point{0, 80}) {
		t.Error("points outside reported inside")
	}
}
