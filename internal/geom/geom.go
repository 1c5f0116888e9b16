// Package geom holds the coordinate primitives shared by the board engine:
// points, rectangles and the camera that maps world space to screen space.
package geom

import "math"

// Zoom bounds for the camera. Every zoom write goes through ClampZoom.
const (
	MinZoom = 0.1
	MaxZoom = 3.0
)

// Point is a position in world or screen space depending on context.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

func (p Point) Scale(f float64) Point {
	return Point{p.X * f, p.Y * f}
}

func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle described by its center and size.
type Rect struct {
	CX, CY, W, H float64
}

func (r Rect) MinX() float64 { return r.CX - r.W/2 }
func (r Rect) MinY() float64 { return r.CY - r.H/2 }
func (r Rect) MaxX() float64 { return r.CX + r.W/2 }
func (r Rect) MaxY() float64 { return r.CY + r.H/2 }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX() && p.X <= r.MaxX() &&
		p.Y >= r.MinY() && p.Y <= r.MaxY()
}

// Expand grows the rect by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{r.CX, r.CY, r.W + 2*m, r.H + 2*m}
}

func (r Rect) Overlaps(o Rect) bool {
	return r.MinX() < o.MaxX() && o.MinX() < r.MaxX() &&
		r.MinY() < o.MaxY() && o.MinY() < r.MaxY()
}

// Camera defines the world-to-screen mapping: a pan offset in screen units
// and a zoom scale clamped to [MinZoom, MaxZoom].
type Camera struct {
	Pan  Point
	Zoom float64
}

func NewCamera() Camera {
	return Camera{Zoom: 1}
}

func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// WorldToScreen maps a world point to screen space.
func (c Camera) WorldToScreen(p Point) Point {
	return Point{p.X*c.Zoom + c.Pan.X, p.Y*c.Zoom + c.Pan.Y}
}

// ScreenToWorld is the exact inverse of WorldToScreen.
func (c Camera) ScreenToWorld(p Point) Point {
	return Point{(p.X - c.Pan.X) / c.Zoom, (p.Y - c.Pan.Y) / c.Zoom}
}

// ZoomAt returns a camera zoomed to z with the pan recomputed so the world
// point under the screen anchor stays fixed under the anchor.
func (c Camera) ZoomAt(z float64, anchor Point) Camera {
	z = ClampZoom(z)
	w := c.ScreenToWorld(anchor)
	return Camera{
		Pan:  Point{anchor.X - w.X*z, anchor.Y - w.Y*z},
		Zoom: z,
	}
}

// Panned returns a camera shifted by a screen-space delta.
func (c Camera) Panned(delta Point) Camera {
	return Camera{Pan: c.Pan.Add(delta), Zoom: c.Zoom}
}

// DistToSegment returns the distance from p to the segment a-b.
func DistToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.X*ab.X + ab.Y*ab.Y
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Dist(a.Add(ab.Scale(t)))
}
