// Package hittest answers pure point queries against the board: which node,
// connection, drop target or resize handle sits under a world-space point.
// Nothing here mutates state.
package hittest

import (
	"lattice/internal/geom"
	"lattice/internal/scale"
	"lattice/internal/state"
)

// HandleSize is the edge length of a resize-handle hit box in screen pixels.
const HandleSize = 10.0

// Corner identifies a resize handle on a rectangular node.
type Corner int

const (
	CornerNone Corner = iota
	CornerNW
	CornerNE
	CornerSW
	CornerSE
)

// Tester runs hit queries using the same rendered bounds the user sees.
type Tester struct {
	scale *scale.Calculator
}

func New(c *scale.Calculator) *Tester {
	return &Tester{scale: c}
}

// NodeAt returns the topmost node containing the world point p, or "".
// Iteration is reverse render order, not creation order: a node inserted
// before its container still wins if it renders above it. Rectangular kinds
// test against rendered bounds, circular kinds against the inflated radius.
func (t *Tester) NodeAt(st *state.Store, p geom.Point, zoom float64, exclude string) string {
	nodes := st.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.ID == exclude {
			continue
		}
		if t.hits(n, p, zoom) {
			return n.ID
		}
	}
	return ""
}

func (t *Tester) hits(n state.Node, p geom.Point, zoom float64) bool {
	switch n.Kind {
	case state.KindContainer, state.KindSticky:
		return t.scale.RenderBounds(n, zoom).Contains(p)
	default:
		r := t.scale.Radius(n, zoom)
		return p.Dist(geom.Point{X: n.X, Y: n.Y}) <= r
	}
}

// ConnectionAt returns the index of the first connection whose segment
// (between endpoint node centers) passes within threshold world units of p,
// or -1.
func (t *Tester) ConnectionAt(st *state.Store, p geom.Point, threshold float64) int {
	conns := st.Connections()
	for i, c := range conns {
		from, okF := st.Node(c.From)
		to, okT := st.Node(c.To)
		if !okF || !okT {
			continue
		}
		a := geom.Point{X: from.X, Y: from.Y}
		b := geom.Point{X: to.X, Y: to.Y}
		if geom.DistToSegment(p, a, b) <= threshold {
			return i
		}
	}
	return -1
}

// DropTargetAt returns the topmost container under p, excluding the node
// being dragged so it can never adopt itself.
func (t *Tester) DropTargetAt(st *state.Store, p geom.Point, zoom float64, exclude string) string {
	nodes := st.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.Kind != state.KindContainer || n.ID == exclude {
			continue
		}
		if t.scale.RenderBounds(n, zoom).Contains(p) {
			return n.ID
		}
	}
	return ""
}

// HandleAt reports which resize handle of the node contains the world point
// p. Handles sit on the corners of the visual bounds; callers restrict this
// to the selected node so background nodes never expose handles.
func (t *Tester) HandleAt(n state.Node, p geom.Point, zoom float64) Corner {
	b := t.scale.RenderBounds(n, zoom)
	half := HandleSize / zoom / 2
	corners := []struct {
		c    Corner
		x, y float64
	}{
		{CornerNW, b.MinX(), b.MinY()},
		{CornerNE, b.MaxX(), b.MinY()},
		{CornerSW, b.MinX(), b.MaxY()},
		{CornerSE, b.MaxX(), b.MaxY()},
	}
	for _, h := range corners {
		if p.X >= h.x-half && p.X <= h.x+half && p.Y >= h.y-half && p.Y <= h.y+half {
			return h.c
		}
	}
	return CornerNone
}

// NodesInRegion returns the ids of all nodes whose rendered bounds overlap
// the world-space rect, in render order.
func (t *Tester) NodesInRegion(st *state.Store, r geom.Rect, zoom float64) []string {
	var out []string
	for _, n := range st.Nodes() {
		if t.scale.RenderBounds(n, zoom).Overlaps(r) {
			out = append(out, n.ID)
		}
	}
	return out
}
