// Package scale computes visual (zoom-compensated) dimensions for every node
// type and owns the elastic container size animation. Fixed-size nodes become
// illegible at low zoom, so rendered bounds are inflated relative to logical
// dimensions; body and text inflate on separate tracks because shape and
// glyph legibility degrade at different rates.
package scale

import (
	"math"

	"lattice/internal/geom"
	"lattice/internal/state"
)

const (
	// Body inflation: bodyScale = min(MaxBodyInflation, (1/zoom)^bodyExponent).
	MaxBodyInflation = 2.5
	bodyExponent     = 0.6

	// Font inflation has its own exponent plus a legibility floor that keeps
	// on-screen glyphs at or above minFontPixels.
	MaxFontInflation = 3.2
	fontExponent     = 0.85
	minFontPixels    = 9.0
	BaseFontSize     = 13.0
	lineSpacing      = 1.35

	// Container padding grows with child count with diminishing returns.
	containerBasePad     = 36.0
	containerPadPerChild = 8.0
	containerPadCap      = 32.0

	// Transient overshoot padding injected when a child is inserted.
	popPadding = 26.0
	popDecay   = 0.82

	// Exponential damping toward the target size, per 60Hz frame.
	damping       = 0.18
	settleEpsilon = 0.5

	stickyPadX = 10.0
	stickyPadY = 8.0
)

// BodyScale returns the shape inflation factor for a zoom level.
func BodyScale(zoom float64) float64 {
	return math.Min(MaxBodyInflation, math.Pow(1/zoom, bodyExponent))
}

// FontScale returns the text inflation factor: the larger of the derived
// scale and the legibility floor, clamped to the maximum inflation.
func FontScale(zoom float64) float64 {
	derived := math.Pow(1/zoom, fontExponent)
	floor := minFontPixels / (BaseFontSize * zoom)
	s := math.Max(derived, floor)
	return math.Min(MaxFontInflation, s)
}

// LineHeight is the font-scaled line height in world units at a zoom level.
func LineHeight(zoom float64) float64 {
	return BaseFontSize * FontScale(zoom) * lineSpacing
}

// Calculator derives rendered bounds and animates container dimensions. It
// keeps per-container transient state (pop padding, last child count) keyed
// by node id; entries for deleted nodes are dropped on the next step.
type Calculator struct {
	measurer  Measurer
	pop       map[string]float64
	lastCount map[string]int
}

func NewCalculator(m Measurer) *Calculator {
	if m == nil {
		m = RuneMeasurer{}
	}
	return &Calculator{
		measurer:  m,
		pop:       make(map[string]float64),
		lastCount: make(map[string]int),
	}
}

// Radius returns the zoom-compensated hit radius for circular node kinds.
func (c *Calculator) Radius(n state.Node, zoom float64) float64 {
	return n.Dims.W / 2 * BodyScale(zoom)
}

// RenderBounds returns the visually inflated rect for a node at a zoom
// level, in world units. Hit-testing uses these bounds so the user can
// click what they see.
func (c *Calculator) RenderBounds(n state.Node, zoom float64) geom.Rect {
	switch n.Kind {
	case state.KindContainer:
		return geom.Rect{CX: n.X, CY: n.Y, W: n.Dims.AnimW, H: n.Dims.AnimH}
	case state.KindSticky:
		return c.StickyBounds(n, zoom)
	default:
		d := n.Dims.W * BodyScale(zoom)
		return geom.Rect{CX: n.X, CY: n.Y, W: d, H: d}
	}
}

// StickyBounds inflates a sticky note's logical size by the body scale, then
// grows it further if the word-wrapped text would overflow: renderW/H is the
// max of the inflated size and the measured content size.
func (c *Calculator) StickyBounds(n state.Node, zoom float64) geom.Rect {
	body := BodyScale(zoom)
	w := n.Dims.W * body
	h := n.Dims.H * body

	if n.Text != "" {
		fontSize := BaseFontSize * FontScale(zoom)
		lineH := LineHeight(zoom)
		lines, widest := wrapText(c.measurer, n.Text, fontSize, w-2*stickyPadX)
		contentW := widest + 2*stickyPadX
		contentH := float64(len(lines))*lineH + 2*stickyPadY
		if contentW > w {
			w = contentW
		}
		if contentH > h {
			h = contentH
		}
	}
	return geom.Rect{CX: n.X, CY: n.Y, W: w, H: h}
}

// WrapSticky exposes the wrapped lines for renderers.
func (c *Calculator) WrapSticky(n state.Node, zoom float64) []string {
	body := BodyScale(zoom)
	fontSize := BaseFontSize * FontScale(zoom)
	lines, _ := wrapText(c.measurer, n.Text, fontSize, n.Dims.W*body-2*stickyPadX)
	return lines
}

// childPadding is the container padding for a given child count: a base term
// plus a capped square-root growth.
func childPadding(count int) float64 {
	extra := containerPadPerChild * math.Sqrt(float64(count))
	if extra > containerPadCap {
		extra = containerPadCap
	}
	return containerBasePad + extra
}

// ContainerTarget computes a container's content-driven center and size: the
// bounding box of its children (each inflated for the current zoom) plus
// padding. ok is false for an empty container.
func (c *Calculator) ContainerTarget(st *state.Store, id string, zoom float64) (center geom.Point, w, h float64, ok bool) {
	children := st.Children(id)
	if len(children) == 0 {
		return geom.Point{}, 0, 0, false
	}
	first := c.RenderBounds(children[0], zoom)
	minX, minY := first.MinX(), first.MinY()
	maxX, maxY := first.MaxX(), first.MaxY()
	for _, ch := range children[1:] {
		b := c.RenderBounds(ch, zoom)
		minX = math.Min(minX, b.MinX())
		minY = math.Min(minY, b.MinY())
		maxX = math.Max(maxX, b.MaxX())
		maxY = math.Max(maxY, b.MaxY())
	}
	pad := childPadding(len(children))
	center = geom.Point{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}
	return center, maxX - minX + 2*pad, maxY - minY + 2*pad, true
}

// Step advances every container's elastic animation by dt seconds and
// returns true when all containers have settled. Auto containers retarget
// from their children every step; manual containers ease toward the user
// size clamped up to the content minimum. A child-count increase injects a
// geometrically decaying pop so insertion overshoots briefly.
func (c *Calculator) Step(st *state.Store, zoom float64, dt float64) bool {
	f := damping * dt * 60
	if f > 1 {
		f = 1
	}

	settled := true
	live := make(map[string]bool)
	st.Batch(func() {
		for _, n := range st.Nodes() {
			if n.Kind != state.KindContainer {
				continue
			}
			live[n.ID] = true

			count := len(st.Children(n.ID))
			if count > c.lastCount[n.ID] {
				c.pop[n.ID] = popPadding
			}
			c.lastCount[n.ID] = count
			pop := c.pop[n.ID]
			if pop > settleEpsilon/4 {
				c.pop[n.ID] = pop * popDecay
			} else {
				delete(c.pop, n.ID)
				pop = 0
			}

			center, cw, ch, hasChildren := c.ContainerTarget(st, n.ID, zoom)
			targetW, targetH := n.Dims.W, n.Dims.H
			targetX, targetY := n.X, n.Y
			var contentMinW, contentMinH float64
			if hasChildren {
				contentMinW, contentMinH = cw, ch
			}

			if n.Dims.Manual {
				targetW = math.Max(n.Dims.W, contentMinW)
				targetH = math.Max(n.Dims.H, contentMinH)
			} else if hasChildren {
				targetW = math.Max(cw+2*pop, state.MinContainerW)
				targetH = math.Max(ch+2*pop, state.MinContainerH)
				targetX, targetY = center.X, center.Y
			}

			nodeSettled := math.Abs(targetW-n.Dims.AnimW) < settleEpsilon &&
				math.Abs(targetH-n.Dims.AnimH) < settleEpsilon &&
				math.Abs(targetX-n.X) < settleEpsilon &&
				math.Abs(targetY-n.Y) < settleEpsilon &&
				pop == 0

			st.UpdateNode(n.ID, func(u *state.Node) {
				u.Dims.ContentMinW = contentMinW
				u.Dims.ContentMinH = contentMinH
				u.Dims.TargetW = targetW
				u.Dims.TargetH = targetH
				if nodeSettled {
					u.Dims.AnimW = targetW
					u.Dims.AnimH = targetH
					u.X, u.Y = targetX, targetY
				} else {
					u.Dims.AnimW += (targetW - u.Dims.AnimW) * f
					u.Dims.AnimH += (targetH - u.Dims.AnimH) * f
					u.X += (targetX - u.X) * f
					u.Y += (targetY - u.Y) * f
				}
			})
			if !nodeSettled {
				settled = false
			}
		}
	})

	for id := range c.lastCount {
		if !live[id] {
			delete(c.lastCount, id)
			delete(c.pop, id)
		}
	}
	return settled
}
