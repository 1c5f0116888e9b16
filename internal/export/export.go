// Package export renders a board snapshot to a PNG image.
package export

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"lattice/internal/geom"
	"lattice/internal/scale"
	"lattice/internal/state"
)

// Options controls the rendered image.
type Options struct {
	Scale      float64 // pixels per world unit
	Background string  // hex color
}

func DefaultOptions() Options {
	return Options{Scale: 2.0, Background: "#1e1e2e"}
}

const (
	padding   = 40.0 // world units around the content bounds
	arrowSize = 7.0
	arrowFlat = 0.5 // radians
)

// ToPNG renders the snapshot at settled (zoom 1) bounds and writes it to
// path. The camera is ignored: the image is fit to the content.
func ToPNG(path string, snap state.Snapshot, calc *scale.Calculator, opts Options) error {
	if len(snap.Nodes) == 0 {
		return fmt.Errorf("nothing to export")
	}
	if opts.Scale <= 0 {
		opts.Scale = 2.0
	}

	// Content bounds across every node.
	first := calc.RenderBounds(snap.Nodes[0], 1.0)
	minX, minY := first.MinX(), first.MinY()
	maxX, maxY := first.MaxX(), first.MaxY()
	for _, n := range snap.Nodes[1:] {
		b := calc.RenderBounds(n, 1.0)
		minX = math.Min(minX, b.MinX())
		minY = math.Min(minY, b.MinY())
		maxX = math.Max(maxX, b.MaxX())
		maxY = math.Max(maxY, b.MaxY())
	}
	minX -= padding
	minY -= padding
	maxX += padding
	maxY += padding

	w := int((maxX - minX) * opts.Scale)
	h := int((maxY - minY) * opts.Scale)
	dc := gg.NewContext(w, h)
	dc.SetHexColor(opts.Background)
	dc.Clear()

	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("parsing font: %v", err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    scale.BaseFontSize * opts.Scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	dc.SetFontFace(face)

	px := func(p geom.Point) (float64, float64) {
		return (p.X - minX) * opts.Scale, (p.Y - minY) * opts.Scale
	}

	nodes := make(map[string]state.Node, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes[n.ID] = n
	}

	// Connections first so they sit behind nodes.
	for _, c := range snap.Connections {
		from, okF := nodes[c.From]
		to, okT := nodes[c.To]
		if !okF || !okT {
			continue
		}
		drawConnection(dc, calc, from, to, px, opts.Scale)
	}
	for _, n := range snap.Nodes {
		drawNode(dc, calc, n, px, opts.Scale)
	}

	return dc.SavePNG(path)
}

func drawNode(dc *gg.Context, calc *scale.Calculator, n state.Node, px func(geom.Point) (float64, float64), s float64) {
	b := calc.RenderBounds(n, 1.0)
	x, y := px(geom.Point{X: b.MinX(), Y: b.MinY()})
	cx, cy := px(geom.Point{X: n.X, Y: n.Y})

	switch n.Kind {
	case state.KindContainer:
		dc.SetHexColor(n.Color)
		dc.DrawRoundedRectangle(x, y, b.W*s, b.H*s, 8*s)
		dc.Fill()
		dc.SetHexColor("#8888aa")
		dc.DrawRoundedRectangle(x, y, b.W*s, b.H*s, 8*s)
		dc.Stroke()
		if n.Label != "" {
			dc.SetHexColor("#ccccdd")
			dc.DrawStringAnchored(n.Label, cx, y+scale.BaseFontSize*s, 0.5, 0.5)
		}
	case state.KindSticky:
		dc.SetHexColor(n.Color)
		dc.DrawRectangle(x, y, b.W*s, b.H*s)
		dc.Fill()
		dc.SetHexColor("#222222")
		lineH := scale.BaseFontSize * 1.35 * s
		for i, line := range calc.WrapSticky(n, 1.0) {
			dc.DrawString(line, x+10*s, y+lineH*(float64(i)+1))
		}
	default:
		r := calc.Radius(n, 1.0) * s
		dc.SetHexColor(n.Color)
		dc.DrawCircle(cx, cy, r)
		dc.Fill()
		if n.Label != "" {
			dc.SetHexColor("#eeeeee")
			dc.DrawStringAnchored(n.Label, cx, cy+r+scale.BaseFontSize*s, 0.5, 0.5)
		}
	}
}

func drawConnection(dc *gg.Context, calc *scale.Calculator, from, to state.Node, px func(geom.Point) (float64, float64), s float64) {
	x1, y1 := px(geom.Point{X: from.X, Y: from.Y})
	x2, y2 := px(geom.Point{X: to.X, Y: to.Y})

	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	// Trim the arrow end to the target's silhouette so the head isn't
	// buried under the node.
	trim := edgeOffset(calc, to) * s
	tx := x2 - dx*trim
	ty := y2 - dy*trim

	dc.SetHexColor("#777799")
	dc.SetLineWidth(1.5)
	dc.DrawLine(x1, y1, tx, ty)
	dc.Stroke()

	bx1 := tx - arrowSize*dx + arrowSize*dy*arrowFlat
	by1 := ty - arrowSize*dy - arrowSize*dx*arrowFlat
	bx2 := tx - arrowSize*dx - arrowSize*dy*arrowFlat
	by2 := ty - arrowSize*dy + arrowSize*dx*arrowFlat
	dc.MoveTo(tx, ty)
	dc.LineTo(bx1, by1)
	dc.LineTo(bx2, by2)
	dc.ClosePath()
	dc.Fill()
}

func edgeOffset(calc *scale.Calculator, n state.Node) float64 {
	b := calc.RenderBounds(n, 1.0)
	return math.Min(b.W, b.H) / 2
}
