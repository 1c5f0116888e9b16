package scale

import (
	"math"
	"testing"

	"lattice/internal/state"
)

func TestBodyScaleClamped(t *testing.T) {
	if got := BodyScale(1.0); math.Abs(got-1) > 1e-9 {
		t.Errorf("BodyScale(1) = %v, want 1", got)
	}
	// Extreme zoom-out hits the inflation cap.
	if got := BodyScale(0.01); got != MaxBodyInflation {
		t.Errorf("BodyScale(0.01) = %v, want %v", got, MaxBodyInflation)
	}
	// Inflation grows monotonically as zoom shrinks.
	if BodyScale(0.5) <= BodyScale(0.9) {
		t.Error("body scale not monotonic under zoom-out")
	}
}

func TestFontScaleLegibilityFloor(t *testing.T) {
	for _, zoom := range []float64{0.1, 0.25, 0.5, 1.0} {
		s := FontScale(zoom)
		onScreen := BaseFontSize * s * zoom
		if s < MaxFontInflation-1e-9 && onScreen < minFontPixels-1e-6 {
			t.Errorf("zoom %v: on-screen glyph size %v below floor %v", zoom, onScreen, minFontPixels)
		}
		if s > MaxFontInflation {
			t.Errorf("zoom %v: font scale %v above cap", zoom, s)
		}
	}
}

func TestStickyLongTextGrows(t *testing.T) {
	c := NewCalculator(RuneMeasurer{})

	short := state.Node{Kind: state.KindSticky, Text: "hi",
		Dims: state.Dimensions{W: 180, H: 100}}
	long := short
	long.Text = "this sticky note carries a considerably longer body of text " +
		"that must word-wrap across many lines and push the rendered bounds " +
		"well past the logical dimensions of the note"

	for _, zoom := range []float64{0.25, 1.0, 2.0} {
		bs := c.StickyBounds(short, zoom)
		bl := c.StickyBounds(long, zoom)
		if bl.W < bs.W || bl.H <= bs.H {
			t.Errorf("zoom %v: long text bounds %vx%v not larger than short %vx%v",
				zoom, bl.W, bl.H, bs.W, bs.H)
		}
	}
}

func TestStickyAtLeastInflatedLogicalSize(t *testing.T) {
	c := NewCalculator(RuneMeasurer{})
	n := state.Node{Kind: state.KindSticky, Text: "x",
		Dims: state.Dimensions{W: 180, H: 100}}
	zoom := 0.5
	b := c.StickyBounds(n, zoom)
	body := BodyScale(zoom)
	if b.W < 180*body-1e-9 || b.H < 100*body-1e-9 {
		t.Errorf("bounds %vx%v below inflated logical size", b.W, b.H)
	}
}

func settle(c *Calculator, st *state.Store, zoom float64) {
	for i := 0; i < 600; i++ {
		if c.Step(st, zoom, 1.0/60) {
			return
		}
	}
}

func TestContainerCoversChildrenPlusPadding(t *testing.T) {
	st := state.NewStore(nil)
	c := NewCalculator(RuneMeasurer{})

	cont := st.AddNode(state.KindContainer, 0, 0, "c")
	a := st.AddNode(state.KindNode, -80, -40, "a")
	b := st.AddNode(state.KindNode, 120, 90, "b")
	st.Reparent(a.ID, cont.ID)
	st.Reparent(b.ID, cont.ID)

	settle(c, st, 1.0)

	got, _ := st.Node(cont.ID)
	center, w, h, ok := c.ContainerTarget(st, cont.ID, 1.0)
	if !ok {
		t.Fatal("container reported empty")
	}
	if got.Dims.AnimW < w-1 || got.Dims.AnimH < h-1 {
		t.Errorf("settled size %vx%v below content size %vx%v",
			got.Dims.AnimW, got.Dims.AnimH, w, h)
	}
	// Auto mode centers on the children's bounding box centroid.
	if math.Abs(got.X-center.X) > 1 || math.Abs(got.Y-center.Y) > 1 {
		t.Errorf("center (%v,%v), want centroid (%v,%v)", got.X, got.Y, center.X, center.Y)
	}
}

func TestManualContainerIsFloorNotAbsolute(t *testing.T) {
	st := state.NewStore(nil)
	c := NewCalculator(RuneMeasurer{})

	cont := st.AddNode(state.KindContainer, 0, 0, "c")
	a := st.AddNode(state.KindNode, -200, -150, "a")
	b := st.AddNode(state.KindNode, 200, 150, "b")
	st.Reparent(a.ID, cont.ID)
	st.Reparent(b.ID, cont.ID)
	st.UpdateNode(cont.ID, func(n *state.Node) {
		n.Dims.Manual = true
		n.Dims.W = state.MinContainerW
		n.Dims.H = state.MinContainerH
	})

	settle(c, st, 1.0)

	got, _ := st.Node(cont.ID)
	_, w, h, _ := c.ContainerTarget(st, cont.ID, 1.0)
	if got.Dims.TargetW < w || got.Dims.TargetH < h {
		t.Errorf("manual target %vx%v shrank below children box %vx%v",
			got.Dims.TargetW, got.Dims.TargetH, w, h)
	}
	if got.Dims.ContentMinW != w || got.Dims.ContentMinH != h {
		t.Errorf("content minimum %vx%v not cached, want %vx%v",
			got.Dims.ContentMinW, got.Dims.ContentMinH, w, h)
	}
}

func TestInsertionPopOvershoots(t *testing.T) {
	st := state.NewStore(nil)
	c := NewCalculator(RuneMeasurer{})

	cont := st.AddNode(state.KindContainer, 0, 0, "c")
	a := st.AddNode(state.KindNode, 0, 0, "a")
	st.Reparent(a.ID, cont.ID)
	settle(c, st, 1.0)
	before, _ := st.Node(cont.ID)

	// Insert a second child on top of the first: the bounding box barely
	// changes, but the pop must briefly push the target out.
	b := st.AddNode(state.KindNode, 4, 0, "b")
	st.Reparent(b.ID, cont.ID)
	c.Step(st, 1.0, 1.0/60)
	after, _ := st.Node(cont.ID)

	if after.Dims.TargetW <= before.Dims.TargetW {
		t.Errorf("no insertion overshoot: target %v -> %v",
			before.Dims.TargetW, after.Dims.TargetW)
	}

	// The pop decays back out.
	settle(c, st, 1.0)
	_, w, _, _ := c.ContainerTarget(st, cont.ID, 1.0)
	final, _ := st.Node(cont.ID)
	if math.Abs(final.Dims.AnimW-math.Max(w, state.MinContainerW)) > 1 {
		t.Errorf("pop did not decay: settled %v, content %v", final.Dims.AnimW, w)
	}
}

func TestStepSettles(t *testing.T) {
	st := state.NewStore(nil)
	c := NewCalculator(RuneMeasurer{})
	cont := st.AddNode(state.KindContainer, 0, 0, "c")
	a := st.AddNode(state.KindNode, 30, 30, "a")
	st.Reparent(a.ID, cont.ID)

	done := false
	for i := 0; i < 600; i++ {
		if c.Step(st, 1.0, 1.0/60) {
			done = true
			break
		}
	}
	if !done {
		t.Fatal("elastic animation never settled")
	}
}

func TestWrapText(t *testing.T) {
	m := RuneMeasurer{}
	lines, widest := wrapText(m, "alpha beta gamma delta", 10, 60)
	if len(lines) < 2 {
		t.Errorf("expected wrapping, got %v", lines)
	}
	if widest <= 0 {
		t.Error("widest line width not measured")
	}
	lines, _ = wrapText(m, "one\n\ntwo", 10, 200)
	if len(lines) != 3 || lines[1] != "" {
		t.Errorf("explicit newlines not preserved: %v", lines)
	}
}

func TestDefaultMeasurerUsesEmbeddedFont(t *testing.T) {
	m := DefaultMeasurer(nil)
	if _, ok := m.(*FontMeasurer); !ok {
		t.Fatalf("DefaultMeasurer = %T, want *FontMeasurer", m)
	}
	if w := m.LineWidth("measure me", 14); w <= 0 {
		t.Errorf("LineWidth = %v", w)
	}
}
