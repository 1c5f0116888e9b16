package hittest

import (
	"testing"

	"lattice/internal/geom"
	"lattice/internal/scale"
	"lattice/internal/state"
)

func newTester() *Tester {
	return New(scale.NewCalculator(scale.RuneMeasurer{}))
}

func TestChildWinsOverContainer(t *testing.T) {
	st := state.NewStore(nil)
	ht := newTester()

	// Child created before the container: creation order must not decide.
	x := st.AddNode(state.KindNode, 0, 0, "X")
	c := st.AddNode(state.KindContainer, 0, 0, "C")
	st.UpdateNode(c.ID, func(n *state.Node) {
		n.Dims.W, n.Dims.H = 200, 150
		n.Dims.AnimW, n.Dims.AnimH = 200, 150
	})
	st.Reparent(x.ID, c.ID)

	got := ht.NodeAt(st, geom.Point{X: 0, Y: 0}, 1.0, "")
	if got != x.ID {
		t.Errorf("NodeAt(0,0) = %q, want child %q", got, x.ID)
	}
}

func TestNodeAtUsesRenderedBounds(t *testing.T) {
	st := state.NewStore(nil)
	ht := newTester()
	n := st.AddNode(state.KindNode, 0, 0, "n") // logical diameter 60

	zoom := 0.25
	r := n.Dims.W / 2 * scale.BodyScale(zoom)
	inside := geom.Point{X: r - 1, Y: 0}
	outside := geom.Point{X: r + 2, Y: 0}

	if r <= n.Dims.W/2 {
		t.Fatalf("expected inflated radius at zoom %v, got %v", zoom, r)
	}
	if got := ht.NodeAt(st, inside, zoom, ""); got != n.ID {
		t.Errorf("point inside inflated radius missed (r=%v)", r)
	}
	if got := ht.NodeAt(st, outside, zoom, ""); got != "" {
		t.Errorf("point outside inflated radius hit %q", got)
	}
	// At logical bounds the same point would be a miss at zoom 1.
	if got := ht.NodeAt(st, geom.Point{X: n.Dims.W/2 + 2, Y: 0}, 1.0, ""); got != "" {
		t.Errorf("point outside logical radius hit %q at zoom 1", got)
	}
}

func TestConnectionAt(t *testing.T) {
	st := state.NewStore(nil)
	ht := newTester()
	a := st.AddNode(state.KindNode, 0, 0, "a")
	b := st.AddNode(state.KindNode, 100, 0, "b")
	st.AddConnection(a.ID, b.ID)

	if got := ht.ConnectionAt(st, geom.Point{X: 50, Y: 3}, 6); got != 0 {
		t.Errorf("ConnectionAt near segment = %d, want 0", got)
	}
	if got := ht.ConnectionAt(st, geom.Point{X: 50, Y: 30}, 6); got != -1 {
		t.Errorf("ConnectionAt far from segment = %d, want -1", got)
	}
}

func TestDropTargetExcludesDraggedNode(t *testing.T) {
	st := state.NewStore(nil)
	ht := newTester()
	c := st.AddNode(state.KindContainer, 0, 0, "c")
	inner := st.AddNode(state.KindContainer, 0, 0, "inner")
	st.UpdateNode(inner.ID, func(n *state.Node) {
		n.Dims.AnimW, n.Dims.AnimH = 300, 200
	})

	// The dragged container must not be offered itself as a target.
	got := ht.DropTargetAt(st, geom.Point{X: 0, Y: 0}, 1.0, inner.ID)
	if got != c.ID {
		t.Errorf("DropTargetAt = %q, want %q", got, c.ID)
	}

	// Non-containers are never drop targets.
	st.DeleteNode(c.ID)
	st.DeleteNode(inner.ID)
	st.AddNode(state.KindSticky, 0, 0, "s")
	if got := ht.DropTargetAt(st, geom.Point{X: 0, Y: 0}, 1.0, ""); got != "" {
		t.Errorf("sticky offered as drop target: %q", got)
	}
}

func TestHandleAt(t *testing.T) {
	st := state.NewStore(nil)
	ht := newTester()
	c := st.AddNode(state.KindContainer, 0, 0, "c")
	st.UpdateNode(c.ID, func(n *state.Node) {
		n.Dims.AnimW, n.Dims.AnimH = 200, 100
	})
	n, _ := st.Node(c.ID)

	if got := ht.HandleAt(n, geom.Point{X: 100, Y: 50}, 1.0); got != CornerSE {
		t.Errorf("HandleAt(SE corner) = %v", got)
	}
	if got := ht.HandleAt(n, geom.Point{X: -100, Y: -50}, 1.0); got != CornerNW {
		t.Errorf("HandleAt(NW corner) = %v", got)
	}
	if got := ht.HandleAt(n, geom.Point{X: 0, Y: 0}, 1.0); got != CornerNone {
		t.Errorf("HandleAt(center) = %v, want none", got)
	}
}

func TestNodesInRegion(t *testing.T) {
	st := state.NewStore(nil)
	ht := newTester()
	a := st.AddNode(state.KindNode, 0, 0, "a")
	st.AddNode(state.KindNode, 500, 500, "b")

	got := ht.NodesInRegion(st, geom.Rect{CX: 0, CY: 0, W: 200, H: 200}, 1.0)
	if len(got) != 1 || got[0] != a.ID {
		t.Errorf("NodesInRegion = %v, want [%s]", got, a.ID)
	}
}
