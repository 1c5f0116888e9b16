package blueprint

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"
	"time"

	"lattice/internal/state"
)

func buildBoard(t *testing.T) *state.Store {
	t.Helper()
	st := state.NewStore(nil)
	box := st.AddNode(state.KindContainer, 300, 150, "services")
	n := st.AddNode(state.KindNode, 330, 165, "api")
	st.UpdateNode(n.ID, func(u *state.Node) {
		u.Message = "gateway"
		u.Color = "#ff8800"
	})
	st.Reparent(n.ID, box.ID)
	sticky := st.AddNode(state.KindSticky, -120, 60, "note")
	st.UpdateNode(sticky.ID, func(u *state.Node) {
		u.Text = "remember to shard"
	})
	sat := st.AddNode(state.KindSatellite, 360, 150, "")
	st.UpdateNode(sat.ID, func(u *state.Node) {
		u.OrbitParent = n.ID
	})
	st.UpdateNode(box.ID, func(u *state.Node) {
		u.Dims.W, u.Dims.H = 400, 300
		u.Dims.Manual = true
	})
	st.AddConnection(n.ID, sticky.ID)
	return st
}

func TestRoundTrip(t *testing.T) {
	src := buildBoard(t)
	bp := Capture(src.Snapshot(), time.Now())

	dst := state.NewStore(nil)
	Apply(bp, dst)

	if dst.Len() != src.Len() {
		t.Fatalf("hydrated %d nodes, want %d", dst.Len(), src.Len())
	}
	for _, want := range src.Nodes() {
		got, ok := dst.Node(want.ID)
		if !ok {
			t.Fatalf("node %s missing after round trip", want.ID)
		}
		if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
			t.Errorf("%s at (%v,%v), want (%v,%v)", want.ID, got.X, got.Y, want.X, want.Y)
		}
		if got.Kind != want.Kind {
			t.Errorf("%s kind = %v, want %v", want.ID, got.Kind, want.Kind)
		}
		if got.Label != want.Label || got.Message != want.Message || got.Text != want.Text {
			t.Errorf("%s payload changed: %+v", want.ID, got)
		}
		if got.ParentID != want.ParentID || got.OrbitParent != want.OrbitParent {
			t.Errorf("%s references changed: parent %q orbit %q", want.ID, got.ParentID, got.OrbitParent)
		}
		if got.Dims.W != want.Dims.W || got.Dims.H != want.Dims.H || got.Dims.Manual != want.Dims.Manual {
			t.Errorf("%s dims = %+v, want %+v", want.ID, got.Dims, want.Dims)
		}
		// Hydrated sizes arrive settled.
		if got.Dims.AnimW != got.Dims.W || got.Dims.TargetW != got.Dims.W {
			t.Errorf("%s hydrated unsettled: %+v", want.ID, got.Dims)
		}
	}
	if len(dst.Connections()) != 1 {
		t.Errorf("connections = %v, want 1", dst.Connections())
	}
}

// Saved coordinates must be world/hydrationScale on disk and world again
// after hydration: exactly one conversion in each direction.
func TestNoDoubleScaling(t *testing.T) {
	st := state.NewStore(nil)
	n := st.AddNode(state.KindNode, 300, -90, "n")

	data, err := json.Marshal(Capture(st.Snapshot(), time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	var raw struct {
		Layout map[string]struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"layout"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	saved := raw.Layout[n.ID]
	if saved.X != 200 || saved.Y != -60 {
		t.Fatalf("saved coords = (%v,%v), want (200,-60)", saved.X, saved.Y)
	}

	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		t.Fatal(err)
	}
	dst := state.NewStore(nil)
	Apply(bp, dst)
	got, _ := dst.Node(n.ID)
	if got.X != 300 || got.Y != -90 {
		t.Errorf("hydrated coords = (%v,%v), want world (300,-90)", got.X, got.Y)
	}
}

func TestApplyHealsDanglingReferences(t *testing.T) {
	bp := Blueprint{
		Version: Version,
		Layout: map[string]LayoutEntry{
			"node-1": {X: 0, Y: 0, Label: "a", Color: "#fff",
				ParentID:   "gone",
				Dimensions: Dimensions{W: 60, H: 60}},
			"node-2": {X: 10, Y: 10, Label: "b", Color: "#fff",
				Dimensions: Dimensions{W: 60, H: 60}},
			"broken": {X: 0, Y: 0, Label: "c", Color: "#fff"}, // zero size
		},
		Connections: []ConnectionEntry{
			{From: "node-1", To: "node-2"},
			{From: "node-1", To: "missing"},
		},
	}
	st := state.NewStore(nil)
	Apply(bp, st)

	if st.Len() != 2 {
		t.Fatalf("hydrated %d nodes, want 2", st.Len())
	}
	n, _ := st.Node("node-1")
	if n.ParentID != "" {
		t.Errorf("dangling parent kept: %q", n.ParentID)
	}
	if got := st.Connections(); len(got) != 1 {
		t.Errorf("connections = %v, want only the valid one", got)
	}
}

func TestContainersHydrateBelowChildren(t *testing.T) {
	bp := Blueprint{
		Version: Version,
		Layout: map[string]LayoutEntry{
			// The child sorts before the container by id; order must not
			// depend on that.
			"a-child": {X: 0, Y: 0, Label: "child", Color: "#fff",
				ParentID:   "z-box",
				Dimensions: Dimensions{W: 60, H: 60}},
			"z-box": {X: 0, Y: 0, Label: "box", Color: "#fff",
				IsRepoContainer: true,
				Dimensions:      Dimensions{W: 220, H: 160}},
		},
	}
	st := state.NewStore(nil)
	Apply(bp, st)

	nodes := st.Nodes()
	if len(nodes) != 2 || nodes[0].ID != "z-box" || nodes[1].ID != "a-child" {
		t.Errorf("render order = %v, want container below child", nodes)
	}
}

func TestSaveLoadFile(t *testing.T) {
	src := buildBoard(t)
	path := filepath.Join(t.TempDir(), "board.json")

	if err := Save(path, src.Snapshot(), time.Now()); err != nil {
		t.Fatal(err)
	}
	bp, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if bp.Version != Version {
		t.Errorf("version = %q, want %q", bp.Version, Version)
	}
	dst := state.NewStore(nil)
	Apply(bp, dst)
	if dst.Len() != src.Len() {
		t.Errorf("hydrated %d nodes, want %d", dst.Len(), src.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("loading a missing file did not error")
	}
}
