// Package blueprint serializes a board to the blueprint JSON document and
// hydrates a store back from one. Saved coordinates are normalized by a fixed
// hydration scale; the conversion lives in exactly one function pair so it
// can never be applied twice in either direction.
package blueprint

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"lattice/internal/state"
)

// Version identifies the blueprint document format.
const Version = "1.0"

// hydrationScale converts between world-space (runtime) and normalized
// (save-time) coordinates.
const hydrationScale = 1.5

// normalize maps a world coordinate to its saved form. denormalize is the
// exact inverse. All coordinate conversion in this package goes through
// these two functions.
func normalize(v float64) float64   { return v / hydrationScale }
func denormalize(v float64) float64 { return v * hydrationScale }

// Dimensions is the persisted size of a node.
type Dimensions struct {
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	IsManual bool    `json:"isManual"`
}

// LayoutEntry is the persisted form of one node, keyed by node id in the
// layout map.
type LayoutEntry struct {
	X               float64    `json:"x"`
	Y               float64    `json:"y"`
	Label           string     `json:"label"`
	Message         string     `json:"message,omitempty"`
	ParentID        string     `json:"parentId,omitempty"`
	IsStickyNote    bool       `json:"isStickyNote,omitempty"`
	Text            string     `json:"text,omitempty"`
	IsRepoContainer bool       `json:"isRepoContainer,omitempty"`
	IsSatellite     bool       `json:"isSatellite,omitempty"`
	OrbitParent     string     `json:"orbitParent,omitempty"`
	Color           string     `json:"color"`
	Dimensions      Dimensions `json:"dimensions"`
}

type ConnectionEntry struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Blueprint is the persisted board document.
type Blueprint struct {
	Version     string                 `json:"version"`
	Timestamp   string                 `json:"timestamp"`
	Layout      map[string]LayoutEntry `json:"layout"`
	Connections []ConnectionEntry      `json:"connections"`
}

// Capture serializes a snapshot into a blueprint document.
func Capture(snap state.Snapshot, now time.Time) Blueprint {
	bp := Blueprint{
		Version:     Version,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Layout:      make(map[string]LayoutEntry, len(snap.Nodes)),
		Connections: make([]ConnectionEntry, 0, len(snap.Connections)),
	}
	for _, n := range snap.Nodes {
		bp.Layout[n.ID] = LayoutEntry{
			X:               normalize(n.X),
			Y:               normalize(n.Y),
			Label:           n.Label,
			Message:         n.Message,
			ParentID:        n.ParentID,
			IsStickyNote:    n.Kind == state.KindSticky,
			Text:            n.Text,
			IsRepoContainer: n.Kind == state.KindContainer,
			IsSatellite:     n.Kind == state.KindSatellite,
			OrbitParent:     n.OrbitParent,
			Color:           n.Color,
			Dimensions: Dimensions{
				W:        n.Dims.W,
				H:        n.Dims.H,
				IsManual: n.Dims.Manual,
			},
		}
	}
	for _, c := range snap.Connections {
		bp.Connections = append(bp.Connections, ConnectionEntry{From: c.From, To: c.To})
	}
	return bp
}

func entryKind(e LayoutEntry) state.Kind {
	switch {
	case e.IsRepoContainer:
		return state.KindContainer
	case e.IsStickyNote:
		return state.KindSticky
	case e.IsSatellite:
		return state.KindSatellite
	default:
		return state.KindNode
	}
}

// Apply hydrates the store from a blueprint, replacing its graph. Dangling
// parents and connection endpoints are healed by the store's cleanup pass.
// Hydrated dimensions arrive pre-settled so nothing animates on load.
func Apply(bp Blueprint, st *state.Store) {
	nodes := make(map[string]state.Node, len(bp.Layout))
	order := make([]string, 0, len(bp.Layout))
	for id := range bp.Layout {
		order = append(order, id)
	}
	// Containers first so hydrated children render (and hit-test) above
	// their parents; within a group the order is the stable id order.
	sort.Slice(order, func(i, j int) bool {
		ci := bp.Layout[order[i]].IsRepoContainer
		cj := bp.Layout[order[j]].IsRepoContainer
		if ci != cj {
			return ci
		}
		return order[i] < order[j]
	})

	for _, id := range order {
		e := bp.Layout[id]
		w, h := e.Dimensions.W, e.Dimensions.H
		if w <= 0 || h <= 0 {
			continue
		}
		nodes[id] = state.Node{
			ID:          id,
			Kind:        entryKind(e),
			X:           denormalize(e.X),
			Y:           denormalize(e.Y),
			Label:       e.Label,
			Message:     e.Message,
			Text:        e.Text,
			ParentID:    e.ParentID,
			OrbitParent: e.OrbitParent,
			Color:       e.Color,
			Dims: state.Dimensions{
				W: w, H: h,
				AnimW: w, AnimH: h,
				TargetW: w, TargetH: h,
				Manual: e.Dimensions.IsManual,
			},
		}
	}
	kept := order[:0]
	for _, id := range order {
		if _, ok := nodes[id]; ok {
			kept = append(kept, id)
		}
	}

	conns := make([]state.Connection, 0, len(bp.Connections))
	for _, c := range bp.Connections {
		conns = append(conns, state.Connection{From: c.From, To: c.To})
	}
	st.SetGraph(nodes, kept, conns)
}

// Save writes the snapshot as indented blueprint JSON at path.
func Save(path string, snap state.Snapshot, now time.Time) error {
	data, err := json.MarshalIndent(Capture(snap, now), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding blueprint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing blueprint: %w", err)
	}
	return nil
}

// Load reads and decodes a blueprint document from path.
func Load(path string) (Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Blueprint{}, fmt.Errorf("reading blueprint: %w", err)
	}
	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return Blueprint{}, fmt.Errorf("decoding blueprint: %w", err)
	}
	return bp, nil
}
