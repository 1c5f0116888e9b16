// Package state owns the canonical board state: nodes, connections, camera
// and interaction substate. Every mutation funnels through the store, which
// replaces node records copy-on-write and notifies subscribers once per
// committed operation.
package state

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"lattice/internal/geom"
)

// Store is the single source of truth for a board. It is confined to one
// goroutine: all mutation happens synchronously inside input callbacks or
// the animation tick, so no locking is needed.
type Store struct {
	nodes  map[string]Node
	order  []string // render order, back of the slice is topmost
	conns  []Connection
	camera geom.Camera
	inter  Interaction

	nextID  int
	subs    []func()
	depth   int // notification batch depth
	pending bool

	history *history
	log     *slog.Logger
}

func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		nodes:   make(map[string]Node),
		camera:  geom.NewCamera(),
		inter:   newInteraction(),
		history: newHistory(maxHistory),
		log:     log,
	}
}

// Subscribe registers a callback invoked after every committed change.
func (s *Store) Subscribe(fn func()) {
	s.subs = append(s.subs, fn)
}

// Batch runs fn as one logical operation: subscribers are notified at most
// once no matter how many mutations fn performs.
func (s *Store) Batch(fn func()) {
	s.depth++
	fn()
	s.depth--
	if s.depth == 0 && s.pending {
		s.pending = false
		s.flush()
	}
}

func (s *Store) notify() {
	if s.depth > 0 {
		s.pending = true
		return
	}
	s.flush()
}

func (s *Store) flush() {
	for _, fn := range s.subs {
		fn()
	}
}

// Node returns the record for id, if it exists.
func (s *Store) Node(id string) (Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns all nodes in render order (bottom first).
func (s *Store) Nodes() []Node {
	out := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Children returns the nodes whose ParentID is id, in render order.
func (s *Store) Children(id string) []Node {
	var out []Node
	for _, oid := range s.order {
		if n, ok := s.nodes[oid]; ok && n.ParentID == id {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) Connections() []Connection {
	out := make([]Connection, len(s.conns))
	copy(out, s.conns)
	return out
}

func (s *Store) Len() int { return len(s.nodes) }

// AddNode creates a node of the given kind centered at x,y and returns it.
func (s *Store) AddNode(k Kind, x, y float64, label string) Node {
	s.nextID++
	id := fmt.Sprintf("%s-%d", k, s.nextID)
	n := newNode(id, k, x, y, label)
	s.nodes[id] = n
	s.order = append(s.order, id)
	s.notify()
	return n
}

// AddNodeRecord inserts a fully formed node, used by blueprint hydration and
// undo restore. Existing ids are replaced in place.
func (s *Store) AddNodeRecord(n Node) {
	if _, ok := s.nodes[n.ID]; !ok {
		s.order = append(s.order, n.ID)
	}
	s.nodes[n.ID] = n
	s.notify()
}

// UpdateNode applies fn to a copy of the node record and commits the copy.
// This is the only mutation path for node fields; stale references held by
// callers never leak back into the store.
func (s *Store) UpdateNode(id string, fn func(*Node)) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	fn(&n)
	n.ID = id // id is stable for the node's lifetime
	clampDims(&n)
	s.nodes[id] = n
	s.notify()
}

func clampDims(n *Node) {
	minW, minH := MinSize(n.Kind)
	if n.Dims.W < minW {
		n.Dims.W = minW
	}
	if n.Dims.H < minH {
		n.Dims.H = minH
	}
	// A manual container size is a floor override, not an absolute: it can
	// never undercut what the children need.
	if n.Kind == KindContainer && n.Dims.Manual {
		if n.Dims.W < n.Dims.ContentMinW {
			n.Dims.W = n.Dims.ContentMinW
		}
		if n.Dims.H < n.Dims.ContentMinH {
			n.Dims.H = n.Dims.ContentMinH
		}
	}
}

// DeleteNode removes a node, cascades its connections, unparents its
// children and clears any interaction references to it.
func (s *Store) DeleteNode(id string) {
	if _, ok := s.nodes[id]; !ok {
		return
	}
	s.Batch(func() {
		delete(s.nodes, id)
		for i := len(s.order) - 1; i >= 0; i-- {
			if s.order[i] == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
			}
		}
		for cid, n := range s.nodes {
			if n.ParentID == id {
				n.ParentID = ""
				s.nodes[cid] = n
			}
			if n.OrbitParent == id {
				n.OrbitParent = ""
				s.nodes[cid] = n
			}
		}
		s.ValidateAndCleanup()
		s.notify()
	})
}

// AddConnection appends the ordered pair from->to. It reports false when an
// endpoint is missing, the pair already exists, or from == to.
func (s *Store) AddConnection(from, to string) bool {
	if from == to {
		return false
	}
	if _, ok := s.nodes[from]; !ok {
		return false
	}
	if _, ok := s.nodes[to]; !ok {
		return false
	}
	for _, c := range s.conns {
		if c.From == from && c.To == to {
			return false
		}
	}
	s.conns = append(s.conns, Connection{From: from, To: to})
	s.notify()
	return true
}

func (s *Store) DeleteConnection(i int) {
	if i < 0 || i >= len(s.conns) {
		return
	}
	s.conns = append(s.conns[:i], s.conns[i+1:]...)
	if s.inter.SelectedConn == i {
		s.inter.SelectedConn = -1
	} else if s.inter.SelectedConn > i {
		s.inter.SelectedConn--
	}
	s.notify()
}

// SetGraph bulk-replaces nodes and connections, used by undo/redo and
// blueprint hydration.
func (s *Store) SetGraph(nodes map[string]Node, order []string, conns []Connection) {
	s.nodes = make(map[string]Node, len(nodes))
	for id, n := range nodes {
		s.nodes[id] = n
	}
	s.order = append([]string(nil), order...)
	s.conns = append([]Connection(nil), conns...)
	s.bumpNextID()
	s.Batch(func() {
		s.ValidateAndCleanup()
		s.notify()
	})
}

// bumpNextID keeps generated ids unique after hydrating externally created
// nodes.
func (s *Store) bumpNextID() {
	max := s.nextID
	for id := range s.nodes {
		if i := strings.LastIndexByte(id, '-'); i >= 0 {
			if n, err := strconv.Atoi(id[i+1:]); err == nil && n > max {
				max = n
			}
		}
	}
	s.nextID = max
}

// Reparent assigns a node to a container (or clears it with "") and moves
// the child above the container in render order so it keeps hit-test
// priority over its parent.
func (s *Store) Reparent(id, containerID string) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	if containerID != "" {
		c, ok := s.nodes[containerID]
		if !ok || c.Kind != KindContainer || containerID == id {
			return
		}
	}
	n.ParentID = containerID
	s.nodes[id] = n
	if containerID != "" {
		s.raiseAbove(id, containerID)
	}
	s.notify()
}

func (s *Store) raiseAbove(id, over string) {
	idPos, overPos := -1, -1
	for i, oid := range s.order {
		if oid == id {
			idPos = i
		}
		if oid == over {
			overPos = i
		}
	}
	if idPos < 0 || overPos < 0 || idPos > overPos {
		return
	}
	s.order = append(s.order[:idPos], s.order[idPos+1:]...)
	if overPos > idPos {
		overPos--
	}
	rest := append([]string{id}, s.order[overPos+1:]...)
	s.order = append(s.order[:overPos+1], rest...)
}

func (s *Store) Camera() geom.Camera { return s.camera }

func (s *Store) SetCamera(c geom.Camera) {
	c.Zoom = geom.ClampZoom(c.Zoom)
	s.camera = c
	s.notify()
}

func (s *Store) Interaction() Interaction { return s.inter }

func (s *Store) SelectNode(id string) {
	if id != "" {
		if _, ok := s.nodes[id]; !ok {
			return
		}
	}
	s.inter.SelectedID = id
	s.inter.SelectedConn = -1
	s.notify()
}

func (s *Store) SelectConnection(i int) {
	if i < -1 || i >= len(s.conns) {
		return
	}
	s.inter.SelectedConn = i
	s.inter.SelectedID = ""
	s.notify()
}

func (s *Store) ClearSelection() {
	s.inter.SelectedID = ""
	s.inter.SelectedConn = -1
	s.notify()
}

func (s *Store) SetHover(id string) {
	if s.inter.HoveredID == id {
		return
	}
	s.inter.HoveredID = id
	s.notify()
}

// SetDragging and SetResizing enforce the mutual-exclusion invariant: the
// drag and resize fields can never both be set.
func (s *Store) SetDragging(id string) {
	s.inter.DraggingID = id
	if id != "" {
		s.inter.ResizingID = ""
	}
	s.notify()
}

func (s *Store) SetResizing(id string) {
	s.inter.ResizingID = id
	if id != "" {
		s.inter.DraggingID = ""
	}
	s.notify()
}

func (s *Store) SetDropTarget(id string) {
	if s.inter.DropTargetID == id {
		return
	}
	s.inter.DropTargetID = id
	s.notify()
}

func (s *Store) SetConnectMode(on bool) {
	s.inter.ConnectMode = on
	if !on {
		s.inter.PendingFrom = ""
	}
	s.notify()
}

func (s *Store) SetPendingFrom(id string) {
	s.inter.PendingFrom = id
	s.notify()
}

// ValidateAndCleanup is the self-healing pass run after every interaction
// end: it drops connections with dead endpoints and clears interaction ids
// that reference deleted nodes. Structural violations are repaired silently,
// never raised.
func (s *Store) ValidateAndCleanup() {
	kept := s.conns[:0]
	for _, c := range s.conns {
		_, fromOK := s.nodes[c.From]
		_, toOK := s.nodes[c.To]
		if fromOK && toOK {
			kept = append(kept, c)
		} else {
			s.log.Debug("dropping dangling connection", "from", c.From, "to", c.To)
		}
	}
	if len(kept) != len(s.conns) {
		s.conns = kept
		s.inter.SelectedConn = -1
	}
	if s.inter.SelectedConn >= len(s.conns) {
		s.inter.SelectedConn = -1
	}
	clear := func(id *string) {
		if *id != "" {
			if _, ok := s.nodes[*id]; !ok {
				*id = ""
			}
		}
	}
	clear(&s.inter.HoveredID)
	clear(&s.inter.SelectedID)
	clear(&s.inter.DraggingID)
	clear(&s.inter.ResizingID)
	clear(&s.inter.DropTargetID)
	clear(&s.inter.PendingFrom)
	for id, n := range s.nodes {
		if n.ParentID != "" {
			p, ok := s.nodes[n.ParentID]
			if !ok || p.Kind != KindContainer {
				n.ParentID = ""
				s.nodes[id] = n
			}
		}
	}
}

// Snapshot is a read-only copy of the full board state handed to render
// collaborators.
type Snapshot struct {
	Nodes       []Node
	Connections []Connection
	Camera      geom.Camera
	Interaction Interaction
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Nodes:       s.Nodes(),
		Connections: s.Connections(),
		Camera:      s.camera,
		Interaction: s.inter,
	}
}
