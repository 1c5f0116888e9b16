package state

// ActionType tags a savepoint with the operation that follows it.
type ActionType int

const (
	ActionAddNode ActionType = iota
	ActionDeleteNode
	ActionMoveNode
	ActionResizeNode
	ActionEditNode
	ActionReparentNode
	ActionAddConnection
	ActionDeleteConnection
	ActionBulk
)

func (a ActionType) String() string {
	switch a {
	case ActionAddNode:
		return "add-node"
	case ActionDeleteNode:
		return "delete-node"
	case ActionMoveNode:
		return "move-node"
	case ActionResizeNode:
		return "resize-node"
	case ActionEditNode:
		return "edit-node"
	case ActionReparentNode:
		return "reparent-node"
	case ActionAddConnection:
		return "add-connection"
	case ActionDeleteConnection:
		return "delete-connection"
	default:
		return "bulk"
	}
}

// maxHistory bounds the undo stack; the oldest savepoints are evicted.
const maxHistory = 100

// savepoint is a deep snapshot of the graph taken immediately before a
// mutating operation.
type savepoint struct {
	action ActionType
	nodeID string
	nodes  map[string]Node
	order  []string
	conns  []Connection
}

type history struct {
	limit int
	undo  []savepoint
	redo  []savepoint
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

func (s *Store) snapshotGraph(action ActionType, nodeID string) savepoint {
	nodes := make(map[string]Node, len(s.nodes))
	for id, n := range s.nodes {
		nodes[id] = n
	}
	return savepoint{
		action: action,
		nodeID: nodeID,
		nodes:  nodes,
		order:  append([]string(nil), s.order...),
		conns:  append([]Connection(nil), s.conns...),
	}
}

// Savepoint records the current graph before a mutation tagged with action.
// Starting a new mutating action clears the redo stack.
func (s *Store) Savepoint(action ActionType, nodeID string) {
	h := s.history
	h.undo = append(h.undo, s.snapshotGraph(action, nodeID))
	if len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = h.redo[:0]
}

// Undo restores the most recent savepoint, pushing the current graph onto
// the redo stack.
func (s *Store) Undo() bool {
	h := s.history
	if len(h.undo) == 0 {
		return false
	}
	sp := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, s.snapshotGraph(sp.action, sp.nodeID))
	s.restore(sp)
	return true
}

// Redo is symmetric to Undo.
func (s *Store) Redo() bool {
	h := s.history
	if len(h.redo) == 0 {
		return false
	}
	sp := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, s.snapshotGraph(sp.action, sp.nodeID))
	s.restore(sp)
	return true
}

func (s *Store) restore(sp savepoint) {
	s.nodes = make(map[string]Node, len(sp.nodes))
	for id, n := range sp.nodes {
		s.nodes[id] = n
	}
	s.order = append([]string(nil), sp.order...)
	s.conns = append([]Connection(nil), sp.conns...)
	s.Batch(func() {
		s.ValidateAndCleanup()
		s.notify()
	})
}

// DropLastSavepoint discards the newest savepoint without restoring it,
// used when a gesture is cancelled before it commits anything.
func (s *Store) DropLastSavepoint() {
	h := s.history
	if len(h.undo) > 0 {
		h.undo = h.undo[:len(h.undo)-1]
	}
}

func (s *Store) CanUndo() bool { return len(s.history.undo) > 0 }
func (s *Store) CanRedo() bool { return len(s.history.redo) > 0 }
