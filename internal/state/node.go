package state

import "fmt"

// Kind discriminates the node types on the board.
type Kind int

const (
	KindNode Kind = iota
	KindContainer
	KindSticky
	KindSatellite
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindContainer:
		return "container"
	case KindSticky:
		return "sticky"
	case KindSatellite:
		return "satellite"
	default:
		return "unknown"
	}
}

// Dimensions carries a node's logical size, the animated size the renderer
// sees, the animation target, and the cached content-driven minimum that a
// manually sized container can never shrink below.
type Dimensions struct {
	W, H             float64
	AnimW, AnimH     float64
	TargetW, TargetH float64
	Manual           bool
	ContentMinW      float64
	ContentMinH      float64
}

// Node is a spatial entity on the board. X,Y is the world-space center.
// Nodes are value records: every mutation replaces the record in the store.
type Node struct {
	ID          string
	Kind        Kind
	X, Y        float64
	Label       string
	Message     string // secondary description payload
	Text        string // sticky note body
	ParentID    string // owning container id, "" when unparented
	OrbitParent string // satellite anchor node id
	OrbitAngle  float64
	Color       string
	Dims        Dimensions
}

func (n Node) Pos() (float64, float64) {
	return n.X, n.Y
}

// Default and minimum sizes per kind. Logical dimensions never drop below
// the minimum for the node's kind.
const (
	DefaultNodeSize      = 60.0
	DefaultContainerW    = 220.0
	DefaultContainerH    = 160.0
	DefaultStickyW       = 180.0
	DefaultStickyH       = 100.0
	DefaultSatelliteSize = 28.0

	MinNodeSize      = 40.0
	MinContainerW    = 160.0
	MinContainerH    = 120.0
	MinStickyW       = 120.0
	MinStickyH       = 80.0
	MinSatelliteSize = 20.0
)

// MinSize returns the minimum logical dimensions for a kind.
func MinSize(k Kind) (w, h float64) {
	switch k {
	case KindContainer:
		return MinContainerW, MinContainerH
	case KindSticky:
		return MinStickyW, MinStickyH
	case KindSatellite:
		return MinSatelliteSize, MinSatelliteSize
	default:
		return MinNodeSize, MinNodeSize
	}
}

func defaultSize(k Kind) (w, h float64) {
	switch k {
	case KindContainer:
		return DefaultContainerW, DefaultContainerH
	case KindSticky:
		return DefaultStickyW, DefaultStickyH
	case KindSatellite:
		return DefaultSatelliteSize, DefaultSatelliteSize
	default:
		return DefaultNodeSize, DefaultNodeSize
	}
}

var defaultColors = map[Kind]string{
	KindNode:      "#4a9eff",
	KindContainer: "#2d2d44",
	KindSticky:    "#f5d76e",
	KindSatellite: "#9b59b6",
}

// newNode builds a node of the given kind centered at x,y with its default
// dimensions pre-settled (anim == target == logical).
func newNode(id string, k Kind, x, y float64, label string) Node {
	w, h := defaultSize(k)
	return Node{
		ID:    id,
		Kind:  k,
		X:     x,
		Y:     y,
		Label: label,
		Color: defaultColors[k],
		Dims: Dimensions{
			W: w, H: h,
			AnimW: w, AnimH: h,
			TargetW: w, TargetH: h,
		},
	}
}

// Connection is an ordered pair of node ids. Both endpoints must reference
// live nodes; duplicate ordered pairs are rejected by the store.
type Connection struct {
	From string
	To   string
}

func (c Connection) String() string {
	return fmt.Sprintf("%s->%s", c.From, c.To)
}

// Interaction is the transient pointer-interaction substate. At most one of
// DraggingID and ResizingID is non-empty at any time.
type Interaction struct {
	HoveredID    string
	SelectedID   string
	SelectedConn int // index into connections, -1 when none
	DraggingID   string
	ResizingID   string
	DropTargetID string
	ConnectMode  bool
	PendingFrom  string // first endpoint while drawing a connection
}

func newInteraction() Interaction {
	return Interaction{SelectedConn: -1}
}
