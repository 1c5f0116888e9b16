// Package interact is the pointer/keyboard interaction engine: a mutually
// exclusive state machine over pan, resize, drag and connection-drawing
// strategies, dispatched on an exhaustive mode enum. All mutation goes
// through the store; every gesture takes a savepoint before it first
// mutates so a whole drag undoes as one unit.
package interact

import (
	"log/slog"
	"math"
	"time"

	"lattice/internal/anim"
	"lattice/internal/geom"
	"lattice/internal/hittest"
	"lattice/internal/scale"
	"lattice/internal/state"
)

// Mode is the active interaction strategy. Exactly one is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeResizing
	ModeDragging
	ModeConnecting
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePanning:
		return "panning"
	case ModeResizing:
		return "resizing"
	case ModeDragging:
		return "dragging"
	case ModeConnecting:
		return "connecting"
	default:
		return "unknown"
	}
}

// Button is the pointer button that triggered an event.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
)

const (
	// Wheel events are throttled to ~60Hz regardless of device event rate.
	wheelMinInterval = 16 * time.Millisecond
	zoomStepFactor   = 1.1

	// A parented node dragged beyond its container's bounds plus this
	// margin is released.
	UnparentMargin = 48.0

	connectionHitPx   = 8.0
	collisionAttempts = 12
	collisionStep     = 24.0

	panToDuration = 0.45
	orbitSpeed    = 0.6 // radians per second
	orbitGap      = 34.0

	tweenElastic = "container-elastic"
	tweenOrbit   = "satellite-orbit"
	tweenPanTo   = "camera-pan"
)

type dragState struct {
	id      string
	start   geom.Point // pointer world position at drag start
	origins map[string]geom.Point
	parent  string // ParentID at drag start
}

type resizeState struct {
	id     string
	corner hittest.Corner
	dims   state.Dimensions
}

// Controller owns the interaction state machine. It is driven from a single
// goroutine by a pointer/keyboard host and the animation tick.
type Controller struct {
	store *state.Store
	scale *scale.Calculator
	hit   *hittest.Tester
	sched *anim.Scheduler
	log   *slog.Logger
	now   func() time.Time

	mode         Mode
	viewW, viewH float64
	lastWheel    time.Time
	panLast      geom.Point
	drag         dragState
	resize       resizeState
}

func NewController(st *state.Store, sc *scale.Calculator, ht *hittest.Tester, sched *anim.Scheduler, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		store: st,
		scale: sc,
		hit:   ht,
		sched: sched,
		log:   log,
		now:   time.Now,
	}
}

// SetClock injects a time source for tests.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Controller) Mode() Mode { return c.mode }

// SetViewport records the canvas size in screen units, used for
// canvas-center node placement and animated pan-to.
func (c *Controller) SetViewport(w, h float64) {
	c.viewW, c.viewH = w, h
}

// baseMode is the state to return to when a gesture ends: connecting while
// the connect toggle is held, idle otherwise.
func (c *Controller) baseMode() Mode {
	if c.store.Interaction().ConnectMode {
		return ModeConnecting
	}
	return ModeIdle
}

// MouseDown dispatches a button press. Priority order is fixed: resize
// handles first, then the pan button, then strategy dispatch.
func (c *Controller) MouseDown(btn Button, screen geom.Point) {
	cam := c.store.Camera()
	world := cam.ScreenToWorld(screen)

	if btn == ButtonMiddle {
		if c.mode == ModeIdle || c.mode == ModeConnecting {
			c.sched.Unregister(tweenPanTo)
			c.panLast = screen
			c.mode = ModePanning
		}
		return
	}

	switch c.mode {
	case ModeConnecting:
		c.connectClick(world, cam.Zoom)
	case ModeIdle:
		if c.beginResize(world, cam.Zoom) {
			return
		}
		if id := c.hit.NodeAt(c.store, world, cam.Zoom, ""); id != "" {
			c.beginDrag(id, world)
			return
		}
		if i := c.hit.ConnectionAt(c.store, world, connectionHitPx/cam.Zoom); i >= 0 {
			c.store.SelectConnection(i)
			return
		}
		c.store.ClearSelection()
	}
}

// beginResize starts a resize when the press lands on a handle of the
// currently selected node. Unselected nodes never expose handles, so a
// background node cannot hijack the gesture.
func (c *Controller) beginResize(world geom.Point, zoom float64) bool {
	sel := c.store.Interaction().SelectedID
	if sel == "" {
		return false
	}
	n, ok := c.store.Node(sel)
	if !ok || n.Kind == state.KindSatellite {
		return false
	}
	corner := c.hit.HandleAt(n, world, zoom)
	if corner == hittest.CornerNone {
		return false
	}
	c.store.Savepoint(state.ActionResizeNode, sel)
	c.resize = resizeState{id: sel, corner: corner, dims: n.Dims}
	c.store.SetResizing(sel)
	c.mode = ModeResizing
	return true
}

func (c *Controller) beginDrag(id string, world geom.Point) {
	n, ok := c.store.Node(id)
	if !ok {
		return
	}
	c.store.SelectNode(id)
	c.store.Savepoint(state.ActionMoveNode, id)

	// Deltas apply against drag-start positions, not incrementally, so a
	// container and its children cannot drift apart over a long drag.
	origins := map[string]geom.Point{id: {X: n.X, Y: n.Y}}
	if n.Kind == state.KindContainer {
		c.collectDescendants(id, origins)
	}
	c.drag = dragState{id: id, start: world, origins: origins, parent: n.ParentID}
	c.store.SetDragging(id)
	c.mode = ModeDragging
}

func (c *Controller) collectDescendants(id string, origins map[string]geom.Point) {
	for _, ch := range c.store.Children(id) {
		origins[ch.ID] = geom.Point{X: ch.X, Y: ch.Y}
		if ch.Kind == state.KindContainer {
			c.collectDescendants(ch.ID, origins)
		}
	}
}

// MouseMove updates the active strategy. Hover lookups are skipped while
// panning or resizing to keep the high-frequency move path cheap.
func (c *Controller) MouseMove(screen geom.Point) {
	cam := c.store.Camera()
	world := cam.ScreenToWorld(screen)

	switch c.mode {
	case ModePanning:
		delta := screen.Sub(c.panLast)
		c.panLast = screen
		c.store.SetCamera(cam.Panned(delta))
	case ModeDragging:
		c.moveDrag(world, cam.Zoom)
	case ModeResizing:
		c.moveResize(world)
	case ModeIdle, ModeConnecting:
		c.store.SetHover(c.hit.NodeAt(c.store, world, cam.Zoom, ""))
	}
}

func (c *Controller) moveDrag(world geom.Point, zoom float64) {
	delta := world.Sub(c.drag.start)
	c.store.Batch(func() {
		for id, origin := range c.drag.origins {
			p := origin.Add(delta)
			c.store.UpdateNode(id, func(n *state.Node) {
				n.X, n.Y = p.X, p.Y
			})
		}
	})

	n, ok := c.store.Node(c.drag.id)
	if ok && n.Kind != state.KindContainer {
		c.store.SetDropTarget(c.hit.DropTargetAt(c.store, world, zoom, c.drag.id))
	}
	c.store.SetHover(c.hit.NodeAt(c.store, world, zoom, c.drag.id))
	c.kickElastic()
}

func (c *Controller) moveResize(world geom.Point) {
	n, ok := c.store.Node(c.resize.id)
	if !ok {
		return
	}
	// Nodes are center-anchored, so any corner maps to the same size math.
	w := 2 * math.Abs(world.X-n.X)
	h := 2 * math.Abs(world.Y-n.Y)
	if n.Kind == state.KindNode {
		// Circular nodes stay circular.
		d := math.Max(w, h)
		w, h = d, d
	}
	minW, minH := state.MinSize(n.Kind)
	w = math.Max(w, math.Max(minW, n.Dims.ContentMinW))
	h = math.Max(h, math.Max(minH, n.Dims.ContentMinH))
	c.store.UpdateNode(c.resize.id, func(u *state.Node) {
		u.Dims.W, u.Dims.H = w, h
		u.Dims.Manual = true
		// Manual sizes take effect immediately; the elastic animation only
		// eases content-driven growth.
		u.Dims.AnimW, u.Dims.AnimH = u.Dims.W, u.Dims.H
		u.Dims.TargetW, u.Dims.TargetH = u.Dims.W, u.Dims.H
	})
	c.kickElastic()
}

// MouseUp ends the active gesture and commits its result.
func (c *Controller) MouseUp(btn Button, screen geom.Point) {
	cam := c.store.Camera()
	world := cam.ScreenToWorld(screen)

	switch c.mode {
	case ModePanning:
		if btn == ButtonMiddle {
			c.mode = c.baseMode()
		}
	case ModeDragging:
		if btn == ButtonLeft {
			c.endDrag(world, cam.Zoom)
		}
	case ModeResizing:
		if btn == ButtonLeft {
			c.store.SetResizing("")
			c.store.ValidateAndCleanup()
			c.mode = c.baseMode()
			c.kickElastic()
		}
	}
}

func (c *Controller) endDrag(world geom.Point, zoom float64) {
	id := c.drag.id
	target := c.store.Interaction().DropTargetID

	c.store.Batch(func() {
		if n, ok := c.store.Node(id); ok && n.Kind != state.KindContainer {
			if target != "" {
				c.store.Reparent(id, target)
				c.resolveSiblingCollisions(id, target, zoom)
			} else if c.drag.parent != "" {
				c.maybeUnparent(id, zoom)
			}
		}
		c.store.SetDragging("")
		c.store.SetDropTarget("")
		c.store.ValidateAndCleanup()
	})
	c.drag = dragState{}
	c.mode = c.baseMode()
	c.kickElastic()
}

// maybeUnparent releases a node that was dragged outside its container's
// bounds plus the unparent margin.
func (c *Controller) maybeUnparent(id string, zoom float64) {
	n, ok := c.store.Node(id)
	if !ok || n.ParentID == "" {
		return
	}
	parent, ok := c.store.Node(n.ParentID)
	if !ok {
		return
	}
	bounds := c.scale.RenderBounds(parent, zoom).Expand(UnparentMargin)
	if !bounds.Contains(geom.Point{X: n.X, Y: n.Y}) {
		c.store.Reparent(id, "")
	}
}

// resolveSiblingCollisions pushes a newly dropped node away from any sibling
// it overlaps, along the angle between their centers, for a bounded number
// of attempts.
func (c *Controller) resolveSiblingCollisions(id, containerID string, zoom float64) {
	for attempt := 0; attempt < collisionAttempts; attempt++ {
		n, ok := c.store.Node(id)
		if !ok {
			return
		}
		bounds := c.scale.RenderBounds(n, zoom)

		var hitSib *state.Node
		for _, sib := range c.store.Children(containerID) {
			if sib.ID == id {
				continue
			}
			s := sib
			if c.scale.RenderBounds(s, zoom).Overlaps(bounds) {
				hitSib = &s
				break
			}
		}
		if hitSib == nil {
			return
		}
		dx, dy := n.X-hitSib.X, n.Y-hitSib.Y
		dist := math.Hypot(dx, dy)
		if dist < 1e-3 {
			dx, dy, dist = 1, 0, 1
		}
		c.store.UpdateNode(id, func(u *state.Node) {
			u.X += dx / dist * collisionStep
			u.Y += dy / dist * collisionStep
		})
	}
}

// Wheel applies a zoom step anchored at the pointer. Events arriving faster
// than the throttle interval are dropped.
func (c *Controller) Wheel(deltaY float64, screen geom.Point) {
	now := c.now()
	if now.Sub(c.lastWheel) < wheelMinInterval {
		return
	}
	c.lastWheel = now
	c.sched.Unregister(tweenPanTo)

	cam := c.store.Camera()
	z := cam.Zoom * math.Pow(zoomStepFactor, -deltaY)
	c.store.SetCamera(cam.ZoomAt(z, screen))
	c.kickElastic()
}

// ToggleConnectMode flips connection-drawing mode; SetConnectMode maps a
// host with real modifier events onto hold semantics.
func (c *Controller) ToggleConnectMode() {
	c.SetConnectMode(!c.store.Interaction().ConnectMode)
}

func (c *Controller) SetConnectMode(on bool) {
	if c.mode != ModeIdle && c.mode != ModeConnecting {
		return
	}
	c.store.SetConnectMode(on)
	if on {
		c.mode = ModeConnecting
	} else {
		c.mode = ModeIdle
	}
}

func (c *Controller) connectClick(world geom.Point, zoom float64) {
	id := c.hit.NodeAt(c.store, world, zoom, "")
	if id == "" {
		return
	}
	pending := c.store.Interaction().PendingFrom
	switch {
	case pending == "":
		c.store.SetPendingFrom(id)
	case pending != id:
		c.store.Savepoint(state.ActionAddConnection, id)
		if !c.store.AddConnection(pending, id) {
			c.store.DropLastSavepoint()
		}
		c.store.SetPendingFrom("")
	}
}

// Cancel aborts every active strategy in one pass and returns to idle. It is
// idempotent: cancelling with nothing active is a no-op.
func (c *Controller) Cancel() {
	switch c.mode {
	case ModeDragging:
		c.store.Batch(func() {
			for id, origin := range c.drag.origins {
				p := origin
				c.store.UpdateNode(id, func(n *state.Node) {
					n.X, n.Y = p.X, p.Y
				})
			}
			c.store.SetDragging("")
			c.store.SetDropTarget("")
		})
		c.store.DropLastSavepoint()
		c.drag = dragState{}
	case ModeResizing:
		dims := c.resize.dims
		c.store.UpdateNode(c.resize.id, func(n *state.Node) {
			n.Dims = dims
		})
		c.store.SetResizing("")
		c.store.DropLastSavepoint()
		c.resize = resizeState{}
	}
	c.sched.Unregister(tweenPanTo)
	c.store.SetConnectMode(false)
	c.store.ValidateAndCleanup()
	c.mode = ModeIdle
	c.kickElastic()
}

// AddNodeAtCenter creates a node of the given kind at the world position
// under the viewport center. A satellite anchors to the selected node.
func (c *Controller) AddNodeAtCenter(k state.Kind, label string) state.Node {
	cam := c.store.Camera()
	world := cam.ScreenToWorld(geom.Point{X: c.viewW / 2, Y: c.viewH / 2})

	c.store.Savepoint(state.ActionAddNode, "")
	var n state.Node
	c.store.Batch(func() {
		n = c.store.AddNode(k, world.X, world.Y, label)
		if k == state.KindSatellite {
			if sel := c.store.Interaction().SelectedID; sel != "" && sel != n.ID {
				c.store.UpdateNode(n.ID, func(u *state.Node) {
					u.OrbitParent = sel
				})
			}
		}
		c.store.SelectNode(n.ID)
	})
	c.kickElastic()
	c.kickOrbit()
	n, _ = c.store.Node(n.ID)
	return n
}

// DeleteSelection removes the selected node or connection as one undoable
// action.
func (c *Controller) DeleteSelection() {
	in := c.store.Interaction()
	switch {
	case in.SelectedID != "":
		c.store.Savepoint(state.ActionDeleteNode, in.SelectedID)
		c.store.DeleteNode(in.SelectedID)
		c.kickElastic()
	case in.SelectedConn >= 0:
		c.store.Savepoint(state.ActionDeleteConnection, "")
		c.store.DeleteConnection(in.SelectedConn)
	}
}

func (c *Controller) Undo() {
	if c.mode != ModeIdle && c.mode != ModeConnecting {
		return
	}
	if c.store.Undo() {
		c.kickElastic()
		c.kickOrbit()
	}
}

func (c *Controller) Redo() {
	if c.mode != ModeIdle && c.mode != ModeConnecting {
		return
	}
	if c.store.Redo() {
		c.kickElastic()
		c.kickOrbit()
	}
}

// CenterOn eases the camera so the node sits under the viewport center.
func (c *Controller) CenterOn(id string) {
	n, ok := c.store.Node(id)
	if !ok {
		return
	}
	cam := c.store.Camera()
	startPan := cam.Pan
	targetPan := geom.Point{
		X: c.viewW/2 - n.X*cam.Zoom,
		Y: c.viewH/2 - n.Y*cam.Zoom,
	}
	elapsed := 0.0
	c.sched.Register(tweenPanTo, func(dt float64) bool {
		elapsed += dt
		t := elapsed / panToDuration
		if t >= 1 {
			t = 1
		}
		ease := 1 - math.Pow(1-t, 3)
		cur := c.store.Camera()
		cur.Pan = geom.Point{
			X: startPan.X + (targetPan.X-startPan.X)*ease,
			Y: startPan.Y + (targetPan.Y-startPan.Y)*ease,
		}
		c.store.SetCamera(cur)
		return t >= 1
	})
}

// kickElastic (re)registers the container elastic tween; it unregisters
// itself once every container has settled.
func (c *Controller) kickElastic() {
	if c.sched.Has(tweenElastic) {
		return
	}
	c.sched.Register(tweenElastic, func(dt float64) bool {
		return c.scale.Step(c.store, c.store.Camera().Zoom, dt)
	})
}

// kickOrbit keeps satellites circling their anchor. The tween stays
// registered while any anchored satellite exists.
func (c *Controller) kickOrbit() {
	if c.sched.Has(tweenOrbit) {
		return
	}
	c.sched.Register(tweenOrbit, func(dt float64) bool {
		any := false
		dragging := c.store.Interaction().DraggingID
		c.store.Batch(func() {
			for _, n := range c.store.Nodes() {
				if n.Kind != state.KindSatellite || n.OrbitParent == "" || n.ID == dragging {
					continue
				}
				parent, ok := c.store.Node(n.OrbitParent)
				if !ok {
					continue
				}
				any = true
				zoom := c.store.Camera().Zoom
				radius := c.scale.Radius(parent, zoom) + orbitGap + c.scale.Radius(n, zoom)
				angle := n.OrbitAngle + orbitSpeed*dt
				px, py := parent.X, parent.Y
				c.store.UpdateNode(n.ID, func(u *state.Node) {
					u.OrbitAngle = angle
					u.X = px + math.Cos(angle)*radius
					u.Y = py + math.Sin(angle)*radius
				})
			}
		})
		return !any
	})
}

// Refresh re-arms animations after external hydration.
func (c *Controller) Refresh() {
	c.kickElastic()
	c.kickOrbit()
}

// CursorHint names the cursor a host should show for the pointer position.
func (c *Controller) CursorHint(screen geom.Point) string {
	switch c.mode {
	case ModePanning:
		return "grabbing"
	case ModeDragging:
		return "move"
	case ModeResizing:
		return "resize"
	case ModeConnecting:
		return "crosshair"
	}
	cam := c.store.Camera()
	world := cam.ScreenToWorld(screen)
	if sel := c.store.Interaction().SelectedID; sel != "" {
		if n, ok := c.store.Node(sel); ok {
			if c.hit.HandleAt(n, world, cam.Zoom) != hittest.CornerNone {
				return "resize"
			}
		}
	}
	if c.hit.NodeAt(c.store, world, cam.Zoom, "") != "" {
		return "pointer"
	}
	return "default"
}
