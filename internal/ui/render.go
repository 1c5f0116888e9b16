package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lattice/internal/geom"
	"lattice/internal/state"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("57"))
	statusDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Background(lipgloss.Color("57"))
)

// grid is the character canvas one frame is painted into.
type grid struct {
	w, h  int
	cells [][]rune
}

func newGrid(w, h int) *grid {
	cells := make([][]rune, h)
	for i := range cells {
		row := make([]rune, w)
		for j := range row {
			row[j] = ' '
		}
		cells[i] = row
	}
	return &grid{w: w, h: h, cells: cells}
}

func (g *grid) set(x, y int, r rune) {
	if x < 0 || x >= g.w || y < 0 || y >= g.h {
		return
	}
	g.cells[y][x] = r
}

func (g *grid) text(x, y int, s string) {
	for i, r := range []rune(s) {
		g.set(x+i, y, r)
	}
}

func (g *grid) String() string {
	var b strings.Builder
	for i, row := range g.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

// border rune sets: normal, selected, drop-target.
type borderSet struct {
	tl, tr, bl, br, hor, ver rune
}

var (
	borderPlain  = borderSet{'╭', '╮', '╰', '╯', '─', '│'}
	borderSelect = borderSet{'╔', '╗', '╚', '╝', '═', '║'}
	borderTarget = borderSet{'┏', '┓', '┗', '┛', '━', '┃'}
)

func (m *Model) View() (out string) {
	// A paint failure must degrade, not take down the interaction loop.
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("render failed", "err", r)
			out = "render error — press u to undo, q to quit"
		}
	}()

	if m.width == 0 || m.height < 2 {
		return "loading..."
	}
	snap := m.store.Snapshot()
	g := newGrid(m.width, m.height-1)

	m.drawConnections(g, snap)
	for _, n := range snap.Nodes {
		m.drawNode(g, snap, n)
	}
	return g.String() + "\n" + m.statusBar(snap)
}

// cellAt converts a world point to grid cell coordinates.
func cellAt(cam geom.Camera, p geom.Point) (int, int) {
	s := cam.WorldToScreen(p)
	return int(s.X / cellW), int(s.Y / cellH)
}

func (m *Model) drawConnections(g *grid, snap state.Snapshot) {
	byID := make(map[string]state.Node, len(snap.Nodes))
	for _, n := range snap.Nodes {
		byID[n.ID] = n
	}
	for i, c := range snap.Connections {
		from, okF := byID[c.From]
		to, okT := byID[c.To]
		if !okF || !okT {
			continue
		}
		x1, y1 := cellAt(snap.Camera, geom.Point{X: from.X, Y: from.Y})
		x2, y2 := cellAt(snap.Camera, geom.Point{X: to.X, Y: to.Y})
		mark := '·'
		if i == snap.Interaction.SelectedConn {
			mark = '●'
		}
		drawLine(g, x1, y1, x2, y2, mark)
		g.set(x2, y2, '>')
	}

	// Connection in progress: pending endpoint to nothing yet, just flag it.
	if snap.Interaction.PendingFrom != "" {
		if n, ok := byID[snap.Interaction.PendingFrom]; ok {
			x, y := cellAt(snap.Camera, geom.Point{X: n.X, Y: n.Y})
			g.set(x, y-1, '◆')
		}
	}
}

// drawLine is a minimal Bresenham walk.
func drawLine(g *grid, x1, y1, x2, y2 int, mark rune) {
	dx, dy := abs(x2-x1), -abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy
	for {
		g.set(x1, y1, mark)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (m *Model) drawNode(g *grid, snap state.Snapshot, n state.Node) {
	in := snap.Interaction
	b := m.calc.RenderBounds(n, snap.Camera.Zoom)
	x1, y1 := cellAt(snap.Camera, geom.Point{X: b.MinX(), Y: b.MinY()})
	x2, y2 := cellAt(snap.Camera, geom.Point{X: b.MaxX(), Y: b.MaxY()})

	switch n.Kind {
	case state.KindContainer, state.KindSticky:
		set := borderPlain
		if n.ID == in.DropTargetID {
			set = borderTarget
		} else if n.ID == in.SelectedID {
			set = borderSelect
		}
		drawBox(g, x1, y1, x2, y2, set)
		if n.Kind == state.KindContainer && n.Label != "" {
			g.text(x1+2, y1, " "+clipLabel(n.Label, x2-x1-4)+" ")
		}
		if n.Kind == state.KindSticky {
			lines := m.calc.WrapSticky(n, snap.Camera.Zoom)
			for i, line := range lines {
				if y1+1+i >= y2 {
					break
				}
				g.text(x1+1, y1+1+i, clipLabel(line, x2-x1-2))
			}
		}

	case state.KindSatellite:
		cx, cy := cellAt(snap.Camera, geom.Point{X: n.X, Y: n.Y})
		mark := '○'
		if n.ID == in.SelectedID {
			mark = '◉'
		}
		g.set(cx, cy, mark)

	default:
		label := n.Label
		if label == "" {
			label = "·"
		}
		cx, cy := cellAt(snap.Camera, geom.Point{X: n.X, Y: n.Y})
		text := "(" + clipLabel(label, 18) + ")"
		if n.ID == in.SelectedID {
			text = "((" + clipLabel(label, 16) + "))"
		}
		g.text(cx-len([]rune(text))/2, cy, text)
		if n.ID == in.HoveredID && n.ID != in.SelectedID {
			g.set(cx-len([]rune(text))/2-1, cy, '›')
		}
	}

	// Resize handles on the selected rectangular node.
	if n.ID == in.SelectedID && (n.Kind == state.KindContainer || n.Kind == state.KindSticky) {
		for _, h := range [][2]int{{x1, y1}, {x2, y1}, {x1, y2}, {x2, y2}} {
			g.set(h[0], h[1], '■')
		}
	}
}

func drawBox(g *grid, x1, y1, x2, y2 int, set borderSet) {
	if x2 <= x1 || y2 <= y1 {
		return
	}
	g.set(x1, y1, set.tl)
	g.set(x2, y1, set.tr)
	g.set(x1, y2, set.bl)
	g.set(x2, y2, set.br)
	for x := x1 + 1; x < x2; x++ {
		g.set(x, y1, set.hor)
		g.set(x, y2, set.hor)
	}
	for y := y1 + 1; y < y2; y++ {
		g.set(x1, y, set.ver)
		g.set(x2, y, set.ver)
	}
}

func clipLabel(s string, max int) string {
	if max < 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

func (m *Model) statusBar(snap state.Snapshot) string {
	mode := m.ctrl.Mode().String()
	if m.editing {
		mode = "editing"
	}
	left := fmt.Sprintf(" %s │ %s │ %d%% ", m.baseName(), mode, int(snap.Camera.Zoom*100))
	if m.unsaved {
		left = " *" + left[1:]
	}

	mid := m.status
	if m.editing {
		mid = "edit: " + m.editBuf + "▏"
	}

	right := fmt.Sprintf(" %d nodes │ %d links ", len(snap.Nodes), len(snap.Connections))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := statusStyle.Render(left) +
		statusDimStyle.Render(mid+strings.Repeat(" ", gap)) +
		statusStyle.Render(right)
	return bar
}

func (m *Model) baseName() string {
	if i := strings.LastIndexByte(m.path, '/'); i >= 0 {
		return m.path[i+1:]
	}
	return m.path
}
