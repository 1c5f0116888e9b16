// Package ui is the terminal front end: a bubbletea model that feeds pointer
// and keyboard events into the interaction controller and paints board
// snapshots into a cell grid.
package ui

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lattice/internal/anim"
	"lattice/internal/blueprint"
	"lattice/internal/clip"
	"lattice/internal/config"
	"lattice/internal/export"
	"lattice/internal/geom"
	"lattice/internal/hittest"
	"lattice/internal/interact"
	"lattice/internal/live"
	"lattice/internal/scale"
	"lattice/internal/state"
)

// Terminal cells are roughly 8x16 px; pointer math runs in pixel space so
// zoom and hit-testing behave the same as in a graphical host.
const (
	cellW = 8.0
	cellH = 16.0

	frameInterval = time.Second / 30
)

type tickMsg time.Time

// ReloadMsg asks the model to re-hydrate from the board file, sent when the
// file changes on disk.
type ReloadMsg struct{}

// Model drives one board editing session.
type Model struct {
	store *state.Store
	calc  *scale.Calculator
	ctrl  *interact.Controller
	sched *anim.Scheduler
	cfg   *config.Config
	log   *slog.Logger
	live  *live.Server // nil when live streaming is off

	path     string // board file
	width    int    // terminal cells
	height   int
	status   string
	editing  bool // label/text edit in progress
	editBuf  string
	lastTick time.Time
	unsaved  bool
	lastSave time.Time
}

func NewModel(path string, cfg *config.Config, log *slog.Logger, lv *live.Server) *Model {
	if log == nil {
		log = slog.Default()
	}
	st := state.NewStore(log)
	calc := scale.NewCalculator(scale.DefaultMeasurer(log))
	sched := anim.New(log)
	ctrl := interact.NewController(st, calc, hittest.New(calc), sched, log)

	m := &Model{
		store: st,
		calc:  calc,
		ctrl:  ctrl,
		sched: sched,
		cfg:   cfg,
		log:   log,
		live:  lv,
		path:  path,
	}
	st.Subscribe(func() { m.unsaved = true })

	if bp, err := blueprint.Load(path); err == nil {
		blueprint.Apply(bp, st)
		m.unsaved = false
		ctrl.Refresh()
	} else {
		m.log.Debug("starting empty board", "path", path, "err", err)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ctrl.SetViewport(float64(m.width)*cellW, float64(m.height-1)*cellH)
		return m, nil

	case tickMsg:
		m.onTick(time.Time(msg))
		return m, tick()

	case ReloadMsg:
		if bp, err := blueprint.Load(m.path); err == nil {
			blueprint.Apply(bp, m.store)
			m.unsaved = false
			m.ctrl.Refresh()
			m.status = "reloaded from disk"
		} else {
			m.log.Warn("reload failed", "path", m.path, "err", err)
		}
		return m, nil

	case tea.MouseMsg:
		m.onMouse(msg)
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			m.onEditKey(msg)
			return m, nil
		}
		return m.onKey(msg)
	}
	return m, nil
}

func (m *Model) onTick(now time.Time) {
	if !m.lastTick.IsZero() && m.sched.Active() {
		dt := now.Sub(m.lastTick).Seconds()
		if dt > 0.25 {
			dt = 0.25 // clamp after a stall so animations don't jump
		}
		m.sched.Step(dt)
	}
	m.lastTick = now
	m.maybeAutosave(now)
}

func (m *Model) maybeAutosave(now time.Time) {
	interval := m.cfg.Board.AutosaveSeconds
	if interval <= 0 || !m.unsaved {
		return
	}
	if now.Sub(m.lastSave) < time.Duration(interval)*time.Second {
		return
	}
	m.save(now)
}

func (m *Model) save(now time.Time) {
	if err := blueprint.Save(m.path, m.store.Snapshot(), now); err != nil {
		m.log.Error("saving board", "path", m.path, "err", err)
		m.status = "save failed: " + err.Error()
		return
	}
	m.unsaved = false
	m.lastSave = now
	m.status = "saved " + filepath.Base(m.path)
	if m.live != nil {
		m.live.Broadcast(blueprint.Capture(m.store.Snapshot(), now))
	}
}

func (m *Model) onMouse(msg tea.MouseMsg) {
	pt := geom.Point{X: float64(msg.X) * cellW, Y: float64(msg.Y) * cellH}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.ctrl.Wheel(-1, pt)
		return
	case tea.MouseButtonWheelDown:
		m.ctrl.Wheel(1, pt)
		return
	}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.ctrl.MouseDown(interact.ButtonLeft, pt)
		case tea.MouseButtonMiddle:
			m.ctrl.MouseDown(interact.ButtonMiddle, pt)
		}
	case tea.MouseActionMotion:
		m.ctrl.MouseMove(pt)
	case tea.MouseActionRelease:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.ctrl.MouseUp(interact.ButtonLeft, pt)
		default:
			m.ctrl.MouseUp(interact.ButtonMiddle, pt)
		}
	}
}

func (m *Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.save(time.Now())
		return m, tea.Quit

	case "esc", "escape":
		m.ctrl.Cancel()
		m.status = ""

	case "u", "ctrl+z":
		m.ctrl.Undo()
	case "ctrl+r", "ctrl+y":
		m.ctrl.Redo()

	case "delete", "backspace", "d":
		m.ctrl.DeleteSelection()

	case "c":
		m.ctrl.ToggleConnectMode()
		if m.store.Interaction().ConnectMode {
			m.status = "connect: click two nodes"
		} else {
			m.status = ""
		}

	case "n":
		m.ctrl.AddNodeAtCenter(state.KindNode, "node")
	case "b":
		m.ctrl.AddNodeAtCenter(state.KindContainer, "group")
	case "t":
		m.ctrl.AddNodeAtCenter(state.KindSticky, "")
	case "o":
		if m.store.Interaction().SelectedID == "" {
			m.status = "select a node to orbit first"
		} else {
			m.ctrl.AddNodeAtCenter(state.KindSatellite, "")
		}

	case "e", "enter":
		m.beginEdit()

	case "r":
		m.cycleColor()

	case "f":
		if sel := m.store.Interaction().SelectedID; sel != "" {
			m.ctrl.CenterOn(sel)
		}

	case "y":
		m.copySelection()
	case "p":
		m.paste()

	case "s", "ctrl+s":
		m.save(time.Now())
	case "x":
		m.exportPNG()

	case "+", "=":
		m.zoomAtCenter(1)
	case "-":
		m.zoomAtCenter(-1)

	case "left", "h":
		m.pan(cellW*4, 0)
	case "right", "l":
		m.pan(-cellW*4, 0)
	case "up", "k":
		m.pan(0, cellH*2)
	case "down", "j":
		m.pan(0, -cellH*2)
	}
	return m, nil
}

func (m *Model) zoomAtCenter(direction float64) {
	center := geom.Point{
		X: float64(m.width) * cellW / 2,
		Y: float64(m.height-1) * cellH / 2,
	}
	m.ctrl.Wheel(-direction, center)
}

func (m *Model) pan(dx, dy float64) {
	m.store.SetCamera(m.store.Camera().Panned(geom.Point{X: dx, Y: dy}))
}

func (m *Model) beginEdit() {
	sel := m.store.Interaction().SelectedID
	if sel == "" {
		return
	}
	n, ok := m.store.Node(sel)
	if !ok {
		return
	}
	m.editing = true
	if n.Kind == state.KindSticky {
		m.editBuf = n.Text
	} else {
		m.editBuf = n.Label
	}
}

func (m *Model) onEditKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc", "escape":
		m.editing = false
		m.editBuf = ""
	case "enter":
		m.commitEdit()
	case "backspace":
		if len(m.editBuf) > 0 {
			r := []rune(m.editBuf)
			m.editBuf = string(r[:len(r)-1])
		}
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.editBuf += msg.String()
		}
	}
}

func (m *Model) commitEdit() {
	sel := m.store.Interaction().SelectedID
	if sel != "" {
		buf := m.editBuf
		m.store.Savepoint(state.ActionEditNode, sel)
		m.store.UpdateNode(sel, func(n *state.Node) {
			if n.Kind == state.KindSticky {
				n.Text = buf
			} else {
				n.Label = buf
			}
		})
	}
	m.editing = false
	m.editBuf = ""
}

// colorCycle is the palette the color key rotates through.
var colorCycle = []string{
	"#4a9eff", "#2ecc71", "#e74c3c", "#f39c12", "#9b59b6", "#1abc9c", "#f5d76e",
}

func (m *Model) cycleColor() {
	sel := m.store.Interaction().SelectedID
	if sel == "" {
		return
	}
	m.store.Savepoint(state.ActionEditNode, sel)
	m.store.UpdateNode(sel, func(n *state.Node) {
		next := 0
		for i, c := range colorCycle {
			if c == n.Color {
				next = (i + 1) % len(colorCycle)
				break
			}
		}
		n.Color = colorCycle[next]
	})
}

func (m *Model) copySelection() {
	sel := m.store.Interaction().SelectedID
	if sel == "" {
		return
	}
	n, ok := m.store.Node(sel)
	if !ok {
		return
	}
	text := n.Label
	if n.Kind == state.KindSticky {
		text = n.Text
	}
	if err := clip.WriteText(text); err != nil {
		m.status = "copy failed"
		return
	}
	m.status = "copied"
}

func (m *Model) paste() {
	text, err := clip.ReadText()
	if err != nil || text == "" {
		m.status = "nothing to paste"
		return
	}
	m.pasteText(text)
}

// pasteText drops a sanitized clipboard payload onto the board as a new
// sticky note at the viewport center. AddNodeAtCenter takes the savepoint,
// so undo removes the note together with its text.
func (m *Model) pasteText(text string) {
	n := m.ctrl.AddNodeAtCenter(state.KindSticky, "")
	m.store.UpdateNode(n.ID, func(u *state.Node) {
		u.Text = text
	})
	m.ctrl.Refresh()
	m.status = "pasted sticky note"
}

func (m *Model) exportPNG() {
	out := m.path[:len(m.path)-len(filepath.Ext(m.path))] + ".png"
	opts := export.Options{
		Scale:      m.cfg.Export.Scale,
		Background: m.cfg.Export.Background,
	}
	if err := export.ToPNG(out, m.store.Snapshot(), m.calc, opts); err != nil {
		m.status = "export failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("exported %s", filepath.Base(out))
}
