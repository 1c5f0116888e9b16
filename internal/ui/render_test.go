package ui

import (
	"strings"
	"testing"
)

func TestGridSetIgnoresOutOfBounds(t *testing.T) {
	g := newGrid(4, 3)
	g.set(-1, 0, 'x')
	g.set(0, -1, 'x')
	g.set(4, 0, 'x')
	g.set(0, 3, 'x')
	if strings.ContainsRune(g.String(), 'x') {
		t.Error("out-of-bounds write landed on the grid")
	}

	g.set(3, 2, 'y')
	lines := strings.Split(g.String(), "\n")
	if lines[2][3] != 'y' {
		t.Errorf("in-bounds write missing:\n%s", g.String())
	}
}

func TestDrawLineStaysInBounds(t *testing.T) {
	g := newGrid(10, 5)
	// Endpoints far outside the grid must not panic or corrupt anything.
	drawLine(g, -20, -20, 30, 30, '*')
	if !strings.ContainsRune(g.String(), '*') {
		t.Error("diagonal crossing the grid drew nothing")
	}
}

func TestDrawBox(t *testing.T) {
	g := newGrid(8, 4)
	drawBox(g, 1, 0, 6, 3, borderPlain)
	if g.cells[0][1] != '╭' || g.cells[0][6] != '╮' {
		t.Errorf("missing top corners:\n%s", g.String())
	}
	if g.cells[3][1] != '╰' || g.cells[3][6] != '╯' {
		t.Errorf("missing bottom corners:\n%s", g.String())
	}
	if g.cells[1][1] != '│' || g.cells[0][3] != '─' {
		t.Errorf("missing edges:\n%s", g.String())
	}
	// Degenerate boxes are skipped.
	g2 := newGrid(4, 4)
	drawBox(g2, 2, 2, 2, 2, borderPlain)
	if strings.TrimSpace(g2.String()) != "" {
		t.Error("degenerate box drew cells")
	}
}

func TestClipLabel(t *testing.T) {
	if got := clipLabel("short", 10); got != "short" {
		t.Errorf("clipLabel(short) = %q", got)
	}
	if got := clipLabel("elongated", 4); got != "elo…" {
		t.Errorf("clipLabel(elongated, 4) = %q", got)
	}
	if got := clipLabel("x", 0); got != "" {
		t.Errorf("clipLabel(x, 0) = %q", got)
	}
}
