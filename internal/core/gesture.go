package core

import (
	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/engine"
)

// GestureState turns cursor keys and pointer presses into swap requests.
// Each input source owns its own value; nothing here is shared between
// sessions. It never validates adjacency; the engine does.
type GestureState struct {
	W, H   int
	Cursor board.Coord

	picked    board.Coord
	hasPick   bool
	pressAt   board.Coord
	isPressed bool
}

// NewGestureState creates a gesture tracker for a w x h board with the
// cursor in the top-left cell.
func NewGestureState(w, h int) GestureState {
	return GestureState{W: w, H: h}
}

// Picked returns the picked cell, if any.
func (g *GestureState) Picked() (board.Coord, bool) {
	return g.picked, g.hasPick
}

// Move steps the cursor. With a jewel picked it instead returns a swap of
// the picked cell with its neighbour in direction d and drops the pick.
func (g *GestureState) Move(d Dir) (engine.SwapRequest, bool) {
	if g.hasPick {
		from := g.picked
		to := from.Add(d.DC, d.DR)
		g.hasPick = false
		g.Cursor = g.clamp(to)
		return engine.SwapRequest{From: from, To: to}, true
	}
	g.Cursor = g.clamp(g.Cursor.Add(d.DC, d.DR))
	return engine.SwapRequest{}, false
}

// Pick toggles the pick on the cursor cell. Picking a second cell swaps it
// with the first.
func (g *GestureState) Pick() (engine.SwapRequest, bool) {
	return g.selectCell(g.Cursor)
}

// Cancel drops any pick or pointer press.
func (g *GestureState) Cancel() {
	g.hasPick = false
	g.isPressed = false
}

// Press starts a pointer gesture on c.
func (g *GestureState) Press(c board.Coord) {
	if !g.inBounds(c) {
		return
	}
	g.Cursor = c
	g.pressAt = c
	g.isPressed = true
}

// Release ends a pointer gesture. Releasing on the pressed cell acts as a
// click; releasing elsewhere is a drag toward the release point along its
// dominant axis.
func (g *GestureState) Release(c board.Coord) (engine.SwapRequest, bool) {
	if !g.isPressed {
		return engine.SwapRequest{}, false
	}
	g.isPressed = false
	from := g.pressAt

	if c == from {
		return g.selectCell(c)
	}

	dc, dr := c.Col-from.Col, c.Row-from.Row
	var d Dir
	if Abs(dc) >= Abs(dr) {
		d = Dir{DC: sign(dc)}
	} else {
		d = Dir{DR: sign(dr)}
	}
	g.hasPick = false
	to := from.Add(d.DC, d.DR)
	g.Cursor = g.clamp(to)
	return engine.SwapRequest{From: from, To: to}, true
}

func (g *GestureState) selectCell(c board.Coord) (engine.SwapRequest, bool) {
	switch {
	case !g.hasPick:
		g.picked = c
		g.hasPick = true
		return engine.SwapRequest{}, false
	case g.picked == c:
		g.hasPick = false
		return engine.SwapRequest{}, false
	default:
		req := engine.SwapRequest{From: g.picked, To: c}
		g.hasPick = false
		return req, true
	}
}

func (g *GestureState) inBounds(c board.Coord) bool {
	return c.Col >= 0 && c.Col < g.W && c.Row >= 0 && c.Row < g.H
}

func (g *GestureState) clamp(c board.Coord) board.Coord {
	return board.C(Clamp(c.Col, 0, g.W-1), Clamp(c.Row, 0, g.H-1))
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
