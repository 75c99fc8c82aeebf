// Package core holds renderer-neutral pieces shared by the front ends: input
// actions, the gesture tracker that turns them into swap requests, screen
// geometry and a character buffer. It does not import Bubble Tea.
package core

import "github.com/vovakirdan/jewel-duel/internal/board"

// Rect is a screen area. X and Y are inclusive, Right and Bottom exclusive.
type Rect struct {
	X, Y int
	W, H int
}

func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

func (r Rect) Right() int  { return r.X + r.W }
func (r Rect) Bottom() int { return r.Y + r.H }

// Contains reports whether (x, y) falls inside r.
func (r Rect) Contains(x, y int) bool {
	return r.X <= x && x < r.Right() && r.Y <= y && y < r.Bottom()
}

// Inset shrinks r by n cells on every side.
func (r Rect) Inset(n int) Rect {
	return NewRect(r.X+n, r.Y+n, max(r.W-2*n, 0), max(r.H-2*n, 0))
}

// CellWidth is how many columns a jewel takes on screen: two mark brackets
// around the glyph.
const CellWidth = 3

// BoardLayout is where a framed Cols x Rows board sits on the screen.
// (X, Y) is the frame's top-left corner.
type BoardLayout struct {
	X, Y       int
	Cols, Rows int
}

// NewBoardLayout centers the board's frame horizontally on row y. A board
// wider than the screen is pinned to the left edge.
func NewBoardLayout(screenW, y, cols, rows int) BoardLayout {
	frameW := cols*CellWidth + 2
	return BoardLayout{X: max((screenW-frameW)/2, 0), Y: y, Cols: cols, Rows: rows}
}

// Frame is the board area including its one-cell border.
func (l BoardLayout) Frame() Rect {
	return NewRect(l.X, l.Y, l.Cols*CellWidth+2, l.Rows+2)
}

// CellOrigin is the screen position of cell c's opening bracket.
func (l BoardLayout) CellOrigin(c board.Coord) (x, y int) {
	inner := l.Frame().Inset(1)
	return inner.X + c.Col*CellWidth, inner.Y + c.Row
}

// CellAt is the inverse of CellOrigin: any of a cell's three columns maps
// back to it. Positions on the frame or outside it report false.
func (l BoardLayout) CellAt(x, y int) (board.Coord, bool) {
	inner := l.Frame().Inset(1)
	if !inner.Contains(x, y) {
		return board.Coord{}, false
	}
	return board.C((x-inner.X)/CellWidth, y-inner.Y), true
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
