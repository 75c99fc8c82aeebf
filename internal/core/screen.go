package core

import (
	"strings"

	"github.com/vovakirdan/jewel-duel/internal/board"
)

// Mark highlights a board cell.
type Mark uint8

const (
	MarkNone    Mark = iota
	MarkCursor       // [R]
	MarkPicked       // <R>
	MarkHint         // (R)
	MarkCleared      // *
)

// brackets returns the runes drawn either side of a marked glyph.
func (m Mark) brackets() (open, closing rune) {
	switch m {
	case MarkCursor:
		return '[', ']'
	case MarkPicked:
		return '<', '>'
	case MarkHint:
		return '(', ')'
	}
	return ' ', ' '
}

// Cell is one character of the screen. Tint is the jewel color the
// renderer paints it with; the zero color means plain text.
type Cell struct {
	Rune rune
	Tint board.Color
	Mark Mark
}

var blank = Cell{Rune: ' '}

// Screen is a fixed-size character buffer, stored row-major. The duel
// view draws into it and the renderers turn it into styled terminal
// output or a plain-text screenshot.
type Screen struct {
	w, h  int
	cells []Cell
}

func NewScreen(width, height int) *Screen {
	s := &Screen{w: width, h: height, cells: make([]Cell, width*height)}
	s.Clear()
	return s
}

func (s *Screen) Width() int  { return s.w }
func (s *Screen) Height() int { return s.h }

func (s *Screen) inBounds(x, y int) bool {
	return 0 <= x && x < s.w && 0 <= y && y < s.h
}

// Resize changes the dimensions. The overlapping top-left area survives.
func (s *Screen) Resize(width, height int) {
	if width == s.w && height == s.h {
		return
	}
	old := *s
	*s = *NewScreen(width, height)
	keepW := min(old.w, width)
	for y := range min(old.h, height) {
		copy(s.cells[y*width:y*width+keepW], old.cells[y*old.w:y*old.w+keepW])
	}
}

// Clear blanks every cell.
func (s *Screen) Clear() {
	for i := range s.cells {
		s.cells[i] = blank
	}
}

// Set writes an untinted rune. Writes outside the screen are dropped.
func (s *Screen) Set(x, y int, r rune) {
	s.SetCell(x, y, Cell{Rune: r})
}

func (s *Screen) SetCell(x, y int, c Cell) {
	if s.inBounds(x, y) {
		s.cells[y*s.w+x] = c
	}
}

// Get returns the rune at (x, y), a space outside the screen.
func (s *Screen) Get(x, y int) rune {
	return s.GetCell(x, y).Rune
}

func (s *Screen) GetCell(x, y int) Cell {
	if !s.inBounds(x, y) {
		return blank
	}
	return s.cells[y*s.w+x]
}

// DrawText writes text left to right from (x, y), clipped at the edges.
func (s *Screen) DrawText(x, y int, text string) {
	for _, r := range text {
		s.Set(x, y, r)
		x++
	}
}

// DrawTextCentered writes text in the middle of row y.
func (s *Screen) DrawTextCentered(y int, text string) {
	s.DrawText((s.w-len([]rune(text)))/2, y, text)
}

// DrawBox outlines r with single-line box characters.
func (s *Screen) DrawBox(r Rect) {
	left, top := r.X, r.Y
	right, bottom := r.Right()-1, r.Bottom()-1
	for x := left + 1; x < right; x++ {
		s.Set(x, top, '─')
		s.Set(x, bottom, '─')
	}
	for y := top + 1; y < bottom; y++ {
		s.Set(left, y, '│')
		s.Set(right, y, '│')
	}
	s.Set(left, top, '┌')
	s.Set(right, top, '┐')
	s.Set(left, bottom, '└')
	s.Set(right, bottom, '┘')
}

// DrawBoard frames b at l. Each jewel is drawn as its glyph between the
// brackets of its mark; cleared cells show '*' instead of the glyph.
func (s *Screen) DrawBoard(l BoardLayout, b *board.Board, marks map[board.Coord]Mark) {
	s.DrawBox(l.Frame())
	for row := range b.H {
		for col := range b.W {
			c := board.C(col, row)
			color, mark := b.ColorAt(c), marks[c]
			glyph := color.Char()
			if mark == MarkCleared {
				glyph = '*'
			}
			open, closing := mark.brackets()
			x, y := l.CellOrigin(c)
			s.SetCell(x, y, Cell{Rune: open, Mark: mark})
			s.SetCell(x+1, y, Cell{Rune: glyph, Tint: color, Mark: mark})
			s.SetCell(x+2, y, Cell{Rune: closing, Mark: mark})
		}
	}
}

// Row returns line y as plain text, or a blank line outside the screen.
func (s *Screen) Row(y int) string {
	if y < 0 || y >= s.h {
		return strings.Repeat(" ", s.w)
	}
	var sb strings.Builder
	for _, c := range s.cells[y*s.w : (y+1)*s.w] {
		sb.WriteRune(c.Rune)
	}
	return sb.String()
}

// String is the whole buffer as plain text, rows joined by newlines.
func (s *Screen) String() string {
	rows := make([]string, s.h)
	for y := range rows {
		rows[y] = s.Row(y)
	}
	return strings.Join(rows, "\n")
}
