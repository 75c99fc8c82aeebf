package board

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Token is a jewel sitting in a cell. Its identity is its position.
type Token struct {
	Pos   Coord `json:"pos"`
	Color Color `json:"color"`
}

// Board is a rectangular grid of jewel cells.
// Cells are stored in row-major order: index = row*W + col.
// An empty cell holds ColorNone; a board at rest has no empty cells.
type Board struct {
	W     int
	H     int
	Cells []Color
}

// New creates an empty board with the given dimensions.
func New(w, h int) *Board {
	return &Board{
		W:     w,
		H:     h,
		Cells: make([]Color, w*h),
	}
}

// FromRows builds a board from one string per row using Color.Char letters.
// All rows must have the same length; '.' is an empty cell.
func FromRows(rows ...string) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("board: no rows")
	}
	w := len(rows[0])
	b := New(w, len(rows))
	for row, line := range rows {
		if len(line) != w {
			return nil, fmt.Errorf("board: row %d has width %d, expected %d", row, len(line), w)
		}
		for col, ch := range line {
			color, ok := ParseColor(string(ch))
			if !ok {
				return nil, fmt.Errorf("board: unknown color %q at %s", ch, C(col, row))
			}
			b.Set(C(col, row), color)
		}
	}
	return b, nil
}

// MustFromRows is FromRows that panics on malformed input. Intended for tests
// and fixed layouts.
func MustFromRows(rows ...string) *Board {
	b, err := FromRows(rows...)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Board) index(c Coord) int {
	return c.Row*b.W + c.Col
}

// InBounds returns true if the coordinate is inside the board.
func (b *Board) InBounds(c Coord) bool {
	return c.Col >= 0 && c.Col < b.W && c.Row >= 0 && c.Row < b.H
}

// ColorAt returns the color at c, or ColorNone when empty or out of bounds.
func (b *Board) ColorAt(c Coord) Color {
	if !b.InBounds(c) {
		return ColorNone
	}
	return b.Cells[b.index(c)]
}

// Get returns the token at c and whether the cell holds one.
func (b *Board) Get(c Coord) (Token, bool) {
	color := b.ColorAt(c)
	if color == ColorNone {
		return Token{}, false
	}
	return Token{Pos: c, Color: color}, true
}

// Set places a jewel of the given color at c. Out-of-bounds writes are ignored.
func (b *Board) Set(c Coord, color Color) {
	if b.InBounds(c) {
		b.Cells[b.index(c)] = color
	}
}

// Clear empties the cell at c.
func (b *Board) Clear(c Coord) {
	b.Set(c, ColorNone)
}

// Swap exchanges the contents of two cells in place.
func (b *Board) Swap(a, c Coord) {
	if !b.InBounds(a) || !b.InBounds(c) {
		return
	}
	ia, ic := b.index(a), b.index(c)
	b.Cells[ia], b.Cells[ic] = b.Cells[ic], b.Cells[ia]
}

// Column returns the colors of one column ordered top to bottom.
func (b *Board) Column(col int) []Color {
	if col < 0 || col >= b.W {
		return nil
	}
	out := make([]Color, b.H)
	for row := 0; row < b.H; row++ {
		out[row] = b.Cells[b.index(C(col, row))]
	}
	return out
}

// ColumnCount returns the number of occupied cells in a column.
func (b *Board) ColumnCount(col int) int {
	n := 0
	for _, color := range b.Column(col) {
		if color != ColorNone {
			n++
		}
	}
	return n
}

// Full reports whether every cell holds a jewel.
func (b *Board) Full() bool {
	for _, color := range b.Cells {
		if color == ColorNone {
			return false
		}
	}
	return true
}

// Tokens returns every occupied cell in row-major order.
func (b *Board) Tokens() []Token {
	tokens := make([]Token, 0, len(b.Cells))
	for row := 0; row < b.H; row++ {
		for col := 0; col < b.W; col++ {
			if t, ok := b.Get(C(col, row)); ok {
				tokens = append(tokens, t)
			}
		}
	}
	return tokens
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	cells := make([]Color, len(b.Cells))
	copy(cells, b.Cells)
	return &Board{W: b.W, H: b.H, Cells: cells}
}

// Equal returns true if both boards have the same dimensions and contents.
func (b *Board) Equal(other *Board) bool {
	if other == nil || b.W != other.W || b.H != other.H {
		return false
	}
	for i, color := range b.Cells {
		if color != other.Cells[i] {
			return false
		}
	}
	return true
}

// Rows returns one string per row using Color.Char letters.
func (b *Board) Rows() []string {
	rows := make([]string, b.H)
	var sb strings.Builder
	for row := 0; row < b.H; row++ {
		sb.Reset()
		for col := 0; col < b.W; col++ {
			sb.WriteRune(b.ColorAt(C(col, row)).Char())
		}
		rows[row] = sb.String()
	}
	return rows
}

// String renders the board as ASCII, one row per line.
func (b *Board) String() string {
	return strings.Join(b.Rows(), "\n")
}

type boardJSON struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Rows   []string `json:"rows"`
}

// MarshalJSON encodes the board as its row strings.
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{Width: b.W, Height: b.H, Rows: b.Rows()})
}

// UnmarshalJSON decodes a board written by MarshalJSON.
func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := FromRows(raw.Rows...)
	if err != nil {
		return err
	}
	if decoded.W != raw.Width || decoded.H != raw.Height {
		return fmt.Errorf("board: declared %dx%d but rows are %dx%d", raw.Width, raw.Height, decoded.W, decoded.H)
	}
	*b = *decoded
	return nil
}
