// Package board holds the match-3 grid: cell coordinates, jewel colors and
// the Board itself. It knows shape and bounds only; game rules live in the
// match and engine packages.
package board

import "fmt"

// Coord is a cell position on the board.
// Col increases to the right, Row increases downward (row 0 is the top).
type Coord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// C is a convenience constructor for Coord.
func C(col, row int) Coord {
	return Coord{Col: col, Row: row}
}

// String returns the coordinate as "(col,row)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// Add returns a new Coord offset by (dc, dr).
func (c Coord) Add(dc, dr int) Coord {
	return Coord{Col: c.Col + dc, Row: c.Row + dr}
}

// Manhattan returns the Manhattan distance to another coordinate.
func (c Coord) Manhattan(other Coord) int {
	dc := c.Col - other.Col
	dr := c.Row - other.Row
	if dc < 0 {
		dc = -dc
	}
	if dr < 0 {
		dr = -dr
	}
	return dc + dr
}

// Adjacent reports whether other is a four-directional neighbour of c.
func (c Coord) Adjacent(other Coord) bool {
	return c.Manhattan(other) == 1
}
