// Package match finds runs of three or more equal jewels on a board.
package match

import (
	"fmt"
	"sort"

	"github.com/vovakirdan/jewel-duel/internal/board"
)

// MinRun is the shortest sequence of equal colors that clears.
const MinRun = 3

// Axis is the direction a run extends along.
type Axis uint8

const (
	Horizontal Axis = iota
	Vertical
)

// String returns the axis name.
func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// MarshalText encodes the axis by name.
func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes "horizontal" or "vertical".
func (a *Axis) UnmarshalText(text []byte) error {
	switch string(text) {
	case "horizontal":
		*a = Horizontal
	case "vertical":
		*a = Vertical
	default:
		return fmt.Errorf("match: unknown axis %q", string(text))
	}
	return nil
}

// Run is a maximal sequence of equal colors along one axis.
// Start is the leftmost (horizontal) or topmost (vertical) cell.
type Run struct {
	Axis   Axis        `json:"axis"`
	Color  board.Color `json:"color"`
	Start  board.Coord `json:"start"`
	Length int         `json:"length"`
}

// Cells returns the positions covered by the run.
func (r Run) Cells() []board.Coord {
	cells := make([]board.Coord, r.Length)
	for i := range cells {
		if r.Axis == Horizontal {
			cells[i] = r.Start.Add(i, 0)
		} else {
			cells[i] = r.Start.Add(0, i)
		}
	}
	return cells
}

// Contains reports whether c lies on the run.
func (r Run) Contains(c board.Coord) bool {
	if r.Axis == Horizontal {
		return c.Row == r.Start.Row && c.Col >= r.Start.Col && c.Col < r.Start.Col+r.Length
	}
	return c.Col == r.Start.Col && c.Row >= r.Start.Row && c.Row < r.Start.Row+r.Length
}

// String returns a compact description like "red horizontal x3 from (0,2)".
func (r Run) String() string {
	return fmt.Sprintf("%s %s x%d from %s", r.Color, r.Axis, r.Length, r.Start)
}

// RunSet is a collection of distinct runs. The same run is never stored twice.
type RunSet struct {
	Runs []Run `json:"runs"`
}

// Add inserts r unless an identical run is already present.
// Returns true if the run was added.
func (s *RunSet) Add(r Run) bool {
	for _, existing := range s.Runs {
		if existing.Axis == r.Axis && existing.Start == r.Start && existing.Length == r.Length {
			return false
		}
	}
	s.Runs = append(s.Runs, r)
	return true
}

// Merge adds every run of other into s.
func (s *RunSet) Merge(other RunSet) {
	for _, r := range other.Runs {
		s.Add(r)
	}
}

// Empty reports whether the set has no runs.
func (s RunSet) Empty() bool {
	return len(s.Runs) == 0
}

// Positions returns the union of all run cells, de-duplicated and sorted in
// row-major order. A cell shared by a horizontal and a vertical run appears once.
func (s RunSet) Positions() []board.Coord {
	seen := make(map[board.Coord]bool)
	var out []board.Coord
	for _, r := range s.Runs {
		for _, c := range r.Cells() {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Size returns the number of distinct cells covered by the set.
func (s RunSet) Size() int {
	return len(s.Positions())
}
