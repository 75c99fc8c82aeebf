package match

import "github.com/vovakirdan/jewel-duel/internal/board"

// RunsThrough returns the horizontal and vertical runs passing through pos.
// An empty or out-of-bounds cell has no runs.
func RunsThrough(b *board.Board, pos board.Coord) RunSet {
	var set RunSet
	color := b.ColorAt(pos)
	if color == board.ColorNone {
		return set
	}

	// Horizontal: walk left to the start, then right to the end.
	start := pos
	for b.ColorAt(start.Add(-1, 0)) == color {
		start = start.Add(-1, 0)
	}
	end := pos
	for b.ColorAt(end.Add(1, 0)) == color {
		end = end.Add(1, 0)
	}
	if n := end.Col - start.Col + 1; n >= MinRun {
		set.Add(Run{Axis: Horizontal, Color: color, Start: start, Length: n})
	}

	// Vertical
	start = pos
	for b.ColorAt(start.Add(0, -1)) == color {
		start = start.Add(0, -1)
	}
	end = pos
	for b.ColorAt(end.Add(0, 1)) == color {
		end = end.Add(0, 1)
	}
	if n := end.Row - start.Row + 1; n >= MinRun {
		set.Add(Run{Axis: Vertical, Color: color, Start: start, Length: n})
	}

	return set
}

// AllRuns returns every maximal run on the board exactly once.
func AllRuns(b *board.Board) RunSet {
	var set RunSet

	for row := 0; row < b.H; row++ {
		col := 0
		for col < b.W {
			color := b.ColorAt(board.C(col, row))
			n := 1
			for col+n < b.W && b.ColorAt(board.C(col+n, row)) == color {
				n++
			}
			if color != board.ColorNone && n >= MinRun {
				set.Add(Run{Axis: Horizontal, Color: color, Start: board.C(col, row), Length: n})
			}
			col += n
		}
	}

	for col := 0; col < b.W; col++ {
		row := 0
		for row < b.H {
			color := b.ColorAt(board.C(col, row))
			n := 1
			for row+n < b.H && b.ColorAt(board.C(col, row+n)) == color {
				n++
			}
			if color != board.ColorNone && n >= MinRun {
				set.Add(Run{Axis: Vertical, Color: color, Start: board.C(col, row), Length: n})
			}
			row += n
		}
	}

	return set
}

// RunsInColumns returns the runs that cover at least one cell of the given
// columns. Used after a refill, when only those columns have changed.
func RunsInColumns(b *board.Board, cols []int) RunSet {
	wanted := make(map[int]bool, len(cols))
	for _, c := range cols {
		wanted[c] = true
	}

	var set RunSet
	for _, r := range AllRuns(b).Runs {
		if r.Axis == Vertical {
			if wanted[r.Start.Col] {
				set.Add(r)
			}
			continue
		}
		for c := r.Start.Col; c < r.Start.Col+r.Length; c++ {
			if wanted[c] {
				set.Add(r)
				break
			}
		}
	}
	return set
}

// Stable reports whether the board has no runs.
func Stable(b *board.Board) bool {
	return AllRuns(b).Empty()
}
