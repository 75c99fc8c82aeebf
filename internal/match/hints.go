package match

import "github.com/vovakirdan/jewel-duel/internal/board"

// Move is an adjacent swap that would produce at least one run.
type Move struct {
	From    board.Coord `json:"from"`
	To      board.Coord `json:"to"`
	Cleared int         `json:"cleared"` // cells the first clear would remove
}

// PossibleMoves tries every right and down neighbour swap and returns the
// ones that match. The board is restored before returning.
func PossibleMoves(b *board.Board) []Move {
	var moves []Move
	for row := 0; row < b.H; row++ {
		for col := 0; col < b.W; col++ {
			from := board.C(col, row)
			for _, to := range []board.Coord{from.Add(1, 0), from.Add(0, 1)} {
				if !b.InBounds(to) || b.ColorAt(from) == b.ColorAt(to) {
					continue
				}
				if n := trySwap(b, from, to); n > 0 {
					moves = append(moves, Move{From: from, To: to, Cleared: n})
				}
			}
		}
	}
	return moves
}

// HasMove reports whether at least one matching swap exists.
func HasMove(b *board.Board) bool {
	for row := 0; row < b.H; row++ {
		for col := 0; col < b.W; col++ {
			from := board.C(col, row)
			for _, to := range []board.Coord{from.Add(1, 0), from.Add(0, 1)} {
				if !b.InBounds(to) || b.ColorAt(from) == b.ColorAt(to) {
					continue
				}
				if trySwap(b, from, to) > 0 {
					return true
				}
			}
		}
	}
	return false
}

// trySwap swaps, counts the cells that would clear, then undoes the swap.
func trySwap(b *board.Board, from, to board.Coord) int {
	b.Swap(from, to)
	runs := RunsThrough(b, from)
	runs.Merge(RunsThrough(b, to))
	b.Swap(from, to)
	return runs.Size()
}
