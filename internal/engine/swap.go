// Package engine resolves player actions on a board: swap validation, the
// clear/gravity/refill cascade and the ordered board deltas a renderer replays.
// Everything here is synchronous and deterministic for a given Spawner.
package engine

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/match"
)

// ErrInvalidSwap is returned for out-of-bounds or non-adjacent swap requests.
// The board is never touched when it is returned.
var ErrInvalidSwap = errors.New("engine: invalid swap")

// SwapRequest asks to exchange two cells.
type SwapRequest struct {
	From board.Coord `json:"from"`
	To   board.Coord `json:"to"`
}

// Validate checks bounds and four-directional adjacency.
func (r SwapRequest) Validate(b *board.Board) error {
	if !b.InBounds(r.From) || !b.InBounds(r.To) {
		return fmt.Errorf("%w: %s -> %s is out of bounds", ErrInvalidSwap, r.From, r.To)
	}
	if !r.From.Adjacent(r.To) {
		return fmt.Errorf("%w: %s and %s are not adjacent", ErrInvalidSwap, r.From, r.To)
	}
	return nil
}

// OutcomeKind classifies what a swap did to the board.
type OutcomeKind string

const (
	// OutcomeReverted means the swap made no run and was undone.
	OutcomeReverted OutcomeKind = "reverted"
	// OutcomeMatched means the swap made at least one run and stays applied.
	OutcomeMatched OutcomeKind = "matched"
	// OutcomeSwapped is a forced swap that made no run but stays applied.
	OutcomeSwapped OutcomeKind = "swapped"
)

// Outcome is the result of a swap attempt.
type Outcome struct {
	Kind OutcomeKind  `json:"kind"`
	Runs match.RunSet `json:"runs"`
}

// Matched reports whether the swap produced runs.
func (o Outcome) Matched() bool {
	return o.Kind == OutcomeMatched
}

// TrySwap validates and performs a swap, keeping it only when a run passes
// through either endpoint. A reverted swap leaves the board exactly as it was.
func TrySwap(b *board.Board, req SwapRequest) (Outcome, error) {
	if err := req.Validate(b); err != nil {
		return Outcome{}, err
	}

	b.Swap(req.From, req.To)
	runs := match.RunsThrough(b, req.From)
	runs.Merge(match.RunsThrough(b, req.To))

	if runs.Empty() {
		b.Swap(req.From, req.To)
		return Outcome{Kind: OutcomeReverted}, nil
	}
	return Outcome{Kind: OutcomeMatched, Runs: runs}, nil
}
