package engine

import "github.com/vovakirdan/jewel-duel/internal/board"

// DeltaKind names a single board change.
type DeltaKind string

const (
	DeltaSwapped DeltaKind = "swapped"
	DeltaCleared DeltaKind = "cleared"
	DeltaMoved   DeltaKind = "moved"
	DeltaSpawned DeltaKind = "spawned"
)

// Delta is one step of board change, emitted in the order it happened.
// For cleared and spawned deltas From and To are the same cell.
// Step is the cascade iteration; the swap itself is step 0.
type Delta struct {
	Kind  DeltaKind   `json:"kind"`
	Step  int         `json:"step"`
	From  board.Coord `json:"from"`
	To    board.Coord `json:"to"`
	Color board.Color `json:"color"`
}

// Sink receives deltas as they are produced. The engine never waits on it.
type Sink interface {
	Emit(d Delta)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d Delta)

// Emit calls f(d).
func (f SinkFunc) Emit(d Delta) {
	f(d)
}

// Recorder is a Sink that keeps every delta in order.
type Recorder struct {
	Deltas []Delta
}

// Emit appends d.
func (r *Recorder) Emit(d Delta) {
	r.Deltas = append(r.Deltas, d)
}

// Reset drops recorded deltas.
func (r *Recorder) Reset() {
	r.Deltas = r.Deltas[:0]
}

// Apply replays a delta onto b. Replaying a full delta sequence onto the
// board as it was before the action reproduces the board after it.
func Apply(b *board.Board, d Delta) {
	switch d.Kind {
	case DeltaSwapped:
		b.Swap(d.From, d.To)
	case DeltaCleared:
		b.Clear(d.From)
	case DeltaMoved:
		b.Set(d.To, b.ColorAt(d.From))
		b.Clear(d.From)
	case DeltaSpawned:
		b.Set(d.To, d.Color)
	}
}

// ApplyAll replays every delta in order.
func ApplyAll(b *board.Board, deltas []Delta) {
	for _, d := range deltas {
		Apply(b, d)
	}
}
