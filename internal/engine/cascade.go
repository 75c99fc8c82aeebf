package engine

import (
	"fmt"
	"sort"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/match"
)

// maxDealAttempts bounds re-dealing while looking for a board with a move.
const maxDealAttempts = 100

// Spawner chooses the color of a jewel entering the board at a cell.
type Spawner interface {
	Spawn(at board.Coord) board.Color
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(at board.Coord) board.Color

// Spawn calls f(at).
func (f SpawnerFunc) Spawn(at board.Coord) board.Color {
	return f(at)
}

// RandomSpawner draws uniformly from the first Palette colors.
type RandomSpawner struct {
	Src     board.Source
	Palette int
}

// Spawn returns a random color.
func (s RandomSpawner) Spawn(board.Coord) board.Color {
	return board.RandomColor(s.Src, s.Palette)
}

// ClearReport summarizes a cascade.
type ClearReport struct {
	TotalCleared     int         `json:"totalCleared"`
	PerColumnCleared map[int]int `json:"perColumnCleared"`
	Iterations       int         `json:"iterations"`
}

// Resolution is everything one engine action did to the board.
type Resolution struct {
	Outcome Outcome     `json:"outcome"`
	Report  ClearReport `json:"report"`
	Deltas  []Delta     `json:"deltas"`
}

// Engine runs board actions with a given spawner. An optional sink sees
// every delta as it is produced; Resolutions carry them too.
type Engine struct {
	spawner Spawner
	sink    Sink
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink streams deltas to s.
func WithSink(s Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// New creates an engine refilling through spawner.
func New(spawner Spawner, opts ...Option) *Engine {
	e := &Engine{spawner: spawner}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pass collects the deltas and totals of a single action.
type pass struct {
	step   int
	report ClearReport
	deltas []Delta
	sink   Sink
}

func (e *Engine) newPass() *pass {
	return &pass{
		report: ClearReport{PerColumnCleared: make(map[int]int)},
		sink:   e.sink,
	}
}

func (p *pass) emit(d Delta) {
	d.Step = p.step
	p.deltas = append(p.deltas, d)
	if p.sink != nil {
		p.sink.Emit(d)
	}
}

func (p *pass) resolution(out Outcome) Resolution {
	return Resolution{Outcome: out, Report: p.report, Deltas: p.deltas}
}

// Resolve clears seed and cascades until no run is left.
func (e *Engine) Resolve(b *board.Board, seed match.RunSet) ClearReport {
	p := e.newPass()
	e.cascade(b, seed.Positions(), p)
	return p.report
}

// Swap runs TrySwap and, on a match, the full cascade.
func (e *Engine) Swap(b *board.Board, req SwapRequest) (Resolution, error) {
	out, err := TrySwap(b, req)
	if err != nil {
		return Resolution{}, err
	}

	p := e.newPass()
	p.emit(Delta{Kind: DeltaSwapped, From: req.From, To: req.To})
	if !out.Matched() {
		p.emit(Delta{Kind: DeltaSwapped, From: req.To, To: req.From})
		return p.resolution(out), nil
	}

	e.cascade(b, out.Runs.Positions(), p)
	return p.resolution(out), nil
}

// ForceSwap exchanges any two distinct cells without the adjacency rule.
// The swap is kept even when it makes no run.
func (e *Engine) ForceSwap(b *board.Board, a, c board.Coord) (Resolution, error) {
	if !b.InBounds(a) || !b.InBounds(c) || a == c {
		return Resolution{}, fmt.Errorf("%w: cannot exchange %s and %s", ErrInvalidSwap, a, c)
	}

	b.Swap(a, c)
	p := e.newPass()
	p.emit(Delta{Kind: DeltaSwapped, From: a, To: c})

	runs := match.RunsThrough(b, a)
	runs.Merge(match.RunsThrough(b, c))
	if runs.Empty() {
		return p.resolution(Outcome{Kind: OutcomeSwapped}), nil
	}

	out := Outcome{Kind: OutcomeMatched, Runs: runs}
	e.cascade(b, runs.Positions(), p)
	return p.resolution(out), nil
}

// ClearCells removes the given cells and cascades. Out-of-bounds and empty
// cells are skipped.
func (e *Engine) ClearCells(b *board.Board, cells []board.Coord) Resolution {
	p := e.newPass()
	e.cascade(b, cells, p)
	return p.resolution(Outcome{})
}

// Reshuffle re-deals every cell into a stable board that has at least one
// move, emitting a spawn for each cell.
func (e *Engine) Reshuffle(b *board.Board, palette int, src board.Source) Resolution {
	fresh := Deal(b.W, b.H, palette, src)
	p := e.newPass()
	p.step = 1
	for row := 0; row < b.H; row++ {
		for col := 0; col < b.W; col++ {
			at := board.C(col, row)
			color := fresh.ColorAt(at)
			b.Set(at, color)
			p.emit(Delta{Kind: DeltaSpawned, From: at, To: at, Color: color})
		}
	}
	p.report.Iterations = 1
	return p.resolution(Outcome{})
}

// cascade is the clear, gravity, refill loop. Each iteration clears the
// current cells, settles every touched column and looks for new runs in
// those columns only.
func (e *Engine) cascade(b *board.Board, cells []board.Coord, p *pass) {
	for {
		cleared := make(map[int]int)
		seen := make(map[board.Coord]bool, len(cells))
		var present []board.Coord
		for _, c := range cells {
			if !seen[c] && b.ColorAt(c) != board.ColorNone {
				seen[c] = true
				present = append(present, c)
			}
		}
		if len(present) == 0 {
			return
		}

		p.step++
		for _, c := range present {
			p.emit(Delta{Kind: DeltaCleared, From: c, To: c, Color: b.ColorAt(c)})
			b.Clear(c)
			cleared[c.Col]++
		}

		cols := make([]int, 0, len(cleared))
		for col := range cleared {
			cols = append(cols, col)
		}
		sort.Ints(cols)

		for _, col := range cols {
			e.settle(b, col, p)
			p.report.PerColumnCleared[col] += cleared[col]
			p.report.TotalCleared += cleared[col]
		}
		p.report.Iterations = p.step

		cells = match.RunsInColumns(b, cols).Positions()
	}
}

// settle drops the jewels of one column onto the lowest free cells, keeping
// their order, then spawns new jewels into the vacated top cells.
func (e *Engine) settle(b *board.Board, col int, p *pass) {
	write := b.H - 1
	for read := b.H - 1; read >= 0; read-- {
		from := board.C(col, read)
		color := b.ColorAt(from)
		if color == board.ColorNone {
			continue
		}
		if read != write {
			to := board.C(col, write)
			b.Set(to, color)
			b.Clear(from)
			p.emit(Delta{Kind: DeltaMoved, From: from, To: to, Color: color})
		}
		write--
	}

	for row := write; row >= 0; row-- {
		at := board.C(col, row)
		color := e.spawner.Spawn(at)
		b.Set(at, color)
		p.emit(Delta{Kind: DeltaSpawned, From: at, To: at, Color: color})
	}
}

// Deal creates a stable board that has at least one matching move.
func Deal(w, h, palette int, src board.Source) *board.Board {
	var b *board.Board
	for attempt := 0; attempt < maxDealAttempts; attempt++ {
		b = board.Deal(w, h, palette, src)
		if match.HasMove(b) {
			return b
		}
	}
	return b
}
