package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/match"
)

// sequence spawns colors in a fixed order and fails the test when it runs out.
type sequence struct {
	t      *testing.T
	colors []board.Color
	spawns []board.Coord
}

func newSequence(t *testing.T, letters string) *sequence {
	t.Helper()
	s := &sequence{t: t}
	for _, r := range letters {
		c, ok := board.ParseColor(string(r))
		require.True(t, ok, "bad color letter %q", r)
		s.colors = append(s.colors, c)
	}
	return s
}

func (s *sequence) Spawn(at board.Coord) board.Color {
	if len(s.colors) == 0 {
		s.t.Fatalf("unexpected spawn at %s", at)
	}
	c := s.colors[0]
	s.colors = s.colors[1:]
	s.spawns = append(s.spawns, at)
	return c
}

func TestSwapNonAdjacentIsInvalid(t *testing.T) {
	b := board.MustFromRows(
		"RGBYP",
		"GBYPR",
		"BYPRG",
	)
	before := b.Clone()
	e := New(newSequence(t, ""))

	_, err := e.Swap(b, SwapRequest{From: board.C(0, 0), To: board.C(2, 0)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSwap))
	assert.True(t, b.Equal(before))

	_, err = e.Swap(b, SwapRequest{From: board.C(1, 1), To: board.C(2, 2)})
	assert.ErrorIs(t, err, ErrInvalidSwap, "diagonal neighbours are not adjacent")
	assert.True(t, b.Equal(before))
}

func TestSwapOutOfBoundsIsInvalid(t *testing.T) {
	b := board.MustFromRows(
		"RGB",
		"GBR",
	)
	before := b.Clone()

	_, err := TrySwap(b, SwapRequest{From: board.C(2, 1), To: board.C(3, 1)})
	assert.ErrorIs(t, err, ErrInvalidSwap)
	_, err = TrySwap(b, SwapRequest{From: board.C(0, -1), To: board.C(0, 0)})
	assert.ErrorIs(t, err, ErrInvalidSwap)
	assert.True(t, b.Equal(before))
}

func TestSwapWithoutRunReverts(t *testing.T) {
	b := board.MustFromRows(
		"RGBY",
		"GBYR",
		"BYRG",
	)
	before := b.Clone()
	e := New(newSequence(t, ""))

	res, err := e.Swap(b, SwapRequest{From: board.C(0, 0), To: board.C(1, 0)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReverted, res.Outcome.Kind)
	assert.True(t, res.Outcome.Runs.Empty())
	assert.Zero(t, res.Report.TotalCleared)
	assert.True(t, b.Equal(before), "reverted swap must restore the board:\n%s", b)

	require.Len(t, res.Deltas, 2)
	assert.Equal(t, DeltaSwapped, res.Deltas[0].Kind)
	assert.Equal(t, DeltaSwapped, res.Deltas[1].Kind)
}

func TestTrySwapMatchedKeepsSwap(t *testing.T) {
	b := board.MustFromRows(
		"RGRR",
		"BRYB",
	)

	out, err := TrySwap(b, SwapRequest{From: board.C(1, 0), To: board.C(1, 1)})
	require.NoError(t, err)
	require.True(t, out.Matched())
	assert.Equal(t, board.ColorRed, b.ColorAt(board.C(1, 0)))
	assert.Equal(t, board.ColorGreen, b.ColorAt(board.C(1, 1)))
	assert.Equal(t, 4, out.Runs.Size())
}

// The swap completes a horizontal run in row 2. Refilling column 2 drops a
// blue jewel onto two others, which clears on the second iteration.
func TestChainReactionInSwappedColumn(t *testing.T) {
	b := board.MustFromRows(
		"GOPYO",
		"OGBPY",
		"YRGRR",
		"BPBOG",
		"PYBGP",
	)
	spawner := newSequence(t, "RGBOBY")
	e := New(spawner)

	res, err := e.Swap(b, SwapRequest{From: board.C(1, 2), To: board.C(2, 2)})
	require.NoError(t, err)
	require.Equal(t, OutcomeMatched, res.Outcome.Kind)

	assert.Equal(t, []string{
		"GOYGB",
		"OGBYO",
		"YGOPY",
		"BPROG",
		"PYPGP",
	}, b.Rows())
	assert.Equal(t, 6, res.Report.TotalCleared)
	assert.Equal(t, 2, res.Report.Iterations)
	assert.Equal(t, map[int]int{2: 4, 3: 1, 4: 1}, res.Report.PerColumnCleared)
	assert.Empty(t, spawner.colors, "every scripted spawn must be used")
	assert.True(t, match.Stable(b))
}

// The vertical swap in column 2 clears row 2 columns 0 to 2. The blue jewel
// that falls into (1,2) lands on two more blues, so column 1 clears on the
// second iteration and only that column refills.
func TestChainReactionInNeighbourColumn(t *testing.T) {
	b := board.MustFromRows(
		"YPOYG",
		"OBRPY",
		"RRGOB",
		"PBYGO",
		"GBOPY",
	)
	spawner := newSequence(t, "BORRGY")
	e := New(spawner)

	res, err := e.Swap(b, SwapRequest{From: board.C(2, 1), To: board.C(2, 2)})
	require.NoError(t, err)
	require.True(t, res.Outcome.Matched())

	assert.Equal(t, []string{
		"BYRYG",
		"YGOPY",
		"ORGOB",
		"POYGO",
		"GPOPY",
	}, b.Rows())
	assert.Equal(t, 6, res.Report.TotalCleared)
	assert.Equal(t, 2, res.Report.Iterations)
	assert.Equal(t, map[int]int{0: 1, 1: 4, 2: 1}, res.Report.PerColumnCleared)

	var fell bool
	for _, d := range res.Deltas {
		if d.Kind == DeltaMoved && d.To == board.C(1, 2) && d.Color == board.ColorBlue {
			fell = true
		}
	}
	assert.True(t, fell, "a blue jewel falls into (1,2) before column 1 clears")

	// Second iteration spawns fill column 1 from the lowest empty row up.
	require.Len(t, spawner.spawns, 6)
	assert.Equal(t, []board.Coord{board.C(1, 2), board.C(1, 1), board.C(1, 0)}, spawner.spawns[3:])
}

func TestDeltaReplayReproducesBoard(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		src := board.NewSource(seed)
		b := Deal(8, 8, 5, src)
		moves := match.PossibleMoves(b)
		require.NotEmpty(t, moves, "seed %d", seed)

		before := b.Clone()
		rec := &Recorder{}
		e := New(RandomSpawner{Src: src, Palette: 5}, WithSink(rec))

		res, err := e.Swap(b, SwapRequest{From: moves[0].From, To: moves[0].To})
		require.NoError(t, err)
		assert.Equal(t, res.Deltas, rec.Deltas, "sink must see the same deltas")

		ApplyAll(before, res.Deltas)
		assert.True(t, before.Equal(b), "seed %d: replay diverged", seed)
	}
}

func TestCascadeKeepsBoardFullAndStable(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		src := board.NewSource(seed)
		b := Deal(8, 8, 4, src)
		e := New(RandomSpawner{Src: src, Palette: 4})

		for turn := 0; turn < 5; turn++ {
			moves := match.PossibleMoves(b)
			if len(moves) == 0 {
				break
			}
			m := moves[len(moves)/2]
			res, err := e.Swap(b, SwapRequest{From: m.From, To: m.To})
			require.NoError(t, err)
			require.True(t, res.Outcome.Matched())

			for col := 0; col < b.W; col++ {
				assert.Equal(t, b.H, b.ColumnCount(col), "seed %d: column %d lost jewels", seed, col)
			}
			assert.True(t, match.Stable(b), "seed %d: runs left after cascade:\n%s", seed, b)
			assert.GreaterOrEqual(t, res.Report.TotalCleared, m.Cleared)
		}
	}
}

func TestGravityPreservesOrder(t *testing.T) {
	b := board.MustFromRows(
		"R",
		"G",
		"B",
		"Y",
		"P",
	)
	e := New(newSequence(t, "OC"))

	res := e.ClearCells(b, []board.Coord{board.C(0, 2), board.C(0, 4)})
	assert.Equal(t, []string{"C", "O", "R", "G", "Y"}, b.Rows())
	assert.Equal(t, 2, res.Report.TotalCleared)
	assert.Equal(t, 1, res.Report.Iterations)
}

func TestClearCellsSkipsEmptyAndDuplicates(t *testing.T) {
	b := board.MustFromRows(
		"RG",
		"BY",
	)
	e := New(newSequence(t, "P"))

	res := e.ClearCells(b, []board.Coord{board.C(1, 0), board.C(1, 0), board.C(5, 5)})
	assert.Equal(t, 1, res.Report.TotalCleared)
	assert.Equal(t, []string{"RP", "BY"}, b.Rows())
}

func TestForceSwap(t *testing.T) {
	b := board.MustFromRows(
		"RGBY",
		"GBYR",
		"BYRG",
	)
	e := New(newSequence(t, ""))

	res, err := e.ForceSwap(b, board.C(0, 0), board.C(3, 2))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSwapped, res.Outcome.Kind)
	assert.Equal(t, []string{"GGBY", "GBYR", "BYRR"}, b.Rows())

	_, err = e.ForceSwap(b, board.C(1, 1), board.C(1, 1))
	assert.ErrorIs(t, err, ErrInvalidSwap)
	_, err = e.ForceSwap(b, board.C(1, 1), board.C(9, 1))
	assert.ErrorIs(t, err, ErrInvalidSwap)
}

func TestReshuffle(t *testing.T) {
	src := board.NewSource(7)
	b := board.MustFromRows(
		"RGB",
		"GBR",
		"BRG",
	)
	require.False(t, match.HasMove(b))
	e := New(RandomSpawner{Src: src, Palette: 4})

	res := e.Reshuffle(b, 4, src)
	assert.Len(t, res.Deltas, 9)
	assert.True(t, b.Full())
	assert.True(t, match.Stable(b))
	assert.True(t, match.HasMove(b))
}

func TestDealHasMove(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		b := Deal(6, 6, 5, board.NewSource(seed))
		assert.True(t, match.Stable(b))
		assert.True(t, match.HasMove(b), "seed %d", seed)
	}
}
