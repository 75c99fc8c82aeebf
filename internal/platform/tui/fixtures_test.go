package tui

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/core"
	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/engine"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
)

var (
	alice = duel.PlayerInfo{ID: "alice", DisplayName: "Alice"}
	bob   = duel.PlayerInfo{ID: "bob", DisplayName: "Bob"}
)

// chainBoard has a swap, (1,2) with (2,2), worth 75 points when refilled by
// chainSpawner.
func chainBoard() *board.Board {
	return board.MustFromRows(
		"GOPYO",
		"OGBPY",
		"YRGRR",
		"BPBOG",
		"PYBGP",
	)
}

var chainSwap = engine.SwapRequest{From: board.C(1, 2), To: board.C(2, 2)}

func chainSpawner() engine.Spawner {
	colors := []board.Color{
		board.ColorRed, board.ColorGreen, board.ColorBlue,
		board.ColorOrange, board.ColorBlue, board.ColorYellow,
	}
	return engine.SpawnerFunc(func(board.Coord) board.Color {
		if len(colors) == 0 {
			return board.ColorWhite
		}
		c := colors[0]
		colors = colors[1:]
		return c
	})
}

func testRules() duel.Rules {
	r := duel.DefaultRules()
	r.Width = 5
	r.Height = 5
	return r
}

func testRuntime() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 80, ScreenH: 30, AnimFPS: 10, Seed: 1}
}

type memArchiver struct {
	mu      sync.Mutex
	records []multiplayer.MatchRecord
}

func (a *memArchiver) ArchiveMatch(rec multiplayer.MatchRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return nil
}

type recordingSender struct {
	msgs []multiplayer.CoordinatorMessage
}

func (s *recordingSender) Send(msg multiplayer.CoordinatorMessage) {
	s.msgs = append(s.msgs, msg)
}

func newHotSeat(t *testing.T, archiver multiplayer.MatchArchiver) *HotSeatController {
	t.Helper()
	ctrl, err := NewHotSeatController(testRules(), alice, bob, 1, archiver,
		duel.WithBoard(chainBoard()),
		duel.WithSpawner(chainSpawner()),
	)
	require.NoError(t, err)
	return ctrl
}

// keyMsg builds the key message whose String() is k.
func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func updateDuel(t *testing.T, m DuelModel, msg tea.Msg) (DuelModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	dm, ok := next.(DuelModel)
	require.True(t, ok)
	return dm, cmd
}

// pressKeys feeds keys in order and returns the last command.
func pressKeys(t *testing.T, m DuelModel, keys ...string) (DuelModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = updateDuel(t, m, keyMsg(k))
	}
	return m, cmd
}
