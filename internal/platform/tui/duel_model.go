package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/core"
	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/engine"
	"github.com/vovakirdan/jewel-duel/internal/match"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
)

const boardTop = 4

// DuelModel is the Bubble Tea model for one duel. The board on screen lags
// the session state and catches up one replay step per tick.
type DuelModel struct {
	ctrl      Controller
	config    core.RuntimeConfig
	screen    *core.Screen
	keyMapper *KeyMapper
	keys      DuelKeyMap
	help      help.Model
	gesture   core.GestureState

	snap    duel.Snapshot
	display *board.Board
	pending []engine.Delta
	cleared map[board.Coord]bool
	hints   []match.Move
	ended   *multiplayer.MatchEndedEvent
	message string
	now     time.Time

	aiming    bool
	aimTarget board.Coord

	quitting   bool
	backToMenu bool
}

// NewDuelModel creates a duel view driven by ctrl.
func NewDuelModel(ctrl Controller, cfg core.RuntimeConfig) DuelModel {
	if cfg.AnimFPS <= 0 {
		cfg.AnimFPS = core.DefaultConfig().AnimFPS
	}
	m := DuelModel{
		ctrl:      ctrl,
		config:    cfg,
		screen:    core.NewScreen(cfg.ScreenW, screenHeight(cfg.ScreenH)),
		keyMapper: NewKeyMapper(),
		keys:      DefaultDuelKeyMap(),
		help:      help.New(),
		now:       time.Now(),
	}
	m.reset(ctrl.Snapshot())
	return m
}

// screenHeight leaves room for the help line below the board screen.
func screenHeight(h int) int {
	return max(h-2, 1)
}

func (m *DuelModel) reset(snap duel.Snapshot) {
	m.snap = snap
	m.display = snap.Board.Clone()
	m.pending = nil
	m.cleared = nil
	m.hints = nil
	m.ended = nil
	m.message = ""
	m.aiming = false
	m.gesture = core.NewGestureState(snap.Board.W, snap.Board.H)
	if snap.Status.Terminal() {
		evt := multiplayer.NewMatchEndedEvent(snap)
		m.ended = &evt
	}
}

// Init starts the tick loop and, for online play, the event listener.
func (m DuelModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.config.AnimFPS), m.ctrl.Listen())
}

// Update handles messages and updates the model state.
func (m DuelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, screenHeight(msg.Height))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick(time.Time(msg))

	case multiplayer.BoardUpdateEvent:
		m.applyUpdate(msg)
		return m, m.ctrl.Listen()

	case multiplayer.ActionErrorEvent:
		m.message = msg.Message
		return m, m.ctrl.Listen()

	case multiplayer.PresenceEvent:
		for i := range m.snap.Players {
			if m.snap.Players[i].ID == msg.PlayerID {
				m.snap.Players[i].Online = msg.Online
				state := "left"
				if msg.Online {
					state = "is back"
				}
				m.message = fmt.Sprintf("%s %s", m.snap.Players[i].DisplayName, state)
			}
		}
		return m, m.ctrl.Listen()

	case multiplayer.MatchEndedEvent:
		m.ended = &msg
		m.snap.Status = msg.Status
		m.snap.EndReason = msg.Reason
		m.snap.Players[0].Score = msg.Score1
		m.snap.Players[1].Score = msg.Score2
		if msg.WinnerID != "" {
			w := msg.WinnerID
			m.snap.WinnerID = &w
		}
		// Nothing else arrives for a finished match.
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m DuelModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}

	action, isQuit := m.keyMapper.MapKey(msg)
	if isQuit {
		m.leave()
		m.quitting = true
		return m, tea.Quit
	}

	switch action {
	case core.ActionHelp:
		m.help.ShowAll = !m.help.ShowAll
	case core.ActionBack:
		m.leave()
		m.backToMenu = true
	case core.ActionRestart:
		if m.finished() {
			if snap, ok := m.ctrl.Restart(); ok {
				m.reset(snap)
			}
		}
	case core.ActionCancel:
		m.gesture.Cancel()
		m.aiming = false
	case core.ActionPick:
		if m.aiming {
			return m, m.fireSwapAnyTwo()
		}
		if req, ok := m.gesture.Pick(); ok {
			return m, m.submitSwap(req)
		}
	case core.ActionPowerUp:
		if kind, ok := m.keyMapper.PowerUpForKey(msg); ok {
			return m, m.usePowerUp(kind)
		}
	default:
		if d, ok := action.Dir(); ok {
			if req, ok := m.gesture.Move(d); ok {
				return m, m.submitSwap(req)
			}
		}
	}

	return m, nil
}

// handleMouse turns clicks and drags on the board into swaps.
func (m DuelModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	cell, onBoard := m.layout().CellAt(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && onBoard {
			m.gesture.Press(cell)
		}
	case tea.MouseActionRelease:
		if !onBoard {
			m.gesture.Cancel()
			return m, nil
		}
		if req, ok := m.gesture.Release(cell); ok {
			return m, m.submitSwap(req)
		}
	}
	return m, nil
}

// handleTick advances the replay and the local turn clock.
func (m DuelModel) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.now = now
	m.stepReplay()

	var cmd tea.Cmd
	if !m.finished() {
		cmd = m.ctrl.Tick(now)
	}
	return m, tea.Batch(cmd, tickCmd(m.config.AnimFPS))
}

func (m *DuelModel) leave() {
	if !m.finished() {
		m.ctrl.Leave()
	}
}

func (m *DuelModel) finished() bool {
	return m.ended != nil || m.snap.Status.Terminal()
}

// myTurn reports whether the local user may act now.
func (m *DuelModel) myTurn() bool {
	return !m.finished() && m.ctrl.Controls(m.snap.ActiveTurn)
}

func (m *DuelModel) submitSwap(req engine.SwapRequest) tea.Cmd {
	if !m.myTurn() {
		m.message = "Waiting for your opponent"
		return nil
	}
	m.message = ""
	return m.ctrl.SubmitSwap(req)
}

func (m *DuelModel) usePowerUp(kind duel.PowerUpKind) tea.Cmd {
	if !m.myTurn() {
		m.message = "Waiting for your opponent"
		return nil
	}

	use := duel.PowerUpUse{Kind: kind}
	switch kind {
	case duel.PowerUpBomb:
		use.Target = m.gesture.Cursor
	case duel.PowerUpSwapAnyTwo:
		// Two steps: mark the first jewel, then confirm on the second.
		m.gesture.Cancel()
		m.aiming = true
		m.aimTarget = m.gesture.Cursor
		m.message = "Swap any two: move to the second jewel and press space"
		return nil
	}
	m.message = ""
	return m.ctrl.UsePowerUp(use)
}

func (m *DuelModel) fireSwapAnyTwo() tea.Cmd {
	m.aiming = false
	if !m.myTurn() {
		return nil
	}
	m.message = ""
	return m.ctrl.UsePowerUp(duel.PowerUpUse{
		Kind:   duel.PowerUpSwapAnyTwo,
		Target: m.aimTarget,
		Other:  m.gesture.Cursor,
	})
}

// applyUpdate settles any replay still in flight and queues the new deltas.
func (m *DuelModel) applyUpdate(evt multiplayer.BoardUpdateEvent) {
	m.display = m.snap.Board.Clone()
	m.pending = append([]engine.Delta(nil), evt.Result.Deltas...)
	m.cleared = nil
	m.snap = evt.Snapshot
	m.hints = evt.Result.Moves
	m.message = describeResult(evt.Result, m.snap)
	if len(m.pending) == 0 {
		m.display = m.snap.Board.Clone()
	}
	if m.snap.Status.Terminal() {
		ended := multiplayer.NewMatchEndedEvent(m.snap)
		m.ended = &ended
	}
}

// stepReplay applies the next batch of pending deltas to the display board.
func (m *DuelModel) stepReplay() {
	m.cleared = nil
	if len(m.pending) == 0 {
		return
	}

	batch, rest := nextBatch(m.pending)
	for _, d := range batch {
		engine.Apply(m.display, d)
		if d.Kind == engine.DeltaCleared {
			if m.cleared == nil {
				m.cleared = make(map[board.Coord]bool)
			}
			m.cleared[d.From] = true
		}
	}
	m.pending = rest
	if len(rest) == 0 && !m.display.Equal(m.snap.Board) {
		m.display = m.snap.Board.Clone()
	}
}

func deltaPhase(k engine.DeltaKind) int {
	switch k {
	case engine.DeltaSwapped:
		return 0
	case engine.DeltaCleared:
		return 1
	}
	return 2
}

// nextBatch splits off one replay frame: a single swap, or every clear or
// every fall/refill of one cascade step.
func nextBatch(ds []engine.Delta) (batch, rest []engine.Delta) {
	first := ds[0]
	if first.Kind == engine.DeltaSwapped {
		return ds[:1], ds[1:]
	}
	n := 1
	for n < len(ds) && ds[n].Step == first.Step && deltaPhase(ds[n].Kind) == deltaPhase(first.Kind) {
		n++
	}
	return ds[:n], ds[n:]
}

func (m *DuelModel) playerName(id string) string {
	for _, p := range m.snap.Players {
		if p.ID == id {
			return p.DisplayName
		}
	}
	return id
}

func describeResult(res duel.ActionResult, snap duel.Snapshot) string {
	name := res.Actor
	for _, p := range snap.Players {
		if p.ID == res.Actor {
			name = p.DisplayName
		}
	}

	var b strings.Builder
	switch res.Kind {
	case duel.ActionTimeout:
		fmt.Fprintf(&b, "%s ran out of time", name)
	case duel.ActionPowerUp:
		fmt.Fprintf(&b, "%s used %s", name, res.PowerUp)
		if res.PowerUp == duel.PowerUpRevealMoves {
			fmt.Fprintf(&b, ": %d moves", len(res.Moves))
		}
	default:
		if res.Outcome == engine.OutcomeReverted {
			fmt.Fprintf(&b, "%s's swap made no match", name)
		} else {
			fmt.Fprintf(&b, "%s swapped", name)
		}
	}
	if res.PointsAwarded > 0 {
		fmt.Fprintf(&b, ", cleared %d for %d points", res.Report.TotalCleared, res.PointsAwarded)
	}
	if res.PowerUpGranted != "" {
		fmt.Fprintf(&b, ", earned %s", res.PowerUpGranted)
	}
	if res.Reshuffled {
		b.WriteString(" (no moves left, board reshuffled)")
	}
	return b.String()
}

func (m *DuelModel) layout() core.BoardLayout {
	return core.NewBoardLayout(m.screen.Width(), boardTop, m.display.W, m.display.H)
}

func (m *DuelModel) marks() map[board.Coord]core.Mark {
	marks := make(map[board.Coord]core.Mark)
	for _, mv := range m.hints {
		marks[mv.From] = core.MarkHint
		marks[mv.To] = core.MarkHint
	}
	if !m.finished() {
		marks[m.gesture.Cursor] = core.MarkCursor
	}
	if c, ok := m.gesture.Picked(); ok {
		marks[c] = core.MarkPicked
	}
	if m.aiming {
		marks[m.aimTarget] = core.MarkPicked
	}
	for c := range m.cleared {
		marks[c] = core.MarkCleared
	}
	return marks
}

// render draws the duel into the screen buffer.
func (m *DuelModel) render() {
	s := m.screen
	s.Clear()

	s.DrawTextCentered(0, "JEWEL DUEL")
	s.DrawTextCentered(1, m.scoreLine())
	s.DrawTextCentered(2, m.turnLine())

	l := m.layout()
	s.DrawBoard(l, m.display, m.marks())

	y := l.Frame().Bottom() + 1
	s.DrawTextCentered(y, m.powerUpLine())
	y += 2
	if m.message != "" {
		s.DrawTextCentered(y, m.message)
	}
	y += 2
	if m.ended != nil {
		s.DrawTextCentered(y, m.endLine())
		hint := "B: Menu  |  Q: Quit"
		if _, ok := m.ctrl.(*HotSeatController); ok {
			hint = "R: Rematch  |  " + hint
		}
		s.DrawTextCentered(y+1, hint)
	}
}

func (m *DuelModel) scoreLine() string {
	parts := make([]string, 0, 2)
	for _, p := range m.snap.Players {
		marker := "  "
		if !m.finished() && p.Side == m.snap.ActiveTurn {
			marker = "> "
		}
		name := p.DisplayName
		if _, hotSeat := m.ctrl.(*HotSeatController); !hotSeat && m.ctrl.Controls(p.Side) {
			name += " (you)"
		}
		if !p.Online {
			name += " [offline]"
		}
		parts = append(parts, fmt.Sprintf("%s%s %d", marker, name, p.Score))
	}
	return strings.Join(parts, "   vs   ")
}

func (m *DuelModel) turnLine() string {
	turn := fmt.Sprintf("Turn %d", m.snap.TurnNumber)
	if limit := m.snap.Rules.MoveLimit; limit > 0 {
		turn = fmt.Sprintf("Turn %d/%d", m.snap.TurnNumber, limit)
	}
	if m.finished() || m.snap.TurnDeadline == nil {
		return turn
	}
	left := m.snap.TurnDeadline.Sub(m.now)
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("%s   Clock %ds", turn, int(left.Round(time.Second)/time.Second))
}

// powerUpLine lists the power-ups of the player whose turn it is, or of the
// local player online.
func (m *DuelModel) powerUpLine() string {
	p := m.snap.Players[0]
	for _, cand := range m.snap.Players {
		if m.ctrl.Controls(cand.Side) && (cand.Side == m.snap.ActiveTurn || !m.ctrl.Controls(cand.Side.Other())) {
			p = cand
		}
	}

	var held []string
	for i, kind := range duel.AllPowerUps {
		if n := p.PowerUps[kind]; n > 0 {
			held = append(held, fmt.Sprintf("[%d] %s x%d", i+1, kind, n))
		}
	}
	if p.DoublePoints {
		held = append(held, "double points armed")
	}
	if len(held) == 0 {
		return p.DisplayName + ": no power-ups"
	}
	return p.DisplayName + ": " + strings.Join(held, "  ")
}

func (m *DuelModel) endLine() string {
	e := m.ended
	switch {
	case e.Status == duel.StatusAborted:
		return fmt.Sprintf("Match aborted (%s)", e.Reason)
	case e.WinnerID == "":
		return fmt.Sprintf("Draw %d - %d", e.Score1, e.Score2)
	default:
		return fmt.Sprintf("%s wins! %d - %d", m.playerName(e.WinnerID), e.Score1, e.Score2)
	}
}

// saveScreenshot saves the current screen to a file.
func (m *DuelModel) saveScreenshot() {
	m.render()

	dir := filepath.Join(os.Getenv("HOME"), ".jewelduel", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("duel_%s.txt", timestamp))

	//nolint:errcheck // Best-effort save, the duel continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

// View renders the current state to a string for display.
func (m DuelModel) View() string {
	if m.quitting {
		return ""
	}

	m.render()
	return RenderScreen(m.screen) + "\n" + m.help.View(m.keys)
}

// IsQuitting returns true if user requested to quit entirely.
func (m DuelModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m DuelModel) BackToMenu() bool {
	return m.backToMenu
}

// Finished reports whether the duel has ended.
func (m DuelModel) Finished() bool {
	return m.finished()
}
