package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/engine"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
)

// Controller carries a duel view's actions to wherever the session lives.
// Outcomes come back as multiplayer session events so the view handles
// local and remote play the same way.
type Controller interface {
	// Snapshot is the state to draw before the first event arrives.
	Snapshot() duel.Snapshot
	SubmitSwap(req engine.SwapRequest) tea.Cmd
	UsePowerUp(use duel.PowerUpUse) tea.Cmd
	// Tick lets a local controller run the turn clock.
	Tick(now time.Time) tea.Cmd
	// Listen waits for the next remote event. Local controllers return nil.
	Listen() tea.Cmd
	// Controls reports whether the local user plays the given side.
	Controls(side duel.Side) bool
	// Leave abandons an unfinished duel.
	Leave()
	// Restart deals a new duel with the same players when supported.
	Restart() (duel.Snapshot, bool)
}

// HotSeatController runs a session in-process for two players sharing one
// terminal. Finished duels go to the archiver once.
type HotSeatController struct {
	rules    duel.Rules
	players  [2]duel.PlayerInfo
	seed     int64
	archiver multiplayer.MatchArchiver
	opts     []duel.Option
	clock    func() time.Time

	session  *duel.Session
	archived bool
}

// NewHotSeatController seats p1 and p2 at a fresh board. A zero seed uses
// the current time. archiver may be nil.
func NewHotSeatController(rules duel.Rules, p1, p2 duel.PlayerInfo, seed int64, archiver multiplayer.MatchArchiver, opts ...duel.Option) (*HotSeatController, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	c := &HotSeatController{
		rules:    rules,
		players:  [2]duel.PlayerInfo{p1, p2},
		seed:     seed,
		archiver: archiver,
		opts:     opts,
		clock:    time.Now,
	}
	if err := c.deal(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *HotSeatController) deal() error {
	opts := append([]duel.Option{
		duel.WithSource(board.NewSource(c.seed)),
		duel.WithClock(func() time.Time { return c.clock() }),
	}, c.opts...)
	s, err := duel.New(uuid.NewString(), c.players[0], c.players[1], c.rules, opts...)
	if err != nil {
		return err
	}
	c.session = s
	c.archived = false
	return nil
}

// Snapshot returns the current session state.
func (c *HotSeatController) Snapshot() duel.Snapshot {
	return c.session.Snapshot()
}

// SubmitSwap plays req for whoever is to move.
func (c *HotSeatController) SubmitSwap(req engine.SwapRequest) tea.Cmd {
	res, err := c.session.SubmitSwap(req)
	return c.reply(res, err)
}

// UsePowerUp spends a power-up of whoever is to move.
func (c *HotSeatController) UsePowerUp(use duel.PowerUpUse) tea.Cmd {
	res, err := c.session.UsePowerUp(c.session.ActivePlayer().ID, use)
	return c.reply(res, err)
}

// Tick passes the turn when the clock has run out.
func (c *HotSeatController) Tick(now time.Time) tea.Cmd {
	res, passed := c.session.EvaluateClock(now)
	if !passed {
		return nil
	}
	return c.reply(res, nil)
}

// Listen returns nil; every event is produced synchronously.
func (c *HotSeatController) Listen() tea.Cmd {
	return nil
}

// Controls is true for both sides.
func (c *HotSeatController) Controls(duel.Side) bool {
	return true
}

// Leave cancels an unfinished duel.
func (c *HotSeatController) Leave() {
	if c.session.Status().Terminal() {
		return
	}
	if err := c.session.ForceAbort(duel.EndCancelled); err == nil {
		c.archive()
	}
}

// Restart deals the next duel with a new seed.
func (c *HotSeatController) Restart() (duel.Snapshot, bool) {
	c.Leave()
	c.seed++
	if err := c.deal(); err != nil {
		return duel.Snapshot{}, false
	}
	return c.session.Snapshot(), true
}

func (c *HotSeatController) reply(res duel.ActionResult, err error) tea.Cmd {
	id := multiplayer.MatchID(c.session.ID())
	if err != nil {
		evt := multiplayer.ActionErrorEvent{MatchID: id, Message: err.Error()}
		return func() tea.Msg { return evt }
	}
	c.archive()
	evt := multiplayer.BoardUpdateEvent{MatchID: id, Result: res, Snapshot: c.session.Snapshot()}
	return func() tea.Msg { return evt }
}

func (c *HotSeatController) archive() {
	if c.archived || c.archiver == nil || !c.session.Status().Terminal() {
		return
	}
	c.archived = true
	//nolint:errcheck // Best-effort save, the duel is over regardless
	c.archiver.ArchiveMatch(multiplayer.NewMatchRecord(multiplayer.MatchModeHotSeat, c.session))
}

// MessageSender accepts coordinator messages. *multiplayer.Coordinator
// satisfies it.
type MessageSender interface {
	Send(msg multiplayer.CoordinatorMessage)
}

// OnlineController forwards actions to the coordinator and waits for the
// hub's broadcasts on the session's event channel.
type OnlineController struct {
	sender    MessageSender
	sessionID multiplayer.SessionID
	matchID   multiplayer.MatchID
	side      duel.Side
	snapshot  duel.Snapshot
	eventChan <-chan multiplayer.SessionEvent
}

// NewOnlineController builds a controller for the match announced by started.
func NewOnlineController(
	sender MessageSender,
	sessionID multiplayer.SessionID,
	started multiplayer.MatchStartedEvent,
	eventChan <-chan multiplayer.SessionEvent,
) *OnlineController {
	return &OnlineController{
		sender:    sender,
		sessionID: sessionID,
		matchID:   started.MatchID,
		side:      started.Side,
		snapshot:  started.Snapshot,
		eventChan: eventChan,
	}
}

// Snapshot returns the state sent with the match start.
func (c *OnlineController) Snapshot() duel.Snapshot {
	return c.snapshot
}

// SubmitSwap sends req to the coordinator. The result arrives as an event.
func (c *OnlineController) SubmitSwap(req engine.SwapRequest) tea.Cmd {
	c.sender.Send(multiplayer.SubmitSwapMsg{SessionID: c.sessionID, MatchID: c.matchID, Swap: req})
	return nil
}

// UsePowerUp sends use to the coordinator.
func (c *OnlineController) UsePowerUp(use duel.PowerUpUse) tea.Cmd {
	c.sender.Send(multiplayer.UsePowerUpMsg{SessionID: c.sessionID, MatchID: c.matchID, Use: use})
	return nil
}

// Tick does nothing; the coordinator sweeps clocks.
func (c *OnlineController) Tick(time.Time) tea.Cmd {
	return nil
}

// Listen returns a command that waits for coordinator events.
func (c *OnlineController) Listen() tea.Cmd {
	return waitForEvent(c.eventChan)
}

// Controls reports whether side is this session's seat.
func (c *OnlineController) Controls(side duel.Side) bool {
	return side == c.side
}

// Leave forfeits the match.
func (c *OnlineController) Leave() {
	c.sender.Send(multiplayer.LeaveMatchMsg{SessionID: c.sessionID, MatchID: c.matchID})
}

// Restart is not supported online; players go back through the lobby.
func (c *OnlineController) Restart() (duel.Snapshot, bool) {
	return duel.Snapshot{}, false
}
