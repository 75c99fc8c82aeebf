package duel

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/engine"
	"github.com/vovakirdan/jewel-duel/internal/match"
)

var (
	// ErrSessionTerminal is returned for any mutation on a completed or aborted session.
	ErrSessionTerminal = errors.New("duel: session is over")
	// ErrNotYourTurn is returned when the acting player is not the active one.
	ErrNotYourTurn = errors.New("duel: not your turn")
	// ErrUnknownPlayer is returned for a player id that is not seated in the session.
	ErrUnknownPlayer = errors.New("duel: unknown player")
	// ErrPowerUpNotHeld is returned when a player uses a power-up they do not own.
	ErrPowerUpNotHeld = errors.New("duel: power-up not held")
	// ErrInvalidTarget is returned for power-up targets outside the board.
	ErrInvalidTarget = errors.New("duel: invalid power-up target")
)

// ActionKind classifies what produced an ActionResult.
type ActionKind string

const (
	ActionSwap    ActionKind = "swap"
	ActionPowerUp ActionKind = "powerup"
	ActionTimeout ActionKind = "timeout"
)

// ActionResult describes one resolved action.
type ActionResult struct {
	Kind           ActionKind         `json:"kind"`
	Actor          string             `json:"actor"`
	PowerUp        PowerUpKind        `json:"powerUp,omitempty"`
	Outcome        engine.OutcomeKind `json:"outcome,omitempty"`
	Report         engine.ClearReport `json:"report"`
	Deltas         []engine.Delta     `json:"deltas"`
	PointsAwarded  int                `json:"pointsAwarded"`
	PowerUpGranted PowerUpKind        `json:"powerUpGranted,omitempty"`
	Moves          []match.Move       `json:"moves,omitempty"`
	Reshuffled     bool               `json:"reshuffled"`
	TurnPassed     bool               `json:"turnPassed"`
	Status         Status             `json:"status"`
}

// Session is a two-player duel on one board.
type Session struct {
	id      string
	rules   Rules
	board   *board.Board
	engine  *engine.Engine
	src     board.Source
	clock   func() time.Time
	players [2]*Player

	startTime    time.Time
	active       Side
	turnNumber   int
	turnStarted  time.Time
	turnDeadline time.Time
	status       Status
	winnerID     string
	endReason    EndReason
	endTime      time.Time
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	src     board.Source
	clock   func() time.Time
	sink    engine.Sink
	board   *board.Board
	spawner engine.Spawner
}

// WithSource sets the random source for dealing, refills and power-up grants.
func WithSource(src board.Source) Option {
	return func(o *sessionOptions) {
		o.src = src
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *sessionOptions) {
		o.clock = clock
	}
}

// WithSink streams board deltas as they are produced.
func WithSink(sink engine.Sink) Option {
	return func(o *sessionOptions) {
		o.sink = sink
	}
}

// WithBoard starts from a copy of b instead of a fresh deal.
func WithBoard(b *board.Board) Option {
	return func(o *sessionOptions) {
		o.board = b.Clone()
	}
}

// WithSpawner overrides the refill color source.
func WithSpawner(sp engine.Spawner) Option {
	return func(o *sessionOptions) {
		o.spawner = sp
	}
}

func buildOptions(rules Rules, opts []Option) sessionOptions {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = board.NewSource(0)
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.spawner == nil {
		o.spawner = engine.RandomSpawner{Src: o.src, Palette: rules.Colors}
	}
	return o
}

// New seats two players and deals a board. player1 moves first.
func New(id string, player1, player2 PlayerInfo, rules Rules, opts ...Option) (*Session, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if player1.ID == "" || player2.ID == "" {
		return nil, fmt.Errorf("%w: player id is empty", ErrUnknownPlayer)
	}
	if player1.ID == player2.ID {
		return nil, fmt.Errorf("%w: both seats have id %q", ErrUnknownPlayer, player1.ID)
	}

	o := buildOptions(rules, opts)
	b := o.board
	if b == nil {
		b = engine.Deal(rules.Width, rules.Height, rules.Colors, o.src)
	}

	now := o.clock()
	s := &Session{
		id:         id,
		rules:      rules,
		board:      b,
		src:        o.src,
		clock:      o.clock,
		startTime:  now,
		active:     SideFirst,
		turnNumber: 1,
		status:     StatusInProgress,
	}
	s.engine = s.newEngine(o)
	s.players[0] = newPlayer(player1, SideFirst, rules)
	s.players[1] = newPlayer(player2, SideSecond, rules)
	s.startTurn(now)
	return s, nil
}

func (s *Session) newEngine(o sessionOptions) *engine.Engine {
	var eopts []engine.Option
	if o.sink != nil {
		eopts = append(eopts, engine.WithSink(o.sink))
	}
	return engine.New(o.spawner, eopts...)
}

func newPlayer(info PlayerInfo, side Side, rules Rules) *Player {
	name := info.DisplayName
	if name == "" {
		name = info.ID
	}
	return &Player{
		ID:          info.ID,
		DisplayName: name,
		Avatar:      info.Avatar,
		Side:        side,
		PowerUps:    make(map[PowerUpKind]int),
		BetCoins:    rules.BetCoins,
		Online:      true,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Rules returns the rules the session was created with.
func (s *Session) Rules() Rules { return s.rules }

// Board returns a copy of the current board.
func (s *Session) Board() *board.Board { return s.board.Clone() }

// Status returns the lifecycle state.
func (s *Session) Status() Status { return s.status }

// EndReason returns why the session ended, or "" while in progress.
func (s *Session) EndReason() EndReason { return s.endReason }

// ActiveTurn returns the side to move.
func (s *Session) ActiveTurn() Side { return s.active }

// TurnNumber starts at 1 and advances once per resolved action.
func (s *Session) TurnNumber() int { return s.turnNumber }

// StartTime returns when the session was created.
func (s *Session) StartTime() time.Time { return s.startTime }

// TurnDeadline returns when the active turn times out, or the zero time
// when there is no turn clock.
func (s *Session) TurnDeadline() time.Time { return s.turnDeadline }

// Winner returns the winning player id. ok is false while in progress,
// after an abort and on a tie.
func (s *Session) Winner() (id string, ok bool) {
	return s.winnerID, s.winnerID != ""
}

// RewardCoins returns the coins paid to the winner.
func (s *Session) RewardCoins() int { return s.rules.RewardCoins }

// Player returns a copy of the player on the given side.
func (s *Session) Player(side Side) Player {
	return s.players[side.index()].clone()
}

// ActivePlayer returns a copy of the player to move.
func (s *Session) ActivePlayer() Player {
	return s.Player(s.active)
}

// Duration is the time from start to end, or to now while in progress.
func (s *Session) Duration() time.Duration {
	if s.status.Terminal() {
		return s.endTime.Sub(s.startTime)
	}
	return s.clock().Sub(s.startTime)
}

// PossibleMoves lists every swap that would match on the current board.
func (s *Session) PossibleMoves() []match.Move {
	return match.PossibleMoves(s.board)
}

func (s *Session) player(id string) (*Player, error) {
	for _, p := range s.players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, id)
}

func (s *Session) activePlayer() *Player {
	return s.players[s.active.index()]
}

// SubmitSwap resolves a swap for the active player. Invalid swaps are
// rejected without touching the board or the turn; reverted and matched
// swaps both end the turn exactly once.
func (s *Session) SubmitSwap(req engine.SwapRequest) (ActionResult, error) {
	if s.status.Terminal() {
		return ActionResult{}, ErrSessionTerminal
	}

	res, err := s.engine.Swap(s.board, req)
	if err != nil {
		return ActionResult{}, err
	}

	actor := s.activePlayer()
	result := ActionResult{
		Kind:    ActionSwap,
		Actor:   actor.ID,
		Outcome: res.Outcome.Kind,
		Report:  res.Report,
		Deltas:  res.Deltas,
	}
	if res.Outcome.Matched() {
		result.PointsAwarded = s.award(actor, res.Report.TotalCleared)
		if s.rules.Scoring.GrantsPowerUp(res.Report.TotalCleared) {
			result.PowerUpGranted = s.grantPowerUp(actor)
		}
	}

	s.finishAction(&result)
	return result, nil
}

// SubmitSwapAs checks that playerID is the active player before swapping.
func (s *Session) SubmitSwapAs(playerID string, req engine.SwapRequest) (ActionResult, error) {
	if s.status.Terminal() {
		return ActionResult{}, ErrSessionTerminal
	}
	p, err := s.player(playerID)
	if err != nil {
		return ActionResult{}, err
	}
	if p.Side != s.active {
		return ActionResult{}, ErrNotYourTurn
	}
	return s.SubmitSwap(req)
}

func (s *Session) award(p *Player, cleared int) int {
	points := s.rules.Scoring.PointsForCleared(cleared)
	if p.DoublePoints && points > 0 {
		points *= s.rules.Scoring.DoublePointsMultiplier
		p.DoublePoints = false
	}
	p.Score += points
	return points
}

func (s *Session) grantPowerUp(p *Player) PowerUpKind {
	kind := AllPowerUps[s.src.IntN(len(AllPowerUps))]
	p.PowerUps[kind]++
	return kind
}

// finishAction ends the active turn: it flips the turn, restarts the clock,
// checks the move limit and reshuffles a board with no moves left.
func (s *Session) finishAction(result *ActionResult) {
	actor := s.activePlayer()
	actor.TurnCount++
	s.turnNumber++
	s.active = s.active.Other()
	result.TurnPassed = true

	now := s.clock()
	s.startTurn(now)

	if s.rules.MoveLimit > 0 && s.turnNumber-1 >= s.rules.MoveLimit {
		s.complete(now)
	} else if !match.HasMove(s.board) {
		res := s.engine.Reshuffle(s.board, s.rules.Colors, s.src)
		result.Deltas = append(result.Deltas, res.Deltas...)
		result.Reshuffled = true
	}
	result.Status = s.status
}

func (s *Session) startTurn(now time.Time) {
	s.turnStarted = now
	if s.rules.TurnTimeLimit > 0 {
		s.turnDeadline = now.Add(s.rules.TurnTimeLimit)
	} else {
		s.turnDeadline = time.Time{}
	}
}

func (s *Session) complete(now time.Time) {
	s.status = StatusCompleted
	s.endReason = EndMoveLimit
	s.endTime = now
	p1, p2 := s.players[0], s.players[1]
	switch {
	case p1.Score > p2.Score:
		s.winnerID = p1.ID
	case p2.Score > p1.Score:
		s.winnerID = p2.ID
	default:
		s.winnerID = ""
	}
}

func (s *Session) abort(reason EndReason, now time.Time) {
	s.status = StatusAborted
	s.endReason = reason
	s.endTime = now
	s.winnerID = ""
}

// MarkPlayerOffline records that a player lost their connection at at.
// An already offline player keeps the earlier timestamp.
func (s *Session) MarkPlayerOffline(playerID string, at time.Time) error {
	if s.status.Terminal() {
		return ErrSessionTerminal
	}
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	p.Online = false
	if p.OfflineSince == nil {
		t := at
		p.OfflineSince = &t
	}
	return nil
}

// MarkPlayerOnline clears a player's offline state.
func (s *Session) MarkPlayerOnline(playerID string) error {
	if s.status.Terminal() {
		return ErrSessionTerminal
	}
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	p.Online = true
	p.OfflineSince = nil
	return nil
}

// EvaluatePresence aborts the session when the active player has been
// offline longer than the configured timeout. Returns true if it aborted.
func (s *Session) EvaluatePresence(now time.Time) bool {
	if s.status.Terminal() || s.rules.OfflineTimeout <= 0 {
		return false
	}
	p := s.activePlayer()
	if p.Online || p.OfflineSince == nil {
		return false
	}
	if now.Sub(*p.OfflineSince) <= s.rules.OfflineTimeout {
		return false
	}
	s.abort(EndOfflineTimeout, now)
	return true
}

// EvaluateClock passes the turn when the active player's clock has run out.
// The timed-out turn counts toward the move limit.
func (s *Session) EvaluateClock(now time.Time) (ActionResult, bool) {
	if s.status.Terminal() || s.turnDeadline.IsZero() || !now.After(s.turnDeadline) {
		return ActionResult{}, false
	}
	result := ActionResult{Kind: ActionTimeout, Actor: s.activePlayer().ID}
	s.finishAction(&result)
	return result, true
}

// ForceAbort ends the session with no winner.
func (s *Session) ForceAbort(reason EndReason) error {
	if s.status.Terminal() {
		return ErrSessionTerminal
	}
	s.abort(reason, s.clock())
	return nil
}

// Forfeit ends the session in favour of playerID's opponent.
func (s *Session) Forfeit(playerID string) error {
	if s.status.Terminal() {
		return ErrSessionTerminal
	}
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	s.status = StatusCompleted
	s.endReason = EndForfeit
	s.endTime = s.clock()
	s.winnerID = s.players[p.Side.Other().index()].ID
	return nil
}
