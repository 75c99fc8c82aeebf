package duel

import (
	"fmt"
	"time"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/match"
)

// Snapshot captures the complete session state. It marshals to JSON and
// Restore turns it back into a live Session.
type Snapshot struct {
	ID           string       `json:"id"`
	Rules        Rules        `json:"rules"`
	Board        *board.Board `json:"board"`
	Players      [2]Player    `json:"players"`
	ActiveTurn   Side         `json:"activeTurn"`
	TurnNumber   int          `json:"turnNumber"`
	Status       Status       `json:"status"`
	WinnerID     *string      `json:"winnerId"`
	EndReason    EndReason    `json:"endReason,omitempty"`
	RewardCoins  int          `json:"rewardCoins"`
	StartTime    time.Time    `json:"startTime"`
	EndTime      *time.Time   `json:"endTime,omitempty"`
	TurnStarted  time.Time    `json:"turnStarted"`
	TurnDeadline *time.Time   `json:"turnDeadline,omitempty"`
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:          s.id,
		Rules:       s.rules,
		Board:       s.board.Clone(),
		Players:     [2]Player{s.players[0].clone(), s.players[1].clone()},
		ActiveTurn:  s.active,
		TurnNumber:  s.turnNumber,
		Status:      s.status,
		EndReason:   s.endReason,
		RewardCoins: s.rules.RewardCoins,
		StartTime:   s.startTime,
		TurnStarted: s.turnStarted,
	}
	if s.winnerID != "" {
		w := s.winnerID
		snap.WinnerID = &w
	}
	if s.status.Terminal() {
		t := s.endTime
		snap.EndTime = &t
	}
	if !s.turnDeadline.IsZero() {
		t := s.turnDeadline
		snap.TurnDeadline = &t
	}
	return snap
}

// Restore rebuilds a session from a snapshot. Options other than WithBoard
// apply as in New; the snapshot's board always wins.
func Restore(snap Snapshot, opts ...Option) (*Session, error) {
	if err := snap.Rules.Validate(); err != nil {
		return nil, err
	}
	if err := checkSeats(snap.Players); err != nil {
		return nil, err
	}
	if err := checkBoard(snap.Board, snap.Rules); err != nil {
		return nil, err
	}
	if snap.TurnNumber < 1 {
		return nil, fmt.Errorf("%w: turn number %d", ErrInvalidRules, snap.TurnNumber)
	}
	switch snap.Status {
	case StatusInProgress, StatusCompleted, StatusAborted:
	default:
		return nil, fmt.Errorf("%w: status %q", ErrInvalidRules, snap.Status)
	}

	o := buildOptions(snap.Rules, opts)
	s := &Session{
		id:          snap.ID,
		rules:       snap.Rules,
		board:       snap.Board.Clone(),
		src:         o.src,
		clock:       o.clock,
		startTime:   snap.StartTime,
		active:      snap.ActiveTurn,
		turnNumber:  snap.TurnNumber,
		turnStarted: snap.TurnStarted,
		status:      snap.Status,
		endReason:   snap.EndReason,
	}
	if s.active != SideSecond {
		s.active = SideFirst
	}
	if snap.WinnerID != nil {
		s.winnerID = *snap.WinnerID
	}
	if snap.EndTime != nil {
		s.endTime = *snap.EndTime
	}
	if snap.TurnDeadline != nil {
		s.turnDeadline = *snap.TurnDeadline
	}
	for i := range snap.Players {
		p := snap.Players[i].clone()
		if p.PowerUps == nil {
			p.PowerUps = make(map[PowerUpKind]int)
		}
		s.players[i] = &p
	}
	s.engine = s.newEngine(o)
	return s, nil
}

// checkSeats enforces what New guarantees about the two players: seat i
// plays side i and the ids are set and distinct.
func checkSeats(players [2]Player) error {
	for i, side := range [2]Side{SideFirst, SideSecond} {
		p := players[i]
		if p.Side != side {
			return fmt.Errorf("%w: seat %d has side %q", ErrInvalidRules, i+1, p.Side)
		}
		if p.ID == "" {
			return fmt.Errorf("%w: seat %d has no player id", ErrInvalidRules, i+1)
		}
	}
	if players[0].ID == players[1].ID {
		return fmt.Errorf("%w: both seats have id %q", ErrInvalidRules, players[0].ID)
	}
	return nil
}

// checkBoard requires a board at rest: sized by the rules, full, drawn
// from the rules' palette and without standing runs.
func checkBoard(b *board.Board, rules Rules) error {
	if b == nil || b.W != rules.Width || b.H != rules.Height || len(b.Cells) != b.W*b.H {
		return fmt.Errorf("%w: snapshot board does not match the rules", ErrInvalidRules)
	}
	for i, c := range b.Cells {
		if c == board.ColorNone {
			return fmt.Errorf("%w: empty cell %v", ErrInvalidRules, board.C(i%b.W, i/b.W))
		}
		if int(c) > rules.Colors || !c.Valid() {
			return fmt.Errorf("%w: color %v outside a %d-color palette", ErrInvalidRules, c, rules.Colors)
		}
	}
	if !match.Stable(b) {
		return fmt.Errorf("%w: snapshot board has unresolved runs", ErrInvalidRules)
	}
	return nil
}
