package duel

import (
	"fmt"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/engine"
)

// PowerUpUse is a request to spend one held power-up. Target is the top-left
// cell for bomb and the first cell for swap-any-two; Other is the second
// cell for swap-any-two. Other kinds ignore both.
type PowerUpUse struct {
	Kind   PowerUpKind `json:"kind"`
	Target board.Coord `json:"target"`
	Other  board.Coord `json:"other"`
}

// UsePowerUp spends one power-up of the active player. Bomb, swap-any-two
// and reshuffle end the turn; the others leave it with the holder.
func (s *Session) UsePowerUp(playerID string, use PowerUpUse) (ActionResult, error) {
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
	if !use.Kind.Valid() {
		return ActionResult{}, fmt.Errorf("%w: unknown kind %q", ErrPowerUpNotHeld, use.Kind)
	}
	if p.PowerUps[use.Kind] == 0 {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrPowerUpNotHeld, use.Kind)
	}

	result := ActionResult{Kind: ActionPowerUp, Actor: p.ID, PowerUp: use.Kind, Status: s.status}

	switch use.Kind {
	case PowerUpBomb:
		corner := use.Target.Add(1, 1)
		if !s.board.InBounds(use.Target) || !s.board.InBounds(corner) {
			return ActionResult{}, fmt.Errorf("%w: 2x2 block at %s leaves the board", ErrInvalidTarget, use.Target)
		}
		res := s.engine.ClearCells(s.board, []board.Coord{
			use.Target, use.Target.Add(1, 0), use.Target.Add(0, 1), corner,
		})
		s.applyResolution(p, res, &result)

	case PowerUpSwapAnyTwo:
		res, err := s.engine.ForceSwap(s.board, use.Target, use.Other)
		if err != nil {
			return ActionResult{}, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}
		s.applyResolution(p, res, &result)

	case PowerUpReshuffle:
		res := s.engine.Reshuffle(s.board, s.rules.Colors, s.src)
		result.Deltas = res.Deltas

	case PowerUpRevealMoves:
		result.Moves = s.PossibleMoves()

	case PowerUpDoublePoints:
		p.DoublePoints = true

	case PowerUpFreezeTimer:
		if !s.turnDeadline.IsZero() {
			s.turnDeadline = s.turnDeadline.Add(s.rules.FreezeExtension)
		}
	}

	p.PowerUps[use.Kind]--
	if p.PowerUps[use.Kind] == 0 {
		delete(p.PowerUps, use.Kind)
	}

	if use.Kind.ConsumesTurn() {
		s.finishAction(&result)
	}
	return result, nil
}

func (s *Session) applyResolution(p *Player, res engine.Resolution, result *ActionResult) {
	result.Outcome = res.Outcome.Kind
	result.Report = res.Report
	result.Deltas = res.Deltas
	result.PointsAwarded = s.award(p, res.Report.TotalCleared)
	if s.rules.Scoring.GrantsPowerUp(res.Report.TotalCleared) {
		result.PowerUpGranted = s.grantPowerUp(p)
	}
}

// GrantPowerUp gives a player one power-up of the given kind.
func (s *Session) GrantPowerUp(playerID string, kind PowerUpKind) error {
	if s.status.Terminal() {
		return ErrSessionTerminal
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrPowerUpNotHeld, kind)
	}
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	p.PowerUps[kind]++
	return nil
}
