package duel

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRules is returned when rules cannot produce a playable session.
var ErrInvalidRules = errors.New("duel: invalid rules")

// ScoringPolicy turns a cleared count into points.
type ScoringPolicy struct {
	PointsPerToken         int `json:"pointsPerToken"`
	BonusPerExtraToken     int `json:"bonusPerExtraToken"`
	PowerUpThreshold       int `json:"powerUpThreshold"`
	DoublePointsMultiplier int `json:"doublePointsMultiplier"`
}

// DefaultScoring returns the standard scoring policy.
func DefaultScoring() ScoringPolicy {
	return ScoringPolicy{
		PointsPerToken:         10,
		BonusPerExtraToken:     5,
		PowerUpThreshold:       5,
		DoublePointsMultiplier: 2,
	}
}

// PointsForCleared is non-decreasing in cleared as long as both rates are
// non-negative: every jewel is worth PointsPerToken and every jewel past the
// third earns an extra BonusPerExtraToken.
func (p ScoringPolicy) PointsForCleared(cleared int) int {
	if cleared <= 0 {
		return 0
	}
	extra := cleared - 3
	if extra < 0 {
		extra = 0
	}
	return cleared*p.PointsPerToken + extra*p.BonusPerExtraToken
}

// GrantsPowerUp reports whether a clear of this size earns a power-up.
// A threshold of zero disables grants.
func (p ScoringPolicy) GrantsPowerUp(cleared int) bool {
	return p.PowerUpThreshold > 0 && cleared >= p.PowerUpThreshold
}

// Rules configures a session.
type Rules struct {
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	Colors          int           `json:"colors"`
	MoveLimit       int           `json:"moveLimit"`       // 0 = unlimited
	OfflineTimeout  time.Duration `json:"offlineTimeout"`  // 0 = never abort
	TurnTimeLimit   time.Duration `json:"turnTimeLimit"`   // 0 = no clock
	FreezeExtension time.Duration `json:"freezeExtension"` // added by freeze-timer
	BetCoins        int           `json:"betCoins"`
	RewardCoins     int           `json:"rewardCoins"`
	Scoring         ScoringPolicy `json:"scoring"`
}

// DefaultRules returns the standard duel rules.
func DefaultRules() Rules {
	return Rules{
		Width:           8,
		Height:          8,
		Colors:          6,
		MoveLimit:       30,
		OfflineTimeout:  60 * time.Second,
		TurnTimeLimit:   30 * time.Second,
		FreezeExtension: 15 * time.Second,
		BetCoins:        10,
		RewardCoins:     20,
		Scoring:         DefaultScoring(),
	}
}

// Validate checks that the rules describe a playable board and a
// non-decreasing scoring curve.
func (r Rules) Validate() error {
	if r.Width < 3 || r.Height < 3 {
		return fmt.Errorf("%w: board %dx%d is smaller than 3x3", ErrInvalidRules, r.Width, r.Height)
	}
	if r.Colors < 3 || r.Colors > 8 {
		return fmt.Errorf("%w: colors must be between 3 and 8, got %d", ErrInvalidRules, r.Colors)
	}
	if r.MoveLimit < 0 {
		return fmt.Errorf("%w: negative move limit", ErrInvalidRules)
	}
	if r.OfflineTimeout < 0 || r.TurnTimeLimit < 0 || r.FreezeExtension < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidRules)
	}
	s := r.Scoring
	if s.PointsPerToken < 0 || s.BonusPerExtraToken < 0 || s.PowerUpThreshold < 0 || s.DoublePointsMultiplier < 1 {
		return fmt.Errorf("%w: scoring values must be non-negative and the multiplier at least 1", ErrInvalidRules)
	}
	return nil
}
