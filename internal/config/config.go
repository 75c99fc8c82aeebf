// Package config provides YAML-based duel configuration loading and
// rule presets.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/jewel-duel/internal/duel"
)

// DuelConfig contains all configuration for a duel.
type DuelConfig struct {
	Board   BoardConfig   `yaml:"board"`
	Scoring ScoringConfig `yaml:"scoring"`
	Rules   RulesConfig   `yaml:"rules"`
}

// BoardConfig defines the board shape and palette size.
type BoardConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Colors int `yaml:"colors"`
}

// ScoringConfig defines the points curve and power-up threshold.
type ScoringConfig struct {
	PointsPerToken         int `yaml:"points_per_token"`
	BonusPerExtraToken     int `yaml:"bonus_per_extra_token"`
	PowerUpThreshold       int `yaml:"powerup_threshold"` // 0 disables power-up grants
	DoublePointsMultiplier int `yaml:"double_points_multiplier"`
}

// RulesConfig defines turn limits, clocks and coins.
type RulesConfig struct {
	MoveLimit       int           `yaml:"move_limit"`       // 0 = unlimited
	OfflineTimeout  time.Duration `yaml:"offline_timeout"`  // 0 = never abort
	TurnTimeLimit   time.Duration `yaml:"turn_time_limit"`  // 0 = no turn clock
	FreezeExtension time.Duration `yaml:"freeze_extension"` // time added by freeze-timer
	BetCoins        int           `yaml:"bet_coins"`
	RewardCoins     int           `yaml:"reward_coins"`
}

// DuelRules converts the configuration into session rules.
func (c DuelConfig) DuelRules() duel.Rules {
	return duel.Rules{
		Width:           c.Board.Width,
		Height:          c.Board.Height,
		Colors:          c.Board.Colors,
		MoveLimit:       c.Rules.MoveLimit,
		OfflineTimeout:  c.Rules.OfflineTimeout,
		TurnTimeLimit:   c.Rules.TurnTimeLimit,
		FreezeExtension: c.Rules.FreezeExtension,
		BetCoins:        c.Rules.BetCoins,
		RewardCoins:     c.Rules.RewardCoins,
		Scoring: duel.ScoringPolicy{
			PointsPerToken:         c.Scoring.PointsPerToken,
			BonusPerExtraToken:     c.Scoring.BonusPerExtraToken,
			PowerUpThreshold:       c.Scoring.PowerUpThreshold,
			DoublePointsMultiplier: c.Scoring.DoublePointsMultiplier,
		},
	}
}

// Validate rejects settings that cannot produce a playable duel.
func (c DuelConfig) Validate() error {
	if err := c.DuelRules().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Preset represents a named rule set.
type Preset string

const (
	PresetCasual   Preset = "casual"
	PresetStandard Preset = "standard"
	PresetBlitz    Preset = "blitz"
)

// Presets lists every preset name.
var Presets = []Preset{PresetCasual, PresetStandard, PresetBlitz}

// ParsePreset converts a name to a Preset. An empty name is the standard preset.
func ParsePreset(name string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return PresetStandard, nil
	case PresetCasual, PresetStandard, PresetBlitz:
		return p, nil
	default:
		return "", fmt.Errorf("config: unknown preset %q (want casual, standard or blitz)", name)
	}
}
