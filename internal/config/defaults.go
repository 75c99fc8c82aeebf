package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/duel.yaml
var defaultDuelYAML []byte

// DefaultDuelConfig returns the hard-coded duel configuration. It matches
// the embedded defaults/duel.yaml.
func DefaultDuelConfig() DuelConfig {
	return DuelConfig{
		Board: BoardConfig{
			Width:  8,
			Height: 8,
			Colors: 6,
		},
		Scoring: ScoringConfig{
			PointsPerToken:         10,
			BonusPerExtraToken:     5,
			PowerUpThreshold:       5,
			DoublePointsMultiplier: 2,
		},
		Rules: RulesConfig{
			MoveLimit:       30,
			OfflineTimeout:  60 * time.Second,
			TurnTimeLimit:   30 * time.Second,
			FreezeExtension: 15 * time.Second,
			BetCoins:        10,
			RewardCoins:     20,
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultDuelYAML
}
