package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const configFile = "duel.yaml"

// Load loads the duel configuration. Values missing from a file keep their
// defaults. Search order: customPath -> ~/.jewelduel/configs/duel.yaml ->
// ./configs/duel.yaml -> embedded default -> hard-coded default.
func Load(customPath string) (DuelConfig, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return DuelConfig{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := parse(data)
		if err != nil {
			return DuelConfig{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(configFile); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", configFile)); err == nil {
		if cfg, err := parse(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := parse(defaultDuelYAML)
	if err != nil {
		return DefaultDuelConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// parse decodes YAML over the defaults and validates the result.
func parse(data []byte) (DuelConfig, error) {
	cfg := DefaultDuelConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DuelConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return DuelConfig{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg DuelConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".jewelduel", "configs", filename)
}

// ApplyPreset modifies the config based on a rule preset. The standard
// preset keeps the loaded values.
func ApplyPreset(cfg *DuelConfig, preset Preset) {
	switch preset {
	case PresetCasual:
		cfg.Board.Colors = 5
		cfg.Rules.MoveLimit = 40
		cfg.Rules.TurnTimeLimit = 0
		cfg.Rules.OfflineTimeout = 5 * time.Minute
		cfg.Scoring.PowerUpThreshold = 4
	case PresetBlitz:
		cfg.Board.Width = 7
		cfg.Board.Height = 7
		cfg.Rules.MoveLimit = 16
		cfg.Rules.TurnTimeLimit = 10 * time.Second
		cfg.Rules.FreezeExtension = 5 * time.Second
		cfg.Rules.OfflineTimeout = 30 * time.Second
	}
}
