// jewelduel is a turn-based match-3 duel for the terminal, an SSH server
// and an HTTP API.
//
// Usage:
//
//	jewelduel play               - Play on this terminal (hot-seat)
//	jewelduel serve              - Start SSH server for online duels
//	jewelduel api                - Start the HTTP/WebSocket API
//	jewelduel history [match-id] - Show archived duels
//	jewelduel rules              - Print the effective rules as YAML
//
// Global flags:
//
//	--seed <value>    - Set RNG seed for reproducible boards
//	--db <path>       - Set database path (default: ~/.jewelduel/matches.db)
//	--config <path>   - Load duel rules from a YAML file
//	--preset <name>   - Apply a rule preset: casual, standard, blitz
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jewel-duel/internal/config"
	"github.com/vovakirdan/jewel-duel/internal/duel"
)

var (
	// Global flags
	flagSeed   int64
	flagDBPath string
	flagConfig string
	flagPreset string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jewelduel",
	Short: "Jewel Duel - a two-player match-3 duel in your terminal",
	Long: `Jewel Duel is a turn-based match-3 game for two players. Players
alternate swapping adjacent jewels; every cleared jewel scores, cascades
score more, and big clears earn power-ups.

Available commands:
  play     - Hot-seat duel on this terminal
  serve    - SSH server for online duels
  api      - HTTP and WebSocket API
  history  - Archived duels and the leaderboard
  rules    - Print the effective rules

Examples:
  jewelduel play
  jewelduel play --preset blitz
  jewelduel serve --ssh :2222
  jewelduel api
  jewelduel history --leaderboard`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.jewelduel/matches.db", "Path to match database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom duel config YAML")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "Rule preset: casual, standard, blitz")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(rulesCmd)
}

// loadConfig resolves the duel configuration from --config and --preset.
func loadConfig() (config.DuelConfig, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.DuelConfig{}, err
	}
	preset, err := config.ParsePreset(flagPreset)
	if err != nil {
		return config.DuelConfig{}, err
	}
	config.ApplyPreset(&cfg, preset)
	if err := cfg.Validate(); err != nil {
		return config.DuelConfig{}, err
	}
	return cfg, nil
}

// loadRules is loadConfig reduced to session rules, exiting on error.
func loadRules() duel.Rules {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg.DuelRules()
}
