package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/jewel-duel/internal/core"
	"github.com/vovakirdan/jewel-duel/internal/platform/tui"
	"github.com/vovakirdan/jewel-duel/internal/storage"
)

var flagAnimFPS int

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a hot-seat duel",
	Long: `Start a duel for two players sharing this terminal.

Controls:
  Arrows/WASD  - Move cursor
  Enter/Space  - Pick a jewel, then pick a neighbour to swap
  Mouse        - Drag a jewel onto a neighbour
  Esc          - Drop the picked jewel
  1-6          - Use a power-up
  B            - Leave the duel
  R            - Rematch (after the duel ends)
  Q/Ctrl+C     - Quit

Examples:
  jewelduel play
  jewelduel play --preset casual
  jewelduel play --seed 42 --anim-fps 6`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagAnimFPS, "anim-fps", core.DefaultConfig().AnimFPS, "Cascade replay steps per second")
}

func runPlay(_ *cobra.Command, _ []string) {
	rules := loadRules()

	// Get terminal size early so the first frame is laid out
	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	// Open match archive
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open match database: %v\n", err)
		// Continue without storage - duels still work
		store = nil
	}

	runErr := tui.Run(tui.SessionConfig{
		Runtime: core.RuntimeConfig{
			ScreenW: width,
			ScreenH: height,
			AnimFPS: flagAnimFPS,
			Seed:    flagSeed,
		},
		Rules:    rules,
		Username: localUsername(),
		Archive:  store,
	})

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running duel: %v\n", runErr)
		os.Exit(1)
	}
}

func localUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return ""
}
