package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jewel-duel/internal/storage"
)

var (
	flagHistoryPlayer string
	flagHistoryLimit  int
	flagLeaderboard   bool
)

var historyCmd = &cobra.Command{
	Use:   "history [match-id]",
	Short: "Show archived duels",
	Long: `List recently archived duels, one player's duels, or the details of a
single duel. With --leaderboard, rank players by completed duels.

Examples:
  jewelduel history
  jewelduel history --player alice
  jewelduel history --leaderboard
  jewelduel history 6f1c2d0e-...`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryPlayer, "player", "", "Only show duels of this player id")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Maximum number of rows")
	historyCmd.Flags().BoolVar(&flagLeaderboard, "leaderboard", false, "Show the leaderboard instead")
}

func runHistory(_ *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening match database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case len(args) == 1:
		err = showMatch(store, args[0])
	case flagLeaderboard:
		err = showLeaderboard(store)
	default:
		err = showMatches(store)
	}
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func showMatches(store *storage.Store) error {
	var (
		matches []storage.DuelMatch
		err     error
	)
	if flagHistoryPlayer != "" {
		matches, err = store.PlayerHistory(flagHistoryPlayer, flagHistoryLimit)
	} else {
		matches, err = store.RecentMatches(flagHistoryLimit)
	}
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		fmt.Println("No duels recorded yet.")
		fmt.Println()
		fmt.Println("Play 'jewelduel play' to record the first one!")
		return nil
	}

	// Print header
	fmt.Printf("  %-16s  %-24s  %-9s  %-12s  %s\n", "Date", "Players", "Score", "Result", "Match")
	fmt.Printf("  %-16s  %-24s  %-9s  %-12s  %s\n", "----", "-------", "-----", "------", "-----")

	for _, m := range matches {
		players := fmt.Sprintf("%s v %s", m.Player1Name, m.Player2Name)
		score := fmt.Sprintf("%d-%d", m.Score1, m.Score2)
		fmt.Printf("  %-16s  %-24s  %-9s  %-12s  %s\n",
			m.CreatedAt.Format("2006-01-02 15:04"), players, score, resultText(m), m.MatchID)
	}
	return nil
}

func showMatch(store *storage.Store, matchID string) error {
	m, err := store.MatchByID(matchID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("no archived duel %q", matchID)
	}

	fmt.Printf("Duel %s\n", m.MatchID)
	fmt.Println()
	fmt.Printf("  Played:   %s (%s)\n", m.CreatedAt.Format("2006-01-02 15:04"), m.Mode)
	fmt.Printf("  Players:  %s (%s) v %s (%s)\n", m.Player1Name, m.Player1ID, m.Player2Name, m.Player2ID)
	fmt.Printf("  Score:    %d-%d\n", m.Score1, m.Score2)
	fmt.Printf("  Result:   %s\n", resultText(*m))
	fmt.Printf("  Reason:   %s\n", m.EndReason)
	fmt.Printf("  Turns:    %d\n", m.Turns)
	fmt.Printf("  Duration: %s\n", time.Duration(m.Duration)*time.Second)

	snap, err := m.DecodeSnapshot()
	if err != nil || snap.Board == nil {
		return nil
	}
	fmt.Println()
	fmt.Println("  Final board:")
	for _, line := range snap.Board.Rows() {
		fmt.Printf("    %s\n", line)
	}
	return nil
}

func showLeaderboard(store *storage.Store) error {
	entries, err := store.Leaderboard(flagHistoryLimit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No completed duels yet.")
		return nil
	}

	fmt.Printf("  %-4s  %-20s  %-4s  %-6s  %-5s  %s\n", "Rank", "Player", "Wins", "Losses", "Draws", "Best")
	fmt.Printf("  %-4s  %-20s  %-4s  %-6s  %-5s  %s\n", "----", "------", "----", "------", "-----", "----")
	for i, e := range entries {
		fmt.Printf("  %-4d  %-20s  %-4d  %-6d  %-5d  %d\n", i+1, e.DisplayName, e.Wins, e.Losses, e.Draws, e.BestScore)
	}
	return nil
}

func resultText(m storage.DuelMatch) string {
	switch {
	case m.Status == "aborted":
		return "aborted"
	case m.WinnerID == "":
		return "draw"
	case m.WinnerID == m.Player1ID:
		return m.Player1Name + " won"
	default:
		return m.Player2Name + " won"
	}
}
