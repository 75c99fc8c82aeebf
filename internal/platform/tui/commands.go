// Package tui is the Bubble Tea front end for jewel duels: the main menu,
// hot-seat and online duel views, the match history table and the SSH
// server that hosts them.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
)

// TickMsg drives delta replay and the turn clock display.
type TickMsg time.Time

// frameInterval is the delay between ticks at fps frames per second.
// Non-positive rates fall back to one frame a second.
func frameInterval(fps int) time.Duration {
	return time.Second / time.Duration(max(fps, 1))
}

func tickCmd(fps int) tea.Cmd {
	return tea.Tick(frameInterval(fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// waitForEvent blocks on the next coordinator event. A nil or closed
// channel yields a nil message, which Bubble Tea ignores.
func waitForEvent(events <-chan multiplayer.SessionEvent) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		if evt, ok := <-events; ok {
			return evt
		}
		return nil
	}
}
