package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/core"
)

// jewelStyles maps board colors to lipgloss styles.
var jewelStyles = map[board.Color]lipgloss.Style{
	board.ColorNone:   lipgloss.NewStyle(),
	board.ColorRed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	board.ColorGreen:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	board.ColorBlue:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	board.ColorYellow: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
	board.ColorPurple: lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true),
	board.ColorOrange: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
	board.ColorCyan:   lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
	board.ColorWhite:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
}

// markStyles tint the brackets around marked cells.
var markStyles = map[core.Mark]lipgloss.Style{
	core.MarkNone:    lipgloss.NewStyle(),
	core.MarkCursor:  lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
	core.MarkPicked:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
	core.MarkHint:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	core.MarkCleared: lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Blink(true),
}

type cellStyleKey struct {
	tint board.Color
	mark core.Mark
}

func styleFor(k cellStyleKey) lipgloss.Style {
	if k.mark == core.MarkCleared {
		return markStyles[core.MarkCleared]
	}
	if k.tint != board.ColorNone {
		if style, ok := jewelStyles[k.tint]; ok {
			return style
		}
	}
	if style, ok := markStyles[k.mark]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same tint and mark to minimize ANSI escape
// sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			start := cellStyleKey{tint: cell.Tint, mark: cell.Mark}

			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if (cellStyleKey{tint: cell.Tint, mark: cell.Mark}) != start {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			sb.WriteString(styleFor(start).Render(run.String()))
		}
	}
	return sb.String()
}
