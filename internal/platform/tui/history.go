package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/jewel-duel/internal/storage"
)

const (
	historySidebarMinWidth = 80
	historySidebarWidth    = 20
	historyLoadLimit       = 100
)

// HistorySource is the read side of the match archive. *storage.Store
// satisfies it.
type HistorySource interface {
	RecentMatches(limit int) ([]storage.DuelMatch, error)
	Leaderboard(limit int) ([]storage.LeaderboardEntry, error)
}

// HistoryView selects which table the history screen shows.
type HistoryView int

const (
	HistoryRecent HistoryView = iota
	HistoryLeaderboard
	historyViewCount
)

func (v HistoryView) String() string {
	if v == HistoryLeaderboard {
		return "Leaderboard"
	}
	return "Recent duels"
}

func (v HistoryView) next() HistoryView { return (v + 1) % historyViewCount }
func (v HistoryView) prev() HistoryView { return (v + historyViewCount - 1) % historyViewCount }

var (
	historyTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).MarginBottom(1)
	historyBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	historyMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	historyActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	historyTabStyle    = historyActiveStyle.Background(lipgloss.Color("57")).Padding(0, 1)
	historyEmptyStyle  = historyMutedStyle.Italic(true).Padding(2, 4)
)

type historyKeys struct {
	Scroll key.Binding
	Next   key.Binding
	Prev   key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func defaultHistoryKeys() historyKeys {
	return historyKeys{
		Scroll: key.NewBinding(key.WithKeys("up", "k", "down", "j"), key.WithHelp("↑/↓", "scroll")),
		Next:   key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab/→", "next view")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("S-tab/←", "prev view")),
		Back:   key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc/b", "back")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k historyKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Scroll, k.Next, k.Prev, k.Back, k.Quit}
}

func (k historyKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// HistoryModel browses archived duels and the leaderboard.
type HistoryModel struct {
	source  HistorySource
	view    HistoryView
	matches []storage.DuelMatch
	leaders []storage.LeaderboardEntry
	loadErr error

	table table.Model
	help  help.Model
	keys  historyKeys

	width, height int
	goingBack     bool
	quitting      bool
}

// NewHistoryModel opens the recent duels view. source may be nil when no
// archive is available; the screen then shows an empty table.
func NewHistoryModel(source HistorySource, width, height int) HistoryModel {
	m := HistoryModel{
		source: source,
		help:   help.New(),
		keys:   defaultHistoryKeys(),
		width:  width,
		height: height,
	}
	m.switchTo(HistoryRecent)
	return m
}

// switchTo loads view from the archive and rebuilds the table.
func (m *HistoryModel) switchTo(view HistoryView) {
	m.view = view
	m.matches, m.leaders, m.loadErr = nil, nil, nil
	if m.source != nil {
		if view == HistoryLeaderboard {
			m.leaders, m.loadErr = m.source.Leaderboard(historyLoadLimit)
		} else {
			m.matches, m.loadErr = m.source.RecentMatches(historyLoadLimit)
		}
	}
	m.rebuildTable()
}

func (m *HistoryModel) rebuildTable() {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	m.table = table.New(
		table.WithColumns(m.columns()),
		table.WithRows(m.rows()),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)),
		table.WithStyles(styles),
	)
}

func (m HistoryModel) columns() []table.Column {
	if m.view == HistoryLeaderboard {
		return []table.Column{
			{Title: "Rank", Width: 5},
			{Title: "Player", Width: 16},
			{Title: "W", Width: 4},
			{Title: "L", Width: 4},
			{Title: "D", Width: 4},
			{Title: "Best", Width: 6},
		}
	}
	return []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Players", Width: 24},
		{Title: "Score", Width: 9},
		{Title: "Result", Width: 16},
		{Title: "Mode", Width: 8},
	}
}

func (m HistoryModel) rows() []table.Row {
	var rows []table.Row
	if m.view == HistoryLeaderboard {
		for i, e := range m.leaders {
			rows = append(rows, table.Row{
				"#" + strconv.Itoa(i+1),
				e.DisplayName,
				strconv.Itoa(e.Wins),
				strconv.Itoa(e.Losses),
				strconv.Itoa(e.Draws),
				strconv.Itoa(e.BestScore),
			})
		}
		return rows
	}
	for _, d := range m.matches {
		rows = append(rows, table.Row{
			d.CreatedAt.Format("Jan 02 15:04"),
			d.Player1Name + " v " + d.Player2Name,
			fmt.Sprintf("%d-%d", d.Score1, d.Score2),
			matchResult(d),
			d.Mode,
		})
	}
	return rows
}

// matchResult is the one-cell summary of how a duel ended.
func matchResult(d storage.DuelMatch) string {
	switch {
	case d.WinnerID != "" && d.WinnerID == d.Player1ID:
		return d.Player1Name + " won"
	case d.WinnerID != "" && d.WinnerID == d.Player2ID:
		return d.Player2Name + " won"
	case d.Status == "aborted":
		return "aborted"
	}
	return "draw"
}

func (m HistoryModel) Init() tea.Cmd { return nil }

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.rebuildTable()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, nil
		case key.Matches(msg, m.keys.Next):
			m.switchTo(m.view.next())
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.switchTo(m.view.prev())
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m HistoryModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	title := historyTitleStyle.Render(centerText("MATCH HISTORY - "+m.view.String(), m.width))
	body := historyBorderStyle.Render(m.tableOrNotice())

	if m.width >= historySidebarMinWidth {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar(), "  ", body)
	} else {
		body = centerText(m.tabs(), m.width) + "\n\n" + centerText(body, m.width)
	}
	return title + "\n\n" + body + "\n" + historyMutedStyle.Render(m.help.View(m.keys))
}

// sidebar lists the views vertically for wide terminals.
func (m HistoryModel) sidebar() string {
	lines := []string{"Views", strings.Repeat("-", historySidebarWidth-4)}
	for v := range historyViewCount {
		if v == m.view {
			lines = append(lines, historyActiveStyle.Render("> "+v.String()))
		} else {
			lines = append(lines, "  "+v.String())
		}
	}
	return historyBorderStyle.Width(historySidebarWidth).Render(strings.Join(lines, "\n"))
}

// tabs lists the views on one line for narrow terminals.
func (m HistoryModel) tabs() string {
	tabs := make([]string, 0, historyViewCount)
	for v := range historyViewCount {
		if v == m.view {
			tabs = append(tabs, historyTabStyle.Render(v.String()))
		} else {
			tabs = append(tabs, historyMutedStyle.Render(" "+v.String()+" "))
		}
	}
	return strings.Join(tabs, " ")
}

func (m HistoryModel) tableOrNotice() string {
	switch {
	case m.loadErr != nil:
		return historyEmptyStyle.Render("Could not read the archive:\n" + m.loadErr.Error())
	case len(m.table.Rows()) == 0:
		return historyEmptyStyle.Render("No duels recorded yet.\nFinish a duel to see it here!")
	}
	return m.table.View()
}

// CurrentView returns the table currently shown.
func (m HistoryModel) CurrentView() HistoryView { return m.view }

// RowCount returns the number of rows in the current table.
func (m HistoryModel) RowCount() int { return len(m.table.Rows()) }

// IsGoingBack reports whether the user asked for the menu.
func (m HistoryModel) IsGoingBack() bool { return m.goingBack }

func (m HistoryModel) IsQuitting() bool { return m.quitting }
