package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/jewel-duel/internal/core"
)

// MenuChoice is an entry of the main menu.
type MenuChoice int

const (
	MenuHotSeat MenuChoice = iota
	MenuHost
	MenuJoin
	MenuHistory
	MenuQuit
)

// MenuItem is one selectable line of the main menu.
type MenuItem struct {
	Choice MenuChoice
	Title  string
	Hint   string
}

var (
	menuTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	menuTagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	menuItemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	menuFocusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
)

// MenuModel is the main menu.
type MenuModel struct {
	items     []MenuItem
	cursor    int
	config    core.RuntimeConfig
	keyMapper *KeyMapper
	quitting  bool
	selected  *MenuItem
}

// NewMenuModel builds the menu. The host and join entries are only offered
// when online play is available.
func NewMenuModel(cfg core.RuntimeConfig, online bool) MenuModel {
	items := []MenuItem{
		{MenuHotSeat, "Hot-seat duel", "Two players, one keyboard"},
	}
	if online {
		items = append(items,
			MenuItem{MenuHost, "Host online duel", "Get a code to share"},
			MenuItem{MenuJoin, "Join online duel", "Enter a friend's code"},
		)
	}
	items = append(items,
		MenuItem{MenuHistory, "Match history", "Past duels and the leaderboard"},
		MenuItem{MenuQuit, "Quit", ""},
	)
	return MenuModel{items: items, config: cfg, keyMapper: NewKeyMapper()}
}

func (m MenuModel) Init() tea.Cmd { return nil }

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.config.ScreenW, m.config.ScreenH = msg.Width, msg.Height
	case tea.KeyMsg:
		switch m.keyMapper.MapKeyToMenuAction(msg) {
		case MenuActionUp:
			m.cursor = max(m.cursor-1, 0)
		case MenuActionDown:
			m.cursor = min(m.cursor+1, len(m.items)-1)
		case MenuActionSelect:
			item := m.items[m.cursor]
			if item.Choice != MenuQuit {
				m.selected = &item
				break
			}
			fallthrough
		case MenuActionQuit:
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	lines := []string{
		"",
		menuTitleStyle.Render("J E W E L   D U E L"),
		menuTagStyle.Render("Swap jewels, chain cascades, outscore your rival"),
		"",
	}
	for i, item := range m.items {
		if i == m.cursor {
			lines = append(lines, menuFocusStyle.Render("> "+item.Title))
			continue
		}
		lines = append(lines, menuItemStyle.Render(item.Title))
	}
	lines = append(lines, "", menuTagStyle.Render(m.items[m.cursor].Hint), "",
		"Up/Down: Navigate  |  Enter: Select  |  Q: Quit")

	for i, line := range lines {
		lines[i] = centerText(line, m.config.ScreenW)
	}
	return strings.Join(lines, "\n") + "\n"
}

// Selected returns the chosen entry, or nil while the menu is open.
func (m MenuModel) Selected() *MenuItem { return m.selected }

func (m MenuModel) IsQuitting() bool { return m.quitting }

// Config returns the runtime config, resized if the window changed.
func (m MenuModel) Config() core.RuntimeConfig { return m.config }

// centerText pads text on the left so it sits in the middle of width
// columns. Styled text is measured without its escape codes.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
