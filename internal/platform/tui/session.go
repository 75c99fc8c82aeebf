package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/jewel-duel/internal/core"
	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
	"github.com/vovakirdan/jewel-duel/internal/storage"
)

// SessionConfig wires a session model to its services.
type SessionConfig struct {
	Runtime  core.RuntimeConfig
	Rules    duel.Rules
	Username string

	// Archive stores hot-seat duels and backs the history screen. May be nil.
	Archive *storage.Store

	// Online play. Both nil for a local session.
	Sender  MessageSender
	Channel *multiplayer.ChannelSession
}

type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenLobby
	screenDuel
	screenHistory
)

// SessionModel manages the full flow: menu -> duel, lobby or history -> menu.
// It is the top-level model for local and SSH sessions alike.
type SessionModel struct {
	cfg      SessionConfig
	screen   sessionScreen
	menu     MenuModel
	lobby    OnlineLobbyModel
	duel     DuelModel
	history  HistoryModel
	notice   string
	quitting bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(cfg SessionConfig) SessionModel {
	if cfg.Username == "" {
		cfg.Username = "Player 1"
	}
	m := SessionModel{cfg: cfg}
	m.menu = NewMenuModel(cfg.Runtime, m.online())
	return m
}

func (m SessionModel) online() bool {
	return m.cfg.Sender != nil && m.cfg.Channel != nil
}

func (m SessionModel) archiver() multiplayer.MatchArchiver {
	if m.cfg.Archive == nil {
		return nil
	}
	return m.cfg.Archive
}

func (m SessionModel) historySource() HistorySource {
	if m.cfg.Archive == nil {
		return nil
	}
	return m.cfg.Archive
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.cfg.Runtime.ScreenW = wsm.Width
		m.cfg.Runtime.ScreenH = wsm.Height
	}

	switch m.screen {
	case screenLobby:
		return m.updateLobby(msg)
	case screenDuel:
		return m.updateDuel(msg)
	case screenHistory:
		return m.updateHistory(msg)
	}
	return m.updateMenu(msg)
}

func (m SessionModel) toMenu() (tea.Model, tea.Cmd) {
	m.screen = screenMenu
	m.menu = NewMenuModel(m.cfg.Runtime, m.online())
	return m, m.menu.Init()
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	selected := m.menu.Selected()
	if selected == nil {
		return m, cmd
	}
	m.notice = ""
	rt := m.cfg.Runtime

	switch selected.Choice {
	case MenuHotSeat:
		ctrl, err := NewHotSeatController(m.cfg.Rules,
			duel.PlayerInfo{ID: m.cfg.Username, DisplayName: m.cfg.Username},
			duel.PlayerInfo{ID: "guest", DisplayName: "Guest"},
			rt.Seed, m.archiver())
		if err != nil {
			m.notice = err.Error()
			return m.toMenu()
		}
		m.duel = NewDuelModel(ctrl, rt)
		m.screen = screenDuel
		return m, m.duel.Init()

	case MenuHost, MenuJoin:
		if !m.online() {
			return m.toMenu()
		}
		m.lobby = NewOnlineLobbyModel(m.cfg.Sender, m.cfg.Channel.ID(), m.cfg.Username,
			m.cfg.Channel.Events(), selected.Choice == MenuHost, rt.ScreenW, rt.ScreenH)
		m.screen = screenLobby
		return m, m.lobby.Init()

	case MenuHistory:
		m.history = NewHistoryModel(m.historySource(), rt.ScreenW, rt.ScreenH)
		m.screen = screenHistory
		return m, m.history.Init()
	}

	return m.toMenu()
}

// updateLobby handles updates while pairing with an online opponent.
func (m SessionModel) updateLobby(msg tea.Msg) (tea.Model, tea.Cmd) {
	newLobby, cmd := m.lobby.Update(msg)
	if lobbyModel, ok := newLobby.(OnlineLobbyModel); ok {
		m.lobby = lobbyModel
	}

	switch {
	case m.lobby.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.lobby.BackToMenu():
		return m.toMenu()
	}

	if started := m.lobby.Started(); started != nil {
		ctrl := NewOnlineController(m.cfg.Sender, m.cfg.Channel.ID(), *started, m.cfg.Channel.Events())
		m.duel = NewDuelModel(ctrl, m.cfg.Runtime)
		m.screen = screenDuel
		return m, m.duel.Init()
	}
	return m, cmd
}

// updateDuel handles updates when in a duel.
func (m SessionModel) updateDuel(msg tea.Msg) (tea.Model, tea.Cmd) {
	newDuel, cmd := m.duel.Update(msg)
	if duelModel, ok := newDuel.(DuelModel); ok {
		m.duel = duelModel
	}

	switch {
	case m.duel.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.duel.BackToMenu():
		return m.toMenu()
	}
	return m, cmd
}

// updateHistory handles updates on the history screen.
func (m SessionModel) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	newHistory, cmd := m.history.Update(msg)
	if historyModel, ok := newHistory.(HistoryModel); ok {
		m.history = historyModel
	}

	switch {
	case m.history.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.history.IsGoingBack():
		return m.toMenu()
	}
	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenLobby:
		return m.lobby.View()
	case screenDuel:
		return m.duel.View()
	case screenHistory:
		return m.history.View()
	}

	view := m.menu.View()
	if m.notice != "" {
		view += "\n" + centerText("Error: "+m.notice, m.cfg.Runtime.ScreenW)
	}
	return view
}

// Screen reports which screen is active.
func (m SessionModel) Screen() string {
	switch m.screen {
	case screenLobby:
		return "lobby"
	case screenDuel:
		return "duel"
	case screenHistory:
		return "history"
	}
	return "menu"
}

// Run starts a local session on the current terminal.
func Run(cfg SessionConfig) error {
	p := tea.NewProgram(
		NewSessionModel(cfg),
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Click and drag jewels
	)

	_, err := p.Run()
	return err
}
