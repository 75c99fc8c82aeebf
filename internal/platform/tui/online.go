package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
)

// OnlineState is a step of the host/join flow.
type OnlineState int

const (
	OnlineStateHostCreating  OnlineState = iota // Lobby requested, no code yet
	OnlineStateHostWaiting                      // Code shown, waiting for a joiner
	OnlineStateJoinEnterCode                    // Typing a code
	OnlineStateJoinWaiting                      // Code sent, waiting for the match
	OnlineStateMatchStarting                    // Match announced
)

// joinCodeLen matches the coordinator's code length.
const joinCodeLen = 6

var (
	lobbyTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	lobbyCodeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	lobbyErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	lobbyHelpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// OnlineLobbyModel walks a session through hosting or joining a duel until
// the coordinator announces the match.
type OnlineLobbyModel struct {
	state       OnlineState
	width       int
	height      int
	sender      MessageSender
	sessionID   multiplayer.SessionID
	displayName string
	host        bool
	eventChan   <-chan multiplayer.SessionEvent

	lobbyCode     string
	opponentName  string
	joinCodeInput string
	joinError     string
	started       *multiplayer.MatchStartedEvent

	backToMenu bool
	quitting   bool
}

// NewOnlineLobbyModel hosts a lobby when host is true and asks for a join
// code otherwise.
func NewOnlineLobbyModel(
	sender MessageSender,
	sessionID multiplayer.SessionID,
	displayName string,
	eventChan <-chan multiplayer.SessionEvent,
	host bool,
	width, height int,
) OnlineLobbyModel {
	state := OnlineStateJoinEnterCode
	if host {
		state = OnlineStateHostCreating
	}
	return OnlineLobbyModel{
		state:       state,
		width:       width,
		height:      height,
		sender:      sender,
		sessionID:   sessionID,
		displayName: displayName,
		host:        host,
		eventChan:   eventChan,
	}
}

// Init asks for a lobby when hosting and starts listening.
func (m OnlineLobbyModel) Init() tea.Cmd {
	if m.host {
		m.sender.Send(multiplayer.CreateLobbyMsg{SessionID: m.sessionID, DisplayName: m.displayName})
	}
	return waitForEvent(m.eventChan)
}

func (m OnlineLobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case multiplayer.SessionEvent:
		if !m.apply(msg) {
			return m, nil
		}
		return m, waitForEvent(m.eventChan)
	}
	return m, nil
}

// apply folds a coordinator event into the model. It reports whether the
// model should keep listening.
func (m *OnlineLobbyModel) apply(evt multiplayer.SessionEvent) bool {
	switch evt := evt.(type) {
	case multiplayer.LobbyCreatedEvent:
		m.lobbyCode = evt.Code
		m.state = OnlineStateHostWaiting
	case multiplayer.LobbyJoinedEvent:
		m.opponentName = evt.OpponentName
	case multiplayer.LobbyPlayerLeftEvent:
		m.opponentName = ""
	case multiplayer.LobbyErrorEvent:
		m.joinError = evt.Message
		if m.state == OnlineStateJoinWaiting {
			m.state = OnlineStateJoinEnterCode
		}
	case multiplayer.LobbyClosedEvent:
		m.joinError = "The host closed the lobby"
		m.state = OnlineStateJoinEnterCode
	case multiplayer.MatchStartedEvent:
		m.started = &evt
		m.state = OnlineStateMatchStarting
		// The duel takes over the event channel from here.
		return false
	}
	return true
}

func (m OnlineLobbyModel) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		m.leaveLobby()
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case OnlineStateHostCreating, OnlineStateHostWaiting:
		switch key {
		case "esc", "b":
			m.leaveLobby()
			m.backToMenu = true
		case "q":
			m.leaveLobby()
			m.quitting = true
			return m, tea.Quit
		}
	case OnlineStateJoinWaiting:
		if key == "esc" || key == "b" {
			m.leaveLobby()
			m.state = OnlineStateJoinEnterCode
		}
	case OnlineStateJoinEnterCode:
		m.editCode(key)
	}
	return m, nil
}

// editCode handles typing in the code field. Letters are upper-cased and
// anything outside the base32 alphabet is ignored.
func (m *OnlineLobbyModel) editCode(key string) {
	switch key {
	case "esc":
		m.backToMenu = true
	case "enter":
		if m.joinCodeInput == "" {
			return
		}
		m.state = OnlineStateJoinWaiting
		m.joinError = ""
		m.sender.Send(multiplayer.JoinLobbyMsg{
			SessionID:   m.sessionID,
			DisplayName: m.displayName,
			Code:        m.joinCodeInput,
		})
	case "backspace":
		if n := len(m.joinCodeInput); n > 0 {
			m.joinCodeInput = m.joinCodeInput[:n-1]
		}
	default:
		if c, ok := codeChar(key); ok && len(m.joinCodeInput) < joinCodeLen {
			m.joinCodeInput += string(c)
		}
	}
}

func codeChar(key string) (byte, bool) {
	if len(key) != 1 {
		return 0, false
	}
	c := strings.ToUpper(key)[0]
	return c, ('A' <= c && c <= 'Z') || ('2' <= c && c <= '7')
}

// leaveLobby tells the coordinator this session is gone from its lobby.
func (m *OnlineLobbyModel) leaveLobby() {
	switch m.state {
	case OnlineStateHostCreating, OnlineStateHostWaiting:
		m.sender.Send(multiplayer.CancelLobbyMsg{SessionID: m.sessionID, Code: m.lobbyCode})
	case OnlineStateJoinWaiting:
		m.sender.Send(multiplayer.LeaveLobbyMsg{SessionID: m.sessionID, Code: m.joinCodeInput})
	}
}

func (m OnlineLobbyModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case OnlineStateHostCreating, OnlineStateHostWaiting:
		body := []string{"Opening lobby..."}
		if m.lobbyCode != "" {
			body = []string{"Share this code with your opponent:", "", lobbyCodeStyle.Render("[ " + m.lobbyCode + " ]")}
		}
		body = append(body, "", "Waiting for player to join...")
		return m.page("HOSTING DUEL", body, "Esc: Cancel  |  Q: Quit")

	case OnlineStateJoinEnterCode:
		field := m.joinCodeInput
		if len(field) < joinCodeLen {
			field += "_" + strings.Repeat(" ", joinCodeLen-1-len(field))
		}
		return m.page("JOIN DUEL", []string{"Enter the duel code:", "", lobbyCodeStyle.Render("[ " + field + " ]")},
			"Enter: Connect  |  Esc: Back")

	case OnlineStateJoinWaiting:
		return m.page("CONNECTING", []string{"Joining duel: " + m.joinCodeInput, "", "Please wait..."}, "Esc: Cancel")

	case OnlineStateMatchStarting:
		order := "second"
		if m.started != nil && m.started.Side == duel.SideFirst {
			order = "first"
		}
		return m.page("DUEL STARTING", []string{"You move " + order + " against " + m.opponentName, "", "Get ready!"}, "")
	}
	return ""
}

// page lays out a centered lobby screen with the last error under the body.
func (m OnlineLobbyModel) page(title string, body []string, help string) string {
	lines := append([]string{"", lobbyTitleStyle.Render(title), ""}, body...)
	if m.joinError != "" && m.state != OnlineStateMatchStarting {
		lines = append(lines, "", lobbyErrorStyle.Render("Error: "+m.joinError))
	}
	if help != "" {
		lines = append(lines, "", lobbyHelpStyle.Render(help))
	}
	for i, line := range lines {
		lines[i] = centerText(line, m.width)
	}
	return strings.Join(lines, "\n")
}

// State returns the current step.
func (m OnlineLobbyModel) State() OnlineState { return m.state }

// BackToMenu reports whether the user left the lobby screen.
func (m OnlineLobbyModel) BackToMenu() bool { return m.backToMenu }

// IsQuitting reports whether the user quit the program.
func (m OnlineLobbyModel) IsQuitting() bool { return m.quitting }

// Started returns the match announcement once the duel begins.
func (m OnlineLobbyModel) Started() *multiplayer.MatchStartedEvent { return m.started }

// LobbyCode returns the hosted lobby's code.
func (m OnlineLobbyModel) LobbyCode() string { return m.lobbyCode }
