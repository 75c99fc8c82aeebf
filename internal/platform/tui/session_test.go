package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
)

func updateSession(t *testing.T, m SessionModel, msg tea.Msg) (SessionModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	sm, ok := next.(SessionModel)
	require.True(t, ok)
	return sm, cmd
}

func sessionKeys(t *testing.T, m SessionModel, keys ...string) (SessionModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = updateSession(t, m, keyMsg(k))
	}
	return m, cmd
}

func localSession() SessionModel {
	return NewSessionModel(SessionConfig{
		Runtime:  testRuntime(),
		Rules:    testRules(),
		Username: "alice",
	})
}

func TestSessionLocalMenu(t *testing.T) {
	m := localSession()
	assert.Equal(t, "menu", m.Screen())
	assert.Len(t, m.menu.items, 3)
	assert.NotContains(t, m.View(), "Host online duel")
}

func TestSessionHotSeatAndBack(t *testing.T) {
	m := localSession()

	m, cmd := sessionKeys(t, m, "enter")
	assert.Equal(t, "duel", m.Screen())
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "alice 0")
	assert.Contains(t, m.View(), "Guest 0")

	m, _ = sessionKeys(t, m, "b")
	assert.Equal(t, "menu", m.Screen())
}

func TestSessionHistoryAndBack(t *testing.T) {
	m := localSession()

	m, _ = sessionKeys(t, m, "down", "enter")
	assert.Equal(t, "history", m.Screen())
	assert.Contains(t, m.View(), "No duels recorded yet.")

	m, _ = sessionKeys(t, m, "esc")
	assert.Equal(t, "menu", m.Screen())
}

func TestSessionQuitFromMenu(t *testing.T) {
	m := localSession()

	m, cmd := sessionKeys(t, m, "down", "down", "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}

func TestSessionInvalidRulesShowNotice(t *testing.T) {
	rules := testRules()
	rules.Colors = 1
	m := NewSessionModel(SessionConfig{Runtime: testRuntime(), Rules: rules})

	m, _ = sessionKeys(t, m, "enter")
	assert.Equal(t, "menu", m.Screen())
	assert.Contains(t, m.View(), "Error: duel: invalid rules")
}

func TestSessionOnlineHostStartsDuel(t *testing.T) {
	sender := &recordingSender{}
	channel := multiplayer.NewChannelSession("s1", 8)
	m := NewSessionModel(SessionConfig{
		Runtime:  testRuntime(),
		Rules:    testRules(),
		Username: "Alice",
		Sender:   sender,
		Channel:  channel,
	})
	require.Len(t, m.menu.items, 5)

	m, _ = sessionKeys(t, m, "down", "enter")
	assert.Equal(t, "lobby", m.Screen())
	require.Len(t, sender.msgs, 1)
	assert.Equal(t, multiplayer.CreateLobbyMsg{SessionID: "s1", DisplayName: "Alice"}, sender.msgs[0])

	m, _ = updateSession(t, m, multiplayer.LobbyCreatedEvent{Code: "ABC234"})
	assert.Contains(t, m.View(), "ABC234")

	s, err := duel.New("m1", alice, bob, testRules())
	require.NoError(t, err)
	m, cmd := updateSession(t, m, multiplayer.MatchStartedEvent{MatchID: "m1", Side: duel.SideFirst, Snapshot: s.Snapshot()})
	assert.Equal(t, "duel", m.Screen())
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Alice (you) 0")

	m, _ = sessionKeys(t, m, "b")
	assert.Equal(t, "menu", m.Screen())
	assert.Equal(t, multiplayer.LeaveMatchMsg{SessionID: "s1", MatchID: "m1"}, sender.msgs[len(sender.msgs)-1])
}

func TestSessionOnlineJoinBack(t *testing.T) {
	m := NewSessionModel(SessionConfig{
		Runtime: testRuntime(),
		Rules:   testRules(),
		Sender:  &recordingSender{},
		Channel: multiplayer.NewChannelSession("s2", 8),
	})

	m, _ = sessionKeys(t, m, "down", "down", "enter")
	assert.Equal(t, "lobby", m.Screen())
	assert.Contains(t, m.View(), "JOIN DUEL")

	m, _ = sessionKeys(t, m, "esc")
	assert.Equal(t, "menu", m.Screen())
}
