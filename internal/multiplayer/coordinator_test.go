package multiplayer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jewel-duel/internal/duel"
)

type lobbyFixture struct {
	coord  *Coordinator
	hub    *Hub
	clock  *testClock
	host   *ChannelSession
	joiner *ChannelSession
}

// newLobbyFixture wires a coordinator without starting its goroutines;
// tests drive handleMessage directly.
func newLobbyFixture(t *testing.T) *lobbyFixture {
	t.Helper()
	clock := &testClock{now: epoch}
	hub := newTestHub(testRules(), clock, WithMode(MatchModeSSH))
	sessions := NewSessionRegistry()

	f := &lobbyFixture{
		coord:  NewCoordinator(DefaultCoordinatorConfig(), hub, sessions, nil),
		hub:    hub,
		clock:  clock,
		host:   NewChannelSession("host", 32),
		joiner: NewChannelSession("joiner", 32),
	}
	sessions.Register(f.host)
	sessions.Register(f.joiner)
	return f
}

func (f *lobbyFixture) open(t *testing.T) string {
	t.Helper()
	f.coord.handleMessage(CreateLobbyMsg{SessionID: f.host.ID(), DisplayName: "Alice"})
	events := drain(f.host)
	require.Len(t, events, 1)
	created, ok := events[0].(LobbyCreatedEvent)
	require.True(t, ok)
	return created.Code
}

func (f *lobbyFixture) start(t *testing.T) MatchID {
	t.Helper()
	code := f.open(t)
	f.coord.handleMessage(JoinLobbyMsg{SessionID: f.joiner.ID(), DisplayName: "Bob", Code: strings.ToLower(code)})

	hostEvents := drain(f.host)
	require.Len(t, hostEvents, 2)
	started, ok := hostEvents[1].(MatchStartedEvent)
	require.True(t, ok)
	drain(f.joiner)
	return started.MatchID
}

func TestCreateLobby(t *testing.T) {
	f := newLobbyFixture(t)
	code := f.open(t)

	assert.Len(t, code, 6)
	assert.Equal(t, 1, f.coord.LobbyCount())
	lobby, ok := f.coord.GetLobby(code)
	require.True(t, ok)
	assert.Equal(t, "Alice", lobby.HostName)

	f.coord.handleMessage(CreateLobbyMsg{SessionID: f.host.ID(), DisplayName: "Alice"})
	events := drain(f.host)
	require.Len(t, events, 1)
	assert.Equal(t, LobbyErrorEvent{Message: "Already in a lobby"}, events[0])
}

func TestJoinLobbyStartsMatch(t *testing.T) {
	f := newLobbyFixture(t)
	code := f.open(t)

	f.coord.handleMessage(JoinLobbyMsg{SessionID: f.joiner.ID(), DisplayName: "Bob", Code: code})

	hostEvents := drain(f.host)
	joinerEvents := drain(f.joiner)
	require.Len(t, hostEvents, 2)
	require.Len(t, joinerEvents, 2)

	assert.Equal(t, LobbyJoinedEvent{Code: code, Side: duel.SideFirst, OpponentName: "Bob"}, hostEvents[0])
	assert.Equal(t, LobbyJoinedEvent{Code: code, Side: duel.SideSecond, OpponentName: "Alice"}, joinerEvents[0])

	hostStart, ok := hostEvents[1].(MatchStartedEvent)
	require.True(t, ok)
	joinerStart, ok := joinerEvents[1].(MatchStartedEvent)
	require.True(t, ok)
	assert.Equal(t, hostStart.MatchID, joinerStart.MatchID)
	assert.Equal(t, duel.SideSecond, joinerStart.Side)
	assert.Equal(t, "host", hostStart.Snapshot.Players[0].ID)
	assert.Equal(t, "Bob", hostStart.Snapshot.Players[1].DisplayName)

	assert.Equal(t, 0, f.coord.LobbyCount())
	assert.Equal(t, 1, f.coord.MatchCount())
	id, ok := f.coord.MatchOf(f.joiner.ID())
	require.True(t, ok)
	assert.Equal(t, hostStart.MatchID, id)
}

func TestJoinLobbyErrors(t *testing.T) {
	f := newLobbyFixture(t)
	code := f.open(t)

	tests := []struct {
		name    string
		session *ChannelSession
		code    string
		want    string
	}{
		{"unknown code", f.joiner, "ZZZZZZ", "Lobby not found"},
		{"own lobby", f.host, code, "Already in a lobby"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.coord.handleMessage(JoinLobbyMsg{SessionID: tt.session.ID(), Code: tt.code})
			events := drain(tt.session)
			require.Len(t, events, 1)
			assert.Equal(t, LobbyErrorEvent{Message: tt.want}, events[0])
		})
	}
	assert.Equal(t, 1, f.coord.LobbyCount())
}

func TestCancelLobby(t *testing.T) {
	f := newLobbyFixture(t)
	code := f.open(t)

	// Only the host may cancel.
	f.coord.handleMessage(CancelLobbyMsg{SessionID: f.joiner.ID(), Code: code})
	assert.Equal(t, 1, f.coord.LobbyCount())

	f.coord.handleMessage(CancelLobbyMsg{SessionID: f.host.ID(), Code: code})
	assert.Equal(t, 0, f.coord.LobbyCount())

	// The host can open a new lobby afterwards.
	f.open(t)
}

func TestSwapRelayedThroughHub(t *testing.T) {
	f := newLobbyFixture(t)
	id := f.start(t)

	f.coord.handleMessage(SubmitSwapMsg{SessionID: f.joiner.ID(), MatchID: id, Swap: chainSwap})
	joinerEvents := drain(f.joiner)
	require.Len(t, joinerEvents, 1)
	actionErr, ok := joinerEvents[0].(ActionErrorEvent)
	require.True(t, ok)
	assert.Contains(t, actionErr.Message, "not your turn")
	assert.Empty(t, drain(f.host))

	f.coord.handleMessage(SubmitSwapMsg{SessionID: f.host.ID(), MatchID: id, Swap: chainSwap})
	for _, s := range []*ChannelSession{f.host, f.joiner} {
		events := drain(s)
		require.Len(t, events, 1)
		update, ok := events[0].(BoardUpdateEvent)
		require.True(t, ok)
		assert.Equal(t, 75, update.Result.PointsAwarded)
	}
}

func TestMessagesForOtherMatchesAreIgnored(t *testing.T) {
	f := newLobbyFixture(t)
	f.start(t)

	f.coord.handleMessage(SubmitSwapMsg{SessionID: f.host.ID(), MatchID: "other", Swap: chainSwap})
	f.coord.handleMessage(UsePowerUpMsg{SessionID: f.host.ID(), MatchID: "other", Use: duel.PowerUpUse{Kind: duel.PowerUpBomb}})
	assert.Empty(t, drain(f.host))
}

func TestLeaveMatchForfeits(t *testing.T) {
	f := newLobbyFixture(t)
	id := f.start(t)

	f.coord.handleMessage(LeaveMatchMsg{SessionID: f.joiner.ID(), MatchID: id})

	events := drain(f.host)
	require.Len(t, events, 1)
	ended, ok := events[0].(MatchEndedEvent)
	require.True(t, ok)
	assert.Equal(t, "host", ended.WinnerID)
	assert.Equal(t, duel.EndForfeit, ended.Reason)

	assert.Equal(t, 0, f.coord.MatchCount())
	_, ok = f.coord.MatchOf(f.host.ID())
	assert.False(t, ok)
}

func TestDisconnectedHostClosesLobby(t *testing.T) {
	f := newLobbyFixture(t)
	code := f.open(t)

	f.coord.handleMessage(SessionDisconnectedMsg{SessionID: f.host.ID()})
	assert.Equal(t, 0, f.coord.LobbyCount())
	_, ok := f.coord.GetLobby(code)
	assert.False(t, ok)
}

func TestDisconnectInMatchMarksOffline(t *testing.T) {
	f := newLobbyFixture(t)
	id := f.start(t)

	f.coord.handleMessage(SessionDisconnectedMsg{SessionID: f.host.ID()})

	snap, err := f.hub.Snapshot(id)
	require.NoError(t, err)
	assert.False(t, snap.Players[0].Online)
	assert.Equal(t, duel.StatusInProgress, snap.Status)

	joinerEvents := drain(f.joiner)
	require.Len(t, joinerEvents, 1)
	assert.Equal(t, PresenceEvent{MatchID: id, PlayerID: "host", Online: false}, joinerEvents[0])

	// The host was the active player, so the sweep aborts once the offline
	// timeout passes.
	f.coord.sweepMatches(f.clock.Advance(2 * time.Minute))
	assert.Equal(t, 0, f.coord.MatchCount())

	snap, err = f.hub.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusAborted, snap.Status)
	assert.Equal(t, duel.EndOfflineTimeout, snap.EndReason)
}

func TestExpiredLobbiesAreCleaned(t *testing.T) {
	f := newLobbyFixture(t)
	code := f.open(t)

	lobby, ok := f.coord.GetLobby(code)
	require.True(t, ok)
	lobby.CreatedAt = time.Now().Add(-time.Hour)

	f.coord.cleanupExpiredLobbies()
	assert.Equal(t, 0, f.coord.LobbyCount())
	assert.Equal(t, []SessionEvent{LobbyErrorEvent{Message: "Lobby expired"}}, drain(f.host))
}

func TestGenerateJoinCode(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"
	for range 20 {
		code := generateJoinCode()
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(alphabet, r), "unexpected %q in %s", r, code)
		}
	}
}

func TestCoordinatorRunsMessagesAsync(t *testing.T) {
	f := newLobbyFixture(t)
	f.coord.Start()
	defer f.coord.Stop()

	f.coord.Send(CreateLobbyMsg{SessionID: f.host.ID(), DisplayName: "Alice"})

	select {
	case evt := <-f.host.Events():
		_, ok := evt.(LobbyCreatedEvent)
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("no lobby event")
	}
}
