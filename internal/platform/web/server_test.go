package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/engine"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
	"github.com/vovakirdan/jewel-duel/internal/storage"
)

// chainBoard has a swap, (1,2) with (2,2), that clears six jewels over two
// iterations when refilled by chainSpawner.
func chainBoard() *board.Board {
	return board.MustFromRows(
		"GOPYO",
		"OGBPY",
		"YRGRR",
		"BPBOG",
		"PYBGP",
	)
}

func chainSpawner() engine.Spawner {
	colors := []board.Color{
		board.ColorRed, board.ColorGreen, board.ColorBlue,
		board.ColorOrange, board.ColorBlue, board.ColorYellow,
	}
	return engine.SpawnerFunc(func(board.Coord) board.Color {
		if len(colors) == 0 {
			return board.ColorWhite
		}
		c := colors[0]
		colors = colors[1:]
		return c
	})
}

func testRules() duel.Rules {
	r := duel.DefaultRules()
	r.Width = 5
	r.Height = 5
	return r
}

type fixture struct {
	hub   *multiplayer.Hub
	store *storage.Store
	srv   *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "matches.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := log.New(&bytes.Buffer{})
	hub := multiplayer.NewHub(testRules(),
		multiplayer.WithLogger(logger),
		multiplayer.WithArchiver(store),
		multiplayer.WithSessionOptions(duel.WithBoard(chainBoard()), duel.WithSpawner(chainSpawner())),
	)
	srv := New(hub, WithLogger(logger), WithArchive(store), WithClientOrigin("http://example.test"))
	return &fixture{hub: hub, store: store, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) create(t *testing.T) duel.Snapshot {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/sessions", createReq{
		Player1: duel.PlayerInfo{ID: "alice", DisplayName: "Alice"},
		Player2: duel.PlayerInfo{ID: "bob", DisplayName: "Bob"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var snap duel.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorRes {
	t.Helper()
	var res errorRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "http://example.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodOptions, "/sessions", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, duel.StatusInProgress, snap.Status)
	assert.Equal(t, duel.SideFirst, snap.ActiveTurn)
	assert.True(t, snap.Board.Equal(chainBoard()))
	assert.Equal(t, "Alice", snap.Players[0].DisplayName)

	rec := f.do(t, http.MethodGet, "/sessions/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []duel.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestCreateSessionRejectsBadPlayers(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/sessions", createReq{
		Player1: duel.PlayerInfo{ID: "alice"},
		Player2: duel.PlayerInfo{ID: "alice"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "bad_json", decodeError(t, rr).Error)
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error)

	rec = f.do(t, http.MethodPost, "/sessions/nope/swaps", swapReq{PlayerID: "alice"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSwapFlow(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)
	path := "/sessions/" + snap.ID + "/swaps"

	rec := f.do(t, http.MethodPost, path, swapReq{PlayerID: "alice", From: board.C(1, 2), To: board.C(2, 2)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res actionRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, engine.OutcomeMatched, res.Result.Outcome)
	assert.Equal(t, 6, res.Result.Report.TotalCleared)
	assert.Equal(t, 75, res.Result.PointsAwarded)
	assert.Equal(t, duel.SideSecond, res.Snapshot.ActiveTurn)
	assert.Equal(t, 75, res.Snapshot.Players[0].Score)
	assert.Equal(t, 2, res.Snapshot.TurnNumber)
	live, err := f.hub.Snapshot(multiplayer.MatchID(snap.ID))
	require.NoError(t, err)
	assert.True(t, live.Board.Equal(res.Snapshot.Board))

	// Alice again: her turn is over.
	rec = f.do(t, http.MethodPost, path, swapReq{PlayerID: "alice", From: board.C(0, 0), To: board.C(1, 0)})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_your_turn", decodeError(t, rec).Error)

	// Bob with a non-adjacent pair.
	rec = f.do(t, http.MethodPost, path, swapReq{PlayerID: "bob", From: board.C(0, 0), To: board.C(2, 2)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_swap", decodeError(t, rec).Error)

	rec = f.do(t, http.MethodPost, path, swapReq{PlayerID: "carol", From: board.C(0, 0), To: board.C(1, 0)})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_player", decodeError(t, rec).Error)
}

func TestPowerUps(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)
	path := "/sessions/" + snap.ID + "/powerups"

	rec := f.do(t, http.MethodPost, path, powerUpReq{PlayerID: "alice", Kind: duel.PowerUpBomb})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "powerup_not_held", decodeError(t, rec).Error)

	rec = f.do(t, http.MethodPost, path, powerUpReq{PlayerID: "bob", Kind: duel.PowerUpBomb})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_your_turn", decodeError(t, rec).Error)
}

func TestPresence(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)

	rec := f.do(t, http.MethodPut, "/sessions/"+snap.ID+"/presence", presenceReq{PlayerID: "bob", Online: false})
	require.Equal(t, http.StatusOK, rec.Code)
	var got duel.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Players[1].Online)
	assert.NotNil(t, got.Players[1].OfflineSince)

	rec = f.do(t, http.MethodPut, "/sessions/"+snap.ID+"/presence", presenceReq{PlayerID: "bob", Online: true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Players[1].Online)
}

func TestAbortArchivesMatch(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)

	rec := f.do(t, http.MethodPost, "/sessions/"+snap.ID+"/abort", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got duel.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, duel.StatusAborted, got.Status)
	assert.Equal(t, duel.EndCancelled, got.EndReason)

	rec = f.do(t, http.MethodPost, "/sessions/"+snap.ID+"/abort", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "session_over", decodeError(t, rec).Error)

	rec = f.do(t, http.MethodPost, "/sessions/"+snap.ID+"/swaps", swapReq{PlayerID: "alice", From: board.C(1, 2), To: board.C(2, 2)})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/matches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var matches []matchRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, snap.ID, matches[0].MatchID)
	assert.Equal(t, "aborted", matches[0].Status)
	assert.Nil(t, matches[0].Snapshot)

	rec = f.do(t, http.MethodGet, "/matches/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var one matchRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	require.NotNil(t, one.Snapshot)
	assert.Equal(t, duel.StatusAborted, one.Snapshot.Status)

	rec = f.do(t, http.MethodGet, "/matches/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForfeitAndLeaderboard(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)

	rec := f.do(t, http.MethodPost, "/sessions/"+snap.ID+"/forfeit", forfeitReq{PlayerID: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	var got duel.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, "bob", *got.WinnerID)

	rec = f.do(t, http.MethodGet, "/matches?player=bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var matches []matchRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "bob", matches[0].WinnerID)

	rec = f.do(t, http.MethodGet, "/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var leaders []leaderRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leaders))
	require.NotEmpty(t, leaders)
	assert.Equal(t, "bob", leaders[0].PlayerID)
	assert.Equal(t, 1, leaders[0].Wins)
}

func TestMatchesWithoutArchive(t *testing.T) {
	srv := New(multiplayer.NewHub(testRules()), WithLogger(log.New(&bytes.Buffer{})))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{engine.ErrInvalidSwap, http.StatusBadRequest},
		{duel.ErrInvalidTarget, http.StatusBadRequest},
		{multiplayer.ErrMatchNotFound, http.StatusNotFound},
		{duel.ErrUnknownPlayer, http.StatusNotFound},
		{duel.ErrSessionTerminal, http.StatusConflict},
		{duel.ErrNotYourTurn, http.StatusConflict},
		{duel.ErrPowerUpNotHeld, http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := statusFor(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}

type testFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var fr testFrame
	require.NoError(t, conn.ReadJSON(&fr))
	return fr
}

func TestEventStream(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)

	ts := httptest.NewServer(f.srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + snap.ID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn)
	assert.Equal(t, "snapshot", first.Type)
	var got duel.Snapshot
	require.NoError(t, json.Unmarshal(first.Data, &got))
	assert.Equal(t, snap.ID, got.ID)

	rec := f.do(t, http.MethodPost, "/sessions/"+snap.ID+"/swaps",
		swapReq{PlayerID: "alice", From: board.C(1, 2), To: board.C(2, 2)})
	require.Equal(t, http.StatusOK, rec.Code)

	update := readFrame(t, conn)
	assert.Equal(t, "board-update", update.Type)
	var evt multiplayer.BoardUpdateEvent
	require.NoError(t, json.Unmarshal(update.Data, &evt))
	assert.Equal(t, 75, evt.Result.PointsAwarded)
	require.NotEmpty(t, evt.Result.Deltas)
	assert.Equal(t, engine.DeltaSwapped, evt.Result.Deltas[0].Kind)

	rec = f.do(t, http.MethodPost, "/sessions/"+snap.ID+"/abort", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "match-ended", readFrame(t, conn).Type)
}

func TestEventStreamDrivesPresence(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)

	ts := httptest.NewServer(f.srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + snap.ID + "/events?player=bob"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	assert.Equal(t, "snapshot", readFrame(t, conn).Type)
	assert.Equal(t, "presence", readFrame(t, conn).Type)
	conn.Close()

	assert.Eventually(t, func() bool {
		s, err := f.hub.Snapshot(multiplayer.MatchID(snap.ID))
		return err == nil && !s.Players[1].Online
	}, 5*time.Second, 20*time.Millisecond)
}

func TestEventStreamRejectsForeignOrigin(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t)

	ts := httptest.NewServer(f.srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + snap.ID + "/events"
	header := http.Header{"Origin": []string{"http://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEventStreamUnknownMatch(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/sessions/nope/events", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
