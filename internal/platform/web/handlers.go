package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/engine"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
	"github.com/vovakirdan/jewel-duel/internal/storage"
)

// createReq is the payload of POST /sessions.
type createReq struct {
	Player1 duel.PlayerInfo `json:"player1"`
	Player2 duel.PlayerInfo `json:"player2"`
}

// swapReq is the payload of POST /sessions/{id}/swaps.
type swapReq struct {
	PlayerID string      `json:"playerId"`
	From     board.Coord `json:"from"`
	To       board.Coord `json:"to"`
}

// powerUpReq is the payload of POST /sessions/{id}/powerups.
type powerUpReq struct {
	PlayerID string           `json:"playerId"`
	Kind     duel.PowerUpKind `json:"kind"`
	Target   board.Coord      `json:"target"`
	Other    board.Coord      `json:"other"`
}

// presenceReq is the payload of PUT /sessions/{id}/presence.
type presenceReq struct {
	PlayerID string `json:"playerId"`
	Online   bool   `json:"online"`
}

// abortReq is the optional payload of POST /sessions/{id}/abort.
type abortReq struct {
	Reason duel.EndReason `json:"reason"`
}

// forfeitReq is the payload of POST /sessions/{id}/forfeit.
type forfeitReq struct {
	PlayerID string `json:"playerId"`
}

// actionRes answers every action with what happened and where it left the
// session.
type actionRes struct {
	Result   duel.ActionResult `json:"result"`
	Snapshot duel.Snapshot     `json:"snapshot"`
}

// matchRes is the wire shape of an archived match.
type matchRes struct {
	MatchID     string         `json:"matchId"`
	Mode        string         `json:"mode"`
	Player1ID   string         `json:"player1Id"`
	Player1Name string         `json:"player1Name"`
	Player2ID   string         `json:"player2Id"`
	Player2Name string         `json:"player2Name"`
	Score1      int            `json:"score1"`
	Score2      int            `json:"score2"`
	WinnerID    string         `json:"winnerId,omitempty"`
	Status      string         `json:"status"`
	EndReason   string         `json:"endReason,omitempty"`
	Turns       int            `json:"turns"`
	Duration    int            `json:"durationSeconds"`
	CreatedAt   time.Time      `json:"createdAt"`
	Snapshot    *duel.Snapshot `json:"snapshot,omitempty"`
}

type leaderRes struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
	Matches     int    `json:"matches"`
	BestScore   int    `json:"bestScore"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if req.Player1.ID == "" || req.Player2.ID == "" || req.Player1.ID == req.Player2.ID {
		writeError(w, http.StatusBadRequest, "bad_players", "two distinct player ids are required")
		return
	}

	snap, err := s.hub.Create(req.Player1, req.Player2)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Snapshots())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.hub.Snapshot(matchID(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	id := matchID(r)
	update, err := s.hub.SubmitSwap(id, req.PlayerID, engine.SwapRequest{From: req.From, To: req.To})
	s.answerAction(w, update, err)
}

func (s *Server) handlePowerUp(w http.ResponseWriter, r *http.Request) {
	var req powerUpReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	id := matchID(r)
	update, err := s.hub.UsePowerUp(id, req.PlayerID, duel.PowerUpUse{
		Kind:   req.Kind,
		Target: req.Target,
		Other:  req.Other,
	})
	s.answerAction(w, update, err)
}

// answerAction replies with the result and the snapshot taken with it, so
// a concurrent action cannot slip between the two.
func (s *Server) answerAction(w http.ResponseWriter, update multiplayer.BoardUpdateEvent, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionRes{Result: update.Result, Snapshot: update.Snapshot})
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	var req presenceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	id := matchID(r)
	if err := s.hub.SetPresence(id, req.PlayerID, req.Online); err != nil {
		s.fail(w, err)
		return
	}
	s.answerSnapshot(w, id)
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	var req abortReq
	// An empty body is a plain cancel.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Reason == "" {
		req.Reason = duel.EndCancelled
	}
	id := matchID(r)
	if err := s.hub.Abort(id, req.Reason); err != nil {
		s.fail(w, err)
		return
	}
	s.answerSnapshot(w, id)
}

func (s *Server) handleForfeit(w http.ResponseWriter, r *http.Request) {
	var req forfeitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	id := matchID(r)
	if err := s.hub.Forfeit(id, req.PlayerID); err != nil {
		s.fail(w, err)
		return
	}
	s.answerSnapshot(w, id)
}

func (s *Server) answerSnapshot(w http.ResponseWriter, id multiplayer.MatchID) {
	snap, err := s.hub.Snapshot(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleMatches lists archived matches, optionally for one player:
// GET /matches?player=<id>&limit=<n>.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusOK, []matchRes{})
		return
	}

	limit := queryLimit(r, 20)
	var (
		matches []storage.DuelMatch
		err     error
	)
	if player := r.URL.Query().Get("player"); player != "" {
		matches, err = s.archive.PlayerHistory(player, limit)
	} else {
		matches, err = s.archive.RecentMatches(limit)
	}
	if err != nil {
		s.fail(w, err)
		return
	}

	out := make([]matchRes, 0, len(matches))
	for _, m := range matches {
		out = append(out, toMatchRes(m, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "not_found", "no archive configured")
		return
	}
	m, err := s.archive.MatchByID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "not_found", "no archived match "+chi.URLParam(r, "id"))
		return
	}
	writeJSON(w, http.StatusOK, toMatchRes(*m, true))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusOK, []leaderRes{})
		return
	}
	entries, err := s.archive.Leaderboard(queryLimit(r, 10))
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]leaderRes, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderRes{
			PlayerID:    e.PlayerID,
			DisplayName: e.DisplayName,
			Wins:        e.Wins,
			Losses:      e.Losses,
			Draws:       e.Draws,
			Matches:     e.Matches,
			BestScore:   e.BestScore,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func toMatchRes(m storage.DuelMatch, withSnapshot bool) matchRes {
	out := matchRes{
		MatchID:     m.MatchID,
		Mode:        m.Mode,
		Player1ID:   m.Player1ID,
		Player1Name: m.Player1Name,
		Player2ID:   m.Player2ID,
		Player2Name: m.Player2Name,
		Score1:      m.Score1,
		Score2:      m.Score2,
		WinnerID:    m.WinnerID,
		Status:      m.Status,
		EndReason:   m.EndReason,
		Turns:       m.Turns,
		Duration:    m.Duration,
		CreatedAt:   m.CreatedAt,
	}
	if withSnapshot {
		if snap, err := m.DecodeSnapshot(); err == nil {
			out.Snapshot = &snap
		}
	}
	return out
}

func matchID(r *http.Request) multiplayer.MatchID {
	return multiplayer.MatchID(chi.URLParam(r, "id"))
}

func queryLimit(r *http.Request, def int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// statusFor maps domain errors to HTTP status codes and wire codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrInvalidSwap):
		return http.StatusBadRequest, "invalid_swap"
	case errors.Is(err, duel.ErrInvalidTarget):
		return http.StatusBadRequest, "invalid_target"
	case errors.Is(err, duel.ErrInvalidRules):
		return http.StatusBadRequest, "invalid_rules"
	case errors.Is(err, multiplayer.ErrMatchNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, duel.ErrUnknownPlayer):
		return http.StatusNotFound, "unknown_player"
	case errors.Is(err, duel.ErrSessionTerminal):
		return http.StatusConflict, "session_over"
	case errors.Is(err, duel.ErrNotYourTurn):
		return http.StatusConflict, "not_your_turn"
	case errors.Is(err, duel.ErrPowerUpNotHeld):
		return http.StatusConflict, "powerup_not_held"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, code, err.Error())
}

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorRes{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
