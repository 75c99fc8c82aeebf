package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// frame is one message of the event stream. The first frame of every
// stream is a "snapshot"; the rest carry session events by wire name.
type frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.clientOrigin
		},
	}
}

// handleEvents upgrades to a websocket and streams the match's session
// events as {"type", "data"} frames. With ?player=<id> the connection also
// drives that player's presence: online while connected, offline after.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := matchID(r)
	snap, err := s.hub.Snapshot(id)
	if err != nil {
		s.fail(w, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "match", id, "error", err)
		return
	}

	session := multiplayer.NewChannelSession(multiplayer.NewSessionID(), s.eventBuffer)
	if err := s.hub.Watch(id, session); err != nil {
		_ = conn.WriteJSON(frame{Type: "error", Data: errorRes{Error: "not_found", Message: err.Error()}})
		conn.Close()
		return
	}

	player := r.URL.Query().Get("player")
	if player != "" {
		if err := s.hub.SetPresence(id, player, true); err != nil {
			s.logger.Debug("presence not updated", "match", id, "player", player, "error", err)
		}
	}
	s.logger.Info("event stream opened", "match", id, "session", session.ID(), "player", player)

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame{Type: "snapshot", Data: snap}); err != nil {
		s.closeStream(conn, id, session, player)
		return
	}

	go s.readPump(conn, session)
	s.writePump(conn, session)
	s.closeStream(conn, id, session, player)
}

// readPump discards client frames and closes the session when the peer
// goes away.
func (s *Server) readPump(conn *websocket.Conn, session *multiplayer.ChannelSession) {
	defer session.Close()

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards hub events until the session closes.
func (s *Server) writePump(conn *websocket.Conn, session *multiplayer.ChannelSession) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-session.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case evt := <-session.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame{Type: multiplayer.EventName(evt), Data: evt}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) closeStream(conn *websocket.Conn, id multiplayer.MatchID, session *multiplayer.ChannelSession, player string) {
	s.hub.Unwatch(id, session.ID())
	session.Close()
	if player != "" {
		//nolint:errcheck // The match may already be over
		s.hub.SetPresence(id, player, false)
	}
	conn.Close()
	s.logger.Info("event stream closed", "match", id, "session", session.ID())
}
