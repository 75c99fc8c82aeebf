package multiplayer

import (
	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/engine"
)

// SessionEvent is anything the hub or coordinator pushes to a front end.
// Every event has a wire name, see EventName.
type SessionEvent interface {
	sessionEvent()
}

// LobbyCreatedEvent hands the host its join code.
type LobbyCreatedEvent struct {
	Code string `json:"code"`
}

func (LobbyCreatedEvent) sessionEvent() {}

// LobbyErrorEvent reports a rejected lobby request to its sender.
type LobbyErrorEvent struct {
	Message string `json:"message"`
}

func (LobbyErrorEvent) sessionEvent() {}

// LobbyJoinedEvent goes to both seats once the second player arrives.
type LobbyJoinedEvent struct {
	Code         string    `json:"code"`
	Side         duel.Side `json:"side"` // Which seat this session takes
	OpponentName string    `json:"opponentName"`
}

func (LobbyJoinedEvent) sessionEvent() {}

// LobbyPlayerLeftEvent tells the host the joiner walked away.
type LobbyPlayerLeftEvent struct {
	Code string `json:"code"`
}

func (LobbyPlayerLeftEvent) sessionEvent() {}

// LobbyClosedEvent is sent to a joiner when the host closes the lobby.
type LobbyClosedEvent struct {
	Code string `json:"code"`
}

func (LobbyClosedEvent) sessionEvent() {}

// MatchStartedEvent carries each seat its side and the opening state.
type MatchStartedEvent struct {
	MatchID  MatchID       `json:"matchId"`
	Side     duel.Side     `json:"side"`
	Code     string        `json:"code,omitempty"`
	Snapshot duel.Snapshot `json:"snapshot"`
}

func (MatchStartedEvent) sessionEvent() {}

// BoardUpdateEvent carries one resolved action and the state after it.
// Result.Deltas replayed onto the previous board yield Snapshot.Board.
type BoardUpdateEvent struct {
	MatchID  MatchID           `json:"matchId"`
	Result   duel.ActionResult `json:"result"`
	Snapshot duel.Snapshot     `json:"snapshot"`
}

func (BoardUpdateEvent) sessionEvent() {}

// PresenceEvent is sent when a player goes offline or comes back.
type PresenceEvent struct {
	MatchID  MatchID `json:"matchId"`
	PlayerID string  `json:"playerId"`
	Online   bool    `json:"online"`
}

func (PresenceEvent) sessionEvent() {}

// MatchEndedEvent is the final result of a duel.
type MatchEndedEvent struct {
	MatchID  MatchID        `json:"matchId"`
	Status   duel.Status    `json:"status"`
	Reason   duel.EndReason `json:"reason"`
	WinnerID string         `json:"winnerId,omitempty"` // Empty on a draw or an abort
	Score1   int            `json:"score1"`
	Score2   int            `json:"score2"`
}

func (MatchEndedEvent) sessionEvent() {}

// ActionErrorEvent tells one session its request was rejected.
type ActionErrorEvent struct {
	MatchID MatchID `json:"matchId"`
	Message string  `json:"message"`
}

func (ActionErrorEvent) sessionEvent() {}

// EventName returns the wire name of an event.
func EventName(evt SessionEvent) string {
	switch evt.(type) {
	case LobbyCreatedEvent:
		return "lobby-created"
	case LobbyErrorEvent:
		return "lobby-error"
	case LobbyJoinedEvent:
		return "lobby-joined"
	case LobbyPlayerLeftEvent:
		return "lobby-player-left"
	case LobbyClosedEvent:
		return "lobby-closed"
	case MatchStartedEvent:
		return "match-started"
	case BoardUpdateEvent:
		return "board-update"
	case PresenceEvent:
		return "presence"
	case MatchEndedEvent:
		return "match-ended"
	case ActionErrorEvent:
		return "action-error"
	default:
		return "unknown"
	}
}

// NewMatchEndedEvent summarizes a finished session.
func NewMatchEndedEvent(snap duel.Snapshot) MatchEndedEvent {
	evt := MatchEndedEvent{
		MatchID: MatchID(snap.ID),
		Status:  snap.Status,
		Reason:  snap.EndReason,
		Score1:  snap.Players[0].Score,
		Score2:  snap.Players[1].Score,
	}
	if snap.WinnerID != nil {
		evt.WinnerID = *snap.WinnerID
	}
	return evt
}

// CoordinatorMessage is a request from a front end. The coordinator
// handles them one at a time on its own goroutine.
type CoordinatorMessage interface {
	coordinatorMessage()
}

// CreateLobbyMsg opens a lobby hosted by the sender.
type CreateLobbyMsg struct {
	SessionID   SessionID
	DisplayName string
}

func (CreateLobbyMsg) coordinatorMessage() {}

// JoinLobbyMsg takes the second seat of the lobby with Code.
type JoinLobbyMsg struct {
	SessionID   SessionID
	DisplayName string
	Code        string
}

func (JoinLobbyMsg) coordinatorMessage() {}

// CancelLobbyMsg closes the sender's own lobby.
type CancelLobbyMsg struct {
	SessionID SessionID
	Code      string
}

func (CancelLobbyMsg) coordinatorMessage() {}

// LeaveLobbyMsg gives up the joiner seat before the duel starts.
type LeaveLobbyMsg struct {
	SessionID SessionID
	Code      string
}

func (LeaveLobbyMsg) coordinatorMessage() {}

// LeaveMatchMsg forfeits an active match.
type LeaveMatchMsg struct {
	SessionID SessionID
	MatchID   MatchID
}

func (LeaveMatchMsg) coordinatorMessage() {}

// SubmitSwapMsg plays a swap in the sender's match.
type SubmitSwapMsg struct {
	SessionID SessionID
	MatchID   MatchID
	Swap      engine.SwapRequest
}

func (SubmitSwapMsg) coordinatorMessage() {}

// UsePowerUpMsg plays a power-up in the sender's match.
type UsePowerUpMsg struct {
	SessionID SessionID
	MatchID   MatchID
	Use       duel.PowerUpUse
}

func (UsePowerUpMsg) coordinatorMessage() {}

// SessionDisconnectedMsg is posted by the transport when a connection ends.
type SessionDisconnectedMsg struct {
	SessionID SessionID
}

func (SessionDisconnectedMsg) coordinatorMessage() {}
