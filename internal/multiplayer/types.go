// Package multiplayer hosts live duels for remote front ends: a Hub that owns
// many concurrent sessions, a lobby Coordinator that pairs SSH players by
// join code, and the transport-neutral session handles both talk through.
package multiplayer

import (
	"time"

	"github.com/vovakirdan/jewel-duel/internal/duel"
)

// SessionID uniquely identifies a connected client (an SSH connection or a
// websocket). In lobby-paired matches it doubles as the duel player id.
type SessionID string

// MatchID uniquely identifies a hosted duel. It equals the duel session id.
type MatchID string

// MatchMode records which front end a match was played through.
type MatchMode string

const (
	// MatchModeHotSeat is two players sharing one terminal.
	MatchModeHotSeat MatchMode = "hot-seat"

	// MatchModeSSH is two SSH sessions paired by the coordinator.
	MatchModeSSH MatchMode = "ssh"

	// MatchModeHTTP is a match driven through the web API.
	MatchModeHTTP MatchMode = "http"
)

// String returns a human-readable name for the match mode.
func (m MatchMode) String() string {
	switch m {
	case MatchModeHotSeat:
		return "Hot seat"
	case MatchModeSSH:
		return "SSH"
	case MatchModeHTTP:
		return "Web"
	default:
		return "Unknown"
	}
}

// MatchRecord is what gets archived once a duel leaves inProgress.
type MatchRecord struct {
	MatchID  MatchID
	Mode     MatchMode
	Snapshot duel.Snapshot
	Duration time.Duration
}

// MatchArchiver persists finished matches.
// This keeps the hub independent of the storage package.
type MatchArchiver interface {
	ArchiveMatch(rec MatchRecord) error
}

// NewMatchRecord builds the archive record of a finished session.
func NewMatchRecord(mode MatchMode, s *duel.Session) MatchRecord {
	return MatchRecord{
		MatchID:  MatchID(s.ID()),
		Mode:     mode,
		Snapshot: s.Snapshot(),
		Duration: s.Duration(),
	}
}
