// Package storage provides SQLite-based persistence for finished duels.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/multiplayer"
)

// Store manages the SQLite database connection for the match archive.
type Store struct {
	db *sql.DB
}

// DuelMatch is one archived duel.
type DuelMatch struct {
	ID          int64
	MatchID     string
	Mode        string
	Player1ID   string
	Player1Name string
	Player2ID   string
	Player2Name string
	Score1      int
	Score2      int
	WinnerID    string // Empty on a draw or an abort
	Status      string // "completed" or "aborted"
	EndReason   string // "move-limit", "forfeit", "offline-timeout", "cancelled"
	Turns       int
	Duration    int    // Duration in seconds
	Snapshot    string // Final duel.Snapshot as JSON
	CreatedAt   time.Time
}

// LeaderboardEntry aggregates a player's completed matches.
type LeaderboardEntry struct {
	PlayerID    string
	DisplayName string
	Wins        int
	Losses      int
	Draws       int
	Matches     int
	BestScore   int
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS duel_matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL UNIQUE,
			mode TEXT NOT NULL,
			player1_id TEXT NOT NULL,
			player1_name TEXT NOT NULL DEFAULT '',
			player2_id TEXT NOT NULL,
			player2_name TEXT NOT NULL DEFAULT '',
			score1 INTEGER NOT NULL DEFAULT 0,
			score2 INTEGER NOT NULL DEFAULT 0,
			winner_id TEXT,
			status TEXT NOT NULL,
			end_reason TEXT NOT NULL DEFAULT '',
			turns INTEGER NOT NULL DEFAULT 0,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			snapshot TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_duel_matches_player1 ON duel_matches(player1_id);
		CREATE INDEX IF NOT EXISTS idx_duel_matches_player2 ON duel_matches(player2_id);
		CREATE INDEX IF NOT EXISTS idx_duel_matches_created ON duel_matches(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const matchColumns = `id, match_id, mode, player1_id, player1_name, player2_id, player2_name,
	score1, score2, winner_id, status, end_reason, turns, duration_secs, snapshot, created_at`

// SaveMatch records a finished duel. Saving the same match id twice fails.
// Returns the ID of the inserted record.
func (s *Store) SaveMatch(m DuelMatch) (int64, error) {
	var winner sql.NullString
	if m.WinnerID != "" {
		winner = sql.NullString{String: m.WinnerID, Valid: true}
	}

	res, err := s.db.Exec(
		`INSERT INTO duel_matches
		 (match_id, mode, player1_id, player1_name, player2_id, player2_name,
		  score1, score2, winner_id, status, end_reason, turns, duration_secs, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MatchID,
		m.Mode,
		m.Player1ID,
		m.Player1Name,
		m.Player2ID,
		m.Player2Name,
		m.Score1,
		m.Score2,
		winner,
		m.Status,
		m.EndReason,
		m.Turns,
		m.Duration,
		m.Snapshot,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save match: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// MatchByID retrieves a match by its match ID. It returns nil, nil when
// no such match was archived.
func (s *Store) MatchByID(matchID string) (*DuelMatch, error) {
	row := s.db.QueryRow(
		`SELECT `+matchColumns+`
		 FROM duel_matches
		 WHERE match_id = ?`,
		matchID,
	)

	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	return &m, nil
}

// RecentMatches retrieves the most recent matches.
func (s *Store) RecentMatches(limit int) ([]DuelMatch, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+matchColumns+`
		 FROM duel_matches
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	return collectMatches(rows)
}

// PlayerHistory retrieves the matches a player took part in, newest first.
func (s *Store) PlayerHistory(playerID string, limit int) ([]DuelMatch, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+matchColumns+`
		 FROM duel_matches
		 WHERE player1_id = ? OR player2_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		playerID, playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player matches: %w", err)
	}
	return collectMatches(rows)
}

// Leaderboard ranks players by wins over completed matches. Aborted matches
// do not count.
func (s *Store) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT player_id, MAX(player_name),
		        SUM(CASE WHEN winner_id = player_id THEN 1 ELSE 0 END),
		        SUM(CASE WHEN winner_id IS NOT NULL AND winner_id <> player_id THEN 1 ELSE 0 END),
		        SUM(CASE WHEN winner_id IS NULL THEN 1 ELSE 0 END),
		        COUNT(*),
		        MAX(score)
		 FROM (
		     SELECT player1_id AS player_id, player1_name AS player_name, score1 AS score, winner_id
		     FROM duel_matches WHERE status = 'completed'
		     UNION ALL
		     SELECT player2_id, player2_name, score2, winner_id
		     FROM duel_matches WHERE status = 'completed'
		 )
		 GROUP BY player_id
		 ORDER BY 3 DESC, 7 DESC, player_id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.Wins, &e.Losses, &e.Draws, &e.Matches, &e.BestScore); err != nil {
			return nil, fmt.Errorf("storage: cannot scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (DuelMatch, error) {
	var m DuelMatch
	var winner sql.NullString
	var createdAt any

	err := row.Scan(
		&m.ID,
		&m.MatchID,
		&m.Mode,
		&m.Player1ID,
		&m.Player1Name,
		&m.Player2ID,
		&m.Player2Name,
		&m.Score1,
		&m.Score2,
		&winner,
		&m.Status,
		&m.EndReason,
		&m.Turns,
		&m.Duration,
		&m.Snapshot,
		&createdAt,
	)
	if err != nil {
		return DuelMatch{}, err
	}

	if winner.Valid {
		m.WinnerID = winner.String
	}
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

func collectMatches(rows *sql.Rows) ([]DuelMatch, error) {
	defer rows.Close()

	var matches []DuelMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return matches, nil
}

// parseTime handles both time.Time and the string form SQLite may return.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// DecodeSnapshot parses the stored final state of a match.
func (m DuelMatch) DecodeSnapshot() (duel.Snapshot, error) {
	var snap duel.Snapshot
	if err := json.Unmarshal([]byte(m.Snapshot), &snap); err != nil {
		return duel.Snapshot{}, fmt.Errorf("storage: cannot decode snapshot of %s: %w", m.MatchID, err)
	}
	return snap, nil
}

// MatchFromRecord flattens an archive record into a table row.
func MatchFromRecord(rec multiplayer.MatchRecord) (DuelMatch, error) {
	snap := rec.Snapshot
	data, err := json.Marshal(snap)
	if err != nil {
		return DuelMatch{}, fmt.Errorf("storage: cannot encode snapshot: %w", err)
	}

	p1, p2 := snap.Players[0], snap.Players[1]
	m := DuelMatch{
		MatchID:     string(rec.MatchID),
		Mode:        string(rec.Mode),
		Player1ID:   p1.ID,
		Player1Name: p1.DisplayName,
		Player2ID:   p2.ID,
		Player2Name: p2.DisplayName,
		Score1:      p1.Score,
		Score2:      p2.Score,
		Status:      string(snap.Status),
		EndReason:   string(snap.EndReason),
		Turns:       p1.TurnCount + p2.TurnCount,
		Duration:    int(rec.Duration / time.Second),
		Snapshot:    string(data),
	}
	if snap.WinnerID != nil {
		m.WinnerID = *snap.WinnerID
	}
	return m, nil
}

// ArchiveMatch implements multiplayer.MatchArchiver.
// This adapter allows the hub to archive matches without direct storage dependency.
func (s *Store) ArchiveMatch(rec multiplayer.MatchRecord) error {
	m, err := MatchFromRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.SaveMatch(m)
	return err
}

// Ensure Store implements MatchArchiver
var _ multiplayer.MatchArchiver = (*Store)(nil)
