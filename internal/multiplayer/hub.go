package multiplayer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/jewel-duel/internal/board"
	"github.com/vovakirdan/jewel-duel/internal/duel"
	"github.com/vovakirdan/jewel-duel/internal/engine"
)

// ErrMatchNotFound is returned for an id the hub does not host.
var ErrMatchNotFound = errors.New("multiplayer: match not found")

// Hub hosts many duels at once. Each match has its own lock, so actions on
// different matches run in parallel while actions on one match, including
// presence and clock sweeps, are serialized.
type Hub struct {
	rules       duel.Rules
	mode        MatchMode
	archiver    MatchArchiver // Optional, can be nil
	logger      *log.Logger
	clock       func() time.Time
	retention   time.Duration
	sessionOpts []duel.Option

	mu      sync.RWMutex
	matches map[MatchID]*liveMatch
}

type liveMatch struct {
	mu       sync.Mutex
	id       MatchID
	session  *duel.Session
	watchers map[SessionID]SessionHandle
	archived bool
	endedAt  time.Time
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithArchiver stores every match that ends.
func WithArchiver(a MatchArchiver) HubOption {
	return func(h *Hub) {
		h.archiver = a
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) HubOption {
	return func(h *Hub) {
		h.logger = l
	}
}

// WithMode sets the mode recorded for archived matches.
func WithMode(m MatchMode) HubOption {
	return func(h *Hub) {
		h.mode = m
	}
}

// WithHubClock replaces time.Now for sessions and sweeps.
func WithHubClock(clock func() time.Time) HubOption {
	return func(h *Hub) {
		h.clock = clock
	}
}

// WithRetention sets how long finished matches stay readable before a
// sweep drops them.
func WithRetention(d time.Duration) HubOption {
	return func(h *Hub) {
		h.retention = d
	}
}

// WithSessionOptions passes extra options to every duel.New call.
func WithSessionOptions(opts ...duel.Option) HubOption {
	return func(h *Hub) {
		h.sessionOpts = append(h.sessionOpts, opts...)
	}
}

// NewHub creates a hub that starts every match with rules.
func NewHub(rules duel.Rules, opts ...HubOption) *Hub {
	h := &Hub{
		rules:     rules,
		mode:      MatchModeHTTP,
		logger:    log.Default(),
		clock:     time.Now,
		retention: 10 * time.Minute,
		matches:   make(map[MatchID]*liveMatch),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Rules returns the rules new matches start with.
func (h *Hub) Rules() duel.Rules {
	return h.rules
}

// Create seats two players in a new match and returns its first snapshot.
func (h *Hub) Create(p1, p2 duel.PlayerInfo) (duel.Snapshot, error) {
	id := MatchID(uuid.NewString())

	opts := []duel.Option{
		duel.WithClock(h.clock),
		duel.WithSource(board.NewSource(time.Now().UnixNano())),
	}
	opts = append(opts, h.sessionOpts...)

	s, err := duel.New(string(id), p1, p2, h.rules, opts...)
	if err != nil {
		return duel.Snapshot{}, fmt.Errorf("multiplayer: cannot create match: %w", err)
	}

	m := &liveMatch{
		id:       id,
		session:  s,
		watchers: make(map[SessionID]SessionHandle),
	}

	h.mu.Lock()
	h.matches[id] = m
	h.mu.Unlock()

	h.logger.Info("match created", "match", id, "player1", p1.ID, "player2", p2.ID)
	return s.Snapshot(), nil
}

func (h *Hub) get(id MatchID) (*liveMatch, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	return m, nil
}

// Snapshot returns the current state of a match.
func (h *Hub) Snapshot(id MatchID) (duel.Snapshot, error) {
	m, err := h.get(id)
	if err != nil {
		return duel.Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Snapshot(), nil
}

// Snapshots returns the state of every hosted match.
func (h *Hub) Snapshots() []duel.Snapshot {
	h.mu.RLock()
	live := make([]*liveMatch, 0, len(h.matches))
	for _, m := range h.matches {
		live = append(live, m)
	}
	h.mu.RUnlock()

	snaps := make([]duel.Snapshot, 0, len(live))
	for _, m := range live {
		m.mu.Lock()
		snaps = append(snaps, m.session.Snapshot())
		m.mu.Unlock()
	}
	return snaps
}

// SubmitSwap plays a swap for playerID. It returns the update broadcast to
// watchers, whose snapshot was taken under the match lock right after the
// swap resolved.
func (h *Hub) SubmitSwap(id MatchID, playerID string, req engine.SwapRequest) (BoardUpdateEvent, error) {
	return h.act(id, func(s *duel.Session) (duel.ActionResult, error) {
		return s.SubmitSwapAs(playerID, req)
	})
}

// UsePowerUp spends a power-up for playerID, returning the broadcast update
// like SubmitSwap.
func (h *Hub) UsePowerUp(id MatchID, playerID string, use duel.PowerUpUse) (BoardUpdateEvent, error) {
	return h.act(id, func(s *duel.Session) (duel.ActionResult, error) {
		return s.UsePowerUp(playerID, use)
	})
}

func (h *Hub) act(id MatchID, fn func(*duel.Session) (duel.ActionResult, error)) (BoardUpdateEvent, error) {
	m, err := h.get(id)
	if err != nil {
		return BoardUpdateEvent{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	result, err := fn(m.session)
	if err != nil {
		return BoardUpdateEvent{}, err
	}
	update := BoardUpdateEvent{MatchID: id, Result: result, Snapshot: m.session.Snapshot()}
	m.broadcast(update)
	h.settle(m, update.Snapshot)
	return update, nil
}

// SetPresence marks a player online or offline.
func (h *Hub) SetPresence(id MatchID, playerID string, online bool) error {
	m, err := h.get(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if online {
		err = m.session.MarkPlayerOnline(playerID)
	} else {
		err = m.session.MarkPlayerOffline(playerID, h.clock())
	}
	if err != nil {
		return err
	}
	m.broadcast(PresenceEvent{MatchID: id, PlayerID: playerID, Online: online})
	return nil
}

// Abort ends a match with no winner.
func (h *Hub) Abort(id MatchID, reason duel.EndReason) error {
	return h.end(id, func(s *duel.Session) error {
		return s.ForceAbort(reason)
	})
}

// Forfeit ends a match in favour of playerID's opponent.
func (h *Hub) Forfeit(id MatchID, playerID string) error {
	return h.end(id, func(s *duel.Session) error {
		return s.Forfeit(playerID)
	})
}

func (h *Hub) end(id MatchID, fn func(*duel.Session) error) error {
	m, err := h.get(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := fn(m.session); err != nil {
		return err
	}
	h.settle(m, m.session.Snapshot())
	return nil
}

// Watch subscribes a session to a match's events.
func (h *Hub) Watch(id MatchID, session SessionHandle) error {
	m, err := h.get(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers[session.ID()] = session
	return nil
}

// Unwatch removes a subscription. Unknown ids are ignored.
func (h *Hub) Unwatch(id MatchID, sessionID SessionID) {
	m, err := h.get(id)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watchers, sessionID)
}

// Sweep evaluates presence and turn clocks of every live match and drops
// finished matches older than the retention period. It returns the matches
// that ended during this sweep.
func (h *Hub) Sweep(now time.Time) []MatchID {
	h.mu.RLock()
	live := make([]*liveMatch, 0, len(h.matches))
	for _, m := range h.matches {
		live = append(live, m)
	}
	h.mu.RUnlock()

	var ended, expired []MatchID
	for _, m := range live {
		m.mu.Lock()
		s := m.session
		if s.Status().Terminal() {
			if now.Sub(m.endedAt) > h.retention {
				expired = append(expired, m.id)
			}
			m.mu.Unlock()
			continue
		}

		if s.EvaluatePresence(now) {
			h.logger.Info("match aborted", "match", m.id, "reason", s.EndReason())
		} else if result, ok := s.EvaluateClock(now); ok {
			m.broadcast(BoardUpdateEvent{MatchID: m.id, Result: result, Snapshot: s.Snapshot()})
		}
		if s.Status().Terminal() {
			h.settle(m, s.Snapshot())
			ended = append(ended, m.id)
		}
		m.mu.Unlock()
	}

	if len(expired) > 0 {
		h.mu.Lock()
		for _, id := range expired {
			delete(h.matches, id)
		}
		h.mu.Unlock()
	}
	return ended
}

// settle archives and announces a match the first time it is seen terminal.
// Must be called with m.mu held.
func (h *Hub) settle(m *liveMatch, snap duel.Snapshot) {
	if !snap.Status.Terminal() || m.archived {
		return
	}
	m.archived = true
	m.endedAt = h.clock()
	m.broadcast(NewMatchEndedEvent(snap))

	h.logger.Info("match ended",
		"match", m.id,
		"status", snap.Status,
		"reason", snap.EndReason,
		"score1", snap.Players[0].Score,
		"score2", snap.Players[1].Score,
	)

	if h.archiver == nil {
		return
	}
	if err := h.archiver.ArchiveMatch(NewMatchRecord(h.mode, m.session)); err != nil {
		h.logger.Error("cannot archive match", "match", m.id, "error", err)
	}
}

// Count returns the number of hosted matches, finished ones included.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matches)
}

func (m *liveMatch) broadcast(evt SessionEvent) {
	for _, w := range m.watchers {
		w.Send(evt)
	}
}
