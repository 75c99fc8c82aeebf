package multiplayer

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/jewel-duel/internal/duel"
)

// joinCodeLen is the length of a lobby code. Codes use the base32 alphabet
// (A-Z, 2-7) so they are easy to read out and type.
const joinCodeLen = 6

// Lobby is a hosted duel waiting for its second player.
type Lobby struct {
	Code       string
	Host       SessionHandle
	HostName   string
	Joiner     SessionHandle
	JoinerName string
	CreatedAt  time.Time
}

func (l *Lobby) full() bool { return l.Joiner != nil }

func (l *Lobby) hostedBy(id SessionID) bool { return l.Host.ID() == id }

func (l *Lobby) joinedBy(id SessionID) bool { return l.Joiner != nil && l.Joiner.ID() == id }

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	LobbyTimeout  time.Duration // How long an unjoined lobby stays open
	SweepPeriod   time.Duration // How often presence and turn clocks are checked
	CleanupPeriod time.Duration // How often expired lobbies are closed
}

// DefaultCoordinatorConfig returns the settings used by the SSH server.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		LobbyTimeout:  2 * time.Minute,
		SweepPeriod:   time.Second,
		CleanupPeriod: 30 * time.Second,
	}
}

// lobbyError is a failure reported back to the session that caused it.
type lobbyError string

func (e lobbyError) Error() string { return string(e) }

const (
	errAlreadyInLobby = lobbyError("Already in a lobby")
	errAlreadyInMatch = lobbyError("Already in a match")
	errLobbyNotFound  = lobbyError("Lobby not found")
	errLobbyFull      = lobbyError("Lobby is full")
	errMatchFailed    = lobbyError("Failed to create match")
)

// seat records where a session currently is: waiting in a lobby or playing
// a match. At most one of the fields is set.
type seat struct {
	lobby string
	match MatchID
}

// Coordinator pairs sessions through lobbies and relays their moves to the
// hub. Session ids double as duel player ids. Messages are handled one at a
// time on the coordinator's own goroutine.
type Coordinator struct {
	config   CoordinatorConfig
	hub      *Hub
	sessions *SessionRegistry
	logger   *log.Logger
	now      func() time.Time

	mu      sync.RWMutex
	lobbies map[string]*Lobby
	matches map[MatchID][2]SessionID
	seats   map[SessionID]seat

	inbox chan CoordinatorMessage
	done  chan struct{}
	stop  sync.Once
}

// NewCoordinator creates a coordinator. A nil logger uses the default one.
func NewCoordinator(cfg CoordinatorConfig, hub *Hub, sessions *SessionRegistry, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		config:   cfg,
		hub:      hub,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
		lobbies:  make(map[string]*Lobby),
		matches:  make(map[MatchID][2]SessionID),
		seats:    make(map[SessionID]seat),
		inbox:    make(chan CoordinatorMessage, 256),
		done:     make(chan struct{}),
	}
}

// Start runs the message loop and the periodic sweeps.
func (c *Coordinator) Start() {
	go c.loop()
}

// Stop ends the loop. Messages sent afterwards are dropped.
func (c *Coordinator) Stop() {
	c.stop.Do(func() { close(c.done) })
}

// Send queues msg for the loop.
func (c *Coordinator) Send(msg CoordinatorMessage) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) loop() {
	sweep := time.NewTicker(c.config.SweepPeriod)
	defer sweep.Stop()
	cleanup := time.NewTicker(c.config.CleanupPeriod)
	defer cleanup.Stop()

	for {
		select {
		case msg := <-c.inbox:
			c.handleMessage(msg)
		case now := <-sweep.C:
			c.sweepMatches(now)
		case <-cleanup.C:
			c.cleanupExpiredLobbies()
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleMessage(msg CoordinatorMessage) {
	var (
		from SessionID
		err  error
	)
	switch m := msg.(type) {
	case CreateLobbyMsg:
		from, err = m.SessionID, c.createLobby(m)
	case JoinLobbyMsg:
		from, err = m.SessionID, c.joinLobby(m)
	case CancelLobbyMsg:
		c.cancelLobby(m)
	case LeaveLobbyMsg:
		c.leaveLobby(m.SessionID, m.Code)
	case LeaveMatchMsg:
		c.leaveMatch(m)
	case SubmitSwapMsg:
		if c.seated(m.SessionID, m.MatchID) {
			update, actErr := c.hub.SubmitSwap(m.MatchID, string(m.SessionID), m.Swap)
			c.afterAction(m.SessionID, m.MatchID, update.Result, actErr)
		}
	case UsePowerUpMsg:
		if c.seated(m.SessionID, m.MatchID) {
			update, actErr := c.hub.UsePowerUp(m.MatchID, string(m.SessionID), m.Use)
			c.afterAction(m.SessionID, m.MatchID, update.Result, actErr)
		}
	case SessionDisconnectedMsg:
		c.disconnect(m.SessionID)
	}

	if err != nil {
		c.notify(from, LobbyErrorEvent{Message: err.Error()})
	}
}

func (c *Coordinator) notify(id SessionID, evt SessionEvent) {
	if session, ok := c.sessions.Get(id); ok {
		session.Send(evt)
	}
}

func (c *Coordinator) createLobby(msg CreateLobbyMsg) error {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return nil
	}

	c.mu.Lock()
	if err := c.checkFree(msg.SessionID); err != nil {
		c.mu.Unlock()
		return err
	}
	code := c.freshCode()
	c.lobbies[code] = &Lobby{
		Code:      code,
		Host:      session,
		HostName:  msg.DisplayName,
		CreatedAt: c.now(),
	}
	c.seats[msg.SessionID] = seat{lobby: code}
	c.mu.Unlock()

	c.logger.Info("lobby created", "code", code, "host", msg.DisplayName)
	session.Send(LobbyCreatedEvent{Code: code})
	return nil
}

// checkFree fails when the session already sits in a lobby or a match.
// Must be called with the lock held.
func (c *Coordinator) checkFree(id SessionID) error {
	switch s, ok := c.seats[id]; {
	case !ok:
		return nil
	case s.lobby != "":
		return errAlreadyInLobby
	default:
		return errAlreadyInMatch
	}
}

func (c *Coordinator) joinLobby(msg JoinLobbyMsg) error {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkFree(msg.SessionID); err != nil {
		return err
	}
	lobby, ok := c.lobbies[strings.ToUpper(strings.TrimSpace(msg.Code))]
	if !ok {
		return errLobbyNotFound
	}
	if lobby.full() {
		return errLobbyFull
	}

	lobby.Joiner = session
	lobby.JoinerName = msg.DisplayName
	c.seats[msg.SessionID] = seat{lobby: lobby.Code}

	lobby.Host.Send(LobbyJoinedEvent{Code: lobby.Code, Side: duel.SideFirst, OpponentName: lobby.JoinerName})
	session.Send(LobbyJoinedEvent{Code: lobby.Code, Side: duel.SideSecond, OpponentName: lobby.HostName})

	return c.startMatch(lobby)
}

// startMatch turns a full lobby into a hub match. Must be called with the
// lock held.
func (c *Coordinator) startMatch(lobby *Lobby) error {
	snap, err := c.hub.Create(
		duel.PlayerInfo{ID: string(lobby.Host.ID()), DisplayName: lobby.HostName},
		duel.PlayerInfo{ID: string(lobby.Joiner.ID()), DisplayName: lobby.JoinerName},
	)
	if err != nil {
		c.logger.Error("cannot start match", "code", lobby.Code, "error", err)
		lobby.Host.Send(LobbyErrorEvent{Message: errMatchFailed.Error()})
		return errMatchFailed
	}
	id := MatchID(snap.ID)
	delete(c.lobbies, lobby.Code)

	sides := [2]duel.Side{duel.SideFirst, duel.SideSecond}
	for i, p := range [2]SessionHandle{lobby.Host, lobby.Joiner} {
		// The match was just created, so watching it cannot fail.
		_ = c.hub.Watch(id, p)
		c.seats[p.ID()] = seat{match: id}
		p.Send(MatchStartedEvent{
			MatchID:  id,
			Side:     sides[i],
			Code:     lobby.Code,
			Snapshot: snap,
		})
	}
	c.matches[id] = [2]SessionID{lobby.Host.ID(), lobby.Joiner.ID()}
	c.logger.Info("match started", "match", id, "code", lobby.Code)
	return nil
}

func (c *Coordinator) cancelLobby(msg CancelLobbyMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if lobby, ok := c.lobbies[msg.Code]; ok && lobby.hostedBy(msg.SessionID) {
		c.closeLobby(lobby, LobbyClosedEvent{Code: lobby.Code})
	}
}

// closeLobby removes a lobby and sends evt to whoever is left in it. Must be
// called with the lock held.
func (c *Coordinator) closeLobby(lobby *Lobby, evt SessionEvent) {
	if lobby.Joiner != nil {
		lobby.Joiner.Send(evt)
		delete(c.seats, lobby.Joiner.ID())
	}
	delete(c.seats, lobby.Host.ID())
	delete(c.lobbies, lobby.Code)
}

func (c *Coordinator) leaveLobby(id SessionID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLobbyLocked(id, code)
}

// leaveLobbyLocked closes the lobby when its host leaves and reopens it when
// the joiner does.
func (c *Coordinator) leaveLobbyLocked(id SessionID, code string) {
	lobby, ok := c.lobbies[code]
	if !ok {
		return
	}
	switch {
	case lobby.hostedBy(id):
		c.closeLobby(lobby, LobbyClosedEvent{Code: code})
	case lobby.joinedBy(id):
		lobby.Joiner = nil
		lobby.JoinerName = ""
		delete(c.seats, id)
		lobby.Host.Send(LobbyPlayerLeftEvent{Code: code})
	}
}

func (c *Coordinator) leaveMatch(msg LeaveMatchMsg) {
	if !c.seated(msg.SessionID, msg.MatchID) {
		return
	}
	if err := c.hub.Forfeit(msg.MatchID, string(msg.SessionID)); err != nil {
		c.logger.Warn("forfeit failed", "match", msg.MatchID, "error", err)
	}
	c.forgetMatch(msg.MatchID)
}

func (c *Coordinator) afterAction(id SessionID, matchID MatchID, result duel.ActionResult, err error) {
	switch {
	case err != nil:
		c.notify(id, ActionErrorEvent{MatchID: matchID, Message: err.Error()})
	case result.Status.Terminal():
		c.forgetMatch(matchID)
	}
}

func (c *Coordinator) seated(id SessionID, matchID MatchID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seats[id].match == matchID
}

// forgetMatch drops the seats of a finished match.
func (c *Coordinator) forgetMatch(matchID MatchID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	players, ok := c.matches[matchID]
	if !ok {
		return
	}
	for _, id := range players {
		if c.seats[id].match == matchID {
			delete(c.seats, id)
		}
	}
	delete(c.matches, matchID)
}

// disconnect handles a dropped session. A player in a match keeps the seat;
// the presence sweep aborts the match if they are still gone when the
// offline timeout runs out on their turn.
func (c *Coordinator) disconnect(id SessionID) {
	c.mu.Lock()
	s := c.seats[id]
	if s.lobby != "" {
		c.leaveLobbyLocked(id, s.lobby)
	}
	c.mu.Unlock()

	if s.match == "" {
		return
	}
	c.hub.Unwatch(s.match, id)
	if err := c.hub.SetPresence(s.match, string(id), false); err != nil {
		c.logger.Debug("presence update skipped", "match", s.match, "error", err)
	}
}

func (c *Coordinator) sweepMatches(now time.Time) {
	for _, id := range c.hub.Sweep(now) {
		c.forgetMatch(id)
	}
}

// cleanupExpiredLobbies closes lobbies nobody joined in time.
func (c *Coordinator) cleanupExpiredLobbies() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, lobby := range c.lobbies {
		if lobby.full() || now.Sub(lobby.CreatedAt) <= c.config.LobbyTimeout {
			continue
		}
		lobby.Host.Send(LobbyErrorEvent{Message: "Lobby expired"})
		c.closeLobby(lobby, nil)
	}
}

// freshCode returns a join code no open lobby uses. Must be called with the
// lock held.
func (c *Coordinator) freshCode() string {
	for {
		if code := generateJoinCode(); c.lobbies[code] == nil {
			return code
		}
	}
}

func generateJoinCode() string {
	return rand.Text()[:joinCodeLen]
}

// GetLobby returns an open lobby by code.
func (c *Coordinator) GetLobby(code string) (*Lobby, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lobbies[strings.ToUpper(code)]
	return l, ok
}

// MatchOf returns the match a session is seated in.
func (c *Coordinator) MatchOf(id SessionID) (MatchID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.seats[id]
	return s.match, s.match != ""
}

// LobbyCount returns the number of open lobbies.
func (c *Coordinator) LobbyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lobbies)
}

// MatchCount returns the number of matches the coordinator still tracks.
func (c *Coordinator) MatchCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.matches)
}
