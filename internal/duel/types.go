// Package duel is the two-player turn, score and power-up state machine that
// sits on top of the board engine. A Session is synchronous and not safe for
// concurrent use; callers that share one must serialize access.
package duel

import "time"

// Side identifies which seat a player occupies.
type Side string

const (
	SideFirst  Side = "first"
	SideSecond Side = "second"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideFirst {
		return SideSecond
	}
	return SideFirst
}

func (s Side) index() int {
	if s == SideSecond {
		return 1
	}
	return 0
}

// Status is the session lifecycle state.
type Status string

const (
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusAborted    Status = "aborted"
)

// Terminal reports whether no further mutation is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// EndReason records why a session left inProgress.
type EndReason string

const (
	EndMoveLimit      EndReason = "move-limit"
	EndForfeit        EndReason = "forfeit"
	EndOfflineTimeout EndReason = "offline-timeout"
	EndCancelled      EndReason = "cancelled"
)

// PowerUpKind is one of the fixed power-up types.
type PowerUpKind string

const (
	PowerUpBomb         PowerUpKind = "bomb"
	PowerUpRevealMoves  PowerUpKind = "reveal-moves"
	PowerUpDoublePoints PowerUpKind = "double-points"
	PowerUpFreezeTimer  PowerUpKind = "freeze-timer"
	PowerUpSwapAnyTwo   PowerUpKind = "swap-any-two"
	PowerUpReshuffle    PowerUpKind = "reshuffle"
)

// AllPowerUps lists every kind in grant order.
var AllPowerUps = []PowerUpKind{
	PowerUpBomb,
	PowerUpRevealMoves,
	PowerUpDoublePoints,
	PowerUpFreezeTimer,
	PowerUpSwapAnyTwo,
	PowerUpReshuffle,
}

var powerUpEffects = map[PowerUpKind]string{
	PowerUpBomb:         "clear a 2x2 block",
	PowerUpRevealMoves:  "show every matching swap",
	PowerUpDoublePoints: "double your next score",
	PowerUpFreezeTimer:  "extend your turn clock",
	PowerUpSwapAnyTwo:   "swap any two jewels",
	PowerUpReshuffle:    "re-deal the board",
}

// Effect returns a short description of what the power-up does.
func (k PowerUpKind) Effect() string {
	return powerUpEffects[k]
}

// ConsumesTurn reports whether using the power-up ends the holder's turn.
func (k PowerUpKind) ConsumesTurn() bool {
	switch k {
	case PowerUpBomb, PowerUpSwapAnyTwo, PowerUpReshuffle:
		return true
	}
	return false
}

// Valid reports whether k is a known kind.
func (k PowerUpKind) Valid() bool {
	_, ok := powerUpEffects[k]
	return ok
}

// ParsePowerUp accepts a kind name or its 1-based position in AllPowerUps.
func ParsePowerUp(s string) (PowerUpKind, bool) {
	if len(s) == 1 && s[0] >= '1' && int(s[0]-'0') <= len(AllPowerUps) {
		return AllPowerUps[s[0]-'1'], true
	}
	k := PowerUpKind(s)
	return k, k.Valid()
}

// PlayerInfo identifies a player joining a session.
type PlayerInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"` // Opaque to the duel, usually an image URL
}

// Player is a participant's state inside a session.
type Player struct {
	ID           string              `json:"id"`
	DisplayName  string              `json:"displayName"`
	Avatar       string              `json:"avatar,omitempty"`
	Score        int                 `json:"score"`
	TurnCount    int                 `json:"turnCount"`
	Side         Side                `json:"side"`
	PowerUps     map[PowerUpKind]int `json:"powerUps"`
	BetCoins     int                 `json:"betCoins"`
	Online       bool                `json:"online"`
	OfflineSince *time.Time          `json:"offlineSince"`
	DoublePoints bool                `json:"doublePoints"`
}

// PowerUpCount returns the number of held power-ups of kind k.
func (p Player) PowerUpCount(k PowerUpKind) int {
	return p.PowerUps[k]
}

func (p Player) clone() Player {
	cp := p
	cp.PowerUps = make(map[PowerUpKind]int, len(p.PowerUps))
	for k, n := range p.PowerUps {
		cp.PowerUps[k] = n
	}
	if p.OfflineSince != nil {
		t := *p.OfflineSince
		cp.OfflineSince = &t
	}
	return cp
}
