package core

// Action represents a semantic input action, abstracted from physical key presses.
type Action int

const (
	ActionNone    Action = iota
	ActionUp             // W, K, Up arrow - move cursor or swap up
	ActionDown           // S, J, Down arrow
	ActionLeft           // A, H, Left arrow
	ActionRight          // D, L, Right arrow
	ActionPick           // Space, Enter - pick or drop the jewel under the cursor
	ActionCancel         // Esc - drop the picked jewel
	ActionBack           // B - go back to menu
	ActionRestart        // R - new duel after the end screen
	ActionQuit           // Q, Ctrl+C - exit
	ActionHelp           // ? - toggle full help
	ActionPowerUp        // 1-6 - use a power-up
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionPick:
		return "Pick"
	case ActionCancel:
		return "Cancel"
	case ActionBack:
		return "Back"
	case ActionRestart:
		return "Restart"
	case ActionQuit:
		return "Quit"
	case ActionHelp:
		return "Help"
	case ActionPowerUp:
		return "PowerUp"
	default:
		return "Unknown"
	}
}

// Dir is a unit step on the board grid.
type Dir struct {
	DC, DR int
}

var (
	DirUp    = Dir{0, -1}
	DirDown  = Dir{0, 1}
	DirLeft  = Dir{-1, 0}
	DirRight = Dir{1, 0}
)

// Dir returns the grid direction of a movement action.
func (a Action) Dir() (Dir, bool) {
	switch a {
	case ActionUp:
		return DirUp, true
	case ActionDown:
		return DirDown, true
	case ActionLeft:
		return DirLeft, true
	case ActionRight:
		return DirRight, true
	}
	return Dir{}, false
}
