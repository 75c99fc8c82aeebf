package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/jewel-duel/internal/core"
	"github.com/vovakirdan/jewel-duel/internal/duel"
)

// DuelKeyMap holds the duel bindings. The same bindings drive input
// mapping and the help line, so the two cannot drift apart.
type DuelKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Pick    key.Binding
	Cancel  key.Binding
	PowerUp key.Binding
	Restart key.Binding
	Help    key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func DefaultDuelKeyMap() DuelKeyMap {
	return DuelKeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "w", "k"), key.WithHelp("↑/w", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "s", "j"), key.WithHelp("↓/s", "down")),
		Left:    key.NewBinding(key.WithKeys("left", "a", "h"), key.WithHelp("←/a", "left")),
		Right:   key.NewBinding(key.WithKeys("right", "d", "l"), key.WithHelp("→/d", "right")),
		Pick:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "pick jewel")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "drop pick")),
		PowerUp: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6"), key.WithHelp("1-6", "power-up")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rematch")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more help")),
		Back:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "back")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// move folds the four directions into one help entry.
func (k DuelKeyMap) move() key.Binding {
	var keys []string
	for _, b := range []key.Binding{k.Up, k.Down, k.Left, k.Right} {
		keys = append(keys, b.Keys()...)
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp("←↑↓→", "move / swap"))
}

func (k DuelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.move(), k.Pick, k.PowerUp, k.Help, k.Quit}
}

func (k DuelKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.move(), k.Pick, k.Cancel},
		{k.PowerUp, k.Restart, k.Help, k.Back, k.Quit},
	}
}

// MenuAction is what a key means on a menu screen.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionQuit
)

type binding[T any] struct {
	key.Binding
	to T
}

// KeyMapper turns key messages into duel actions and menu actions.
type KeyMapper struct {
	duel []binding[core.Action]
	menu []binding[MenuAction]
}

func NewKeyMapper() *KeyMapper {
	return newKeyMapper(DefaultDuelKeyMap())
}

func newKeyMapper(k DuelKeyMap) *KeyMapper {
	return &KeyMapper{
		duel: []binding[core.Action]{
			{k.Quit, core.ActionQuit},
			{k.Up, core.ActionUp},
			{k.Down, core.ActionDown},
			{k.Left, core.ActionLeft},
			{k.Right, core.ActionRight},
			{k.Pick, core.ActionPick},
			{k.Cancel, core.ActionCancel},
			{k.Back, core.ActionBack},
			{k.Restart, core.ActionRestart},
			{k.Help, core.ActionHelp},
			{k.PowerUp, core.ActionPowerUp},
		},
		menu: []binding[MenuAction]{
			{k.Quit, MenuActionQuit},
			{k.Up, MenuActionUp},
			{k.Down, MenuActionDown},
			{k.Pick, MenuActionSelect},
			{key.NewBinding(key.WithKeys("esc", "b")), MenuActionBack},
		},
	}
}

func lookup[T any](table []binding[T], msg tea.KeyMsg) (T, bool) {
	for _, b := range table {
		if key.Matches(msg, b.Binding) {
			return b.to, true
		}
	}
	var zero T
	return zero, false
}

// MapKey returns the duel action for msg, ActionNone when unbound, and
// whether it asks to quit.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (core.Action, bool) {
	action, ok := lookup(km.duel, msg)
	if !ok {
		return core.ActionNone, false
	}
	return action, action == core.ActionQuit
}

// PowerUpForKey returns the power-up bound to a digit key.
func (km *KeyMapper) PowerUpForKey(msg tea.KeyMsg) (duel.PowerUpKind, bool) {
	return duel.ParsePowerUp(msg.String())
}

func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	action, _ := lookup(km.menu, msg)
	return action
}
