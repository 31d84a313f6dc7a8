package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/vovakirdan/pose-match/internal/game"
)

// PlayKeyMap defines the key bindings for the play screen.
type PlayKeyMap struct {
	Start key.Binding
	Retry key.Binding
	Reset key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k PlayKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Retry, k.Reset, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k PlayKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Retry, k.Reset},
		{k.Help, k.Quit},
	}
}

// DefaultPlayKeyMap returns default key bindings.
func DefaultPlayKeyMap() PlayKeyMap {
	return PlayKeyMap{
		Start: key.NewBinding(
			key.WithKeys("s", "enter", " "),
			key.WithHelp("s/enter", "start"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry level"),
		),
		Reset: key.NewBinding(
			key.WithKeys("x", "esc"),
			key.WithHelp("x/esc", "reset"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// syncEnabled enables only the bindings that make sense for status, so
// the help bar shows what the player can do right now.
func (k *PlayKeyMap) syncEnabled(status game.RunStatus) {
	k.Start.SetEnabled(status == game.RunNotStarted)
	k.Retry.SetEnabled(status == game.RunFailed)
	k.Reset.SetEnabled(status != game.RunNotStarted)
}
