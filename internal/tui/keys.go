package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PunchIn  key.Binding
	PunchOut key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	PunchIn: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "punch in"),
	),
	PunchOut: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "punch out"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PunchIn, k.PunchOut, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
