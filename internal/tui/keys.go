package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left     key.Binding
	Right    key.Binding
	BigLeft  key.Binding
	BigRight key.Binding
	Min      key.Binding
	Max      key.Binding
	Reset    key.Binding
	Theme    key.Binding
	Reload   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "lower rate")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "raise rate")),
		BigLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("⇧←/H", "lower by 1%")),
		BigRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("⇧→/L", "raise by 1%")),
		Min:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home/g", "minimum")),
		Max:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end/G", "maximum")),
		Reset:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "default rate")),
		Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "next theme")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload data")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Theme, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.BigLeft, k.BigRight},
		{k.Min, k.Max, k.Reset},
		{k.Theme, k.Reload, k.Help, k.Quit},
	}
}
