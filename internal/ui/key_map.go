package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	next    key.Binding
	prev    key.Binding
	sharpen key.Binding
	flatten key.Binding
	reset   key.Binding
	follow  key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "playlists")),
		next:    key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/l", "next song")),
		prev:    key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/h", "previous song")),
		sharpen: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "transpose up")),
		flatten: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "transpose down")),
		reset:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "original key")),
		follow:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow live")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.next, k.prev, k.sharpen, k.flatten, k.reset},
		{k.follow, k.refresh, k.quit},
	}
}
