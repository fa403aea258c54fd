package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the bindings for the browse UI.
type KeyMap struct {
	Prev       key.Binding
	Next       key.Binding
	First      key.Binding
	Last       key.Binding
	Second     key.Binding
	Minute     key.Binding
	Hour       key.Binding
	Day        key.Binding
	Month      key.Binding
	SwitchView key.Binding
	Search     key.Binding
	Preview    key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "up", "h", "k"),
			key.WithHelp("←/↑", "previous file"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "down", "l", "j"),
			key.WithHelp("→/↓", "next file"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home", "first file"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end", "last file"),
		),
		Second: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "second ticks"),
		),
		Minute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "minute ticks"),
		),
		Hour: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "hour ticks"),
		),
		Day: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "day ticks"),
		),
		Month: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "month ticks"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch view"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Preview: key.NewBinding(
			key.WithKeys("enter", "p"),
			key.WithHelp("enter", "preview"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the one-line help bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.SwitchView, k.Search, k.Preview, k.Quit}
}

// FullHelp returns all bindings grouped for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.First, k.Last},
		{k.Second, k.Minute, k.Hour, k.Day, k.Month},
		{k.SwitchView, k.Search, k.Preview, k.Refresh, k.Quit},
	}
}
