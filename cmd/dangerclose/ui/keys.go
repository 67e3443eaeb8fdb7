package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the browser key bindings.
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	Back        key.Binding
	Root        key.Binding
	Favorites   key.Binding
	Customs     key.Binding
	AddFavs     key.Binding
	RemoveMode  key.Binding
	Confirm     key.Binding
	ClearAll    key.Binding
	Search      key.Binding
	Help        key.Binding
	Quit        key.Binding
	CancelInput key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", "right", "l", " "),
			key.WithHelp("enter", "open/toggle"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h", "backspace"),
			key.WithHelp("←/h", "back"),
		),
		Root: key.NewBinding(
			key.WithKeys("~", "home"),
			key.WithHelp("~", "root"),
		),
		Favorites: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "favorites"),
		),
		Customs: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "customs"),
		),
		AddFavs: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add favorites"),
		),
		RemoveMode: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "remove mode"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete staged"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "deactivate all"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		CancelInput: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Back, k.Favorites, k.Customs, k.Search, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Root},
		{k.Favorites, k.Customs, k.AddFavs, k.RemoveMode, k.Confirm},
		{k.ClearAll, k.Search, k.Help, k.Quit},
	}
}
