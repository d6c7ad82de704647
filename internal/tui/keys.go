package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the application
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding
	Home key.Binding
	End  key.Binding

	// Actions
	Add       key.Binding
	Delete    key.Binding
	ClearAll  key.Binding
	Refresh   key.Binding
	Focus     key.Binding
	Blur      key.Binding
	Help      key.Binding
	Escape    key.Binding
	Quit      key.Binding
	Interrupt key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Add: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "add task"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "d", "delete"),
			key.WithHelp("x", "delete task"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear all"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		Focus: key.NewBinding(
			key.WithKeys("/", "i", "a", "tab"),
			key.WithHelp("/", "new task"),
		),
		Blur: key.NewBinding(
			key.WithKeys("tab", "esc", "down"),
			key.WithHelp("tab", "to list"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown under the list
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Delete, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End},
		{k.Add, k.Delete, k.ClearAll, k.Refresh},
		{k.Focus, k.Blur, k.Help, k.Quit, k.Interrupt},
	}
}

// InputHelp returns the bindings shown while typing a new task
func (k KeyMap) InputHelp() []key.Binding {
	return []key.Binding{k.Add, k.Blur, k.Interrupt}
}
