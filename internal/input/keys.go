package input

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds remote and keyboard keys to commands.
type KeyMap struct {
	// Remote
	Next       key.Binding
	Previous   key.Binding
	Activate   key.Binding
	Dismiss    key.Binding
	FocusLeft  key.Binding
	FocusRight key.Binding
	OpenPhoto  key.Binding

	// Keyboard only
	Quit       key.Binding
	Help       key.Binding
	Logs       key.Binding
	CycleTheme key.Binding
}

// DefaultKeyMap returns the default bindings. Up walks backwards through the
// scenes and Down forwards, like a vertical menu.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "Next scene"),
		),
		Previous: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "Previous scene"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Play / open / sync"),
		),
		Dismiss: key.NewBinding(
			// backspace is what most TV remotes send for Back.
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "Back"),
		),
		FocusLeft: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "Previous photo"),
		),
		FocusRight: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "Next photo"),
		),
		OpenPhoto: key.NewBinding(
			key.WithKeys(" ", "f"),
			key.WithHelp("space", "Full screen"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Client log"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Activate, k.Dismiss, k.Help}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Previous, k.Next, k.Activate, k.Dismiss},
		{k.FocusLeft, k.FocusRight, k.OpenPhoto},
		{k.Logs, k.CycleTheme, k.Help, k.Quit},
	}
}
