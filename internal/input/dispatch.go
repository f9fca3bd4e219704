// Package input turns key presses into navigation commands and forwards
// them to the state machine.
package input

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/brickview/internal/nav"
)

// Command is an abstract remote-control action.
type Command int

const (
	CommandNone Command = iota
	CommandNext
	CommandPrevious
	CommandActivate
	CommandDismiss
	CommandFocusLeft
	CommandFocusRight
	CommandOpenPhoto
	CommandQuit
	CommandHelp
	CommandLogs
	CommandCycleTheme
)

func (c Command) String() string {
	switch c {
	case CommandNext:
		return "next"
	case CommandPrevious:
		return "previous"
	case CommandActivate:
		return "activate"
	case CommandDismiss:
		return "dismiss"
	case CommandFocusLeft:
		return "focus-left"
	case CommandFocusRight:
		return "focus-right"
	case CommandOpenPhoto:
		return "open-photo"
	case CommandQuit:
		return "quit"
	case CommandHelp:
		return "help"
	case CommandLogs:
		return "logs"
	case CommandCycleTheme:
		return "cycle-theme"
	default:
		return "none"
	}
}

// Navigates reports whether the command is handled by the state machine
// rather than by the UI shell.
func (c Command) Navigates() bool {
	return c >= CommandNext && c <= CommandOpenPhoto
}

// Dispatcher resolves keys against a KeyMap.
type Dispatcher struct {
	Keys KeyMap
}

// NewDispatcher returns a dispatcher using DefaultKeyMap.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{Keys: DefaultKeyMap()}
}

// Resolve maps a key press to a command, CommandNone when unbound.
func (d *Dispatcher) Resolve(msg tea.KeyMsg) Command {
	k := d.Keys
	switch {
	case key.Matches(msg, k.Next):
		return CommandNext
	case key.Matches(msg, k.Previous):
		return CommandPrevious
	case key.Matches(msg, k.Activate):
		return CommandActivate
	case key.Matches(msg, k.Dismiss):
		return CommandDismiss
	case key.Matches(msg, k.FocusLeft):
		return CommandFocusLeft
	case key.Matches(msg, k.FocusRight):
		return CommandFocusRight
	case key.Matches(msg, k.OpenPhoto):
		return CommandOpenPhoto
	case key.Matches(msg, k.Quit):
		return CommandQuit
	case key.Matches(msg, k.Help):
		return CommandHelp
	case key.Matches(msg, k.Logs):
		return CommandLogs
	case key.Matches(msg, k.CycleTheme):
		return CommandCycleTheme
	default:
		return CommandNone
	}
}

// Apply forwards a navigation command to m. Shell commands (quit, help, ...)
// produce no effects. OpenPhoto opens the focused photo; its error is only
// possible when the gallery is empty.
func Apply(m *nav.Machine, cmd Command) ([]nav.Effect, error) {
	switch cmd {
	case CommandNext:
		return m.MoveNext(), nil
	case CommandPrevious:
		return m.MovePrevious(), nil
	case CommandActivate:
		return m.Activate(), nil
	case CommandDismiss:
		return m.Dismiss(), nil
	case CommandFocusLeft:
		return m.MoveFocusLeft(), nil
	case CommandFocusRight:
		return m.MoveFocusRight(), nil
	case CommandOpenPhoto:
		return m.EnterPhotoView(m.State().FocusedPhoto)
	default:
		return nil, nil
	}
}
