package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the Bubble Tea program and blocks until the user quits or the
// context in opts is cancelled.
func Run(opts Options) error {
	model, err := New(opts)
	if err != nil {
		return err
	}

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(model, programOpts...)
	if _, err := p.Run(); err != nil {
		if opts.Context != nil && opts.Context.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
