package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ember/internal/driver"
	"ember/internal/ui"
)

type renderOutcome struct {
	results []driver.Result
	err     error
}

// renderWithUI runs the render pipeline behind a Bubble Tea progress view.
// The pipeline owns the event channel and closes it when every manifest
// settled, which quits the program.
func renderWithUI(cmd *cobra.Command, paths []string, opts *driver.RenderOptions) ([]driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan renderOutcome, 1)

	go func() {
		optsCopy := *opts
		optsCopy.Events = events
		results, err := driver.RenderPaths(cmd.Context(), paths, &optsCopy)
		outcomeCh <- renderOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("rendering reports", paths, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
