package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"templint/internal/driver"
	"templint/internal/source"
	"templint/internal/ui"
)

type checkOutcome struct {
	fileSet *source.FileSet
	results []driver.UnitResult
	err     error
}

// runCheckWithUI runs a driver pass in the background while the terminal
// shows per-file progress. Events flow through a buffered channel so the
// workers never block on rendering.
func runCheckWithUI(
	ctx context.Context,
	title string,
	files []string,
	opts driver.Options,
	run func(context.Context, driver.Options) (*source.FileSet, []driver.UnitResult, error),
) (*source.FileSet, []driver.UnitResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = func(ev driver.Event) {
			events <- ev
		}
		fileSet, results, err := run(ctx, optsCopy)
		outcomeCh <- checkOutcome{fileSet: fileSet, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fileSet, outcome.results, uiErr
	}
	return outcome.fileSet, outcome.results, outcome.err
}
