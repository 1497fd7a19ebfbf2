package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mimble/internal/trace"
	"mimble/internal/ui"
)

// runWithProgressUI runs work in the background while a progress model
// renders its file events. Events sent after the UI quit are dropped.
func runWithProgressUI(cmd *cobra.Command, files []string, work func(notify func(ui.FileEvent))) error {
	events := make(chan ui.FileEvent, 256)
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		work(func(ev ui.FileEvent) {
			select {
			case events <- ev:
			case <-quit:
			}
		})
		close(events)
	}()

	model := ui.NewProgressModel("mimble run", files, events)
	program := tea.NewProgram(model, tea.WithOutput(cmd.OutOrStdout()), tea.WithInput(cmd.InOrStdin()))
	_, uiErr := program.Run()
	close(quit)
	<-done
	return uiErr
}

// runReplayUI plays events in the full-screen replay model.
func runReplayUI(cmd *cobra.Command, title string, events []trace.Event, opts ...ui.ReplayOption) error {
	model := ui.NewReplayModel(title, events, opts...)
	program := tea.NewProgram(model, tea.WithOutput(cmd.OutOrStdout()), tea.WithInput(cmd.InOrStdin()), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
