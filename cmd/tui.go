package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/crates/internal/tasks"
	"github.com/desertthunder/crates/internal/ui"
)

// runTUI runs the pipeline behind the bubbletea progress screen.
//
// Logs must already go to a file, anything written to stderr would corrupt the screen.
func (r *Runner) runTUI(ctx context.Context, pipeline *tasks.Pipeline, opts tasks.RunOptions) (*tasks.RunSummary, error) {
	model := ui.NewModel(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunSummary, error) {
		return pipeline.Run(ctx, progress, opts)
	})

	if _, err := tea.NewProgram(model, tea.WithOutput(r.output)).Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	return model.Summary(), model.Err()
}
