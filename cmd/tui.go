package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/desertthunder/tuneport/internal/ui"
	"github.com/urfave/cli/v3"
)

// SyncUI runs the interactive target picker. Logs go to a file while the TUI
// owns the terminal, and ledger entries are written after the program exits.
func (r *Runner) SyncUI(ctx context.Context, cmd *cli.Command) error {
	library, err := loadLibrary(cmd.String("library"))
	if err != nil {
		return err
	}

	if logFile := cmd.String("log-file"); logFile != "" {
		fileLogger, err := shared.NewFileLogger(logFile)
		if err != nil {
			r.logger.Warn("could not open log file, logging to stderr", "error", err)
		} else {
			r.logger = fileLogger
		}
	}

	engine, cleanup := r.buildEngine(true)
	defer cleanup()

	model := ui.NewModel(ctx, engine, library)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	result, syncErr := model.Result()
	if result != nil {
		r.recordFailures(result.Failures)
	}
	return syncErr
}
