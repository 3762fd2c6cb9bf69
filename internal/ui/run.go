package ui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Run shows progress for work until it returns or the user cancels.
// It returns the work's error, or context.Canceled when the user quit
// before the work finished.
func Run(ctx context.Context, title string, work Work) error {
	m := NewModel(ctx, title, work)
	defer m.cancel()

	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI: %w", err)
	}
	fm, ok := final.(Model)
	if !ok || !fm.finished {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return context.Canceled
	}
	return fm.err
}
