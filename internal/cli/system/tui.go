package system

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/reminder"
	"github.com/julianstephens/habittasker/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}

	// Reminders fire while the TUI is open.
	if ctx.Config.Reminders.Enabled {
		if err := reminder.Apply(ctx.Scheduler, ctx.Config.Reminders); err != nil {
			logger.Warn("Reminder not scheduled", "error", err)
		}
	}

	m := tui.NewModel(store, tui.WithClock(ctx.Now))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	// A cancelled context (SIGTERM) ends the program cleanly.
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
