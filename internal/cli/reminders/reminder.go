package reminders

import (
	"fmt"
	"time"

	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/reminder"
	"github.com/julianstephens/habittasker/internal/utils"
)

type ReminderCmd struct {
	Enable  ReminderEnableCmd  `cmd:"" help:"Turn on the daily reminder."`
	Disable ReminderDisableCmd `cmd:"" help:"Turn off the daily reminder."`
	Status  ReminderStatusCmd  `cmd:"" help:"Show reminder settings and notifier status." default:"1"`
	Test    ReminderTestCmd    `cmd:"" help:"Send a test reminder."`
	Run     ReminderRunCmd     `cmd:"" help:"Stay in the foreground and deliver the daily reminder."`
}

type ReminderEnableCmd struct {
	At string `help:"Time of day as HH:MM (default: keep the current setting)."`
}

func (c *ReminderEnableCmd) Run(ctx *cli.Context) error {
	settings := ctx.Config.Reminders
	if c.At != "" {
		if !utils.ValidateTimeFormat(c.At) {
			return fmt.Errorf("invalid time %q (expected HH:MM)", c.At)
		}
		settings.Time = c.At
	}
	settings.Enabled = true

	ctx.Config.Reminders = settings
	if err := ctx.SaveConfig(); err != nil {
		return err
	}
	ctx.Printf("Daily reminder enabled at %s\n", settings.Time)

	if status := ctx.Scheduler.AuthorizationStatus(); !status.CanDeliver() {
		ctx.Printf("⚠ Notifications are %s: start %s so reminders can be shown.\n", status, constants.TrayProcessPrefix)
	}
	ctx.Printf("Reminders are delivered while 'habittasker reminder run' or the TUI is running.\n")
	return nil
}

type ReminderDisableCmd struct{}

func (c *ReminderDisableCmd) Run(ctx *cli.Context) error {
	ctx.Config.Reminders.Enabled = false
	if err := ctx.SaveConfig(); err != nil {
		return err
	}
	if err := reminder.Apply(ctx.Scheduler, ctx.Config.Reminders); err != nil {
		return err
	}
	ctx.Printf("Daily reminder disabled\n")
	return nil
}

type ReminderStatusCmd struct{}

func (c *ReminderStatusCmd) Run(ctx *cli.Context) error {
	settings := ctx.Config.Reminders
	state := "disabled"
	if settings.Enabled {
		state = "enabled"
	}
	ctx.Printf("Daily reminder: %s at %s\n", state, settings.Time)
	ctx.Printf("Notifications: %s\n", ctx.Scheduler.AuthorizationStatus())

	if settings.Enabled {
		hour, minute, err := settings.HourMinute()
		if err != nil {
			return err
		}
		next := utils.NextOccurrence(ctx.Now(), hour, minute)
		ctx.Printf("Next reminder: %s\n", next.Format("Mon 2 Jan 15:04"))
	}
	return nil
}

type ReminderTestCmd struct {
	In time.Duration `help:"Delay before the test reminder." default:"5s"`
}

func (c *ReminderTestCmd) Run(ctx *cli.Context) error {
	if status := ctx.Scheduler.AuthorizationStatus(); !status.CanDeliver() {
		return fmt.Errorf("%w (status %s): start %s first", reminder.ErrNotAuthorized, status, constants.TrayProcessPrefix)
	}
	if err := ctx.Scheduler.ScheduleOneShot(c.In); err != nil {
		return err
	}
	ctx.Printf("Test reminder in %s...\n", c.In)

	// The scheduler is in-process, so stay alive until it has fired.
	select {
	case <-ctx.Ctx.Done():
	case <-time.After(c.In + time.Second):
	}
	return nil
}

type ReminderRunCmd struct{}

func (c *ReminderRunCmd) Run(ctx *cli.Context) error {
	settings := ctx.Config.Reminders
	if !settings.Enabled {
		return fmt.Errorf("reminders are disabled; run 'habittasker reminder enable' first")
	}
	if err := reminder.Apply(ctx.Scheduler, settings); err != nil {
		return err
	}
	defer ctx.Scheduler.Cancel()

	ctx.Printf("Delivering the daily reminder at %s (Ctrl+C to stop)\n", settings.Time)
	<-ctx.Ctx.Done()
	return nil
}
