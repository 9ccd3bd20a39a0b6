package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/cli/backups"
	"github.com/julianstephens/habittasker/internal/cli/data"
	"github.com/julianstephens/habittasker/internal/cli/habits"
	"github.com/julianstephens/habittasker/internal/cli/reminders"
	"github.com/julianstephens/habittasker/internal/cli/system"
	"github.com/julianstephens/habittasker/internal/config"
	errs "github.com/julianstephens/habittasker/internal/errors"
	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/notifier"
	"github.com/julianstephens/habittasker/internal/reminder"
)

var version = "v0.1.0"

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"path" env:"HABITTASKER_CONFIG"`
	Data     string `help:"Data file path (.json, or .db for SQLite). Overrides the config file." type:"path"`
	Debug    bool   `help:"Log debug output to stderr as well as the log file."`
	Strict   bool   `help:"Fail on unknown habit ids instead of ignoring them."`
	LogLevel string `help:"Log level (debug, info, warn, error)."`

	Tui      system.TuiCmd         `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Today    habits.TodayCmd       `cmd:"" help:"Show today's habits."`
	Mark     habits.MarkCmd        `cmd:"" help:"Set a habit's state for a day."`
	Toggle   habits.ToggleCmd      `cmd:"" help:"Toggle a habit between done and not done."`
	Cycle    habits.CycleCmd       `cmd:"" help:"Cycle a habit through none, done, skip and fail."`
	Streak   habits.StreakCmd      `cmd:"" help:"Show current and best streaks."`
	Stats    habits.StatsCmd       `cmd:"" help:"Show completion statistics."`
	Habit    habits.HabitCmd       `cmd:"" help:"Manage habits."`
	Export   data.ExportCmd        `cmd:"" help:"Export all data as JSON."`
	Import   data.ImportCmd        `cmd:"" help:"Replace all data with an exported file."`
	Reset    data.ResetCmd         `cmd:"" help:"Delete all data and start over."`
	Backup   backups.BackupCmd     `cmd:"" help:"Manage data backups."`
	Reminder reminders.ReminderCmd `cmd:"" help:"Manage the daily reminder."`
	Doctor   system.DoctorCmd      `cmd:"" help:"Run health checks and diagnostics."`
}

func loadConfig() (config.Config, string, error) {
	if CLI.Config == "" {
		cfg, err := config.Load()
		return cfg, config.ConfigPath(), err
	}

	config.LoadDotEnv()
	cfg, err := config.LoadFrom(CLI.Config)
	if err != nil {
		return cfg, CLI.Config, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, CLI.Config, err
	}
	return cfg, CLI.Config, cfg.Validate()
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habittasker"),
		kong.Description("Track daily habits, streaks and completion stats."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": version},
	)

	cfg, configPath, err := loadConfig()
	if err != nil {
		errs.Fatal(err)
	}
	if CLI.Data != "" {
		cfg.DataPath = CLI.Data
	}
	if CLI.Strict {
		cfg.Strict = true
	}
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}

	if err := logger.Init(logger.Config{
		Debug: CLI.Debug,
		Level: cfg.LogLevel,
		Dir:   config.ConfigDir(),
	}); err != nil {
		errs.Fatal(err)
	}
	logger.Debug("Starting", "version", version, "command", ctx.Command(), "data", cfg.DataPath)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	appCtx := cli.NewContext(cfg, configPath)
	appCtx.Ctx = sigCtx
	appCtx.Scheduler = reminder.NewLocal(notifier.New())

	err = ctx.Run(appCtx)
	// Close flushes any pending save before exit.
	if closeErr := appCtx.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	stop()
	errs.Fatal(err)
}
