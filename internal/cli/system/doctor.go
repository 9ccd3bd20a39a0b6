package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/storage"
	"github.com/julianstephens/habittasker/internal/storage/sqlite"
	"github.com/julianstephens/habittasker/internal/utils"
	"github.com/julianstephens/habittasker/internal/validation"
)

// errWarning marks a check that found something worth knowing but not broken.
var errWarning = errors.New("warning")

// errSkipped marks a check that could not run because an earlier one failed.
var errSkipped = errors.New("skipped")

type DoctorCmd struct{}

type check struct {
	name string
	run  func() error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Printf("Running diagnostics...\n\n")

	// Doctor reads the file directly; loading through the store would
	// reseed over a broken snapshot.
	var snap *models.AppSnapshot
	checks := []check{
		{"Config valid", func() error { return ctx.Config.Validate() }},
		{"Snapshot readable", func() error {
			var err error
			snap, err = loadSnapshot(ctx.Config.DataPath)
			return err
		}},
		{"Database schema", func() error { return checkDatabaseSchema(ctx.Config.DataPath) }},
		{"Data validation", func() error { return checkValidation(snap) }},
		{"Backups present", func() error { return checkBackupsPresent(ctx) }},
		{"Clock/timezone", func() error { return checkClockTimezone(ctx.Now()) }},
		{"Notifications", func() error { return checkNotifications(ctx) }},
	}

	hasError := false
	for _, c := range checks {
		err := c.run()
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case errors.Is(err, errSkipped):
			ctx.Printf("⊘ %s: SKIPPED (%v)\n", c.name, err)
		case errors.Is(err, errWarning):
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			hasError = true
		}
	}

	ctx.Printf("\n")
	if hasError {
		ctx.Printf("Diagnostics completed with errors.\n")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Printf("All diagnostics passed!\n")
	return nil
}

func loadSnapshot(path string) (*models.AppSnapshot, error) {
	gw := storage.Open(path)
	defer gw.Close()

	snap, err := gw.Load()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s does not exist yet; it is created on first run", errWarning, path)
	}
	return snap, nil
}

func checkDatabaseSchema(path string) error {
	if !storage.IsSQLitePath(path) {
		return fmt.Errorf("%w: JSON snapshot in use", errSkipped)
	}

	db := sqlite.NewStore(path)
	defer db.Close()
	if err := db.Open(false); err != nil {
		if errors.Is(err, sqlite.ErrNotExist) {
			return fmt.Errorf("%w: database not created yet", errSkipped)
		}
		return err
	}

	current, latest, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	if current != latest {
		return fmt.Errorf("table schema at version %d, expected %d", current, latest)
	}
	return nil
}

func checkValidation(snap *models.AppSnapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: no snapshot to validate", errSkipped)
	}
	res := validation.New().ValidateHabits(snap.Habits)
	if res.HasConflicts() {
		return fmt.Errorf("%s", res.FormatReport())
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	backups, err := ctx.Backups().ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("%w: no backups found - consider creating one with 'habittasker backup create'", errWarning)
	}
	return nil
}

// checkClockTimezone makes sure day keys survive a round trip in the local
// zone; streaks depend on it.
func checkClockTimezone(now time.Time) error {
	if now.Year() < 2000 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	key := utils.DayKey(now)
	back, err := utils.DateFromKey(key)
	if err != nil {
		return err
	}
	if !back.Equal(utils.StartOfDay(now.In(time.Local))) {
		return fmt.Errorf("day key %s does not map back to today in %s", key, time.Local)
	}
	return nil
}

func checkNotifications(ctx *cli.Context) error {
	if !ctx.Config.Reminders.Enabled {
		return fmt.Errorf("%w: reminders disabled", errSkipped)
	}
	if status := ctx.Scheduler.AuthorizationStatus(); !status.CanDeliver() {
		return fmt.Errorf("%w: reminders are enabled but notifications are %s", errWarning, status)
	}
	return nil
}
