// Package cli holds the state shared by habittasker's commands. Command
// implementations live in the subpackages.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/habittasker/internal/backup"
	"github.com/julianstephens/habittasker/internal/config"
	errs "github.com/julianstephens/habittasker/internal/errors"
	"github.com/julianstephens/habittasker/internal/habitstore"
	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/reminder"
	"github.com/julianstephens/habittasker/internal/stats"
	"github.com/julianstephens/habittasker/internal/storage"
	"github.com/julianstephens/habittasker/internal/utils"
)

// ErrAmbiguousHabit is returned when a name matches more than one habit.
var ErrAmbiguousHabit = errors.New("habit reference is ambiguous")

type Context struct {
	Config     config.Config
	ConfigPath string

	// Scheduler drives reminders; main installs a reminder.Local.
	Scheduler reminder.Scheduler

	// Ctx is cancelled on interrupt; long-running commands watch it.
	Ctx context.Context
	Out io.Writer
	In  io.Reader
	Now func() time.Time

	store   *habitstore.Store
	backups *backup.Manager
}

func NewContext(cfg config.Config, configPath string) *Context {
	return &Context{
		Config:     cfg,
		ConfigPath: configPath,
		Ctx:        context.Background(),
		Out:        os.Stdout,
		In:         os.Stdin,
		Now:        time.Now,
	}
}

// Backups returns the backup manager for the configured data file.
func (c *Context) Backups() *backup.Manager {
	if c.backups == nil {
		c.backups = backup.NewManager(c.Config.DataPath)
	}
	return c.backups
}

// Habits opens and loads the store on first use. An unreadable snapshot is
// reported as a warning: the store has already reseeded and stays usable.
func (c *Context) Habits() (*habitstore.Store, error) {
	if c.store != nil {
		return c.store, nil
	}

	s := habitstore.New(storage.Open(c.Config.DataPath),
		habitstore.WithSaveDelay(c.Config.SaveDelay),
		habitstore.WithStrict(c.Config.Strict),
		habitstore.WithBackuper(c.Backups()),
		habitstore.WithClock(c.Now),
	)
	if err := s.Load(); err != nil {
		// The reseed could not be written either; nothing usable remains.
		if s.LastSaveError() != nil {
			s.Close()
			return nil, err
		}
		c.Printf("⚠ Could not read %s; starting from the default habits.\n", c.Config.DataPath)
		c.Printf("%s\n", errs.Format(err))
	}
	c.store = s
	return s, nil
}

// CloseStore flushes pending changes and releases the data file. The next
// Habits call reloads it.
func (c *Context) CloseStore() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// Close releases everything the context opened.
func (c *Context) Close() error {
	err := c.CloseStore()
	if l, ok := c.Scheduler.(interface{ Close() }); ok {
		l.Close()
	}
	return err
}

// SaveConfig writes the current configuration to ConfigPath.
func (c *Context) SaveConfig() error {
	if c.ConfigPath == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := config.SaveTo(c.Config, c.ConfigPath); err != nil {
		return err
	}
	logger.Debug("Config saved", "path", c.ConfigPath)
	return nil
}

// Today is the start of the current local day.
func (c *Context) Today() time.Time {
	return utils.StartOfDay(c.Now())
}

// ParseDate reads a YYYY-MM-DD flag value; empty means today.
func (c *Context) ParseDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return c.Today(), nil
	}
	d, err := utils.DateFromKey(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Confirm asks a yes/no question on In; anything but y/yes is a no.
func (c *Context) Confirm(prompt string) (bool, error) {
	c.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// ResolveHabit finds a habit by id, then by exact name, then by
// case-insensitive name.
func ResolveHabit(habits []models.Habit, ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
	}
	for _, h := range habits {
		if h.Name == ref {
			return h, nil
		}
	}

	var matches []models.Habit
	for _, h := range habits {
		if strings.EqualFold(h.Name, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("%w: %q", habitstore.ErrHabitNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("%w: %d habits are named %q; use the id", ErrAmbiguousHabit, len(matches), ref)
	}
}

// Dots renders a habit's last n days, oldest first.
func Dots(h models.Habit, n int, end time.Time) string {
	var b strings.Builder
	for _, s := range stats.RecentStates(h, n, end) {
		b.WriteString(s.Symbol())
	}
	return b.String()
}

// Label is the icon and name of a habit.
func Label(h models.Habit) string {
	if h.Icon == "" {
		return h.Name
	}
	return h.Icon + " " + h.Name
}
