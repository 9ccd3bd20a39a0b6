// Package habitstore holds the authoritative in-memory habit collection and
// keeps the persisted snapshot in step with it.
//
// Every mutation of the collection schedules a debounced write of a captured
// copy; Import and Reset write immediately. All state is guarded by one
// mutex, so a Store may be shared between goroutines.
package habitstore

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/debounce"
	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/storage"
	"github.com/julianstephens/habittasker/internal/utils"
)

// ErrHabitNotFound is returned for unknown habit ids in strict mode only.
var ErrHabitNotFound = errors.New("habit not found")

// Backuper copies the current data file aside before destructive operations.
type Backuper interface {
	CreateBackup() (string, error)
}

type Option func(*Store)

// WithSaveDelay overrides the debounce delay.
func WithSaveDelay(d time.Duration) Option {
	return func(s *Store) { s.saveDelay = d }
}

// WithStrict makes mutations on unknown ids return ErrHabitNotFound instead
// of silently doing nothing.
func WithStrict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithOnSaveError sets the callback for failed debounced saves. The default
// logs the error.
func WithOnSaveError(fn func(error)) Option {
	return func(s *Store) { s.onSaveError = fn }
}

// WithClock sets the time source used for the initial selected date.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithBackuper enables automatic backups before import, reset and recovery
// from an unreadable file.
func WithBackuper(b Backuper) Option {
	return func(s *Store) { s.backuper = b }
}

type Store struct {
	gw        storage.Provider
	debouncer *debounce.Debouncer

	saveDelay   time.Duration
	strict      bool
	onSaveError func(error)
	now         func() time.Time
	backuper    Backuper

	mu       sync.Mutex
	habits   []models.Habit
	selected time.Time
	gen      uint64

	// saveMu serialises writes to the gateway. written is the generation of
	// the newest snapshot handed to it.
	saveMu      sync.Mutex
	written     uint64
	lastSaveErr error
	saves       int
}

func New(gw storage.Provider, opts ...Option) *Store {
	s := &Store{
		gw:        gw,
		saveDelay: constants.SaveDelay,
		now:       time.Now,
		onSaveError: func(err error) {
			logger.Error("Failed to save habits", "error", err)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.debouncer = debounce.NewDebouncer(s.saveDelay)
	s.selected = utils.StartOfDay(s.now())
	return s
}

// Load replaces the collection with the persisted snapshot.
//
// With nothing persisted yet the starter habits are seeded and written. If
// the snapshot cannot be read, the unreadable file is backed up, the starter
// habits are seeded and written over it, and the load error is returned so
// the caller can warn; the store is usable either way.
func (s *Store) Load() error {
	snap, err := s.gw.Load()
	if err == nil && snap != nil {
		s.mu.Lock()
		s.debouncer.Cancel()
		s.habits = snap.Clone().Habits
		s.mu.Unlock()
		logger.Debug("Loaded habits", "count", len(snap.Habits), "path", s.gw.Path())
		return nil
	}

	if err != nil {
		logger.Warn("Failed to load habits, reseeding", "error", err, "path", s.gw.Path())
		s.backup("unreadable snapshot")
	} else {
		logger.Info("No saved habits, seeding starter set", "path", s.gw.Path())
	}

	seeded := models.SeedHabits()
	s.mu.Lock()
	s.debouncer.Cancel()
	s.habits = seeded
	snapCopy, gen := s.captureLocked()
	s.mu.Unlock()

	if saveErr := s.persist(snapCopy, gen); saveErr != nil {
		return errors.Join(err, saveErr)
	}
	return err
}

// Habits returns a deep copy of the collection in display order.
func (s *Store) Habits() []models.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked().Habits
}

// Habit returns a copy of the habit with id.
func (s *Store) Habit(id string) (models.Habit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.habits[i].Clone(), true
	}
	return models.Habit{}, false
}

// Snapshot returns a copy of the full collection as a versioned snapshot.
func (s *Store) Snapshot() models.AppSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SelectedDate is the day the day-scoped views show.
func (s *Store) SelectedDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetSelectedDate changes the selected day. It never triggers a save.
func (s *Store) SetSelectedDate(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = utils.StartOfDay(t)
}

// ShiftSelectedDate moves the selected day by n days.
func (s *Store) ShiftSelectedDate(n int) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = utils.StartOfDay(utils.AddDays(s.selected, n))
	return s.selected
}

// State returns the state of habit id on date, or none when either is unknown.
func (s *Store) State(id string, date time.Time) models.DayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.habits[i].State(date)
	}
	return models.StateNone
}

// SetState records state for habit id on date. Setting none removes the day.
func (s *Store) SetState(id string, date time.Time, state models.DayState) error {
	_, err := s.updateState(id, date, func(models.DayState) models.DayState { return state })
	return err
}

// ToggleDone flips the day between done and none; skip and fail become done.
// It returns the new state.
func (s *Store) ToggleDone(id string, date time.Time) (models.DayState, error) {
	return s.updateState(id, date, models.DayState.Toggled)
}

// CycleState advances the day through none, done, skip, fail and back to
// none. It returns the new state.
func (s *Store) CycleState(id string, date time.Time) (models.DayState, error) {
	return s.updateState(id, date, models.DayState.Next)
}

func (s *Store) updateState(id string, date time.Time, next func(models.DayState) models.DayState) (models.DayState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.StateNone, s.notFound(id)
	}

	h := &s.habits[i]
	current := h.State(date)
	target := next(current)
	if target == "" {
		target = models.StateNone
	}
	if target == current {
		return current, nil
	}

	h.SetState(date, target)
	s.scheduleSaveLocked()
	return target, nil
}

// AddHabit appends a habit with a fresh id and no recorded days.
func (s *Store) AddHabit(name, icon, colorHex string) models.Habit {
	h := models.NewHabit(name, icon, colorHex)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits = append(s.habits, h)
	s.scheduleSaveLocked()
	return h.Clone()
}

// EditHabit replaces name, icon and color, keeping id and recorded days.
func (s *Store) EditHabit(id, name, icon, colorHex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return s.notFound(id)
	}
	h := &s.habits[i]
	h.Name, h.Icon, h.ColorHex = name, icon, colorHex
	s.scheduleSaveLocked()
	return nil
}

// DeleteHabit removes the habit with id.
func (s *Store) DeleteHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return s.notFound(id)
	}
	s.habits = slices.Delete(s.habits, i, i+1)
	s.scheduleSaveLocked()
	return nil
}

// MoveHabit shifts a habit by delta positions, clamped to the list bounds.
func (s *Store) MoveHabit(id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return s.notFound(id)
	}
	j := min(max(i+delta, 0), len(s.habits)-1)
	if i == j {
		return nil
	}
	h := s.habits[i]
	s.habits = slices.Delete(s.habits, i, i+1)
	s.habits = slices.Insert(s.habits, j, h)
	s.scheduleSaveLocked()
	return nil
}

// Export encodes the current collection and suggests a file name of the
// form HabitTasker-YYYY-MM-DD.json for now's day.
func (s *Store) Export(now time.Time) ([]byte, string, error) {
	data, err := storage.Encode(s.Snapshot())
	if err != nil {
		return nil, "", err
	}
	return data, ExportFileName(now), nil
}

// ExportFileName is the suggested export name for now's day.
func ExportFileName(now time.Time) string {
	return constants.ExportFilePrefix + utils.DayKey(now) + constants.ExportFileSuffix
}

// Import decodes data and, if it is a valid snapshot, replaces the whole
// collection and writes it immediately. On a decode failure the store is
// left untouched.
func (s *Store) Import(data []byte) error {
	snap, err := storage.Decode(data)
	if err != nil {
		return fmt.Errorf("import rejected: %w", err)
	}

	s.backup("import")

	s.mu.Lock()
	s.debouncer.Cancel()
	s.habits = snap.Habits
	snapCopy, gen := s.captureLocked()
	s.mu.Unlock()

	logger.Info("Imported habits", "count", len(snapCopy.Habits))
	return s.persist(snapCopy, gen)
}

// Reset empties the collection and writes it immediately.
func (s *Store) Reset() error {
	s.backup("reset")

	s.mu.Lock()
	s.debouncer.Cancel()
	s.habits = []models.Habit{}
	snapCopy, gen := s.captureLocked()
	s.mu.Unlock()

	logger.Info("Reset all habits")
	return s.persist(snapCopy, gen)
}

// Flush runs a pending debounced save now and returns its result.
func (s *Store) Flush() error {
	if !s.debouncer.Flush() {
		return nil
	}
	return s.LastSaveError()
}

// Close flushes any pending save and closes the gateway.
func (s *Store) Close() error {
	return errors.Join(s.Flush(), s.gw.Close())
}

// SavePending reports whether a debounced save is scheduled.
func (s *Store) SavePending() bool {
	return s.debouncer.Pending()
}

// LastSaveError is the result of the most recent write.
func (s *Store) LastSaveError() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.lastSaveErr
}

// SaveCount is the number of writes attempted so far.
func (s *Store) SaveCount() int {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.saves
}

// Path is the location of the backing data file.
func (s *Store) Path() string {
	return s.gw.Path()
}

func (s *Store) scheduleSaveLocked() {
	snap, gen := s.captureLocked()
	s.debouncer.Trigger(func() {
		if err := s.persist(snap, gen); err != nil {
			s.onSaveError(err)
		}
	})
}

// persist writes snap unless a newer capture has already been written.
func (s *Store) persist(snap models.AppSnapshot, gen uint64) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if gen < s.written {
		logger.Debug("Skipping stale save", "generation", gen, "written", s.written)
		return nil
	}
	s.written = gen

	err := s.gw.Save(snap)
	s.saves++
	s.lastSaveErr = err
	return err
}

func (s *Store) backup(reason string) {
	if s.backuper == nil {
		return
	}
	path, err := s.backuper.CreateBackup()
	if err != nil {
		logger.Warn("Backup skipped", "reason", reason, "error", err)
		return
	}
	logger.Info("Backup created", "reason", reason, "path", path)
}

func (s *Store) notFound(id string) error {
	if s.strict {
		return fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	logger.Debug("Ignoring mutation for unknown habit", "id", id)
	return nil
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.habits, func(h models.Habit) bool { return h.ID == id })
}

// captureLocked copies the collection for a write and stamps it with the
// next generation.
func (s *Store) captureLocked() (models.AppSnapshot, uint64) {
	s.gen++
	return s.snapshotLocked(), s.gen
}

func (s *Store) snapshotLocked() models.AppSnapshot {
	return models.AppSnapshot{SchemaVersion: constants.SchemaVersion, Habits: s.habits}.Clone()
}
