// Package reminder schedules the daily "close out your habits" reminder.
//
// Scheduler is the capability the settings flow needs; Local implements it
// in-process with wall-clock timers that deliver through the tray notifier.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/notifier"
	"github.com/julianstephens/habittasker/internal/utils"
)

// AuthorizationStatus mirrors the platform notification permission states.
type AuthorizationStatus string

const (
	Authorized    AuthorizationStatus = "authorized"
	Denied        AuthorizationStatus = "denied"
	NotDetermined AuthorizationStatus = "notDetermined"
	Provisional   AuthorizationStatus = "provisional"
)

// CanDeliver reports whether reminders may be scheduled.
func (s AuthorizationStatus) CanDeliver() bool {
	return s == Authorized || s == Provisional
}

// ErrNotAuthorized is returned by Apply when reminders are enabled but the
// scheduler cannot deliver them.
var ErrNotAuthorized = errors.New("notifications are not authorized")

// Scheduler is a local reminder capability.
type Scheduler interface {
	// ScheduleDaily replaces the daily reminder with one at hour:minute
	// local time.
	ScheduleDaily(hour, minute int) error
	// Cancel removes the daily reminder.
	Cancel()
	// ScheduleOneShot delivers a single test reminder after delay.
	ScheduleOneShot(delay time.Duration) error
	AuthorizationStatus() AuthorizationStatus
}

// Apply makes the scheduler match settings.
func Apply(s Scheduler, settings models.ReminderSettings) error {
	if !settings.Enabled {
		s.Cancel()
		return nil
	}

	hour, minute, err := settings.HourMinute()
	if err != nil {
		return err
	}
	if status := s.AuthorizationStatus(); !status.CanDeliver() {
		return fmt.Errorf("%w (status %s)", ErrNotAuthorized, status)
	}
	return s.ScheduleDaily(hour, minute)
}

// DailyTimeComponents returns the wall-clock hour and minute of t in its
// own location.
func DailyTimeComponents(t time.Time) (hour, minute int) {
	return t.Hour(), t.Minute()
}

// Sender delivers a notification. *notifier.Notifier implements it.
type Sender interface {
	Notify(ctx context.Context, title, text string) error
	Check() error
}

var _ Sender = (*notifier.Notifier)(nil)

// Option configures a Local scheduler.
type Option func(*Local)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Local) { l.now = now }
}

// WithOnDeliver registers a callback run after every delivery attempt.
func WithOnDeliver(fn func(daily bool, err error)) Option {
	return func(l *Local) { l.onDeliver = fn }
}

// Local schedules reminders with in-process timers. It only delivers while
// the process is alive.
type Local struct {
	sender    Sender
	now       func() time.Time
	onDeliver func(daily bool, err error)

	mu       sync.Mutex
	daily    *time.Timer
	dailyGen uint64
	hour     int
	minute   int
	next     time.Time
	oneShot  *time.Timer
	closed   bool
}

func NewLocal(sender Sender, opts ...Option) *Local {
	l := &Local{sender: sender, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) AuthorizationStatus() AuthorizationStatus {
	err := l.sender.Check()
	switch {
	case err == nil:
		return Authorized
	case errors.Is(err, notifier.ErrHelperMissing):
		return NotDetermined
	default:
		logger.Debug("Notifier unavailable", "error", err)
		return Denied
	}
}

func (l *Local) ScheduleDaily(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid reminder time %02d:%02d", hour, minute)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("scheduler closed")
	}

	l.hour, l.minute = hour, minute
	l.armDailyLocked()
	logger.Info("Daily reminder scheduled", "time", fmt.Sprintf("%02d:%02d", hour, minute), "next", l.next)
	return nil
}

func (l *Local) armDailyLocked() {
	l.stopDailyLocked()
	now := l.now()
	l.next = utils.NextOccurrence(now, l.hour, l.minute)
	gen := l.dailyGen
	l.daily = time.AfterFunc(l.next.Sub(now), func() { l.fireDaily(gen) })
}

func (l *Local) fireDaily(gen uint64) {
	l.mu.Lock()
	if gen != l.dailyGen || l.closed {
		l.mu.Unlock()
		return
	}
	l.armDailyLocked()
	l.mu.Unlock()

	l.deliver(true)
}

func (l *Local) stopDailyLocked() {
	if l.daily != nil {
		l.daily.Stop()
		l.daily = nil
	}
	l.dailyGen++
	l.next = time.Time{}
}

func (l *Local) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.daily != nil {
		logger.Info("Daily reminder cancelled")
	}
	l.stopDailyLocked()
}

func (l *Local) ScheduleOneShot(delay time.Duration) error {
	if delay < 0 {
		return fmt.Errorf("negative reminder delay %s", delay)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("scheduler closed")
	}
	if l.oneShot != nil {
		l.oneShot.Stop()
	}
	l.oneShot = time.AfterFunc(delay, func() { l.deliver(false) })
	return nil
}

// Next returns the next daily delivery time, if one is scheduled.
func (l *Local) Next() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next, l.daily != nil
}

// Close stops all timers. Deliveries already in flight finish.
func (l *Local) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.stopDailyLocked()
	if l.oneShot != nil {
		l.oneShot.Stop()
		l.oneShot = nil
	}
}

func (l *Local) deliver(daily bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := l.sender.Notify(ctx, constants.ReminderTitle, constants.ReminderBody)
	if err != nil {
		logger.Warn("Reminder delivery failed", "daily", daily, "error", err)
	}
	if l.onDeliver != nil {
		l.onDeliver(daily, err)
	}
}
