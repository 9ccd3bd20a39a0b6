package models

import (
	"fmt"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/utils"
)

// ReminderSettings controls the daily local reminder.
type ReminderSettings struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Time    string `yaml:"time" json:"time"` // HH:MM, local wall clock
}

// DefaultReminderSettings returns reminders disabled at the default time.
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{Enabled: false, Time: constants.DefaultReminderTime}
}

// HourMinute returns the reminder time components.
func (r ReminderSettings) HourMinute() (int, int, error) {
	t, err := utils.ParseTime(r.Time)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid reminder time %q: %w", r.Time, err)
	}
	return t.Hour(), t.Minute(), nil
}
