package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habittasker/internal/constants"
)

// ErrInvalidDayKey is returned when a string is not a valid YYYY-MM-DD day-key.
var ErrInvalidDayKey = errors.New("invalid day key")

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats the calendar day of t as a zero-padded YYYY-MM-DD key.
// The day is taken in t's location, so callers should pass local times.
func DayKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// DateFromKey parses a day-key into local midnight of that day.
func DateFromKey(key string) (time.Time, error) {
	return DateFromKeyIn(key, time.Local)
}

// DateFromKeyIn parses a day-key into midnight of that day in loc.
//
// The key must be exactly YYYY-MM-DD (4, 2 and 2 digits) and name a real
// calendar date: "2023-02-29" is rejected rather than rolled into March, and
// "2024-1-5" is rejected because DayKey never produces it.
func DateFromKeyIn(key string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDayKey, key)
	}

	var nums [3]int
	for i, p := range parts {
		if len(p) != keyPartWidths[i] || !allDigits(p) {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDayKey, key)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDayKey, key)
		}
		nums[i] = n
	}

	year, month, day := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDayKey, key)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDayKey, key)
	}
	return t, nil
}

var keyPartWidths = [3]int{4, 2, 2}

func allDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// AddDays moves t by n calendar days, keeping the wall-clock time.
// Unlike adding 24h multiples this is stable across DST transitions.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// LastNDays returns count consecutive days ending at end's start-of-day,
// oldest first. It returns nil when count is not positive.
func LastNDays(count int, end time.Time) []time.Time {
	if count <= 0 {
		return nil
	}
	last := StartOfDay(end)
	days := make([]time.Time, count)
	for i := range count {
		days[i] = AddDays(last, i-(count-1))
	}
	return days
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(timeStr string) bool {
	_, err := ParseTime(timeStr)
	return err == nil
}

// NextOccurrence returns the next wall-clock instant at hour:minute strictly
// after now, in now's location.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return next
}
