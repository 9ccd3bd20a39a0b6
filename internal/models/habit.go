package models

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habittasker/internal/utils"
)

// DayState is the completion state recorded for a habit on one day.
type DayState string

const (
	StateNone DayState = "none"
	StateDone DayState = "done"
	StateSkip DayState = "skip"
	StateFail DayState = "fail"
)

// DayStates lists every state in cycle order.
var DayStates = []DayState{StateNone, StateDone, StateSkip, StateFail}

// ParseDayState parses a state name. The empty string is treated as none.
func ParseDayState(s string) (DayState, error) {
	switch DayState(s) {
	case "", StateNone:
		return StateNone, nil
	case StateDone, StateSkip, StateFail:
		return DayState(s), nil
	}
	return StateNone, fmt.Errorf("unknown day state %q (expected none, done, skip or fail)", s)
}

// Next returns the state after s in the cycle none -> done -> skip -> fail -> none.
func (s DayState) Next() DayState {
	switch s {
	case StateNone:
		return StateDone
	case StateDone:
		return StateSkip
	case StateSkip:
		return StateFail
	default:
		return StateNone
	}
}

// Toggled returns none for done and done for everything else.
func (s DayState) Toggled() DayState {
	if s == StateDone {
		return StateNone
	}
	return StateDone
}

// Symbol is the glyph used for this state in dot strips and lists.
func (s DayState) Symbol() string {
	switch s {
	case StateDone:
		return "✓"
	case StateSkip:
		return "–"
	case StateFail:
		return "✗"
	default:
		return "·"
	}
}

// Habit represents a practice tracked day by day.
//
// Fields are declared in alphabetical JSON order so encoded snapshots come
// out with sorted keys.
type Habit struct {
	ColorHex  string              `json:"colorHex"`
	DayStates map[string]DayState `json:"dayStates"`
	Icon      string              `json:"icon"`
	ID        string              `json:"id"`
	Name      string              `json:"name"`
}

// NewHabit creates a habit with a fresh id and no recorded days.
func NewHabit(name, icon, colorHex string) Habit {
	return Habit{
		ColorHex:  colorHex,
		DayStates: map[string]DayState{},
		Icon:      icon,
		ID:        uuid.New().String(),
		Name:      name,
	}
}

// Clone returns a deep copy of h.
func (h Habit) Clone() Habit {
	c := h
	c.DayStates = make(map[string]DayState, len(h.DayStates))
	maps.Copy(c.DayStates, h.DayStates)
	return c
}

// State returns the state recorded for date's day, or none.
func (h Habit) State(date time.Time) DayState {
	return h.StateForKey(utils.DayKey(date))
}

// StateForKey returns the state recorded under a day-key, or none.
func (h Habit) StateForKey(key string) DayState {
	if s, ok := h.DayStates[key]; ok {
		return s
	}
	return StateNone
}

// SetState records state for date's day. Setting none removes the entry so
// that only non-none states are ever present.
func (h *Habit) SetState(date time.Time, state DayState) {
	key := utils.DayKey(date)
	if state == StateNone || state == "" {
		delete(h.DayStates, key)
		return
	}
	if h.DayStates == nil {
		h.DayStates = map[string]DayState{}
	}
	h.DayStates[key] = state
}

// AppSnapshot is the full persisted state of the application.
type AppSnapshot struct {
	Habits        []Habit `json:"habits"`
	SchemaVersion int     `json:"schemaVersion"`
}

// Clone returns a deep copy of the snapshot.
func (s AppSnapshot) Clone() AppSnapshot {
	c := AppSnapshot{SchemaVersion: s.SchemaVersion, Habits: make([]Habit, len(s.Habits))}
	for i, h := range s.Habits {
		c.Habits[i] = h.Clone()
	}
	return c
}

// SeedHabits returns the starter set used when no data exists yet.
func SeedHabits() []Habit {
	return []Habit{
		NewHabit("No sugar", "🍬", "F4D8D1"),
		NewHabit("No alcohol", "🍺", "FFB84D"),
		NewHabit("Walk 20 min", "🚶‍♂️", "4DFFB8"),
		NewHabit("Water 2 liters", "💧", "4DA3FF"),
		NewHabit("Read 30 min", "📚", "B84DFF"),
	}
}
