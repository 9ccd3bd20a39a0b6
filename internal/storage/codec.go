package storage

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/utils"
)

// SchemaVersion is the snapshot schema this build reads and writes.
const SchemaVersion = constants.SchemaVersion

// Encode serialises a snapshot as two-space indented JSON with sorted keys.
// The snapshot's own SchemaVersion is ignored; the current one is written.
func Encode(snap models.AppSnapshot) ([]byte, error) {
	out := models.AppSnapshot{SchemaVersion: SchemaVersion, Habits: make([]models.Habit, 0, len(snap.Habits))}
	for _, h := range snap.Habits {
		c := h.Clone()
		for k, s := range c.DayStates {
			if s == models.StateNone || s == "" {
				delete(c.DayStates, k)
			}
		}
		out.Habits = append(out.Habits, c)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

type versionProbe struct {
	SchemaVersion *int `json:"schemaVersion"`
}

type wireSnapshot struct {
	Habits        *[]wireHabit `json:"habits"`
	SchemaVersion int          `json:"schemaVersion"`
}

type wireHabit struct {
	ColorHex  *string           `json:"colorHex"`
	DayStates map[string]string `json:"dayStates"`
	Icon      *string           `json:"icon"`
	ID        *string           `json:"id"`
	Name      *string           `json:"name"`
}

// Decode parses and validates a snapshot. The schema version is checked
// before the rest of the document, so a snapshot from another version fails
// with a SchemaVersionError even if its shape has changed.
//
// Explicit "none" day states are accepted and dropped.
func Decode(data []byte) (*models.AppSnapshot, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, decodeErr("invalid JSON", err)
	}
	if probe.SchemaVersion == nil {
		return nil, decodeErr("missing schemaVersion", nil)
	}
	if *probe.SchemaVersion != SchemaVersion {
		return nil, &SchemaVersionError{Found: *probe.SchemaVersion}
	}

	var wire wireSnapshot
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, decodeErr("invalid snapshot shape", err)
	}
	if wire.Habits == nil {
		return nil, decodeErr("missing habits", nil)
	}

	snap := &models.AppSnapshot{
		SchemaVersion: wire.SchemaVersion,
		Habits:        make([]models.Habit, 0, len(*wire.Habits)),
	}
	seen := make(map[string]int, len(*wire.Habits))
	for i, wh := range *wire.Habits {
		h, err := wh.habit()
		if err != nil {
			return nil, decodeErr(fmt.Sprintf("habit %d", i), err)
		}
		if first, dup := seen[h.ID]; dup {
			return nil, decodeErr(fmt.Sprintf("habit %d", i), fmt.Errorf("duplicate id %q (also habit %d)", h.ID, first))
		}
		seen[h.ID] = i
		snap.Habits = append(snap.Habits, h)
	}
	return snap, nil
}

func (w wireHabit) habit() (models.Habit, error) {
	switch {
	case w.ID == nil || *w.ID == "":
		return models.Habit{}, fmt.Errorf("missing id")
	case w.Name == nil:
		return models.Habit{}, fmt.Errorf("missing name")
	case w.Icon == nil:
		return models.Habit{}, fmt.Errorf("missing icon")
	case w.ColorHex == nil:
		return models.Habit{}, fmt.Errorf("missing colorHex")
	case w.DayStates == nil:
		return models.Habit{}, fmt.Errorf("missing dayStates")
	}

	h := models.Habit{
		ColorHex:  *w.ColorHex,
		DayStates: make(map[string]models.DayState, len(w.DayStates)),
		Icon:      *w.Icon,
		ID:        *w.ID,
		Name:      *w.Name,
	}
	for key, raw := range w.DayStates {
		if _, err := utils.DateFromKey(key); err != nil {
			return models.Habit{}, fmt.Errorf("day %q: %w", key, err)
		}
		state, err := models.ParseDayState(raw)
		if err != nil || raw == "" {
			return models.Habit{}, fmt.Errorf("day %s: unknown state %q", key, raw)
		}
		if state != models.StateNone {
			h.DayStates[key] = state
		}
	}
	return h, nil
}
