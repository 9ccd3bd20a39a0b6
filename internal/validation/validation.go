package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictEmptyName      ConflictType = "empty_name"
	ConflictDuplicateName  ConflictType = "duplicate_name"
	ConflictDuplicateID    ConflictType = "duplicate_id"
	ConflictIconTooLong    ConflictType = "icon_too_long"
	ConflictInvalidColor   ConflictType = "invalid_color"
	ConflictInvalidDayKey  ConflictType = "invalid_day_key"
	ConflictInvalidDayState ConflictType = "invalid_day_state"
)

// Conflict is one problem found in a habit or in form input.
type Conflict struct {
	Type        ConflictType
	Description string
	HabitID     string
	Items       []string // names or keys involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Err returns the conflicts joined into one error, or nil.
func (vr *ValidationResult) Err() error {
	if !vr.HasConflicts() {
		return nil
	}
	msgs := make([]string, len(vr.Conflicts))
	for i, c := range vr.Conflicts {
		msgs[i] = c.Description
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No problems detected."
	}

	var b strings.Builder
	b.WriteString("Problems detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

func (vr *ValidationResult) add(c Conflict) {
	vr.Conflicts = append(vr.Conflicts, c)
}

// HabitInput is what the add and edit commands accept.
type HabitInput struct {
	Name     string
	Icon     string
	ColorHex string
}

// Normalize trims the name, sanitises the icon and canonicalises the color.
// An invalid color is kept as typed so Validate can report it.
func (in HabitInput) Normalize() HabitInput {
	out := HabitInput{
		Name:     strings.TrimSpace(in.Name),
		Icon:     SanitizeIcon(in.Icon),
		ColorHex: in.ColorHex,
	}
	if out.ColorHex == "" {
		out.ColorHex = constants.DefaultHabitColor
	}
	if c, err := NormalizeColorHex(out.ColorHex); err == nil {
		out.ColorHex = c
	}
	return out
}

// Validator validates habit input and stored habits
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateInput checks add/edit input after normalisation. existing is used
// to reject a name already taken by another habit; selfID is skipped so a
// habit can keep its own name.
func (v *Validator) ValidateInput(in HabitInput, existing []models.Habit, selfID string) ValidationResult {
	var res ValidationResult

	if in.Name == "" {
		res.add(Conflict{Type: ConflictEmptyName, Description: "name must not be empty"})
	}
	if n := uniseg.GraphemeClusterCount(in.Icon); n > constants.MaxIconGraphemes {
		res.add(Conflict{
			Type:        ConflictIconTooLong,
			Description: fmt.Sprintf("icon %q is %d characters, at most %d allowed", in.Icon, n, constants.MaxIconGraphemes),
		})
	}
	if _, err := NormalizeColorHex(in.ColorHex); err != nil {
		res.add(Conflict{Type: ConflictInvalidColor, Description: err.Error()})
	}
	for _, h := range existing {
		if h.ID != selfID && in.Name != "" && strings.EqualFold(h.Name, in.Name) {
			res.add(Conflict{
				Type:        ConflictDuplicateName,
				Description: fmt.Sprintf("a habit named %q already exists", h.Name),
				HabitID:     h.ID,
				Items:       []string{h.Name},
			})
			break
		}
	}
	return res
}

// ValidateHabits inspects a stored collection. The core never rejects these
// problems; this is a diagnostic for the doctor command.
func (v *Validator) ValidateHabits(habits []models.Habit) ValidationResult {
	var res ValidationResult
	ids := map[string]bool{}
	names := map[string]string{}

	for _, h := range habits {
		if ids[h.ID] {
			res.add(Conflict{
				Type:        ConflictDuplicateID,
				Description: fmt.Sprintf("habit id %s is used more than once", h.ID),
				HabitID:     h.ID,
			})
		}
		ids[h.ID] = true

		if strings.TrimSpace(h.Name) == "" {
			res.add(Conflict{Type: ConflictEmptyName, Description: fmt.Sprintf("habit %s has an empty name", h.ID), HabitID: h.ID})
		} else if prev, ok := names[strings.ToLower(h.Name)]; ok {
			res.add(Conflict{
				Type:        ConflictDuplicateName,
				Description: fmt.Sprintf("duplicate habit name %q", h.Name),
				HabitID:     h.ID,
				Items:       []string{prev, h.Name},
			})
		} else {
			names[strings.ToLower(h.Name)] = h.Name
		}

		if uniseg.GraphemeClusterCount(h.Icon) > constants.MaxIconGraphemes {
			res.add(Conflict{Type: ConflictIconTooLong, Description: fmt.Sprintf("habit %q has a long icon %q", h.Name, h.Icon), HabitID: h.ID})
		}
		if _, err := NormalizeColorHex(h.ColorHex); err != nil {
			res.add(Conflict{Type: ConflictInvalidColor, Description: fmt.Sprintf("habit %q: %v (fallback color used)", h.Name, err), HabitID: h.ID})
		}

		var badKeys []string
		for key, state := range h.DayStates {
			if _, err := utils.DateFromKey(key); err != nil {
				badKeys = append(badKeys, key)
				continue
			}
			if _, err := models.ParseDayState(string(state)); err != nil || state == models.StateNone {
				res.add(Conflict{
					Type:        ConflictInvalidDayState,
					Description: fmt.Sprintf("habit %q has state %q on %s", h.Name, state, key),
					HabitID:     h.ID,
					Items:       []string{key},
				})
			}
		}
		if len(badKeys) > 0 {
			res.add(Conflict{
				Type:        ConflictInvalidDayKey,
				Description: fmt.Sprintf("habit %q has %d unreadable day key(s); they are ignored in streaks", h.Name, len(badKeys)),
				HabitID:     h.ID,
				Items:       badKeys,
			})
		}
	}
	return res
}

// SanitizeIcon trims s and keeps at most two grapheme clusters, so a
// compound emoji stays whole. An empty result becomes the default icon.
func SanitizeIcon(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return constants.DefaultHabitIcon
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for n := 0; n < constants.MaxIconGraphemes && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	return b.String()
}

// NormalizeColorHex strips an optional '#', upper-cases and checks for 6
// (RRGGBB) or 8 (AARRGGBB) hex digits.
func NormalizeColorHex(s string) (string, error) {
	hex := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if len(hex) != 6 && len(hex) != 8 {
		return "", fmt.Errorf("color %q must have 6 or 8 hex digits", s)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return "", fmt.Errorf("color %q is not hexadecimal", s)
	}
	return hex, nil
}

// RGBA decodes a color, reporting ok=false for anything NormalizeColorHex
// would reject. Eight digits are read as AARRGGBB.
func RGBA(s string) (r, g, b, a uint8, ok bool) {
	hex, err := NormalizeColorHex(s)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	v, _ := strconv.ParseUint(hex, 16, 32)
	a = 0xFF
	if len(hex) == 8 {
		a = uint8(v >> 24)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), a, true
}

// DisplayColor returns "#RRGGBB" for s, or the fallback color when s is
// malformed. Only rendering code should use it.
func DisplayColor(s string) string {
	r, g, b, _, ok := RGBA(s)
	if !ok {
		return "#" + constants.FallbackColorHex
	}
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}
