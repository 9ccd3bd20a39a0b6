package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/validation"
)

func colorOptions(current string) []huh.Option[string] {
	palette := constants.ColorPalette
	if current != "" && !slices.Contains(palette, current) {
		palette = append([]string{current}, palette...)
	}
	opts := make([]huh.Option[string], 0, len(palette))
	for _, hex := range palette {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(validation.DisplayColor(hex))).Render("●")
		opts = append(opts, huh.NewOption(swatch+" "+hex, hex))
	}
	return opts
}

// NewHabitForm builds the add/edit form. existing and selfID feed the
// duplicate-name check.
func NewHabitForm(fm *HabitFormModel, existing []models.Habit, selfID string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					res := validation.New().ValidateInput(
						validation.HabitInput{Name: s, ColorHex: constants.DefaultHabitColor}.Normalize(),
						existing, selfID,
					)
					return res.Err()
				}),
			huh.NewInput().
				Title("Icon").
				Description("Up to two emoji or characters").
				Placeholder(constants.DefaultHabitIcon).
				Value(&fm.Icon),
			huh.NewSelect[string]().
				Title("Color").
				Options(colorOptions(fm.Color)...).
				Value(&fm.Color),
		),
	)
}

// submitHabitForm validates the completed form and applies it to the store.
func (m *Model) submitHabitForm() error {
	in := validation.HabitInput{
		Name:     m.habitForm.Name,
		Icon:     m.habitForm.Icon,
		ColorHex: m.habitForm.Color,
	}.Normalize()
	if res := validation.New().ValidateInput(in, m.store.Habits(), m.editingID); res.HasConflicts() {
		return res.Err()
	}

	if m.editingID == "" {
		h := m.store.AddHabit(in.Name, in.Icon, in.ColorHex)
		m.refresh()
		m.habitsModel.Select(h.ID)
		m.status = "Added " + strings.TrimSpace(h.Icon+" "+h.Name)
		return nil
	}
	if err := m.store.EditHabit(m.editingID, in.Name, in.Icon, in.ColorHex); err != nil {
		return fmt.Errorf("edit failed: %w", err)
	}
	m.refresh()
	m.status = "Saved " + in.Name
	return nil
}
