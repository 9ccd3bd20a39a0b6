package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = docStyle.Render(m.habitsModel.View())
	case StateStats:
		content = docStyle.Render(m.statsModel.View())
	case StateAddHabit, StateEditHabit:
		content = docStyle.Render(m.viewForm())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	var banner string
	if err := m.store.LastSaveError(); err != nil {
		banner = dangerStyle.Render("Save failed: " + err.Error())
	}

	var status string
	if m.status != "" {
		status = statusStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		banner,
		content,
		status,
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	tabTitles := []string{"Today", "Stats"}
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewForm() string {
	title := "New habit"
	if m.state == StateEditHabit {
		title = "Edit habit"
	}
	parts := []string{formTitleStyle.Render(title), "", m.form.View()}
	if m.formError != "" {
		parts = append(parts, warningStyle.Render(m.formError))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewConfirmDelete() string {
	name := "this habit"
	if h, ok := m.store.Habit(m.deleteID); ok {
		name = h.Icon + " " + h.Name
	}
	return lipgloss.Place(m.width, max(m.height-4, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Delete "+name+"?"),
			"All of its history will be lost.",
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
