package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/tui/components/habits"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.habitsModel.SetSize(msg.Width-4, m.listHeight())
		m.statsModel.SetWidth(msg.Width - 4)
		return m, nil
	}

	switch m.state {
	case StateAddHabit, StateEditHabit:
		return m.updateForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if handled, cmd := m.handleHabitMessages(msg); handled {
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.switchTab(1)
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.switchTab(-1)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		m.status = ""
	}

	var cmd tea.Cmd
	switch m.state {
	case StateToday:
		m.habitsModel, cmd = m.habitsModel.Update(msg)
	case StateStats:
		m.statsModel, cmd = m.statsModel.Update(msg)
	}
	return m, cmd
}

func (m *Model) switchTab(delta int) {
	next := (int(m.state) + delta + tabCount) % tabCount
	m.state = SessionState(next)
	if m.state == StateStats {
		// Today may have rolled over since the tab was built.
		m.refresh()
	}
}

func (m Model) handleHabitMessages(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case habits.ToggleHabitMsg:
		state, err := m.store.ToggleDone(msg.ID, m.store.SelectedDate())
		m.afterStateChange(msg.ID, state, err)
		return true, nil

	case habits.CycleHabitMsg:
		state, err := m.store.CycleState(msg.ID, m.store.SelectedDate())
		m.afterStateChange(msg.ID, state, err)
		return true, nil

	case habits.ShiftDayMsg:
		if msg.Days == 0 {
			m.store.SetSelectedDate(m.now())
		} else {
			m.store.ShiftSelectedDate(msg.Days)
		}
		m.refresh()
		return true, nil

	case habits.MoveHabitMsg:
		if err := m.store.MoveHabit(msg.ID, msg.Delta); err != nil {
			m.status = err.Error()
		}
		m.refresh()
		return true, nil

	case habits.AddHabitMsg:
		m.editingID = ""
		m.habitForm = &HabitFormModel{
			Icon:  constants.DefaultHabitIcon,
			Color: constants.DefaultHabitColor,
		}
		m.form = NewHabitForm(m.habitForm, m.store.Habits(), "")
		m.formError = ""
		m.state = StateAddHabit
		return true, m.form.Init()

	case habits.EditHabitMsg:
		h, ok := m.store.Habit(msg.ID)
		if !ok {
			return true, nil
		}
		m.editingID = h.ID
		m.habitForm = &HabitFormModel{Name: h.Name, Icon: h.Icon, Color: h.ColorHex}
		m.form = NewHabitForm(m.habitForm, m.store.Habits(), h.ID)
		m.formError = ""
		m.state = StateEditHabit
		return true, m.form.Init()

	case habits.DeleteHabitMsg:
		m.deleteID = msg.ID
		m.state = StateConfirmDelete
		return true, nil
	}
	return false, nil
}

func (m *Model) afterStateChange(id string, state models.DayState, err error) {
	if err != nil {
		m.status = err.Error()
		return
	}
	if h, ok := m.store.Habit(id); ok {
		m.status = fmt.Sprintf("%s %s: %s", h.Icon, h.Name, state)
	}
	m.refresh()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.formError = ""
		m.state = StateToday
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if err := m.submitHabitForm(); err != nil {
			logger.Debug("Habit form rejected", "error", err)
			m.formError = err.Error()
			// Stay on the form so the input can be corrected.
			m.form.State = huh.StateNormal
			return m, cmd
		}
		m.formError = ""
		m.editingID = ""
		m.state = StateToday
		return m, nil
	case huh.StateAborted:
		m.formError = ""
		m.editingID = ""
		m.state = StateToday
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		if h, ok := m.store.Habit(m.deleteID); ok {
			if err := m.store.DeleteHabit(h.ID); err != nil {
				m.status = err.Error()
			} else {
				m.status = "Deleted " + h.Name
			}
		}
		m.deleteID = ""
		m.state = StateToday
		m.refresh()
	case "n", "N", "esc":
		m.deleteID = ""
		m.state = StateToday
	}
	return m, nil
}
