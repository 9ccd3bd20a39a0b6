// Package statsview renders the Stats tab: completion for the current week,
// month or year, overall and per habit.
package statsview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/stats"
	"github.com/julianstephens/habittasker/internal/tui/components/habits"
	"github.com/julianstephens/habittasker/internal/validation"
)

type KeyMap struct {
	Week  key.Binding
	Month key.Binding
	Year  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Week: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "week"),
		),
		Month: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "month"),
		),
		Year: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "year"),
		),
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

type Model struct {
	keys    KeyMap
	period  stats.Period
	today   time.Time
	summary stats.Summary
	habits  []models.Habit
	width   int
}

func New(habits []models.Habit, today time.Time, width int) Model {
	m := Model{keys: DefaultKeyMap(), period: stats.PeriodWeek, width: width}
	m.SetHabits(habits, today)
	return m
}

// SetHabits recomputes the summary for the current period ending today.
func (m *Model) SetHabits(habits []models.Habit, today time.Time) {
	m.habits = habits
	m.today = today
	m.summary = stats.Summarize(habits, m.period, today)
}

func (m Model) Period() stats.Period { return m.period }

func (m Model) Summary() stats.Summary { return m.summary }

func (m Model) Keys() KeyMap { return m.keys }

func (m *Model) SetWidth(width int) { m.width = width }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Week):
		m.period = stats.PeriodWeek
	case key.Matches(keyMsg, m.keys.Month):
		m.period = stats.PeriodMonth
	case key.Matches(keyMsg, m.keys.Year):
		m.period = stats.PeriodYear
	default:
		return m, nil
	}
	m.summary = stats.Summarize(m.habits, m.period, m.today)
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	tabs := make([]string, 0, len(stats.Periods))
	for _, p := range stats.Periods {
		label := periodLabel(p)
		if p == m.period {
			tabs = append(tabs, selectedStyle.Render("["+label+"]"))
		} else {
			tabs = append(tabs, mutedStyle.Render(" "+label+" "))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render(m.summary.Line()))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s – %s",
		m.summary.Start.Format("2 Jan 2006"), m.summary.End.Format("2 Jan 2006"))))
	b.WriteString("\n\n")

	if len(m.summary.Rows) == 0 {
		b.WriteString("No habits yet.")
		return b.String()
	}

	nameWidth := 0
	for _, r := range m.summary.Rows {
		nameWidth = max(nameWidth, lipgloss.Width(r.Habit.Icon+" "+r.Habit.Name))
	}
	for _, r := range m.summary.Rows {
		name := r.Habit.Icon + " " + r.Habit.Name
		pad := strings.Repeat(" ", nameWidth-lipgloss.Width(name))
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(validation.DisplayColor(r.Habit.ColorHex)))
		dots := habits.RenderDots(stats.RecentStates(r.Habit, constants.StatsDotsCount, m.today), r.Habit.ColorHex)
		fmt.Fprintf(&b, "%s%s  %3d/%-3d %3d%%  %s  %s\n",
			style.Render(name), pad,
			r.Done, r.Days, r.Percent,
			dots,
			mutedStyle.Render(fmt.Sprintf("streak %d, best %d", r.Current, r.Best)),
		)
	}
	return b.String()
}

func periodLabel(p stats.Period) string {
	switch p {
	case stats.PeriodMonth:
		return "Month"
	case stats.PeriodYear:
		return "Year"
	default:
		return "Week"
	}
}
