package habits

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/stats"
	"github.com/julianstephens/habittasker/internal/validation"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	ID string
}

type CycleHabitMsg struct {
	ID string
}

type EditHabitMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID string
}

type MoveHabitMsg struct {
	ID    string
	Delta int
}

// ShiftDayMsg moves the selected date by Days. Zero jumps back to today.
type ShiftDayMsg struct {
	Days int
}

// Item is one row of the Today list: a habit and its figures for the
// selected date.
type Item struct {
	Habit  models.Habit
	State  models.DayState
	Recent []models.DayState
	Streak int
	Best   int
}

func NewItem(h models.Habit, date time.Time) Item {
	return Item{
		Habit:  h,
		State:  h.State(date),
		Recent: stats.RecentStates(h, constants.WeekDotsCount, date),
		Streak: stats.CurrentStreak(h, date),
		Best:   stats.BestStreak(h),
	}
}

func (i Item) Title() string       { return i.Habit.Icon + " " + i.Habit.Name }
func (i Item) Description() string { return fmt.Sprintf("streak %d, best %d", i.Streak, i.Best) }
func (i Item) FilterValue() string { return i.Habit.Name }

type KeyMap struct {
	Toggle   key.Binding
	Cycle    key.Binding
	PrevDay  key.Binding
	NextDay  key.Binding
	Today    key.Binding
	Add      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle done"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cycle state"),
		),
		PrevDay: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next day"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move down"),
		),
	}
}

var (
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// RenderState renders a state glyph, done in the habit's color.
func RenderState(s models.DayState, colorHex string) string {
	switch s {
	case models.StateDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(validation.DisplayColor(colorHex))).Render(s.Symbol())
	case models.StateFail:
		return failStyle.Render(s.Symbol())
	default:
		return mutedStyle.Render(s.Symbol())
	}
}

// RenderDots renders a strip of day states, oldest first.
func RenderDots(states []models.DayState, colorHex string) string {
	var b strings.Builder
	for _, s := range states {
		b.WriteString(RenderState(s, colorHex))
	}
	return b.String()
}

type delegate struct{}

func (delegate) Height() int                             { return 1 }
func (delegate) Spacing() int                            { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(Item)
	if !ok {
		return
	}
	cursor := "  "
	if index == m.Index() {
		cursor = cursorStyle.Render("› ")
	}
	name := lipgloss.NewStyle().
		Foreground(lipgloss.Color(validation.DisplayColor(i.Habit.ColorHex))).
		Render(i.Title())
	fmt.Fprintf(w, "%s%s %s  %s  %s",
		cursor,
		RenderState(i.State, i.Habit.ColorHex),
		name,
		RenderDots(i.Recent, i.Habit.ColorHex),
		mutedStyle.Render(i.Description()),
	)
}

type Model struct {
	list list.Model
	keys KeyMap
	date time.Time
}

func New(habits []models.Habit, date time.Time, width, height int) Model {
	l := list.New(nil, delegate{}, width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(true)
	// Left and right belong to day navigation; quitting is handled by the parent.
	l.KeyMap.PrevPage.SetEnabled(false)
	l.KeyMap.NextPage.SetEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)

	m := Model{list: l, keys: DefaultKeyMap()}
	m.SetHabits(habits, date)
	return m
}

// SetHabits rebuilds the rows for date, keeping the cursor on the same
// habit when it still exists.
func (m *Model) SetHabits(habits []models.Habit, date time.Time) {
	selected := m.SelectedID()
	m.date = date
	items := make([]list.Item, len(habits))
	cursor := min(m.list.Index(), max(len(habits)-1, 0))
	for i, h := range habits {
		items[i] = NewItem(h, date)
		if h.ID == selected {
			cursor = i
		}
	}
	m.list.SetItems(items)
	m.list.Select(cursor)
}

// Select moves the cursor to the habit with id.
func (m *Model) Select(id string) {
	for i, it := range m.list.Items() {
		if it.(Item).Habit.ID == id {
			m.list.Select(i)
			return
		}
	}
}

func (m Model) SelectedID() string {
	if i, ok := m.list.SelectedItem().(Item); ok {
		return i.Habit.ID
	}
	return ""
}

func (m Model) Date() time.Time { return m.date }

func (m Model) Keys() KeyMap { return m.keys }

func (m Model) Init() tea.Cmd {
	return nil
}

func msgCmd(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		id := m.SelectedID()
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, msgCmd(AddHabitMsg{})
		case key.Matches(msg, m.keys.PrevDay):
			return m, msgCmd(ShiftDayMsg{Days: -1})
		case key.Matches(msg, m.keys.NextDay):
			return m, msgCmd(ShiftDayMsg{Days: 1})
		case key.Matches(msg, m.keys.Today):
			return m, msgCmd(ShiftDayMsg{})
		}
		if id != "" {
			switch {
			case key.Matches(msg, m.keys.Toggle):
				return m, msgCmd(ToggleHabitMsg{ID: id})
			case key.Matches(msg, m.keys.Cycle):
				return m, msgCmd(CycleHabitMsg{ID: id})
			case key.Matches(msg, m.keys.Edit):
				return m, msgCmd(EditHabitMsg{ID: id})
			case key.Matches(msg, m.keys.Delete):
				return m, msgCmd(DeleteHabitMsg{ID: id})
			case key.Matches(msg, m.keys.MoveUp):
				return m, msgCmd(MoveHabitMsg{ID: id, Delta: -1})
			case key.Matches(msg, m.keys.MoveDown):
				return m, msgCmd(MoveHabitMsg{ID: id, Delta: 1})
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := headerStyle.Render(m.date.Format("Monday, 2 January 2006"))
	if len(m.list.Items()) == 0 {
		return header + "\n\n  No habits yet.\n  Press 'a' to add one."
	}
	done := 0
	for _, it := range m.list.Items() {
		if it.(Item).State == models.StateDone {
			done++
		}
	}
	footer := mutedStyle.Render(fmt.Sprintf("%d of %d done", done, len(m.list.Items())))
	return lipgloss.JoinVertical(lipgloss.Left, header, "", m.list.View(), "", footer)
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
