package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habittasker/internal/habitstore"
	"github.com/julianstephens/habittasker/internal/tui/components/habits"
	"github.com/julianstephens/habittasker/internal/tui/components/statsview"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateStats
	StateAddHabit
	StateEditHabit
	StateConfirmDelete
)

// tabCount is the number of SessionStates shown as tabs.
const tabCount = 2

// HabitFormModel backs the add and edit forms.
type HabitFormModel struct {
	Name  string
	Icon  string
	Color string
}

type Option func(*Model)

// WithClock overrides the clock used to decide which day is today.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

type Model struct {
	store *habitstore.Store
	now   func() time.Time

	state       SessionState
	keys        KeyMap
	help        help.Model
	habitsModel habits.Model
	statsModel  statsview.Model

	form      *huh.Form
	habitForm *HabitFormModel
	editingID string
	deleteID  string
	formError string
	status    string

	width    int
	height   int
	quitting bool
}

func NewModel(store *habitstore.Store, opts ...Option) Model {
	m := Model{
		store:  store,
		now:    time.Now,
		state:  StateToday,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		width:  80,
		height: 24,
	}
	for _, opt := range opts {
		opt(&m)
	}

	habitList := store.Habits()
	m.habitsModel = habits.New(habitList, store.SelectedDate(), m.width, m.listHeight())
	m.statsModel = statsview.New(habitList, m.now(), m.width)
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// State reports the screen currently shown.
func (m Model) State() SessionState { return m.state }

// SelectedID is the habit under the cursor on the Today tab.
func (m Model) SelectedID() string { return m.habitsModel.SelectedID() }

func (m Model) listHeight() int {
	// tabs, date header, footer and help
	return max(m.height-10, 3)
}

// refresh reloads both tabs from the store.
func (m *Model) refresh() {
	habitList := m.store.Habits()
	m.habitsModel.SetHabits(habitList, m.store.SelectedDate())
	m.statsModel.SetHabits(habitList, m.now())
}

func (m Model) ShortHelp() []key.Binding {
	bindings := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateToday:
		hk := m.habitsModel.Keys()
		bindings = append([]key.Binding{hk.Toggle, hk.Cycle, hk.PrevDay, hk.NextDay}, bindings...)
	case StateStats:
		sk := m.statsModel.Keys()
		bindings = append([]key.Binding{sk.Week, sk.Month, sk.Year}, bindings...)
	}
	return bindings
}

func (m Model) FullHelp() [][]key.Binding {
	groups := [][]key.Binding{{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}}
	switch m.state {
	case StateToday:
		hk := m.habitsModel.Keys()
		groups = append(groups,
			[]key.Binding{hk.Toggle, hk.Cycle, hk.PrevDay, hk.NextDay, hk.Today},
			[]key.Binding{hk.Add, hk.Edit, hk.Delete, hk.MoveUp, hk.MoveDown},
		)
	case StateStats:
		sk := m.statsModel.Keys()
		groups = append(groups, []key.Binding{sk.Week, sk.Month, sk.Year})
	}
	return groups
}
