package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habittasker/internal/constants"
)

// accent matches the default habit color.
var (
	accent = lipgloss.Color("#" + constants.DefaultHabitColor)
	muted  = lipgloss.Color("240")
	alert  = lipgloss.Color("196")
)

var (
	tabStyle         = lipgloss.NewStyle().Padding(0, 2)
	activeTabStyle   = tabStyle.Foreground(accent).Bold(true).Underline(true)
	inactiveTabStyle = tabStyle.Foreground(muted)

	formTitleStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	dangerStyle    = lipgloss.NewStyle().Foreground(alert).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(alert).Italic(true)
	statusStyle    = lipgloss.NewStyle().Foreground(muted)

	docStyle = lipgloss.NewStyle().Margin(1, 2, 0)
)
