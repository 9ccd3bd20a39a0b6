package stats

import (
	"fmt"
	"time"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/utils"
)

// Period selects how many days, ending today, a statistic covers.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Periods lists the selectable periods in display order.
var Periods = []Period{PeriodWeek, PeriodMonth, PeriodYear}

// ParsePeriod maps a period name (or its first letter) to a Period.
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "week", "w":
		return PeriodWeek, nil
	case "month", "m":
		return PeriodMonth, nil
	case "year", "y":
		return PeriodYear, nil
	}
	return "", fmt.Errorf("unknown period %q (expected week, month or year)", s)
}

// Days is the number of days the period spans, today included.
func (p Period) Days() int {
	switch p {
	case PeriodWeek:
		return constants.WeekDays
	case PeriodMonth:
		return constants.MonthDays
	case PeriodYear:
		return constants.YearDays
	}
	return 0
}

// Range returns the inclusive ascending days [today-(N-1), today] for p.
func (p Period) Range(today time.Time) []time.Time {
	return utils.LastNDays(p.Days(), today)
}

// DoneCount counts the days in days on which h is done.
func DoneCount(h models.Habit, days []time.Time) int {
	n := 0
	for _, d := range days {
		if h.State(d) == models.StateDone {
			n++
		}
	}
	return n
}

// DoneCountAll sums DoneCount over habits.
func DoneCountAll(habits []models.Habit, days []time.Time) int {
	n := 0
	for _, h := range habits {
		n += DoneCount(h, days)
	}
	return n
}

// CompletionPercent returns floor(100*done/total). ok is false when total is
// zero, meaning there is no data to report.
func CompletionPercent(done, total int) (pct int, ok bool) {
	if total <= 0 {
		return 0, false
	}
	return 100 * done / total, true
}

// HabitPercent returns floor(100*done/days), or 0 when days is zero.
func HabitPercent(done, days int) int {
	pct, _ := CompletionPercent(done, days)
	return pct
}

// HabitRow is one habit's line in a Summary.
type HabitRow struct {
	Habit   models.Habit
	Done    int
	Days    int
	Percent int
	Current int
	Best    int
}

// Summary is the aggregate view of all habits over a period.
type Summary struct {
	Period  Period
	Start   time.Time
	End     time.Time
	Rows    []HabitRow
	Done    int
	Total   int
	Percent int
	HasData bool
}

// Line renders the headline, e.g. "12 done of 35 • 34%".
func (s Summary) Line() string {
	if !s.HasData {
		return "No data"
	}
	return fmt.Sprintf("%d done of %d • %d%%", s.Done, s.Total, s.Percent)
}

// Summarize computes per-habit and overall completion for period ending today.
func Summarize(habits []models.Habit, period Period, today time.Time) Summary {
	days := period.Range(today)
	s := Summary{Period: period, Rows: make([]HabitRow, 0, len(habits))}
	if len(days) > 0 {
		s.Start, s.End = days[0], days[len(days)-1]
	}

	for _, h := range habits {
		done := DoneCount(h, days)
		s.Rows = append(s.Rows, HabitRow{
			Habit:   h,
			Done:    done,
			Days:    len(days),
			Percent: HabitPercent(done, len(days)),
			Current: CurrentStreak(h, today),
			Best:    BestStreak(h),
		})
		s.Done += done
	}

	s.Total = len(habits) * len(days)
	s.Percent, s.HasData = CompletionPercent(s.Done, s.Total)
	return s
}

// RecentStates returns h's state for each of the n days ending at end,
// oldest first. It backs the dot strips.
func RecentStates(h models.Habit, n int, end time.Time) []models.DayState {
	days := utils.LastNDays(n, end)
	states := make([]models.DayState, len(days))
	for i, d := range days {
		states[i] = h.State(d)
	}
	return states
}
