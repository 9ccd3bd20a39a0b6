// Package stats derives streaks and completion figures from habit history.
// Everything here is a pure function of the habits passed in.
package stats

import (
	"slices"
	"time"

	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/utils"
)

// CurrentStreak counts consecutive done days walking backward from until's
// day. It stops at the first day that is not done, so it is 0 whenever until
// itself is not done.
func CurrentStreak(h models.Habit, until time.Time) int {
	streak := 0
	for day := utils.StartOfDay(until); h.State(day) == models.StateDone; day = utils.AddDays(day, -1) {
		streak++
	}
	return streak
}

// BestStreak returns the longest run of consecutive done days between the
// earliest and latest recorded day. Days without a record count as none and
// break the run. Keys that do not parse are skipped.
//
// Only done days are visited, so the cost does not depend on how far apart
// the recorded days are.
func BestStreak(h models.Habit) int {
	var done []time.Time
	for key, state := range h.DayStates {
		if state != models.StateDone {
			continue
		}
		day, err := utils.DateFromKey(key)
		if err != nil {
			continue
		}
		done = append(done, day)
	}
	slices.SortFunc(done, func(a, b time.Time) int { return a.Compare(b) })

	best, run := 0, 0
	for i, day := range done {
		if i > 0 && utils.AddDays(done[i-1], 1).Equal(day) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}
