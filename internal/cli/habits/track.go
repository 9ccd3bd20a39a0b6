package habits

import (
	"fmt"
	"time"

	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/stats"
	"github.com/julianstephens/habittasker/internal/utils"
)

type MarkCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	State string `arg:"" help:"One of done, skip, fail or none." enum:"done,skip,fail,none"`
	Date  string `help:"Day as YYYY-MM-DD (default: today)."`
}

func (c *MarkCmd) Run(ctx *cli.Context) error {
	state, err := models.ParseDayState(c.State)
	if err != nil {
		return err
	}
	return update(ctx, c.Habit, c.Date, func(s stateSetter, id string, day time.Time) (models.DayState, error) {
		return state, s.SetState(id, day, state)
	})
}

type ToggleCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Date  string `help:"Day as YYYY-MM-DD (default: today)."`
}

func (c *ToggleCmd) Run(ctx *cli.Context) error {
	return update(ctx, c.Habit, c.Date, func(s stateSetter, id string, day time.Time) (models.DayState, error) {
		return s.ToggleDone(id, day)
	})
}

type CycleCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Date  string `help:"Day as YYYY-MM-DD (default: today)."`
}

func (c *CycleCmd) Run(ctx *cli.Context) error {
	return update(ctx, c.Habit, c.Date, func(s stateSetter, id string, day time.Time) (models.DayState, error) {
		return s.CycleState(id, day)
	})
}

type TodayCmd struct {
	Date string `help:"Day as YYYY-MM-DD (default: today)."`
}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}
	day, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}

	habits := store.Habits()
	ctx.Printf("%s\n", day.Format("Monday, 2 January 2006"))
	if len(habits) == 0 {
		ctx.Printf("No habits yet.\n")
		return nil
	}

	done := 0
	for _, h := range habits {
		state := h.State(day)
		if state == models.StateDone {
			done++
		}
		ctx.Printf("  %s %s  %s  streak %d (best %d)\n",
			state.Symbol(),
			cli.Label(h),
			cli.Dots(h, constants.WeekDotsCount, day),
			stats.CurrentStreak(h, day),
			stats.BestStreak(h),
		)
	}
	ctx.Printf("%d of %d done\n", done, len(habits))
	return nil
}

type StreakCmd struct {
	Habit string `arg:"" optional:"" help:"Habit id or name (default: all)."`
	Date  string `help:"Count back from this day (default: today)."`
}

func (c *StreakCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}
	day, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}

	habits := store.Habits()
	if c.Habit != "" {
		h, err := cli.ResolveHabit(habits, c.Habit)
		if err != nil {
			return err
		}
		habits = []models.Habit{h}
	}

	for _, h := range habits {
		ctx.Printf("%s: current %d, best %d\n", cli.Label(h), stats.CurrentStreak(h, day), stats.BestStreak(h))
	}
	return nil
}

// stateSetter is the part of the store the tracking commands mutate.
type stateSetter interface {
	SetState(id string, date time.Time, state models.DayState) error
	ToggleDone(id string, date time.Time) (models.DayState, error)
	CycleState(id string, date time.Time) (models.DayState, error)
}

func update(ctx *cli.Context, ref, date string, apply func(stateSetter, string, time.Time) (models.DayState, error)) error {
	store, err := ctx.Habits()
	if err != nil {
		return err
	}
	day, err := ctx.ParseDate(date)
	if err != nil {
		return err
	}
	h, err := cli.ResolveHabit(store.Habits(), ref)
	if err != nil {
		return err
	}

	state, err := apply(store, h.ID, day)
	if err != nil {
		return err
	}
	ctx.Printf("%s %s on %s: %s\n", state.Symbol(), cli.Label(h), utils.DayKey(day), stateName(state))
	return nil
}

func stateName(s models.DayState) string {
	if s == models.StateNone {
		return "cleared"
	}
	return fmt.Sprint(s)
}
