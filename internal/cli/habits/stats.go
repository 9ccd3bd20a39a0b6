package habits

import (
	"time"

	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/stats"
	"github.com/julianstephens/habittasker/internal/storage"
	"github.com/julianstephens/habittasker/internal/utils"
	"github.com/julianstephens/habittasker/internal/watcher"
)

type StatsCmd struct {
	Period string `short:"p" help:"week, month or year." default:"week" enum:"week,month,year,w,m,y"`
	Watch  bool   `short:"w" help:"Re-render whenever the data file changes."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	period, err := stats.ParsePeriod(c.Period)
	if err != nil {
		return err
	}

	if !c.Watch {
		store, err := ctx.Habits()
		if err != nil {
			return err
		}
		renderStats(ctx, store.Habits(), period)
		return nil
	}
	return c.watch(ctx, period)
}

// watch reads the file directly on every change. It never writes, so a
// running TUI or another command stays the only writer.
func (c *StatsCmd) watch(ctx *cli.Context, period stats.Period) error {
	// Make sure pending writes from this process are on disk first.
	if err := ctx.CloseStore(); err != nil {
		return err
	}

	path := ctx.Config.DataPath
	render := func() {
		gw := storage.Open(path)
		snap, err := gw.Load()
		gw.Close()
		switch {
		case err != nil:
			ctx.Printf("%s\n", err)
			return
		case snap == nil:
			ctx.Printf("No data at %s yet.\n", path)
			return
		}
		ctx.Printf("\n── %s ──\n", ctx.Now().Format(time.TimeOnly))
		renderStats(ctx, snap.Habits, period)
	}

	w, err := watcher.New(path,
		watcher.WithDebounceDuration(constants.SaveDelay/4),
		watcher.WithOnError(func(err error) { logger.Warn("Watch error", "path", path, "error", err) }),
	)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	render()
	ctx.Printf("Watching %s (Ctrl+C to stop)\n", path)
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		case <-w.Changed():
			render()
		}
	}
}

func renderStats(ctx *cli.Context, habits []models.Habit, period stats.Period) {
	sum := stats.Summarize(habits, period, ctx.Today())

	ctx.Printf("%s stats, %s to %s\n", periodTitle(period), utils.DayKey(sum.Start), utils.DayKey(sum.End))
	ctx.Printf("%s\n", sum.Line())
	if len(sum.Rows) == 0 {
		return
	}

	width := 0
	for _, r := range sum.Rows {
		width = max(width, len([]rune(cli.Label(r.Habit))))
	}
	for _, r := range sum.Rows {
		ctx.Printf("  %-*s  %3d/%-3d %3d%%  %s  streak %d (best %d)\n",
			width, cli.Label(r.Habit),
			r.Done, r.Days, r.Percent,
			cli.Dots(r.Habit, constants.StatsDotsCount, sum.End),
			r.Current, r.Best,
		)
	}
}

func periodTitle(p stats.Period) string {
	switch p {
	case stats.PeriodMonth:
		return "Monthly"
	case stats.PeriodYear:
		return "Yearly"
	default:
		return "Weekly"
	}
}
