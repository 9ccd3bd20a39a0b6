package habits

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habittasker/internal/cli"
	"github.com/julianstephens/habittasker/internal/config"
	"github.com/julianstephens/habittasker/internal/habitstore"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/utils"
)

var fixedNow = time.Date(2025, time.March, 12, 9, 30, 0, 0, time.Local)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataPath = filepath.Join(dir, "habits.json")
	cfg.SaveDelay = time.Hour

	ctx := cli.NewContext(cfg, filepath.Join(dir, "config.yaml"))
	out := &bytes.Buffer{}
	ctx.Out = out
	ctx.In = strings.NewReader("")
	ctx.Now = func() time.Time { return fixedNow }
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, out
}

func mustStore(t *testing.T, ctx *cli.Context) *habitstore.Store {
	t.Helper()
	store, err := ctx.Habits()
	if err != nil {
		t.Fatalf("Habits() error = %v", err)
	}
	return store
}

func findByName(t *testing.T, store *habitstore.Store, name string) models.Habit {
	t.Helper()
	for _, h := range store.Habits() {
		if h.Name == name {
			return h
		}
	}
	t.Fatalf("habit %q not found", name)
	return models.Habit{}
}

func TestHabitAddCmd(t *testing.T) {
	ctx, out := setupTestContext(t)

	cmd := &HabitAddCmd{Name: "  Stretch ", Icon: "🧘‍♀️🧘‍♀️🧘‍♀️", Color: "#30d158"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	h := findByName(t, mustStore(t, ctx), "Stretch")
	if h.Icon != "🧘‍♀️🧘‍♀️" {
		t.Errorf("icon = %q, want two graphemes", h.Icon)
	}
	if h.ColorHex != "30D158" {
		t.Errorf("color = %q, want 30D158", h.ColorHex)
	}
	if !strings.Contains(out.String(), "Added habit: 🧘‍♀️🧘‍♀️ Stretch") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestHabitAddCmdDefaults(t *testing.T) {
	ctx, _ := setupTestContext(t)

	if err := (&HabitAddCmd{Name: "Floss"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	h := findByName(t, mustStore(t, ctx), "Floss")
	if h.Icon != "⭐️" || h.ColorHex != "FFD60A" {
		t.Errorf("defaults = %q/%q", h.Icon, h.ColorHex)
	}
}

func TestHabitAddCmdRejects(t *testing.T) {
	tests := []struct {
		name string
		cmd  HabitAddCmd
	}{
		{"empty name", HabitAddCmd{Name: "   "}},
		{"duplicate name", HabitAddCmd{Name: "read 30 MIN"}},
		{"bad color", HabitAddCmd{Name: "Run", Color: "blue"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestContext(t)
			if err := tt.cmd.Run(ctx); err == nil {
				t.Fatal("expected an error")
			}
			if got := len(mustStore(t, ctx).Habits()); got != 5 {
				t.Errorf("habit count = %d, want 5", got)
			}
		})
	}
}

func TestHabitEditCmd(t *testing.T) {
	ctx, _ := setupTestContext(t)
	store := mustStore(t, ctx)
	orig := findByName(t, store, "No sugar")
	if err := store.SetState(orig.ID, ctx.Today(), models.StateDone); err != nil {
		t.Fatal(err)
	}

	cmd := &HabitEditCmd{Habit: "no sugar", Name: "Less sugar", Color: "0a84ff"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	h, ok := store.Habit(orig.ID)
	if !ok {
		t.Fatal("habit disappeared")
	}
	if h.Name != "Less sugar" || h.ColorHex != "0A84FF" || h.Icon != orig.Icon {
		t.Errorf("edited habit = %+v", h)
	}
	if h.State(ctx.Today()) != models.StateDone {
		t.Error("edit lost history")
	}

	if err := (&HabitEditCmd{Habit: orig.ID}).Run(ctx); err == nil {
		t.Error("edit with nothing to change should fail")
	}
	if err := (&HabitEditCmd{Habit: orig.ID, Name: "No alcohol"}).Run(ctx); err == nil {
		t.Error("renaming onto another habit's name should fail")
	}
	if err := (&HabitEditCmd{Habit: orig.ID, Name: "less SUGAR"}).Run(ctx); err != nil {
		t.Errorf("changing only the case of its own name failed: %v", err)
	}
}

func TestHabitDeleteCmd(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		ctx, out := setupTestContext(t)
		ctx.In = strings.NewReader("n\n")
		if err := (&HabitDeleteCmd{Habit: "No sugar"}).Run(ctx); err != nil {
			t.Fatal(err)
		}
		if len(mustStore(t, ctx).Habits()) != 5 {
			t.Error("habit deleted despite declining")
		}
		if !strings.Contains(out.String(), "Cancelled.") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		ctx, _ := setupTestContext(t)
		ctx.In = strings.NewReader("y\n")
		if err := (&HabitDeleteCmd{Habit: "No sugar"}).Run(ctx); err != nil {
			t.Fatal(err)
		}
		if len(mustStore(t, ctx).Habits()) != 4 {
			t.Error("habit not deleted")
		}
	})

	t.Run("yes flag", func(t *testing.T) {
		ctx, _ := setupTestContext(t)
		if err := (&HabitDeleteCmd{Habit: "No sugar", Yes: true}).Run(ctx); err != nil {
			t.Fatal(err)
		}
		if len(mustStore(t, ctx).Habits()) != 4 {
			t.Error("habit not deleted")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		ctx, _ := setupTestContext(t)
		err := (&HabitDeleteCmd{Habit: "Juggling", Yes: true}).Run(ctx)
		if !errors.Is(err, habitstore.ErrHabitNotFound) {
			t.Errorf("error = %v, want ErrHabitNotFound", err)
		}
	})
}

func TestHabitListCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	store := mustStore(t, ctx)

	if err := (&HabitListCmd{IDs: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), out.String())
	}
	first := store.Habits()[0]
	if !strings.HasPrefix(lines[0], " 1. "+first.Icon+" "+first.Name) {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], first.ID) {
		t.Errorf("first line missing id: %q", lines[0])
	}

	if err := store.Reset(); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := (&HabitListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No habits yet") {
		t.Errorf("empty list output = %q", out.String())
	}
}

func TestHabitMoveCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	store := mustStore(t, ctx)
	names := func() []string {
		var n []string
		for _, h := range store.Habits() {
			n = append(n, h.Name)
		}
		return n
	}

	if err := (&HabitMoveCmd{Habit: "Walk 20 min", By: -1}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := names()[1]; got != "Walk 20 min" {
		t.Errorf("after move up, position 2 = %q", got)
	}
	if !strings.Contains(out.String(), "to position 2") {
		t.Errorf("output = %q", out.String())
	}

	if err := (&HabitMoveCmd{Habit: "Walk 20 min", By: 10}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := names()[4]; got != "Walk 20 min" {
		t.Errorf("move past the end should clamp; last = %q", got)
	}
}

func TestMarkToggleCycle(t *testing.T) {
	ctx, out := setupTestContext(t)
	store := mustStore(t, ctx)
	h := findByName(t, store, "Read 30 min")
	today := ctx.Today()

	if err := (&MarkCmd{Habit: h.Name, State: "fail"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := store.State(h.ID, today); got != models.StateFail {
		t.Errorf("after mark = %q, want fail", got)
	}

	if err := (&ToggleCmd{Habit: h.Name}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := store.State(h.ID, today); got != models.StateDone {
		t.Errorf("toggle from fail = %q, want done", got)
	}

	if err := (&CycleCmd{Habit: h.ID}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := store.State(h.ID, today); got != models.StateSkip {
		t.Errorf("cycle from done = %q, want skip", got)
	}

	if err := (&MarkCmd{Habit: h.Name, State: "none"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := store.State(h.ID, today); got != models.StateNone {
		t.Errorf("mark none = %q", got)
	}
	if !strings.Contains(out.String(), "2025-03-12: cleared") {
		t.Errorf("output missing cleared line:\n%s", out.String())
	}
}

func TestMarkWithDate(t *testing.T) {
	ctx, out := setupTestContext(t)
	store := mustStore(t, ctx)
	h := findByName(t, store, "No alcohol")

	if err := (&MarkCmd{Habit: h.Name, State: "done", Date: "2025-03-01"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	day, _ := utils.DateFromKey("2025-03-01")
	if got := store.State(h.ID, day); got != models.StateDone {
		t.Errorf("state on 2025-03-01 = %q", got)
	}
	if !strings.Contains(out.String(), "on 2025-03-01: done") {
		t.Errorf("output = %q", out.String())
	}

	if err := (&MarkCmd{Habit: h.Name, State: "done", Date: "2025-13-01"}).Run(ctx); err == nil {
		t.Error("invalid date accepted")
	}
}

func TestTodayCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	store := mustStore(t, ctx)
	h := findByName(t, store, "Water 2 liters")
	for i := range 3 {
		if err := store.SetState(h.ID, utils.AddDays(ctx.Today(), -i), models.StateDone); err != nil {
			t.Fatal(err)
		}
	}

	if err := (&TodayCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{
		"Wednesday, 12 March 2025",
		"✓ 💧 Water 2 liters  ····✓✓✓  streak 3 (best 3)",
		"1 of 5 done",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestStreakCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	store := mustStore(t, ctx)
	h := findByName(t, store, "Walk 20 min")
	today := ctx.Today()
	// A skip breaks the run.
	states := []models.DayState{models.StateDone, models.StateDone, models.StateSkip, models.StateDone}
	for i, s := range states {
		if err := store.SetState(h.ID, utils.AddDays(today, i-len(states)+1), s); err != nil {
			t.Fatal(err)
		}
	}

	if err := (&StreakCmd{Habit: h.Name}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "Walk 20 min: current 1, best 2") {
		t.Errorf("line = %q", lines[0])
	}

	out.Reset()
	if err := (&StreakCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out.String(), "\n"); got != 5 {
		t.Errorf("all-habit streaks printed %d lines, want 5", got)
	}
}

func TestStatsCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	store := mustStore(t, ctx)
	h := findByName(t, store, "No sugar")
	for i := range 7 {
		if err := store.SetState(h.ID, utils.AddDays(ctx.Today(), -i), models.StateDone); err != nil {
			t.Fatal(err)
		}
	}

	if err := (&StatsCmd{Period: "w"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{
		"Weekly stats, 2025-03-06 to 2025-03-12",
		"7 done of 35 • 20%",
		"7/7",
		"100%",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}

	out.Reset()
	if err := (&StatsCmd{Period: "month"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "7 done of 150 • 4%") {
		t.Errorf("month output:\n%s", out.String())
	}
}
