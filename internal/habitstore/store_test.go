package habitstore

import (
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/storage"
)

// memGateway is an in-memory storage.Provider that records every save.
type memGateway struct {
	mu      sync.Mutex
	stored  *models.AppSnapshot
	loadErr error
	saveErr error
	saves   []models.AppSnapshot
	closed  bool
}

func (g *memGateway) Load() (*models.AppSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	if g.stored == nil {
		return nil, nil
	}
	c := g.stored.Clone()
	return &c, nil
}

func (g *memGateway) Save(snap models.AppSnapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves = append(g.saves, snap.Clone())
	if g.saveErr != nil {
		return g.saveErr
	}
	c := snap.Clone()
	g.stored = &c
	return nil
}

func (g *memGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *memGateway) Path() string { return "mem://habits.json" }

func (g *memGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.saves)
}

func (g *memGateway) lastSave() models.AppSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves[len(g.saves)-1]
}

type countingBackuper struct {
	mu    sync.Mutex
	calls int
}

func (b *countingBackuper) CreateBackup() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return "backup.json", nil
}

var day1 = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.Local)

// newLoadedStore returns a store over an empty gateway holding two habits,
// with the seeding save already discarded.
func newLoadedStore(t *testing.T, opts ...Option) (*Store, *memGateway, []models.Habit) {
	t.Helper()
	a := models.NewHabit("Walk", "🚶", "4DFFB8")
	b := models.NewHabit("Read", "📚", "B84DFF")
	gw := &memGateway{stored: &models.AppSnapshot{SchemaVersion: 1, Habits: []models.Habit{a, b}}}

	opts = append([]Option{WithSaveDelay(time.Hour)}, opts...)
	s := New(gw, opts...)
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s, gw, []models.Habit{a, b}
}

func TestLoad_SeedsWhenAbsent(t *testing.T) {
	gw := &memGateway{}
	s := New(gw, WithSaveDelay(time.Hour))

	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(s.Habits()); got != 5 {
		t.Errorf("seeded %d habits, want 5", got)
	}
	if gw.saveCount() != 1 {
		t.Errorf("seed persisted %d times, want 1", gw.saveCount())
	}
	if s.SavePending() {
		t.Error("seeding left a debounced save pending")
	}
}

func TestLoad_ExistingSnapshot(t *testing.T) {
	s, gw, habits := newLoadedStore(t)

	got := s.Habits()
	if len(got) != 2 || got[0].ID != habits[0].ID || got[1].ID != habits[1].ID {
		t.Fatalf("Habits() = %+v, want stored order", got)
	}
	if gw.saveCount() != 0 {
		t.Errorf("loading an existing snapshot wrote %d times", gw.saveCount())
	}
}

func TestLoad_FailureSelfHeals(t *testing.T) {
	gw := &memGateway{loadErr: &storage.DecodeError{Reason: "invalid JSON"}}
	b := &countingBackuper{}
	s := New(gw, WithSaveDelay(time.Hour), WithBackuper(b))

	err := s.Load()
	if !errors.Is(err, storage.ErrDecode) {
		t.Fatalf("Load() error = %v, want ErrDecode", err)
	}
	if got := len(s.Habits()); got != 5 {
		t.Errorf("fallback has %d habits, want the 5 seeded", got)
	}
	if gw.saveCount() != 1 || len(gw.lastSave().Habits) != 5 {
		t.Errorf("seeded state was not persisted over the unreadable file")
	}
	if b.calls != 1 {
		t.Errorf("backup called %d times, want 1", b.calls)
	}
}

func TestSetState(t *testing.T) {
	s, _, habits := newLoadedStore(t)
	id := habits[0].ID

	t.Run("none on empty day is a no-op", func(t *testing.T) {
		if err := s.SetState(id, day1, models.StateNone); err != nil {
			t.Fatalf("SetState() error = %v", err)
		}
		h, _ := s.Habit(id)
		if len(h.DayStates) != 0 {
			t.Errorf("DayStates = %v, want no key", h.DayStates)
		}
		if s.SavePending() {
			t.Error("no-op scheduled a save")
		}
	})

	t.Run("upsert then clear", func(t *testing.T) {
		if err := s.SetState(id, day1, models.StateFail); err != nil {
			t.Fatalf("SetState() error = %v", err)
		}
		if got := s.State(id, day1); got != models.StateFail {
			t.Errorf("State() = %s, want fail", got)
		}
		if !s.SavePending() {
			t.Error("mutation did not schedule a save")
		}
		if err := s.SetState(id, day1, models.StateNone); err != nil {
			t.Fatalf("SetState() error = %v", err)
		}
		h, _ := s.Habit(id)
		if _, ok := h.DayStates["2024-01-01"]; ok {
			t.Errorf("none left a key behind: %v", h.DayStates)
		}
	})
}

func TestToggleAndCycle(t *testing.T) {
	s, _, habits := newLoadedStore(t)
	id := habits[0].ID

	steps := []struct {
		op   string
		want models.DayState
	}{
		{"toggle", models.StateDone},
		{"toggle", models.StateNone},
		{"cycle", models.StateDone},
		{"cycle", models.StateSkip},
		{"toggle", models.StateDone},
		{"cycle", models.StateSkip},
		{"cycle", models.StateFail},
		{"toggle", models.StateDone},
		{"cycle", models.StateSkip},
		{"cycle", models.StateFail},
		{"cycle", models.StateNone},
	}

	for i, st := range steps {
		var got models.DayState
		var err error
		if st.op == "toggle" {
			got, err = s.ToggleDone(id, day1)
		} else {
			got, err = s.CycleState(id, day1)
		}
		if err != nil {
			t.Fatalf("step %d %s error = %v", i, st.op, err)
		}
		if got != st.want || s.State(id, day1) != st.want {
			t.Fatalf("step %d %s = %s (stored %s), want %s", i, st.op, got, s.State(id, day1), st.want)
		}
	}
}

func TestUnknownHabit(t *testing.T) {
	t.Run("silent by default", func(t *testing.T) {
		s, _, _ := newLoadedStore(t)
		before := s.Habits()

		if err := s.SetState("missing", day1, models.StateDone); err != nil {
			t.Errorf("SetState() error = %v, want nil", err)
		}
		if _, err := s.ToggleDone("missing", day1); err != nil {
			t.Errorf("ToggleDone() error = %v, want nil", err)
		}
		if err := s.EditHabit("missing", "x", "x", "000000"); err != nil {
			t.Errorf("EditHabit() error = %v, want nil", err)
		}
		if err := s.DeleteHabit("missing"); err != nil {
			t.Errorf("DeleteHabit() error = %v, want nil", err)
		}
		if s.SavePending() {
			t.Error("unknown id scheduled a save")
		}
		if !reflect.DeepEqual(before, s.Habits()) {
			t.Error("unknown id changed the collection")
		}
	})

	t.Run("strict mode reports", func(t *testing.T) {
		s, _, _ := newLoadedStore(t, WithStrict(true))

		if _, err := s.CycleState("missing", day1); !errors.Is(err, ErrHabitNotFound) {
			t.Errorf("CycleState() error = %v, want ErrHabitNotFound", err)
		}
		if err := s.DeleteHabit("missing"); !errors.Is(err, ErrHabitNotFound) {
			t.Errorf("DeleteHabit() error = %v, want ErrHabitNotFound", err)
		}
		if err := s.MoveHabit("missing", 1); !errors.Is(err, ErrHabitNotFound) {
			t.Errorf("MoveHabit() error = %v, want ErrHabitNotFound", err)
		}
	})
}

func TestHabitCRUD(t *testing.T) {
	s, _, habits := newLoadedStore(t)

	added := s.AddHabit("Stretch", "🧘", "FFB84D")
	if added.ID == "" || len(added.DayStates) != 0 {
		t.Fatalf("AddHabit() = %+v, want fresh id and no days", added)
	}
	got := s.Habits()
	if len(got) != 3 || got[2].ID != added.ID {
		t.Fatalf("new habit not appended: %+v", got)
	}

	if _, err := s.ToggleDone(habits[0].ID, day1); err != nil {
		t.Fatal(err)
	}
	if err := s.EditHabit(habits[0].ID, "Long walk", "🥾", "00FF00"); err != nil {
		t.Fatalf("EditHabit() error = %v", err)
	}
	h, _ := s.Habit(habits[0].ID)
	if h.Name != "Long walk" || h.Icon != "🥾" || h.ColorHex != "00FF00" {
		t.Errorf("EditHabit() fields = %+v", h)
	}
	if h.State(day1) != models.StateDone {
		t.Error("EditHabit() dropped recorded days")
	}

	if err := s.MoveHabit(added.ID, -5); err != nil {
		t.Fatalf("MoveHabit() error = %v", err)
	}
	if got := s.Habits(); got[0].ID != added.ID || got[1].ID != habits[0].ID {
		t.Errorf("MoveHabit() order = %s, %s", got[0].Name, got[1].Name)
	}

	if err := s.DeleteHabit(habits[1].ID); err != nil {
		t.Fatalf("DeleteHabit() error = %v", err)
	}
	if _, ok := s.Habit(habits[1].ID); ok {
		t.Error("deleted habit still present")
	}
	if len(s.Habits()) != 2 {
		t.Errorf("Habits() len = %d, want 2", len(s.Habits()))
	}
}

func TestHabitsReturnsCopies(t *testing.T) {
	s, _, habits := newLoadedStore(t)

	got := s.Habits()
	got[0].Name = "mutated"
	got[0].DayStates["2024-01-01"] = models.StateDone

	h, _ := s.Habit(habits[0].ID)
	if h.Name == "mutated" || len(h.DayStates) != 0 {
		t.Error("caller mutation leaked into the store")
	}
}

func TestSelectedDateDoesNotSave(t *testing.T) {
	now := time.Date(2024, time.March, 3, 15, 0, 0, 0, time.Local)
	s, _, _ := newLoadedStore(t, WithClock(func() time.Time { return now }))

	if got := s.SelectedDate(); !got.Equal(time.Date(2024, time.March, 3, 0, 0, 0, 0, time.Local)) {
		t.Errorf("initial SelectedDate() = %v, want start of clock day", got)
	}
	s.SetSelectedDate(day1)
	if got := s.ShiftSelectedDate(-1); got.Day() != 31 || got.Month() != time.December {
		t.Errorf("ShiftSelectedDate(-1) = %v, want Dec 31", got)
	}
	if s.SavePending() {
		t.Error("changing the selected date scheduled a save")
	}
}

func TestDebounceCoalesces(t *testing.T) {
	gw := &memGateway{}
	s := New(gw, WithSaveDelay(50*time.Millisecond))
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}
	id := s.Habits()[0].ID
	before := gw.saveCount()

	if _, err := s.ToggleDone(id, day1); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := s.CycleState(id, day1); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	if got := gw.saveCount() - before; got != 1 {
		t.Fatalf("two quick mutations produced %d writes, want 1", got)
	}
	saved := gw.lastSave()
	if st := saved.Habits[0].State(day1); st != models.StateSkip {
		t.Errorf("persisted state = %s, want the second mutation's skip", st)
	}
}

func TestFlushAndClose(t *testing.T) {
	s, gw, habits := newLoadedStore(t)

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() with nothing pending error = %v", err)
	}
	if gw.saveCount() != 0 {
		t.Fatal("empty Flush wrote")
	}

	if _, err := s.ToggleDone(habits[1].ID, day1); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if gw.saveCount() != 1 {
		t.Fatalf("Close() wrote %d times, want 1", gw.saveCount())
	}
	if gw.lastSave().Habits[1].State(day1) != models.StateDone {
		t.Error("flushed snapshot missing the pending mutation")
	}
	if !gw.closed {
		t.Error("Close() did not close the gateway")
	}
}

func TestSaveErrorIsReported(t *testing.T) {
	var mu sync.Mutex
	var reported []error
	s, gw, habits := newLoadedStore(t, WithOnSaveError(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}))

	boom := errors.New("disk full")
	gw.mu.Lock()
	gw.saveErr = boom
	gw.mu.Unlock()

	if _, err := s.ToggleDone(habits[0].ID, day1); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); !errors.Is(err, boom) {
		t.Errorf("Flush() error = %v, want %v", err, boom)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 1 || !errors.Is(reported[0], boom) {
		t.Errorf("OnSaveError got %v, want one %v", reported, boom)
	}
	if s.State(habits[0].ID, day1) != models.StateDone {
		t.Error("failed save rolled back the in-memory mutation")
	}
	if !errors.Is(s.LastSaveError(), boom) {
		t.Errorf("LastSaveError() = %v", s.LastSaveError())
	}
}

func TestImport(t *testing.T) {
	t.Run("invalid leaves store untouched", func(t *testing.T) {
		s, gw, _ := newLoadedStore(t)
		before := s.Habits()

		inputs := [][]byte{
			[]byte(`{"schemaVersion":2,"habits":[]}`),
			[]byte(`not json`),
		}
		for _, in := range inputs {
			if err := s.Import(in); err == nil {
				t.Errorf("Import(%s) succeeded", in)
			}
		}
		err := s.Import(inputs[0])
		if !errors.Is(err, storage.ErrSchemaVersion) {
			t.Errorf("Import() error = %v, want ErrSchemaVersion", err)
		}
		if !reflect.DeepEqual(before, s.Habits()) {
			t.Error("failed import changed the collection")
		}
		if gw.saveCount() != 0 {
			t.Error("failed import wrote")
		}
	})

	t.Run("valid replaces and writes immediately", func(t *testing.T) {
		b := &countingBackuper{}
		s, gw, habits := newLoadedStore(t, WithBackuper(b))
		if _, err := s.ToggleDone(habits[0].ID, day1); err != nil {
			t.Fatal(err)
		}

		replacement := models.NewHabit("Meditate", "🧘", "4DA3FF")
		data, err := storage.Encode(models.AppSnapshot{Habits: []models.Habit{replacement}})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Import(data); err != nil {
			t.Fatalf("Import() error = %v", err)
		}

		if got := s.Habits(); len(got) != 1 || got[0].ID != replacement.ID {
			t.Fatalf("Habits() after import = %+v", got)
		}
		if gw.saveCount() != 1 {
			t.Errorf("import wrote %d times, want 1", gw.saveCount())
		}
		if s.SavePending() {
			t.Error("import left the earlier debounced save pending")
		}
		if b.calls != 1 {
			t.Errorf("backup called %d times, want 1", b.calls)
		}
	})
}

func TestImportRejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.db")
	s := New(storage.NewSQLiteStore(path), WithSaveDelay(time.Hour))
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	before := s.Habits()

	data := []byte(`{"schemaVersion":1,"habits":[
		{"colorHex":"4DFFB8","dayStates":{},"icon":"1","id":"a","name":"One"},
		{"colorHex":"B84DFF","dayStates":{},"icon":"2","id":"a","name":"Two"}]}`)
	err := s.Import(data)
	if !errors.Is(err, storage.ErrDecode) {
		t.Fatalf("Import() error = %v, want ErrDecode", err)
	}
	if !reflect.DeepEqual(before, s.Habits()) {
		t.Error("rejected import changed the collection")
	}
	if err := s.LastSaveError(); err != nil {
		t.Errorf("LastSaveError() = %v after a rejected import", err)
	}
}

func TestStaleSaveIsSkipped(t *testing.T) {
	s, gw, habits := newLoadedStore(t)
	if _, err := s.ToggleDone(habits[0].ID, day1); err != nil {
		t.Fatal(err)
	}

	// A debounced save that already fired holds a capture taken before the
	// import and only reaches the gateway after it.
	s.mu.Lock()
	stale, staleGen := s.captureLocked()
	s.mu.Unlock()

	replacement := models.NewHabit("Meditate", "🧘", "4DA3FF")
	data, err := storage.Encode(models.AppSnapshot{Habits: []models.Habit{replacement}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Import(data); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if err := s.persist(stale, staleGen); err != nil {
		t.Fatalf("persist(stale) error = %v", err)
	}
	if gw.saveCount() != 1 {
		t.Fatalf("gateway saw %d writes, want only the import", gw.saveCount())
	}
	if got := gw.lastSave().Habits; len(got) != 1 || got[0].ID != replacement.ID {
		t.Errorf("stale save overwrote the import: %+v", got)
	}

	if _, err := s.ToggleDone(replacement.ID, day1); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if gw.saveCount() != 2 || gw.lastSave().Habits[0].State(day1) != models.StateDone {
		t.Error("a save captured after the import was not written")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s, _, habits := newLoadedStore(t)
	if _, err := s.CycleState(habits[0].ID, day1); err != nil {
		t.Fatal(err)
	}
	if err := s.SetState(habits[1].ID, day1.AddDate(0, 0, 1), models.StateFail); err != nil {
		t.Fatal(err)
	}
	want := s.Habits()

	data, name, err := s.Export(time.Date(2024, time.February, 9, 23, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if name != "HabitTasker-2024-02-09.json" {
		t.Errorf("Export() name = %q", name)
	}

	other := New(&memGateway{}, WithSaveDelay(time.Hour))
	if err := other.Import(data); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got := other.Habits(); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestReset(t *testing.T) {
	s, gw, habits := newLoadedStore(t)
	if _, err := s.ToggleDone(habits[0].ID, day1); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(s.Habits()) != 0 {
		t.Errorf("Habits() after reset = %d, want 0", len(s.Habits()))
	}
	if gw.saveCount() != 1 || len(gw.lastSave().Habits) != 0 {
		t.Error("reset was not written immediately")
	}
	if s.SavePending() {
		t.Error("reset left a debounced save pending")
	}
}

func TestConcurrentMutations(t *testing.T) {
	s, _, habits := newLoadedStore(t)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := day1.AddDate(0, 0, i)
			if _, err := s.ToggleDone(habits[i%2].ID, d); err != nil {
				t.Error(err)
			}
			_ = s.Habits()
		}()
	}
	wg.Wait()

	total := 0
	for _, h := range s.Habits() {
		total += len(h.DayStates)
	}
	if total != 50 {
		t.Errorf("recorded %d days, want 50", total)
	}
}

func TestStoreWithJSONGateway(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HabitTasker", "habits.json")
	s := New(storage.NewJSONStore(path), WithSaveDelay(time.Hour))
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	id := s.Habits()[2].ID
	if _, err := s.ToggleDone(id, day1); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := New(storage.NewJSONStore(path))
	if err := reopened.Load(); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if reopened.State(id, day1) != models.StateDone {
		t.Error("state did not survive a reload")
	}
}
