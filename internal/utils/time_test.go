package utils

import (
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestDayKey(t *testing.T) {
	est, _ := time.LoadLocation("America/New_York")

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "zero padded month and day",
			in:   time.Date(2024, time.January, 5, 15, 4, 5, 0, time.UTC),
			want: "2024-01-05",
		},
		{
			name: "midnight",
			in:   time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
			want: "2024-12-31",
		},
		{
			name: "last nanosecond of the day",
			in:   time.Date(2024, time.March, 9, 23, 59, 59, 999999999, time.UTC),
			want: "2024-03-09",
		},
		{
			name: "day taken in the time's own location",
			in:   time.Date(2024, time.July, 1, 2, 0, 0, 0, time.UTC).In(est),
			want: "2024-06-30",
		},
		{
			name: "small year padded to four digits",
			in:   time.Date(7, time.February, 3, 0, 0, 0, 0, time.UTC),
			want: "0007-02-03",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayKey(tt.in); got != tt.want {
				t.Errorf("DayKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDateFromKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    time.Time
		wantErr bool
	}{
		{
			name: "valid key",
			key:  "2024-01-05",
			want: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "leap day",
			key:  "2024-02-29",
			want: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
		{name: "non leap year february 29", key: "2023-02-29", wantErr: true},
		{name: "april 31", key: "2024-04-31", wantErr: true},
		{name: "month 13", key: "2024-13-01", wantErr: true},
		{name: "month zero", key: "2024-00-10", wantErr: true},
		{name: "day zero", key: "2024-01-00", wantErr: true},
		{name: "two parts", key: "2024-01", wantErr: true},
		{name: "four parts", key: "2024-01-01-01", wantErr: true},
		{name: "non numeric", key: "2024-aa-01", wantErr: true},
		{name: "empty", key: "", wantErr: true},
		{name: "slashes", key: "2024/01/01", wantErr: true},
		{name: "unpadded month and day", key: "2024-1-5", wantErr: true},
		{name: "seven digit year", key: "9000000-01-01", wantErr: true},
		{name: "signed month", key: "2024-+1-05", wantErr: true},
		{name: "padded day", key: "2024-01-005", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DateFromKeyIn(tt.key, time.UTC)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DateFromKeyIn() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDayKey) {
					t.Errorf("DateFromKeyIn() error = %v, want ErrInvalidDayKey", err)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("DateFromKeyIn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateFromKeyUsesLocalTime(t *testing.T) {
	got, err := DateFromKey("2024-06-15")
	if err != nil {
		t.Fatalf("DateFromKey() error = %v", err)
	}
	if got.Location() != time.Local {
		t.Errorf("DateFromKey() location = %v, want Local", got.Location())
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("DateFromKey() = %v, want local midnight", got)
	}
}

func TestDayKeyRoundTrip(t *testing.T) {
	locs := []*time.Location{time.UTC, time.Local, time.FixedZone("UTC+13", 13*3600)}

	rapid.Check(t, func(rt *rapid.T) {
		loc := locs[rapid.IntRange(0, len(locs)-1).Draw(rt, "loc")]
		d := time.Date(
			rapid.IntRange(1, 9999).Draw(rt, "year"),
			time.Month(rapid.IntRange(1, 12).Draw(rt, "month")),
			rapid.IntRange(1, 28).Draw(rt, "day"),
			rapid.IntRange(0, 23).Draw(rt, "hour"),
			rapid.IntRange(0, 59).Draw(rt, "minute"),
			0, 0, loc,
		)

		got, err := DateFromKeyIn(DayKey(d), loc)
		if err != nil {
			rt.Fatalf("DateFromKeyIn(DayKey(%v)) error = %v", d, err)
		}
		if want := StartOfDay(d); !got.Equal(want) {
			rt.Fatalf("DateFromKeyIn(DayKey(%v)) = %v, want %v", d, got, want)
		}
	})
}

func TestLastNDays(t *testing.T) {
	end := time.Date(2024, time.March, 2, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		count int
		want  []string
	}{
		{name: "zero count", count: 0, want: nil},
		{name: "negative count", count: -3, want: nil},
		{name: "single day", count: 1, want: []string{"2024-03-02"}},
		{
			name:  "crosses leap day",
			count: 4,
			want:  []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LastNDays(tt.count, end)
			if len(got) != len(tt.want) {
				t.Fatalf("LastNDays() len = %d, want %d", len(got), len(tt.want))
			}
			for i, d := range got {
				if DayKey(d) != tt.want[i] {
					t.Errorf("LastNDays()[%d] = %s, want %s", i, DayKey(d), tt.want[i])
				}
				if !d.Equal(StartOfDay(d)) {
					t.Errorf("LastNDays()[%d] = %v, want start of day", i, d)
				}
			}
		})
	}
}

func TestLastNDaysAcrossDST(t *testing.T) {
	est, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone database unavailable")
	}
	end := time.Date(2024, time.March, 11, 12, 0, 0, 0, est)

	got := LastNDays(3, end)
	want := []string{"2024-03-09", "2024-03-10", "2024-03-11"}
	for i, d := range got {
		if DayKey(d) != want[i] {
			t.Errorf("LastNDays()[%d] = %s, want %s", i, DayKey(d), want[i])
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		timeStr string
		want    int
		wantErr bool
	}{
		{name: "default reminder", timeStr: "19:30", want: 19*60 + 30},
		{name: "midnight", timeStr: "00:00", want: 0},
		{name: "end of day", timeStr: "23:59", want: 23*60 + 59},
		{name: "out of range hour", timeStr: "25:00", wantErr: true},
		{name: "text", timeStr: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.timeStr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTime() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Hour()*60+got.Minute() != tt.want {
				t.Errorf("ParseTime() = %s, want %d minutes", got.Format("15:04"), tt.want)
			}
			if ValidateTimeFormat(tt.timeStr) == tt.wantErr {
				t.Errorf("ValidateTimeFormat(%q) = %v, want %v", tt.timeStr, !tt.wantErr, tt.wantErr)
			}
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC),
			want: time.Date(2024, time.May, 1, 19, 30, 0, 0, time.UTC),
		},
		{
			name: "exactly now rolls to tomorrow",
			now:  time.Date(2024, time.May, 1, 19, 30, 0, 0, time.UTC),
			want: time.Date(2024, time.May, 2, 19, 30, 0, 0, time.UTC),
		},
		{
			name: "end of month",
			now:  time.Date(2024, time.May, 31, 21, 0, 0, 0, time.UTC),
			want: time.Date(2024, time.June, 1, 19, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextOccurrence(tt.now, 19, 30); !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.want)
			}
		})
	}
}
