package age

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestCalculator_Age(t *testing.T) {
	// 2026-10-15 is a Thursday.
	now := date(2026, 10, 15)
	holidays := NewHolidays(date(2026, 10, 12))

	tests := []struct {
		name     string
		strategy Strategy
		ref      time.Time
		want     int
	}{
		{name: "calendar same day", strategy: Calendar, ref: now, want: 0},
		{name: "calendar three days", strategy: Calendar, ref: date(2026, 10, 12), want: 3},
		{name: "calendar across month", strategy: Calendar, ref: date(2026, 9, 30), want: 15},
		{name: "calendar future", strategy: Calendar, ref: date(2026, 10, 18), want: -3},
		{name: "weekday within week", strategy: Weekday, ref: date(2026, 10, 12), want: 3},
		{name: "weekday over weekend", strategy: Weekday, ref: date(2026, 10, 9), want: 4},
		{name: "weekday from saturday", strategy: Weekday, ref: date(2026, 10, 10), want: 4},
		{name: "weekday from sunday", strategy: Weekday, ref: date(2026, 10, 11), want: 4},
		{name: "weekday two weeks", strategy: Weekday, ref: date(2026, 10, 1), want: 10},
		{name: "weekday future", strategy: Weekday, ref: date(2026, 10, 19), want: -2},
		{name: "business skips holiday", strategy: Business, ref: date(2026, 10, 9), want: 3},
		{name: "business holiday is reference", strategy: Business, ref: date(2026, 10, 12), want: 3},
		{name: "business no holiday in range", strategy: Business, ref: date(2026, 10, 13), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCalculator(tt.strategy, holidays)
			if got := c.Age(tt.ref, now); got != tt.want {
				t.Errorf("Age() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCalculator_ExcludedDaysOnlyReduce(t *testing.T) {
	now := date(2026, 10, 15)
	holidays := NewHolidays(date(2026, 10, 5), date(2026, 9, 7), date(2026, 10, 14))
	cal := NewCalculator(Calendar, holidays)
	wd := NewCalculator(Weekday, holidays)
	biz := NewCalculator(Business, holidays)

	for offset := -20; offset <= 60; offset++ {
		ref := now.AddDate(0, 0, -offset)
		c, w, b := cal.Age(ref, now), wd.Age(ref, now), biz.Age(ref, now)
		if offset >= 0 && !(b <= w && w <= c) {
			t.Errorf("offset %d: business %d, weekday %d, calendar %d not ordered", offset, b, w, c)
		}
		if offset < 0 && (c > 0 || w > 0 || b > 0) {
			t.Errorf("offset %d: future reference gave positive age (%d, %d, %d)", offset, c, w, b)
		}
	}
}

func TestCalculator_IgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 5, 0, 0, time.UTC)
	ref := time.Date(2026, 10, 14, 23, 55, 0, 0, time.UTC)
	if got := NewCalculator(Calendar, Holidays{}).Age(ref, now); got != 1 {
		t.Errorf("Age() = %d, want 1", got)
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		weekday  bool
		business bool
		want     Strategy
		wantErr  bool
	}{
		{name: "default", want: Calendar},
		{name: "weekday", weekday: true, want: Weekday},
		{name: "business", business: true, want: Business},
		{name: "both", weekday: true, business: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.weekday, tt.business, Calendar)
			if tt.wantErr {
				if !errors.Is(err, ErrConflictingStrategies) {
					t.Fatalf("Select() error = %v, want ErrConflictingStrategies", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Select() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": Calendar, "Weekday": Weekday, " business ": Business} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseStrategy("lunar"); err == nil {
		t.Error("ParseStrategy(lunar) expected error")
	}
}

func TestParseHolidays(t *testing.T) {
	input := `# company holidays
2026-12-25 Christmas

2026-12-26
  2027-01-01   New year
`
	h, err := ParseHolidays(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseHolidays() error = %v", err)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	if !h.Contains(time.Date(2026, 12, 25, 18, 0, 0, 0, time.UTC)) {
		t.Error("Contains(2026-12-25) = false")
	}
	if h.Contains(date(2026, 12, 24)) {
		t.Error("Contains(2026-12-24) = true")
	}

	if _, err := ParseHolidays(strings.NewReader("25/12/2026\n")); err == nil {
		t.Error("ParseHolidays() expected error for malformed date")
	}
}

func TestLoadHolidays(t *testing.T) {
	t.Run("missing file is empty", func(t *testing.T) {
		h, err := LoadHolidays(filepath.Join(t.TempDir(), "special-days.txt"))
		if err != nil {
			t.Fatalf("LoadHolidays() error = %v", err)
		}
		if h.Len() != 0 {
			t.Errorf("Len() = %d, want 0", h.Len())
		}
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "special-days.txt")
		if err := os.WriteFile(path, []byte("2026-10-12\n"), 0644); err != nil {
			t.Fatal(err)
		}
		h, err := LoadHolidays(path)
		if err != nil {
			t.Fatalf("LoadHolidays() error = %v", err)
		}
		if !h.Contains(date(2026, 10, 12)) {
			t.Error("Contains(2026-10-12) = false")
		}
	})
}

func TestStrategy_Label(t *testing.T) {
	if Calendar.Label() != "calendar days" || Weekday.Label() != "week days" || Business.Label() != "business days" {
		t.Error("unexpected strategy labels")
	}
}
