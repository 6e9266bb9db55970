package bot

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"9", 9 * time.Hour},
		{"09", 9 * time.Hour},
		{"17", 17 * time.Hour},
		{"930", 9*time.Hour + 30*time.Minute},
		{"1730", 17*time.Hour + 30*time.Minute},
		{"17:30", 17*time.Hour + 30*time.Minute},
		{"00:00", 0},
		{" 8 ", 8 * time.Hour},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseClockInvalid(t *testing.T) {
	for _, in := range []string{"99", "2460", "abc", "17:300"} {
		if _, err := ParseClock(in); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Errorf("ParseClock(%q): err = %v, want ErrInvalidTimeFormat", in, err)
		}
	}
}

func TestCombineDateClock(t *testing.T) {
	date := time.Date(2026, time.March, 3, 23, 59, 0, 0, time.UTC)
	got := CombineDateClock(date, 9*time.Hour+30*time.Minute)
	want := time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CombineDateClock = %v, want %v", got, want)
	}
}
