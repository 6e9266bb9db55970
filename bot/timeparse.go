package bot

import (
	"fmt"
	"strings"
	"time"
)

// Layouts for the date and datetime values stored in data bags.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// ParseClock normalizes shorthand time input and parses it as HH:MM.
//
//   - 1 or 2 digits are taken as the hour ("9" means 09:00).
//   - 3 or 4 digits are taken as HHMM ("930" means 09:30).
//   - Anything longer must already be HH:MM.
func ParseClock(input string) (time.Duration, error) {
	raw := strings.TrimSpace(input)
	var normalized string
	switch {
	case len(raw) <= 2:
		normalized = zfill(raw, 2) + ":00"
	case len(raw) <= 4:
		padded := zfill(raw, 4)
		normalized = padded[:2] + ":" + padded[2:]
	default:
		normalized = raw
	}

	t, err := time.Parse("15:04", normalized)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, input)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// CombineDateClock attaches a clock offset to a date.
func CombineDateClock(date time.Time, clock time.Duration) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()).Add(clock)
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
