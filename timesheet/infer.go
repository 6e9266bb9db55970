package timesheet

import (
	"sort"
	"time"
)

// WeekdayRule maps a weekday to an item type. A matching weekday rule wins
// over any time-range rule for every span on that day.
type WeekdayRule struct {
	ID      int64        `db:"id"`
	Weekday time.Weekday `db:"weekday"`
	Type    ItemType     `db:"item_type"`
}

// TimeRangeRule maps a daily clock interval to an item type. Start and End
// are minutes from midnight; End <= Start means the interval wraps past
// midnight (an evening window on day N plus a morning window on day N+1).
type TimeRangeRule struct {
	ID    int64    `db:"id"`
	Start int      `db:"start_minute"`
	End   int      `db:"end_minute"`
	Type  ItemType `db:"item_type"`
}

// Wraps reports whether the rule's interval crosses midnight.
func (r TimeRangeRule) Wraps() bool { return r.End <= r.Start }

// Rules bundles the configured inference rules.
type Rules struct {
	Weekday   []WeekdayRule
	TimeRange []TimeRangeRule
}

// OverlappingTimeRanges returns pairs of time-range rules that cover a
// shared clock interval. Overlaps are legal and emit overlapping items
// with double-counted hours; callers may want to warn about them.
func (r Rules) OverlappingTimeRanges() [][2]TimeRangeRule {
	var out [][2]TimeRangeRule
	for i := 0; i < len(r.TimeRange); i++ {
		for j := i + 1; j < len(r.TimeRange); j++ {
			if rulesOverlap(r.TimeRange[i], r.TimeRange[j]) {
				out = append(out, [2]TimeRangeRule{r.TimeRange[i], r.TimeRange[j]})
			}
		}
	}
	return out
}

func rulesOverlap(a, b TimeRangeRule) bool {
	for _, wa := range a.windows() {
		for _, wb := range b.windows() {
			if wa.start < wb.end && wb.start < wa.end {
				return true
			}
		}
	}
	return false
}

type window struct{ start, end int }

// windows expands a rule into non-wrapping minute intervals within one day.
func (r TimeRangeRule) windows() []window {
	if r.Wraps() {
		out := []window{{r.Start, minutesPerDay}}
		if r.End > 0 {
			out = append(out, window{0, r.End})
		}
		return out
	}
	return []window{{r.Start, r.End}}
}

const minutesPerDay = 24 * 60

// SplitSpan splits a [start, end) work span into day-bounded, rule-typed
// items. Precedence per day: an explicit non-zero item type wins, then a
// matching weekday rule, then the time-range rules. Time outside every
// matched range is attributed to ItemOther so the span's wall-clock hours
// are fully accounted for. Hours are computed by subtraction, not by
// calendar-day counting.
func SplitSpan(start, end time.Time, explicit ItemType, description string, rules Rules) []Item {
	var items []Item
	if !start.Before(end) {
		return items
	}

	weekday := make(map[time.Weekday]ItemType, len(rules.Weekday))
	for _, r := range rules.Weekday {
		if _, ok := weekday[r.Weekday]; !ok {
			weekday[r.Weekday] = r.Type
		}
	}

	for day := dateOf(start); !day.After(dateOf(end)); day = day.AddDate(0, 0, 1) {
		dayStart := maxTime(day, start)
		dayEnd := minTime(day.AddDate(0, 0, 1), end)
		if !dayStart.Before(dayEnd) {
			continue
		}

		emit := func(segStart, segEnd time.Time, t ItemType) {
			items = append(items, Item{
				Type:        t,
				Date:        day,
				WorkedHours: segEnd.Sub(segStart).Hours(),
				Description: description,
			})
		}

		if explicit != 0 {
			emit(dayStart, dayEnd, explicit)
			continue
		}
		if t, ok := weekday[dayStart.Weekday()]; ok {
			emit(dayStart, dayEnd, t)
			continue
		}

		var covered []window
		for _, rule := range rules.TimeRange {
			for _, w := range rule.windows() {
				segStart := maxTime(day.Add(time.Duration(w.start)*time.Minute), dayStart)
				segEnd := minTime(day.Add(time.Duration(w.end)*time.Minute), dayEnd)
				if segStart.Before(segEnd) {
					emit(segStart, segEnd, rule.Type)
					covered = append(covered, window{minuteOf(day, segStart), minuteOf(day, segEnd)})
				}
			}
		}

		for _, gap := range uncovered(minuteOf(day, dayStart), minuteOf(day, dayEnd), covered) {
			emit(day.Add(time.Duration(gap.start)*time.Minute), day.Add(time.Duration(gap.end)*time.Minute), ItemOther)
		}
	}
	return items
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func minuteOf(day, t time.Time) int {
	return int(t.Sub(day) / time.Minute)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// uncovered subtracts the union of covered windows from [start, end).
func uncovered(start, end int, covered []window) []window {
	if len(covered) == 0 {
		return []window{{start, end}}
	}
	sorted := append([]window(nil), covered...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var gaps []window
	cursor := start
	for _, w := range sorted {
		if w.start > cursor {
			gaps = append(gaps, window{cursor, minInt(w.start, end)})
		}
		if w.end > cursor {
			cursor = w.end
		}
		if cursor >= end {
			return gaps
		}
	}
	if cursor < end {
		gaps = append(gaps, window{cursor, end})
	}
	return gaps
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
