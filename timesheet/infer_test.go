package timesheet

import (
	"math"
	"testing"
	"time"
)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func totalHours(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += it.WorkedHours
	}
	return sum
}

func TestSplitSpanOvernightRule(t *testing.T) {
	rules := Rules{
		TimeRange: []TimeRangeRule{
			{Start: 19*60 + 30, End: 7 * 60, Type: ItemNight},
		},
	}
	day1 := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	items := SplitSpan(at(day1, 17, 30), at(day2, 8, 0), 0, "night shift", rules)

	if len(items) != 4 {
		t.Fatalf("got %d items, want 4: %+v", len(items), items)
	}
	if got := totalHours(items); math.Abs(got-14.5) > 1e-9 {
		t.Fatalf("total hours = %v, want 14.5", got)
	}

	want := []struct {
		date  time.Time
		typ   ItemType
		hours float64
	}{
		{day1, ItemNight, 4.5},
		{day1, ItemOther, 2},
		{day2, ItemNight, 7},
		{day2, ItemOther, 1},
	}
	// Night segments come before gap segments within each day.
	byKey := func(it Item) [2]int { return [2]int{it.Date.Day(), int(it.Type)} }
	seen := make(map[[2]int]float64)
	for _, it := range items {
		seen[byKey(it)] += it.WorkedHours
	}
	for _, w := range want {
		key := [2]int{w.date.Day(), int(w.typ)}
		if got := seen[key]; math.Abs(got-w.hours) > 1e-9 {
			t.Errorf("day %d type %s: got %v hours, want %v", w.date.Day(), w.typ.Label(), got, w.hours)
		}
	}
	for _, it := range items {
		if it.Description != "night shift" {
			t.Errorf("item description = %q, want %q", it.Description, "night shift")
		}
	}
}

func TestSplitSpanExplicitTypeWins(t *testing.T) {
	rules := Rules{
		Weekday:   []WeekdayRule{{Weekday: time.Saturday, Type: ItemSaturday}},
		TimeRange: []TimeRangeRule{{Start: 0, End: 24 * 60, Type: ItemStandard}},
	}
	sat := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)

	items := SplitSpan(at(sat, 9, 0), at(sat, 17, 0), ItemOnCall, "", rules)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Type != ItemOnCall {
		t.Errorf("type = %s, want %s", items[0].Type.Label(), ItemOnCall.Label())
	}
	if items[0].WorkedHours != 8 {
		t.Errorf("hours = %v, want 8", items[0].WorkedHours)
	}
}

func TestSplitSpanWeekdayRuleBeatsTimeRange(t *testing.T) {
	rules := Rules{
		Weekday:   []WeekdayRule{{Weekday: time.Sunday, Type: ItemSunday}},
		TimeRange: []TimeRangeRule{{Start: 8 * 60, End: 18 * 60, Type: ItemStandard}},
	}
	sun := time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)

	items := SplitSpan(at(sun, 10, 0), at(sun, 14, 0), 0, "", rules)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Type != ItemSunday {
		t.Errorf("type = %s, want %s", items[0].Type.Label(), ItemSunday.Label())
	}
	if items[0].WorkedHours != 4 {
		t.Errorf("hours = %v, want 4", items[0].WorkedHours)
	}
}

func TestSplitSpanWeekdayRuleAppliesPerDay(t *testing.T) {
	rules := Rules{
		Weekday:   []WeekdayRule{{Weekday: time.Sunday, Type: ItemSunday}},
		TimeRange: []TimeRangeRule{{Start: 0, End: 24 * 60, Type: ItemStandard}},
	}
	sun := time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)
	mon := sun.AddDate(0, 0, 1)

	items := SplitSpan(at(sun, 22, 0), at(mon, 2, 0), 0, "", rules)

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].Type != ItemSunday || items[0].WorkedHours != 2 {
		t.Errorf("sunday segment = %s/%vh, want %s/2h", items[0].Type.Label(), items[0].WorkedHours, ItemSunday.Label())
	}
	if items[1].Type != ItemStandard || items[1].WorkedHours != 2 {
		t.Errorf("monday segment = %s/%vh, want %s/2h", items[1].Type.Label(), items[1].WorkedHours, ItemStandard.Label())
	}
}

func TestSplitSpanGapWithoutRules(t *testing.T) {
	items := SplitSpan(
		time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 3, 12, 30, 0, 0, time.UTC),
		0, "", Rules{},
	)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Type != ItemOther || items[0].WorkedHours != 3.5 {
		t.Errorf("got %s/%vh, want %s/3.5h", items[0].Type.Label(), items[0].WorkedHours, ItemOther.Label())
	}
}

func TestSplitSpanEmptySpan(t *testing.T) {
	now := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	if items := SplitSpan(now, now, 0, "", Rules{}); len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
	if items := SplitSpan(now, now.Add(-time.Hour), 0, "", Rules{}); len(items) != 0 {
		t.Fatalf("reversed span: got %d items, want 0", len(items))
	}
}

func TestOverlappingTimeRanges(t *testing.T) {
	rules := Rules{TimeRange: []TimeRangeRule{
		{Start: 8 * 60, End: 16 * 60, Type: ItemStandard},
		{Start: 15 * 60, End: 20 * 60, Type: ItemOnCall},
		{Start: 21 * 60, End: 6 * 60, Type: ItemNight},
	}}
	pairs := rules.OverlappingTimeRanges()
	if len(pairs) != 1 {
		t.Fatalf("got %d overlapping pairs, want 1", len(pairs))
	}
	if pairs[0][0].Type != ItemStandard || pairs[0][1].Type != ItemOnCall {
		t.Errorf("unexpected pair: %+v", pairs[0])
	}
}

func TestOverlappingTimeRangesWrapped(t *testing.T) {
	rules := Rules{TimeRange: []TimeRangeRule{
		{Start: 22 * 60, End: 6 * 60, Type: ItemNight},
		{Start: 5 * 60, End: 9 * 60, Type: ItemStandard},
	}}
	if pairs := rules.OverlappingTimeRanges(); len(pairs) != 1 {
		t.Fatalf("got %d overlapping pairs, want 1", len(pairs))
	}
}
