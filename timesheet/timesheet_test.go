package timesheet

import (
	"strings"
	"testing"
	"time"
)

func sampleSheet(status Status) Timesheet {
	return Timesheet{
		ID:          1,
		ProjectName: "Acme",
		UserName:    "jdoe",
		Month:       3,
		Year:        2026,
		Status:      status,
	}
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestTimesheetName(t *testing.T) {
	got := sampleSheet(StatusDraft).Name()
	if got != "Acme - jdoe - 03/2026" {
		t.Fatalf("Name() = %q", got)
	}
}

func TestItemString(t *testing.T) {
	it := Item{Type: ItemStandard, Date: day(5), WorkedHours: 7.5, Description: "support"}
	if got := it.String(); got != "2026-03-05 - Standard - 7.5 hours (support)" {
		t.Errorf("String() = %q", got)
	}
	it.Description = ""
	if got := it.String(); got != "2026-03-05 - Standard - 7.5 hours" {
		t.Errorf("String() without description = %q", got)
	}
}

func TestMissingDaysSkipsWeekendsAndRegistered(t *testing.T) {
	// March 2026: the 1st is a Sunday, weekdays start on the 2nd.
	items := []Item{
		{Type: ItemStandard, Date: day(2)},
		{Type: ItemStandard, Date: day(4)},
		{Type: ItemNight, Date: day(3)}, // non-standard, does not count
	}
	now := time.Date(2026, time.March, 6, 12, 0, 0, 0, time.UTC)

	missing := MissingDays(sampleSheet(StatusDraft), items, now)

	want := []int{3, 5, 6}
	if len(missing) != len(want) {
		t.Fatalf("got %d missing days %v, want %v", len(missing), missing, want)
	}
	for i, d := range missing {
		if d.Day() != want[i] {
			t.Errorf("missing[%d] = %d, want %d", i, d.Day(), want[i])
		}
	}
}

func TestMissingDaysPastMonthFullRange(t *testing.T) {
	// Viewed from April, the whole of March is in range.
	now := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)
	missing := MissingDays(sampleSheet(StatusDraft), nil, now)

	if len(missing) != 22 {
		t.Fatalf("got %d missing days, want 22 weekdays in March 2026", len(missing))
	}
	for _, d := range missing {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("weekend day %v reported missing", d)
		}
	}
}

func TestMissingDaysCompletedTimesheet(t *testing.T) {
	now := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)
	if missing := MissingDays(sampleSheet(StatusCompleted), nil, now); missing != nil {
		t.Fatalf("completed timesheet reported %v missing days", missing)
	}
}

func TestOverviewTotals(t *testing.T) {
	items := []Item{
		{Type: ItemStandard, Date: day(3), WorkedHours: 8},
		{Type: ItemStandard, Date: day(2), WorkedHours: 8},
		{Type: ItemNight, Date: day(2), WorkedHours: 1},
	}

	got := Overview(sampleSheet(StatusDraft), items, false)

	want := strings.Join([]string{
		"Totals for Acme - jdoe - 03/2026:",
		"- 16 hours (Standard)",
		"- 1 hour (Night)",
	}, "\n")
	if got != want {
		t.Errorf("Overview() = %q, want %q", got, want)
	}
}

func TestOverviewWithDetails(t *testing.T) {
	items := []Item{
		{Type: ItemNight, Date: day(2), WorkedHours: 2},
		{Type: ItemStandard, Date: day(3), WorkedHours: 8, Description: "dev"},
	}

	got := Overview(sampleSheet(StatusDraft), items, true)

	// Details are sorted by type then date and precede the totals block.
	want := strings.Join([]string{
		"Detailed Timesheet Overview for Acme - jdoe - 03/2026:",
		"2026-03-03 - Standard - 8 hours (dev)",
		"2026-03-02 - Night - 2 hours",
		"",
		"Totals for Acme - jdoe - 03/2026:",
		"- 8 hours (Standard)",
		"- 2 hours (Night)",
	}, "\n")
	if got != want {
		t.Errorf("Overview() = %q, want %q", got, want)
	}
}

func TestHolidaysOverview(t *testing.T) {
	items := []Item{
		{Type: ItemStandard, Date: day(10), WorkedHours: 0},
		{Type: ItemStandard, Date: day(4), WorkedHours: 0},
		{Type: ItemStandard, Date: day(5), WorkedHours: 8},
		{Type: ItemOther, Date: day(6), WorkedHours: 0},
	}

	got := HolidaysOverview(sampleSheet(StatusDraft), items)

	want := strings.Join([]string{
		"Holidays Overview for Acme - jdoe - 03/2026:",
		"2026-03-04",
		"2026-03-10",
	}, "\n")
	if got != want {
		t.Errorf("HolidaysOverview() = %q, want %q", got, want)
	}
}
