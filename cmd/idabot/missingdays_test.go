package main

import (
	"context"
	"testing"
	"time"

	"idabot/store"
	"idabot/timesheet"
)

func newMissingDaysFixture() *store.MemoryTimesheetStore {
	sheets := store.NewMemoryTimesheetStore()
	sheets.Projects = []timesheet.Project{{
		ID:        1,
		Name:      "Acme",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}}
	sheets.Members[5] = []int64{1}
	sheets.UserNames[5] = "jdoe"
	sheets.Sheets[1] = &timesheet.Timesheet{
		ID:          1,
		UserID:      5,
		ProjectID:   1,
		ProjectName: "Acme",
		UserName:    "jdoe",
		Month:       3,
		Year:        2026,
		Status:      timesheet.StatusDraft,
	}
	return sheets
}

func TestMissingDaysTextListsWeekdaysOldestFirst(t *testing.T) {
	sheets := newMissingDaysFixture()
	sheets.SheetRows[1] = []timesheet.Item{{
		ID: 100, TimesheetID: 1, Type: timesheet.ItemStandard,
		Date:        time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		WorkedHours: 8,
	}}

	// Wednesday March 4th: Monday the 2nd and Wednesday the 4th are open,
	// Tuesday the 3rd is registered.
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	text, err := missingDaysText(context.Background(), sheets, 5, now)
	if err != nil {
		t.Fatalf("missingDaysText: %v", err)
	}
	want := "You have missing days in your timesheets:\nAcme: 2026-03-02\nAcme: 2026-03-04"
	if text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}
}

func TestMissingDaysTextEmptyWhenNothingMissing(t *testing.T) {
	sheets := newMissingDaysFixture()
	sheets.SheetRows[1] = []timesheet.Item{{
		ID: 100, TimesheetID: 1, Type: timesheet.ItemStandard,
		Date:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		WorkedHours: 8,
	}}

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	text, err := missingDaysText(context.Background(), sheets, 5, now)
	if err != nil {
		t.Fatalf("missingDaysText: %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty for a fully registered sheet", text)
	}
}
