package steps

import (
	"context"
	"testing"
	"time"

	"idabot/bot"
	"idabot/store"
)

func TestMonthGridMondayFirst(t *testing.T) {
	// March 2026 starts on a Sunday, so the first week is padding except
	// the last cell.
	grid := monthGrid(2026, time.March)
	if len(grid) != 6 {
		t.Fatalf("weeks = %d, want 6", len(grid))
	}
	if grid[0] != [7]int{0, 0, 0, 0, 0, 0, 1} {
		t.Fatalf("first week = %v", grid[0])
	}
	if grid[1] != [7]int{2, 3, 4, 5, 6, 7, 8} {
		t.Fatalf("second week = %v", grid[1])
	}
	last := grid[len(grid)-1]
	if last[1] != 31 {
		t.Fatalf("last week = %v, want 31 on Tuesday", last)
	}
}

func TestMonthGridFullWeeks(t *testing.T) {
	// June 2026 starts on a Monday and runs exactly 30 days.
	grid := monthGrid(2026, time.June)
	if grid[0] != [7]int{1, 2, 3, 4, 5, 6, 7} {
		t.Fatalf("first week = %v", grid[0])
	}
}

type calendarMessenger struct {
	text     string
	keyboard bot.Keyboard
}

func (m *calendarMessenger) SendMessage(_ context.Context, _ int64, text string, keyboard bot.Keyboard, _ int) error {
	m.text = text
	m.keyboard = keyboard
	return nil
}

func TestSelectDateRendersCalendar(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	msgr := &calendarMessenger{}
	reg := bot.NewRegistry()
	reg.MustRegister(&bot.Definition{
		Name:        "/pick",
		Description: "Pick a date.",
		Steps:       []bot.Step{SelectDate{Key: "start_date"}},
	})
	eng := &bot.Engine{
		Registry:   reg,
		Messenger:  msgr,
		Callbacks:  store.NewMemoryCallbackStore(),
		Sessions:   store.NewMemorySessionStore(),
		Timesheets: store.NewMemoryTimesheetStore(),
		Rules:      store.StaticRuleStore{},
		Clock:      func() time.Time { return now },
	}
	if err := eng.Sessions.Touch(context.Background(), 5); err != nil {
		t.Fatalf("register chat: %v", err)
	}

	if err := eng.Dispatch(context.Background(), bot.CommandUpdate(5, "/pick")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if msgr.text != "Select the start_date:" {
		t.Fatalf("prompt = %q", msgr.text)
	}

	header := msgr.keyboard[0]
	if len(header) != 3 || header[0].Text != "<<" || header[2].Text != ">>" {
		t.Fatalf("header row = %v", header)
	}
	if header[1].Text != "03/2026" || header[1].Token != bot.DoNothing {
		t.Fatalf("month label = %+v", header[1])
	}

	weekdays := msgr.keyboard[1]
	if weekdays[0].Text != "Mon" || weekdays[6].Text != "Sun" {
		t.Fatalf("weekday row = %v", weekdays)
	}
	for _, btn := range weekdays {
		if btn.Token != bot.DoNothing {
			t.Fatalf("weekday button %q is pressable", btn.Text)
		}
	}

	// Today is marked, every other day is the two-digit number.
	var sawToday bool
	for _, row := range msgr.keyboard[2:] {
		for _, btn := range row {
			if btn.Text == "(03)" {
				sawToday = true
			}
		}
	}
	if !sawToday {
		t.Fatal("today marker (03) not rendered")
	}
}
