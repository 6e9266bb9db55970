package steps

import (
	"context"
	"fmt"
	"time"

	"idabot/bot"
)

// SelectDate renders a month calendar for picking a date. The picked date
// lands in the bag under Key as an ISO date. InitialDateKey, when set and
// present in the bag, decides which month opens first; this lets an
// end-date picker open on the month of the start date.
type SelectDate struct {
	Base
	Key            string
	InitialDateKey string
}

// Name implements bot.Step.
func (s SelectDate) Name() string { return s.name("SelectDate") }

// Handle implements bot.Step.
func (s SelectDate) Handle(ctx context.Context, r *bot.Runtime) error {
	data := r.Bag()
	now := r.Now()
	display := s.displayMonth(data, now)

	var keyboard bot.Keyboard

	prevBtn, err := r.CurrentButton(ctx, "<<", data.With(s.Key, monthISO(display.AddDate(0, -1, 0))))
	if err != nil {
		return err
	}
	nextBtn, err := r.CurrentButton(ctx, ">>", data.With(s.Key, monthISO(display.AddDate(0, 1, 0))))
	if err != nil {
		return err
	}
	keyboard = keyboard.Row(
		prevBtn,
		bot.Button{Text: fmt.Sprintf("%02d/%d", display.Month(), display.Year()), Token: bot.DoNothing},
		nextBtn,
	)

	var weekdays []bot.Button
	for _, day := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		weekdays = append(weekdays, bot.Button{Text: day, Token: bot.DoNothing})
	}
	keyboard = keyboard.Row(weekdays...)

	for _, week := range monthGrid(display.Year(), display.Month()) {
		var row []bot.Button
		for _, day := range week {
			if day == 0 {
				row = append(row, bot.Button{Text: " ", Token: bot.DoNothing})
				continue
			}
			selected := time.Date(display.Year(), display.Month(), day, 0, 0, 0, 0, time.UTC)
			text := fmt.Sprintf("%02d", day)
			if sameDate(selected, now) {
				text = "(" + text + ")"
			}
			btn, err := r.NextButton(ctx, text, data.With(s.Key, selected.Format(bot.DateLayout)))
			if err != nil {
				return err
			}
			row = append(row, btn)
		}
		keyboard = keyboard.Row(row...)
	}

	keyboard, err = r.MaybeAddPreviousButton(ctx, keyboard, data)
	if err != nil {
		return err
	}
	return r.Reply(ctx, fmt.Sprintf("Select the %s:", s.Key), keyboard)
}

// displayMonth picks the month to render: the initial-date hint wins, then
// a previously picked value under Key, then the current month.
func (s SelectDate) displayMonth(data bot.Bag, now time.Time) time.Time {
	if s.InitialDateKey != "" {
		if t, ok := parseBagDate(data.String(s.InitialDateKey)); ok {
			return firstOfMonth(t)
		}
	}
	if t, ok := parseBagDate(data.String(s.Key)); ok {
		return firstOfMonth(t)
	}
	return firstOfMonth(now)
}

func parseBagDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{bot.DateLayout, bot.DateTimeLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthISO(t time.Time) string {
	return t.Format(bot.DateLayout)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// monthGrid lays the month out as Monday-first weeks, 0 for padding cells.
func monthGrid(year int, month time.Month) [][7]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	offset := (int(first.Weekday()) + 6) % 7 // Monday = 0

	var grid [][7]int
	week := [7]int{}
	col := offset
	for day := 1; day <= daysInMonth; day++ {
		week[col] = day
		col++
		if col == 7 {
			grid = append(grid, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		grid = append(grid, week)
	}
	return grid
}
