package steps

import (
	"context"
	"fmt"
	"sort"

	"idabot/bot"
	"idabot/timesheet"
)

const pageSize = 4

// SelectProject asks which active project the command applies to. A
// single active project is picked automatically without a prompt.
type SelectProject struct {
	Base
}

// Name implements bot.Step.
func (s SelectProject) Name() string { return s.name("SelectProject") }

// Handle implements bot.Step.
func (s SelectProject) Handle(ctx context.Context, r *bot.Runtime) error {
	projects, err := r.Timesheets().ActiveProjects(ctx, r.UserID(), r.Now())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		if err := r.Reply(ctx, "No active projects found. Please contact your administrator.", nil); err != nil {
			return err
		}
		return r.Finish(ctx)
	}

	data := r.Bag()
	if len(projects) == 1 {
		r.SetBag(data.With("project_id", projects[0].ID).With("project_name", projects[0].Name))
		return r.NextStep(ctx)
	}

	var keyboard bot.Keyboard
	for _, p := range projects {
		btn, err := r.NextButton(ctx, p.Name, data.With("project_id", p.ID).With("project_name", p.Name))
		if err != nil {
			return err
		}
		keyboard = keyboard.Row(btn)
	}
	keyboard, err = r.MaybeAddPreviousButton(ctx, keyboard, data)
	if err != nil {
		return err
	}
	return r.Reply(ctx, "Select a project:", keyboard)
}

// SelectTimesheet asks which timesheet the command applies to. Drafts
// only by default; IncludeCompleted widens the list for read-only flows.
// A single match is picked automatically.
type SelectTimesheet struct {
	Base
	IncludeCompleted bool
}

// Name implements bot.Step.
func (s SelectTimesheet) Name() string { return s.name("SelectTimesheet") }

// Handle implements bot.Step.
func (s SelectTimesheet) Handle(ctx context.Context, r *bot.Runtime) error {
	var (
		sheets []timesheet.Timesheet
		err    error
	)
	if s.IncludeCompleted {
		sheets, err = r.Timesheets().Timesheets(ctx, r.UserID())
	} else {
		sheets, err = r.Timesheets().DraftTimesheets(ctx, r.UserID())
	}
	if err != nil {
		return err
	}
	if len(sheets) == 0 {
		if err := r.Reply(ctx, "No timesheets found.", nil); err != nil {
			return err
		}
		return r.Finish(ctx)
	}

	data := r.Bag()
	if len(sheets) == 1 {
		r.SetBag(data.With("timesheet_id", sheets[0].ID).With("timesheet_name", sheets[0].Name()))
		return r.NextStep(ctx)
	}

	var keyboard bot.Keyboard
	for _, t := range sheets {
		btn, err := r.NextButton(ctx, t.Name(), data.With("timesheet_id", t.ID).With("timesheet_name", t.Name()))
		if err != nil {
			return err
		}
		keyboard = keyboard.Row(btn)
	}
	keyboard, err = r.MaybeAddPreviousButton(ctx, keyboard, data)
	if err != nil {
		return err
	}
	return r.Reply(ctx, "Select a timesheet:", keyboard)
}

// dayOption is one pick in a paginated day list.
type dayOption struct {
	Text string
	Bag  bot.Bag
}

// renderDayPage shows a page of day options with Back/Next pagination.
// The page number travels in the bag, so flipping pages reloads the same
// step with a different window.
func renderDayPage(ctx context.Context, r *bot.Runtime, options []dayOption) error {
	data := r.Bag()
	page := data.Int(bot.KeyPage)
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(options) {
		start = len(options)
	}

	var keyboard bot.Keyboard
	for _, opt := range options[start:min(end, len(options))] {
		btn, err := r.NextButton(ctx, opt.Text, opt.Bag)
		if err != nil {
			return err
		}
		keyboard = keyboard.Row(btn)
	}

	if page > 1 {
		btn, err := r.CurrentButton(ctx, "⬅️ Back", data.With(bot.KeyPage, page-1))
		if err != nil {
			return err
		}
		keyboard = keyboard.Row(btn)
	}
	if len(options) > end {
		btn, err := r.CurrentButton(ctx, "➡️ Next", data.With(bot.KeyPage, page+1))
		if err != nil {
			return err
		}
		keyboard = keyboard.Row(btn)
	}

	keyboard, err := r.MaybeAddPreviousButton(ctx, keyboard, data)
	if err != nil {
		return err
	}
	return r.Reply(ctx, "Select a day:", keyboard)
}

// SelectMissingDay lists the weekdays still missing a standard item
// across all of the user's draft timesheets, oldest first. A single
// missing day is picked automatically.
type SelectMissingDay struct {
	Base
}

// Name implements bot.Step.
func (s SelectMissingDay) Name() string { return s.name("SelectMissingDay") }

// Handle implements bot.Step.
func (s SelectMissingDay) Handle(ctx context.Context, r *bot.Runtime) error {
	drafts, err := r.Timesheets().DraftTimesheets(ctx, r.UserID())
	if err != nil {
		return err
	}

	data := r.Bag()
	var options []dayOption
	for _, t := range drafts {
		items, err := r.Timesheets().Items(ctx, t.ID)
		if err != nil {
			return err
		}
		for _, day := range timesheet.MissingDays(t, items, r.Now()) {
			options = append(options, dayOption{
				Text: fmt.Sprintf("%s: %s", t.ProjectName, day.Format(bot.DateLayout)),
				Bag: data.With("start_date", day.Format(bot.DateLayout)).
					With("project_id", t.ProjectID).
					With("project_name", t.ProjectName),
			})
		}
	}
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Bag.String("start_date") < options[j].Bag.String("start_date")
	})

	if len(options) == 0 {
		if err := r.Send(ctx, fmt.Sprintf("No days found. Unable to complete %s.", r.Command().Title)); err != nil {
			return err
		}
		return r.Finish(ctx)
	}
	if len(options) == 1 {
		r.SetBag(options[0].Bag)
		return r.NextStep(ctx)
	}
	return renderDayPage(ctx, r, options)
}

// SelectExistingDay lists days that already have a registered standard
// item across the user's draft timesheets, most recent first.
type SelectExistingDay struct {
	Base
}

// Name implements bot.Step.
func (s SelectExistingDay) Name() string { return s.name("SelectExistingDay") }

// Handle implements bot.Step.
func (s SelectExistingDay) Handle(ctx context.Context, r *bot.Runtime) error {
	drafts, err := r.Timesheets().DraftTimesheets(ctx, r.UserID())
	if err != nil {
		return err
	}

	data := r.Bag()
	var options []dayOption
	for _, t := range drafts {
		items, err := r.Timesheets().Items(ctx, t.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.Type != timesheet.ItemStandard {
				continue
			}
			date := item.Date.Format(bot.DateLayout)
			options = append(options, dayOption{
				Text: fmt.Sprintf("%s: %s (%vh)", t.ProjectName, date, item.WorkedHours),
				Bag: data.With("start_date", date).
					With("project_id", t.ProjectID).
					With("project_name", t.ProjectName).
					With("timesheet_id", t.ID),
			})
		}
	}
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Bag.String("start_date") > options[j].Bag.String("start_date")
	})

	if len(options) == 0 {
		if err := r.Send(ctx, fmt.Sprintf("No days found. Unable to complete %s.", r.Command().Title)); err != nil {
			return err
		}
		return r.Finish(ctx)
	}
	return renderDayPage(ctx, r, options)
}

// SelectItemType asks how the hours should be classified. The extra
// "Inferred" option (type 0) defers classification to the configured
// weekday and time-range rules.
type SelectItemType struct {
	Base
}

// Name implements bot.Step.
func (s SelectItemType) Name() string { return s.name("SelectItemType") }

// Handle implements bot.Step.
func (s SelectItemType) Handle(ctx context.Context, r *bot.Runtime) error {
	data := r.Bag()
	var keyboard bot.Keyboard
	for _, it := range timesheet.ItemTypes() {
		btn, err := r.NextButton(ctx, it.Label(),
			data.With("item_type", int(it)).With("item_type_label", it.Label()))
		if err != nil {
			return err
		}
		keyboard = keyboard.Row(btn)
	}
	inferred, err := r.NextButton(ctx, "Inferred",
		data.With("item_type", 0).With("item_type_label", "Inferred"))
	if err != nil {
		return err
	}
	keyboard = keyboard.Row(inferred)

	keyboard, err = r.MaybeAddPreviousButton(ctx, keyboard, data)
	if err != nil {
		return err
	}
	return r.Reply(ctx, "Select the item type:", keyboard)
}

// Overview type values stored in the bag by SelectOverviewType.
const (
	OverviewSummary  = "summary"
	OverviewDetailed = "detailed"
	OverviewHolidays = "holidays"
)

// SelectOverviewType asks which overview rendering the user wants.
type SelectOverviewType struct {
	Base
}

// Name implements bot.Step.
func (s SelectOverviewType) Name() string { return s.name("SelectOverviewType") }

// Handle implements bot.Step.
func (s SelectOverviewType) Handle(ctx context.Context, r *bot.Runtime) error {
	data := r.Bag()
	var keyboard bot.Keyboard
	for _, opt := range []struct{ text, value string }{
		{"Summary Overview", OverviewSummary},
		{"Detailed Overview", OverviewDetailed},
		{"Holidays Overview", OverviewHolidays},
	} {
		btn, err := r.NextButton(ctx, opt.text, data.With("overview_type", opt.value))
		if err != nil {
			return err
		}
		keyboard = keyboard.Row(btn)
	}
	keyboard, err := r.MaybeAddPreviousButton(ctx, keyboard, data)
	if err != nil {
		return err
	}
	return r.Reply(ctx, "Which type of overview would you like to see?", keyboard)
}

// SelectWorkedHours offers the preset durations for one day of work.
type SelectWorkedHours struct {
	Base
}

// Name implements bot.Step.
func (s SelectWorkedHours) Name() string { return s.name("SelectWorkedHours") }

// Handle implements bot.Step.
func (s SelectWorkedHours) Handle(ctx context.Context, r *bot.Runtime) error {
	data := r.Bag()
	var keyboard bot.Keyboard
	for _, opt := range []struct {
		text  string
		hours float64
	}{
		{"Full day (8h)", 8},
		{"Half day (4h)", 4},
		{"Holiday (0h)", 0},
	} {
		btn, err := r.NextButton(ctx, opt.text, data.With("duration", opt.hours))
		if err != nil {
			return err
		}
		keyboard = keyboard.Row(btn)
	}
	keyboard, err := r.MaybeAddPreviousButton(ctx, keyboard, data)
	if err != nil {
		return err
	}
	prompt := fmt.Sprintf("How many hours did you work on %s for %s:",
		data.String("start_date"), data.String("project_name"))
	return r.Reply(ctx, prompt, keyboard)
}
