package steps

import (
	"context"

	"idabot/bot"
	"idabot/timesheet"
)

// ShowOverview renders the requested overview of the picked timesheet.
type ShowOverview struct {
	Base
}

// Name implements bot.Step.
func (s ShowOverview) Name() string { return s.name("ShowOverview") }

// Handle implements bot.Step.
func (s ShowOverview) Handle(ctx context.Context, r *bot.Runtime) error {
	data := r.Bag()

	sheet, err := r.Timesheets().GetTimesheet(ctx, data.Int64("timesheet_id"))
	if err != nil || sheet.UserID != r.UserID() {
		if replyErr := r.Reply(ctx, "The selected timesheet does not exist.", nil); replyErr != nil {
			return replyErr
		}
		return r.Finish(ctx)
	}
	items, err := r.Timesheets().Items(ctx, sheet.ID)
	if err != nil {
		return err
	}

	var text string
	switch data.String("overview_type") {
	case OverviewHolidays:
		text = timesheet.HolidaysOverview(sheet, items)
	case OverviewSummary:
		text = timesheet.Overview(sheet, items, false)
	case OverviewDetailed:
		text = timesheet.Overview(sheet, items, true)
	default:
		if replyErr := r.Reply(ctx, "Invalid overview type selected.", nil); replyErr != nil {
			return replyErr
		}
		return r.Finish(ctx)
	}

	if err := r.Reply(ctx, text, nil); err != nil {
		return err
	}
	return r.NextStep(ctx)
}
