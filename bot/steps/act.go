package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"idabot/bot"
	"idabot/core/logger"
	"idabot/store"
	"idabot/timesheet"
)

// CombineDateTime folds a picked date and a typed clock time into one
// datetime under TimeKey. Invalid time input re-prompts and keeps the
// waiting marker armed, so the user can simply retype.
type CombineDateTime struct {
	Base
	DateKey string
	TimeKey string
}

// Name implements bot.Step.
func (s CombineDateTime) Name() string { return s.name("CombineDateTime") }

// Handle implements bot.Step.
func (s CombineDateTime) Handle(ctx context.Context, r *bot.Runtime) error {
	data := r.Bag()
	date, err := time.Parse(bot.DateLayout, data.String(s.DateKey))
	if err != nil {
		return &bot.DomainError{Message: "missing date for " + s.DateKey, Err: err}
	}
	clock, err := bot.ParseClock(data.String(s.TimeKey))
	if err != nil {
		if sendErr := r.Send(ctx, "Invalid time format. Please use HH:MM."); sendErr != nil {
			return sendErr
		}
		return err
	}

	combined := bot.CombineDateClock(date, clock)
	next := data.With(s.TimeKey, combined.Format(bot.DateTimeLayout))
	delete(next, s.DateKey)
	r.SetBag(next)
	return r.NextStep(ctx)
}

type registerWorkData struct {
	StartDate   string  `json:"start_date"`
	ProjectID   int64   `json:"project_id"`
	ProjectName string  `json:"project_name"`
	Duration    float64 `json:"duration"`
}

// RegisterWorkedHours writes the picked duration as a standard item on
// the draft timesheet of the picked day's month.
type RegisterWorkedHours struct {
	Base
}

// Name implements bot.Step.
func (s RegisterWorkedHours) Name() string { return s.name("RegisterWorkedHours") }

// Handle implements bot.Step.
func (s RegisterWorkedHours) Handle(ctx context.Context, r *bot.Runtime) error {
	var data registerWorkData
	if err := r.Bag().Decode(&data); err != nil {
		return err
	}
	msg, err := s.register(ctx, r, data)
	if err != nil {
		return err
	}
	if err := r.Reply(ctx, msg, nil); err != nil {
		return err
	}
	return r.NextStep(ctx)
}

func (s RegisterWorkedHours) register(ctx context.Context, r *bot.Runtime, data registerWorkData) (string, error) {
	date, err := time.Parse(bot.DateLayout, data.StartDate)
	if err != nil {
		return "", &bot.DomainError{Message: "missing start date", Err: err}
	}
	sheet, err := r.Timesheets().GetOrCreateDraft(ctx, r.UserID(), data.ProjectID, int(date.Month()), date.Year())
	if err != nil {
		return "", err
	}
	err = r.Timesheets().CreateItems(ctx, sheet.ID, []timesheet.Item{{
		Type:        timesheet.ItemStandard,
		Date:        date,
		WorkedHours: data.Duration,
	}})
	if errors.Is(err, store.ErrTimesheetNotDraft) {
		// The timesheet may have been completed while the user was
		// still answering prompts.
		return "The timesheet you are trying to register work for is in an invalid state. Contact your administrator.", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully registered %vh for %s on %s.", data.Duration, data.ProjectName, data.StartDate), nil
}

type editWorkData struct {
	StartDate   string  `json:"start_date"`
	ProjectName string  `json:"project_name"`
	TimesheetID int64   `json:"timesheet_id"`
	Duration    float64 `json:"duration"`
}

// EditWorkedHours overwrites the hours of an already registered day.
type EditWorkedHours struct {
	Base
}

// Name implements bot.Step.
func (s EditWorkedHours) Name() string { return s.name("EditWorkedHours") }

// Handle implements bot.Step.
func (s EditWorkedHours) Handle(ctx context.Context, r *bot.Runtime) error {
	var data editWorkData
	if err := r.Bag().Decode(&data); err != nil {
		return err
	}
	msg, err := s.edit(ctx, r, data)
	if err != nil {
		return err
	}
	if err := r.Reply(ctx, msg, nil); err != nil {
		return err
	}
	return r.NextStep(ctx)
}

func (s EditWorkedHours) edit(ctx context.Context, r *bot.Runtime, data editWorkData) (string, error) {
	date, err := time.Parse(bot.DateLayout, data.StartDate)
	if err != nil {
		return "", &bot.DomainError{Message: "missing start date", Err: err}
	}
	err = r.Timesheets().UpdateItemHours(ctx, data.TimesheetID, date, data.Duration)
	if errors.Is(err, store.ErrTimesheetNotDraft) {
		return "The timesheet you are trying to edit work for is in an invalid state. Contact your administrator.", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully edited %vh for %s on %s.", data.Duration, data.ProjectName, data.StartDate), nil
}

type markCompletedData struct {
	TimesheetID   int64  `json:"timesheet_id"`
	TimesheetName string `json:"timesheet_name"`
}

// MarkTimesheetCompleted transitions the picked timesheet to completed.
type MarkTimesheetCompleted struct {
	Base
}

// Name implements bot.Step.
func (s MarkTimesheetCompleted) Name() string { return s.name("MarkTimesheetCompleted") }

// Handle implements bot.Step.
func (s MarkTimesheetCompleted) Handle(ctx context.Context, r *bot.Runtime) error {
	var data markCompletedData
	if err := r.Bag().Decode(&data); err != nil {
		return err
	}

	msg := fmt.Sprintf("Successfully marked the timesheet %s as completed.", data.TimesheetName)
	err := r.Timesheets().MarkCompleted(ctx, data.TimesheetID)
	if errors.Is(err, store.ErrTimesheetNotDraft) {
		msg = "The timesheet you are trying to complete is in an invalid state. Contact your administrator."
	} else if err != nil {
		return err
	}

	if err := r.Reply(ctx, msg, nil); err != nil {
		return err
	}
	return r.NextStep(ctx)
}

type insertItemsData struct {
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	ItemType      int    `json:"item_type"`
	ItemTypeLabel string `json:"item_type_label"`
	Description   string `json:"description"`
	ProjectID     int64  `json:"project_id"`
}

// InsertTimesheetItems splits the confirmed time span into day-bounded,
// rule-typed items and writes them to the draft timesheets of the months
// the span touches.
type InsertTimesheetItems struct {
	Base
}

// Name implements bot.Step.
func (s InsertTimesheetItems) Name() string { return s.name("InsertTimesheetItems") }

// Handle implements bot.Step.
func (s InsertTimesheetItems) Handle(ctx context.Context, r *bot.Runtime) error {
	var data insertItemsData
	if err := r.Bag().Decode(&data); err != nil {
		return err
	}
	msg, err := s.insert(ctx, r, data)
	if err != nil {
		return err
	}
	if err := r.Reply(ctx, msg, nil); err != nil {
		return err
	}
	return r.NextStep(ctx)
}

func (s InsertTimesheetItems) insert(ctx context.Context, r *bot.Runtime, data insertItemsData) (string, error) {
	start, err := time.Parse(bot.DateTimeLayout, data.StartTime)
	if err != nil {
		return "", &bot.DomainError{Message: "missing start time", Err: err}
	}
	end, err := time.Parse(bot.DateTimeLayout, data.EndTime)
	if err != nil {
		return "", &bot.DomainError{Message: "missing end time", Err: err}
	}

	rules, err := r.InferenceRules(ctx)
	if err != nil {
		return "", err
	}
	items := timesheet.SplitSpan(start, end, timesheet.ItemType(data.ItemType), data.Description, rules)

	// One batch per month so spans crossing a month boundary land on the
	// right timesheets.
	byMonth := make(map[[2]int][]timesheet.Item)
	for _, item := range items {
		key := [2]int{int(item.Date.Month()), item.Date.Year()}
		byMonth[key] = append(byMonth[key], item)
	}
	for key, batch := range byMonth {
		sheet, err := r.Timesheets().GetOrCreateDraft(ctx, r.UserID(), data.ProjectID, key[0], key[1])
		if err != nil {
			return "", err
		}
		if err := r.Timesheets().CreateItems(ctx, sheet.ID, batch); err != nil {
			if errors.Is(err, store.ErrTimesheetNotDraft) {
				return "The timesheet you are trying to register items for is in an invalid state. Contact your administrator.", nil
			}
			return "", err
		}
	}

	logger.Bot.Info("timesheet items inserted",
		slog.String("event", "bot.items.insert"),
		slog.Int64("chat_id", r.ChatID()),
		slog.Int("items", len(items)),
	)
	return fmt.Sprintf("%s registered from %s to %s with description: %s.",
		data.ItemTypeLabel, data.StartTime, data.EndTime, data.Description), nil
}
