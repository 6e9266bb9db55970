// Package commands defines the bot's conversational commands by
// assembling the generic steps into ordered flows.
package commands

import (
	"idabot/bot"
	"idabot/bot/steps"
)

// RegisterAll registers every command on the registry. It is called once
// at startup and panics on definition errors, which are programming
// mistakes caught before the first update arrives.
func RegisterAll(r *bot.Registry) {
	r.MustRegister(RegisterWork())
	r.MustRegister(RegisterOvertime())
	r.MustRegister(CompleteTimesheet())
	r.MustRegister(EditWork())
	r.MustRegister(RequestOverview())
}

// RegisterWork fills in a preset duration for a day that has no hours
// yet.
func RegisterWork() *bot.Definition {
	return &bot.Definition{
		Name:        "/registerwork",
		Title:       "RegisterWork",
		Description: "Register working hours for a specific day on a specific project.",
		Steps: []bot.Step{
			steps.SelectMissingDay{},
			steps.SelectWorkedHours{Base: steps.Base{Back: 1}},
			steps.RegisterWorkedHours{},
		},
	}
}

// RegisterOvertime records an arbitrary time span, splitting it into
// typed items per day via the inference rules.
func RegisterOvertime() *bot.Definition {
	return &bot.Definition{
		Name:        "/registerovertime",
		Title:       "RegisterOvertime",
		Description: "Register overtime for a specific day on a specific project.",
		Steps: []bot.Step{
			steps.SelectProject{},
			steps.SelectDate{Key: "start_date", Base: steps.Base{Back: 1}},
			steps.WaitForTime{Key: "start_time", DateKey: "start_date"},
			steps.CombineDateTime{DateKey: "start_date", TimeKey: "start_time"},
			steps.SelectDate{
				Key:            "end_date",
				InitialDateKey: "start_time",
				Base:           steps.Base{UniqueID: "SelectEndDate", Back: 3},
			},
			steps.WaitForTime{
				Key:     "end_time",
				DateKey: "end_date",
				Base:    steps.Base{UniqueID: "WaitForEndTime"},
			},
			steps.CombineDateTime{
				DateKey: "end_date",
				TimeKey: "end_time",
				Base:    steps.Base{UniqueID: "CombineEndDateTime"},
			},
			// Back jump targets SelectEndDate: the combine steps consume
			// their date key, so re-entering mid-flow must restart from a
			// date picker.
			steps.WaitForDescription{Base: steps.Base{Back: 3}},
			steps.SelectItemType{Base: steps.Base{Back: 1}},
			steps.Confirm{Base: steps.Base{Back: 1}},
			steps.InsertTimesheetItems{},
		},
	}
}

// CompleteTimesheet marks a draft timesheet as completed.
func CompleteTimesheet() *bot.Definition {
	return &bot.Definition{
		Name:        "/completetimesheet",
		Title:       "CompleteTimesheet",
		Description: "Mark a timesheet as completed",
		Steps: []bot.Step{
			steps.SelectTimesheet{},
			steps.Confirm{Base: steps.Base{Back: 1}},
			steps.MarkTimesheetCompleted{},
		},
	}
}

// EditWork changes the hours of an already registered day.
func EditWork() *bot.Definition {
	return &bot.Definition{
		Name:        "/editwork",
		Title:       "EditWork",
		Description: "Edit previously registered working hours",
		Steps: []bot.Step{
			steps.SelectExistingDay{},
			steps.SelectWorkedHours{Base: steps.Base{Back: 1}},
			steps.EditWorkedHours{},
		},
	}
}

// RequestOverview renders a summary, detailed, or holidays view of any of
// the user's timesheets, drafts and completed alike.
func RequestOverview() *bot.Definition {
	return &bot.Definition{
		Name:        "/requestoverview",
		Title:       "RequestOverview",
		Description: "Request an overview of a timesheet and its items.",
		Steps: []bot.Step{
			steps.SelectTimesheet{IncludeCompleted: true},
			steps.SelectOverviewType{Base: steps.Base{Back: 1}},
			steps.ShowOverview{Base: steps.Base{Back: 1}},
		},
	}
}
