// Package timesheet holds the hour-registration domain model and the pure
// calculations the bot steps rely on: missing-day detection, overview
// rendering, and item-type inference over time spans.
package timesheet

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status of a timesheet.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
)

// ItemType classifies a timesheet item.
type ItemType int

const (
	ItemStandard ItemType = 1
	ItemOnCall   ItemType = 2
	ItemNight    ItemType = 3
	ItemSaturday ItemType = 4
	ItemSunday   ItemType = 5
	ItemOther    ItemType = 6
)

// ItemTypes lists the selectable item types in display order.
func ItemTypes() []ItemType {
	return []ItemType{ItemStandard, ItemOnCall, ItemNight, ItemSaturday, ItemSunday, ItemOther}
}

// Label returns the human-readable name of the item type.
func (t ItemType) Label() string {
	switch t {
	case ItemStandard:
		return "Standard"
	case ItemOnCall:
		return "On call"
	case ItemNight:
		return "Night"
	case ItemSaturday:
		return "Saturday"
	case ItemSunday:
		return "Sunday"
	case ItemOther:
		return "Other"
	}
	return "Unknown"
}

// Project is the minimal project reference timesheets need.
type Project struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
}

func (p Project) String() string { return p.Name }

// Timesheet groups the items of one user on one project for one month.
type Timesheet struct {
	ID          int64  `db:"id"`
	UserID      int64  `db:"user_id"`
	ProjectID   int64  `db:"project_id"`
	ProjectName string `db:"project_name"`
	UserName    string `db:"user_name"`
	Month       int    `db:"month"`
	Year        int    `db:"year"`
	Status      Status `db:"status"`
}

// Name renders the "Project - User - MM/YYYY" display name.
func (t Timesheet) Name() string {
	return fmt.Sprintf("%s - %s - %02d/%d", t.ProjectName, t.UserName, t.Month, t.Year)
}

func (t Timesheet) String() string { return t.Name() }

// Item is a single registered unit of work.
type Item struct {
	ID          int64     `db:"id"`
	TimesheetID int64     `db:"timesheet_id"`
	Type        ItemType  `db:"item_type"`
	Date        time.Time `db:"date"`
	WorkedHours float64   `db:"worked_hours"`
	Description string    `db:"description"`
}

func (i Item) String() string {
	s := fmt.Sprintf("%s - %s - %v hours", i.Date.Format("2006-01-02"), i.Type.Label(), i.WorkedHours)
	if i.Description != "" {
		s = fmt.Sprintf("%s (%s)", s, i.Description)
	}
	return s
}

// MissingDays returns the weekday dates of the timesheet's month that have
// no standard item yet. For the current month the scan stops at today; a
// completed timesheet has no missing days by definition.
func MissingDays(t Timesheet, items []Item, now time.Time) []time.Time {
	if t.Status == StatusCompleted {
		return nil
	}

	lastDay := daysInMonth(t.Year, t.Month)
	if t.Month == int(now.Month()) && t.Year == now.Year() {
		lastDay = now.Day()
	}

	existing := make(map[int]bool, len(items))
	for _, item := range items {
		if item.Type == ItemStandard {
			existing[item.Date.Day()] = true
		}
	}

	var missing []time.Time
	for day := 1; day <= lastDay; day++ {
		if existing[day] {
			continue
		}
		d := time.Date(t.Year, time.Month(t.Month), day, 0, 0, 0, 0, time.UTC)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		missing = append(missing, d)
	}
	return missing
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Overview renders the totals per item type, preceded by the per-item
// detail lines when includeDetails is set.
func Overview(t Timesheet, items []Item, includeDetails bool) string {
	sorted := append([]Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Type != sorted[j].Type {
			return sorted[i].Type < sorted[j].Type
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	detailLines := []string{fmt.Sprintf("Detailed Timesheet Overview for %s:", t.Name())}
	totals := make(map[ItemType]float64)
	for _, item := range sorted {
		detailLines = append(detailLines, item.String())
		totals[item.Type] += item.WorkedHours
	}

	overviewLines := []string{fmt.Sprintf("Totals for %s:", t.Name())}
	for _, it := range ItemTypes() {
		total, ok := totals[it]
		if !ok {
			continue
		}
		unit := "hours"
		if total == 1 {
			unit = "hour"
		}
		overviewLines = append(overviewLines, fmt.Sprintf("- %v %s (%s)", total, unit, it.Label()))
	}

	overview := strings.Join(overviewLines, "\n")
	if !includeDetails {
		return overview
	}
	return strings.Join(detailLines, "\n") + "\n\n" + overview
}

// HolidaysOverview lists the dates registered as standard items with zero
// worked hours.
func HolidaysOverview(t Timesheet, items []Item) string {
	sorted := append([]Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	lines := []string{fmt.Sprintf("Holidays Overview for %s:", t.Name())}
	for _, item := range sorted {
		if item.Type == ItemStandard && item.WorkedHours == 0 {
			lines = append(lines, item.Date.Format("2006-01-02"))
		}
	}
	return strings.Join(lines, "\n")
}
