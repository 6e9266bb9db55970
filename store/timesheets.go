package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"idabot/timesheet"
)

// TimesheetStore is the persistence surface the bot commands work against.
type TimesheetStore interface {
	RegisterUser(ctx context.Context, userID int64, name string) error
	ActiveProjects(ctx context.Context, userID int64, at time.Time) ([]timesheet.Project, error)
	GetOrCreateDraft(ctx context.Context, userID, projectID int64, month, year int) (timesheet.Timesheet, error)
	DraftTimesheets(ctx context.Context, userID int64) ([]timesheet.Timesheet, error)
	Timesheets(ctx context.Context, userID int64) ([]timesheet.Timesheet, error)
	GetTimesheet(ctx context.Context, id int64) (timesheet.Timesheet, error)
	Items(ctx context.Context, timesheetID int64) ([]timesheet.Item, error)
	CreateItems(ctx context.Context, timesheetID int64, items []timesheet.Item) error
	UpdateItemHours(ctx context.Context, timesheetID int64, date time.Time, hours float64) error
	MarkCompleted(ctx context.Context, timesheetID int64) error
}

type pgTimesheetStore struct {
	db *sqlx.DB
}

// NewTimesheetStore returns the Postgres-backed timesheet store.
func NewTimesheetStore(db *sqlx.DB) TimesheetStore {
	return &pgTimesheetStore{db: db}
}

// RegisterUser upserts the user row keyed by the Telegram chat id.
func (s *pgTimesheetStore) RegisterUser(ctx context.Context, userID int64, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, userID, name)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

// ActiveProjects lists projects the user is assigned to whose date range
// covers the given moment.
func (s *pgTimesheetStore) ActiveProjects(ctx context.Context, userID int64, at time.Time) ([]timesheet.Project, error) {
	var projects []timesheet.Project
	err := s.db.SelectContext(ctx, &projects, `
		SELECT p.id, p.name, p.start_date, p.end_date
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = $1 AND p.start_date <= $2 AND p.end_date >= $2
		ORDER BY p.name`, userID, at)
	if err != nil {
		return nil, fmt.Errorf("select active projects: %w", err)
	}
	return projects, nil
}

func (s *pgTimesheetStore) GetOrCreateDraft(ctx context.Context, userID, projectID int64, month, year int) (timesheet.Timesheet, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timesheets (user_id, project_id, month, year, status)
		VALUES ($1, $2, $3, $4, 'draft')
		ON CONFLICT (user_id, project_id, month, year) DO NOTHING`,
		userID, projectID, month, year)
	if err != nil {
		return timesheet.Timesheet{}, fmt.Errorf("insert draft timesheet: %w", err)
	}

	var t timesheet.Timesheet
	err = s.db.GetContext(ctx, &t, selectTimesheet+`
		WHERE t.user_id = $1 AND t.project_id = $2 AND t.month = $3 AND t.year = $4`,
		userID, projectID, month, year)
	if err != nil {
		return timesheet.Timesheet{}, fmt.Errorf("select draft timesheet: %w", err)
	}
	return t, nil
}

const selectTimesheet = `
	SELECT t.id, t.user_id, t.project_id, p.name AS project_name,
	       u.name AS user_name, t.month, t.year, t.status
	FROM timesheets t
	JOIN projects p ON p.id = t.project_id
	JOIN users u ON u.id = t.user_id`

func (s *pgTimesheetStore) DraftTimesheets(ctx context.Context, userID int64) ([]timesheet.Timesheet, error) {
	var sheets []timesheet.Timesheet
	err := s.db.SelectContext(ctx, &sheets, selectTimesheet+`
		WHERE t.user_id = $1 AND t.status = 'draft'
		ORDER BY t.year DESC, t.month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select draft timesheets: %w", err)
	}
	return sheets, nil
}

func (s *pgTimesheetStore) Timesheets(ctx context.Context, userID int64) ([]timesheet.Timesheet, error) {
	var sheets []timesheet.Timesheet
	err := s.db.SelectContext(ctx, &sheets, selectTimesheet+`
		WHERE t.user_id = $1
		ORDER BY t.year DESC, t.month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select timesheets: %w", err)
	}
	return sheets, nil
}

func (s *pgTimesheetStore) GetTimesheet(ctx context.Context, id int64) (timesheet.Timesheet, error) {
	var t timesheet.Timesheet
	err := s.db.GetContext(ctx, &t, selectTimesheet+` WHERE t.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return timesheet.Timesheet{}, fmt.Errorf("timesheet %d: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return timesheet.Timesheet{}, fmt.Errorf("select timesheet: %w", err)
	}
	return t, nil
}

func (s *pgTimesheetStore) Items(ctx context.Context, timesheetID int64) ([]timesheet.Item, error) {
	var items []timesheet.Item
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, timesheet_id, item_type, date, worked_hours, description
		FROM timesheet_items WHERE timesheet_id = $1
		ORDER BY date, item_type`, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("select timesheet items: %w", err)
	}
	return items, nil
}

// CreateItems inserts the items in one transaction after verifying the
// timesheet is still a draft.
func (s *pgTimesheetStore) CreateItems(ctx context.Context, timesheetID int64, items []timesheet.Item) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin items tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireDraft(ctx, tx, timesheetID); err != nil {
		return err
	}
	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO timesheet_items (timesheet_id, item_type, date, worked_hours, description)
			VALUES ($1, $2, $3, $4, $5)`,
			timesheetID, item.Type, item.Date, item.WorkedHours, item.Description)
		if err != nil {
			return fmt.Errorf("insert timesheet item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit items tx: %w", err)
	}
	return nil
}

// UpdateItemHours overwrites the hours of the standard item on the given
// date, creating it when no item exists yet.
func (s *pgTimesheetStore) UpdateItemHours(ctx context.Context, timesheetID int64, date time.Time, hours float64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireDraft(ctx, tx, timesheetID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE timesheet_items SET worked_hours = $3
		WHERE timesheet_id = $1 AND date = $2 AND item_type = $4`,
		timesheetID, date, hours, timesheet.ItemStandard)
	if err != nil {
		return fmt.Errorf("update item hours: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO timesheet_items (timesheet_id, item_type, date, worked_hours, description)
			VALUES ($1, $4, $2, $3, '')`,
			timesheetID, date, hours, timesheet.ItemStandard)
		if err != nil {
			return fmt.Errorf("insert item on update: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update tx: %w", err)
	}
	return nil
}

func (s *pgTimesheetStore) MarkCompleted(ctx context.Context, timesheetID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE timesheets SET status = 'completed'
		WHERE id = $1 AND status = 'draft'`, timesheetID)
	if err != nil {
		return fmt.Errorf("mark timesheet completed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTimesheetNotDraft
	}
	return nil
}

func requireDraft(ctx context.Context, tx *sqlx.Tx, timesheetID int64) error {
	var status string
	err := tx.GetContext(ctx, &status,
		`SELECT status FROM timesheets WHERE id = $1 FOR UPDATE`, timesheetID)
	if err != nil {
		return fmt.Errorf("select timesheet status: %w", err)
	}
	if status != string(timesheet.StatusDraft) {
		return ErrTimesheetNotDraft
	}
	return nil
}
