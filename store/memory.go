package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"idabot/timesheet"
)

// memoryCallbackStore is the in-memory CallbackStore for tests and
// development.
type memoryCallbackStore struct {
	mu      sync.RWMutex
	records map[string]CallbackRecord
}

// NewMemoryCallbackStore constructs an in-memory CallbackStore.
func NewMemoryCallbackStore() CallbackStore {
	return &memoryCallbackStore{records: make(map[string]CallbackRecord)}
}

func (m *memoryCallbackStore) Create(_ context.Context, rec CallbackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.records[rec.Token] = rec
	return nil
}

func (m *memoryCallbackStore) Resolve(_ context.Context, token string) (CallbackRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[token]
	if !ok {
		return CallbackRecord{}, ErrCallbackExpired
	}
	return rec, nil
}

func (m *memoryCallbackStore) DeleteByCorrelation(_ context.Context, correlationKey string) (int64, error) {
	if correlationKey == "" {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, rec := range m.records {
		if key, _ := rec.Data["correlation_key"].(string); key == correlationKey {
			delete(m.records, token)
			n++
		}
	}
	return n, nil
}

func (m *memoryCallbackStore) DeleteOlderThan(_ context.Context, age time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-age)
	var n int64
	for token, rec := range m.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(m.records, token)
			n++
		}
	}
	return n, nil
}

// memorySessionStore is the in-memory SessionStore. WithChatLock relies on
// the store mutex instead of an advisory lock.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    sync.Map
}

// NewMemorySessionStore constructs an in-memory SessionStore.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[int64]*Session)}
}

func (m *memorySessionStore) Get(_ context.Context, chatID int64) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[chatID]
	if !ok {
		return Session{}, ErrUnknownChat
	}
	return *sess, nil
}

func (m *memorySessionStore) Touch(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[chatID]
	if !ok {
		sess = &Session{ChatID: chatID}
		m.sessions[chatID] = sess
	}
	sess.UpdatedAt = time.Now()
	return nil
}

func (m *memorySessionStore) Arm(_ context.Context, chatID int64, w Waiting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[chatID]
	if !ok {
		return ErrUnknownChat
	}
	sess.Waiting = w
	sess.UpdatedAt = time.Now()
	return nil
}

func (m *memorySessionStore) Disarm(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[chatID]; ok {
		sess.Waiting = Waiting{}
		sess.UpdatedAt = time.Now()
	}
	return nil
}

func (m *memorySessionStore) ListChats(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chats := make([]int64, 0, len(m.sessions))
	for id := range m.sessions {
		chats = append(chats, id)
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats, nil
}

func (m *memorySessionStore) WithChatLock(ctx context.Context, chatID int64, fn func(ctx context.Context) error) error {
	lock, _ := m.locks.LoadOrStore(chatID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	return fn(ctx)
}

// MemoryTimesheetStore is the in-memory TimesheetStore. Fixtures are
// assembled directly on the exported fields.
type MemoryTimesheetStore struct {
	mu        sync.Mutex
	nextID    int64
	Projects  []timesheet.Project
	Members   map[int64][]int64 // userID -> project IDs
	Sheets    map[int64]*timesheet.Timesheet
	SheetRows map[int64][]timesheet.Item
	UserNames map[int64]string
}

// NewMemoryTimesheetStore constructs an empty in-memory TimesheetStore.
func NewMemoryTimesheetStore() *MemoryTimesheetStore {
	return &MemoryTimesheetStore{
		Members:   make(map[int64][]int64),
		Sheets:    make(map[int64]*timesheet.Timesheet),
		SheetRows: make(map[int64][]timesheet.Item),
		UserNames: make(map[int64]string),
	}
}

func (m *MemoryTimesheetStore) RegisterUser(_ context.Context, userID int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserNames[userID] = name
	return nil
}

func (m *MemoryTimesheetStore) ActiveProjects(_ context.Context, userID int64, at time.Time) ([]timesheet.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member := make(map[int64]bool)
	for _, id := range m.Members[userID] {
		member[id] = true
	}
	var out []timesheet.Project
	for _, p := range m.Projects {
		if member[p.ID] && !at.Before(p.StartDate) && !at.After(p.EndDate) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryTimesheetStore) GetOrCreateDraft(_ context.Context, userID, projectID int64, month, year int) (timesheet.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Sheets {
		if t.UserID == userID && t.ProjectID == projectID && t.Month == month && t.Year == year {
			return *t, nil
		}
	}
	m.nextID++
	t := &timesheet.Timesheet{
		ID:        m.nextID,
		UserID:    userID,
		ProjectID: projectID,
		UserName:  m.UserNames[userID],
		Month:     month,
		Year:      year,
		Status:    timesheet.StatusDraft,
	}
	for _, p := range m.Projects {
		if p.ID == projectID {
			t.ProjectName = p.Name
		}
	}
	m.Sheets[t.ID] = t
	return *t, nil
}

func (m *MemoryTimesheetStore) DraftTimesheets(ctx context.Context, userID int64) ([]timesheet.Timesheet, error) {
	all, err := m.Timesheets(ctx, userID)
	if err != nil {
		return nil, err
	}
	var drafts []timesheet.Timesheet
	for _, t := range all {
		if t.Status == timesheet.StatusDraft {
			drafts = append(drafts, t)
		}
	}
	return drafts, nil
}

func (m *MemoryTimesheetStore) Timesheets(_ context.Context, userID int64) ([]timesheet.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []timesheet.Timesheet
	for _, t := range m.Sheets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (m *MemoryTimesheetStore) GetTimesheet(_ context.Context, id int64) (timesheet.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Sheets[id]
	if !ok {
		return timesheet.Timesheet{}, fmt.Errorf("timesheet %d: %w", id, sql.ErrNoRows)
	}
	return *t, nil
}

func (m *MemoryTimesheetStore) Items(_ context.Context, timesheetID int64) ([]timesheet.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := append([]timesheet.Item(nil), m.SheetRows[timesheetID]...)
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].Type < items[j].Type
	})
	return items, nil
}

func (m *MemoryTimesheetStore) CreateItems(_ context.Context, timesheetID int64, items []timesheet.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireDraft(timesheetID); err != nil {
		return err
	}
	for _, item := range items {
		m.nextID++
		item.ID = m.nextID
		item.TimesheetID = timesheetID
		m.SheetRows[timesheetID] = append(m.SheetRows[timesheetID], item)
	}
	return nil
}

func (m *MemoryTimesheetStore) UpdateItemHours(_ context.Context, timesheetID int64, date time.Time, hours float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireDraft(timesheetID); err != nil {
		return err
	}
	rows := m.SheetRows[timesheetID]
	for i := range rows {
		if rows[i].Type == timesheet.ItemStandard && rows[i].Date.Equal(date) {
			rows[i].WorkedHours = hours
			return nil
		}
	}
	m.nextID++
	m.SheetRows[timesheetID] = append(rows, timesheet.Item{
		ID:          m.nextID,
		TimesheetID: timesheetID,
		Type:        timesheet.ItemStandard,
		Date:        date,
		WorkedHours: hours,
	})
	return nil
}

func (m *MemoryTimesheetStore) MarkCompleted(_ context.Context, timesheetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.requireDraft(timesheetID); err != nil {
		return err
	}
	m.Sheets[timesheetID].Status = timesheet.StatusCompleted
	return nil
}

func (m *MemoryTimesheetStore) requireDraft(timesheetID int64) error {
	t, ok := m.Sheets[timesheetID]
	if !ok || t.Status != timesheet.StatusDraft {
		return ErrTimesheetNotDraft
	}
	return nil
}

// StaticRuleStore serves a fixed rule set.
type StaticRuleStore struct {
	Set timesheet.Rules
}

func (s StaticRuleStore) Rules(context.Context) (timesheet.Rules, error) {
	return s.Set, nil
}

// MemoryMessageStore is the in-memory audit log.
type MemoryMessageStore struct {
	mu      sync.Mutex
	nextID  int64
	Records []MessageRecord
}

// MessageRecord is one audited update in the in-memory log.
type MessageRecord struct {
	ID      int64
	Payload []byte
	Error   string
}

// NewMemoryMessageStore constructs an empty in-memory audit log.
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{}
}

func (m *MemoryMessageStore) RecordUpdate(_ context.Context, raw []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.Records = append(m.Records, MessageRecord{ID: m.nextID, Payload: append([]byte(nil), raw...)})
	return m.nextID, nil
}

func (m *MemoryMessageStore) SetError(_ context.Context, id int64, handlerErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Records {
		if m.Records[i].ID == id {
			m.Records[i].Error = handlerErr.Error()
		}
	}
	return nil
}
