// Package store persists the bot's conversational state: callback records
// keyed by opaque tokens, per-chat sessions with their waiting-for marker,
// the timesheet data itself, the inference rules, and the raw update audit
// log. Postgres implementations back production; in-memory implementations
// back tests.
package store

import (
	"errors"
	"time"
)

var (
	// ErrCallbackExpired is returned when a token no longer resolves,
	// typically because its correlation group was swept after finish.
	ErrCallbackExpired = errors.New("callback expired")

	// ErrUnknownChat is returned when no session exists for a chat.
	ErrUnknownChat = errors.New("unknown chat")

	// ErrTimesheetNotDraft rejects writes to a completed timesheet.
	ErrTimesheetNotDraft = errors.New("timesheet is not a draft")
)

// CallbackRecord is the durable payload behind one inline-keyboard token.
// Telegram callback data is limited to 64 bytes, so only the token goes
// over the wire and the rest lives here.
type CallbackRecord struct {
	Token     string         `db:"token"`
	Command   string         `db:"command"`
	Step      string         `db:"step"`
	Action    string         `db:"action"`
	Data      map[string]any `db:"-"`
	CreatedAt time.Time      `db:"created_at"`
}

// Waiting marks a chat as expecting a free-text reply. Token resolves to
// the callback record to replay once the reply arrives; FieldKey names the
// data-bag key the reply text is stored under.
type Waiting struct {
	Token    string `db:"waiting_token"`
	FieldKey string `db:"waiting_field"`
}

// Armed reports whether the marker is set.
func (w Waiting) Armed() bool { return w.Token != "" }

// Session is the per-chat conversation state.
type Session struct {
	ChatID    int64     `db:"chat_id"`
	Waiting   Waiting   `db:"-"`
	UpdatedAt time.Time `db:"updated_at"`
}
