package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/jmoiron/sqlx"
)

// SessionStore persists per-chat conversation state. Get returns
// ErrUnknownChat for chats that never talked to the bot.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (Session, error)
	Touch(ctx context.Context, chatID int64) error
	Arm(ctx context.Context, chatID int64, w Waiting) error
	Disarm(ctx context.Context, chatID int64) error
	ListChats(ctx context.Context) ([]int64, error)

	// WithChatLock serializes fn against other holders of the same chat's
	// lock. Updates for one chat must not interleave mid-transition.
	WithChatLock(ctx context.Context, chatID int64, fn func(ctx context.Context) error) error
}

type pgSessionStore struct {
	db *sqlx.DB
}

// NewSessionStore returns the Postgres-backed session store.
func NewSessionStore(db *sqlx.DB) SessionStore {
	return &pgSessionStore{db: db}
}

func (s *pgSessionStore) Get(ctx context.Context, chatID int64) (Session, error) {
	var row struct {
		ChatID       int64        `db:"chat_id"`
		WaitingToken string       `db:"waiting_token"`
		WaitingField string       `db:"waiting_field"`
		UpdatedAt    sql.NullTime `db:"updated_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT chat_id, COALESCE(waiting_token, '') AS waiting_token,
		       COALESCE(waiting_field, '') AS waiting_field, updated_at
		FROM sessions WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrUnknownChat
	}
	if err != nil {
		return Session{}, fmt.Errorf("select session: %w", err)
	}
	sess := Session{
		ChatID:  row.ChatID,
		Waiting: Waiting{Token: row.WaitingToken, FieldKey: row.WaitingField},
	}
	if row.UpdatedAt.Valid {
		sess.UpdatedAt = row.UpdatedAt.Time
	}
	return sess, nil
}

// Touch creates the session row if missing and bumps its timestamp.
func (s *pgSessionStore) Touch(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (chat_id, updated_at) VALUES ($1, NOW())
		ON CONFLICT (chat_id) DO UPDATE SET updated_at = NOW()`, chatID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *pgSessionStore) Arm(ctx context.Context, chatID int64, w Waiting) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET waiting_token = $2, waiting_field = $3, updated_at = NOW()
		WHERE chat_id = $1`, chatID, w.Token, w.FieldKey)
	if err != nil {
		return fmt.Errorf("arm session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnknownChat
	}
	return nil
}

func (s *pgSessionStore) Disarm(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET waiting_token = NULL, waiting_field = NULL, updated_at = NOW()
		WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("disarm session: %w", err)
	}
	return nil
}

func (s *pgSessionStore) ListChats(ctx context.Context) ([]int64, error) {
	var chats []int64
	if err := s.db.SelectContext(ctx, &chats,
		`SELECT chat_id FROM sessions ORDER BY chat_id`); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// WithChatLock runs fn inside a transaction holding an advisory lock on
// the chat, so concurrent updates for one chat execute one at a time.
func (s *pgSessionStore) WithChatLock(ctx context.Context, chatID int64, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chat lock tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock($1)`, chatLockKey(chatID)); err != nil {
		return fmt.Errorf("acquire chat lock: %w", err)
	}
	if err := fn(ctx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chat lock tx: %w", err)
	}
	return nil
}

func chatLockKey(chatID int64) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "chat:%d", chatID)
	return int64(h.Sum64())
}
