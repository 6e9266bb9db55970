package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// MessageStore is the audit log of raw inbound updates. Every webhook
// request is recorded before handling; failures are noted afterwards.
type MessageStore interface {
	RecordUpdate(ctx context.Context, raw []byte) (int64, error)
	SetError(ctx context.Context, id int64, handlerErr error) error
}

type pgMessageStore struct {
	db *sqlx.DB
}

// NewMessageStore returns the Postgres-backed audit log.
func NewMessageStore(db *sqlx.DB) MessageStore {
	return &pgMessageStore{db: db}
}

func (s *pgMessageStore) RecordUpdate(ctx context.Context, raw []byte) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO messages (payload, received_at) VALUES ($1, NOW())
		RETURNING id`, string(raw))
	if err != nil {
		return 0, fmt.Errorf("record update: %w", err)
	}
	return id, nil
}

func (s *pgMessageStore) SetError(ctx context.Context, id int64, handlerErr error) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET error = $2 WHERE id = $1`, id, handlerErr.Error())
	if err != nil {
		return fmt.Errorf("set message error: %w", err)
	}
	return nil
}
