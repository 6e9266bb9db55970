package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"idabot/core/logger"
)

// CallbackStore persists callback records for inline-keyboard tokens.
type CallbackStore interface {
	Create(ctx context.Context, rec CallbackRecord) error
	Resolve(ctx context.Context, token string) (CallbackRecord, error)
	DeleteByCorrelation(ctx context.Context, correlationKey string) (int64, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type pgCallbackStore struct {
	db *sqlx.DB
}

// NewCallbackStore returns the Postgres-backed callback store.
func NewCallbackStore(db *sqlx.DB) CallbackStore {
	return &pgCallbackStore{db: db}
}

func (s *pgCallbackStore) Create(ctx context.Context, rec CallbackRecord) error {
	payload, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal callback data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO callback_records (token, command, step, action, data, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		rec.Token, rec.Command, rec.Step, rec.Action, string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert callback record: %w", err)
	}
	return nil
}

func (s *pgCallbackStore) Resolve(ctx context.Context, token string) (CallbackRecord, error) {
	var row struct {
		Token     string    `db:"token"`
		Command   string    `db:"command"`
		Step      string    `db:"step"`
		Action    string    `db:"action"`
		Data      []byte    `db:"data"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT token, command, step, action, data, created_at
		FROM callback_records WHERE token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return CallbackRecord{}, ErrCallbackExpired
	}
	if err != nil {
		return CallbackRecord{}, fmt.Errorf("select callback record: %w", err)
	}

	rec := CallbackRecord{
		Token:     row.Token,
		Command:   row.Command,
		Step:      row.Step,
		Action:    row.Action,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &rec.Data); err != nil {
			return CallbackRecord{}, fmt.Errorf("unmarshal callback data: %w", err)
		}
	}
	return rec, nil
}

// DeleteByCorrelation removes every record minted during one command run,
// identified by the correlation key inside the JSONB data column. An
// empty key deletes nothing.
func (s *pgCallbackStore) DeleteByCorrelation(ctx context.Context, correlationKey string) (int64, error) {
	if correlationKey == "" {
		return 0, nil
	}
	filter, err := json.Marshal(map[string]string{"correlation_key": correlationKey})
	if err != nil {
		return 0, fmt.Errorf("marshal correlation filter: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM callback_records WHERE data @> $1`, string(filter))
	if err != nil {
		return 0, fmt.Errorf("delete callback records: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteOlderThan sweeps records abandoned mid-conversation.
func (s *pgCallbackStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM callback_records WHERE created_at < $1`, time.Now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("sweep callback records: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.DB.Debug("callback sweep done",
		slog.String("event", "db.callbacks.sweep"),
		slog.Int64("deleted", n),
		slog.Duration("max_age", age),
	)
	return n, nil
}
