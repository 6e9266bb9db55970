package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"idabot/core/logger"
	"idabot/timesheet"
)

// RuleStore loads the item-type inference rules.
type RuleStore interface {
	Rules(ctx context.Context) (timesheet.Rules, error)
}

type pgRuleStore struct {
	db *sqlx.DB
}

// NewRuleStore returns the Postgres-backed rule store.
func NewRuleStore(db *sqlx.DB) RuleStore {
	return &pgRuleStore{db: db}
}

// Rules loads both rule kinds. Overlapping time-range rules are allowed
// and double-count hours, so they are surfaced as a warning.
func (s *pgRuleStore) Rules(ctx context.Context) (timesheet.Rules, error) {
	var rules timesheet.Rules
	err := s.db.SelectContext(ctx, &rules.Weekday, `
		SELECT id, weekday, item_type FROM weekday_rules ORDER BY weekday`)
	if err != nil {
		return timesheet.Rules{}, fmt.Errorf("select weekday rules: %w", err)
	}
	err = s.db.SelectContext(ctx, &rules.TimeRange, `
		SELECT id, start_minute, end_minute, item_type
		FROM time_range_rules ORDER BY start_minute`)
	if err != nil {
		return timesheet.Rules{}, fmt.Errorf("select time range rules: %w", err)
	}

	for _, pair := range rules.OverlappingTimeRanges() {
		logger.DB.Warn("time range rules overlap",
			slog.String("event", "db.rules.overlap"),
			slog.Int64("rule_a", pair[0].ID),
			slog.Int64("rule_b", pair[1].ID),
		)
	}
	return rules, nil
}
