package store

import (
	"context"
	"fmt"

	"medivault/m/domain"
)

const logColumns = `id, COALESCE(action, '') AS action, COALESCE(table_name, '') AS table_name,
	COALESCE(record_id, 0) AS record_id, COALESCE(details, '') AS details,
	COALESCE(timestamp, '') AS timestamp`

// ListLogs returns activity rows, most recent first. limit <= 0 other than NoLimit means
// DefaultLogLimit.
func (s *Store) ListLogs(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	logs := []domain.ActivityLogEntry{}
	query := `SELECT ` + logColumns + ` FROM activity_log ORDER BY timestamp DESC, id DESC`
	var err error
	if limit == NoLimit {
		err = s.db.SelectContext(ctx, &logs, query)
	} else {
		if limit <= 0 {
			limit = DefaultLogLimit
		}
		err = s.db.SelectContext(ctx, &logs, query+` LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list activity log: %w", err)
	}
	return logs, nil
}

func (s *Store) LogsByTable(ctx context.Context, table string) ([]domain.ActivityLogEntry, error) {
	logs := []domain.ActivityLogEntry{}
	err := s.db.SelectContext(ctx, &logs, `SELECT `+logColumns+` FROM activity_log
		WHERE table_name = ? ORDER BY timestamp DESC, id DESC`, table)
	if err != nil {
		return nil, fmt.Errorf("list activity log for %s: %w", table, err)
	}
	return logs, nil
}

func (s *Store) LogsByAction(ctx context.Context, action string) ([]domain.ActivityLogEntry, error) {
	logs := []domain.ActivityLogEntry{}
	err := s.db.SelectContext(ctx, &logs, `SELECT `+logColumns+` FROM activity_log
		WHERE action = ? ORDER BY timestamp DESC, id DESC`, action)
	if err != nil {
		return nil, fmt.Errorf("list %s activity: %w", action, err)
	}
	return logs, nil
}

// ExpiredItems lists the expired_items history, newest first.
func (s *Store) ExpiredItems(ctx context.Context) ([]domain.ExpiredItem, error) {
	items := []domain.ExpiredItem{}
	err := s.db.SelectContext(ctx, &items, `SELECT id, COALESCE(batch_id, 0) AS batch_id,
			COALESCE(expired_on, '') AS expired_on, COALESCE(processed, 0) AS processed
		FROM expired_items ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expired items: %w", err)
	}
	return items, nil
}
