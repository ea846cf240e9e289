package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
)

// insertXPEvents batch-inserts audit trail entries inside the caller's
// transaction.
func insertXPEvents(ctx context.Context, q querier, events []models.XPEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := `INSERT INTO xp_events (id, user_id, source, amount, detail, created_at) VALUES `
	args := make([]any, 0, len(events)*6)
	valueStrings := make([]string, 0, len(events))

	for i, e := range events {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args, e.ID, e.UserID, e.Source, e.Amount, e.Detail, e.CreatedAt)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting xp events: %w", err)
	}
	return nil
}

// QueryXPEvents retrieves a user's XP audit trail in a time range,
// newest first.
func (db *DB) QueryXPEvents(ctx context.Context, userID int, start, end time.Time) ([]models.XPEvent, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, source, amount, COALESCE(detail, ''), created_at
		 FROM xp_events
		 WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at DESC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying xp events: %w", err)
	}
	defer rows.Close()

	var result []models.XPEvent
	for rows.Next() {
		var e models.XPEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Source, &e.Amount, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning xp event: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
