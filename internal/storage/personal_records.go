package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/repforge/internal/models"
)

// replaceDerivedRecords swaps the stored record timeline for the touched
// exercises with a freshly derived one, inside the caller's transaction.
// Record IDs are deterministic, so replaying the same history lands on
// the same rows.
func replaceDerivedRecords(ctx context.Context, q querier, userID int, exerciseIDs []string, records []models.PersonalRecord) error {
	if len(exerciseIDs) == 0 {
		return nil
	}
	if _, err := q.Exec(ctx,
		`DELETE FROM personal_records WHERE user_id = $1 AND exercise_id = ANY($2)`,
		userID, exerciseIDs); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	query := `INSERT INTO personal_records (id, user_id, exercise_id, pr_type, value, achieved_at, set_id) VALUES `
	args := make([]any, 0, len(records)*7)
	valueStrings := make([]string, 0, len(records))

	for i, r := range records {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, r.ID, r.UserID, r.ExerciseID, r.Type, r.Value, r.AchievedAt, r.SetID)
	}

	query += strings.Join(valueStrings, ",")

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting records: %w", err)
	}
	return nil
}

// QueryRecords retrieves a user's personal records, optionally filtered
// by exercise, newest first.
func (db *DB) QueryRecords(ctx context.Context, userID int, exerciseID string) ([]models.PersonalRecord, error) {
	query := `SELECT id, user_id, exercise_id, pr_type, value, achieved_at, set_id
		FROM personal_records WHERE user_id = $1`
	args := []any{userID}
	if exerciseID != "" {
		query += ` AND exercise_id = $2`
		args = append(args, exerciseID)
	}
	query += ` ORDER BY achieved_at DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var result []models.PersonalRecord
	for rows.Next() {
		var r models.PersonalRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExerciseID, &r.Type, &r.Value, &r.AchievedAt, &r.SetID); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// BestE1RMs returns each exercise's current best e1RM in pounds, feeding
// the recovery intensity factor.
func (db *DB) BestE1RMs(ctx context.Context, userID int) (map[string]float64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, MAX(value)
		 FROM personal_records
		 WHERE user_id = $1 AND pr_type = $2
		 GROUP BY exercise_id`,
		userID, models.PRTypeE1RM)
	if err != nil {
		return nil, fmt.Errorf("querying best e1RMs: %w", err)
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var exercise string
		var best float64
		if err := rows.Scan(&exercise, &best); err != nil {
			return nil, fmt.Errorf("scanning best e1RM: %w", err)
		}
		result[exercise] = best
	}
	return result, rows.Err()
}

// RecordCountSince counts records achieved at or after the given time,
// feeding quest and dungeon pr_count objectives on read paths.
func (db *DB) RecordCountSince(ctx context.Context, userID int, since time.Time) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM personal_records WHERE user_id = $1 AND achieved_at >= $2`,
		userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
