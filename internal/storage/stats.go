package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about all stored training data.
type DataStats struct {
	TotalSessions int64             `json:"total_sessions"`
	TotalSets     int64             `json:"total_sets"`
	TotalRecords  int64             `json:"total_records"`
	TotalXPEvents int64             `json:"total_xp_events"`
	EarliestData  *time.Time        `json:"earliest_data"`
	LatestData    *time.Time        `json:"latest_data"`
	TopExercises  []ExerciseSetStat `json:"top_exercises"`
}

// ExerciseSetStat holds summary stats for a single exercise.
type ExerciseSetStat struct {
	ExerciseID string  `json:"exercise_id"`
	Sets       int64   `json:"sets"`
	TotalReps  int64   `json:"total_reps"`
	BestWeight float64 `json:"best_weight_lb"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_sets WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM personal_records WHERE user_id = $1`, userID,
	).Scan(&stats.TotalRecords)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM xp_events WHERE user_id = $1`, userID,
	).Scan(&stats.TotalXPEvents)
	if err != nil {
		return nil, fmt.Errorf("counting xp events: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT MIN(date), MAX(date)
		 FROM workout_sessions WHERE user_id = $1`, userID,
	).Scan(&stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("querying date range: %w", err)
	}

	// Most-trained exercises, working sets only
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, COUNT(*), COALESCE(SUM(reps), 0),
		        COALESCE(MAX(CASE WHEN unit = 'kg' THEN weight * 2.2046226218 ELSE weight END), 0)
		 FROM workout_sets
		 WHERE user_id = $1 AND NOT is_warmup
		 GROUP BY exercise_id
		 ORDER BY COUNT(*) DESC
		 LIMIT 10`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying top exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseSetStat
		if err := rows.Scan(&s.ExerciseID, &s.Sets, &s.TotalReps, &s.BestWeight); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.TopExercises = append(stats.TopExercises, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
