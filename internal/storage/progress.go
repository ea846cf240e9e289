package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/repforge/internal/models"
	"github.com/jackc/pgx/v5"
)

// GetProgress retrieves a user's ledger state. A user with no estate yet
// gets the zero progress with their ID filled in.
func (db *DB) GetProgress(ctx context.Context, userID int) (models.UserProgress, error) {
	return getProgress(ctx, db.Pool, userID, false)
}

// getProgress loads the progress row, taking a row lock when forUpdate
// is set. Every XP-mutating path locks the row first so per-user awards
// serialize.
func getProgress(ctx context.Context, q querier, userID int, forUpdate bool) (models.UserProgress, error) {
	p := models.UserProgress{UserID: userID}
	query := `SELECT total_xp, current_streak, longest_streak, last_workout_date
		FROM user_progress WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := q.QueryRow(ctx, query, userID).Scan(
		&p.TotalXP, &p.CurrentStreak, &p.LongestStreak, &p.LastWorkoutDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("querying progress: %w", err)
	}
	return p, nil
}

// lockProgress inserts the row if absent and locks it. INSERT first so
// two concurrent first-ever submissions for the same user still
// serialize on the lock.
func lockProgress(ctx context.Context, q querier, userID int) (models.UserProgress, error) {
	if _, err := q.Exec(ctx,
		`INSERT INTO user_progress (user_id) VALUES ($1) ON CONFLICT DO NOTHING`,
		userID); err != nil {
		return models.UserProgress{}, fmt.Errorf("seeding progress: %w", err)
	}
	return getProgress(ctx, q, userID, true)
}

func saveProgress(ctx context.Context, q querier, p models.UserProgress) error {
	_, err := q.Exec(ctx, `
		UPDATE user_progress SET
			total_xp = $2, current_streak = $3, longest_streak = $4,
			last_workout_date = $5, updated_at = NOW()
		WHERE user_id = $1
	`, p.UserID, p.TotalXP, p.CurrentStreak, p.LongestStreak, p.LastWorkoutDate)
	if err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}
