package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
)

// insertSession writes a session row and batch-inserts its sets inside
// the caller's transaction. Returns false when the session ID already
// exists, which makes retried submissions no-ops.
func insertSession(ctx context.Context, q querier, session models.WorkoutSession) (bool, error) {
	tag, err := q.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, date, duration_sec, session_rpe)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT DO NOTHING`,
		session.ID, session.UserID, session.Date, session.DurationSec, session.SessionRPE)
	if err != nil {
		return false, fmt.Errorf("inserting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	var sets []models.Set
	var exercises []string
	for _, ex := range session.Exercises {
		for _, s := range ex.Sets {
			if s.ExerciseID == "" {
				s.ExerciseID = ex.ExerciseID
			}
			if s.PerformedAt.IsZero() {
				s.PerformedAt = session.Date
			}
			sets = append(sets, s)
			exercises = append(exercises, ex.ExerciseID)
		}
	}
	if len(sets) == 0 {
		return true, nil
	}

	query := `INSERT INTO workout_sets (id, session_id, user_id, exercise_id, weight, unit,
		reps, rpe, rir, is_warmup, is_failure, performed_at) VALUES `
	args := make([]any, 0, len(sets)*12)
	valueStrings := make([]string, 0, len(sets))

	for i, s := range sets {
		base := i * 12
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9, base+10, base+11, base+12,
		))
		args = append(args, s.ID, session.ID, session.UserID, exercises[i], s.Weight, s.Unit,
			s.Reps, s.RPE, s.RIR, s.IsWarmup, s.IsFailure, s.PerformedAt)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return false, fmt.Errorf("inserting workout sets: %w", err)
	}
	return true, nil
}

// QuerySessionsSince retrieves a user's sessions with their sets, newest
// last, starting at the given time.
func (db *DB) QuerySessionsSince(ctx context.Context, userID int, since time.Time) ([]models.WorkoutSession, error) {
	return querySessionsSince(ctx, db.Pool, userID, since)
}

func querySessionsSince(ctx context.Context, q querier, userID int, since time.Time) ([]models.WorkoutSession, error) {
	rows, err := q.Query(ctx,
		`SELECT id, user_id, date, duration_sec, session_rpe
		 FROM workout_sessions
		 WHERE user_id = $1 AND date >= $2
		 ORDER BY date ASC`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.WorkoutSession
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var s models.WorkoutSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date, &s.DurationSec, &s.SessionRPE); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	setRows, err := q.Query(ctx,
		`SELECT session_id, id, exercise_id, weight, unit, reps, rpe, rir,
		 is_warmup, is_failure, performed_at
		 FROM workout_sets
		 WHERE user_id = $1 AND performed_at >= $2
		 ORDER BY performed_at ASC`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var sessionID uuid.UUID
		var s models.Set
		if err := setRows.Scan(&sessionID, &s.ID, &s.ExerciseID, &s.Weight, &s.Unit,
			&s.Reps, &s.RPE, &s.RIR, &s.IsWarmup, &s.IsFailure, &s.PerformedAt); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		i, ok := index[sessionID]
		if !ok {
			continue
		}
		attachSet(&sessions[i], s)
	}
	return sessions, setRows.Err()
}

// attachSet appends a set to the session's slot for its exercise,
// creating the slot on first sight.
func attachSet(session *models.WorkoutSession, s models.Set) {
	for i := range session.Exercises {
		if session.Exercises[i].ExerciseID == s.ExerciseID {
			session.Exercises[i].Sets = append(session.Exercises[i].Sets, s)
			return
		}
	}
	session.Exercises = append(session.Exercises, models.SessionExercise{
		ExerciseID: s.ExerciseID,
		Sets:       []models.Set{s},
	})
}

// SetsForExercise retrieves a user's full set history for one exercise,
// oldest first.
func (db *DB) SetsForExercise(ctx context.Context, userID int, exerciseID string) ([]models.Set, error) {
	return setsForExercises(ctx, db.Pool, userID, []string{exerciseID})
}

func setsForExercises(ctx context.Context, q querier, userID int, exerciseIDs []string) ([]models.Set, error) {
	if len(exerciseIDs) == 0 {
		return nil, nil
	}
	rows, err := q.Query(ctx,
		`SELECT id, exercise_id, weight, unit, reps, rpe, rir, is_warmup, is_failure, performed_at
		 FROM workout_sets
		 WHERE user_id = $1 AND exercise_id = ANY($2)
		 ORDER BY performed_at ASC`,
		userID, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	return scanSets(rows)
}

// SetsSince retrieves every set a user logged at or after the given
// time, feeding the recovery scan window.
func (db *DB) SetsSince(ctx context.Context, userID int, since time.Time) ([]models.Set, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercise_id, weight, unit, reps, rpe, rir, is_warmup, is_failure, performed_at
		 FROM workout_sets
		 WHERE user_id = $1 AND performed_at >= $2
		 ORDER BY performed_at ASC`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	return scanSets(rows)
}

func scanSets(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.Set, error) {
	var result []models.Set
	for rows.Next() {
		var s models.Set
		if err := rows.Scan(&s.ID, &s.ExerciseID, &s.Weight, &s.Unit, &s.Reps,
			&s.RPE, &s.RIR, &s.IsWarmup, &s.IsFailure, &s.PerformedAt); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
