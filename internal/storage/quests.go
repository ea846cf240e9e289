package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a quest or dungeon lookup misses.
var ErrNotFound = errors.New("not found")

const questColumns = `id, user_id, template_id, name, kind, COALESCE(exercise_id, ''),
	target_value, progress, xp_reward, status, rotation_date, claimed_at`

// QuestsForRotation retrieves a user's quest instances for one rotation day.
func (db *DB) QuestsForRotation(ctx context.Context, userID int, rotationDay time.Time) ([]models.Quest, error) {
	return questsForRotation(ctx, db.Pool, userID, rotationDay)
}

func questsForRotation(ctx context.Context, q querier, userID int, rotationDay time.Time) ([]models.Quest, error) {
	rows, err := q.Query(ctx,
		`SELECT `+questColumns+` FROM quest_instances
		 WHERE user_id = $1 AND rotation_date = $2
		 ORDER BY template_id`,
		userID, rotationDay)
	if err != nil {
		return nil, fmt.Errorf("querying quests: %w", err)
	}
	defer rows.Close()

	var result []models.Quest
	for rows.Next() {
		quest, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, quest)
	}
	return result, rows.Err()
}

// GetQuest retrieves one quest instance by ID.
func (db *DB) GetQuest(ctx context.Context, userID int, id uuid.UUID) (models.Quest, error) {
	return getQuest(ctx, db.Pool, userID, id)
}

func getQuest(ctx context.Context, q querier, userID int, id uuid.UUID) (models.Quest, error) {
	row := q.QueryRow(ctx,
		`SELECT `+questColumns+` FROM quest_instances WHERE user_id = $1 AND id = $2`,
		userID, id)
	quest, err := scanQuest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return quest, fmt.Errorf("quest %s: %w", id, ErrNotFound)
	}
	return quest, err
}

func scanQuest(row pgx.Row) (models.Quest, error) {
	var quest models.Quest
	err := row.Scan(&quest.ID, &quest.UserID, &quest.TemplateID, &quest.Name, &quest.Kind,
		&quest.ExerciseID, &quest.Target, &quest.Progress, &quest.XPReward,
		&quest.Status, &quest.RotationDate, &quest.ClaimedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("scanning quest: %w", err)
	}
	return quest, err
}

// upsertQuests writes quest instances. Instance IDs are deterministic
// per (user, template, rotation day), so regeneration is idempotent and
// a claimed instance is never overwritten backwards.
func upsertQuests(ctx context.Context, q querier, quests []models.Quest) error {
	for _, quest := range quests {
		_, err := q.Exec(ctx, `
			INSERT INTO quest_instances (id, user_id, template_id, name, kind, exercise_id,
				target_value, progress, xp_reward, status, rotation_date, claimed_at)
			VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,$9,$10,$11,$12)
			ON CONFLICT (id) DO UPDATE SET
				progress = $8, status = $10, claimed_at = $12
			WHERE quest_instances.status != 'claimed'
		`, quest.ID, quest.UserID, quest.TemplateID, quest.Name, quest.Kind, quest.ExerciseID,
			quest.Target, quest.Progress, quest.XPReward, quest.Status, quest.RotationDate, quest.ClaimedAt)
		if err != nil {
			return fmt.Errorf("upserting quest %s: %w", quest.ID, err)
		}
	}
	return nil
}

// markQuestClaimed persists a claim transition.
func markQuestClaimed(ctx context.Context, q querier, quest models.Quest) error {
	_, err := q.Exec(ctx,
		`UPDATE quest_instances SET status = $3, claimed_at = $4 WHERE user_id = $1 AND id = $2`,
		quest.UserID, quest.ID, quest.Status, quest.ClaimedAt)
	if err != nil {
		return fmt.Errorf("claiming quest: %w", err)
	}
	return nil
}

// RecentlySatisfiedTemplates returns template IDs the user completed or
// claimed within the lookback, used to down-weight repeats.
func (db *DB) RecentlySatisfiedTemplates(ctx context.Context, userID int, since time.Time) (map[string]bool, error) {
	return recentlySatisfiedTemplates(ctx, db.Pool, userID, since)
}

func recentlySatisfiedTemplates(ctx context.Context, q querier, userID int, since time.Time) (map[string]bool, error) {
	rows, err := q.Query(ctx,
		`SELECT DISTINCT template_id FROM quest_instances
		 WHERE user_id = $1 AND rotation_date >= $2 AND status IN ('completed', 'claimed')`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("querying satisfied templates: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning template id: %w", err)
		}
		result[id] = true
	}
	return result, rows.Err()
}
