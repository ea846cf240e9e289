package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const dungeonColumns = `id, user_id, template_id, name, status, objectives,
	base_xp_reward, stretch_bonus_percent, stretch_achieved,
	spawned_at, accepted_at, expires_at, claimed_at`

// Dungeons retrieves a user's dungeon instances, newest spawn first.
func (db *DB) Dungeons(ctx context.Context, userID int) ([]models.Dungeon, error) {
	return queryDungeons(ctx, db.Pool,
		`SELECT `+dungeonColumns+` FROM dungeon_instances
		 WHERE user_id = $1 ORDER BY spawned_at DESC`, userID)
}

// openDungeons retrieves available and active instances, the ones a
// submission can still advance.
func openDungeons(ctx context.Context, q querier, userID int) ([]models.Dungeon, error) {
	return queryDungeons(ctx, q,
		`SELECT `+dungeonColumns+` FROM dungeon_instances
		 WHERE user_id = $1 AND status IN ('available', 'active')
		 ORDER BY spawned_at DESC`, userID)
}

func queryDungeons(ctx context.Context, q querier, query string, args ...any) ([]models.Dungeon, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying dungeons: %w", err)
	}
	defer rows.Close()

	var result []models.Dungeon
	for rows.Next() {
		d, err := scanDungeon(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// GetDungeon retrieves one dungeon instance by ID.
func (db *DB) GetDungeon(ctx context.Context, userID int, id uuid.UUID) (models.Dungeon, error) {
	return getDungeon(ctx, db.Pool, userID, id)
}

func getDungeon(ctx context.Context, q querier, userID int, id uuid.UUID) (models.Dungeon, error) {
	row := q.QueryRow(ctx,
		`SELECT `+dungeonColumns+` FROM dungeon_instances WHERE user_id = $1 AND id = $2`,
		userID, id)
	d, err := scanDungeon(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, fmt.Errorf("dungeon %s: %w", id, ErrNotFound)
	}
	return d, err
}

func scanDungeon(row pgx.Row) (models.Dungeon, error) {
	var d models.Dungeon
	var objectives []byte
	err := row.Scan(&d.ID, &d.UserID, &d.TemplateID, &d.Name, &d.Status, &objectives,
		&d.BaseXPReward, &d.StretchBonusPercent, &d.StretchAchieved,
		&d.SpawnedAt, &d.AcceptedAt, &d.ExpiresAt, &d.ClaimedAt)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("scanning dungeon: %w", err)
		}
		return d, err
	}
	if err := json.Unmarshal(objectives, &d.Objectives); err != nil {
		return d, fmt.Errorf("decoding dungeon objectives: %w", err)
	}
	return d, nil
}

// saveDungeon upserts one dungeon instance. Objectives travel as JSONB:
// they are read-modify-written as a unit under the progress row lock.
func saveDungeon(ctx context.Context, q querier, d models.Dungeon) error {
	objectives, err := json.Marshal(d.Objectives)
	if err != nil {
		return fmt.Errorf("encoding dungeon objectives: %w", err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO dungeon_instances (id, user_id, template_id, name, status, objectives,
			base_xp_reward, stretch_bonus_percent, stretch_achieved,
			spawned_at, accepted_at, expires_at, claimed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			status = $5, objectives = $6, stretch_achieved = $9,
			accepted_at = $11, expires_at = $12, claimed_at = $13
	`, d.ID, d.UserID, d.TemplateID, d.Name, d.Status, objectives,
		d.BaseXPReward, d.StretchBonusPercent, d.StretchAchieved,
		d.SpawnedAt, d.AcceptedAt, d.ExpiresAt, d.ClaimedAt)
	if err != nil {
		return fmt.Errorf("saving dungeon: %w", err)
	}
	return nil
}
