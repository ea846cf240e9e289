package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/repforge/internal/models"
	"github.com/jackc/pgx/v5"
)

// GetOrCreateUser finds or creates a user by Tailscale login name.
// Returns the user ID. Updates last_seen and display_name on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	return id, err
}

// GetProfile retrieves a user's profile. A user without a saved profile
// gets the zero profile with their ID filled in.
func (db *DB) GetProfile(ctx context.Context, userID int) (models.UserProfile, error) {
	return getProfile(ctx, db.Pool, userID)
}

func getProfile(ctx context.Context, q querier, userID int) (models.UserProfile, error) {
	p := models.UserProfile{UserID: userID}
	err := q.QueryRow(ctx,
		`SELECT age, sex, bodyweight_kg, e1rm_formula, COALESCE(timezone, '')
		 FROM user_profiles WHERE user_id = $1`,
		userID).Scan(&p.Age, &p.Sex, &p.BodyweightKg, &p.Formula, &p.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// UpsertProfile saves a user's profile, replacing any previous values.
func (db *DB) UpsertProfile(ctx context.Context, p models.UserProfile) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO user_profiles (user_id, age, sex, bodyweight_kg, e1rm_formula, timezone)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (user_id) DO UPDATE SET
			age = $2, sex = $3, bodyweight_kg = $4, e1rm_formula = $5,
			timezone = NULLIF($6, ''), updated_at = NOW()
	`, p.UserID, p.Age, p.Sex, p.BodyweightKg, p.Formula, p.Timezone)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}
