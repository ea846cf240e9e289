package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/repforge/internal/engine"
	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
)

// ErrDuplicateSession is returned when a session ID was already
// submitted. The original submission's effects stand.
var ErrDuplicateSession = errors.New("session already submitted")

// SubmitWorkout runs one submission end to end inside a single
// transaction: it locks the user's progress row, loads the state the
// processor needs, runs it, and persists every derived change. The row
// lock serializes concurrent submissions per user, so XP awards never
// interleave.
func (db *DB) SubmitWorkout(ctx context.Context, session models.WorkoutSession, cat engine.Catalog, lookbackDays int, now time.Time) (*engine.WorkoutProcessingResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning submit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	progress, err := lockProgress(ctx, tx, session.UserID)
	if err != nil {
		return nil, err
	}
	profile, err := getProfile(ctx, tx, session.UserID)
	if err != nil {
		return nil, err
	}

	touched := touchedExercises(session)
	history, err := setsForExercises(ctx, tx, session.UserID, touched)
	if err != nil {
		return nil, err
	}
	windowStart := now.AddDate(0, 0, -lookbackDays)
	windowSessions, err := querySessionsSince(ctx, tx, session.UserID, windowStart)
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if profile.Timezone != "" {
		if l, lerr := time.LoadLocation(profile.Timezone); lerr == nil {
			loc = l
		}
	}
	rotationDay := engine.RotationDay(session.Date, loc)
	quests, err := questsForRotation(ctx, tx, session.UserID, rotationDay)
	if err != nil {
		return nil, err
	}
	recent, err := recentlySatisfiedTemplates(ctx, tx, session.UserID, rotationDay.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	if len(quests) == 0 {
		quests = engine.GenerateRotation(session.UserID, cat.QuestTemplates(), recent, rotationDay)
	}

	dungeons, err := openDungeons(ctx, tx, session.UserID)
	if err != nil {
		return nil, err
	}

	res, err := engine.ProcessWorkout(engine.ProcessInput{
		Session:              session,
		Profile:              profile,
		History:              history,
		WindowSessions:       windowSessions,
		Progress:             progress,
		Quests:               quests,
		Dungeons:             dungeons,
		RecentQuestTemplates: recent,
		Now:                  now,
	}, cat)
	if err != nil {
		return nil, err
	}

	inserted, err := insertSession(ctx, tx, session)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, ErrDuplicateSession
	}
	if err := replaceDerivedRecords(ctx, tx, session.UserID, touched, res.DerivedPRs); err != nil {
		return nil, err
	}
	if err := saveProgress(ctx, tx, res.Progress); err != nil {
		return nil, err
	}
	if err := upsertQuests(ctx, tx, res.QuestProgress); err != nil {
		return nil, err
	}
	for _, d := range res.DungeonProgress {
		if err := saveDungeon(ctx, tx, d); err != nil {
			return nil, err
		}
	}
	if res.DungeonSpawned != nil {
		if err := saveDungeon(ctx, tx, *res.DungeonSpawned); err != nil {
			return nil, err
		}
	}
	if err := insertXPEvents(ctx, tx, res.XPEvents); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing submit tx: %w", err)
	}
	return res, nil
}

func touchedExercises(session models.WorkoutSession) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ex := range session.Exercises {
		if !seen[ex.ExerciseID] {
			seen[ex.ExerciseID] = true
			out = append(out, ex.ExerciseID)
		}
	}
	return out
}

// QuestBoard returns the user's quest rotation for the given day,
// generating and persisting it on first access.
func (db *DB) QuestBoard(ctx context.Context, userID int, cat engine.Catalog, rotationDay time.Time) ([]models.Quest, error) {
	quests, err := db.QuestsForRotation(ctx, userID, rotationDay)
	if err != nil {
		return nil, err
	}
	if len(quests) > 0 {
		return quests, nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning rotation tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Re-check under the tx: another request may have generated it.
	quests, err = questsForRotation(ctx, tx, userID, rotationDay)
	if err != nil {
		return nil, err
	}
	if len(quests) > 0 {
		return quests, tx.Commit(ctx)
	}
	recent, err := recentlySatisfiedTemplates(ctx, tx, userID, rotationDay.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	quests = engine.GenerateRotation(userID, cat.QuestTemplates(), recent, rotationDay)
	if err := upsertQuests(ctx, tx, quests); err != nil {
		return nil, err
	}
	return quests, tx.Commit(ctx)
}

// ClaimQuest awards a completed quest's XP and marks it claimed, all
// under the progress row lock. A second claim returns a stale-state
// error and awards nothing.
func (db *DB) ClaimQuest(ctx context.Context, userID int, questID uuid.UUID, now time.Time) (models.Quest, models.UserProgress, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return models.Quest{}, models.UserProgress{}, fmt.Errorf("beginning claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	progress, err := lockProgress(ctx, tx, userID)
	if err != nil {
		return models.Quest{}, progress, err
	}
	quest, err := getQuest(ctx, tx, userID, questID)
	if err != nil {
		return quest, progress, err
	}
	claimed, xp, err := engine.ClaimQuest(quest, now)
	if err != nil {
		return quest, progress, err
	}
	if err := markQuestClaimed(ctx, tx, claimed); err != nil {
		return claimed, progress, err
	}
	progress.TotalXP += xp
	if err := saveProgress(ctx, tx, progress); err != nil {
		return claimed, progress, err
	}
	if err := insertXPEvents(ctx, tx, []models.XPEvent{{
		UserID:    userID,
		Source:    "quest",
		Amount:    xp,
		Detail:    claimed.TemplateID,
		CreatedAt: now,
	}}); err != nil {
		return claimed, progress, err
	}
	if err := tx.Commit(ctx); err != nil {
		return claimed, progress, fmt.Errorf("committing claim tx: %w", err)
	}
	return claimed, progress, nil
}

// AcceptDungeon starts a spawned dungeon's clock.
func (db *DB) AcceptDungeon(ctx context.Context, userID int, dungeonID uuid.UUID, durationDays int, now time.Time) (models.Dungeon, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return models.Dungeon{}, fmt.Errorf("beginning accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := getDungeon(ctx, tx, userID, dungeonID)
	if err != nil {
		return d, err
	}
	d, err = engine.AcceptDungeon(d, durationDays, now)
	if err != nil {
		return d, err
	}
	if err := saveDungeon(ctx, tx, d); err != nil {
		return d, err
	}
	return d, tx.Commit(ctx)
}

// AbandonDungeon forfeits an open dungeon.
func (db *DB) AbandonDungeon(ctx context.Context, userID int, dungeonID uuid.UUID, now time.Time) (models.Dungeon, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return models.Dungeon{}, fmt.Errorf("beginning abandon tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d, err := getDungeon(ctx, tx, userID, dungeonID)
	if err != nil {
		return d, err
	}
	d, err = engine.AbandonDungeon(d, now)
	if err != nil {
		return d, err
	}
	if err := saveDungeon(ctx, tx, d); err != nil {
		return d, err
	}
	return d, tx.Commit(ctx)
}

// ClaimDungeon awards a completed dungeon's reward under the progress
// row lock. Expiry is applied lazily before the claim is judged.
func (db *DB) ClaimDungeon(ctx context.Context, userID int, dungeonID uuid.UUID, now time.Time) (models.Dungeon, float64, models.UserProgress, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return models.Dungeon{}, 0, models.UserProgress{}, fmt.Errorf("beginning claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	progress, err := lockProgress(ctx, tx, userID)
	if err != nil {
		return models.Dungeon{}, 0, progress, err
	}
	d, err := getDungeon(ctx, tx, userID, dungeonID)
	if err != nil {
		return d, 0, progress, err
	}
	if expired := engine.ExpireIfDue(d, now); expired.Status != d.Status {
		if err := saveDungeon(ctx, tx, expired); err != nil {
			return expired, 0, progress, err
		}
		if err := tx.Commit(ctx); err != nil {
			return expired, 0, progress, fmt.Errorf("committing expiry: %w", err)
		}
		return expired, 0, progress, &engine.StaleStateError{
			Entity: "dungeon", ID: d.ID.String(), State: string(expired.Status),
		}
	}
	claimed, xp, err := engine.ClaimDungeon(d, now)
	if err != nil {
		return d, 0, progress, err
	}
	if err := saveDungeon(ctx, tx, claimed); err != nil {
		return claimed, xp, progress, err
	}
	progress.TotalXP += xp
	if err := saveProgress(ctx, tx, progress); err != nil {
		return claimed, xp, progress, err
	}
	if err := insertXPEvents(ctx, tx, []models.XPEvent{{
		UserID:    userID,
		Source:    "dungeon",
		Amount:    xp,
		Detail:    claimed.TemplateID,
		CreatedAt: now,
	}}); err != nil {
		return claimed, xp, progress, err
	}
	if err := tx.Commit(ctx); err != nil {
		return claimed, xp, progress, fmt.Errorf("committing claim tx: %w", err)
	}
	return claimed, xp, progress, nil
}

// DungeonsRefreshed lists a user's dungeons with lazy expiry applied and
// persisted.
func (db *DB) DungeonsRefreshed(ctx context.Context, userID int, now time.Time) ([]models.Dungeon, error) {
	dungeons, err := db.Dungeons(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i, d := range dungeons {
		expired := engine.ExpireIfDue(d, now)
		if expired.Status != d.Status {
			if err := saveDungeon(ctx, db.Pool, expired); err != nil {
				return nil, err
			}
			dungeons[i] = expired
		}
	}
	return dungeons, nil
}
