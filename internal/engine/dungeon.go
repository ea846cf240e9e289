package engine

import (
	"time"

	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
)

// SpawnDungeon instantiates a template as an available dungeon.
func SpawnDungeon(userID int, t models.DungeonTemplate, now time.Time) models.Dungeon {
	objectives := make([]models.DungeonObjective, len(t.Objectives))
	for i, o := range t.Objectives {
		objectives[i] = models.DungeonObjective{
			Kind:       o.Kind,
			ExerciseID: o.ExerciseID,
			Target:     o.Target,
			IsRequired: o.IsRequired,
			XPBonus:    o.XPBonus,
		}
	}
	return models.Dungeon{
		ID:                  uuid.New(),
		UserID:              userID,
		TemplateID:          t.ID,
		Name:                t.Name,
		Status:              models.DungeonAvailable,
		Objectives:          objectives,
		BaseXPReward:        t.BaseXPReward,
		StretchBonusPercent: t.StretchBonusPercent,
		SpawnedAt:           now,
	}
}

// AcceptDungeon transitions available → active, stamping accepted_at and
// expires_at from the template duration.
func AcceptDungeon(d models.Dungeon, durationDays int, now time.Time) (models.Dungeon, error) {
	if d.Status != models.DungeonAvailable {
		return d, &StaleStateError{Entity: "dungeon", ID: d.ID.String(), State: string(d.Status)}
	}
	accepted := now
	expires := now.AddDate(0, 0, durationDays)
	d.Status = models.DungeonActive
	d.AcceptedAt = &accepted
	d.ExpiresAt = &expires
	return d, nil
}

// AbandonDungeon transitions active → abandoned.
func AbandonDungeon(d models.Dungeon, now time.Time) (models.Dungeon, error) {
	d = ExpireIfDue(d, now)
	if d.Status != models.DungeonActive {
		return d, &StaleStateError{Entity: "dungeon", ID: d.ID.String(), State: string(d.Status)}
	}
	d.Status = models.DungeonAbandoned
	return d, nil
}

// ExpireIfDue lazily applies expiry: an active dungeon past its deadline
// becomes expired. Called on every read and before every transition, so
// no background sweeper is needed and claiming past the deadline is
// impossible.
func ExpireIfDue(d models.Dungeon, now time.Time) models.Dungeon {
	if d.Status == models.DungeonActive && d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		d.Status = models.DungeonExpired
	}
	return d
}

// RefreshDungeon recomputes objective progress from the aggregate of
// workouts since acceptance. Progress never exceeds an objective's
// target. When every required objective is satisfied the dungeon
// completes; stretch is achieved only when every objective, bonus ones
// included, is satisfied at completion time.
func RefreshDungeon(d models.Dungeon, agg WorkoutAggregate, now time.Time) models.Dungeon {
	d = ExpireIfDue(d, now)
	if d.Status != models.DungeonActive {
		return d
	}
	for i := range d.Objectives {
		o := &d.Objectives[i]
		progress := agg.progressFor(o.Kind, o.ExerciseID)
		if progress > o.Target {
			progress = o.Target
		}
		o.Progress = progress
	}
	if d.RequiredSatisfied() {
		d.Status = models.DungeonCompleted
		d.StretchAchieved = allSatisfied(d.Objectives)
	}
	return d
}

func allSatisfied(objectives []models.DungeonObjective) bool {
	for _, o := range objectives {
		if !o.Satisfied() {
			return false
		}
	}
	return true
}

// DungeonReward computes the claimable XP: the base reward, plus the
// stretch bonus percentage when every objective was cleared, plus each
// completed bonus objective's own XP.
func DungeonReward(d models.Dungeon) float64 {
	reward := d.BaseXPReward
	if d.StretchAchieved {
		reward += d.BaseXPReward * d.StretchBonusPercent / 100.0
	}
	for _, o := range d.Objectives {
		if !o.IsRequired && o.Satisfied() {
			reward += o.XPBonus
		}
	}
	return reward
}

// ClaimDungeon transitions a completed dungeon to claimed exactly once
// and returns the reward. A repeat claim, or a claim on anything but a
// completed dungeon, is rejected with zero XP change.
func ClaimDungeon(d models.Dungeon, now time.Time) (models.Dungeon, float64, error) {
	d = ExpireIfDue(d, now)
	if d.ClaimedAt != nil {
		return d, 0, &StaleStateError{Entity: "dungeon", ID: d.ID.String(), State: "already claimed"}
	}
	if d.Status != models.DungeonCompleted {
		return d, 0, &StaleStateError{Entity: "dungeon", ID: d.ID.String(), State: string(d.Status)}
	}
	if !d.RequiredSatisfied() {
		return d, 0, &StaleStateError{Entity: "dungeon", ID: d.ID.String(), State: "objectives unsatisfied"}
	}
	t := now
	d.ClaimedAt = &t
	return d, DungeonReward(d), nil
}
