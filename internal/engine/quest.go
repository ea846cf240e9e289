package engine

import (
	"math/rand"
	"sort"
	"time"

	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
)

// QuestsPerRotation is the size of each daily batch.
const QuestsPerRotation = 3

// RotationDay returns the local-midnight day boundary for a user's
// timezone. The zero value of loc falls back to UTC.
func RotationDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// GenerateRotation clones a daily batch of quest instances from the
// template catalog. Selection is weighted away from templates the user
// satisfied in recent rotations so the board keeps variety. The RNG is
// seeded from user and day, making a rotation reproducible: re-running
// generation for the same day yields the same batch.
func GenerateRotation(userID int, templates []models.QuestTemplate, recentlySatisfied map[string]bool, rotationDay time.Time) []models.Quest {
	if len(templates) == 0 {
		return nil
	}

	seed := int64(userID)*1_000_003 + rotationDay.UTC().Unix()
	rng := rand.New(rand.NewSource(seed))

	pool := make([]models.QuestTemplate, len(templates))
	copy(pool, templates)
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })

	weights := make([]float64, len(pool))
	for i, t := range pool {
		w := 1.0
		if recentlySatisfied[t.ID] {
			w = 0.25
		}
		weights[i] = w
	}

	count := QuestsPerRotation
	if count > len(pool) {
		count = len(pool)
	}

	quests := make([]models.Quest, 0, count)
	for len(quests) < count {
		i := weightedPick(rng, weights)
		t := pool[i]
		weights[i] = 0 // no duplicate templates in one batch
		quests = append(quests, models.Quest{
			ID:           questID(userID, t.ID, rotationDay),
			UserID:       userID,
			TemplateID:   t.ID,
			Name:         t.Name,
			Kind:         t.Kind,
			ExerciseID:   t.ExerciseID,
			Target:       t.Target,
			XPReward:     t.XPReward,
			Status:       models.QuestActive,
			RotationDate: rotationDay,
		})
	}
	return quests
}

func weightedPick(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		// Everything zeroed; fall back to the first remaining slot.
		for i, w := range weights {
			if w >= 0 {
				return i
			}
		}
		return 0
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 && w > 0 {
			return i
		}
	}
	return len(weights) - 1
}

// questID is stable per (user, template, day) so regeneration after a
// crash cannot duplicate instances.
func questID(userID int, templateID string, day time.Time) uuid.UUID {
	name := []byte(templateID)
	name = append(name, byte(userID), byte(userID>>8), byte(userID>>16))
	name = append(name, day.UTC().Format("2006-01-02")...)
	return uuid.NewSHA1(uuid.NameSpaceOID, name)
}

// RefreshQuest recomputes a quest's progress from the rotation window's
// aggregate. Claimed quests are left untouched; progress caps at the
// target and completion flips the status exactly at target.
func RefreshQuest(q models.Quest, agg WorkoutAggregate) models.Quest {
	if q.Status == models.QuestClaimed {
		return q
	}
	progress := agg.progressFor(q.Kind, q.ExerciseID)
	if progress > q.Target {
		progress = q.Target
	}
	q.Progress = progress
	if q.Progress >= q.Target {
		q.Status = models.QuestCompleted
	} else {
		q.Status = models.QuestActive
	}
	return q
}

// ClaimQuest transitions completed → claimed and returns the XP to
// award. Claiming is idempotent at the caller level: a second attempt
// returns a StaleStateError and zero XP, leaving state untouched.
func ClaimQuest(q models.Quest, now time.Time) (models.Quest, float64, error) {
	switch q.Status {
	case models.QuestClaimed:
		return q, 0, &StaleStateError{Entity: "quest", ID: q.ID.String(), State: "already claimed"}
	case models.QuestActive:
		return q, 0, &StaleStateError{Entity: "quest", ID: q.ID.String(), State: "not completed"}
	}
	q.Status = models.QuestClaimed
	t := now
	q.ClaimedAt = &t
	return q, q.XPReward, nil
}
