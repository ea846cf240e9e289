package engine

import (
	"github.com/claude/repforge/internal/models"
)

// WorkoutAggregate summarizes working sets over a window. Quest and
// dungeon progress is always recomputed from an aggregate rather than
// incrementally mutated, so reprocessing stays idempotent.
type WorkoutAggregate struct {
	WorkoutCount   int
	SetCount       int
	TotalVolumeLb  float64
	SetsByExercise map[string]int
	PRCount        int
}

// Aggregate reduces sessions (plus PRs achieved in the window) into one
// WorkoutAggregate. Warmup sets are excluded throughout.
func Aggregate(sessions []models.WorkoutSession, prCount int) WorkoutAggregate {
	agg := WorkoutAggregate{
		WorkoutCount:   len(sessions),
		SetsByExercise: make(map[string]int),
		PRCount:        prCount,
	}
	for _, session := range sessions {
		for _, ex := range session.Exercises {
			for _, s := range ex.Sets {
				if s.IsWarmup {
					continue
				}
				agg.SetCount++
				agg.SetsByExercise[ex.ExerciseID]++
				agg.TotalVolumeLb += s.WeightLb() * float64(s.Reps)
			}
		}
	}
	return agg
}

// progressFor evaluates one objective kind against an aggregate.
func (a WorkoutAggregate) progressFor(kind models.ObjectiveKind, exerciseID string) float64 {
	switch kind {
	case models.ObjectiveTotalVolume:
		return a.TotalVolumeLb
	case models.ObjectiveExerciseSets:
		return float64(a.SetsByExercise[exerciseID])
	case models.ObjectiveWorkoutCount:
		return float64(a.WorkoutCount)
	case models.ObjectivePRCount:
		return float64(a.PRCount)
	case models.ObjectiveSetCount:
		return float64(a.SetCount)
	}
	return 0
}
