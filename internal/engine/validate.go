package engine

import (
	"fmt"

	"github.com/claude/repforge/internal/models"
)

// ValidateSession rejects malformed submissions before any state is
// touched. Out-of-range values are errors, never clamped.
func ValidateSession(session models.WorkoutSession) error {
	if session.UserID <= 0 {
		return &ValidationError{Field: "user_id", Reason: "must be positive"}
	}
	if session.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	if len(session.Exercises) == 0 {
		return &ValidationError{Field: "exercises", Reason: "at least one exercise required"}
	}
	if session.SessionRPE != nil && (*session.SessionRPE < 0 || *session.SessionRPE > 10) {
		return &ValidationError{Field: "session_rpe", Reason: "must be within 0-10"}
	}
	for i, ex := range session.Exercises {
		if ex.ExerciseID == "" {
			return &ValidationError{Field: fmt.Sprintf("exercises[%d].exercise_id", i), Reason: "required"}
		}
		if len(ex.Sets) == 0 {
			return &ValidationError{Field: fmt.Sprintf("exercises[%d].sets", i), Reason: "at least one set required"}
		}
		for j, s := range ex.Sets {
			field := fmt.Sprintf("exercises[%d].sets[%d]", i, j)
			if s.Weight < 0 {
				return &ValidationError{Field: field + ".weight", Reason: "must not be negative"}
			}
			if s.Unit != models.UnitKg && s.Unit != models.UnitLb {
				return &ValidationError{Field: field + ".unit", Reason: "must be kg or lb"}
			}
			if s.Reps < 1 {
				return &ValidationError{Field: field + ".reps", Reason: "must be at least 1"}
			}
			if s.RPE != nil && (*s.RPE < 0 || *s.RPE > 10) {
				return &ValidationError{Field: field + ".rpe", Reason: "must be within 0-10"}
			}
			if s.RIR != nil && *s.RIR < 0 {
				return &ValidationError{Field: field + ".rir", Reason: "must not be negative"}
			}
		}
	}
	return nil
}
