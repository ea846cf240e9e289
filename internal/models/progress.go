package models

import (
	"time"

	"github.com/google/uuid"
)

// PRType distinguishes personal record kinds.
type PRType string

const (
	// PRTypeE1RM is the best estimated one-rep max for an exercise.
	PRTypeE1RM PRType = "e1rm"
	// PRTypeRep1 through PRTypeRep10Plus are rep-PR buckets: the best
	// weight lifted for at least N reps.
	PRTypeRep1      PRType = "rep_pr@1"
	PRTypeRep3      PRType = "rep_pr@3"
	PRTypeRep5      PRType = "rep_pr@5"
	PRTypeRep8      PRType = "rep_pr@8"
	PRTypeRep10Plus PRType = "rep_pr@10"
)

// PersonalRecord is append-only: a record is always the maximum observed
// for its (exercise, type) and is never retroactively dominated.
type PersonalRecord struct {
	ID         uuid.UUID `json:"id"`
	UserID     int       `json:"user_id"`
	ExerciseID string    `json:"exercise_id"`
	Type       PRType    `json:"pr_type"`
	Value      float64   `json:"value"`
	AchievedAt time.Time `json:"achieved_at"`
	SetID      uuid.UUID `json:"set_id"`
}

// UserProgress is the persisted ledger state. total_xp is the sole source
// of truth; level and rank are derived on every read, never stored.
type UserProgress struct {
	UserID          int        `json:"user_id"`
	TotalXP         float64    `json:"total_xp"`
	CurrentStreak   int        `json:"current_streak"`
	LongestStreak   int        `json:"longest_streak"`
	LastWorkoutDate *time.Time `json:"last_workout_date,omitempty"`
}

// XPEvent is one append-only entry in the XP audit trail. Every award
// path writes one; total_xp only moves through these.
type XPEvent struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"user_id"`
	Source    string    `json:"source"`
	Amount    float64   `json:"amount"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
