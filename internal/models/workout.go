package models

import (
	"time"

	"github.com/google/uuid"
)

// WeightUnit is the unit a set's weight was logged in.
type WeightUnit string

const (
	UnitKg WeightUnit = "kg"
	UnitLb WeightUnit = "lb"
)

const lbPerKg = 2.20462262185

// Lb returns the weight converted to pounds.
func (u WeightUnit) Lb(weight float64) float64 {
	if u == UnitKg {
		return weight * lbPerKg
	}
	return weight
}

// Set is one logged set of an exercise. Immutable once an e1RM has been
// attached; warmup and failure sets are stored but excluded from PR and
// analytics computations by default.
type Set struct {
	ID          uuid.UUID  `json:"id"`
	ExerciseID  string     `json:"exercise_id"`
	Weight      float64    `json:"weight"`
	Unit        WeightUnit `json:"unit"`
	Reps        int        `json:"reps"`
	RPE         *float64   `json:"rpe,omitempty"`
	RIR         *float64   `json:"rir,omitempty"`
	IsWarmup    bool       `json:"is_warmup"`
	IsFailure   bool       `json:"is_failure"`
	PerformedAt time.Time  `json:"performed_at"`
}

// WeightLb returns the set's weight in pounds regardless of logged unit.
func (s Set) WeightLb() float64 { return s.Unit.Lb(s.Weight) }

// KgFromLb converts pounds to kilograms.
func KgFromLb(lb float64) float64 { return lb / lbPerKg }

// SessionExercise is one exercise slot in a session with its ordered sets.
type SessionExercise struct {
	ExerciseID string `json:"exercise_id"`
	Sets       []Set  `json:"sets"`
}

// WorkoutSession is a completed workout submission.
type WorkoutSession struct {
	ID          uuid.UUID         `json:"id"`
	UserID      int               `json:"user_id"`
	Date        time.Time         `json:"date"`
	DurationSec int               `json:"duration_sec"`
	SessionRPE  *float64          `json:"session_rpe,omitempty"`
	Exercises   []SessionExercise `json:"exercises"`
}

// AllSets returns every set in the session in exercise order.
func (w WorkoutSession) AllSets() []Set {
	var out []Set
	for _, ex := range w.Exercises {
		out = append(out, ex.Sets...)
	}
	return out
}

// Sex is the biological sex used by the percentile norms tables.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// UserProfile carries the profile fields the engine consumes. Age feeds
// only the recovery model; percentiles use bodyweight and sex.
type UserProfile struct {
	UserID       int      `json:"user_id"`
	Age          *int     `json:"age,omitempty"`
	Sex          *Sex     `json:"sex,omitempty"`
	BodyweightKg *float64 `json:"bodyweight_kg,omitempty"`
	Formula      string   `json:"e1rm_formula"`
	Timezone     string   `json:"timezone,omitempty"`
}
