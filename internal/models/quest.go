package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestStatus is the quest instance lifecycle: active → completed → claimed.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestClaimed   QuestStatus = "claimed"
)

// ObjectiveKind is the fixed tagged-variant set of trackable objectives.
// Keeping the set closed makes invalid quest/dungeon configurations
// unrepresentable.
type ObjectiveKind string

const (
	// ObjectiveTotalVolume tracks total working volume in pounds.
	ObjectiveTotalVolume ObjectiveKind = "total_volume_lb"
	// ObjectiveExerciseSets tracks working sets of a specific exercise.
	ObjectiveExerciseSets ObjectiveKind = "exercise_sets"
	// ObjectiveWorkoutCount tracks completed workout sessions.
	ObjectiveWorkoutCount ObjectiveKind = "workout_count"
	// ObjectivePRCount tracks personal records achieved.
	ObjectivePRCount ObjectiveKind = "pr_count"
	// ObjectiveSetCount tracks working sets across all exercises.
	ObjectiveSetCount ObjectiveKind = "set_count"
)

// QuestTemplate is a static catalog entry quests are cloned from at each
// rotation.
type QuestTemplate struct {
	ID         string        `yaml:"id" json:"id"`
	Name       string        `yaml:"name" json:"name"`
	Kind       ObjectiveKind `yaml:"kind" json:"kind"`
	ExerciseID string        `yaml:"exercise_id,omitempty" json:"exercise_id,omitempty"`
	Target     float64       `yaml:"target" json:"target"`
	XPReward   float64       `yaml:"xp_reward" json:"xp_reward"`
	Difficulty int           `yaml:"difficulty" json:"difficulty"`
}

// Quest is a daily instance cloned from a template for one rotation.
// Progress is recomputed from the rotation window's workout aggregate,
// never incrementally mutated.
type Quest struct {
	ID           uuid.UUID     `json:"id"`
	UserID       int           `json:"user_id"`
	TemplateID   string        `json:"template_id"`
	Name         string        `json:"name"`
	Kind         ObjectiveKind `json:"kind"`
	ExerciseID   string        `json:"exercise_id,omitempty"`
	Target       float64       `json:"target_value"`
	Progress     float64       `json:"progress"`
	XPReward     float64       `json:"xp_reward"`
	Status       QuestStatus   `json:"status"`
	RotationDate time.Time     `json:"rotation_date"`
	ClaimedAt    *time.Time    `json:"claimed_at,omitempty"`
}

// DungeonStatus is the dungeon lifecycle. completed, expired and
// abandoned are terminal.
type DungeonStatus string

const (
	DungeonAvailable DungeonStatus = "available"
	DungeonActive    DungeonStatus = "active"
	DungeonCompleted DungeonStatus = "completed"
	DungeonExpired   DungeonStatus = "expired"
	DungeonAbandoned DungeonStatus = "abandoned"
)

// Terminal reports whether the status admits no further transitions.
func (s DungeonStatus) Terminal() bool {
	return s == DungeonCompleted || s == DungeonExpired || s == DungeonAbandoned
}

// DungeonObjectiveTemplate is one objective in a dungeon template.
type DungeonObjectiveTemplate struct {
	Kind       ObjectiveKind `yaml:"kind" json:"kind"`
	ExerciseID string        `yaml:"exercise_id,omitempty" json:"exercise_id,omitempty"`
	Target     float64       `yaml:"target" json:"target"`
	IsRequired bool          `yaml:"is_required" json:"is_required"`
	XPBonus    float64       `yaml:"xp_bonus,omitempty" json:"xp_bonus,omitempty"`
}

// DungeonTemplate is a static catalog entry for a multi-day challenge.
type DungeonTemplate struct {
	ID                  string                     `yaml:"id" json:"id"`
	Name                string                     `yaml:"name" json:"name"`
	DurationDays        int                        `yaml:"duration_days" json:"duration_days"`
	BaseXPReward        float64                    `yaml:"base_xp_reward" json:"base_xp_reward"`
	StretchBonusPercent float64                    `yaml:"stretch_bonus_percent" json:"stretch_bonus_percent"`
	Objectives          []DungeonObjectiveTemplate `yaml:"objectives" json:"objectives"`
}

// DungeonObjective tracks one objective's progress inside an instance.
// Progress never exceeds Target.
type DungeonObjective struct {
	Kind       ObjectiveKind `json:"kind"`
	ExerciseID string        `json:"exercise_id,omitempty"`
	Target     float64       `json:"target"`
	Progress   float64       `json:"progress"`
	IsRequired bool          `json:"is_required"`
	XPBonus    float64       `json:"xp_bonus,omitempty"`
}

// Satisfied reports whether the objective reached its target.
func (o DungeonObjective) Satisfied() bool { return o.Progress >= o.Target }

// Dungeon is a multi-day challenge instance.
type Dungeon struct {
	ID                  uuid.UUID          `json:"id"`
	UserID              int                `json:"user_id"`
	TemplateID          string             `json:"template_id"`
	Name                string             `json:"name"`
	Status              DungeonStatus      `json:"status"`
	Objectives          []DungeonObjective `json:"objectives"`
	BaseXPReward        float64            `json:"base_xp_reward"`
	StretchBonusPercent float64            `json:"stretch_bonus_percent"`
	StretchAchieved     bool               `json:"stretch_achieved"`
	SpawnedAt           time.Time          `json:"spawned_at"`
	AcceptedAt          *time.Time         `json:"accepted_at,omitempty"`
	ExpiresAt           *time.Time         `json:"expires_at,omitempty"`
	ClaimedAt           *time.Time         `json:"claimed_at,omitempty"`
}

// RequiredSatisfied reports whether every required objective is met.
func (d Dungeon) RequiredSatisfied() bool {
	for _, o := range d.Objectives {
		if o.IsRequired && !o.Satisfied() {
			return false
		}
	}
	return true
}
