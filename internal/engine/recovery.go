package engine

import (
	"math"
	"sort"
	"time"

	"github.com/claude/repforge/internal/models"
)

// MuscleMapping links an exercise to the muscle groups it trains.
type MuscleMapping struct {
	Primary   []string `yaml:"primary" json:"primary"`
	Secondary []string `yaml:"secondary" json:"secondary"`
}

// RecoveryStatus is the string state of one muscle group.
type RecoveryStatus string

const (
	StatusRecovering RecoveryStatus = "recovering"
	StatusRecovered  RecoveryStatus = "recovered"
)

// MuscleCooldownStatus is computed on demand from recent sets; it is
// never persisted. Every intermediate factor is exposed so the model
// stays testable end to end.
type MuscleCooldownStatus struct {
	MuscleGroup        string         `json:"muscle_group"`
	BaseHours          float64        `json:"base_hours"`
	EffectiveSets      float64        `json:"effective_sets"`
	AvgIntensityFactor float64        `json:"avg_intensity_factor"`
	VolumeMultiplier   float64        `json:"volume_multiplier"`
	IntensityScaling   float64        `json:"intensity_scaling"`
	AgeModifier        float64        `json:"age_modifier"`
	FinalCooldownHours int            `json:"final_cooldown_hours"`
	LastTrainedAt      time.Time      `json:"last_trained_at"`
	HoursSinceTrained  float64        `json:"hours_since_trained"`
	CooldownPercent    float64        `json:"cooldown_percent"`
	Status             RecoveryStatus `json:"status"`
}

// AgeModifier returns the recovery slowdown for a lifter's age. A
// missing age is treated as neutral.
func AgeModifier(age *int) float64 {
	switch {
	case age == nil:
		return 1.0
	case *age < 30:
		return 1.0
	case *age < 40:
		return 1.15
	case *age < 50:
		return 1.30
	default:
		return 1.50
	}
}

// volumeMultiplier grows monotonically with effective sets and
// saturates toward 2.0.
func volumeMultiplier(effectiveSets float64) float64 {
	return 1.0 + effectiveSets/(effectiveSets+10.0)
}

// intensityScaling maps the average intensity factor (weight relative to
// current e1RM) onto a cooldown multiplier. Neutral at factor 1.0.
func intensityScaling(avgIntensityFactor float64) float64 {
	s := 0.5 + 0.5*avgIntensityFactor
	if s < 0.5 {
		return 0.5
	}
	if s > 1.25 {
		return 1.25
	}
	return s
}

// RecoveryWindowStart returns the earliest set time that can still
// contribute to a cooldown, given the slowest base cooldown in the
// catalog. Sets older than this are fully recovered everywhere.
func RecoveryWindowStart(now time.Time, slowestBaseHours float64) time.Time {
	return now.Add(-time.Duration(slowestBaseHours * float64(time.Hour)))
}

// ComputeRecovery derives the cooldown status of every muscle group
// touched by the given sets. The set slice is expected to be limited to
// the slowest-cooldown window; warmups contribute nothing. e1rms maps
// exercise IDs to the lifter's current best e1RM in the set's weight
// unit terms (pounds), used for the intensity factor.
func ComputeRecovery(
	sets []models.Set,
	e1rms map[string]float64,
	age *int,
	now time.Time,
	muscleFor func(exerciseID string) *MuscleMapping,
	baseHours func(muscleGroup string) float64,
) []MuscleCooldownStatus {
	type acc struct {
		effectiveSets float64
		intensitySum  float64
		intensityN    int
		lastTrained   time.Time
	}
	byMuscle := make(map[string]*acc)

	add := func(muscle string, weight float64, s models.Set) {
		a := byMuscle[muscle]
		if a == nil {
			a = &acc{}
			byMuscle[muscle] = a
		}
		a.effectiveSets += weight
		if best := e1rms[s.ExerciseID]; best > 0 {
			a.intensitySum += s.WeightLb() / best
			a.intensityN++
		}
		if s.PerformedAt.After(a.lastTrained) {
			a.lastTrained = s.PerformedAt
		}
	}

	for _, s := range sets {
		if s.IsWarmup {
			continue
		}
		m := muscleFor(s.ExerciseID)
		if m == nil {
			continue
		}
		for _, muscle := range m.Primary {
			add(muscle, 1.0, s)
		}
		for _, muscle := range m.Secondary {
			add(muscle, 0.5, s)
		}
	}

	out := make([]MuscleCooldownStatus, 0, len(byMuscle))
	for muscle, a := range byMuscle {
		st := MuscleCooldownStatus{
			MuscleGroup:   muscle,
			BaseHours:     baseHours(muscle),
			EffectiveSets: a.effectiveSets,
			AgeModifier:   AgeModifier(age),
			LastTrainedAt: a.lastTrained,
		}
		if a.intensityN > 0 {
			st.AvgIntensityFactor = a.intensitySum / float64(a.intensityN)
		} else {
			st.AvgIntensityFactor = 1.0
		}
		st.VolumeMultiplier = volumeMultiplier(a.effectiveSets)
		st.IntensityScaling = intensityScaling(st.AvgIntensityFactor)
		st.FinalCooldownHours = int(math.Round(
			st.BaseHours * st.VolumeMultiplier * st.IntensityScaling * st.AgeModifier))

		st.HoursSinceTrained = now.Sub(a.lastTrained).Hours()
		if st.FinalCooldownHours > 0 {
			pct := (1.0 - st.HoursSinceTrained/float64(st.FinalCooldownHours)) * 100.0
			if pct < 0 {
				pct = 0
			}
			if pct > 100 {
				pct = 100
			}
			st.CooldownPercent = pct
		}
		if st.HoursSinceTrained >= float64(st.FinalCooldownHours) {
			st.Status = StatusRecovered
		} else {
			st.Status = StatusRecovering
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].MuscleGroup < out[j].MuscleGroup })
	return out
}
