package engine

import (
	"math"
	"testing"
	"time"

	"github.com/claude/repforge/internal/models"
)

var testMuscles = map[string]*MuscleMapping{
	"barbell_bench_press":     {Primary: []string{"chest"}, Secondary: []string{"triceps"}},
	"lying_triceps_extension": {Primary: []string{"triceps"}},
}

func testMuscleFor(exerciseID string) *MuscleMapping { return testMuscles[exerciseID] }

func testBaseHours(muscle string) float64 {
	if muscle == "chest" {
		return 48
	}
	return 36
}

func TestAgeModifier(t *testing.T) {
	age := func(n int) *int { return &n }
	tests := []struct {
		age  *int
		want float64
	}{
		{nil, 1.0},
		{age(18), 1.0},
		{age(29), 1.0},
		{age(30), 1.15},
		{age(39), 1.15},
		{age(40), 1.30},
		{age(49), 1.30},
		{age(50), 1.50},
		{age(70), 1.50},
	}
	for _, tt := range tests {
		if got := AgeModifier(tt.age); got != tt.want {
			t.Errorf("AgeModifier(%v) = %v, want %v", tt.age, got, tt.want)
		}
	}
}

func TestVolumeMultiplierSaturates(t *testing.T) {
	prev := 0.0
	for _, sets := range []float64{0, 1, 5, 10, 20, 100, 1000} {
		v := volumeMultiplier(sets)
		if v < 1.0 || v > 2.0 {
			t.Errorf("volumeMultiplier(%v) = %v outside [1, 2]", sets, v)
		}
		if v < prev {
			t.Errorf("volumeMultiplier not monotone at %v", sets)
		}
		prev = v
	}
	if volumeMultiplier(0) != 1.0 {
		t.Errorf("volumeMultiplier(0) = %v, want 1.0", volumeMultiplier(0))
	}
}

func TestIntensityScalingNeutralAtOne(t *testing.T) {
	if s := intensityScaling(1.0); s != 1.0 {
		t.Errorf("intensityScaling(1.0) = %v, want 1.0", s)
	}
	if intensityScaling(0.5) >= intensityScaling(1.1) {
		t.Error("intensityScaling not monotone")
	}
}

// TestRecoveryWindowStart ties the set scan window to the slowest base
// cooldown; a wider window would feed long-recovered sets into the
// volume multiplier.
func TestRecoveryWindowStart(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	if got, want := RecoveryWindowStart(now, 96), now.Add(-96*time.Hour); !got.Equal(want) {
		t.Errorf("window start for 96h = %v, want %v", got, want)
	}
	if got, want := RecoveryWindowStart(now, 49.5), now.Add(-49*time.Hour-30*time.Minute); !got.Equal(want) {
		t.Errorf("window start for 49.5h = %v, want %v", got, want)
	}
}

func TestCooldownFormula(t *testing.T) {
	// base=72h with all modifiers neutral → 72h; age 45 → round(72·1.30) = 94h.
	neutral := math.Round(72 * 1.0 * 1.0 * 1.0)
	if neutral != 72 {
		t.Fatalf("neutral cooldown = %v, want 72", neutral)
	}
	aged := math.Round(72 * 1.0 * 1.0 * 1.30)
	if aged != 94 {
		t.Fatalf("age-45 cooldown = %v, want 94", aged)
	}
}

func TestComputeRecovery(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	trained := now.Add(-24 * time.Hour)

	sets := []models.Set{
		{ExerciseID: "barbell_bench_press", Weight: 180, Unit: models.UnitLb, Reps: 5, PerformedAt: trained},
		{ExerciseID: "barbell_bench_press", Weight: 180, Unit: models.UnitLb, Reps: 5, PerformedAt: trained},
		{ExerciseID: "barbell_bench_press", Weight: 90, Unit: models.UnitLb, Reps: 5, PerformedAt: trained, IsWarmup: true},
	}
	e1rms := map[string]float64{"barbell_bench_press": 180} // intensity factor 1.0

	statuses := ComputeRecovery(sets, e1rms, nil, now, testMuscleFor, testBaseHours)
	if len(statuses) != 2 {
		t.Fatalf("got %d muscle statuses, want 2 (chest, triceps)", len(statuses))
	}

	chest := statuses[0]
	if chest.MuscleGroup != "chest" {
		chest = statuses[1]
	}
	if chest.EffectiveSets != 2.0 {
		t.Errorf("chest effective sets = %v, want 2.0 (warmup excluded)", chest.EffectiveSets)
	}
	if chest.AvgIntensityFactor != 1.0 {
		t.Errorf("chest intensity factor = %v, want 1.0", chest.AvgIntensityFactor)
	}
	wantHours := int(math.Round(48 * volumeMultiplier(2) * 1.0 * 1.0))
	if chest.FinalCooldownHours != wantHours {
		t.Errorf("chest final cooldown = %v, want %v", chest.FinalCooldownHours, wantHours)
	}
	if chest.Status != StatusRecovering {
		t.Errorf("chest status = %v, want recovering after 24h of %vh", chest.Status, wantHours)
	}
	wantPct := (1 - 24.0/float64(wantHours)) * 100
	if math.Abs(chest.CooldownPercent-wantPct) > 1e-9 {
		t.Errorf("chest cooldown percent = %v, want %v", chest.CooldownPercent, wantPct)
	}

	// Secondary muscle gets half an effective set per bench set.
	tri := statuses[0]
	if tri.MuscleGroup != "triceps" {
		tri = statuses[1]
	}
	if tri.EffectiveSets != 1.0 {
		t.Errorf("triceps effective sets = %v, want 1.0 (2 × 0.5 secondary)", tri.EffectiveSets)
	}
}

func TestComputeRecoveryRecoveredAfterWindow(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	sets := []models.Set{
		{ExerciseID: "lying_triceps_extension", Weight: 60, Unit: models.UnitLb, Reps: 10, PerformedAt: now.Add(-200 * time.Hour)},
	}
	statuses := ComputeRecovery(sets, nil, nil, now, testMuscleFor, testBaseHours)
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses, want 1", len(statuses))
	}
	st := statuses[0]
	if st.Status != StatusRecovered {
		t.Errorf("status = %v, want recovered", st.Status)
	}
	if st.CooldownPercent != 0 {
		t.Errorf("cooldown percent = %v, want 0 (clamped)", st.CooldownPercent)
	}
	// No e1RM on file: intensity factor defaults to neutral.
	if st.AvgIntensityFactor != 1.0 {
		t.Errorf("intensity factor = %v, want neutral 1.0", st.AvgIntensityFactor)
	}
}
