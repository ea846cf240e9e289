package engine

import (
	"testing"
	"time"

	"github.com/claude/repforge/internal/models"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   float64
		want int
	}{
		{0, 1},
		{50, 1},
		{100, 1}, // boundary inclusive: 100·1^1.5 = 100
		{282, 1},
		{283, 2}, // 100·2^1.5 ≈ 282.84
		{519, 2},
		{520, 3}, // 100·3^1.5 ≈ 519.62
		{99999, 99},
		{100000, 100}, // 100·100^1.5 = 100000 exactly
	}
	for _, tt := range tests {
		if got := LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%v) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelNeverStoredAlwaysDerived(t *testing.T) {
	// Two snapshots of the same total_xp always agree; there is no
	// cached level to drift.
	p := models.UserProgress{TotalXP: 1234}
	if Snapshot(p).Level != Snapshot(p).Level {
		t.Fatal("snapshot level not deterministic")
	}
}

func TestRankForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  Rank
	}{
		{1, RankE},
		{10, RankE},
		{11, RankD},
		{25, RankD},
		{26, RankC},
		{45, RankC},
		{46, RankB},
		{70, RankB},
		{71, RankA},
		{90, RankA},
		{91, RankS},
		{200, RankS},
	}
	for _, tt := range tests {
		if got := RankForLevel(tt.level); got != tt.want {
			t.Errorf("RankForLevel(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestAdvanceStreakSequence(t *testing.T) {
	// Workouts on days 1,2,3,(skip 4),5 → streak 1,2,3,1; longest 3.
	base := time.Date(2026, 4, 1, 7, 30, 0, 0, time.UTC)
	days := []int{0, 1, 2, 4}
	wantCurrent := []int{1, 2, 3, 1}

	p := models.UserProgress{}
	for i, offset := range days {
		workoutDay := base.AddDate(0, 0, offset)
		res := AdvanceStreak(p, workoutDay)
		if res.Current != wantCurrent[i] {
			t.Fatalf("day offset %d: current = %d, want %d", offset, res.Current, wantCurrent[i])
		}
		d := truncateDay(workoutDay)
		p.CurrentStreak = res.Current
		p.LongestStreak = res.Longest
		p.LastWorkoutDate = &d
	}
	if p.LongestStreak != 3 {
		t.Errorf("longest = %d, want 3", p.LongestStreak)
	}
}

func TestAdvanceStreakSameDayNoOp(t *testing.T) {
	d := time.Date(2026, 4, 3, 6, 0, 0, 0, time.UTC)
	p := models.UserProgress{CurrentStreak: 4, LongestStreak: 6, LastWorkoutDate: &d}

	res := AdvanceStreak(p, d.Add(9*time.Hour)) // same calendar day, evening
	if res.Current != 4 || res.Longest != 6 || res.Extended {
		t.Errorf("same-day repeat changed streak: %+v", res)
	}
}

func TestAdvanceStreakAcrossZones(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	// The stored last_workout_date comes back from the database as the
	// same instant in UTC, not the local midnight it was written as.
	last := time.Date(2026, 4, 1, 0, 0, 0, 0, ny).UTC()
	p := models.UserProgress{CurrentStreak: 3, LongestStreak: 5, LastWorkoutDate: &last}

	res := AdvanceStreak(p, time.Date(2026, 4, 2, 18, 30, 0, 0, ny))
	if res.Current != 4 || !res.Extended {
		t.Errorf("consecutive New York day: %+v, want streak 4", res)
	}

	res = AdvanceStreak(p, time.Date(2026, 4, 1, 21, 0, 0, 0, ny))
	if res.Current != 3 || res.Extended {
		t.Errorf("same New York day repeat: %+v, want unchanged streak 3", res)
	}
}

func TestAdvanceStreakBonus(t *testing.T) {
	d := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	p := models.UserProgress{CurrentStreak: 6, LongestStreak: 6, LastWorkoutDate: &d}

	res := AdvanceStreak(p, d.AddDate(0, 0, 1))
	if res.Current != 7 || !res.BonusEarned {
		t.Errorf("7th consecutive day: %+v, want streak bonus", res)
	}

	// 8th day: no bonus.
	d8 := truncateDay(d.AddDate(0, 0, 1))
	p = models.UserProgress{CurrentStreak: 7, LongestStreak: 7, LastWorkoutDate: &d8}
	res = AdvanceStreak(p, d8.AddDate(0, 0, 1))
	if res.Current != 8 || res.BonusEarned {
		t.Errorf("8th consecutive day: %+v, want no bonus", res)
	}
}

func TestWorkoutXP(t *testing.T) {
	session := models.WorkoutSession{
		UserID: 1,
		Date:   time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC),
		Exercises: []models.SessionExercise{
			{ExerciseID: "barbell_bench_press", Sets: []models.Set{
				{Weight: 100, Unit: models.UnitLb, Reps: 10},
				{Weight: 50, Unit: models.UnitLb, Reps: 10, IsWarmup: true},
				{Weight: 200, Unit: models.UnitLb, Reps: 5},
			}},
			{ExerciseID: "barbell_curl", Sets: []models.Set{
				{Weight: 60, Unit: models.UnitLb, Reps: 10},
			}},
		},
	}
	isBigThree := func(id string) bool { return id == "barbell_bench_press" }

	b := WorkoutXP(session, 2, isBigThree)
	if b.Workout != 50 {
		t.Errorf("workout XP = %v, want 50", b.Workout)
	}
	if b.BigThreeSets != 10 { // two working bench sets, warmup excluded
		t.Errorf("big three XP = %v, want 10", b.BigThreeSets)
	}
	wantVolume := (100*10 + 200*5 + 60*10) * 0.001
	if b.Volume != wantVolume {
		t.Errorf("volume XP = %v, want %v", b.Volume, wantVolume)
	}
	if b.PRs != 200 {
		t.Errorf("PR XP = %v, want 200", b.PRs)
	}
	wantTotal := 50 + 10 + wantVolume + 200.0
	if b.Total() != wantTotal {
		t.Errorf("total = %v, want %v", b.Total(), wantTotal)
	}
}

func TestWorkoutXPConvertsKgVolumeToLb(t *testing.T) {
	session := models.WorkoutSession{
		Exercises: []models.SessionExercise{
			{ExerciseID: "leg_press", Sets: []models.Set{
				{Weight: 100, Unit: models.UnitKg, Reps: 10},
			}},
		},
	}
	b := WorkoutXP(session, 0, func(string) bool { return false })
	wantVolume := models.UnitKg.Lb(100) * 10 * 0.001
	if b.Volume != wantVolume {
		t.Errorf("volume XP = %v, want %v", b.Volume, wantVolume)
	}
}
