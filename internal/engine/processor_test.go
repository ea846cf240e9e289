package engine

import (
	"testing"
	"time"

	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
)

type stubCatalog struct {
	quests   []models.QuestTemplate
	dungeons []models.DungeonTemplate
}

func (c stubCatalog) IsBigThree(exerciseID string) bool {
	return exerciseID == "barbell_bench_press"
}
func (c stubCatalog) QuestTemplates() []models.QuestTemplate     { return c.quests }
func (c stubCatalog) DungeonTemplates() []models.DungeonTemplate { return c.dungeons }

func benchSession(date time.Time) models.WorkoutSession {
	mk := func(w float64, reps int, offset time.Duration) models.Set {
		return models.Set{
			ID:          uuid.New(),
			Weight:      w,
			Unit:        models.UnitLb,
			Reps:        reps,
			PerformedAt: date.Add(offset),
		}
	}
	return models.WorkoutSession{
		ID:     uuid.New(),
		UserID: 1,
		Date:   date,
		Exercises: []models.SessionExercise{
			{ExerciseID: "barbell_bench_press", Sets: []models.Set{
				mk(135, 10, 0),
				mk(155, 8, 5*time.Minute),
				mk(165, 6, 10*time.Minute),
			}},
		},
	}
}

func TestProcessWorkoutEndToEnd(t *testing.T) {
	date := time.Date(2026, 8, 3, 18, 0, 0, 0, time.UTC)
	in := ProcessInput{
		Session: benchSession(date),
		Profile: models.UserProfile{UserID: 1, Formula: "epley"},
		Now:     date.Add(time.Hour),
	}

	res, err := ProcessWorkout(in, stubCatalog{})
	if err != nil {
		t.Fatalf("ProcessWorkout: %v", err)
	}

	// Exactly one new e1RM PR, from the set estimating highest.
	var e1prs []models.PersonalRecord
	for _, r := range res.PRsAchieved {
		if r.Type == models.PRTypeE1RM {
			e1prs = append(e1prs, r)
		}
	}
	if len(e1prs) != 1 {
		t.Fatalf("got %d e1RM PRs, want exactly 1", len(e1prs))
	}
	want := E1RM(165, 6, FormulaEpley).Value // 198, highest of the three
	if e1prs[0].Value != want {
		t.Errorf("PR value = %v, want %v", e1prs[0].Value, want)
	}
	bestSet := in.Session.Exercises[0].Sets[2]
	if e1prs[0].SetID != bestSet.ID {
		t.Errorf("PR attributed to set %v, want the 165x6 set %v", e1prs[0].SetID, bestSet.ID)
	}

	// First workout: streak 1, XP from workout + big-three sets +
	// volume + PRs (e1RM plus rep buckets).
	if res.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", res.CurrentStreak)
	}
	volume := (135*10 + 155*8 + 165*6) * 0.001
	wantXP := 50.0 + 3*5 + volume + float64(len(res.PRsAchieved))*100
	if res.XPEarned != wantXP {
		t.Errorf("xp earned = %v, want %v", res.XPEarned, wantXP)
	}
	if res.TotalXP != wantXP {
		t.Errorf("total xp = %v, want %v", res.TotalXP, wantXP)
	}
	if res.Level != LevelForXP(wantXP) || res.Rank != RankForLevel(res.Level) {
		t.Errorf("level/rank = %d/%v not derived from total xp", res.Level, res.Rank)
	}
	if res.Progress.TotalXP != wantXP {
		t.Errorf("persisted progress xp = %v, want %v", res.Progress.TotalXP, wantXP)
	}
	if got := len(res.XPEvents); got == 0 {
		t.Error("no XP events emitted")
	}
}

func TestProcessWorkoutRejectsInvalid(t *testing.T) {
	date := time.Date(2026, 8, 3, 18, 0, 0, 0, time.UTC)
	session := benchSession(date)
	session.Exercises[0].Sets[0].Reps = 0

	_, err := ProcessWorkout(ProcessInput{
		Session: session,
		Profile: models.UserProfile{UserID: 1},
		Now:     date,
	}, stubCatalog{})
	if err == nil {
		t.Fatal("invalid session processed, want ValidationError")
	}
}

func TestProcessWorkoutLevelUpAndRankChange(t *testing.T) {
	date := time.Date(2026, 8, 3, 18, 0, 0, 0, time.UTC)
	in := ProcessInput{
		Session:  benchSession(date),
		Profile:  models.UserProfile{UserID: 1, Formula: "epley"},
		Progress: models.UserProgress{TotalXP: 250}, // level 1, 33 XP from level 2
		Now:      date,
	}
	res, err := ProcessWorkout(in, stubCatalog{})
	if err != nil {
		t.Fatalf("ProcessWorkout: %v", err)
	}
	if !res.LeveledUp || res.NewLevel == nil {
		t.Fatalf("level up not reported: %+v", res)
	}
	if res.Level <= 1 {
		t.Errorf("level = %d, want > 1 after the award", res.Level)
	}
}

func TestProcessWorkoutQuestAndDungeonRefresh(t *testing.T) {
	date := time.Date(2026, 8, 3, 18, 0, 0, 0, time.UTC)
	accepted := date.Add(-48 * time.Hour)
	expires := accepted.AddDate(0, 0, 7)

	quest := models.Quest{
		ID:           uuid.New(),
		UserID:       1,
		TemplateID:   "show_up",
		Kind:         models.ObjectiveWorkoutCount,
		Target:       1,
		XPReward:     25,
		Status:       models.QuestActive,
		RotationDate: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
	}
	dungeon := models.Dungeon{
		ID:         uuid.New(),
		UserID:     1,
		TemplateID: "iron_trial",
		Status:     models.DungeonActive,
		Objectives: []models.DungeonObjective{
			{Kind: models.ObjectiveWorkoutCount, Target: 2, IsRequired: true},
		},
		BaseXPReward: 400,
		AcceptedAt:   &accepted,
		ExpiresAt:    &expires,
	}

	prior := benchSession(date.Add(-24 * time.Hour))
	in := ProcessInput{
		Session:        benchSession(date),
		Profile:        models.UserProfile{UserID: 1, Formula: "epley"},
		WindowSessions: []models.WorkoutSession{prior},
		Quests:         []models.Quest{quest},
		Dungeons:       []models.Dungeon{dungeon},
		Now:            date.Add(time.Hour),
	}
	res, err := ProcessWorkout(in, stubCatalog{})
	if err != nil {
		t.Fatalf("ProcessWorkout: %v", err)
	}

	if len(res.QuestProgress) != 1 || res.QuestProgress[0].Status != models.QuestCompleted {
		t.Errorf("quest progress = %+v, want completed (today's workout counts)", res.QuestProgress)
	}
	// Both the prior session (inside acceptance window) and today's
	// count toward the dungeon objective.
	if len(res.DungeonProgress) != 1 || res.DungeonProgress[0].Status != models.DungeonCompleted {
		t.Errorf("dungeon progress = %+v, want completed", res.DungeonProgress)
	}
	// Claim still pending: no quest/dungeon XP inside the submission.
	if res.XPBreakdown.Quests != 0 || res.XPBreakdown.Dungeons != 0 {
		t.Errorf("breakdown = %+v, want no claim XP during processing", res.XPBreakdown)
	}
}

func TestProcessWorkoutSpawnsDungeonWhenNoneOpen(t *testing.T) {
	date := time.Date(2026, 8, 3, 18, 0, 0, 0, time.UTC)
	in := ProcessInput{
		Session: benchSession(date),
		Profile: models.UserProfile{UserID: 1},
		Now:     date,
	}
	res, err := ProcessWorkout(in, stubCatalog{dungeons: []models.DungeonTemplate{trialTemplate}})
	if err != nil {
		t.Fatalf("ProcessWorkout: %v", err)
	}
	if res.DungeonSpawned == nil || res.DungeonSpawned.Status != models.DungeonAvailable {
		t.Errorf("dungeon spawned = %+v, want a fresh available instance", res.DungeonSpawned)
	}
}

func TestProcessWorkoutSameDayStreakNoOp(t *testing.T) {
	date := time.Date(2026, 8, 3, 18, 0, 0, 0, time.UTC)
	last := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in := ProcessInput{
		Session:  benchSession(date),
		Profile:  models.UserProfile{UserID: 1},
		Progress: models.UserProgress{TotalXP: 10, CurrentStreak: 5, LongestStreak: 5, LastWorkoutDate: &last},
		Now:      date,
	}
	res, err := ProcessWorkout(in, stubCatalog{})
	if err != nil {
		t.Fatalf("ProcessWorkout: %v", err)
	}
	if res.CurrentStreak != 5 {
		t.Errorf("streak = %d, want unchanged 5", res.CurrentStreak)
	}
	if res.XPBreakdown.Streak != 0 {
		t.Errorf("streak XP = %v, want 0 on a same-day repeat", res.XPBreakdown.Streak)
	}
}
