package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/claude/repforge/internal/models"
)

// Catalog is the static reference data the processor needs. The catalog
// package provides the production implementation.
type Catalog interface {
	IsBigThree(exerciseID string) bool
	QuestTemplates() []models.QuestTemplate
	DungeonTemplates() []models.DungeonTemplate
}

// ProcessInput is the state one submission operates on, loaded up front
// by the storage layer so the processor itself stays pure. History and
// WindowSessions must not include the submitted session.
type ProcessInput struct {
	Session models.WorkoutSession
	Profile models.UserProfile
	// History is the prior set history for the exercises touched by the
	// submission, used by PR re-derivation.
	History []models.Set
	// WindowSessions are prior sessions inside the configured lookback
	// window, feeding quest and dungeon aggregates.
	WindowSessions []models.WorkoutSession
	Progress       models.UserProgress
	Quests         []models.Quest
	Dungeons       []models.Dungeon
	// RecentQuestTemplates marks template IDs satisfied in recent
	// rotations, down-weighted when a new rotation is generated.
	RecentQuestTemplates map[string]bool
	Now                  time.Time
}

// WorkoutProcessingResult bundles every derived change from one
// submission. It is committed atomically: either all of it is persisted
// or none of it.
type WorkoutProcessingResult struct {
	SessionID       string                  `json:"session_id"`
	XPEarned        float64                 `json:"xp_earned"`
	XPBreakdown     XPBreakdown             `json:"xp_breakdown"`
	TotalXP         float64                 `json:"total_xp"`
	Level           int                     `json:"level"`
	LeveledUp       bool                    `json:"leveled_up"`
	NewLevel        *int                    `json:"new_level,omitempty"`
	Rank            Rank                    `json:"rank"`
	RankChanged     bool                    `json:"rank_changed"`
	NewRank         *Rank                   `json:"new_rank,omitempty"`
	CurrentStreak   int                     `json:"current_streak"`
	PRsAchieved     []models.PersonalRecord `json:"prs_achieved"`
	QuestProgress   []models.Quest          `json:"quest_progress"`
	DungeonProgress []models.Dungeon        `json:"dungeon_progress"`
	DungeonSpawned  *models.Dungeon         `json:"dungeon_spawned,omitempty"`

	// DerivedPRs is the full re-derived record timeline for the touched
	// exercises, persisted wholesale by the storage layer.
	DerivedPRs []models.PersonalRecord `json:"-"`
	Progress   models.UserProgress     `json:"-"`
	XPEvents   []models.XPEvent        `json:"-"`
}

// ProcessWorkout runs the whole unit of work for one submission:
// validation, PR re-derivation, streak transition, XP award, quest and
// dungeon refresh. It mutates nothing it was given; the caller persists
// the returned state inside one transaction.
func ProcessWorkout(in ProcessInput, catalog Catalog) (*WorkoutProcessingResult, error) {
	if err := ValidateSession(in.Session); err != nil {
		return nil, err
	}
	formula, err := ParseFormula(in.Profile.Formula)
	if err != nil {
		return nil, fmt.Errorf("profile formula: %w", err)
	}

	loc := time.UTC
	if in.Profile.Timezone != "" {
		if l, lerr := time.LoadLocation(in.Profile.Timezone); lerr == nil {
			loc = l
		}
	}

	before := Snapshot(in.Progress)

	// PR re-derivation over prior plus submitted history. Fresh PRs are
	// exactly the derived records attributed to the new session's sets.
	newSets := sessionSets(in.Session)
	full := append(append([]models.Set(nil), in.History...), newSets...)
	derived := DetectPRs(in.Session.UserID, full, formula)
	newSetIDs := make(map[string]bool, len(newSets))
	for _, s := range newSets {
		newSetIDs[s.ID.String()] = true
	}
	var achieved []models.PersonalRecord
	for _, r := range derived {
		if newSetIDs[r.SetID.String()] {
			achieved = append(achieved, r)
		}
	}

	streak := AdvanceStreak(in.Progress, in.Session.Date.In(loc))
	breakdown := WorkoutXP(in.Session, len(achieved), catalog.IsBigThree)
	if streak.BonusEarned {
		breakdown.Streak = XPStreakBonus
	}

	// Quest refresh over the rotation day's aggregate.
	rotationDay := RotationDay(in.Session.Date, loc)
	allSessions := append(append([]models.WorkoutSession(nil), in.WindowSessions...), in.Session)
	questSessions := sessionsOnDay(allSessions, rotationDay, loc)
	questAgg := Aggregate(questSessions, len(NewPRsSince(derived, rotationDay)))
	quests := make([]models.Quest, len(in.Quests))
	for i, q := range in.Quests {
		quests[i] = RefreshQuest(q, questAgg)
	}

	// Dungeon refresh over everything since each acceptance.
	dungeons := make([]models.Dungeon, len(in.Dungeons))
	anyOpen := false
	for i, d := range in.Dungeons {
		if d.Status == models.DungeonActive && d.AcceptedAt != nil {
			agg := Aggregate(sessionsAfter(allSessions, *d.AcceptedAt),
				len(NewPRsSince(derived, *d.AcceptedAt)))
			d = RefreshDungeon(d, agg, in.Now)
		} else {
			d = ExpireIfDue(d, in.Now)
		}
		if !d.Status.Terminal() {
			anyOpen = true
		}
		dungeons[i] = d
	}

	var spawned *models.Dungeon
	if !anyOpen {
		if t := pickDungeonTemplate(in.Session.UserID, catalog.DungeonTemplates(), rotationDay); t != nil {
			d := SpawnDungeon(in.Session.UserID, *t, in.Now)
			spawned = &d
		}
	}

	earned := breakdown.Total()
	if earned < 0 {
		// total_xp only moves up through defined award paths; anything
		// else is a fatal invariant violation.
		return nil, fmt.Errorf("xp award would decrease total_xp by %f", -earned)
	}

	progress := in.Progress
	progress.TotalXP += earned
	progress.CurrentStreak = streak.Current
	progress.LongestStreak = streak.Longest
	day := truncateDay(in.Session.Date.In(loc))
	progress.LastWorkoutDate = &day

	after := Snapshot(progress)

	res := &WorkoutProcessingResult{
		SessionID:       in.Session.ID.String(),
		XPEarned:        earned,
		XPBreakdown:     breakdown,
		TotalXP:         after.TotalXP,
		Level:           after.Level,
		Rank:            after.Rank,
		CurrentStreak:   after.CurrentStreak,
		PRsAchieved:     achieved,
		QuestProgress:   quests,
		DungeonProgress: dungeons,
		DungeonSpawned:  spawned,
		DerivedPRs:      derived,
		Progress:        progress,
	}
	if after.Level > before.Level {
		res.LeveledUp = true
		lvl := after.Level
		res.NewLevel = &lvl
	}
	if after.Rank != before.Rank {
		res.RankChanged = true
		rank := after.Rank
		res.NewRank = &rank
	}
	res.XPEvents = buildXPEvents(in.Session, breakdown, in.Now)
	return res, nil
}

func sessionSets(session models.WorkoutSession) []models.Set {
	var out []models.Set
	for _, ex := range session.Exercises {
		for _, s := range ex.Sets {
			if s.ExerciseID == "" {
				s.ExerciseID = ex.ExerciseID
			}
			if s.PerformedAt.IsZero() {
				s.PerformedAt = session.Date
			}
			out = append(out, s)
		}
	}
	return out
}

func sessionsOnDay(sessions []models.WorkoutSession, day time.Time, loc *time.Location) []models.WorkoutSession {
	var out []models.WorkoutSession
	for _, s := range sessions {
		if truncateDay(s.Date.In(loc)).Equal(day) {
			out = append(out, s)
		}
	}
	return out
}

func sessionsAfter(sessions []models.WorkoutSession, t time.Time) []models.WorkoutSession {
	var out []models.WorkoutSession
	for _, s := range sessions {
		if !s.Date.Before(t) {
			out = append(out, s)
		}
	}
	return out
}

// pickDungeonTemplate selects a template deterministically per user and
// day so a retried submission spawns the same dungeon.
func pickDungeonTemplate(userID int, templates []models.DungeonTemplate, day time.Time) *models.DungeonTemplate {
	if len(templates) == 0 {
		return nil
	}
	seed := int64(userID)*7_368_787 + day.UTC().Unix()
	rng := rand.New(rand.NewSource(seed))
	t := templates[rng.Intn(len(templates))]
	return &t
}

func buildXPEvents(session models.WorkoutSession, b XPBreakdown, now time.Time) []models.XPEvent {
	var events []models.XPEvent
	add := func(source string, amount float64) {
		if amount <= 0 {
			return
		}
		events = append(events, models.XPEvent{
			UserID:    session.UserID,
			Source:    source,
			Amount:    amount,
			Detail:    session.ID.String(),
			CreatedAt: now,
		})
	}
	add("workout", b.Workout)
	add("big_three_sets", b.BigThreeSets)
	add("volume", b.Volume)
	add("pr", b.PRs)
	add("streak", b.Streak)
	return events
}
