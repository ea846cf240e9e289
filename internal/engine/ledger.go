package engine

import (
	"math"
	"time"

	"github.com/claude/repforge/internal/models"
)

// XP award constants. These are the only paths through which total_xp
// moves, and it only ever increases.
const (
	XPPerWorkout     = 50.0
	XPPerBigThreeSet = 5.0
	XPPerVolumeLb    = 0.001
	XPPerPR          = 100.0
	XPStreakBonus    = 150.0
	StreakBonusEvery = 7
	levelCurveCoef   = 100.0
)

// Rank buckets level against fixed thresholds.
type Rank string

const (
	RankE Rank = "E"
	RankD Rank = "D"
	RankC Rank = "C"
	RankB Rank = "B"
	RankA Rank = "A"
	RankS Rank = "S"
)

var rankThresholds = []struct {
	level int
	rank  Rank
}{
	{91, RankS},
	{71, RankA},
	{46, RankB},
	{26, RankC},
	{11, RankD},
	{1, RankE},
}

// RankForLevel returns the rank bucket for a level.
func RankForLevel(level int) Rank {
	for _, t := range rankThresholds {
		if level >= t.level {
			return t.rank
		}
	}
	return RankE
}

// LevelForXP returns the largest level L with 100·L^1.5 <= totalXP,
// floored at level 1. Level is a pure function of total XP and is
// recomputed on every read; it is never stored.
func LevelForXP(totalXP float64) int {
	if totalXP < levelCurveCoef {
		return 1
	}
	// Exponential bound then binary search, boundary inclusive.
	lo, hi := 1, 2
	for xpRequired(hi) <= totalXP {
		lo = hi
		hi *= 2
	}
	for lo+1 < hi {
		mid := lo + (hi-lo)/2
		if xpRequired(mid) <= totalXP {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

func xpRequired(level int) float64 {
	return levelCurveCoef * math.Pow(float64(level), 1.5)
}

// XPBreakdown itemizes one submission's awards.
type XPBreakdown struct {
	Workout      float64 `json:"workout"`
	BigThreeSets float64 `json:"big_three_sets"`
	Volume       float64 `json:"volume"`
	PRs          float64 `json:"prs"`
	Streak       float64 `json:"streak"`
	Quests       float64 `json:"quests"`
	Dungeons     float64 `json:"dungeons"`
}

// Total sums every award source.
func (b XPBreakdown) Total() float64 {
	return b.Workout + b.BigThreeSets + b.Volume + b.PRs + b.Streak + b.Quests + b.Dungeons
}

// StreakResult is the streak transition for one workout date.
type StreakResult struct {
	Current     int  `json:"current_streak"`
	Longest     int  `json:"longest_streak"`
	Extended    bool `json:"extended"`
	BonusEarned bool `json:"bonus_earned"`
}

// AdvanceStreak applies the streak state machine for a workout on the
// given calendar day. A repeat workout on the same day is a no-op, the
// day after the last workout increments, and any gap over one day resets
// to 1. The 150 XP bonus fires each time the streak lands on a multiple
// of seven.
func AdvanceStreak(p models.UserProgress, workoutDay time.Time) StreakResult {
	res := StreakResult{Current: p.CurrentStreak, Longest: p.LongestStreak}

	day := truncateDay(workoutDay)
	var last time.Time
	if p.LastWorkoutDate != nil {
		// A timestamptz round trip hands the stored instant back in a
		// different zone; days must be compared in the workout's location.
		last = truncateDay(p.LastWorkoutDate.In(workoutDay.Location()))
	}
	switch {
	case p.LastWorkoutDate == nil:
		res.Current = 1
		res.Extended = true
	case last.Equal(day):
		// Same-day repeat: streak unaffected.
		return res
	case last.AddDate(0, 0, 1).Equal(day):
		res.Current = p.CurrentStreak + 1
		res.Extended = true
	default:
		res.Current = 1
		res.Extended = true
	}

	if res.Current > res.Longest {
		res.Longest = res.Current
	}
	res.BonusEarned = res.Extended && res.Current > 0 && res.Current%StreakBonusEvery == 0
	return res
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WorkoutXP computes the direct awards for one submitted session:
// the flat workout award, the big-three set bonus, volume XP from total
// working volume in pounds, and the PR award. Warmup sets earn neither
// set bonuses nor volume.
func WorkoutXP(session models.WorkoutSession, newPRs int, isBigThree func(exerciseID string) bool) XPBreakdown {
	b := XPBreakdown{Workout: XPPerWorkout, PRs: float64(newPRs) * XPPerPR}
	for _, ex := range session.Exercises {
		big := isBigThree(ex.ExerciseID)
		for _, s := range ex.Sets {
			if s.IsWarmup {
				continue
			}
			if big {
				b.BigThreeSets += XPPerBigThreeSet
			}
			b.Volume += s.WeightLb() * float64(s.Reps) * XPPerVolumeLb
		}
	}
	return b
}

// ProgressSnapshot is the derived view of a progress row.
type ProgressSnapshot struct {
	TotalXP       float64 `json:"total_xp"`
	Level         int     `json:"level"`
	Rank          Rank    `json:"rank"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
}

// Snapshot derives level and rank from a progress row.
func Snapshot(p models.UserProgress) ProgressSnapshot {
	level := LevelForXP(p.TotalXP)
	return ProgressSnapshot{
		TotalXP:       p.TotalXP,
		Level:         level,
		Rank:          RankForLevel(level),
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
	}
}
