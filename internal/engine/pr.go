package engine

import (
	"sort"
	"time"

	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
)

// repBuckets are the tracked rep-PR thresholds, highest first. A set
// counts only toward the highest threshold it qualifies for.
var repBuckets = []struct {
	reps int
	typ  models.PRType
}{
	{10, models.PRTypeRep10Plus},
	{8, models.PRTypeRep8},
	{5, models.PRTypeRep5},
	{3, models.PRTypeRep3},
	{1, models.PRTypeRep1},
}

func repBucket(reps int) models.PRType {
	for _, b := range repBuckets {
		if reps >= b.reps {
			return b.typ
		}
	}
	return models.PRTypeRep1
}

// DetectPRs re-derives the full personal record timeline from complete
// set history. It is a pure reducer: running it twice over identical
// history yields identical records, so reprocessing, edits and deletions
// stay idempotent. Incremental update-if-greater bookkeeping is
// deliberately avoided.
//
// Warmup and failure sets never produce records, and comparisons are
// strictly greater: ties are not new PRs. Candidates are reduced one
// training day at a time, so a session of ascending sets yields a single
// e1RM record attributed to its best set, while distinct PR types earned
// the same day are all recorded independently.
func DetectPRs(userID int, history []models.Set, formula Formula) []models.PersonalRecord {
	sets := make([]models.Set, 0, len(history))
	for _, s := range history {
		if s.IsWarmup || s.IsFailure {
			continue
		}
		sets = append(sets, s)
	}
	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].PerformedAt.Before(sets[j].PerformedAt)
	})

	type key struct {
		exercise string
		typ      models.PRType
	}
	type candidate struct {
		value float64
		set   models.Set
	}

	best := make(map[key]float64)
	var records []models.PersonalRecord

	var dayCands map[key]candidate
	var dayKeys []key

	flushDay := func() {
		sort.Slice(dayKeys, func(i, j int) bool {
			if dayKeys[i].exercise != dayKeys[j].exercise {
				return dayKeys[i].exercise < dayKeys[j].exercise
			}
			return dayKeys[i].typ < dayKeys[j].typ
		})
		for _, k := range dayKeys {
			c := dayCands[k]
			if cur, ok := best[k]; ok && c.value <= cur {
				continue
			}
			best[k] = c.value
			records = append(records, models.PersonalRecord{
				ID:         prID(userID, k.exercise, k.typ, c.set.ID),
				UserID:     userID,
				ExerciseID: k.exercise,
				Type:       k.typ,
				Value:      c.value,
				AchievedAt: c.set.PerformedAt,
				SetID:      c.set.ID,
			})
		}
	}

	propose := func(k key, value float64, s models.Set) {
		if c, ok := dayCands[k]; ok && value <= c.value {
			return
		}
		if _, ok := dayCands[k]; !ok {
			dayKeys = append(dayKeys, k)
		}
		dayCands[k] = candidate{value: value, set: s}
	}

	var curDay time.Time
	for _, s := range sets {
		day := truncateDay(s.PerformedAt.UTC())
		if dayCands == nil || !day.Equal(curDay) {
			if dayCands != nil {
				flushDay()
			}
			curDay = day
			dayCands = make(map[key]candidate)
			dayKeys = dayKeys[:0]
		}
		e1 := E1RM(s.WeightLb(), s.Reps, formula)
		propose(key{s.ExerciseID, models.PRTypeE1RM}, e1.Value, s)
		propose(key{s.ExerciseID, repBucket(s.Reps)}, s.WeightLb(), s)
	}
	if dayCands != nil {
		flushDay()
	}
	return records
}

// NewPRsSince filters derived records down to those achieved at or after
// the given time, which is how one submission's freshly earned PRs are
// attributed.
func NewPRsSince(records []models.PersonalRecord, since time.Time) []models.PersonalRecord {
	var out []models.PersonalRecord
	for _, r := range records {
		if !r.AchievedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out
}

// prID derives a stable record ID from its identity so that
// re-derivation produces byte-identical rows.
func prID(userID int, exercise string, typ models.PRType, setID uuid.UUID) uuid.UUID {
	name := []byte(exercise)
	name = append(name, byte(userID), byte(userID>>8))
	name = append(name, typ...)
	name = append(name, setID[:]...)
	return uuid.NewSHA1(uuid.NameSpaceOID, name)
}
