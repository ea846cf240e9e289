package engine

import (
	"reflect"
	"testing"
	"time"

	"github.com/claude/repforge/internal/models"
	"github.com/google/uuid"
)

const bench = "barbell_bench_press"

func lbSet(exercise string, weight float64, reps int, at time.Time) models.Set {
	return models.Set{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(exercise+at.String()+string(rune(reps))+string(rune(int(weight))))),
		ExerciseID:  exercise,
		Weight:      weight,
		Unit:        models.UnitLb,
		Reps:        reps,
		PerformedAt: at,
	}
}

func day(n int) time.Time {
	return time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func recordsOfType(records []models.PersonalRecord, typ models.PRType) []models.PersonalRecord {
	var out []models.PersonalRecord
	for _, r := range records {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func TestDetectPRsIdempotent(t *testing.T) {
	history := []models.Set{
		lbSet(bench, 135, 10, day(0)),
		lbSet(bench, 155, 8, day(2)),
		lbSet(bench, 165, 6, day(4)),
	}
	first := DetectPRs(1, history, FormulaEpley)
	second := DetectPRs(1, history, FormulaEpley)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-running over identical history changed the records:\n%v\nvs\n%v", first, second)
	}
}

func TestDetectPRsStrictlyIncreasing(t *testing.T) {
	// N workouts with strictly increasing e1RM and no ties: exactly N
	// e1RM records.
	var history []models.Set
	for i := 0; i < 5; i++ {
		history = append(history, lbSet(bench, 135+float64(i)*10, 5, day(i)))
	}
	records := recordsOfType(DetectPRs(1, history, FormulaEpley), models.PRTypeE1RM)
	if len(records) != 5 {
		t.Fatalf("got %d e1RM records, want 5", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Value <= records[i-1].Value {
			t.Errorf("record %d (%v) does not dominate record %d (%v)", i, records[i].Value, i-1, records[i-1].Value)
		}
	}
}

func TestDetectPRsTiesAreNotPRs(t *testing.T) {
	history := []models.Set{
		lbSet(bench, 185, 5, day(0)),
		lbSet(bench, 185, 5, day(3)),
	}
	records := recordsOfType(DetectPRs(1, history, FormulaEpley), models.PRTypeE1RM)
	if len(records) != 1 {
		t.Fatalf("tie produced %d e1RM records, want 1", len(records))
	}
}

func TestDetectPRsExcludesWarmupAndFailure(t *testing.T) {
	warm := lbSet(bench, 315, 10, day(0))
	warm.IsWarmup = true
	failed := lbSet(bench, 275, 12, day(0))
	failed.IsFailure = true
	history := []models.Set{warm, failed, lbSet(bench, 185, 5, day(0))}

	records := DetectPRs(1, history, FormulaEpley)
	for _, r := range records {
		if r.SetID == warm.ID || r.SetID == failed.ID {
			t.Errorf("record %v attributed to an excluded set", r)
		}
	}
	e1 := recordsOfType(records, models.PRTypeE1RM)
	if len(e1) != 1 || e1[0].Value != E1RM(185, 5, FormulaEpley).Value {
		t.Errorf("e1RM records = %v, want one from the 185x5 working set", e1)
	}
}

func TestSingleSessionYieldsOneE1RMPR(t *testing.T) {
	// Bench 135x10, 155x8, 165x6 in one workout: exactly one e1RM
	// record, attributed to whichever set estimates highest.
	at := day(0)
	sets := []models.Set{
		lbSet(bench, 135, 10, at),
		lbSet(bench, 155, 8, at.Add(5*time.Minute)),
		lbSet(bench, 165, 6, at.Add(10*time.Minute)),
	}
	records := recordsOfType(DetectPRs(1, sets, FormulaEpley), models.PRTypeE1RM)
	if len(records) != 1 {
		t.Fatalf("got %d e1RM records for one session, want 1", len(records))
	}
	best := E1RM(135, 10, FormulaEpley).Value
	bestSet := sets[0]
	for _, s := range sets[1:] {
		if v := E1RM(s.Weight, s.Reps, FormulaEpley).Value; v > best {
			best, bestSet = v, s
		}
	}
	if records[0].SetID != bestSet.ID || records[0].Value != best {
		t.Errorf("record = %+v, want value %v from set %v", records[0], best, bestSet.ID)
	}
}

func TestRepBuckets(t *testing.T) {
	tests := []struct {
		reps int
		want models.PRType
	}{
		{1, models.PRTypeRep1},
		{2, models.PRTypeRep1},
		{3, models.PRTypeRep3},
		{4, models.PRTypeRep3},
		{5, models.PRTypeRep5},
		{7, models.PRTypeRep5},
		{8, models.PRTypeRep8},
		{9, models.PRTypeRep8},
		{10, models.PRTypeRep10Plus},
		{15, models.PRTypeRep10Plus},
	}
	for _, tt := range tests {
		if got := repBucket(tt.reps); got != tt.want {
			t.Errorf("repBucket(%d) = %v, want %v", tt.reps, got, tt.want)
		}
	}
}

func TestRepPRTracksBestWeightPerBucket(t *testing.T) {
	history := []models.Set{
		lbSet(bench, 135, 10, day(0)), // 10+ bucket
		lbSet(bench, 185, 5, day(1)),  // 5 bucket
		lbSet(bench, 145, 11, day(2)), // 10+ bucket, improvement
		lbSet(bench, 180, 6, day(3)),  // 5 bucket, not an improvement
	}
	records := DetectPRs(1, history, FormulaEpley)

	tenPlus := recordsOfType(records, models.PRTypeRep10Plus)
	if len(tenPlus) != 2 || tenPlus[1].Value != 145 {
		t.Errorf("10+ bucket records = %v, want 135 then 145", tenPlus)
	}
	five := recordsOfType(records, models.PRTypeRep5)
	if len(five) != 1 || five[0].Value != 185 {
		t.Errorf("5 bucket records = %v, want single 185", five)
	}
}

func TestDetectPRsMultipleTypesSameSession(t *testing.T) {
	// One heavy triple and one volume set the same day earn records of
	// distinct types independently.
	at := day(0)
	history := []models.Set{
		lbSet(bench, 225, 3, at),
		lbSet(bench, 185, 10, at.Add(10*time.Minute)),
	}
	records := DetectPRs(1, history, FormulaEpley)
	types := make(map[models.PRType]int)
	for _, r := range records {
		types[r.Type]++
	}
	if types[models.PRTypeE1RM] != 1 || types[models.PRTypeRep3] != 1 || types[models.PRTypeRep10Plus] != 1 {
		t.Errorf("type counts = %v, want one each of e1rm, rep_pr@3, rep_pr@10", types)
	}
}

func TestNewPRsSince(t *testing.T) {
	records := DetectPRs(1, []models.Set{
		lbSet(bench, 135, 5, day(0)),
		lbSet(bench, 155, 5, day(2)),
	}, FormulaEpley)
	fresh := NewPRsSince(records, day(1))
	for _, r := range fresh {
		if r.AchievedAt.Before(day(1)) {
			t.Errorf("record %v predates the cutoff", r)
		}
	}
	if len(fresh) == 0 {
		t.Error("expected records after the cutoff")
	}
}
