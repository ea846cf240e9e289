package engine

import (
	"sort"

	"github.com/claude/repforge/internal/models"
)

// RIRBand holds the count and percentage of sets in a specific RIR range.
type RIRBand struct {
	Band     string  `json:"band"`
	RIRRange string  `json:"rir_range"`
	Sets     int     `json:"sets"`
	Pct      float64 `json:"pct"`
}

// ExerciseSummary holds aggregated stats for a single exercise.
type ExerciseSummary struct {
	ExerciseID string   `json:"exercise_id"`
	TotalSets  int      `json:"total_sets"`
	TotalReps  int      `json:"total_reps"`
	TonnageLb  float64  `json:"tonnage_lb"`
	MaxWeight  float64  `json:"max_weight_lb"`
	AvgRIR     *float64 `json:"avg_rir,omitempty"`
}

// IntensityResult holds the complete intensity analysis for a window.
type IntensityResult struct {
	RIRDistribution []RIRBand         `json:"rir_distribution"`
	FailureRatePct  float64           `json:"failure_rate_pct"`
	TotalSets       int               `json:"total_sets"`
	TrackedSets     int               `json:"tracked_sets"`
	Exercises       []ExerciseSummary `json:"exercises"`
}

// band order for the distribution output.
var rirBands = []struct {
	band     string
	rirRange string
}{
	{"failure", "0"},
	{"near_failure", "0.5-1"},
	{"moderate", "1.5-2"},
	{"easy", "2.5-3"},
	{"very_easy", ">3"},
	{"untracked", "untracked"},
}

func rirBandFor(s models.Set) string {
	if s.RIR == nil {
		if s.IsFailure {
			return "failure"
		}
		return "untracked"
	}
	switch rir := *s.RIR; {
	case rir <= 0:
		return "failure"
	case rir <= 1:
		return "near_failure"
	case rir <= 2:
		return "moderate"
	case rir <= 3:
		return "easy"
	default:
		return "very_easy"
	}
}

// ComputeIntensity reduces working sets to an RIR distribution, failure
// rate and per-exercise tonnage summary. Warmup sets are excluded. Sets
// with no RIR count toward totals but not toward the failure rate.
func ComputeIntensity(sets []models.Set) *IntensityResult {
	result := &IntensityResult{}

	counts := make(map[string]int)
	type exAgg struct {
		sets    int
		reps    int
		tonnage float64
		maxWt   float64
		rirSum  float64
		rirN    int
	}
	perExercise := make(map[string]*exAgg)

	for _, s := range sets {
		if s.IsWarmup {
			continue
		}
		band := rirBandFor(s)
		counts[band]++
		result.TotalSets++
		if band != "untracked" {
			result.TrackedSets++
		}

		agg := perExercise[s.ExerciseID]
		if agg == nil {
			agg = &exAgg{}
			perExercise[s.ExerciseID] = agg
		}
		agg.sets++
		agg.reps += s.Reps
		wt := s.WeightLb()
		agg.tonnage += wt * float64(s.Reps)
		if wt > agg.maxWt {
			agg.maxWt = wt
		}
		if s.RIR != nil {
			agg.rirSum += *s.RIR
			agg.rirN++
		}
	}

	failureSets := counts["failure"] + counts["near_failure"]
	if result.TrackedSets > 0 {
		result.FailureRatePct = float64(failureSets) / float64(result.TrackedSets) * 100
	}

	for _, b := range rirBands {
		n := counts[b.band]
		if n == 0 {
			continue
		}
		band := RIRBand{Band: b.band, RIRRange: b.rirRange, Sets: n}
		if result.TotalSets > 0 {
			band.Pct = float64(n) / float64(result.TotalSets) * 100
		}
		result.RIRDistribution = append(result.RIRDistribution, band)
	}

	for id, agg := range perExercise {
		sum := ExerciseSummary{
			ExerciseID: id,
			TotalSets:  agg.sets,
			TotalReps:  agg.reps,
			TonnageLb:  agg.tonnage,
			MaxWeight:  agg.maxWt,
		}
		if agg.rirN > 0 {
			avg := agg.rirSum / float64(agg.rirN)
			sum.AvgRIR = &avg
		}
		result.Exercises = append(result.Exercises, sum)
	}
	sort.Slice(result.Exercises, func(i, j int) bool {
		return result.Exercises[i].TonnageLb > result.Exercises[j].TonnageLb
	})

	return result
}
