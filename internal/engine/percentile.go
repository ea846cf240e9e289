package engine

import (
	"sort"

	"github.com/claude/repforge/internal/models"
)

// Classification buckets a percentile into a strength standing.
type Classification string

const (
	ClassInsufficientData Classification = "insufficient_data"
	ClassBeginner         Classification = "beginner"
	ClassNovice           Classification = "novice"
	ClassIntermediate     Classification = "intermediate"
	ClassAdvanced         Classification = "advanced"
	ClassElite            Classification = "elite"
)

// NormPoint maps a bodyweight multiplier to a percentile for one
// exercise/sex pair. Points in a table must be strictly increasing in
// both fields.
type NormPoint struct {
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
	Percentile float64 `yaml:"percentile" json:"percentile"`
}

// NormTable is the piecewise multiplier→percentile curve for one
// exercise and sex.
type NormTable struct {
	ExerciseID string      `yaml:"exercise_id" json:"exercise_id"`
	Sex        models.Sex  `yaml:"sex" json:"sex"`
	Points     []NormPoint `yaml:"points" json:"points"`
}

// PercentileResult is the standing of one e1RM against the population.
type PercentileResult struct {
	ExerciseID     string         `json:"exercise_id"`
	E1RM           float64        `json:"e1rm,omitempty"`
	BodyweightKg   float64        `json:"bodyweight_kg,omitempty"`
	Multiplier     float64        `json:"multiplier,omitempty"`
	Percentile     float64        `json:"percentile,omitempty"`
	Classification Classification `json:"classification"`
}

// classThresholds map percentile floors to classifications. Age is
// deliberately not a factor here; it feeds only the recovery model.
var classThresholds = []struct {
	floor float64
	class Classification
}{
	{95, ClassElite},
	{80, ClassAdvanced},
	{50, ClassIntermediate},
	{20, ClassNovice},
	{0, ClassBeginner},
}

// Classify maps a percentile to its classification bucket.
func Classify(percentile float64) Classification {
	for _, t := range classThresholds {
		if percentile >= t.floor {
			return t.class
		}
	}
	return ClassBeginner
}

// Percentile computes the population standing of an e1RM. Missing
// bodyweight, sex or e1RM yields an insufficient_data classification,
// never an error. e1rmKg must be in kilograms to match the norms tables.
func Percentile(exerciseID string, e1rmKg float64, profile models.UserProfile, lookup func(exerciseID string, sex models.Sex) *NormTable) PercentileResult {
	res := PercentileResult{ExerciseID: exerciseID, Classification: ClassInsufficientData}
	if e1rmKg <= 0 || profile.Sex == nil || profile.BodyweightKg == nil || *profile.BodyweightKg <= 0 {
		return res
	}
	table := lookup(exerciseID, *profile.Sex)
	if table == nil || len(table.Points) == 0 {
		return res
	}

	res.E1RM = e1rmKg
	res.BodyweightKg = *profile.BodyweightKg
	res.Multiplier = e1rmKg / *profile.BodyweightKg
	res.Percentile = interpolate(table.Points, res.Multiplier)
	res.Classification = Classify(res.Percentile)
	return res
}

// interpolate maps a multiplier onto the piecewise-linear percentile
// curve. Values below the first point clamp to its percentile, values
// above the last clamp likewise, so the mapping stays monotonic.
func interpolate(points []NormPoint, multiplier float64) float64 {
	if multiplier <= points[0].Multiplier {
		return points[0].Percentile
	}
	last := points[len(points)-1]
	if multiplier >= last.Multiplier {
		return last.Percentile
	}
	i := sort.Search(len(points), func(i int) bool {
		return points[i].Multiplier >= multiplier
	})
	lo, hi := points[i-1], points[i]
	frac := (multiplier - lo.Multiplier) / (hi.Multiplier - lo.Multiplier)
	return lo.Percentile + frac*(hi.Percentile-lo.Percentile)
}
