package engine

import (
	"sort"
	"time"

	"github.com/claude/repforge/internal/models"
)

// TrendDirection summarizes where an exercise's e1RM is heading.
type TrendDirection string

const (
	TrendUp               TrendDirection = "up"
	TrendDown             TrendDirection = "down"
	TrendFlat             TrendDirection = "flat"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// TrendPoint is one day's best e1RM for an exercise.
type TrendPoint struct {
	Date       time.Time `json:"date"`
	E1RM       float64   `json:"e1rm"`
	RollingAvg float64   `json:"rolling_avg"`
}

// TrendResponse is the e1RM series for one exercise with a rolling
// average, direction and percent change over the window.
type TrendResponse struct {
	ExerciseID    string         `json:"exercise_id"`
	Points        []TrendPoint   `json:"points,omitempty"`
	Direction     TrendDirection `json:"direction"`
	PercentChange float64        `json:"percent_change"`
}

// trendFlatTolerance is the relative change below which a trend counts
// as flat rather than a real move.
const trendFlatTolerance = 0.5 // percent

// rollingWindow is the number of points in the rolling average.
const rollingWindow = 3

// ComputeTrend reduces an exercise's set history to a daily best-e1RM
// series. Warmup and failure sets are excluded. Fewer than two data
// points yields an insufficient_data direction, never an error.
func ComputeTrend(exerciseID string, history []models.Set, formula Formula) TrendResponse {
	res := TrendResponse{ExerciseID: exerciseID, Direction: TrendInsufficientData}

	bestByDay := make(map[time.Time]float64)
	for _, s := range history {
		if s.ExerciseID != exerciseID || s.IsWarmup || s.IsFailure {
			continue
		}
		day := truncateDay(s.PerformedAt)
		if v := E1RM(s.WeightLb(), s.Reps, formula).Value; v > bestByDay[day] {
			bestByDay[day] = v
		}
	}
	if len(bestByDay) < 2 {
		return res
	}

	days := make([]time.Time, 0, len(bestByDay))
	for d := range bestByDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	res.Points = make([]TrendPoint, len(days))
	for i, d := range days {
		p := TrendPoint{Date: d, E1RM: bestByDay[d]}
		lo := i - rollingWindow + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		for _, prev := range days[lo : i+1] {
			sum += bestByDay[prev]
		}
		p.RollingAvg = sum / float64(i+1-lo)
		res.Points[i] = p
	}

	first, last := res.Points[0].E1RM, res.Points[len(res.Points)-1].E1RM
	if first > 0 {
		res.PercentChange = (last - first) / first * 100.0
	}
	switch {
	case res.PercentChange > trendFlatTolerance:
		res.Direction = TrendUp
	case res.PercentChange < -trendFlatTolerance:
		res.Direction = TrendDown
	default:
		res.Direction = TrendFlat
	}
	return res
}
