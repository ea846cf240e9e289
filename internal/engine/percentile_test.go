package engine

import (
	"math"
	"testing"

	"github.com/claude/repforge/internal/models"
)

var benchNorms = &NormTable{
	ExerciseID: "barbell_bench_press",
	Sex:        models.SexMale,
	Points: []NormPoint{
		{Multiplier: 0.50, Percentile: 5},
		{Multiplier: 1.00, Percentile: 50},
		{Multiplier: 1.50, Percentile: 85},
		{Multiplier: 2.00, Percentile: 98},
	},
}

func normLookup(exerciseID string, sex models.Sex) *NormTable {
	if exerciseID == benchNorms.ExerciseID && sex == benchNorms.Sex {
		return benchNorms
	}
	return nil
}

func maleProfile(bodyweightKg float64) models.UserProfile {
	sex := models.SexMale
	return models.UserProfile{Sex: &sex, BodyweightKg: &bodyweightKg}
}

func TestPercentileInterpolation(t *testing.T) {
	tests := []struct {
		name string
		e1rm float64
		want float64
	}{
		{"exact point", 80, 50},  // multiplier 1.00
		{"midpoint", 100, 67.5},  // multiplier 1.25, between 50 and 85
		{"clamp below", 20, 5},   // multiplier 0.25
		{"clamp above", 200, 98}, // multiplier 2.50
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Percentile("barbell_bench_press", tt.e1rm, maleProfile(80), normLookup)
			if math.Abs(res.Percentile-tt.want) > 1e-9 {
				t.Errorf("percentile = %v, want %v", res.Percentile, tt.want)
			}
			if res.Classification == ClassInsufficientData {
				t.Error("unexpected insufficient_data")
			}
		})
	}
}

func TestPercentileMonotone(t *testing.T) {
	prev := -1.0
	for e1rm := 40.0; e1rm <= 220; e1rm += 5 {
		res := Percentile("barbell_bench_press", e1rm, maleProfile(80), normLookup)
		if res.Percentile < prev {
			t.Fatalf("percentile decreased at e1rm %v: %v < %v", e1rm, res.Percentile, prev)
		}
		prev = res.Percentile
	}
}

func TestPercentileInsufficientData(t *testing.T) {
	sex := models.SexMale
	bw := 80.0
	tests := []struct {
		name    string
		e1rm    float64
		profile models.UserProfile
	}{
		{"no e1rm", 0, maleProfile(80)},
		{"no sex", 100, models.UserProfile{BodyweightKg: &bw}},
		{"no bodyweight", 100, models.UserProfile{Sex: &sex}},
		{"unknown exercise table", 100, maleProfile(80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exercise := "barbell_bench_press"
			if tt.name == "unknown exercise table" {
				exercise = "lateral_raise"
			}
			res := Percentile(exercise, tt.e1rm, tt.profile, normLookup)
			if res.Classification != ClassInsufficientData {
				t.Errorf("classification = %v, want insufficient_data", res.Classification)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		percentile float64
		want       Classification
	}{
		{0, ClassBeginner},
		{19.9, ClassBeginner},
		{20, ClassNovice},
		{49.9, ClassNovice},
		{50, ClassIntermediate},
		{79.9, ClassIntermediate},
		{80, ClassAdvanced},
		{94.9, ClassAdvanced},
		{95, ClassElite},
		{100, ClassElite},
	}
	for _, tt := range tests {
		if got := Classify(tt.percentile); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.percentile, got, tt.want)
		}
	}
}
