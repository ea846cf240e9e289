package engine

import (
	"math"
	"testing"

	"github.com/claude/repforge/internal/models"
)

func TestComputeTrendInsufficientData(t *testing.T) {
	res := ComputeTrend(bench, []models.Set{lbSet(bench, 135, 5, day(0))}, FormulaEpley)
	if res.Direction != TrendInsufficientData {
		t.Errorf("direction = %v, want insufficient_data for a single point", res.Direction)
	}
	if len(res.Points) != 0 {
		t.Errorf("points = %v, want none", res.Points)
	}
}

func TestComputeTrendDirection(t *testing.T) {
	up := []models.Set{
		lbSet(bench, 135, 5, day(0)),
		lbSet(bench, 145, 5, day(3)),
		lbSet(bench, 155, 5, day(6)),
	}
	res := ComputeTrend(bench, up, FormulaEpley)
	if res.Direction != TrendUp {
		t.Errorf("direction = %v, want up", res.Direction)
	}
	wantChange := (155.0 - 135.0) / 135.0 * 100
	if math.Abs(res.PercentChange-wantChange) > 1e-9 {
		t.Errorf("percent change = %v, want %v", res.PercentChange, wantChange)
	}

	down := []models.Set{
		lbSet(bench, 155, 5, day(0)),
		lbSet(bench, 135, 5, day(3)),
	}
	if res := ComputeTrend(bench, down, FormulaEpley); res.Direction != TrendDown {
		t.Errorf("direction = %v, want down", res.Direction)
	}

	flat := []models.Set{
		lbSet(bench, 155, 5, day(0)),
		lbSet(bench, 155, 5, day(3)),
	}
	if res := ComputeTrend(bench, flat, FormulaEpley); res.Direction != TrendFlat {
		t.Errorf("direction = %v, want flat", res.Direction)
	}
}

func TestComputeTrendDailyBestAndRollingAvg(t *testing.T) {
	sets := []models.Set{
		lbSet(bench, 135, 5, day(0)),
		lbSet(bench, 150, 5, day(0)), // same day, higher: wins the day
		lbSet(bench, 140, 5, day(1)),
		lbSet(bench, 160, 5, day(2)),
	}
	res := ComputeTrend(bench, sets, FormulaEpley)
	if len(res.Points) != 3 {
		t.Fatalf("got %d points, want 3 days", len(res.Points))
	}
	e1 := func(w float64) float64 { return E1RM(w, 5, FormulaEpley).Value }
	if res.Points[0].E1RM != e1(150) {
		t.Errorf("day 0 best = %v, want %v", res.Points[0].E1RM, e1(150))
	}
	wantAvg := (e1(150) + e1(140) + e1(160)) / 3
	if math.Abs(res.Points[2].RollingAvg-wantAvg) > 1e-9 {
		t.Errorf("rolling avg = %v, want %v", res.Points[2].RollingAvg, wantAvg)
	}
}

func TestComputeTrendExcludesWarmupFailureAndOtherExercises(t *testing.T) {
	warm := lbSet(bench, 300, 5, day(0))
	warm.IsWarmup = true
	other := lbSet("leg_press", 400, 5, day(1))
	sets := []models.Set{
		warm,
		other,
		lbSet(bench, 135, 5, day(0)),
		lbSet(bench, 140, 5, day(1)),
	}
	res := ComputeTrend(bench, sets, FormulaEpley)
	if len(res.Points) != 2 {
		t.Fatalf("got %d points, want 2", len(res.Points))
	}
	if res.Points[0].E1RM != E1RM(135, 5, FormulaEpley).Value {
		t.Errorf("warmup leaked into day 0 best: %v", res.Points[0].E1RM)
	}
}
