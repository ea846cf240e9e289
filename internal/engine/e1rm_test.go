package engine

import (
	"math"
	"testing"
)

func TestEpleyExact(t *testing.T) {
	// Epley is the reference formula: w·(1+r/30) for the multi-rep range.
	for reps := 2; reps <= 12; reps++ {
		for _, w := range []float64{45, 135, 225, 317.5} {
			want := w * (1 + float64(reps)/30)
			got := E1RM(w, reps, FormulaEpley)
			if math.Abs(got.Value-want) > 1e-9 {
				t.Errorf("E1RM(%v, %d, epley) = %v, want %v", w, reps, got.Value, want)
			}
			if got.LowConfidence {
				t.Errorf("E1RM(%v, %d, epley) flagged low confidence inside 1-12", w, reps)
			}
		}
	}
}

func TestSingleRepIdentity(t *testing.T) {
	// A true single is the 1RM for every formula, within 1%.
	for _, f := range []Formula{FormulaEpley, FormulaBrzycki, FormulaLombardi, FormulaWathan} {
		got := E1RM(200, 1, f)
		if math.Abs(got.Value-200)/200 > 0.01 {
			t.Errorf("E1RM(200, 1, %s) = %v, want ≈200", f, got.Value)
		}
	}
}

func TestFormulaValues(t *testing.T) {
	tests := []struct {
		name    string
		formula Formula
		weight  float64
		reps    int
		want    float64
	}{
		{"epley 100x10", FormulaEpley, 100, 10, 100 * (1 + 10.0/30)},
		{"brzycki 100x10", FormulaBrzycki, 100, 10, 100 * 36 / 27.0},
		{"lombardi 100x10", FormulaLombardi, 100, 10, 100 * math.Pow(10, 0.1)},
		{"wathan 100x10", FormulaWathan, 100, 10, 100 * 100 / (48.8 + 53.8*math.Exp(-0.75))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := E1RM(tt.weight, tt.reps, tt.formula)
			if math.Abs(got.Value-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got.Value, tt.want)
			}
		})
	}
}

func TestBrzyckiSingularityFallsBackToEpley(t *testing.T) {
	for _, reps := range []int{37, 40, 100} {
		got := E1RM(100, reps, FormulaBrzycki)
		if math.IsNaN(got.Value) || math.IsInf(got.Value, 0) || got.Value <= 0 {
			t.Fatalf("E1RM(100, %d, brzycki) = %v, want finite positive", reps, got.Value)
		}
		want := 100 * (1 + float64(reps)/30)
		if math.Abs(got.Value-want) > 1e-9 {
			t.Errorf("E1RM(100, %d, brzycki) = %v, want epley fallback %v", reps, got.Value, want)
		}
		if !got.FellBack || !got.LowConfidence || got.Formula != FormulaEpley {
			t.Errorf("fallback metadata = %+v, want fell_back low-confidence epley", got)
		}
	}
}

func TestLowConfidenceOutsideReliabilityRange(t *testing.T) {
	tests := []struct {
		reps int
		want bool
	}{
		{1, false},
		{12, false},
		{13, true},
		{20, true},
	}
	for _, tt := range tests {
		got := E1RM(100, tt.reps, FormulaEpley)
		if got.LowConfidence != tt.want {
			t.Errorf("E1RM(100, %d) low_confidence = %v, want %v", tt.reps, got.LowConfidence, tt.want)
		}
	}
}

func TestFormulasMonotone(t *testing.T) {
	for _, f := range []Formula{FormulaEpley, FormulaBrzycki, FormulaLombardi, FormulaWathan} {
		// Monotone in weight at fixed reps.
		prev := 0.0
		for _, w := range []float64{50, 100, 150, 200} {
			v := E1RM(w, 5, f).Value
			if v <= prev {
				t.Errorf("%s not monotone in weight: E1RM(%v, 5) = %v <= %v", f, w, v, prev)
			}
			prev = v
		}
		// Monotone in reps within the 1-12 reliability range.
		prev = 0.0
		for reps := 1; reps <= 12; reps++ {
			v := E1RM(100, reps, f).Value
			if v <= prev {
				t.Errorf("%s not monotone in reps: E1RM(100, %d) = %v <= %v", f, reps, v, prev)
			}
			prev = v
		}
	}
}

func TestParseFormula(t *testing.T) {
	tests := []struct {
		in      string
		want    Formula
		wantErr bool
	}{
		{"epley", FormulaEpley, false},
		{"brzycki", FormulaBrzycki, false},
		{"lombardi", FormulaLombardi, false},
		{"wathan", FormulaWathan, false},
		{"", DefaultFormula, false},
		{"sayers", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormula(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormula(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseFormula(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
