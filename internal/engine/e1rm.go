package engine

import (
	"fmt"
	"math"
)

// Formula selects the e1RM estimation formula.
type Formula string

const (
	FormulaEpley    Formula = "epley"
	FormulaBrzycki  Formula = "brzycki"
	FormulaLombardi Formula = "lombardi"
	FormulaWathan   Formula = "wathan"
)

// DefaultFormula is used when a profile carries no preference.
const DefaultFormula = FormulaEpley

// ParseFormula validates a formula name from config or profile.
func ParseFormula(s string) (Formula, error) {
	switch Formula(s) {
	case FormulaEpley, FormulaBrzycki, FormulaLombardi, FormulaWathan:
		return Formula(s), nil
	case "":
		return DefaultFormula, nil
	}
	return "", fmt.Errorf("unknown e1rm formula %q", s)
}

// E1RMResult is an estimate plus its reliability metadata. Estimates
// outside the 1-12 rep range are still returned, flagged low confidence.
type E1RMResult struct {
	Value         float64 `json:"value"`
	Formula       Formula `json:"formula"`
	LowConfidence bool    `json:"low_confidence"`
	// FellBack is set when a formula singularity forced the Epley
	// fallback (Brzycki at reps >= 37).
	FellBack bool `json:"fell_back,omitempty"`
}

// E1RM estimates a one-rep max from weight and reps. Weight must be
// non-negative and reps >= 1; callers validate before reaching here.
// The result is never NaN or Inf.
func E1RM(weight float64, reps int, formula Formula) E1RMResult {
	res := E1RMResult{Formula: formula}
	if formula == "" {
		res.Formula = DefaultFormula
	}

	// A single is not an estimate: the lifted weight is the 1RM. This
	// also keeps every formula exact at reps = 1 (Epley alone would
	// drift 3.3%, Wathan 1.3%).
	if reps == 1 {
		res.Value = weight
		return res
	}

	switch formula {
	case FormulaBrzycki:
		// Singularity at reps = 37; anything close is meaningless.
		if reps >= 37 {
			res.Value = epley(weight, reps)
			res.Formula = FormulaEpley
			res.FellBack = true
			res.LowConfidence = true
			return res
		}
		res.Value = weight * 36.0 / (37.0 - float64(reps))
	case FormulaLombardi:
		res.Value = weight * math.Pow(float64(reps), 0.1)
	case FormulaWathan:
		res.Value = 100.0 * weight / (48.8 + 53.8*math.Exp(-0.075*float64(reps)))
	default:
		res.Value = epley(weight, reps)
		res.Formula = FormulaEpley
	}

	if reps < 1 || reps > 12 {
		res.LowConfidence = true
	}
	return res
}

func epley(weight float64, reps int) float64 {
	return weight * (1.0 + float64(reps)/30.0)
}
