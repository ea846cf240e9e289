package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/claude/repforge/internal/models"
)

func validSession() models.WorkoutSession {
	return models.WorkoutSession{
		UserID: 1,
		Date:   time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC),
		Exercises: []models.SessionExercise{
			{ExerciseID: "barbell_bench_press", Sets: []models.Set{
				{Weight: 100, Unit: models.UnitLb, Reps: 5},
			}},
		},
	}
}

func TestValidateSession(t *testing.T) {
	bad := func(mutate func(*models.WorkoutSession)) models.WorkoutSession {
		s := validSession()
		mutate(&s)
		return s
	}
	rpe := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		session models.WorkoutSession
		wantErr bool
	}{
		{"valid", validSession(), false},
		{"zero user", bad(func(s *models.WorkoutSession) { s.UserID = 0 }), true},
		{"no date", bad(func(s *models.WorkoutSession) { s.Date = time.Time{} }), true},
		{"no exercises", bad(func(s *models.WorkoutSession) { s.Exercises = nil }), true},
		{"negative weight", bad(func(s *models.WorkoutSession) { s.Exercises[0].Sets[0].Weight = -10 }), true},
		{"zero reps", bad(func(s *models.WorkoutSession) { s.Exercises[0].Sets[0].Reps = 0 }), true},
		{"bad unit", bad(func(s *models.WorkoutSession) { s.Exercises[0].Sets[0].Unit = "stone" }), true},
		{"rpe too high", bad(func(s *models.WorkoutSession) { s.Exercises[0].Sets[0].RPE = rpe(10.5) }), true},
		{"rpe boundary ok", bad(func(s *models.WorkoutSession) { s.Exercises[0].Sets[0].RPE = rpe(10) }), false},
		{"session rpe negative", bad(func(s *models.WorkoutSession) { s.SessionRPE = rpe(-1) }), true},
		{"empty exercise id", bad(func(s *models.WorkoutSession) { s.Exercises[0].ExerciseID = "" }), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSession(tt.session)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("error type = %T, want *ValidationError", err)
				}
			}
		})
	}
}
