package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/repforge/internal/engine"
	"github.com/claude/repforge/internal/storage"
)

// TestWriteErrorMapping verifies that domain errors map onto the right
// status codes: bad input 400, lifecycle conflicts 409, missing rows
// 404, everything else 500.
func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &engine.ValidationError{Field: "reps", Reason: "must be >= 1"}, http.StatusBadRequest},
		{"stale state", &engine.StaleStateError{Entity: "quest", ID: "x", State: "claimed"}, http.StatusConflict},
		{"duplicate session", fmt.Errorf("submit: %w", storage.ErrDuplicateSession), http.StatusConflict},
		{"not found", fmt.Errorf("dungeon x: %w", storage.ErrNotFound), http.StatusNotFound},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	s := &Server{log: slog.Default()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeError(rec, "op", tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if body["error"] == "" {
				t.Error("error body is empty")
			}
		})
	}
}

// TestParseTimeRangeDefaults verifies that an empty query yields the
// last seven days.
func TestParseTimeRangeDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := end.Sub(start); got < 6*24*time.Hour || got > 8*24*time.Hour {
		t.Errorf("range = %v, want about 7 days", got)
	}
}

// TestParseTimeRangeDateOnly verifies date-only bounds include the whole
// end day.
func TestParseTimeRangeDateOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?start=2026-08-01&end=2026-08-02", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Format("2006-01-02") != "2026-08-01" {
		t.Errorf("start = %v", start)
	}
	if want := start.AddDate(0, 0, 2); !end.Equal(want) {
		t.Errorf("end = %v, want %v (end of the named day)", end, want)
	}
}

// TestParseTimeRangeInvalid verifies garbage input is rejected.
func TestParseTimeRangeInvalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?start=yesterday", nil)
	if _, _, err := parseTimeRange(req); err == nil {
		t.Fatal("expected parse error")
	}
}
