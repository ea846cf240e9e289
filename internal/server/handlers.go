package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/claude/repforge/internal/engine"
	"github.com/claude/repforge/internal/models"
	"github.com/claude/repforge/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// defaultUserID is the single-tenant user. Access control sits on the
// tsnet boundary, not in the API.
const defaultUserID = 1

func (s *Server) handleSubmitWorkout(w http.ResponseWriter, r *http.Request) {
	var session models.WorkoutSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.UserID == 0 {
		session.UserID = defaultUserID
	}
	for i := range session.Exercises {
		for j := range session.Exercises[i].Sets {
			if session.Exercises[i].Sets[j].ID == uuid.Nil {
				session.Exercises[i].Sets[j].ID = uuid.New()
			}
		}
	}

	result, err := s.db.SubmitWorkout(r.Context(), session, s.catalog, s.lookbackDays, time.Now())
	if err != nil {
		s.writeError(w, "submit workout", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAlphaIngest(w http.ResponseWriter, r *http.Request) {
	result, err := s.alpha.Ingest(r.Context(), r.Body)
	if err != nil {
		s.log.Error("alpha ingest error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.db.GetProfile(r.Context(), defaultUserID)
	if err != nil {
		s.writeError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	profile.UserID = defaultUserID
	if profile.Formula == "" {
		profile.Formula = string(engine.DefaultFormula)
	}
	if _, err := engine.ParseFormula(profile.Formula); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if profile.Timezone != "" {
		if _, err := time.LoadLocation(profile.Timezone); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid timezone"})
			return
		}
	}
	if err := s.db.UpsertProfile(r.Context(), profile); err != nil {
		s.writeError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.db.GetProgress(r.Context(), defaultUserID)
	if err != nil {
		s.writeError(w, "get progress", err)
		return
	}
	writeJSON(w, http.StatusOK, engine.Snapshot(progress))
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.QueryRecords(r.Context(), defaultUserID, r.URL.Query().Get("exercise"))
	if err != nil {
		s.writeError(w, "query records", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRecovery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := s.db.GetProfile(ctx, defaultUserID)
	if err != nil {
		s.writeError(w, "get profile", err)
		return
	}
	now := time.Now()
	since := engine.RecoveryWindowStart(now, s.catalog.LookbackHours())
	sets, err := s.db.SetsSince(ctx, defaultUserID, since)
	if err != nil {
		s.writeError(w, "query sets", err)
		return
	}
	e1rms, err := s.db.BestE1RMs(ctx, defaultUserID)
	if err != nil {
		s.writeError(w, "query e1RMs", err)
		return
	}
	statuses := engine.ComputeRecovery(sets, e1rms, profile.Age, now,
		s.catalog.MuscleFor, s.catalog.BaseHours)
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	exerciseID := chi.URLParam(r, "id")
	profile, err := s.db.GetProfile(r.Context(), defaultUserID)
	if err != nil {
		s.writeError(w, "get profile", err)
		return
	}
	formula, err := engine.ParseFormula(profile.Formula)
	if err != nil {
		formula = engine.DefaultFormula
	}
	sets, err := s.db.SetsForExercise(r.Context(), defaultUserID, exerciseID)
	if err != nil {
		s.writeError(w, "query sets", err)
		return
	}
	writeJSON(w, http.StatusOK, engine.ComputeTrend(exerciseID, sets, formula))
}

func (s *Server) handlePercentile(w http.ResponseWriter, r *http.Request) {
	exerciseID := chi.URLParam(r, "id")
	profile, err := s.db.GetProfile(r.Context(), defaultUserID)
	if err != nil {
		s.writeError(w, "get profile", err)
		return
	}
	e1rms, err := s.db.BestE1RMs(r.Context(), defaultUserID)
	if err != nil {
		s.writeError(w, "query e1RMs", err)
		return
	}
	e1rmKg := models.KgFromLb(e1rms[exerciseID])
	writeJSON(w, http.StatusOK, engine.Percentile(exerciseID, e1rmKg, profile, s.catalog.Norms))
}

func (s *Server) handleQuests(w http.ResponseWriter, r *http.Request) {
	profile, err := s.db.GetProfile(r.Context(), defaultUserID)
	if err != nil {
		s.writeError(w, "get profile", err)
		return
	}
	rotationDay := engine.RotationDay(time.Now(), profileLocation(profile))
	quests, err := s.db.QuestBoard(r.Context(), defaultUserID, s.catalog, rotationDay)
	if err != nil {
		s.writeError(w, "quest board", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rotation_date": rotationDay,
		"quests":        quests,
	})
}

func (s *Server) handleClaimQuest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quest ID"})
		return
	}
	quest, progress, err := s.db.ClaimQuest(r.Context(), defaultUserID, id, time.Now())
	if err != nil {
		s.writeError(w, "claim quest", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quest":     quest,
		"xp_earned": quest.XPReward,
		"progress":  engine.Snapshot(progress),
	})
}

func (s *Server) handleDungeons(w http.ResponseWriter, r *http.Request) {
	dungeons, err := s.db.DungeonsRefreshed(r.Context(), defaultUserID, time.Now())
	if err != nil {
		s.writeError(w, "list dungeons", err)
		return
	}
	writeJSON(w, http.StatusOK, dungeons)
}

func (s *Server) handleAcceptDungeon(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dungeon ID"})
		return
	}
	existing, err := s.db.GetDungeon(r.Context(), defaultUserID, id)
	if err != nil {
		s.writeError(w, "get dungeon", err)
		return
	}
	duration := s.dungeonDuration(existing.TemplateID)
	dungeon, err := s.db.AcceptDungeon(r.Context(), defaultUserID, id, duration, time.Now())
	if err != nil {
		s.writeError(w, "accept dungeon", err)
		return
	}
	writeJSON(w, http.StatusOK, dungeon)
}

func (s *Server) handleAbandonDungeon(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dungeon ID"})
		return
	}
	dungeon, err := s.db.AbandonDungeon(r.Context(), defaultUserID, id, time.Now())
	if err != nil {
		s.writeError(w, "abandon dungeon", err)
		return
	}
	writeJSON(w, http.StatusOK, dungeon)
}

func (s *Server) handleClaimDungeon(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dungeon ID"})
		return
	}
	dungeon, xp, progress, err := s.db.ClaimDungeon(r.Context(), defaultUserID, id, time.Now())
	if err != nil {
		s.writeError(w, "claim dungeon", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dungeon":   dungeon,
		"xp_earned": xp,
		"progress":  engine.Snapshot(progress),
	})
}

func (s *Server) handleXPEvents(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	events, err := s.db.QueryXPEvents(r.Context(), defaultUserID, start, end)
	if err != nil {
		s.writeError(w, "query xp events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleIntensity(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sets, err := s.db.SetsSince(r.Context(), defaultUserID, start)
	if err != nil {
		s.writeError(w, "query sets", err)
		return
	}
	inWindow := sets[:0]
	for _, set := range sets {
		if !set.PerformedAt.After(end) {
			inWindow = append(inWindow, set)
		}
	}
	writeJSON(w, http.StatusOK, engine.ComputeIntensity(inWindow))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context(), defaultUserID)
	if err != nil {
		s.writeError(w, "query stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// dungeonDuration resolves a template's clock length; unknown templates
// fall back to a week.
func (s *Server) dungeonDuration(templateID string) int {
	for _, t := range s.catalog.DungeonTemplates() {
		if t.ID == templateID {
			return t.DurationDays
		}
	}
	return 7
}

func profileLocation(profile models.UserProfile) *time.Location {
	if profile.Timezone != "" {
		if loc, err := time.LoadLocation(profile.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// writeError maps domain errors onto status codes: invalid input is 400,
// lifecycle conflicts are 409, missing entities 404, the rest 500.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	var ve *engine.ValidationError
	var sse *engine.StaleStateError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
	case errors.As(err, &sse):
		writeJSON(w, http.StatusConflict, map[string]string{"error": sse.Error()})
	case errors.Is(err, storage.ErrDuplicateSession):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.log.Error(op, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 7 days
		end = time.Now()
		start = end.AddDate(0, 0, -7)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
