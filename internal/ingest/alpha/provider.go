package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/claude/repforge/internal/catalog"
	"github.com/claude/repforge/internal/models"
	"github.com/claude/repforge/internal/storage"
	"github.com/google/uuid"
)

// alphaNamespace seeds deterministic session and set IDs, so re-importing
// the same export is a no-op instead of a duplicate.
var alphaNamespace = uuid.MustParse("7e6a4261-17e0-4b33-a2d4-6f1c0a9e31d5")

// Provider turns Alpha Progression CSV exports into workout submissions.
type Provider struct {
	db           *storage.DB
	catalog      *catalog.Catalog
	lookbackDays int
	log          *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(db *storage.DB, cat *catalog.Catalog, lookbackDays int, log *slog.Logger) *Provider {
	return &Provider{db: db, catalog: cat, lookbackDays: lookbackDays, log: log}
}

// IngestResult is the outcome of one ingest run.
type IngestResult struct {
	SessionsParsed   int     `json:"sessions_parsed"`
	SessionsImported int     `json:"sessions_imported"`
	SessionsSkipped  int     `json:"sessions_skipped"`
	SetsImported     int     `json:"sets_imported"`
	PRsDetected      int     `json:"prs_detected"`
	XPEarned         float64 `json:"xp_earned"`
}

// Ingest parses a CSV export and submits each session through the
// regular processing path, oldest first so streaks and PRs derive in
// order. Already-imported sessions are skipped.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (*IngestResult, error) {
	return p.IngestForUser(ctx, r, 1)
}

// IngestForUser runs the import for a specific user.
func (p *Provider) IngestForUser(ctx context.Context, r io.Reader, userID int) (*IngestResult, error) {
	parsed, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Date.Before(parsed[j].Date) })

	result := &IngestResult{SessionsParsed: len(parsed)}
	for _, ps := range parsed {
		session := p.toWorkoutSession(ps, userID)
		if len(session.Exercises) == 0 {
			result.SessionsSkipped++
			continue
		}
		res, err := p.db.SubmitWorkout(ctx, session, p.catalog, p.lookbackDays, time.Now())
		if errors.Is(err, storage.ErrDuplicateSession) {
			result.SessionsSkipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("submitting session %q: %w", ps.Name, err)
		}
		result.SessionsImported++
		result.SetsImported += len(session.AllSets())
		result.PRsDetected += len(res.PRsAchieved)
		result.XPEarned += res.XPEarned
		p.log.Info("alpha session imported",
			"name", ps.Name,
			"date", ps.Date.Format("2006-01-02"),
			"prs", len(res.PRsAchieved),
			"xp", res.XPEarned,
		)
	}
	return result, nil
}

// toWorkoutSession converts a parsed session. IDs are derived from the
// session date and set position, so the same export maps to the same
// rows every time.
func (p *Provider) toWorkoutSession(ps Session, userID int) models.WorkoutSession {
	sessionKey := fmt.Sprintf("%d|%s", userID, ps.Date.Format(time.RFC3339))
	session := models.WorkoutSession{
		ID:     uuid.NewSHA1(alphaNamespace, []byte(sessionKey)),
		UserID: userID,
		Date:   ps.Date,
	}

	for _, ex := range ps.Exercises {
		exerciseID := p.resolveExerciseID(ex.Name, ex.Equipment)
		slot := models.SessionExercise{ExerciseID: exerciseID}
		for _, sd := range ex.Sets {
			if sd.Reps < 1 {
				continue
			}
			rir := sd.RIR
			setKey := fmt.Sprintf("%s|%d|warm=%t|%d", sessionKey, ex.Number, sd.IsWarmup, sd.Number)
			slot.Sets = append(slot.Sets, models.Set{
				ID:          uuid.NewSHA1(alphaNamespace, []byte(setKey)),
				ExerciseID:  exerciseID,
				Weight:      sd.WeightKg,
				Unit:        models.UnitKg,
				Reps:        sd.Reps,
				RIR:         &rir,
				IsWarmup:    sd.IsWarmup,
				PerformedAt: ps.Date.Add(time.Duration(ex.Number) * 5 * time.Minute),
			})
		}
		if len(slot.Sets) > 0 {
			session.Exercises = append(session.Exercises, slot)
		}
	}
	return session
}

// resolveExerciseID slugs the exported name and prefers a catalog match
// including the equipment qualifier.
func (p *Provider) resolveExerciseID(name, equipment string) string {
	if equipment != "" {
		qualified := slug(equipment + " " + name)
		if _, ok := p.catalog.Exercise(qualified); ok {
			return qualified
		}
	}
	return slug(name)
}

func slug(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
