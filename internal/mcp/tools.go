package mcp

import (
	"context"
	"time"

	"github.com/claude/repforge/internal/engine"
	"github.com/claude/repforge/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// profileLocation resolves a profile's timezone, falling back to UTC.
func profileLocation(p models.UserProfile) *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// --- Tool definitions ---

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Get the lifter's current progression state: total XP, level, rank tier, and workout streaks."),
)

var toolGetExerciseTrend = mcp.NewTool("get_exercise_trend",
	mcp.WithDescription("Get the estimated 1RM trend for an exercise: one point per training day with a rolling average, overall direction (up/down/flat), and percent change."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID (e.g. barbell_bench_press, barbell_squat, barbell_deadlift)")),
)

var toolGetRecoveryStatus = mcp.NewTool("get_recovery_status",
	mcp.WithDescription("Get per-muscle-group recovery status. Each entry shows the computed cooldown window, hours since last trained, recovery percentage, and whether the muscle is recovered."),
)

var toolGetPercentile = mcp.NewTool("get_percentile",
	mcp.WithDescription("Get the lifter's strength percentile and classification (beginner through elite) for an exercise, based on bodyweight-relative population norms."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID with norms data (e.g. barbell_bench_press)")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Query personal records: estimated-1RM PRs plus rep-bucket weight PRs (best weight at 1, 3, 5, 8, and 10+ reps)."),
	mcp.WithString("exercise", mcp.Description("Filter by exercise ID. Omit for all exercises.")),
)

var toolGetWorkoutSessions = mcp.NewTool("get_workout_sessions",
	mcp.WithDescription("Query workout sessions with their sets (weight, reps, RIR, warmup/failure flags)."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetQuestBoard = mcp.NewTool("get_quest_board",
	mcp.WithDescription("Get today's daily quest board with progress and claim status. Generates the rotation if it does not exist yet."),
)

var toolGetDungeons = mcp.NewTool("get_dungeons",
	mcp.WithDescription("List dungeon challenges (multi-day objective sets) with their objectives, progress, deadlines and status."),
)

var toolGetXPEvents = mcp.NewTool("get_xp_events",
	mcp.WithDescription("Query the XP ledger: individual awards from workouts, PRs, streaks, quests and dungeons."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetTrainingIntensity = mcp.NewTool("get_training_intensity",
	mcp.WithDescription("Analyze training intensity over a window: RIR distribution, failure rate, and per-exercise set/rep/tonnage summaries."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List all known exercises with their muscle mappings and big-three flags."),
)

// --- Tool handlers ---

func (h *handlers) getProgress(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	progress, err := h.db.GetProgress(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(engine.Snapshot(progress))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	uid := UserIDFromContext(ctx)

	profile, err := h.db.GetProfile(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_exercise_trend", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	formula, err := engine.ParseFormula(profile.Formula)
	if err != nil {
		formula = engine.DefaultFormula
	}

	sets, err := h.db.SetsForExercise(ctx, uid, exercise)
	if err != nil {
		h.log.Error("mcp get_exercise_trend", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(engine.ComputeTrend(exercise, sets, formula))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRecoveryStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	profile, err := h.db.GetProfile(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_recovery_status", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	now := time.Now()
	sets, err := h.db.SetsSince(ctx, uid, engine.RecoveryWindowStart(now, h.catalog.LookbackHours()))
	if err != nil {
		h.log.Error("mcp get_recovery_status", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	e1rms, err := h.db.BestE1RMs(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_recovery_status", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	statuses := engine.ComputeRecovery(sets, e1rms, profile.Age, now,
		h.catalog.MuscleFor, h.catalog.BaseHours)

	result, err := mcp.NewToolResultJSON(statuses)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPercentile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	uid := UserIDFromContext(ctx)

	profile, err := h.db.GetProfile(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_percentile", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	e1rms, err := h.db.BestE1RMs(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_percentile", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	e1rmKg := models.KgFromLb(e1rms[exercise])
	result, err := mcp.NewToolResultJSON(engine.Percentile(exercise, e1rmKg, profile, h.catalog.Norms))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	exercise := req.GetString("exercise", "")

	records, err := h.db.QueryRecords(ctx, uid, exercise)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(records)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	uid := UserIDFromContext(ctx)

	sessions, err := h.db.QuerySessionsSince(ctx, uid, start)
	if err != nil {
		h.log.Error("mcp get_workout_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	filtered := sessions[:0]
	for _, s := range sessions {
		if !s.Date.After(end) {
			filtered = append(filtered, s)
		}
	}

	result, err := mcp.NewToolResultJSON(filtered)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getQuestBoard(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	profile, err := h.db.GetProfile(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_quest_board", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	rotationDay := engine.RotationDay(time.Now(), profileLocation(profile))
	quests, err := h.db.QuestBoard(ctx, uid, h.catalog, rotationDay)
	if err != nil {
		h.log.Error("mcp get_quest_board", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"rotation_date": rotationDay,
		"quests":        quests,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDungeons(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	dungeons, err := h.db.DungeonsRefreshed(ctx, uid, time.Now())
	if err != nil {
		h.log.Error("mcp get_dungeons", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(dungeons)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getXPEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	uid := UserIDFromContext(ctx)

	events, err := h.db.QueryXPEvents(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_xp_events", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(events)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingIntensity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	uid := UserIDFromContext(ctx)

	sets, err := h.db.SetsSince(ctx, uid, start)
	if err != nil {
		h.log.Error("mcp get_training_intensity", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	inWindow := sets[:0]
	for _, s := range sets {
		if !s.PerformedAt.After(end) {
			inWindow = append(inWindow, s)
		}
	}

	result, err := mcp.NewToolResultJSON(engine.ComputeIntensity(inWindow))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.catalog.Exercises())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
