package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/repforge/internal/engine"
	"github.com/claude/repforge/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) progressSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	progress, err := h.db.GetProgress(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	prCount, err := h.db.RecordCountSince(ctx, uid, now.AddDate(0, 0, -30))
	if err != nil {
		h.log.Warn("progress_summary: record count failed", "error", err)
	}

	summary := map[string]any{
		"progress":          engine.Snapshot(progress),
		"last_workout_date": progress.LastWorkoutDate,
		"prs_last_30_days":  prCount,
	}

	return jsonResource(req, summary)
}

func (h *handlers) recentRecords(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	records, err := h.db.QueryRecords(ctx, uid, "")
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -30)
	recent := make([]models.PersonalRecord, 0, len(records))
	for _, r := range records {
		if r.AchievedAt.After(cutoff) {
			recent = append(recent, r)
		}
	}

	return jsonResource(req, recent)
}

func (h *handlers) exerciseCatalog(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req, h.catalog.Exercises())
}

func jsonResource(req mcp.ReadResourceRequest, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
