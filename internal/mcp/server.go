// Package mcp exposes the training data over the Model Context
// Protocol so an LLM client can query trends, records, recovery and
// the progression ledger directly.
package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/repforge/internal/catalog"
	"github.com/claude/repforge/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(db *storage.DB, cat *catalog.Catalog, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepForge", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepForge strength progression server. Query estimated 1RM trends, personal records, muscle recovery status, strength percentiles, and the XP/quest/dungeon ledger. All data is scoped to the authenticated lifter."),
	)

	h := &handlers{db: db, catalog: cat, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetExerciseTrend, Handler: h.getExerciseTrend},
		server.ServerTool{Tool: toolGetRecoveryStatus, Handler: h.getRecoveryStatus},
		server.ServerTool{Tool: toolGetPercentile, Handler: h.getPercentile},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetWorkoutSessions, Handler: h.getWorkoutSessions},
		server.ServerTool{Tool: toolGetQuestBoard, Handler: h.getQuestBoard},
		server.ServerTool{Tool: toolGetDungeons, Handler: h.getDungeons},
		server.ServerTool{Tool: toolGetXPEvents, Handler: h.getXPEvents},
		server.ServerTool{Tool: toolGetTrainingIntensity, Handler: h.getTrainingIntensity},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resProgressSummary, Handler: h.progressSummary},
		server.ServerResource{Resource: resRecentRecords, Handler: h.recentRecords},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	db      *storage.DB
	catalog *catalog.Catalog
	log     *slog.Logger
}

// --- Resource definitions ---

var resProgressSummary = mcp.NewResource(
	"repforge://progress_summary",
	"Progress Summary",
	mcp.WithResourceDescription("Current level, rank, XP, streak, and recent PR count"),
	mcp.WithMIMEType("application/json"),
)

var resRecentRecords = mcp.NewResource(
	"repforge://recent_records",
	"Recent Personal Records",
	mcp.WithResourceDescription("Personal records achieved in the last 30 days"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"repforge://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All known exercises with muscle mappings and big-three flags"),
	mcp.WithMIMEType("application/json"),
)
