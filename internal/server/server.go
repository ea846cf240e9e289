package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/repforge/internal/catalog"
	"github.com/claude/repforge/internal/ingest/alpha"
	"github.com/claude/repforge/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db           *storage.DB
	catalog      *catalog.Catalog
	alpha        *alpha.Provider
	log          *slog.Logger
	apiKey       string
	lookbackDays int
	router       chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, cat *catalog.Catalog, alphaProvider *alpha.Provider, apiKey string, lookbackDays int, log *slog.Logger) *Server {
	s := &Server{
		db:           db,
		catalog:      cat,
		alpha:        alphaProvider,
		log:          log,
		apiKey:       apiKey,
		lookbackDays: lookbackDays,
		router:       chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Write endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/workouts", s.handleSubmitWorkout)
		r.Post("/api/v1/ingest/alpha", s.handleAlphaIngest)
		r.Put("/api/v1/profile", s.handleUpdateProfile)
		r.Post("/api/v1/quests/{id}/claim", s.handleClaimQuest)
		r.Post("/api/v1/dungeons/{id}/accept", s.handleAcceptDungeon)
		r.Post("/api/v1/dungeons/{id}/abandon", s.handleAbandonDungeon)
		r.Post("/api/v1/dungeons/{id}/claim", s.handleClaimDungeon)
	})

	// Read endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/profile", s.handleGetProfile)
	s.router.Get("/api/v1/progress", s.handleProgress)
	s.router.Get("/api/v1/records", s.handleRecords)
	s.router.Get("/api/v1/recovery", s.handleRecovery)
	s.router.Get("/api/v1/exercises/{id}/trend", s.handleTrend)
	s.router.Get("/api/v1/exercises/{id}/percentile", s.handlePercentile)
	s.router.Get("/api/v1/quests", s.handleQuests)
	s.router.Get("/api/v1/dungeons", s.handleDungeons)
	s.router.Get("/api/v1/xp/events", s.handleXPEvents)
	s.router.Get("/api/v1/intensity", s.handleIntensity)
	s.router.Get("/api/v1/stats", s.handleStats)
}
