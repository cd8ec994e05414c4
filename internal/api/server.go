// Package api implements the HTTP layer of the stroke risk service.
// Handlers are methods on *Server; each handler file owns one resource group.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/stroke-risk-backend/internal/db"
	"github.com/nyashahama/stroke-risk-backend/internal/metrics"
	"github.com/nyashahama/stroke-risk-backend/internal/store"
	"github.com/nyashahama/stroke-risk-backend/internal/worker"
)

// Config holds the values the HTTP layer needs from the environment.
type Config struct {
	// Env is "production", "staging" or "development".
	Env string

	// BatchMaxRecords caps the size of one batch evaluation request.
	BatchMaxRecords int

	// BatchConcurrency bounds how many records of a batch are scored at once.
	BatchConcurrency int
}

// AssessmentStore is the part of *store.Store the handlers use.
type AssessmentStore interface {
	SaveAssessment(ctx context.Context, p store.SaveAssessmentParams) (db.Assessment, error)
	AssessmentByToken(ctx context.Context, token string) (db.Assessment, error)
}

// Server holds the shared handler dependencies.
type Server struct {
	store   AssessmentStore
	worker  worker.Enqueuer
	metrics *metrics.Metrics
	cfg     Config
	logger  *slog.Logger
}

// NewServer wires the chi router. store and enqueuer may be nil, in which case
// the /api/assessments routes are not mounted and the service is stateless.
func NewServer(
	st AssessmentStore,
	enqueuer worker.Enqueuer,
	m *metrics.Metrics,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if cfg.BatchMaxRecords <= 0 {
		cfg.BatchMaxRecords = 100
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 8
	}
	s := &Server{
		store:   st,
		worker:  enqueuer,
		metrics: m,
		cfg:     cfg,
		logger:  logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Operational ───────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Get("/questionnaire", s.handleQuestionnaire)

		// Stateless scoring.
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/evaluate/batch", s.handleEvaluateBatch)

		// Persisted assessments. The access token in the URL is the only
		// credential.
		if s.store != nil {
			r.Post("/assessments", s.handleCreateAssessment)
			r.Get("/assessments/{accessToken}", s.handleGetAssessment)
		}
	})

	return r
}
