// Package api exposes the HTTP interface for the analyzer service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/analytics"
	"github.com/vitran/ecfr-analyzer/internal/metrics"
	"github.com/vitran/ecfr-analyzer/internal/pipeline"
	"github.com/vitran/ecfr-analyzer/internal/storage"
)

const (
	defaultAgencyLimit = 50
	defaultTopLimit    = 5
)

// Server wires HTTP handlers to the pipeline and the snapshot store.
type Server struct {
	router    chi.Router
	store     storage.Store
	analytics *analytics.Service
	pipeline  *pipeline.Service
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	store storage.Store,
	an *analytics.Service,
	pl *pipeline.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		store:     store,
		analytics: an,
		pipeline:  pl,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/report", s.getReport)
		r.Get("/titles", s.getTitles)
		r.Route("/agencies", func(r chi.Router) {
			r.Get("/", s.getAgencies)
			r.Get("/top", s.getTopAgencies)
		})
		r.Route("/sync", func(r chi.Router) {
			r.Post("/force", s.forceSync)
			r.Get("/status", s.getSyncStatus)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	titles, err := s.store.LoadTitles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	writeJSON(w, http.StatusOK, s.analytics.GenerateReport(titles))
}

func (s *Server) getTitles(w http.ResponseWriter, r *http.Request) {
	titles, err := s.store.LoadTitles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(titles),
		"titles": titles,
	})
}

func (s *Server) getAgencies(w http.ResponseWriter, r *http.Request) {
	titles, err := s.store.LoadTitles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	sortBy := r.URL.Query().Get("sortBy")
	if sortBy == "" {
		sortBy = analytics.MetricRegulations
	}
	limit := intQuery(r, "limit", defaultAgencyLimit)
	writeJSON(w, http.StatusOK, s.analytics.TopAgenciesByMetric(titles, sortBy, limit))
}

func (s *Server) getTopAgencies(w http.ResponseWriter, r *http.Request) {
	titles, err := s.store.LoadTitles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	limit := intQuery(r, "limit", defaultTopLimit)
	writeJSON(w, http.StatusOK, map[string]any{
		"by_regulations": s.analytics.TopAgenciesByMetric(titles, analytics.MetricRegulations, limit),
		"by_words":       s.analytics.TopAgenciesByMetric(titles, analytics.MetricWords, limit),
		"by_complexity":  s.analytics.TopAgenciesByMetric(titles, analytics.MetricComplexity, limit),
	})
}

func (s *Server) forceSync(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Start(r.Context()); err != nil {
		if errors.Is(err, pipeline.ErrSyncInProgress) {
			writeError(w, http.StatusConflict, "sync already in progress")
			return
		}
		s.logger.Error("forced sync failed to start", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sync failed to start")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":     "started",
		"status_url": "/api/sync/status",
	})
}

func (s *Server) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"in_progress": s.pipeline.InProgress(),
	}
	if last, ok := s.pipeline.LastRunTime(); ok {
		resp["last_run"] = last
	}
	if stored, ok, err := s.store.LastUpdateTime(r.Context()); err == nil && ok {
		resp["snapshot_updated"] = stored
	}
	writeJSON(w, http.StatusOK, resp)
}

func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type requestIDKey struct{}

// RequestID extracts the request id injected by the middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
