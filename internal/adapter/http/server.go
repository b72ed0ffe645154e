// Package http exposes the processed datasets over a small JSON/CSV API,
// alongside the usual health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Minseo10803/jibang-vanish/internal/pipeline"
)

// Snapshotter produces processed dataset snapshots on demand.
type Snapshotter interface {
	Snapshot(ctx context.Context, params pipeline.Params) (pipeline.Bundle, error)
	Ready() bool
}

// Server exposes the dataset API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	snapshots  Snapshotter
	defaults   pipeline.Params
	logger     *slog.Logger
}

// Timeouts tunes the underlying http.Server.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
}

// NewServer creates the HTTP server. defaults fills in any snapshot
// parameter a request leaves unset.
func NewServer(addr string, snapshots Snapshotter, defaults pipeline.Params, timeouts Timeouts, logger *slog.Logger) *Server {
	if timeouts.Read <= 0 {
		timeouts.Read = 10 * time.Second
	}
	if timeouts.Write <= 0 {
		timeouts.Write = 60 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  timeouts.Read,
			WriteTimeout: timeouts.Write,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		defaults:  defaults,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/population", s.handlePopulation)
	mux.HandleFunc("GET /api/population.csv", s.handlePopulationCSV)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/centroids", s.handleCentroids)
	mux.HandleFunc("GET /api/reconcile", s.handleReconcile)
	mux.HandleFunc("GET /api/meta", s.handleMeta)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once the first snapshot has been served. Before
// that, load balancers should keep traffic away while the caches warm up.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.snapshots.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handlePopulation(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": bundle.Population,
		"meta":    bundle.Meta,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": bundle.Events,
		"meta":    bundle.Meta,
	})
}

func (s *Server) handlePopulationCSV(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="population.csv"`)
	if err := pipeline.ExportCSV(w, bundle.Population); err != nil {
		// Headers are gone; all we can do is log.
		s.logger.Error("csv export failed mid-stream", "error", err)
	}
}

func (s *Server) handleCentroids(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	if bundle.Meta.BoundaryError != "" {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("boundary source unavailable: %s", bundle.Meta.BoundaryError))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"centroids": bundle.Centroids})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	if bundle.Meta.BoundaryError != "" {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("boundary source unavailable: %s", bundle.Meta.BoundaryError))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"clean":               bundle.Reconciliation.Clean(),
		"missing_in_geometry": bundle.Reconciliation.MissingInGeometry,
		"missing_in_data":     bundle.Reconciliation.MissingInData,
	})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, bundle.Meta)
}

// snapshot parses request params and runs the pipeline, writing the error
// response itself when something goes wrong.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (pipeline.Bundle, bool) {
	params, err := s.parseParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return pipeline.Bundle{}, false
	}

	bundle, err := s.snapshots.Snapshot(r.Context(), params)
	if err != nil {
		s.logger.Error("snapshot failed", "error", err)
		writeError(w, http.StatusBadGateway, "all data sources failed")
		return pipeline.Bundle{}, false
	}
	return bundle, true
}

// parseParams overlays query parameters onto the configured defaults.
func (s *Server) parseParams(r *http.Request) (pipeline.Params, error) {
	params := s.defaults
	q := r.URL.Query()

	var err error
	if params.StartYear, err = intParam(q.Get("start"), params.StartYear); err != nil {
		return params, fmt.Errorf("invalid start year: %w", err)
	}
	if params.EndYear, err = intParam(q.Get("end"), params.EndYear); err != nil {
		return params, fmt.Errorf("invalid end year: %w", err)
	}
	if params.Window, err = intParam(q.Get("window"), params.Window); err != nil {
		return params, fmt.Errorf("invalid window: %w", err)
	}
	if v := q.Get("unit"); v != "" {
		params.Unit = v
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, fmt.Errorf("invalid scale: %w", err)
		}
		params.IndexScale = scale
	}
	return params, nil
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
