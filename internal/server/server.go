// Package server exposes the extraction trigger and stored records over a
// small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"secfeed/internal/model"
	"secfeed/internal/pipeline"
	"secfeed/internal/target"
)

// Runner triggers extraction runs.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// RecordLister reads back stored records.
type RecordLister interface {
	ListRecent(ctx context.Context, targetID string, limit int, since time.Time) ([]model.Record, error)
}

type Server struct {
	runner  Runner
	records RecordLister
	logger  *zap.Logger
	router  *mux.Router
	server  *http.Server

	// recencyWindow bounds the records returned by the list endpoint.
	recencyWindow time.Duration
}

// New builds a Server and its routes.
func New(runner Runner, records RecordLister, recencyWindow time.Duration, logger *zap.Logger) *Server {
	s := &Server{
		runner:        runner,
		records:       records,
		logger:        logger,
		router:        mux.NewRouter(),
		recencyWindow: recencyWindow,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/extract", s.handleExtract).Methods(http.MethodPost)
	s.router.HandleFunc("/api/articles/{target}", s.handleArticles).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start launches the HTTP server and blocks.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // extraction runs are slow by design
	}
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
		})
		return
	}

	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, target.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["target"]
	since := time.Now().Add(-s.recencyWindow)

	records, err := s.records.ListRecent(r.Context(), targetID, 50, since)
	if err != nil {
		s.logger.Error("listing records failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to list records",
		})
		return
	}
	if records == nil {
		records = []model.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
