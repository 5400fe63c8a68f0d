// Package server exposes the optimization engine over HTTP and tracks the
// lifecycle of submitted runs.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/voltforge/stackopt/internal/logging"
	"github.com/voltforge/stackopt/internal/optimization"
	"github.com/voltforge/stackopt/internal/optimization/engine"
)

// Run lifecycle states. Completed, failed, and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Job tracks one submitted optimization. All fields are guarded by the
// server's mutex; the Report is written once and never mutated after.
type Job struct {
	ID          string                 `json:"id"`
	Status      string                 `json:"status"`
	Algorithm   optimization.Algorithm `json:"algorithm"`
	SubmittedAt time.Time              `json:"submittedAt"`
	FinishedAt  *time.Time             `json:"finishedAt,omitempty"`
	Report      *engine.Report         `json:"report,omitempty"`
	Error       string                 `json:"error,omitempty"`

	cancel context.CancelFunc
}

// Server runs optimizations in the background and serves their state.
// Reports are held in memory only; a restart forgets finished runs.
type Server struct {
	engine *engine.Engine
	logger *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
	seq  atomic.Uint64
}

// New creates a server over the engine.
func New(eng *engine.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine: eng,
		logger: logger.Named("server"),
		jobs:   make(map[string]*Job),
	}
}

// RegisterRoutes mounts the API onto r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimizations", s.handleCreate)
		r.Get("/optimizations/{id}", s.handleGet)
		r.Delete("/optimizations/{id}", s.handleCancel)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreate accepts a run, registers it as pending, and starts it in the
// background. The run's context is detached from the request so the job
// outlives this call; DELETE is the way to abandon it.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:          fmt.Sprintf("opt_%d", s.seq.Add(1)),
		Status:      StatusPending,
		Algorithm:   engine.EffectiveAlgorithm(req.Params.Algorithm),
		SubmittedAt: time.Now(),
		cancel:      cancel,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	runsStarted.WithLabelValues(string(job.Algorithm)).Inc()
	s.logger.Info("optimization accepted",
		zap.String("id", job.ID),
		zap.String("algorithm", string(job.Algorithm)))

	go s.run(ctx, job.ID, req)

	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"id":     job.ID,
		"status": job.Status,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	job, ok := s.jobs[id]
	var snapshot Job
	if ok {
		snapshot = *job
	}
	s.mu.RUnlock()

	if !ok {
		s.respondError(w, r, http.StatusNotFound, "optimization not found")
		return
	}
	s.respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		s.respondError(w, r, http.StatusNotFound, "optimization not found")
		return
	}
	switch job.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		status := job.Status
		s.mu.Unlock()
		s.respondError(w, r, http.StatusConflict,
			fmt.Sprintf("cannot cancel optimization in status %q", status))
		return
	}

	job.Status = StatusCancelled
	now := time.Now()
	job.FinishedAt = &now
	job.cancel()
	snapshot := *job
	s.mu.Unlock()

	runsFinished.WithLabelValues(string(snapshot.Algorithm), StatusCancelled).Inc()
	s.logger.Info("optimization cancelled", zap.String("id", id))
	s.respondJSON(w, http.StatusOK, snapshot)
}

// run executes one job to completion. A job cancelled mid-run keeps its
// cancelled status; the aborted engine error is discarded.
func (s *Server) run(ctx context.Context, id string, req engine.Request) {
	s.markRunning(id)

	start := time.Now()
	report, err := s.engine.Run(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != StatusRunning {
		return
	}

	now := time.Now()
	job.FinishedAt = &now
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		s.logger.Error("optimization failed", zap.String("id", id), zap.Error(err))
	} else {
		job.Status = StatusCompleted
		job.Report = report
	}

	runsFinished.WithLabelValues(string(job.Algorithm), job.Status).Inc()
	runDuration.WithLabelValues(string(job.Algorithm)).Observe(time.Since(start).Seconds())
}

func (s *Server) markRunning(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok && job.Status == StatusPending {
		job.Status = StatusRunning
	}
}

// Close cancels every non-terminal job.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.Status == StatusPending || job.Status == StatusRunning {
			job.cancel()
		}
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encoding failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Warn("request rejected",
		zap.Int("status", status),
		zap.String("reason", message))
	s.respondJSON(w, status, map[string]string{"error": message})
}
