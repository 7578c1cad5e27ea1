package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/usecase"
)

// SweepTrigger enqueues one asynchronous processor sweep.
type SweepTrigger func() error

// Server exposes submission, status, and the guarded sweep trigger.
type Server struct {
	itineraryUC *usecase.ItineraryUseCase
	sweep       SweepTrigger
	log         *zerolog.Logger
}

func NewServer(itineraryUC *usecase.ItineraryUseCase, sweep SweepTrigger, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "api").Logger()
	return &Server{itineraryUC: itineraryUC, sweep: sweep, log: &l}
}

// Router assembles the chi mux with the shared middleware chain.
// guards wraps only the internal routes.
func (s *Server) Router(logger *zerolog.Logger, guards ...Middleware) *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(Recover(logger))
	r.Use(RequestLog(logger))
	r.Use(Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/itineraries", s.handleSubmit)
		r.Get("/itineraries/{jobID}", s.handleStatus)
	})

	r.Route("/internal/v1", func(r chi.Router) {
		for _, g := range guards {
			r.Use(g)
		}
		r.Post("/sweep", s.handleSweep)
	})

	return r
}

type submitRequest struct {
	Destination  string `json:"destination"`
	DurationDays int    `json:"durationDays"`
}

type submitResponse struct {
	JobID string `json:"jobId"`
}

// handleSubmit accepts a request, enqueues the job, and responds with the
// job id without waiting for document creation or generation.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	jobID, err := s.itineraryUC.Submit(r.Context(), req.Destination, req.DurationDays)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			s.writeError(w, http.StatusBadRequest, "destination must be a non-empty string and durationDays a positive integer")
			return
		}
		s.log.Error().Err(err).Msg("submit failed")
		s.writeError(w, http.StatusInternalServerError, "could not enqueue job")
		return
	}

	s.writeJSON(w, http.StatusAccepted, submitResponse{JobID: jobID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	view, err := s.itineraryUC.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "unknown job id")
			return
		}
		s.log.Error().Err(err).Str("job_id", jobID).Msg("status query failed")
		s.writeError(w, http.StatusInternalServerError, "could not load job status")
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// handleSweep runs one processor sweep asynchronously. External schedulers
// hit this; the periodic in-process worker covers deployments without one.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if s.sweep == nil {
		s.writeError(w, http.StatusServiceUnavailable, "sweep not available")
		return
	}
	if err := s.sweep(); err != nil {
		s.log.Warn().Err(err).Msg("sweep trigger rejected")
		s.writeError(w, http.StatusServiceUnavailable, "sweep queue saturated")
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "sweep scheduled"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("response encode failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}
