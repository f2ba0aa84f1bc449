// Package handlers provides HTTP handlers for the analytics API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/internal/modules/metrics"
	"github.com/AlgoGators/algosystem/internal/modules/runs"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 16 << 20

// RunStore persists analysis runs
type RunStore interface {
	Save(ctx context.Context, run runs.Run) (runs.Run, error)
	Get(ctx context.Context, id uuid.UUID) (runs.Run, error)
	List(ctx context.Context, limit int) ([]runs.Run, error)
}

// Config holds the defaults applied when a request leaves a parameter out
type Config struct {
	Metrics           metrics.Options
	VaRConfidence     float64
	MonteCarloSamples int
	MonteCarloSeed    uint64
	SweepWorkers      int
}

// Handler handles analytics HTTP requests
type Handler struct {
	cfg   Config
	calc  *metrics.Calculator
	store RunStore
	log   zerolog.Logger
}

// NewHandler creates a new analytics handler. store may be nil, in which case
// saving and the run endpoints are unavailable.
func NewHandler(cfg Config, store RunStore, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:   cfg,
		calc:  metrics.NewCalculator(),
		store: store,
		log:   log.With().Str("handler", "analytics").Logger(),
	}
}

// options merges a per-request periods_per_year override into the defaults
func (h *Handler) options(periodsPerYear *int) metrics.Options {
	opts := h.cfg.Metrics
	if periodsPerYear != nil && *periodsPerYear > 0 {
		opts.PeriodsPerYear = *periodsPerYear
	}
	return opts
}

// decode reads a JSON body into dst, rejecting unknown fields
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %v", domain.ErrInputShape, err))
		return false
	}
	return true
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInputShape),
		errors.Is(err, domain.ErrEmptyRange),
		errors.Is(err, domain.ErrUnsupportedMethod):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOptimizationFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, runs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errStoreUnavailable = errors.New("run store not configured")

// writeError writes an error envelope. Internal errors are logged and their
// detail is not exposed.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Analytics request failed")
		msg = "internal error"
	}
	h.writeJSON(w, status, map[string]interface{}{
		"error": msg,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeData wraps data in the standard envelope
func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
