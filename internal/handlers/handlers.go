package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"

	"github.com/tphummel/lab_post/internal/db"
	"github.com/tphummel/lab_post/internal/metrics"
	"github.com/tphummel/lab_post/internal/middleware"
	"github.com/tphummel/lab_post/internal/models"
	"github.com/tphummel/lab_post/internal/post"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	DB *db.DB
	// Machine is the configured computer; requests may override its
	// serial and voltages.
	Machine post.Options
	Version string
	Commit  string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Health handles GET /healthz. No auth required.
// Returns 503 if the database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
		"commit":  h.Commit,
	})
}

// CreateBoot handles POST /api/v1/boots. It runs one power-on self-test and
// records it. A boot that fails its self-test is still a recorded run and is
// returned with 201.
func (h *Handler) CreateBoot(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var req models.BootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	opts := h.Machine
	if req.Serial != nil {
		opts.Serial = *req.Serial
	}
	if req.StandbyVoltage != nil {
		opts.StandbyVoltage = *req.StandbyVoltage
	}
	if req.NormalVoltage != nil {
		opts.NormalVoltage = *req.NormalVoltage
	}
	if math.IsInf(opts.StandbyVoltage, 0) || math.IsInf(opts.NormalVoltage, 0) {
		writeError(w, http.StatusBadRequest, "voltages must be finite")
		return
	}

	logger := slog.Default().With(slog.String("request_id", middleware.RequestID(r.Context())))
	opts.Logger = logger
	opts.Reporter = post.SlogReporter(logger)
	opts.Observer = metrics.DeviceObserver{}

	run, err := post.Boot(r.Context(), opts)
	if err != nil && !errors.Is(err, post.ErrFatal) {
		logger.Error("boot sequence error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to run boot")
		return
	}
	metrics.ObserveBoot(run)

	if err := h.DB.Create(run); err != nil {
		logger.Error("failed to record boot run", "run_id", run.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record boot run")
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

// ListBoots handles GET /api/v1/boots with an optional ?outcome= filter.
func (h *Handler) ListBoots(w http.ResponseWriter, r *http.Request) {
	outcome := r.URL.Query().Get("outcome")
	if outcome != "" && !models.ValidOutcomes[outcome] {
		writeError(w, http.StatusBadRequest, "invalid outcome")
		return
	}

	runs, err := h.DB.List(outcome)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list boot runs")
		return
	}

	if runs == nil {
		runs = []*models.BootRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetBoot handles GET /api/v1/boots/{id}.
func (h *Handler) GetBoot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := h.DB.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "boot run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get boot run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// DeleteBoot handles DELETE /api/v1/boots/{id}.
func (h *Handler) DeleteBoot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.DB.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "boot run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete boot run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
