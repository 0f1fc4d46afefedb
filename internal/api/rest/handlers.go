package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fortuna/courtside/internal/pipeline"
	"github.com/fortuna/courtside/internal/store"
	"github.com/fortuna/courtside/internal/store/repository"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db          *store.Database
	pipe        *pipeline.Pipeline
	stagingRepo *repository.StagingRepository
}

// NewHandler creates a new handler
func NewHandler(db *store.Database, pipe *pipeline.Pipeline) *Handler {
	return &Handler{
		db:          db,
		pipe:        pipe,
		stagingRepo: repository.NewStagingRepository(db),
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.db.HealthCheck(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]string{
		"status":  status,
		"service": "courtside",
		"version": "1.0.0",
	})
}

// runRequest is the body of a pipeline run request.
type runRequest struct {
	Date   string `json:"date"`
	Season string `json:"season"`
}

// RunPipeline executes one pipeline run for a date. The run is synchronous;
// the response carries the run summary.
func (h *Handler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	summary, err := h.pipe.Run(r.Context(), req.Date, req.Season)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Pipeline run failed", err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetStagingSummary returns per-date staging row counts.
func (h *Handler) GetStagingSummary(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 14 // default
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	summaries, err := h.stagingRepo.SummaryByDate(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch staging summary", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dates": summaries,
		"count": len(summaries),
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	respondJSON(w, status, response)
}
