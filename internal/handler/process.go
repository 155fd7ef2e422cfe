package handler

import (
	"log/slog"
	"net/http"

	"canopy/internal/domain/services"
	"canopy/internal/httputil"
)

// ProcessHandler handles AI-processing HTTP requests
type ProcessHandler struct {
	processing services.ProcessingService
	logger     *slog.Logger
}

// NewProcessHandler creates a new process handler
func NewProcessHandler(processing services.ProcessingService, logger *slog.Logger) *ProcessHandler {
	return &ProcessHandler{
		processing: processing,
		logger:     logger,
	}
}

// Process triggers a processing run and blocks until it reaches a terminal
// status. Completion is observed by polling the status endpoint, so clients
// that don't want to hold the request open can fire it and poll.
// POST /items/{id}/process
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req ProcessRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.processing.Run(r.Context(), id, req.ProcessKind)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Retry re-runs processing for a failed note with its stored kind
// POST /items/{id}/retry
func (h *ProcessHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	result, err := h.processing.Retry(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// GetStatus returns the polling view of a note's processing state
// GET /items/{id}/status
func (h *ProcessHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	status, err := h.processing.Status(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, status)
}
