package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"canopy/internal/domain/services"
	"canopy/internal/httputil"
)

// ItemHandler handles item HTTP requests
type ItemHandler struct {
	hierarchy services.HierarchyService
	logger    *slog.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(hierarchy services.HierarchyService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		hierarchy: hierarchy,
		logger:    logger,
	}
}

// HealthCheck reports liveness
// GET /health
func (h *ItemHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListItems returns the flat list of every item
// GET /items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.hierarchy.ListAll(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, items)
}

// ListRoots returns root-level items
// GET /items/roots
func (h *ItemHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	items, err := h.hierarchy.ListRoots(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, items)
}

// GetForest returns the fully nested forest derivation
// GET /tree
func (h *ItemHandler) GetForest(w http.ResponseWriter, r *http.Request) {
	forest, err := h.hierarchy.GetForest(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, forest)
}

// GetItem returns a single item
// GET /items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.hierarchy.GetItem(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// ListChildren returns the direct children of a folder
// GET /items/{id}/children
func (h *ItemHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	items, err := h.hierarchy.ListChildren(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, items)
}

// GetSubtree returns an item and all its descendants, depth-ordered
// GET /items/{id}/tree
func (h *ItemHandler) GetSubtree(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	items, err := h.hierarchy.ListSubtree(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, items)
}

// CreateNote creates a new note in draft status
// POST /items
func (h *ItemHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req services.CreateNoteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.hierarchy.CreateNote(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, item)
}

// UpdateNote replaces a note's content
// PATCH /items/{id}
func (h *ItemHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.hierarchy.UpdateNoteContent(r.Context(), id, req.Content)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// DeleteItem deletes any item and its whole subtree
// DELETE /items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.hierarchy.DeleteItem(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// itemID extracts and validates the {id} path parameter. A malformed id can
// never match a stored UUID, so it is rejected before touching the store.
func itemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.RespondError(w, http.StatusNotFound, "item not found")
		return "", false
	}
	return id, true
}
