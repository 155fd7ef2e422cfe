package handler

import (
	"log/slog"
	"net/http"

	"canopy/internal/domain/services"
	"canopy/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	hierarchy services.HierarchyService
	logger    *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(hierarchy services.HierarchyService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		hierarchy: hierarchy,
		logger:    logger,
	}
}

// CreateFolder creates a new folder
// POST /folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.hierarchy.CreateFolder(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// UpdateFolder renames and/or moves a folder
// PATCH /folders/{id}
func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req services.UpdateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.hierarchy.UpdateFolder(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder and its whole subtree
// DELETE /folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.hierarchy.DeleteFolder(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveItem reparents any item under a folder (or to the root with a null
// parent_id)
// POST /folders/{id}/move
func (h *FolderHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req MoveItemRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.hierarchy.MoveItem(r.Context(), id, req.ParentID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}
