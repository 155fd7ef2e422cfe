package handler

import (
	"canopy/internal/domain/models"
)

// UpdateNoteRequest carries a note content replacement.
type UpdateNoteRequest struct {
	Content models.Document `json:"content"`
}

// MoveItemRequest carries a generic reparent; null parent_id means root.
type MoveItemRequest struct {
	ParentID *string `json:"parent_id"`
}

// ProcessRequest selects the AI operation to run.
type ProcessRequest struct {
	ProcessKind models.ProcessKind `json:"process_kind"`
}
