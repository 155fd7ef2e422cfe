package services

import (
	"context"
	"time"

	"canopy/internal/domain/models"
)

// RunResult reports a completed processing run.
type RunResult struct {
	ChildID     string             `json:"child_id"`
	ProcessKind models.ProcessKind `json:"process_kind"`
}

// ItemStatus is the polling view of a note's processing state.
type ItemStatus struct {
	Status      *models.Status      `json:"status"`
	ProcessKind *models.ProcessKind `json:"process_kind"`
	ErrorDetail *string             `json:"error_detail,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ProcessingService runs the AI pipeline against a note: extract text, call
// the text-generation collaborator, convert the output, and attach the
// result as an ai-note child. The call blocks until the run reaches a
// terminal status; the note is never left in processing when it returns.
type ProcessingService interface {
	// Run executes the pipeline for the given kind. Returns ErrConflict if a
	// run is already in flight for the note.
	Run(ctx context.Context, noteID string, kind models.ProcessKind) (*RunResult, error)

	// Retry re-runs the pipeline with the note's stored process kind.
	// Only valid when the note's status is failed.
	Retry(ctx context.Context, noteID string) (*RunResult, error)

	// Status returns the status fields a poller needs.
	Status(ctx context.Context, noteID string) (*ItemStatus, error)
}

// GenerateRequest is the input to the text-generation collaborator.
type GenerateRequest struct {
	System string // instruction framing for the generation
	Prompt string // kind template applied to the extracted note text
}

// TextGenerator is the external collaborator: one fallible, potentially slow
// call mapping text to generated text.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}
