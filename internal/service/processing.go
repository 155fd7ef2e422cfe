package service

import (
	"context"
	"fmt"
	"log/slog"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/repositories"
	"canopy/internal/domain/services"
	"canopy/internal/richtext"
	"canopy/internal/service/textgen"
)

type processingService struct {
	repo      repositories.ItemRepository
	generator services.TextGenerator
	prompts   *textgen.PromptRegistry
	logger    *slog.Logger
}

// NewProcessingService creates a new processing service
func NewProcessingService(
	repo repositories.ItemRepository,
	generator services.TextGenerator,
	prompts *textgen.PromptRegistry,
	logger *slog.Logger,
) services.ProcessingService {
	return &processingService{
		repo:      repo,
		generator: generator,
		prompts:   prompts,
		logger:    logger,
	}
}

// Run executes one processing pipeline: claim the note, extract its text,
// call the collaborator, convert the output, insert the ai-note child, and
// record the terminal status.
//
// The steps after the claim are deliberately not wrapped in a transaction: a
// crash between the claim and the terminal SetStatus leaves the note in
// processing with no ai-note and no automatic recovery, and such a note
// cannot be retried without an out-of-band status reset (retry only fires
// from failed). Known gap, kept as-is; the claim itself is a single
// conditional UPDATE so two concurrent runs cannot both start.
func (s *processingService) Run(ctx context.Context, noteID string, kind models.ProcessKind) (*services.RunResult, error) {
	// Validate the kind before any state change
	if err := ValidateProcessKind(kind); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	note, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.IsFolder() {
		return nil, &domain.InvalidVariantError{Message: "folders cannot be processed"}
	}

	claimed, err := s.repo.ClaimForProcessing(ctx, noteID, kind)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// The note exists and is not a folder, so the claim lost to a run
		// already in flight.
		return nil, &domain.ConflictError{
			Message:    "a processing run is already in flight for this note",
			ResourceID: noteID,
		}
	}

	s.logger.Info("processing run started",
		"note_id", noteID,
		"process_kind", kind,
		"provider", s.generator.Name(),
	)

	// Once claimed, the note must reach a terminal status even if the client
	// disconnects mid-generation: the writes after the collaborator call run
	// detached from request cancellation, or the note would stay processing
	// with no retry path.
	persistCtx := context.WithoutCancel(ctx)

	child, runErr := s.execute(ctx, persistCtx, note, kind)
	if runErr != nil {
		detail := runErr.Error()
		if err := s.repo.SetStatus(persistCtx, noteID, models.StatusFailed, &detail); err != nil {
			s.logger.Error("failed to record failed status",
				"note_id", noteID,
				"error", err,
			)
		}
		s.logger.Warn("processing run failed",
			"note_id", noteID,
			"process_kind", kind,
			"error", runErr,
		)
		return nil, &domain.GenerationError{Message: detail}
	}

	// Success clears any previous error detail
	if err := s.repo.SetStatus(persistCtx, noteID, models.StatusComplete, nil); err != nil {
		return nil, err
	}

	s.logger.Info("processing run complete",
		"note_id", noteID,
		"process_kind", kind,
		"child_id", child.ID,
	)

	return &services.RunResult{
		ChildID:     child.ID,
		ProcessKind: kind,
	}, nil
}

// execute is steps 2-5 of the pipeline; any error maps to the failed
// transition in Run. The generation call observes ctx so a caller can still
// abort it; the child insert uses persistCtx because by then the output
// exists and must be recorded alongside the terminal status.
func (s *processingService) execute(ctx, persistCtx context.Context, note *models.Item, kind models.ProcessKind) (*models.Item, error) {
	text := richtext.ExtractText(note.Content)
	if text == "" {
		return nil, fmt.Errorf("note content is empty")
	}

	system, prompt, err := s.prompts.Render(kind, text)
	if err != nil {
		return nil, err
	}

	// The sole long blocking call of the system
	output, err := s.generator.Generate(ctx, &services.GenerateRequest{
		System: system,
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("text generation: %w", err)
	}

	doc := richtext.MarkdownToDocument(output)

	status := models.StatusComplete
	child := &models.Item{
		ParentID:    &note.ID,
		Variant:     models.VariantAINote,
		Content:     doc,
		ProcessKind: &kind,
		Status:      &status,
	}
	if err := s.repo.Create(persistCtx, child); err != nil {
		return nil, fmt.Errorf("persist generated note: %w", err)
	}

	return child, nil
}

// Retry re-runs the pipeline with the note's stored process kind. Only a
// note in failed status qualifies; a note stuck in processing cannot be
// retried from here.
func (s *processingService) Retry(ctx context.Context, noteID string) (*services.RunResult, error) {
	note, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.IsFolder() {
		return nil, &domain.InvalidVariantError{Message: "folders cannot be processed"}
	}
	if note.Status == nil || *note.Status != models.StatusFailed {
		return nil, &domain.ValidationError{Message: "only a failed note can be retried"}
	}
	if note.ProcessKind == nil {
		return nil, &domain.ValidationError{Message: "note has no recorded process kind"}
	}

	return s.Run(ctx, noteID, *note.ProcessKind)
}

// Status returns the fields a polling client needs to observe a run.
func (s *processingService) Status(ctx context.Context, noteID string) (*services.ItemStatus, error) {
	note, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	return &services.ItemStatus{
		Status:      note.Status,
		ProcessKind: note.ProcessKind,
		ErrorDetail: note.ErrorDetail,
		UpdatedAt:   note.UpdatedAt,
	}, nil
}
