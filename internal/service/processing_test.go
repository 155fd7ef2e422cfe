package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/services"
	"canopy/internal/service/textgen"
)

// fakeGenerator returns a scripted output or error. An optional gate channel
// lets a test hold a run in flight.
type fakeGenerator struct {
	mu     sync.Mutex
	output string
	err    error
	gate   chan struct{}
	calls  int
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Generate(ctx context.Context, req *services.GenerateRequest) (string, error) {
	g.mu.Lock()
	g.calls++
	gate := g.gate
	output, err := g.output, g.err
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return output, err
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// disconnectingGenerator cancels the request context during the call, the
// way a closed client connection does, and returns the cancellation error.
type disconnectingGenerator struct {
	cancel context.CancelFunc
}

func (g *disconnectingGenerator) Name() string { return "fake" }

func (g *disconnectingGenerator) Generate(ctx context.Context, req *services.GenerateRequest) (string, error) {
	g.cancel()
	return "", ctx.Err()
}

func mustPromptRegistry(t *testing.T) *textgen.PromptRegistry {
	t.Helper()
	prompts, err := textgen.NewPromptRegistry()
	if err != nil {
		t.Fatalf("NewPromptRegistry: %v", err)
	}
	return prompts
}

func newTestProcessing(t *testing.T, gen services.TextGenerator) (services.ProcessingService, services.HierarchyService, *fakeItemRepo) {
	t.Helper()
	repo := newFakeItemRepo()
	proc := NewProcessingService(repo, gen, mustPromptRegistry(t), testLogger())
	hier := NewHierarchyService(repo, fakeTxManager{}, testLogger())
	return proc, hier, repo
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("success creates ai-note child and completes", func(t *testing.T) {
		gen := &fakeGenerator{output: "# Summary\n\nGenerated body."}
		proc, hier, repo := newTestProcessing(t, gen)
		note := mustCreateNote(t, hier, nil)

		result, err := proc.Run(ctx, note.ID, models.ProcessKindSummarize)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.ProcessKind != models.ProcessKindSummarize {
			t.Errorf("result kind = %q, want summarize", result.ProcessKind)
		}

		child, err := repo.GetByID(ctx, result.ChildID)
		if err != nil {
			t.Fatalf("child not persisted: %v", err)
		}
		if child.Variant != models.VariantAINote {
			t.Errorf("child variant = %q, want ai-note", child.Variant)
		}
		if child.ParentID == nil || *child.ParentID != note.ID {
			t.Errorf("child parent = %v, want %s", child.ParentID, note.ID)
		}
		if child.ProcessKind == nil || *child.ProcessKind != models.ProcessKindSummarize {
			t.Errorf("child process_kind = %v, want summarize", child.ProcessKind)
		}
		if child.Status == nil || *child.Status != models.StatusComplete {
			t.Errorf("child status = %v, want complete", child.Status)
		}
		if child.Content == nil {
			t.Error("child content is nil")
		}

		source, err := repo.GetByID(ctx, note.ID)
		if err != nil {
			t.Fatal(err)
		}
		if source.Status == nil || *source.Status != models.StatusComplete {
			t.Errorf("source status = %v, want complete", source.Status)
		}
		if source.ErrorDetail != nil {
			t.Errorf("source error_detail = %q, want nil", *source.ErrorDetail)
		}
		if source.ProcessKind == nil || *source.ProcessKind != models.ProcessKindSummarize {
			t.Errorf("source process_kind = %v, want summarize", source.ProcessKind)
		}

		wantSeq := []models.Status{models.StatusProcessing, models.StatusComplete}
		gotSeq := repo.statusTransitions(note.ID)
		if len(gotSeq) != len(wantSeq) {
			t.Fatalf("transitions = %v, want %v", gotSeq, wantSeq)
		}
		for i := range wantSeq {
			if gotSeq[i] != wantSeq[i] {
				t.Errorf("transitions = %v, want %v", gotSeq, wantSeq)
				break
			}
		}
	})

	t.Run("every process kind is runnable", func(t *testing.T) {
		gen := &fakeGenerator{output: "output"}
		proc, hier, _ := newTestProcessing(t, gen)

		for _, kind := range models.ProcessKinds {
			note := mustCreateNote(t, hier, nil)
			if _, err := proc.Run(ctx, note.ID, kind); err != nil {
				t.Errorf("Run(%s): %v", kind, err)
			}
		}
	})

	t.Run("unknown kind rejected before any state change", func(t *testing.T) {
		gen := &fakeGenerator{output: "output"}
		proc, hier, repo := newTestProcessing(t, gen)
		note := mustCreateNote(t, hier, nil)

		_, err := proc.Run(ctx, note.ID, models.ProcessKind("translate"))
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("error = %v, want %v", err, domain.ErrValidation)
		}

		stored, err := repo.GetByID(ctx, note.ID)
		if err != nil {
			t.Fatal(err)
		}
		if *stored.Status != models.StatusDraft {
			t.Errorf("status = %q, want draft", *stored.Status)
		}
		if gen.callCount() != 0 {
			t.Errorf("generator called %d times, want 0", gen.callCount())
		}
	})

	t.Run("missing note", func(t *testing.T) {
		proc, _, _ := newTestProcessing(t, &fakeGenerator{output: "x"})
		_, err := proc.Run(ctx, uuid.New().String(), models.ProcessKindResearch)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrNotFound)
		}
	})

	t.Run("folder rejected", func(t *testing.T) {
		proc, hier, _ := newTestProcessing(t, &fakeGenerator{output: "x"})
		folder := mustCreateFolder(t, hier, "A", nil)
		_, err := proc.Run(ctx, folder.ID, models.ProcessKindResearch)
		if !errors.Is(err, domain.ErrInvalidVariant) {
			t.Errorf("error = %v, want %v", err, domain.ErrInvalidVariant)
		}
	})

	t.Run("empty content fails the run", func(t *testing.T) {
		gen := &fakeGenerator{output: "x"}
		proc, hier, repo := newTestProcessing(t, gen)
		note, err := hier.CreateNote(ctx, &services.CreateNoteRequest{
			Content: models.Document{"type": "doc", "content": []interface{}{}},
		})
		if err != nil {
			t.Fatal(err)
		}

		_, err = proc.Run(ctx, note.ID, models.ProcessKindExpand)
		if !errors.Is(err, domain.ErrGeneration) {
			t.Fatalf("error = %v, want %v", err, domain.ErrGeneration)
		}

		stored, err := repo.GetByID(ctx, note.ID)
		if err != nil {
			t.Fatal(err)
		}
		if *stored.Status != models.StatusFailed {
			t.Errorf("status = %q, want failed", *stored.Status)
		}
		if stored.ErrorDetail == nil || *stored.ErrorDetail == "" {
			t.Error("error_detail not recorded")
		}
		if gen.callCount() != 0 {
			t.Errorf("generator called %d times, want 0", gen.callCount())
		}
	})

	t.Run("generator failure records failed with detail", func(t *testing.T) {
		gen := &fakeGenerator{err: fmt.Errorf("upstream timeout")}
		proc, hier, repo := newTestProcessing(t, gen)
		note := mustCreateNote(t, hier, nil)

		_, err := proc.Run(ctx, note.ID, models.ProcessKindResearch)
		if !errors.Is(err, domain.ErrGeneration) {
			t.Fatalf("error = %v, want %v", err, domain.ErrGeneration)
		}

		stored, err := repo.GetByID(ctx, note.ID)
		if err != nil {
			t.Fatal(err)
		}
		if *stored.Status != models.StatusFailed {
			t.Errorf("status = %q, want failed", *stored.Status)
		}
		if stored.ErrorDetail == nil {
			t.Fatal("error_detail not recorded")
		}

		// No ai-note child was created
		children, err := repo.ListChildren(ctx, note.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(children) != 0 {
			t.Errorf("got %d children after failed run, want 0", len(children))
		}
	})

	t.Run("concurrent run conflicts and exactly one child is created", func(t *testing.T) {
		gate := make(chan struct{})
		gen := &fakeGenerator{output: "slow output", gate: gate}
		proc, hier, repo := newTestProcessing(t, gen)
		note := mustCreateNote(t, hier, nil)

		done := make(chan error, 1)
		go func() {
			_, err := proc.Run(ctx, note.ID, models.ProcessKindResearch)
			done <- err
		}()

		// Wait until the first run holds the claim
		deadline := time.Now().Add(5 * time.Second)
		for {
			stored, err := repo.GetByID(ctx, note.ID)
			if err != nil {
				t.Fatal(err)
			}
			if stored.Status != nil && *stored.Status == models.StatusProcessing {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("first run never reached processing")
			}
			time.Sleep(time.Millisecond)
		}

		_, err := proc.Run(ctx, note.ID, models.ProcessKindResearch)
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("second run error = %v, want %v", err, domain.ErrConflict)
		}

		close(gate)
		if err := <-done; err != nil {
			t.Fatalf("first run failed: %v", err)
		}

		children, err := repo.ListChildren(ctx, note.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(children) != 1 {
			t.Errorf("got %d children, want exactly 1", len(children))
		}
	})

	t.Run("client disconnect mid-generation still lands failed", func(t *testing.T) {
		// The request context dies during the collaborator call; the
		// terminal bookkeeping must still be written or the note stays
		// processing forever with no retry path.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gen := &disconnectingGenerator{cancel: cancel}
		proc, hier, repo := newTestProcessing(t, gen)
		note := mustCreateNote(t, hier, nil)

		_, err := proc.Run(ctx, note.ID, models.ProcessKindResearch)
		if !errors.Is(err, domain.ErrGeneration) {
			t.Fatalf("error = %v, want %v", err, domain.ErrGeneration)
		}

		stored, err := repo.GetByID(context.Background(), note.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Status == nil || *stored.Status != models.StatusFailed {
			t.Fatalf("status = %v, want failed", stored.Status)
		}
		if stored.ErrorDetail == nil {
			t.Error("error_detail not recorded")
		}

		// The failed state is retryable once the provider recovers
		gen2 := &fakeGenerator{output: "recovered"}
		proc2 := NewProcessingService(repo, gen2, mustPromptRegistry(t), testLogger())
		if _, err := proc2.Retry(context.Background(), note.ID); err != nil {
			t.Fatalf("Retry after disconnect: %v", err)
		}
	})

	t.Run("reprocessing a complete note is allowed", func(t *testing.T) {
		gen := &fakeGenerator{output: "v1"}
		proc, hier, repo := newTestProcessing(t, gen)
		note := mustCreateNote(t, hier, nil)

		if _, err := proc.Run(ctx, note.ID, models.ProcessKindResearch); err != nil {
			t.Fatal(err)
		}
		if _, err := proc.Run(ctx, note.ID, models.ProcessKindSummarize); err != nil {
			t.Fatal(err)
		}

		children, err := repo.ListChildren(ctx, note.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(children) != 2 {
			t.Errorf("got %d children, want 2", len(children))
		}
	})
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retry after failure completes with the stored kind", func(t *testing.T) {
		gen := &fakeGenerator{err: fmt.Errorf("flaky")}
		proc, hier, repo := newTestProcessing(t, gen)
		note := mustCreateNote(t, hier, nil)

		if _, err := proc.Run(ctx, note.ID, models.ProcessKindActionPlan); !errors.Is(err, domain.ErrGeneration) {
			t.Fatalf("first run error = %v, want %v", err, domain.ErrGeneration)
		}

		gen.mu.Lock()
		gen.err = nil
		gen.output = "recovered"
		gen.mu.Unlock()

		result, err := proc.Retry(ctx, note.ID)
		if err != nil {
			t.Fatalf("Retry: %v", err)
		}
		if result.ProcessKind != models.ProcessKindActionPlan {
			t.Errorf("retry kind = %q, want actionplan", result.ProcessKind)
		}

		stored, err := repo.GetByID(ctx, note.ID)
		if err != nil {
			t.Fatal(err)
		}
		if *stored.Status != models.StatusComplete {
			t.Errorf("status = %q, want complete", *stored.Status)
		}
		if stored.ErrorDetail != nil {
			t.Errorf("error_detail = %q, want cleared", *stored.ErrorDetail)
		}

		wantSeq := []models.Status{
			models.StatusProcessing, models.StatusFailed,
			models.StatusProcessing, models.StatusComplete,
		}
		gotSeq := repo.statusTransitions(note.ID)
		if len(gotSeq) != len(wantSeq) {
			t.Fatalf("transitions = %v, want %v", gotSeq, wantSeq)
		}
		for i := range wantSeq {
			if gotSeq[i] != wantSeq[i] {
				t.Errorf("transitions = %v, want %v", gotSeq, wantSeq)
				break
			}
		}
	})

	t.Run("retry rejected unless failed", func(t *testing.T) {
		gen := &fakeGenerator{output: "ok"}
		proc, hier, _ := newTestProcessing(t, gen)

		draft := mustCreateNote(t, hier, nil)
		if _, err := proc.Retry(ctx, draft.ID); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("retry of draft error = %v, want %v", err, domain.ErrValidation)
		}

		complete := mustCreateNote(t, hier, nil)
		if _, err := proc.Run(ctx, complete.ID, models.ProcessKindResearch); err != nil {
			t.Fatal(err)
		}
		if _, err := proc.Retry(ctx, complete.ID); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("retry of complete error = %v, want %v", err, domain.ErrValidation)
		}
	})

	t.Run("retry of folder rejected", func(t *testing.T) {
		proc, hier, _ := newTestProcessing(t, &fakeGenerator{output: "x"})
		folder := mustCreateFolder(t, hier, "A", nil)
		if _, err := proc.Retry(ctx, folder.ID); !errors.Is(err, domain.ErrInvalidVariant) {
			t.Errorf("error = %v, want %v", err, domain.ErrInvalidVariant)
		}
	})

	t.Run("retry of missing note", func(t *testing.T) {
		proc, _, _ := newTestProcessing(t, &fakeGenerator{output: "x"})
		if _, err := proc.Retry(ctx, uuid.New().String()); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want %v", err, domain.ErrNotFound)
		}
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()

	gen := &fakeGenerator{err: fmt.Errorf("boom")}
	proc, hier, _ := newTestProcessing(t, gen)
	note := mustCreateNote(t, hier, nil)

	status, err := proc.Status(ctx, note.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Status == nil || *status.Status != models.StatusDraft {
		t.Errorf("status = %v, want draft", status.Status)
	}
	if status.ProcessKind != nil || status.ErrorDetail != nil {
		t.Error("process_kind and error_detail should start nil")
	}

	if _, err := proc.Run(ctx, note.ID, models.ProcessKindResearch); !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("run error = %v, want %v", err, domain.ErrGeneration)
	}

	status, err = proc.Status(ctx, note.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Status == nil || *status.Status != models.StatusFailed {
		t.Errorf("status = %v, want failed", status.Status)
	}
	if status.ProcessKind == nil || *status.ProcessKind != models.ProcessKindResearch {
		t.Errorf("process_kind = %v, want research", status.ProcessKind)
	}
	if status.ErrorDetail == nil {
		t.Error("error_detail missing after failed run")
	}

	if _, err := proc.Status(ctx, uuid.New().String()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want %v", err, domain.ErrNotFound)
	}
}
