package services

import (
	"context"

	"canopy/internal/domain/models"
	"canopy/internal/httputil"
)

// CreateFolderRequest carries folder creation input.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// CreateNoteRequest carries note creation input.
type CreateNoteRequest struct {
	Content  models.Document `json:"content"`
	ParentID *string         `json:"parent_id,omitempty"`
}

// UpdateFolderRequest carries a rename and/or move. ParentID uses tri-state
// optional semantics: absent = keep, null = move to root, value = move under
// that folder.
type UpdateFolderRequest struct {
	Name     *string                 `json:"name,omitempty"`
	ParentID httputil.OptionalString `json:"parent_id"`
}

// HierarchyService validates and executes structural mutations against the
// item store, preserving the forest invariants.
type HierarchyService interface {
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Item, error)
	CreateNote(ctx context.Context, req *CreateNoteRequest) (*models.Item, error)
	UpdateNoteContent(ctx context.Context, id string, content models.Document) (*models.Item, error)
	UpdateFolder(ctx context.Context, id string, req *UpdateFolderRequest) (*models.Item, error)
	MoveItem(ctx context.Context, id string, newParentID *string) (*models.Item, error)
	DeleteFolder(ctx context.Context, id string) error
	DeleteItem(ctx context.Context, id string) error

	GetItem(ctx context.Context, id string) (*models.Item, error)
	GetForest(ctx context.Context) (*models.Forest, error)
	ListAll(ctx context.Context) ([]models.Item, error)
	ListRoots(ctx context.Context) ([]models.Item, error)
	ListChildren(ctx context.Context, folderID string) ([]models.Item, error)
	ListSubtree(ctx context.Context, id string) ([]models.Item, error)
}
