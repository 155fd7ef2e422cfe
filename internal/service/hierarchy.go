package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"canopy/internal/config"
	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/repositories"
	"canopy/internal/domain/services"
)

type hierarchyService struct {
	repo      repositories.ItemRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(
	repo repositories.ItemRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.HierarchyService {
	return &hierarchyService{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// CreateFolder creates a new folder, optionally under an existing folder.
func (s *hierarchyService) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.Item, error) {
	name := strings.TrimSpace(req.Name)
	if err := ValidateFolderName(name); err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid folder name: %v", err)}
	}

	parentID := normalizeParentID(req.ParentID)
	if parentID != nil {
		if err := s.ensureFolderParent(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	item := &models.Item{
		ParentID: parentID,
		Variant:  models.VariantFolder,
		Name:     &name,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", item.ID,
		"name", name,
		"parent_id", item.ParentID,
	)

	return item, nil
}

// CreateNote creates a new note in draft status. The parent may be any
// existing item: notes nest under folders and under other notes.
func (s *hierarchyService) CreateNote(ctx context.Context, req *services.CreateNoteRequest) (*models.Item, error) {
	if req.Content == nil {
		return nil, &domain.ValidationError{Message: "content is required"}
	}

	parentID := normalizeParentID(req.ParentID)
	if parentID != nil {
		if _, err := s.getParent(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	status := models.StatusDraft
	item := &models.Item{
		ParentID: parentID,
		Variant:  models.VariantNote,
		Content:  req.Content,
		Status:   &status,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("note created",
		"id", item.ID,
		"parent_id", item.ParentID,
	)

	return item, nil
}

// UpdateNoteContent replaces a note's document body.
func (s *hierarchyService) UpdateNoteContent(ctx context.Context, id string, content models.Document) (*models.Item, error) {
	if content == nil {
		return nil, &domain.ValidationError{Message: "content is required"}
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.IsFolder() {
		return nil, &domain.InvalidVariantError{Message: "folders have no content"}
	}

	item.Content = content
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// UpdateFolder renames and/or moves a folder. The structural validation and
// the write run on one transaction so the cycle check sees the tree the
// update lands on.
func (s *hierarchyService) UpdateFolder(ctx context.Context, id string, req *services.UpdateFolderRequest) (*models.Item, error) {
	if req.Name == nil && !req.ParentID.Present {
		return nil, &domain.ValidationError{Message: "at least one of name or parent_id must be provided"}
	}

	var updated *models.Item
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !item.IsFolder() {
			return &domain.InvalidVariantError{Message: "only folders can be renamed or moved here"}
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if err := ValidateFolderName(name); err != nil {
				return &domain.ValidationError{Message: fmt.Sprintf("invalid folder name: %v", err)}
			}
			item.Name = &name
		}

		// Tri-state: only touch the parent if the field was in the request
		if req.ParentID.Present {
			if req.ParentID.Value != nil {
				newParentID := *req.ParentID.Value
				if err := s.ensureFolderParent(ctx, newParentID); err != nil {
					return err
				}
				if err := s.ensureNoCycle(ctx, id, newParentID); err != nil {
					return err
				}
				item.ParentID = &newParentID
				s.logger.Debug("moving folder to new parent",
					"folder_id", id,
					"new_parent_id", newParentID,
				)
			} else {
				// null = move to root
				item.ParentID = nil
				s.logger.Debug("moving folder to root", "folder_id", id)
			}
		}

		if err := s.repo.Update(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder updated",
		"id", updated.ID,
		"name", updated.Name,
		"parent_id", updated.ParentID,
	)

	return updated, nil
}

// MoveItem reparents any item. Only folders need the cycle check: a note or
// ai-note can never be an ancestor of anything.
func (s *hierarchyService) MoveItem(ctx context.Context, id string, newParentID *string) (*models.Item, error) {
	newParentID = normalizeParentID(newParentID)

	var updated *models.Item
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if newParentID != nil {
			if err := s.ensureFolderParent(ctx, *newParentID); err != nil {
				return err
			}
			if item.IsFolder() {
				if err := s.ensureNoCycle(ctx, id, *newParentID); err != nil {
					return err
				}
			} else if *newParentID == id {
				return &domain.CircularReferenceError{Message: "cannot move an item under itself"}
			}
		}

		item.ParentID = newParentID
		if err := s.repo.Update(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item moved",
		"id", updated.ID,
		"variant", updated.Variant,
		"parent_id", updated.ParentID,
	)

	return updated, nil
}

// DeleteFolder deletes a folder and its entire subtree.
func (s *hierarchyService) DeleteFolder(ctx context.Context, id string) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !item.IsFolder() {
		return &domain.InvalidVariantError{Message: "item is not a folder"}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("folder deleted", "id", id, "name", item.Name)
	return nil
}

// DeleteItem deletes any item and its entire subtree.
func (s *hierarchyService) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("item deleted", "id", id)
	return nil
}

// GetItem retrieves a single item.
func (s *hierarchyService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForest returns the fully materialized nested forest, derived fresh
// from the flat list on every call.
func (s *hierarchyService) GetForest(ctx context.Context) (*models.Forest, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildForest(items), nil
}

// ListAll returns the flat item list clients derive their tree from.
func (s *hierarchyService) ListAll(ctx context.Context) ([]models.Item, error) {
	return s.repo.ListAll(ctx)
}

// ListRoots returns root-level items.
func (s *hierarchyService) ListRoots(ctx context.Context) ([]models.Item, error) {
	return s.repo.ListRoots(ctx)
}

// ListChildren returns the direct children of a folder, folders first then
// by creation time.
func (s *hierarchyService) ListChildren(ctx context.Context, folderID string) ([]models.Item, error) {
	item, err := s.repo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !item.IsFolder() {
		return nil, &domain.InvalidVariantError{Message: "item is not a folder"}
	}

	return s.repo.ListChildren(ctx, folderID)
}

// ListSubtree returns an item and all its descendants, depth-ordered.
func (s *hierarchyService) ListSubtree(ctx context.Context, id string) ([]models.Item, error) {
	return s.repo.ListSubtree(ctx, id)
}

// getParent resolves a body-supplied parent id. Handlers only validate path
// ids, so the shape check happens here: a malformed id can never match a
// stored row and must read as not-found, not as a driver error.
func (s *hierarchyService) getParent(ctx context.Context, parentID string) (*models.Item, error) {
	if _, err := uuid.Parse(parentID); err != nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("parent %s not found", parentID)}
	}
	return s.repo.GetByID(ctx, parentID)
}

// ensureFolderParent checks that a prospective parent exists and is a folder.
func (s *hierarchyService) ensureFolderParent(ctx context.Context, parentID string) error {
	parent, err := s.getParent(ctx, parentID)
	if err != nil {
		return err
	}
	if !parent.IsFolder() {
		return &domain.InvalidVariantError{Message: "parent is not a folder"}
	}
	return nil
}

// ensureNoCycle walks the ancestor chain of the proposed parent. Seeing the
// moved folder on that chain (including the proposed parent itself) means
// the move would create a cycle. The walk is bounded; exceeding the bound is
// treated as circular so the check fails closed on corrupt data.
func (s *hierarchyService) ensureNoCycle(ctx context.Context, id, newParentID string) error {
	currentID := newParentID
	for depth := 0; depth < config.MaxAncestorDepth; depth++ {
		if currentID == id {
			return &domain.CircularReferenceError{
				Message: "cannot move a folder under itself or one of its descendants",
			}
		}

		ancestor, err := s.repo.GetByID(ctx, currentID)
		if err != nil {
			return err
		}
		if ancestor.ParentID == nil {
			return nil
		}
		currentID = *ancestor.ParentID
	}

	return &domain.CircularReferenceError{
		Message: fmt.Sprintf("ancestor chain exceeds %d levels", config.MaxAncestorDepth),
	}
}

// normalizeParentID folds the empty string into nil (root level).
func normalizeParentID(parentID *string) *string {
	if parentID != nil && *parentID == "" {
		return nil
	}
	return parentID
}
