package repositories

import (
	"context"

	"canopy/internal/domain/models"
)

// ItemRepository is the persistence boundary for the items table.
// Implementations must order sibling listings folders-first, then by
// creation time ascending.
type ItemRepository interface {
	// Create inserts a new item. The caller assigns the ID.
	Create(ctx context.Context, item *models.Item) error

	// GetByID retrieves a single item. Returns domain.ErrNotFound (wrapped)
	// if no row matches.
	GetByID(ctx context.Context, id string) (*models.Item, error)

	// Update persists parent_id, name, content, process_kind, status and
	// error_detail, refreshing updated_at.
	Update(ctx context.Context, item *models.Item) error

	// Delete removes the item and, via the cascading parent_id constraint,
	// its entire subtree.
	Delete(ctx context.Context, id string) error

	// ListAll returns every item, roots first by creation time.
	ListAll(ctx context.Context) ([]models.Item, error)

	// ListRoots returns items with a null parent.
	ListRoots(ctx context.Context) ([]models.Item, error)

	// ListChildren returns the direct children of an item.
	ListChildren(ctx context.Context, parentID string) ([]models.Item, error)

	// ListSubtree returns an item and all its descendants, shallower rows
	// first (depth-ordered).
	ListSubtree(ctx context.Context, id string) ([]models.Item, error)

	// ClaimForProcessing atomically moves a non-folder item from any of
	// draft/complete/failed into processing, recording the process kind.
	// It is a single conditional UPDATE so two concurrent claims cannot both
	// succeed; returns false when the item exists but was not claimable
	// (already processing, or a folder).
	ClaimForProcessing(ctx context.Context, id string, kind models.ProcessKind) (bool, error)

	// SetStatus sets the terminal status of a run. A nil errorDetail clears
	// any previous failure detail.
	SetStatus(ctx context.Context, id string, status models.Status, errorDetail *string) error
}
