package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"canopy/internal/domain"
	"canopy/internal/domain/models"
	"canopy/internal/domain/repositories"
)

// siblingOrder sorts folders before notes/ai-notes, then oldest first.
// Shared by every listing query so the REST surface and tree derivation
// agree on ordering.
const siblingOrder = `CASE WHEN variant = 'folder' THEN 0 ELSE 1 END, created_at ASC`

const itemColumns = `id, parent_id, variant, name, content, process_kind, status, error_detail, created_at, updated_at`

// PostgresItemRepository implements the ItemRepository interface
type PostgresItemRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(config *RepositoryConfig) repositories.ItemRepository {
	return &PostgresItemRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new item, assigning a fresh UUID.
func (r *PostgresItemRepository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Items, itemColumns)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		item.ID,
		item.ParentID,
		string(item.Variant),
		item.Name,
		item.Content,
		processKindArg(item.ProcessKind),
		statusArg(item.Status),
		item.ErrorDetail,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent %v: %w", item.ParentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by ID
func (r *PostgresItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, itemColumns, r.tables.Items)

	executor := GetExecutor(ctx, r.pool)
	item, err := scanItem(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return item, nil
}

// Update persists the mutable fields and refreshes updated_at.
func (r *PostgresItemRepository) Update(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now()

	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, content = $3, process_kind = $4,
		    status = $5, error_detail = $6, updated_at = $7
		WHERE id = $8
	`, r.tables.Items)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		item.ParentID,
		item.Name,
		item.Content,
		processKindArg(item.ProcessKind),
		statusArg(item.Status),
		item.ErrorDetail,
		item.UpdatedAt,
		item.ID,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent %v: %w", item.ParentID, domain.ErrNotFound)
		}
		return fmt.Errorf("update item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", item.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes an item; the ON DELETE CASCADE constraint on parent_id
// removes the whole subtree with it.
func (r *PostgresItemRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Items)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListAll returns every item ordered by creation time.
func (r *PostgresItemRepository) ListAll(ctx context.Context) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY %s
	`, itemColumns, r.tables.Items, siblingOrder)

	return r.queryItems(ctx, query)
}

// ListRoots returns items with no parent.
func (r *PostgresItemRepository) ListRoots(ctx context.Context) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id IS NULL
		ORDER BY %s
	`, itemColumns, r.tables.Items, siblingOrder)

	return r.queryItems(ctx, query)
}

// ListChildren returns the direct children of an item.
func (r *PostgresItemRepository) ListChildren(ctx context.Context, parentID string) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_id = $1
		ORDER BY %s
	`, itemColumns, r.tables.Items, siblingOrder)

	return r.queryItems(ctx, query, parentID)
}

// ListSubtree returns the item and all its descendants, shallower rows first.
func (r *PostgresItemRepository) ListSubtree(ctx context.Context, id string) ([]models.Item, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT %s, 0 AS depth
			FROM %s
			WHERE id = $1
			UNION ALL
			SELECT %s, s.depth + 1
			FROM %s i
			JOIN subtree s ON i.parent_id = s.id
		)
		SELECT %s
		FROM subtree
		ORDER BY depth ASC, %s
	`,
		itemColumns, r.tables.Items,
		prefixColumns("i"), r.tables.Items,
		itemColumns, siblingOrder,
	)

	items, err := r.queryItems(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}

	return items, nil
}

// ClaimForProcessing is the atomic check-and-set guarding "at most one run
// per note": a single conditional UPDATE that only matches when the item is
// a non-folder in a startable status. Two concurrent claims race on the row,
// and exactly one sees RowsAffected == 1.
func (r *PostgresItemRepository) ClaimForProcessing(ctx context.Context, id string, kind models.ProcessKind) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, process_kind = $3, updated_at = $4
		WHERE id = $1
		  AND variant <> 'folder'
		  AND status = ANY($5)
	`, r.tables.Items)

	startable := []string{
		string(models.StatusDraft),
		string(models.StatusComplete),
		string(models.StatusFailed),
	}

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		id,
		string(models.StatusProcessing),
		string(kind),
		time.Now(),
		startable,
	)
	if err != nil {
		return false, fmt.Errorf("claim item for processing: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// SetStatus records a terminal status. A nil errorDetail clears any
// previous failure detail.
func (r *PostgresItemRepository) SetStatus(ctx context.Context, id string, status models.Status, errorDetail *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, error_detail = $3, updated_at = $4
		WHERE id = $1
	`, r.tables.Items)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, string(status), errorDetail, time.Now())
	if err != nil {
		return fmt.Errorf("set item status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresItemRepository) queryItems(ctx context.Context, query string, args ...interface{}) ([]models.Item, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

// scanItem reads one item row. Enum fields travel as nullable text and are
// converted to their domain types here.
func scanItem(row pgx.Row) (*models.Item, error) {
	var (
		item        models.Item
		variant     string
		processKind *string
		status      *string
	)

	err := row.Scan(
		&item.ID,
		&item.ParentID,
		&variant,
		&item.Name,
		&item.Content,
		&processKind,
		&status,
		&item.ErrorDetail,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Variant = models.Variant(variant)
	if processKind != nil {
		kind := models.ProcessKind(*processKind)
		item.ProcessKind = &kind
	}
	if status != nil {
		st := models.Status(*status)
		item.Status = &st
	}

	return &item, nil
}

func processKindArg(kind *models.ProcessKind) *string {
	if kind == nil {
		return nil
	}
	s := string(*kind)
	return &s
}

func statusArg(status *models.Status) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}

// prefixColumns qualifies the item column list with a table alias for use
// inside the recursive CTE.
func prefixColumns(alias string) string {
	return fmt.Sprintf(
		"%[1]s.id, %[1]s.parent_id, %[1]s.variant, %[1]s.name, %[1]s.content, %[1]s.process_kind, %[1]s.status, %[1]s.error_detail, %[1]s.created_at, %[1]s.updated_at",
		alias,
	)
}
