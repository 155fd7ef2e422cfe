package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the items table and its indexes if they do not exist.
// The self-referencing parent_id constraint carries ON DELETE CASCADE, which
// is what makes subtree deletion a single DELETE of the root.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	ddl := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				parent_id UUID REFERENCES %s(id) ON DELETE CASCADE,
				variant TEXT NOT NULL,
				name VARCHAR(255),
				content JSONB,
				process_kind TEXT,
				status TEXT,
				error_detail TEXT,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)
		`, tables.Items, tables.Items),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_parent_id ON %s (parent_id)`,
			tables.Items, tables.Items),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_status ON %s (status)`,
			tables.Items, tables.Items),
	}

	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
