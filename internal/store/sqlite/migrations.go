package sqlite

import (
	"context"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			requester_id TEXT NOT NULL DEFAULT '',
			requester_name TEXT NOT NULL DEFAULT '',
			product_url TEXT NOT NULL,
			size TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'pending',
			note TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			processed_at INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status_created
			ON orders (status, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_requester
			ON orders (requester_id, status);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
