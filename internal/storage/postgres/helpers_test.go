// Package postgres provides a PostgreSQL implementation of storage interfaces.
// This file contains test helpers only available during testing.
package postgres

import (
	"context"
	"fmt"
)

// TruncateForTest removes all rows from the icons table.
func (s *IconStore) TruncateForTest(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "TRUNCATE TABLE icons")
	if err != nil {
		return fmt.Errorf("postgres: failed to truncate icons: %w", err)
	}
	return nil
}
