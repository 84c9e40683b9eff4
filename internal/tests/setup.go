// Package tests holds the end-to-end suite that runs against a real
// PostgreSQL database. It is skipped when DATABASE_URL is unset.
package tests

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/focusnest/server/internal/db"
)

// RunMigrations applies the embedded migrations to the test database.
func RunMigrations(database *sql.DB) error {
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate test database: %w", err)
	}
	return nil
}

// TruncateTables empties users and tasks for a clean test state.
func TruncateTables(ctx context.Context, database *sql.DB) error {
	_, err := database.ExecContext(ctx, "TRUNCATE TABLE tasks, users RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
