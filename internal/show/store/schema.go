package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

// Schema is the full DDL for the show and batch tables. Statements are
// idempotent so the schema can be re-applied at startup.
//
//go:embed schema.sql
var Schema string

// ApplySchema creates the tables when they do not exist yet. Used by dev
// auto-migration and the integration-test containers.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
