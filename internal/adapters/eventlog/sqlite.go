package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// NewSQLiteLog opens (or creates) the sqlite database at path and migrates it.
func NewSQLiteLog(ctx context.Context, path string) (*SQLLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers, which is all the log needs.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite: %w", ErrUnavailable, err)
	}
	if err := applyMigrations(ctx, db, sqliteDialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLLog(db, sqliteDialect), nil
}
