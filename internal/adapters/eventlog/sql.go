package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/ladder/internal/domain/model"
)

// dialect captures the few differences between the SQL backends.
type dialect struct {
	name        string
	placeholder func(n int) string
}

var (
	sqliteDialect   = dialect{name: KindSQLite, placeholder: func(int) string { return "?" }}
	postgresDialect = dialect{name: KindPostgres, placeholder: func(n int) string { return "$" + strconv.Itoa(n) }}
)

// SQLLog stores records in an "events" table; the autoincrement id gives
// insertion order.
type SQLLog struct {
	db      *sql.DB
	dialect dialect

	selectAll  string
	insert     string
	selectNth  string
	deleteByID string
}

func newSQLLog(db *sql.DB, d dialect) *SQLLog {
	cols := strings.Join(model.Columns, ", ")
	ph := make([]string, len(model.Columns))
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}
	return &SQLLog{
		db:         db,
		dialect:    d,
		selectAll:  `SELECT ` + cols + ` FROM events ORDER BY id`,
		insert:     `INSERT INTO events (` + cols + `) VALUES (` + strings.Join(ph, ",") + `)`,
		selectNth:  `SELECT id FROM events ORDER BY id LIMIT 1 OFFSET ` + d.placeholder(1),
		deleteByID: `DELETE FROM events WHERE id = ` + d.placeholder(1),
	}
}

// ReadAll returns all rows ordered by id.
func (s *SQLLog) ReadAll(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.selectAll)
	if err != nil {
		return nil, fmt.Errorf("%w: query events: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.Date, &r.Type, &r.TeamA, &r.TeamB, &r.Winner, &r.Score, &r.Sets, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate events: %w", ErrUnavailable, err)
	}
	return records, nil
}

// Append inserts r as a new row.
func (s *SQLLog) Append(ctx context.Context, r model.Record) error {
	values := r.Values()
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	if _, err := s.db.ExecContext(ctx, s.insert, args...); err != nil {
		return fmt.Errorf("%w: insert event: %w", ErrUnavailable, err)
	}
	return nil
}

// DeleteAt removes the row at position inside one transaction.
func (s *SQLLog) DeleteAt(ctx context.Context, position int) error {
	idx, err := index(position)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete tx: %w", ErrUnavailable, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, s.selectNth, idx).Scan(&id); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrPositionOutOfRange, position)
		}
		return fmt.Errorf("%w: locate event: %w", ErrUnavailable, err)
	}
	if _, err := tx.ExecContext(ctx, s.deleteByID, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: delete event: %w", ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete tx: %w", ErrUnavailable, err)
	}
	return nil
}

// Kind returns the dialect name.
func (s *SQLLog) Kind() string { return s.dialect.name }

// Close closes the database handle.
func (s *SQLLog) Close() error { return s.db.Close() }
