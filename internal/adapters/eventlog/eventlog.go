// Package eventlog stores the append-only ladder log.
//
// Every backend exposes the same three operations: read the whole log in
// insertion order, append one record, and delete one record by position.
// Positions count the header row of the original spreadsheet layout as 1,
// so the first data record lives at FirstPosition.
package eventlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/ladder/internal/domain/model"
)

// FirstPosition is the position of the oldest data record.
const FirstPosition = 2

// Backend names accepted by Open.
const (
	KindMemory   = "memory"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindRedis    = "redis"
	KindBolt     = "bolt"
)

// Log is the event log collaborator consumed by the service.
type Log interface {
	// ReadAll returns every record in insertion order. An empty log yields an
	// empty, non-nil slice.
	ReadAll(ctx context.Context) ([]model.Record, error)

	// Append stores r at the end of the log.
	Append(ctx context.Context, r model.Record) error

	// DeleteAt removes the record at position (FirstPosition is the oldest).
	// Returns ErrPositionOutOfRange if no record lives there.
	DeleteAt(ctx context.Context, position int) error

	// Kind names the backend.
	Kind() string

	Close() error
}

// index converts a position into a zero-based offset, validating the lower bound.
func index(position int) (int, error) {
	if position < FirstPosition {
		return 0, fmt.Errorf("%w: %d", ErrPositionOutOfRange, position)
	}
	return position - FirstPosition, nil
}

// Options selects and configures a backend.
type Options struct {
	Kind          string
	SQLitePath    string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
	BoltPath      string
}

// Open constructs the backend named by opts.Kind.
func Open(ctx context.Context, opts Options) (Log, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindMemory:
		return NewMemoryLog(), nil
	case KindSQLite:
		return NewSQLiteLog(ctx, opts.SQLitePath)
	case KindPostgres:
		return NewPostgresLog(ctx, opts.PostgresDSN)
	case KindRedis:
		return NewRedisLog(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Key:      opts.RedisKey,
		})
	case KindBolt:
		return NewBoltLog(ctx, opts.BoltPath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Kind)
	}
}
