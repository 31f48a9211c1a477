package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/ladder/internal/domain/model"
)

// MemoryLog keeps the log in process memory. It is the default backend and
// the one used by tests.
type MemoryLog struct {
	mu      sync.RWMutex
	records []model.Record
	closed  bool
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog(seed ...model.Record) *MemoryLog {
	return &MemoryLog{records: append([]model.Record{}, seed...)}
}

// ReadAll returns a copy of the records.
func (m *MemoryLog) ReadAll(_ context.Context) ([]model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return append([]model.Record{}, m.records...), nil
}

// Append adds r to the end of the log.
func (m *MemoryLog) Append(_ context.Context, r model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records = append(m.records, r)
	return nil
}

// DeleteAt removes the record at position.
func (m *MemoryLog) DeleteAt(_ context.Context, position int) error {
	idx, err := index(position)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if idx >= len(m.records) {
		return fmt.Errorf("%w: %d", ErrPositionOutOfRange, position)
	}
	m.records = append(m.records[:idx], m.records[idx+1:]...)
	return nil
}

// Kind returns KindMemory.
func (m *MemoryLog) Kind() string { return KindMemory }

// Close marks the log closed.
func (m *MemoryLog) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
