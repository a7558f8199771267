package history

import (
	"context"
	"sync"
)

// MemoryStore implements Store in process memory. It preserves insertion
// order and is safe for concurrent use. Intended for tests and for running
// the service without a database path configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records []IndexRecord
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds a record to the log.
func (m *MemoryStore) Append(ctx context.Context, record IndexRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)
	return nil
}

// ListAll returns a copy of every record in insertion order.
func (m *MemoryStore) ListAll(ctx context.Context) ([]IndexRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]IndexRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
