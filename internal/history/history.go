// Package history defines the durable, append-only log of requested Fibonacci
// indices. Records are never mutated or deleted, and duplicates are allowed:
// every accepted request appends a new record, even for an index requested
// before.
package history

import "context"

// IndexRecord is a single requested index. The field name matches the wire
// representation served by GET /values/all.
type IndexRecord struct {
	Number uint64 `json:"number"`
}

// Store is the history store contract. Implementations provide durability;
// the pipeline does not implement its own. Both operations may block on I/O
// and must honor context cancellation.
type Store interface {
	// Append adds a record to the log.
	Append(ctx context.Context, record IndexRecord) error

	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]IndexRecord, error)
}
